package treejs

import (
	"strconv"

	"github.com/dlclark/regexp2"

	"com.github.sebastianobarrera.modeledjs/treejs/ast"
)

type JSObject struct {
	Prototype *JSObject
	// the [[Class]] reported by Object.prototype.toString
	Class string

	descriptors map[string]*Descriptor
	// property names in insertion order, for for-in and Object.keys
	keys []string

	// at most one of these is set. arrayPart is non-nil for arrays and
	// arguments objects; nil elements are holes.
	arrayPart  []JSValue
	funcPart   *FunctionPart
	regexpPart *RegExpPart
	// the wrapped value of Number, Boolean and String objects
	primitive JSValue
}

type FunctionPart struct {
	isStrict bool
	native   NativeCallback

	literal *ast.FunctionLiteral
	// the script the literal was parsed from; used for positions and
	// toString
	script       *ast.Script
	lexicalScope *Scope

	name string
}

type NativeCallback func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error)

type CallFlags struct {
	isNew bool
}

type RegExpPart struct {
	source string
	flags  string
	global bool
	re     *regexp2.Regexp
}

type Descriptor struct {
	get, set     *JSObject
	value        JSValue
	configurable bool
	enumerable   bool
	writable     bool
}

func (d *Descriptor) isAccessor() bool {
	return d.get != nil || d.set != nil
}

// Arrays are stored densely. Indices at or beyond this limit are ordinary
// properties.
const maxDenseIndex = 1 << 24

func NewJSObject(proto *JSObject) *JSObject {
	return &JSObject{
		Prototype:   proto,
		Class:       "Object",
		descriptors: make(map[string]*Descriptor),
	}
}

func (jso *JSObject) IsArray() bool {
	return jso.arrayPart != nil && jso.Class == "Array"
}

func (jso *JSObject) IsCallable() bool {
	return jso.funcPart != nil
}

func arrayIndex(name string) (int, bool) {
	if name == "" || len(name) > 1 && name[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(name)
	if err != nil || n >= maxDenseIndex {
		return 0, false
	}
	return n, true
}

// virtualProperty resolves the properties that live outside the descriptor
// table: array elements and lengths, and the characters of String objects.
func (jso *JSObject) virtualProperty(name string) (JSValue, bool) {
	if jso.arrayPart != nil {
		if name == "length" {
			return JSNumber(len(jso.arrayPart)), true
		}
		if ndx, ok := arrayIndex(name); ok {
			if ndx < len(jso.arrayPart) && jso.arrayPart[ndx] != nil {
				return jso.arrayPart[ndx], true
			}
			return nil, false
		}
	}
	if s, isStr := jso.primitive.(JSString); isStr {
		return stringProperty(s, name)
	}
	return nil, false
}

func stringProperty(s JSString, name string) (JSValue, bool) {
	runes := []rune(string(s))
	if name == "length" {
		return JSNumber(len(runes)), true
	}
	if ndx, ok := arrayIndex(name); ok && ndx < len(runes) {
		return JSString(runes[ndx]), true
	}
	return nil, false
}

func (jso *JSObject) getOwnPropertyDescriptor(name string) (*Descriptor, bool) {
	d, ok := jso.descriptors[name]
	return d, ok
}

func (jso *JSObject) HasOwnProperty(name string) bool {
	if _, isVirtual := jso.virtualProperty(name); isVirtual {
		return true
	}
	_, isThere := jso.descriptors[name]
	return isThere
}

// DefineProperty installs the descriptor as given, replacing any previous
// one.
func (jso *JSObject) DefineProperty(name string, descriptor Descriptor) *Descriptor {
	if _, isThere := jso.descriptors[name]; !isThere {
		jso.keys = append(jso.keys, name)
	}
	dp := &descriptor
	jso.descriptors[name] = dp
	return dp
}

// defineHidden installs a writable, non-enumerable property; built-in
// methods and constants are defined this way.
func (jso *JSObject) defineHidden(name string, value JSValue) {
	jso.DefineProperty(name, Descriptor{value: value, writable: true, configurable: true})
}

func (jso *JSObject) defineValue(name string, value JSValue) {
	jso.DefineProperty(name, Descriptor{value: value, writable: true, configurable: true, enumerable: true})
}

func (jso *JSObject) getOrDefineProperty(name string) *Descriptor {
	ds, isThere := jso.getOwnPropertyDescriptor(name)
	if !isThere {
		ds = jso.DefineProperty(name, Descriptor{value: undefined, configurable: true, enumerable: true})
	}
	return ds
}

func (jso *JSObject) DeleteProperty(name string) bool {
	if jso.arrayPart != nil {
		if ndx, ok := arrayIndex(name); ok {
			if ndx < len(jso.arrayPart) {
				jso.arrayPart[ndx] = nil
			}
			return true
		}
		if name == "length" {
			return false
		}
	}

	d, wasThere := jso.descriptors[name]
	if !wasThere {
		return true
	}
	if !d.configurable {
		return false
	}
	delete(jso.descriptors, name)
	for i, key := range jso.keys {
		if key == name {
			jso.keys = append(jso.keys[:i:i], jso.keys[i+1:]...)
			break
		}
	}
	return true
}

// OwnKeys lists the enumerable own property names: indices first, then the
// other properties in insertion order.
func (jso *JSObject) OwnKeys() []string {
	var keys []string
	for i, item := range jso.arrayPart {
		if item != nil {
			keys = append(keys, strconv.Itoa(i))
		}
	}
	if s, isStr := jso.primitive.(JSString); isStr {
		for i := range []rune(string(s)) {
			keys = append(keys, strconv.Itoa(i))
		}
	}
	for _, key := range jso.keys {
		if jso.descriptors[key].enumerable {
			keys = append(keys, key)
		}
	}
	return keys
}

func (jso *JSObject) getIndex(ndx int) JSValue {
	if ndx < 0 || ndx >= len(jso.arrayPart) || jso.arrayPart[ndx] == nil {
		return undefined
	}
	return jso.arrayPart[ndx]
}

func (jso *JSObject) setIndex(ndx int, value JSValue) {
	for len(jso.arrayPart) < ndx+1 {
		jso.arrayPart = append(jso.arrayPart, nil)
	}
	jso.arrayPart[ndx] = value
}

func (jso *JSObject) setLength(length int) {
	if length <= len(jso.arrayPart) {
		for i := length; i < len(jso.arrayPart); i++ {
			jso.arrayPart[i] = nil
		}
		jso.arrayPart = jso.arrayPart[:length]
		return
	}
	jso.arrayPart = append(jso.arrayPart, make([]JSValue, length-len(jso.arrayPart))...)
}
