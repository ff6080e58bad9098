package treejs

import (
	"strings"

	"github.com/dlclark/regexp2"
)

func (r *Realm) installRegExp() {
	r.RegExpProto.Class = "RegExp"
	r.defineConstructor("RegExp", 2, r.RegExpProto, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		patternVal, flagsVal := arg(args, 0), arg(args, 1)
		if re, isObj := patternVal.(*JSObject); isObj && re.regexpPart != nil {
			if _, isUndef := flagsVal.(JSUndefined); isUndef && !flags.isNew {
				return re, nil
			}
			patternVal = JSString(re.regexpPart.source)
			if _, isUndef := flagsVal.(JSUndefined); isUndef {
				flagsVal = JSString(re.regexpPart.flags)
			}
		}

		pattern := ""
		if _, isUndef := patternVal.(JSUndefined); !isUndef {
			s, err := vm.ToString(patternVal)
			if err != nil {
				return nil, err
			}
			pattern = string(s)
		}
		reFlags := ""
		if _, isUndef := flagsVal.(JSUndefined); !isUndef {
			s, err := vm.ToString(flagsVal)
			if err != nil {
				return nil, err
			}
			reFlags = string(s)
		}
		return vm.newRegExp(pattern, reFlags)
	})

	proto := r.RegExpProto
	r.defineMethod(proto, "exec", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		re, err := vm.thisRegExp(subject, "exec")
		if err != nil {
			return nil, err
		}
		s, err := vm.ToString(arg(args, 0))
		if err != nil {
			return nil, err
		}
		return vm.regExpExec(re, s)
	})

	r.defineMethod(proto, "test", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		re, err := vm.thisRegExp(subject, "test")
		if err != nil {
			return nil, err
		}
		s, err := vm.ToString(arg(args, 0))
		if err != nil {
			return nil, err
		}
		result, err := vm.regExpExec(re, s)
		if err != nil {
			return nil, err
		}
		return JSBoolean(result != null), nil
	})

	r.defineMethod(proto, "toString", 0, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		re, err := vm.thisRegExp(subject, "toString")
		if err != nil {
			return nil, err
		}
		return JSString("/" + re.regexpPart.source + "/" + re.regexpPart.flags), nil
	})
}

// newRegExp compiles a JS regular expression. The pattern is run by regexp2
// in ECMAScript mode; the flags g, i and m are supported.
func (vm *VM) newRegExp(pattern, flags string) (JSValue, error) {
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	global := false
	for _, f := range flags {
		switch f {
		case 'g':
			global = true
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		default:
			return nil, vm.ThrowError("SyntaxError", "invalid regular expression flag "+string(f))
		}
		if strings.Count(flags, string(f)) > 1 {
			return nil, vm.ThrowError("SyntaxError", "repeated regular expression flag "+string(f))
		}
	}

	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, vm.ThrowError("SyntaxError", "invalid regular expression: "+err.Error())
	}

	obj := NewJSObject(vm.realm.RegExpProto)
	obj.Class = "RegExp"
	obj.regexpPart = &RegExpPart{
		source: pattern,
		flags:  flags,
		global: global,
		re:     re,
	}
	obj.DefineProperty("source", Descriptor{value: JSString(pattern)})
	obj.DefineProperty("global", Descriptor{value: JSBoolean(global)})
	obj.DefineProperty("ignoreCase", Descriptor{value: JSBoolean(opts&regexp2.IgnoreCase != 0)})
	obj.DefineProperty("multiline", Descriptor{value: JSBoolean(opts&regexp2.Multiline != 0)})
	obj.DefineProperty("lastIndex", Descriptor{value: JSNumber(0), writable: true})
	return obj, nil
}

func (vm *VM) thisRegExp(subject JSValue, method string) (*JSObject, error) {
	re, isObj := subject.(*JSObject)
	if !isObj || re.regexpPart == nil {
		return nil, vm.ThrowError("TypeError", "RegExp.prototype."+method+" called on incompatible "+typeOf(subject))
	}
	return re, nil
}

// regExpExec runs one match. Global regexps start at lastIndex and update
// it. Indices count characters, not bytes.
func (vm *VM) regExpExec(reObj *JSObject, s JSString) (JSValue, error) {
	rp := reObj.regexpPart
	runes := []rune(string(s))

	start := 0
	if rp.global {
		lastIndex, err := vm.getProperty(reObj, reObj, "lastIndex")
		if err != nil {
			return nil, err
		}
		li, err := vm.ToInteger(lastIndex)
		if err != nil {
			return nil, err
		}
		if li < 0 || li > float64(len(runes)) {
			return null, vm.setProperty(reObj, "lastIndex", JSNumber(0))
		}
		start = int(li)
	}

	m, err := rp.re.FindRunesMatchStartingAt(runes, start)
	if err != nil {
		return nil, vm.ThrowError("Error", "regular expression failed: "+err.Error())
	}
	if m == nil {
		if rp.global {
			return null, vm.setProperty(reObj, "lastIndex", JSNumber(0))
		}
		return null, nil
	}

	if rp.global {
		end := m.Index + m.Length
		if m.Length == 0 {
			end++
		}
		if err := vm.setProperty(reObj, "lastIndex", JSNumber(end)); err != nil {
			return nil, err
		}
	}

	result := vm.realm.NewArray(matchGroups(m))
	result.defineValue("index", JSNumber(m.Index))
	result.defineValue("input", s)
	return result, nil
}

// matchGroups lists the whole match and each group; groups that did not
// participate are undefined.
func matchGroups(m *regexp2.Match) []JSValue {
	groups := m.Groups()
	items := make([]JSValue, len(groups))
	for i, g := range groups {
		if len(g.Captures) == 0 {
			items[i] = undefined
		} else {
			items[i] = JSString(g.String())
		}
	}
	return items
}
