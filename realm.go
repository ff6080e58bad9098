package treejs

// Realm holds the prototypes and the global object of one VM. Nothing in it
// is shared between VMs.
type Realm struct {
	ObjectProto   *JSObject
	FunctionProto *JSObject
	ArrayProto    *JSObject
	StringProto   *JSObject
	NumberProto   *JSObject
	BooleanProto  *JSObject
	RegExpProto   *JSObject
	ErrorProto    *JSObject

	// prototypes of Error and its subclasses, by constructor name
	errorProtos map[string]*JSObject

	Global *JSObject
}

func newRealm() *Realm {
	r := &Realm{errorProtos: make(map[string]*JSObject)}

	r.ObjectProto = NewJSObject(nil)
	r.FunctionProto = NewJSObject(r.ObjectProto)
	r.FunctionProto.Class = "Function"
	r.FunctionProto.funcPart = &FunctionPart{
		isStrict: true,
		native: func(*VM, JSValue, []JSValue, CallFlags) (JSValue, error) {
			return undefined, nil
		},
	}

	r.ArrayProto = NewJSObject(r.ObjectProto)
	r.ArrayProto.Class = "Array"
	r.ArrayProto.arrayPart = make([]JSValue, 0)
	r.StringProto = r.newWrapper(JSString(""))
	r.NumberProto = r.newWrapper(JSNumber(0))
	r.BooleanProto = r.newWrapper(JSBoolean(false))
	r.RegExpProto = NewJSObject(r.ObjectProto)
	r.ErrorProto = NewJSObject(r.ObjectProto)
	r.ErrorProto.Class = "Error"

	r.Global = NewJSObject(r.ObjectProto)
	r.Global.Class = "global"

	r.installObject()
	r.installFunction()
	r.installArray()
	r.installString()
	r.installNumber()
	r.installBoolean()
	r.installRegExp()
	r.installMath()
	r.installErrors()
	r.installGlobals()
	return r
}

func (r *Realm) NewObject() *JSObject {
	return NewJSObject(r.ObjectProto)
}

// NewArray makes an array holding items; the slice is not copied.
func (r *Realm) NewArray(items []JSValue) *JSObject {
	obj := NewJSObject(r.ArrayProto)
	obj.Class = "Array"
	if items == nil {
		items = make([]JSValue, 0, 8)
	}
	obj.arrayPart = items
	return obj
}

func (r *Realm) NewNativeFunction(name string, length int, cb NativeCallback) *JSObject {
	fn := NewJSObject(r.FunctionProto)
	fn.Class = "Function"
	fn.funcPart = &FunctionPart{
		isStrict: true,
		native:   cb,
		name:     name,
	}
	fn.DefineProperty("length", Descriptor{value: JSNumber(length)})
	fn.DefineProperty("name", Descriptor{value: JSString(name)})
	return fn
}

// defineMethod adds a native method to obj.
func (r *Realm) defineMethod(obj *JSObject, name string, length int, cb NativeCallback) *JSObject {
	fn := r.NewNativeFunction(name, length, cb)
	obj.defineHidden(name, fn)
	return fn
}

// defineConstructor makes a native constructor with the given prototype and
// binds it on the global object.
func (r *Realm) defineConstructor(name string, length int, proto *JSObject, cb NativeCallback) *JSObject {
	cons := r.NewNativeFunction(name, length, cb)
	cons.DefineProperty("prototype", Descriptor{value: proto})
	proto.defineHidden("constructor", cons)
	r.Global.defineHidden(name, cons)
	return cons
}

func (r *Realm) newWrapper(prim JSValue) *JSObject {
	var proto *JSObject
	var class string
	switch prim.(type) {
	case JSString:
		proto, class = r.StringProto, "String"
	case JSNumber:
		proto, class = r.NumberProto, "Number"
	case JSBoolean:
		proto, class = r.BooleanProto, "Boolean"
	default:
		panic("bug: newWrapper: not a wrappable primitive")
	}
	if proto == nil {
		// the prototype objects are themselves wrappers
		proto = r.ObjectProto
	}
	obj := NewJSObject(proto)
	obj.Class = class
	obj.primitive = prim
	return obj
}

// protoOf returns the prototype that provides methods for a primitive value.
func (r *Realm) protoOf(v JSValue) *JSObject {
	switch v := v.(type) {
	case *JSObject:
		return v
	case JSString:
		return r.StringProto
	case JSNumber:
		return r.NumberProto
	case JSBoolean:
		return r.BooleanProto
	default:
		return nil
	}
}
