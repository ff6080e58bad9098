package treejs

func (r *Realm) installErrors() {
	r.ErrorProto.defineHidden("name", JSString("Error"))
	r.ErrorProto.defineHidden("message", JSString(""))
	r.errorProtos["Error"] = r.ErrorProto
	errorCons := r.defineConstructor("Error", 1, r.ErrorProto, newErrorConstructor(r.ErrorProto))

	r.defineMethod(r.ErrorProto, "toString", 0, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		obj, isObj := subject.(*JSObject)
		if !isObj {
			return nil, vm.ThrowError("TypeError", "Error.prototype.toString called on incompatible "+typeOf(subject))
		}
		read := func(prop, dflt string) (string, error) {
			value, err := vm.getProperty(obj, obj, prop)
			if err != nil {
				return "", err
			}
			if _, isUndef := value.(JSUndefined); isUndef {
				return dflt, nil
			}
			s, err := vm.ToString(value)
			return string(s), err
		}

		name, err := read("name", "Error")
		if err != nil {
			return nil, err
		}
		msg, err := read("message", "")
		if err != nil {
			return nil, err
		}
		switch {
		case msg == "":
			return JSString(name), nil
		case name == "":
			return JSString(msg), nil
		}
		return JSString(name + ": " + msg), nil
	})

	for _, class := range []string{"TypeError", "ReferenceError", "RangeError", "SyntaxError", "URIError", "EvalError"} {
		proto := NewJSObject(r.ErrorProto)
		proto.Class = "Error"
		proto.defineHidden("name", JSString(class))
		proto.defineHidden("message", JSString(""))
		r.errorProtos[class] = proto

		cons := r.defineConstructor(class, 1, proto, newErrorConstructor(proto))
		cons.Prototype = errorCons
	}
}

// newErrorConstructor makes the native behind an error constructor. It
// creates an instance whether or not it is called with new.
func newErrorConstructor(proto *JSObject) NativeCallback {
	return func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		exc := NewJSObject(proto)
		exc.Class = "Error"
		if msgVal := arg(args, 0); msgVal != undefined {
			msg, err := vm.ToString(msgVal)
			if err != nil {
				return nil, err
			}
			exc.defineHidden("message", msg)
		}
		return exc, nil
	}
}
