package treejs

import (
	"fmt"
)

func (r *Realm) installObject() {
	cons := r.defineConstructor("Object", 1, r.ObjectProto, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		value := arg(args, 0)
		if isNullish(value) {
			return vm.realm.NewObject(), nil
		}
		return vm.ToObject(value)
	})

	r.defineMethod(cons, "keys", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		obj, err := vm.ToObject(arg(args, 0))
		if err != nil {
			return nil, err
		}
		keys := obj.OwnKeys()
		items := make([]JSValue, len(keys))
		for i, key := range keys {
			items[i] = JSString(key)
		}
		return vm.realm.NewArray(items), nil
	})

	r.defineMethod(cons, "create", 2, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		var proto *JSObject
		switch p := arg(args, 0).(type) {
		case *JSObject:
			proto = p
		case JSNull:
		default:
			return nil, vm.ThrowError("TypeError", "Object prototype may only be an Object or null: "+displayString(p))
		}
		obj := NewJSObject(proto)
		if props, isObj := arg(args, 1).(*JSObject); isObj {
			if err := vm.defineProperties(obj, props); err != nil {
				return nil, err
			}
		}
		return obj, nil
	})

	r.defineMethod(cons, "getPrototypeOf", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		obj, err := vm.ToObject(arg(args, 0))
		if err != nil {
			return nil, err
		}
		if obj.Prototype == nil {
			return null, nil
		}
		return obj.Prototype, nil
	})

	r.defineMethod(cons, "defineProperty", 3, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		obj, isObj := arg(args, 0).(*JSObject)
		if !isObj {
			return nil, vm.ThrowError("TypeError", "Object.defineProperty called on non-object")
		}
		name, err := vm.ToString(arg(args, 1))
		if err != nil {
			return nil, err
		}
		if err := vm.defineFromDescriptor(obj, string(name), arg(args, 2)); err != nil {
			return nil, err
		}
		return obj, nil
	})

	proto := r.ObjectProto
	r.defineMethod(proto, "toString", 0, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		switch subject.(type) {
		case JSUndefined:
			return JSString("[object Undefined]"), nil
		case JSNull:
			return JSString("[object Null]"), nil
		}
		obj, err := vm.ToObject(subject)
		if err != nil {
			return nil, err
		}
		return JSString("[object " + obj.Class + "]"), nil
	})

	r.defineMethod(proto, "valueOf", 0, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return vm.ToObject(subject)
	})

	r.defineMethod(proto, "hasOwnProperty", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		name, err := vm.ToString(arg(args, 0))
		if err != nil {
			return nil, err
		}
		obj, err := vm.ToObject(subject)
		if err != nil {
			return nil, err
		}
		return JSBoolean(obj.HasOwnProperty(string(name))), nil
	})

	r.defineMethod(proto, "isPrototypeOf", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		obj, isObj := arg(args, 0).(*JSObject)
		this, isThisObj := subject.(*JSObject)
		if !isObj || !isThisObj {
			return JSBoolean(false), nil
		}
		for p := obj.Prototype; p != nil; p = p.Prototype {
			if p == this {
				return JSBoolean(true), nil
			}
		}
		return JSBoolean(false), nil
	})

	r.defineMethod(proto, "propertyIsEnumerable", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		name, err := vm.ToString(arg(args, 0))
		if err != nil {
			return nil, err
		}
		obj, err := vm.ToObject(subject)
		if err != nil {
			return nil, err
		}
		for _, key := range obj.OwnKeys() {
			if key == string(name) {
				return JSBoolean(true), nil
			}
		}
		return JSBoolean(false), nil
	})
}

// defineFromDescriptor implements Object.defineProperty: fields missing
// from the descriptor object default to false.
func (vm *VM) defineFromDescriptor(obj *JSObject, name string, descVal JSValue) error {
	descObj, isObj := descVal.(*JSObject)
	if !isObj {
		return vm.ThrowError("TypeError", fmt.Sprintf("property descriptor for '%s' must be an object", name))
	}

	if existing, isThere := obj.getOwnPropertyDescriptor(name); isThere && !existing.configurable {
		return vm.ThrowError("TypeError", fmt.Sprintf("can't redefine non-configurable property '%s'", name))
	}

	flag := func(field string) (bool, error) {
		value, err := vm.getProperty(descObj, descObj, field)
		if err != nil {
			return false, err
		}
		return bool(vm.ToBoolean(value)), nil
	}
	accessor := func(field string) (*JSObject, error) {
		if !vm.hasProperty(descObj, field) {
			return nil, nil
		}
		value, err := vm.getProperty(descObj, descObj, field)
		if err != nil {
			return nil, err
		}
		if _, isUndef := value.(JSUndefined); isUndef {
			return nil, nil
		}
		fn, isObj := value.(*JSObject)
		if !isObj || !fn.IsCallable() {
			return nil, vm.ThrowError("TypeError", fmt.Sprintf("property descriptor's %s field is not a function", field))
		}
		return fn, nil
	}

	var d Descriptor
	var err error
	if d.configurable, err = flag("configurable"); err != nil {
		return err
	}
	if d.enumerable, err = flag("enumerable"); err != nil {
		return err
	}
	if d.get, err = accessor("get"); err != nil {
		return err
	}
	if d.set, err = accessor("set"); err != nil {
		return err
	}

	if !d.isAccessor() {
		if d.writable, err = flag("writable"); err != nil {
			return err
		}
		if d.value, err = vm.getProperty(descObj, descObj, "value"); err != nil {
			return err
		}
	}

	if obj.arrayPart != nil {
		if ndx, ok := arrayIndex(name); ok && !d.isAccessor() {
			obj.setIndex(ndx, d.value)
			return nil
		}
	}
	obj.DefineProperty(name, d)
	return nil
}

func (vm *VM) defineProperties(obj *JSObject, props *JSObject) error {
	for _, name := range props.OwnKeys() {
		descVal, err := vm.getProperty(props, props, name)
		if err != nil {
			return err
		}
		if err := vm.defineFromDescriptor(obj, name, descVal); err != nil {
			return err
		}
	}
	return nil
}
