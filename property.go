package treejs

import (
	"fmt"
)

// lookup finds the object on obj's prototype chain that holds name. It
// returns a nil descriptor for virtual properties, with their value.
func (vm *VM) lookup(obj *JSObject, name string) (holder *JSObject, d *Descriptor, virtual JSValue, err error) {
	depth := 0
	for object := obj; object != nil; object = object.Prototype {
		if depth > vm.config.MaxProtoDepth {
			return nil, nil, nil, vm.ThrowError("RangeError", "prototype chain too long")
		}
		depth++

		if value, isVirtual := object.virtualProperty(name); isVirtual {
			return object, nil, value, nil
		}
		if descriptor, isThere := object.getOwnPropertyDescriptor(name); isThere {
			return object, descriptor, nil, nil
		}
	}
	return nil, nil, nil, nil
}

func (vm *VM) hasProperty(obj *JSObject, name string) bool {
	if name == "__proto__" {
		return true
	}
	holder, _, _, err := vm.lookup(obj, name)
	return err == nil && holder != nil
}

// getProperty reads name from obj's prototype chain, calling getters with
// this as the receiver. A missing property is undefined.
func (vm *VM) getProperty(obj *JSObject, this JSValue, name string) (JSValue, error) {
	if name == "__proto__" {
		if obj.Prototype == nil {
			return null, nil
		}
		return obj.Prototype, nil
	}

	holder, descriptor, virtual, err := vm.lookup(obj, name)
	if err != nil || holder == nil {
		return undefined, err
	}
	if descriptor == nil {
		return virtual, nil
	}
	if descriptor.get != nil {
		return vm.invoke(descriptor.get, this, nil, CallFlags{})
	}
	if descriptor.isAccessor() {
		return undefined, nil
	}
	return descriptor.value, nil
}

// getMember reads a property of any value. Primitives use the methods of
// their realm prototype without being wrapped.
func (vm *VM) getMember(base JSValue, name string) (JSValue, error) {
	switch base := base.(type) {
	case *JSObject:
		return vm.getProperty(base, base, name)
	case JSString:
		if value, ok := stringProperty(base, name); ok {
			return value, nil
		}
	case JSUndefined, JSNull:
		msg := fmt.Sprintf("cannot read property '%s' of %s", name, typeOfNullish(base))
		return nil, vm.ThrowError("TypeError", msg)
	}
	return vm.getProperty(vm.realm.protoOf(base), base, name)
}

func typeOfNullish(v JSValue) string {
	if _, isNull := v.(JSNull); isNull {
		return "null"
	}
	return "undefined"
}

func (vm *VM) setProperty(obj *JSObject, name string, value JSValue) error {
	if value == nil {
		panic("bug: setProperty: value can't be nil")
	}

	if name == "__proto__" {
		return vm.setPrototype(obj, value)
	}

	if obj.arrayPart != nil {
		if name == "length" {
			length, err := vm.arrayLength(value)
			if err != nil {
				return err
			}
			obj.setLength(length)
			return nil
		}
		if ndx, ok := arrayIndex(name); ok {
			obj.setIndex(ndx, value)
			return nil
		}
	}

	holder, descriptor, _, err := vm.lookup(obj, name)
	if err != nil {
		return err
	}

	switch {
	case holder == nil:
		obj.defineValue(name, value)
	case descriptor == nil:
		// String characters and lengths are read-only
	case descriptor.set != nil:
		_, err := vm.invoke(descriptor.set, obj, []JSValue{value}, CallFlags{})
		return err
	case descriptor.isAccessor():
		if isStrict(vm.curScope) {
			return vm.ThrowError("TypeError", fmt.Sprintf("setting getter-only property '%s'", name))
		}
	case !descriptor.writable:
		if isStrict(vm.curScope) {
			return vm.ThrowError("TypeError", fmt.Sprintf("'%s' is read-only", name))
		}
	case holder == obj:
		descriptor.value = value
	default:
		obj.defineValue(name, value)
	}
	return nil
}

// setMember assigns a property of any value. Assignments to primitives are
// discarded.
func (vm *VM) setMember(base JSValue, name string, value JSValue) error {
	switch base := base.(type) {
	case *JSObject:
		return vm.setProperty(base, name, value)
	case JSUndefined, JSNull:
		msg := fmt.Sprintf("cannot set property '%s' of %s", name, typeOfNullish(base))
		return vm.ThrowError("TypeError", msg)
	}
	return nil
}

func (vm *VM) setPrototype(obj *JSObject, value JSValue) error {
	switch proto := value.(type) {
	case JSNull:
		obj.Prototype = nil
	case *JSObject:
		for p := proto; p != nil; p = p.Prototype {
			if p == obj {
				return vm.ThrowError("TypeError", "cyclic __proto__ value")
			}
		}
		obj.Prototype = proto
	}
	// other values are ignored
	return nil
}

func (vm *VM) arrayLength(value JSValue) (int, error) {
	num, err := vm.ToNumber(value)
	if err != nil {
		return 0, err
	}
	length := int(num)
	if float64(length) != float64(num) || length < 0 || length > maxDenseIndex {
		return 0, vm.ThrowError("RangeError", "Invalid array length")
	}
	return length, nil
}

// enumerate lists the enumerable property names of obj and its prototypes,
// as for-in visits them.
func (vm *VM) enumerate(obj *JSObject) []string {
	seen := make(map[string]struct{})
	var keys []string
	depth := 0
	for object := obj; object != nil && depth <= vm.config.MaxProtoDepth; object = object.Prototype {
		depth++
		for _, key := range object.OwnKeys() {
			if _, isSeen := seen[key]; isSeen {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
		// shadowed non-enumerable names hide inherited ones
		for key := range object.descriptors {
			seen[key] = struct{}{}
		}
	}
	return keys
}
