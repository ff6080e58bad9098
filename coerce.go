package treejs

import (
	"errors"
	"fmt"
	"math"

	"com.github.sebastianobarrera.modeledjs/treejs/internal/jsnum"
)

func (vm *VM) ToBoolean(value JSValue) JSBoolean {
	switch spec := value.(type) {
	case JSBoolean:
		return spec
	case JSNull, JSUndefined:
		return false
	case JSNumber:
		return JSBoolean(spec != 0.0 && !math.IsNaN(float64(spec)))
	case *JSObject:
		return true
	case JSString:
		return spec != ""
	default:
		panic(fmt.Sprintf("ToBoolean: invalid value type: %#v", value))
	}
}

func (vm *VM) ToNumber(value JSValue) (JSNumber, error) {
	switch spec := value.(type) {
	case JSNull:
		return 0, nil
	case JSUndefined:
		return nan, nil
	case JSBoolean:
		if spec {
			return 1, nil
		}
		return 0, nil
	case JSNumber:
		return spec, nil
	case JSString:
		return JSNumber(jsnum.Parse(string(spec))), nil
	case *JSObject:
		prim, err := vm.ToPrimitive(value, PrimCoerceValueOfFirst)
		if err != nil {
			return nan, err
		}
		return vm.ToNumber(prim)
	default:
		panic(fmt.Sprintf("ToNumber: unexpected value: %#v", value))
	}
}

// toNumberOrNaN is ToNumber for the arithmetic operators: a JS exception
// raised by valueOf or toString makes the result NaN instead of
// propagating. Other errors (interrupts, I/O) still propagate.
func (vm *VM) toNumberOrNaN(value JSValue) (JSNumber, error) {
	num, err := vm.ToNumber(value)
	if err != nil {
		var pexc *ProgramException
		if errors.As(err, &pexc) {
			return nan, nil
		}
		return nan, err
	}
	return num, nil
}

func (vm *VM) ToString(value JSValue) (JSString, error) {
	switch val := value.(type) {
	case JSString:
		return val, nil
	case JSUndefined:
		return "undefined", nil
	case JSNull:
		return "null", nil
	case JSBoolean:
		if val {
			return "true", nil
		}
		return "false", nil
	case JSNumber:
		return JSString(numberToString(float64(val))), nil
	case *JSObject:
		prim, err := vm.ToPrimitive(val, PrimCoerceToStringFirst)
		if err != nil {
			return "", err
		}
		return vm.ToString(prim)
	default:
		panic(fmt.Sprintf("ToString: unexpected value: %#v", value))
	}
}

type PrimCoerceOrder uint8

const (
	PrimCoerceValueOfFirst PrimCoerceOrder = iota
	PrimCoerceToStringFirst
)

// ToPrimitive converts objects by calling valueOf and toString, in the
// given order, until one returns a primitive. Primitives are returned as
// they are.
func (vm *VM) ToPrimitive(value JSValue, order PrimCoerceOrder) (JSValue, error) {
	obj, isObj := value.(*JSObject)
	if !isObj {
		return value, nil
	}

	callOrder := [2]string{"valueOf", "toString"}
	if order == PrimCoerceToStringFirst {
		callOrder = [2]string{"toString", "valueOf"}
	}

	for _, methodName := range callOrder {
		methodVal, err := vm.getProperty(obj, obj, methodName)
		if err != nil {
			return nil, err
		}
		methodObj, isObj := methodVal.(*JSObject)
		if !isObj || !methodObj.IsCallable() {
			continue
		}

		ret, err := vm.invoke(methodObj, obj, nil, CallFlags{})
		if err != nil {
			return nil, err
		}
		if _, isObj := ret.(*JSObject); !isObj {
			return ret, nil
		}
	}
	return nil, vm.ThrowError("TypeError", "can't convert object to primitive value")
}

func (vm *VM) ToInteger(value JSValue) (float64, error) {
	num, err := vm.ToNumber(value)
	if err != nil {
		return 0, err
	}
	f := float64(num)
	if math.IsNaN(f) {
		return 0, nil
	}
	if math.IsInf(f, 0) {
		return f, nil
	}
	return math.Trunc(f), nil
}

func (vm *VM) ToInt32(value JSValue) (int32, error) {
	num, err := vm.ToNumber(value)
	return toInt32(float64(num)), err
}

func (vm *VM) ToUint32(value JSValue) (uint32, error) {
	num, err := vm.ToNumber(value)
	return toUint32(float64(num)), err
}

// ToObject wraps primitives in a new wrapper object of the realm.
func (vm *VM) ToObject(value JSValue) (*JSObject, error) {
	switch spec := value.(type) {
	case *JSObject:
		return spec, nil
	case JSNumber, JSBoolean, JSString:
		return vm.realm.newWrapper(spec), nil
	default:
		msg := fmt.Sprintf("can't convert %s to object", typeOfNullish(value))
		return nil, vm.ThrowError("TypeError", msg)
	}
}

func toUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	m := math.Mod(math.Trunc(f), 1<<32)
	if m < 0 {
		m += 1 << 32
	}
	return uint32(m)
}

func toInt32(f float64) int32 {
	return int32(toUint32(f))
}

func numberToString(f float64) string {
	return jsnum.Format(f)
}

// displayString renders a value for messages, without running any JS code.
func displayString(value JSValue) string {
	switch v := value.(type) {
	case nil:
		return "<nil>"
	case JSUndefined:
		return "undefined"
	case JSNull:
		return "null"
	case JSBoolean:
		if v {
			return "true"
		}
		return "false"
	case JSNumber:
		return numberToString(float64(v))
	case JSString:
		return string(v)
	case *JSObject:
		switch {
		case v.funcPart != nil:
			return fmt.Sprintf("function %s", v.funcPart.name)
		case v.regexpPart != nil:
			return "/" + v.regexpPart.source + "/" + v.regexpPart.flags
		case v.primitive != nil:
			return displayString(v.primitive)
		}
		if name, message := describeException(v); name != "" {
			return name + ": " + message
		}
		return "[object " + v.Class + "]"
	default:
		return fmt.Sprintf("%#v", value)
	}
}
