package treejs

import (
	"fmt"
	"math"
	"reflect"

	"com.github.sebastianobarrera.modeledjs/treejs/token"
)

func (vm *VM) StrictEquals(left, right JSValue) bool {
	switch leftV := left.(type) {
	case JSBoolean:
		rightV, isSame := right.(JSBoolean)
		return isSame && leftV == rightV
	case JSNumber:
		// NaN != NaN and +0 == -0 follow from float comparison
		rightV, isSame := right.(JSNumber)
		return isSame && leftV == rightV
	case JSString:
		rightV, isSame := right.(JSString)
		return isSame && leftV == rightV
	case *JSObject:
		rightV, isSame := right.(*JSObject)
		return isSame && leftV == rightV
	case JSNull:
		_, isSame := right.(JSNull)
		return isSame
	case JSUndefined:
		_, isSame := right.(JSUndefined)
		return isSame
	default:
		panic(fmt.Sprintf("unexpected value for strict equal comparison: %#v", left))
	}
}

// LooseEquals implements ==. Each round converts one operand toward the
// type of the other, until both have the same type.
func (vm *VM) LooseEquals(a, b JSValue) (bool, error) {
	aOrig, bOrig := a, b

	for counter := 0; counter < 5; counter++ {
		if a.Category() == b.Category() || isObjectish(a) && isObjectish(b) {
			return vm.StrictEquals(a, b), nil
		}

		if isNullish(a) || isNullish(b) {
			return isNullish(a) && isNullish(b), nil
		}

		var err error
		switch {
		case isObjectish(a):
			a, err = vm.ToPrimitive(a, PrimCoerceValueOfFirst)
		case isObjectish(b):
			b, err = vm.ToPrimitive(b, PrimCoerceValueOfFirst)
		case a.Category() == VBoolean:
			a, err = vm.ToNumber(a)
		case b.Category() == VBoolean:
			b, err = vm.ToNumber(b)
		case a.Category() == VString && b.Category() == VNumber:
			a, err = vm.ToNumber(a)
		case a.Category() == VNumber && b.Category() == VString:
			b, err = vm.ToNumber(b)
		default:
			msg := fmt.Sprintf("unreachable! LooseEquals called with %s (->%s) / %s (->%s)",
				reflect.TypeOf(aOrig),
				reflect.TypeOf(a),
				reflect.TypeOf(bOrig),
				reflect.TypeOf(b),
			)
			panic(msg)
		}
		if err != nil {
			return false, err
		}
	}

	panic("bug: LooseEquals iterated too many times!")
}

// isObjectish is true of objects and functions, which only differ in their
// category.
func isObjectish(v JSValue) bool {
	_, isObj := v.(*JSObject)
	return isObj
}

// objectRank orders objects of different kinds in relational comparisons.
func objectRank(obj *JSObject) int {
	switch {
	case obj.IsCallable():
		return 1000
	case obj.Class == "Number" && obj.primitive != nil:
		return 900
	case obj.Class == "Boolean" && obj.primitive != nil:
		return 800
	case obj.IsArray():
		return 400
	default:
		return 500
	}
}

func isNumberOrBooleanWrapper(obj *JSObject) bool {
	switch obj.primitive.(type) {
	case JSNumber, JSBoolean:
		return true
	}
	return false
}

// compareRelational evaluates <, <=, > and >=. Comparisons involving NaN
// are false.
func (vm *VM) compareRelational(op token.Token, a, b JSValue) (JSBoolean, error) {
	aObj, isAObj := a.(*JSObject)
	bObj, isBObj := b.(*JSObject)

	var err error
	if isAObj && isBObj {
		x, y := objectRank(aObj), objectRank(bObj)
		switch {
		case x != y && (isNumberOrBooleanWrapper(aObj) || isNumberOrBooleanWrapper(bObj)):
			a, err = vm.ToNumber(a)
			if err == nil {
				b, err = vm.ToNumber(b)
			}
		case x == y:
			a, err = vm.ToString(a)
			if err == nil {
				b, err = vm.ToString(b)
			}
		default:
			a, b = JSNumber(x), JSNumber(y)
		}
	} else {
		a, err = vm.ToPrimitive(a, PrimCoerceValueOfFirst)
		if err == nil {
			b, err = vm.ToPrimitive(b, PrimCoerceValueOfFirst)
		}
	}
	if err != nil {
		return false, err
	}

	aStr, isAStr := a.(JSString)
	bStr, isBStr := b.(JSString)
	if isAStr && isBStr {
		switch op {
		case token.LESS:
			return aStr < bStr, nil
		case token.LESS_OR_EQUAL:
			return aStr <= bStr, nil
		case token.GREATER:
			return aStr > bStr, nil
		case token.GREATER_OR_EQUAL:
			return aStr >= bStr, nil
		}
		panic("bug: compareRelational: invalid operator " + op.String())
	}

	an, err := vm.ToNumber(a)
	if err != nil {
		return false, err
	}
	bn, err := vm.ToNumber(b)
	if err != nil {
		return false, err
	}
	if math.IsNaN(float64(an)) || math.IsNaN(float64(bn)) {
		return false, nil
	}

	switch op {
	case token.LESS:
		return an < bn, nil
	case token.LESS_OR_EQUAL:
		return an <= bn, nil
	case token.GREATER:
		return an > bn, nil
	case token.GREATER_OR_EQUAL:
		return an >= bn, nil
	}
	panic("bug: compareRelational: invalid operator " + op.String())
}
