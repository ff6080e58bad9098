package treejs

import (
	"math"

	"com.github.sebastianobarrera.modeledjs/treejs/token"
)

// binaryOp applies a non-short-circuiting binary operator. Compound
// assignments go through here with their augmented operator.
func (vm *VM) binaryOp(op token.Token, left, right JSValue) (JSValue, error) {
	switch op {
	case token.PLUS:
		return vm.addition(left, right)

	case token.MINUS, token.MULTIPLY, token.SLASH, token.REMAINDER,
		token.SHIFT_LEFT, token.SHIFT_RIGHT, token.UNSIGNED_SHIFT_RIGHT,
		token.AND, token.OR, token.EXCLUSIVE_OR:
		return vm.arithmeticOp(op, left, right)

	case token.EQUAL, token.NOT_EQUAL:
		eq, err := vm.LooseEquals(left, right)
		if err != nil {
			return nil, err
		}
		return JSBoolean(eq == (op == token.EQUAL)), nil

	case token.STRICT_EQUAL:
		return JSBoolean(vm.StrictEquals(left, right)), nil
	case token.STRICT_NOT_EQUAL:
		return JSBoolean(!vm.StrictEquals(left, right)), nil

	case token.LESS, token.LESS_OR_EQUAL, token.GREATER, token.GREATER_OR_EQUAL:
		return vm.compareRelational(op, left, right)

	case token.INSTANCEOF:
		return vm.instanceOf(left, right)

	case token.IN:
		obj, isObj := right.(*JSObject)
		if !isObj {
			return nil, vm.ThrowError("TypeError", "invalid 'in' operand "+displayString(right))
		}
		name, err := vm.ToString(left)
		if err != nil {
			return nil, err
		}
		return JSBoolean(vm.hasProperty(obj, string(name))), nil

	default:
		return nil, vm.ThrowError("SyntaxError", "unsupported binary operator: "+op.String())
	}
}

func (vm *VM) addition(left, right JSValue) (JSValue, error) {
	lprim, err := vm.ToPrimitive(left, PrimCoerceValueOfFirst)
	if err != nil {
		return nil, err
	}
	rprim, err := vm.ToPrimitive(right, PrimCoerceValueOfFirst)
	if err != nil {
		return nil, err
	}

	_, isLStr := lprim.(JSString)
	_, isRStr := rprim.(JSString)
	if isLStr || isRStr {
		lstr, err := vm.ToString(lprim)
		if err != nil {
			return nil, err
		}
		rstr, err := vm.ToString(rprim)
		if err != nil {
			return nil, err
		}
		return lstr + rstr, nil
	}

	return vm.arithmeticOp(token.PLUS, lprim, rprim)
}

func (vm *VM) arithmeticOp(op token.Token, l, r JSValue) (JSValue, error) {
	ln, err := vm.toNumberOrNaN(l)
	if err != nil {
		return nil, err
	}
	rn, err := vm.toNumberOrNaN(r)
	if err != nil {
		return nil, err
	}

	switch op {
	case token.MULTIPLY:
		return ln * rn, nil
	case token.SLASH:
		return ln / rn, nil
	case token.REMAINDER:
		return JSNumber(floatRemainder(float64(ln), float64(rn))), nil
	case token.PLUS:
		return ln + rn, nil
	case token.MINUS:
		return ln - rn, nil
	}

	li, ri := toInt32(float64(ln)), toUint32(float64(rn))
	shift := ri & 0x1f
	switch op {
	case token.SHIFT_LEFT:
		return JSNumber(li << shift), nil
	case token.SHIFT_RIGHT:
		return JSNumber(li >> shift), nil
	case token.UNSIGNED_SHIFT_RIGHT:
		return JSNumber(toUint32(float64(ln)) >> shift), nil
	case token.AND:
		return JSNumber(li & int32(ri)), nil
	case token.OR:
		return JSNumber(li | int32(ri)), nil
	case token.EXCLUSIVE_OR:
		return JSNumber(li ^ int32(ri)), nil
	default:
		return nil, vm.ThrowError("SyntaxError", "unsupported/invalid arithmetic operator: "+op.String())
	}
}

func floatRemainder(n, d float64) float64 {
	if math.IsNaN(n) || math.IsNaN(d) || math.IsInf(n, 0) {
		return math.NaN()
	}
	if math.IsInf(d, 0) {
		return n
	}
	if d == 0 {
		return math.NaN()
	}
	if n == 0 {
		return n
	}

	r := n - d*math.Trunc(n/d)
	// the result has the sign of the dividend
	if r == 0 && n < 0 {
		return math.Copysign(0, -1)
	}
	return r
}

func (vm *VM) instanceOf(left, right JSValue) (JSValue, error) {
	cons, isObj := right.(*JSObject)
	if !isObj || !cons.IsCallable() {
		return nil, vm.ThrowError("TypeError", "invalid 'instanceof' operand "+displayString(right))
	}

	obj, isObj := left.(*JSObject)
	if !isObj {
		return JSBoolean(false), nil
	}

	protoVal, err := vm.getProperty(cons, cons, "prototype")
	if err != nil {
		return nil, err
	}
	proto, isObj := protoVal.(*JSObject)
	if !isObj {
		return nil, vm.ThrowError("TypeError", "'prototype' property of "+cons.funcPart.name+" is not an object")
	}

	depth := 0
	for p := obj.Prototype; p != nil; p = p.Prototype {
		if depth > vm.config.MaxProtoDepth {
			return nil, vm.ThrowError("RangeError", "prototype chain too long")
		}
		depth++
		if p == proto {
			return JSBoolean(true), nil
		}
	}
	return JSBoolean(false), nil
}
