package treejs

import (
	"math"
	"strconv"

	"com.github.sebastianobarrera.modeledjs/treejs/internal/jsnum"
)

func (r *Realm) installNumber() {
	cons := r.defineConstructor("Number", 1, r.NumberProto, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		var num JSNumber
		if len(args) > 0 {
			var err error
			num, err = vm.ToNumber(args[0])
			if err != nil {
				return nil, err
			}
		}
		if flags.isNew {
			return vm.realm.newWrapper(num), nil
		}
		return num, nil
	})

	constants := map[string]float64{
		"MAX_VALUE":         math.MaxFloat64,
		"MIN_VALUE":         5e-324,
		"NaN":               math.NaN(),
		"POSITIVE_INFINITY": math.Inf(+1),
		"NEGATIVE_INFINITY": math.Inf(-1),
	}
	for _, name := range []string{"MAX_VALUE", "MIN_VALUE", "NaN", "POSITIVE_INFINITY", "NEGATIVE_INFINITY"} {
		cons.DefineProperty(name, Descriptor{value: JSNumber(constants[name])})
	}

	proto := r.NumberProto
	thisNumber := func(vm *VM, subject JSValue, method string) (float64, error) {
		switch n := subject.(type) {
		case JSNumber:
			return float64(n), nil
		case *JSObject:
			if pn, isNum := n.primitive.(JSNumber); isNum {
				return float64(pn), nil
			}
		}
		return 0, vm.ThrowError("TypeError", "Number.prototype."+method+" called on incompatible "+typeOf(subject))
	}

	r.defineMethod(proto, "toString", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		num, err := thisNumber(vm, subject, "toString")
		if err != nil {
			return nil, err
		}
		radix := 10.0
		if radixVal := arg(args, 0); radixVal != undefined {
			radix, err = vm.ToInteger(radixVal)
			if err != nil {
				return nil, err
			}
			if radix < 2 || radix > 36 {
				return nil, vm.ThrowError("RangeError", "radix must be an integer at least 2 and no greater than 36")
			}
		}
		return JSString(jsnum.FormatRadix(num, int(radix))), nil
	})

	r.defineMethod(proto, "toLocaleString", 0, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		num, err := thisNumber(vm, subject, "toLocaleString")
		return JSString(numberToString(num)), err
	})

	r.defineMethod(proto, "valueOf", 0, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		num, err := thisNumber(vm, subject, "valueOf")
		return JSNumber(num), err
	})

	r.defineMethod(proto, "toFixed", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		num, err := thisNumber(vm, subject, "toFixed")
		if err != nil {
			return nil, err
		}
		digits, err := vm.ToInteger(arg(args, 0))
		if err != nil {
			return nil, err
		}
		if digits < 0 || digits > 100 {
			return nil, vm.ThrowError("RangeError", "toFixed() digits argument must be between 0 and 100")
		}
		if math.IsNaN(num) || math.Abs(num) >= 1e21 {
			return JSString(numberToString(num)), nil
		}
		if num == 0 {
			// -0 prints as 0
			num = 0
		}
		s := strconv.FormatFloat(num, 'f', int(digits), 64)
		return JSString(s), nil
	})
}

func (r *Realm) installBoolean() {
	r.defineConstructor("Boolean", 1, r.BooleanProto, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		b := vm.ToBoolean(arg(args, 0))
		if flags.isNew {
			return vm.realm.newWrapper(b), nil
		}
		return b, nil
	})

	thisBoolean := func(vm *VM, subject JSValue, method string) (JSBoolean, error) {
		switch b := subject.(type) {
		case JSBoolean:
			return b, nil
		case *JSObject:
			if pb, isBool := b.primitive.(JSBoolean); isBool {
				return pb, nil
			}
		}
		return false, vm.ThrowError("TypeError", "Boolean.prototype."+method+" called on incompatible "+typeOf(subject))
	}

	proto := r.BooleanProto
	r.defineMethod(proto, "toString", 0, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		b, err := thisBoolean(vm, subject, "toString")
		if err != nil {
			return nil, err
		}
		return vm.ToString(b)
	})
	r.defineMethod(proto, "valueOf", 0, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		b, err := thisBoolean(vm, subject, "valueOf")
		if err != nil {
			return nil, err
		}
		return b, nil
	})
}
