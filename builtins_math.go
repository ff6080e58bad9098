package treejs

import (
	"math"
)

func (r *Realm) installMath() {
	mathObj := r.NewObject()
	mathObj.Class = "Math"
	r.Global.defineHidden("Math", mathObj)

	constants := []struct {
		name  string
		value float64
	}{
		{"E", math.E},
		{"LN10", math.Ln10},
		{"LN2", math.Ln2},
		{"LOG10E", math.Log10E},
		{"LOG2E", math.Log2E},
		{"PI", math.Pi},
		{"SQRT1_2", 1 / math.Sqrt2},
		{"SQRT2", math.Sqrt2},
	}
	for _, c := range constants {
		mathObj.DefineProperty(c.name, Descriptor{value: JSNumber(c.value)})
	}

	unary := map[string]func(float64) float64{
		"abs":   math.Abs,
		"acos":  math.Acos,
		"asin":  math.Asin,
		"atan":  math.Atan,
		"ceil":  math.Ceil,
		"cos":   math.Cos,
		"exp":   math.Exp,
		"floor": math.Floor,
		"log":   math.Log,
		"round": jsRound,
		"sin":   math.Sin,
		"sqrt":  math.Sqrt,
		"tan":   math.Tan,
	}
	for name, fn := range unary {
		fn := fn
		r.defineMethod(mathObj, name, 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
			x, err := vm.ToNumber(arg(args, 0))
			if err != nil {
				return nil, err
			}
			return JSNumber(fn(float64(x))), nil
		})
	}

	binary := map[string]func(float64, float64) float64{
		"atan2": math.Atan2,
		"pow":   jsPow,
	}
	for name, fn := range binary {
		fn := fn
		r.defineMethod(mathObj, name, 2, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
			x, err := vm.ToNumber(arg(args, 0))
			if err != nil {
				return nil, err
			}
			y, err := vm.ToNumber(arg(args, 1))
			if err != nil {
				return nil, err
			}
			return JSNumber(fn(float64(x), float64(y))), nil
		})
	}

	r.defineMethod(mathObj, "max", 2, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return vm.mathFold(args, math.Inf(-1), func(acc, x float64) bool { return x > acc || x == 0 && acc == 0 && !math.Signbit(x) })
	})
	r.defineMethod(mathObj, "min", 2, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return vm.mathFold(args, math.Inf(+1), func(acc, x float64) bool { return x < acc || x == 0 && acc == 0 && math.Signbit(x) })
	})

	r.defineMethod(mathObj, "random", 0, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return JSNumber(vm.rand.Float64()), nil
	})
}

// mathFold implements max and min: NaN wins, otherwise replace picks the
// new value.
func (vm *VM) mathFold(args []JSValue, initial float64, replace func(acc, x float64) bool) (JSValue, error) {
	acc := initial
	isNaN := false
	for _, a := range args {
		x, err := vm.ToNumber(a)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(float64(x)) {
			isNaN = true
		} else if replace(acc, float64(x)) {
			acc = float64(x)
		}
	}
	if isNaN {
		return nan, nil
	}
	return JSNumber(acc), nil
}

// jsRound rounds half up, toward +Infinity, unlike math.Round.
func jsRound(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x == 0 {
		return x
	}
	if x < 0 && x >= -0.5 {
		return math.Copysign(0, -1)
	}
	return math.Floor(x + 0.5)
}

func jsPow(x, y float64) float64 {
	// 1 ** NaN and 1 ** Infinity are NaN in JS
	if math.IsNaN(y) || math.Abs(x) == 1 && math.IsInf(y, 0) {
		return math.NaN()
	}
	return math.Pow(x, y)
}
