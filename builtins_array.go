package treejs

import (
	"math"
	"sort"
	"strings"
)

func (r *Realm) installArray() {
	cons := r.defineConstructor("Array", 1, r.ArrayProto, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		if len(args) == 1 {
			if _, isNum := args[0].(JSNumber); isNum {
				length, err := vm.arrayLength(args[0])
				if err != nil {
					return nil, err
				}
				return vm.realm.NewArray(make([]JSValue, length)), nil
			}
		}
		items := make([]JSValue, len(args))
		copy(items, args)
		return vm.realm.NewArray(items), nil
	})

	r.defineMethod(cons, "isArray", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		obj, isObj := arg(args, 0).(*JSObject)
		return JSBoolean(isObj && obj.IsArray()), nil
	})

	proto := r.ArrayProto
	r.defineMethod(proto, "push", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		arr, err := vm.thisArray(subject, "push")
		if err != nil {
			return nil, err
		}
		if len(arr.arrayPart)+len(args) > maxDenseIndex {
			return nil, vm.ThrowError("RangeError", "Invalid array length")
		}
		arr.arrayPart = append(arr.arrayPart, args...)
		return JSNumber(len(arr.arrayPart)), nil
	})

	r.defineMethod(proto, "pop", 0, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		arr, err := vm.thisArray(subject, "pop")
		if err != nil {
			return nil, err
		}
		n := len(arr.arrayPart)
		if n == 0 {
			return undefined, nil
		}
		last := arr.getIndex(n - 1)
		arr.setLength(n - 1)
		return last, nil
	})

	r.defineMethod(proto, "shift", 0, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		arr, err := vm.thisArray(subject, "shift")
		if err != nil {
			return nil, err
		}
		if len(arr.arrayPart) == 0 {
			return undefined, nil
		}
		first := arr.getIndex(0)
		arr.arrayPart = append(arr.arrayPart[:0:0], arr.arrayPart[1:]...)
		return first, nil
	})

	r.defineMethod(proto, "unshift", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		arr, err := vm.thisArray(subject, "unshift")
		if err != nil {
			return nil, err
		}
		items := make([]JSValue, 0, len(args)+len(arr.arrayPart))
		items = append(items, args...)
		arr.arrayPart = append(items, arr.arrayPart...)
		return JSNumber(len(arr.arrayPart)), nil
	})

	r.defineMethod(proto, "slice", 2, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		arr, err := vm.thisArray(subject, "slice")
		if err != nil {
			return nil, err
		}
		start, end, err := vm.sliceBounds(args, len(arr.arrayPart))
		if err != nil {
			return nil, err
		}
		items := make([]JSValue, 0, max(end-start, 0))
		for i := start; i < end; i++ {
			items = append(items, arr.arrayPart[i])
		}
		return vm.realm.NewArray(items), nil
	})

	r.defineMethod(proto, "splice", 2, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		arr, err := vm.thisArray(subject, "splice")
		if err != nil {
			return nil, err
		}
		n := len(arr.arrayPart)
		start, _, err := vm.sliceBounds(args[:min(len(args), 1)], n)
		if err != nil {
			return nil, err
		}
		count := n - start
		if len(args) == 0 {
			count = 0
		} else if len(args) > 1 {
			c, err := vm.ToInteger(args[1])
			if err != nil {
				return nil, err
			}
			count = int(math.Max(0, math.Min(c, float64(n-start))))
		}

		removed := make([]JSValue, count)
		copy(removed, arr.arrayPart[start:start+count])

		var inserted []JSValue
		if len(args) > 2 {
			inserted = args[2:]
		}
		items := make([]JSValue, 0, n-count+len(inserted))
		items = append(items, arr.arrayPart[:start]...)
		items = append(items, inserted...)
		items = append(items, arr.arrayPart[start+count:]...)
		arr.arrayPart = items
		return vm.realm.NewArray(removed), nil
	})

	r.defineMethod(proto, "concat", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		arr, err := vm.thisArray(subject, "concat")
		if err != nil {
			return nil, err
		}
		items := make([]JSValue, len(arr.arrayPart))
		copy(items, arr.arrayPart)
		for _, a := range args {
			if other, isObj := a.(*JSObject); isObj && other.IsArray() {
				items = append(items, other.arrayPart...)
			} else {
				items = append(items, a)
			}
		}
		return vm.realm.NewArray(items), nil
	})

	join := func(vm *VM, arr *JSObject, sep string) (JSValue, error) {
		parts := make([]string, len(arr.arrayPart))
		for i, item := range arr.arrayPart {
			if item == nil || isNullish(item) {
				continue
			}
			s, err := vm.ToString(item)
			if err != nil {
				return nil, err
			}
			parts[i] = string(s)
		}
		return JSString(strings.Join(parts, sep)), nil
	}

	r.defineMethod(proto, "join", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		arr, err := vm.thisArray(subject, "join")
		if err != nil {
			return nil, err
		}
		sep := ","
		if sepVal := arg(args, 0); !isNullish(sepVal) {
			s, err := vm.ToString(sepVal)
			if err != nil {
				return nil, err
			}
			sep = string(s)
		}
		return join(vm, arr, sep)
	})

	r.defineMethod(proto, "toString", 0, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		arr, err := vm.thisArray(subject, "toString")
		if err != nil {
			return nil, err
		}
		return join(vm, arr, ",")
	})

	r.defineMethod(proto, "indexOf", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		arr, err := vm.thisArray(subject, "indexOf")
		if err != nil {
			return nil, err
		}
		start := 0
		if len(args) > 1 {
			start, _, err = vm.sliceBounds(args[1:2], len(arr.arrayPart))
			if err != nil {
				return nil, err
			}
		}
		target := arg(args, 0)
		for i := start; i < len(arr.arrayPart); i++ {
			if item := arr.arrayPart[i]; item != nil && vm.StrictEquals(item, target) {
				return JSNumber(i), nil
			}
		}
		return JSNumber(-1), nil
	})

	r.defineMethod(proto, "reverse", 0, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		arr, err := vm.thisArray(subject, "reverse")
		if err != nil {
			return nil, err
		}
		items := arr.arrayPart
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
		return arr, nil
	})

	r.defineMethod(proto, "sort", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		arr, err := vm.thisArray(subject, "sort")
		if err != nil {
			return nil, err
		}
		compareFn, hasCompare := arg(args, 0).(*JSObject)
		if hasCompare && !compareFn.IsCallable() {
			return nil, vm.ThrowError("TypeError", "invalid Array.prototype.sort argument")
		}

		// holes and undefined go last, unsorted
		var values []JSValue
		trailing := 0
		for _, item := range arr.arrayPart {
			if item == nil || item.Category() == VUndefined {
				trailing++
				continue
			}
			values = append(values, item)
		}

		var sortErr error
		less := func(a, b JSValue) bool {
			if sortErr != nil {
				return false
			}
			if hasCompare {
				ret, err := vm.invoke(compareFn, undefined, []JSValue{a, b}, CallFlags{})
				if err != nil {
					sortErr = err
					return false
				}
				num, err := vm.ToNumber(ret)
				if err != nil {
					sortErr = err
					return false
				}
				return num < 0
			}
			as, err := vm.ToString(a)
			if err == nil {
				var bs JSString
				bs, err = vm.ToString(b)
				if err == nil {
					return as < bs
				}
			}
			sortErr = err
			return false
		}
		sort.SliceStable(values, func(i, j int) bool { return less(values[i], values[j]) })
		if sortErr != nil {
			return nil, sortErr
		}

		for i := 0; i < trailing; i++ {
			values = append(values, undefined)
		}
		copy(arr.arrayPart, values)
		return arr, nil
	})

	r.defineMethod(proto, "forEach", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		_, err := vm.arrayIterate(subject, args, "forEach", func(int, JSValue, JSValue) {})
		return undefined, err
	})

	r.defineMethod(proto, "map", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		var items []JSValue
		n, err := vm.arrayIterate(subject, args, "map", func(i int, _, ret JSValue) {
			for len(items) < i {
				items = append(items, nil)
			}
			items = append(items, ret)
		})
		if err != nil {
			return nil, err
		}
		for len(items) < n {
			items = append(items, nil)
		}
		return vm.realm.NewArray(items), nil
	})

	r.defineMethod(proto, "filter", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		items := make([]JSValue, 0)
		_, err := vm.arrayIterate(subject, args, "filter", func(_ int, item, ret JSValue) {
			if vm.ToBoolean(ret) {
				items = append(items, item)
			}
		})
		if err != nil {
			return nil, err
		}
		return vm.realm.NewArray(items), nil
	})
}

func (vm *VM) thisArray(subject JSValue, method string) (*JSObject, error) {
	arr, isObj := subject.(*JSObject)
	if !isObj || arr.arrayPart == nil {
		return nil, vm.ThrowError("TypeError", "Array.prototype."+method+" called on incompatible "+typeOf(subject))
	}
	return arr, nil
}

// arrayIterate calls the callback in args[0] on each element that is not a
// hole, passing each result to collect. It returns the original length.
func (vm *VM) arrayIterate(subject JSValue, args []JSValue, method string, collect func(i int, item, ret JSValue)) (int, error) {
	arr, err := vm.thisArray(subject, method)
	if err != nil {
		return 0, err
	}
	callback, isObj := arg(args, 0).(*JSObject)
	if !isObj || !callback.IsCallable() {
		return 0, vm.ThrowError("TypeError", displayString(arg(args, 0))+" is not a function")
	}
	thisArg := arg(args, 1)

	n := len(arr.arrayPart)
	for i := 0; i < n && i < len(arr.arrayPart); i++ {
		item := arr.arrayPart[i]
		if item == nil {
			continue
		}
		ret, err := vm.invoke(callback, thisArg, []JSValue{item, JSNumber(i), arr}, CallFlags{})
		if err != nil {
			return 0, err
		}
		collect(i, item, ret)
	}
	return n, nil
}

// sliceBounds resolves the start and end arguments of slice-like methods
// against length. Negative values count from the end.
func (vm *VM) sliceBounds(args []JSValue, length int) (start, end int, err error) {
	resolve := func(v JSValue, dflt int) (int, error) {
		if _, isUndef := v.(JSUndefined); isUndef {
			return dflt, nil
		}
		f, err := vm.ToInteger(v)
		if err != nil {
			return 0, err
		}
		if f < 0 {
			f = math.Max(f+float64(length), 0)
		}
		return int(math.Min(f, float64(length))), nil
	}

	start, err = resolve(arg(args, 0), 0)
	if err != nil {
		return 0, 0, err
	}
	end, err = resolve(arg(args, 1), length)
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		end = start
	}
	return start, end, nil
}
