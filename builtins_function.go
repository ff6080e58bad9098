package treejs

import (
	"errors"
	"strings"

	"com.github.sebastianobarrera.modeledjs/treejs/lexer"
	"com.github.sebastianobarrera.modeledjs/treejs/parser"
)

func (r *Realm) installFunction() {
	r.defineConstructor("Function", 1, r.FunctionProto, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		var params []string
		body := ""
		for i, a := range args {
			s, err := vm.ToString(a)
			if err != nil {
				return nil, err
			}
			if i == len(args)-1 {
				body = string(s)
			} else {
				params = append(params, string(s))
			}
		}
		return vm.newDynamicFunction(strings.Join(params, ","), body)
	})

	proto := r.FunctionProto
	proto.DefineProperty("length", Descriptor{value: JSNumber(0)})
	proto.DefineProperty("name", Descriptor{value: JSString("")})

	r.defineMethod(proto, "call", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		fn, err := vm.thisFunction(subject, "call")
		if err != nil {
			return nil, err
		}
		var rest []JSValue
		if len(args) > 1 {
			rest = args[1:]
		}
		return vm.invoke(fn, arg(args, 0), rest, CallFlags{})
	})

	r.defineMethod(proto, "apply", 2, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		fn, err := vm.thisFunction(subject, "apply")
		if err != nil {
			return nil, err
		}
		callArgs, err := vm.listFromArrayLike(arg(args, 1))
		if err != nil {
			return nil, err
		}
		return vm.invoke(fn, arg(args, 0), callArgs, CallFlags{})
	})

	r.defineMethod(proto, "bind", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		target, err := vm.thisFunction(subject, "bind")
		if err != nil {
			return nil, err
		}
		boundThis := arg(args, 0)
		var boundArgs []JSValue
		if len(args) > 1 {
			boundArgs = append(boundArgs, args[1:]...)
		}

		name := "bound " + target.funcPart.name
		bound := vm.realm.NewNativeFunction(name, 0, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
			allArgs := make([]JSValue, 0, len(boundArgs)+len(args))
			allArgs = append(allArgs, boundArgs...)
			allArgs = append(allArgs, args...)
			if flags.isNew {
				return vm.construct(target, allArgs)
			}
			return vm.invoke(target, boundThis, allArgs, CallFlags{})
		})
		if protoVal, err := vm.getProperty(target, target, "prototype"); err == nil {
			bound.DefineProperty("prototype", Descriptor{value: protoVal})
		}
		return bound, nil
	})

	r.defineMethod(proto, "toString", 0, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		fn, err := vm.thisFunction(subject, "toString")
		if err != nil {
			return nil, err
		}
		return JSString(functionSource(fn)), nil
	})
}

func (vm *VM) thisFunction(subject JSValue, method string) (*JSObject, error) {
	fn, isObj := subject.(*JSObject)
	if !isObj || !fn.IsCallable() {
		return nil, vm.ThrowError("TypeError", "Function.prototype."+method+" called on incompatible "+typeOf(subject))
	}
	return fn, nil
}

// newDynamicFunction backs the Function constructor: the function is
// compiled from source text and closes over the global scope only.
func (vm *VM) newDynamicFunction(params, body string) (JSValue, error) {
	literal, script, err := parser.ParseFunction(params, body)
	if err != nil {
		var serr *lexer.SyntaxError
		if errors.As(err, &serr) {
			return nil, vm.ThrowError("SyntaxError", serr.Message)
		}
		return nil, err
	}
	if err := Check(script, vm.logger); err != nil {
		return nil, vm.ThrowError("SyntaxError", err.Error())
	}

	vm.synCtx.PushScript(script)
	defer vm.synCtx.PopScript(script)
	return vm.makeFunction(literal, vm.globalScope()), nil
}

// globalScope is a new root scope over the global object.
func (vm *VM) globalScope() *Scope {
	return newScope(nil, ObjectEnv{vm.realm.Global})
}

// listFromArrayLike reads the elements of an array or array-like object,
// as apply does. undefined and null give no elements.
func (vm *VM) listFromArrayLike(value JSValue) ([]JSValue, error) {
	if isNullish(value) {
		return nil, nil
	}
	obj, isObj := value.(*JSObject)
	if !isObj {
		return nil, vm.ThrowError("TypeError", "second argument to Function.prototype.apply must be an array")
	}
	if obj.arrayPart != nil {
		items := make([]JSValue, len(obj.arrayPart))
		for i := range obj.arrayPart {
			items[i] = obj.getIndex(i)
		}
		return items, nil
	}

	lengthVal, err := vm.getProperty(obj, obj, "length")
	if err != nil {
		return nil, err
	}
	length, err := vm.ToInteger(lengthVal)
	if err != nil {
		return nil, err
	}
	if length > maxDenseIndex {
		return nil, vm.ThrowError("RangeError", "too many arguments in function call")
	}
	items := make([]JSValue, 0, int(max(length, 0)))
	for i := 0; i < int(length); i++ {
		item, err := vm.getProperty(obj, obj, numberToString(float64(i)))
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
