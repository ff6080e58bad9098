package treejs

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"go.uber.org/zap"

	"com.github.sebastianobarrera.modeledjs/treejs/internal/jsnum"
	"com.github.sebastianobarrera.modeledjs/treejs/lexer"
)

func (r *Realm) installGlobals() {
	g := r.Global
	g.DefineProperty("NaN", Descriptor{value: nan})
	g.DefineProperty("Infinity", Descriptor{value: JSNumber(math.Inf(+1))})
	g.DefineProperty("undefined", Descriptor{value: undefined})

	r.defineMethod(g, "parseInt", 2, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		s, err := vm.ToString(arg(args, 0))
		if err != nil {
			return nil, err
		}
		radix, err := vm.ToInt32(arg(args, 1))
		if err != nil {
			return nil, err
		}
		return JSNumber(jsnum.ParseIntPrefix(string(s), int(radix))), nil
	})

	r.defineMethod(g, "parseFloat", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		s, err := vm.ToString(arg(args, 0))
		if err != nil {
			return nil, err
		}
		return JSNumber(jsnum.ParseFloatPrefix(string(s))), nil
	})

	r.defineMethod(g, "isNaN", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		num, err := vm.ToNumber(arg(args, 0))
		return JSBoolean(math.IsNaN(float64(num))), err
	})

	r.defineMethod(g, "isFinite", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		num, err := vm.ToNumber(arg(args, 0))
		f := float64(num)
		return JSBoolean(!math.IsNaN(f) && !math.IsInf(f, 0)), err
	})

	r.defineMethod(g, "eval", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		src, isStr := arg(args, 0).(JSString)
		if !isStr {
			return arg(args, 0), nil
		}
		vm.logger.Debug("eval", zap.Int("length", len(src)))
		return vm.runHostScript("eval", string(src))
	})

	r.defineMethod(g, "load", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		pathVal, err := vm.ToString(arg(args, 0))
		if err != nil {
			return nil, err
		}
		path, err := vm.resolveLoadPath(string(pathVal))
		if err != nil {
			return nil, err
		}
		vm.logger.Debug("load", zap.String("path", path))

		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		return vm.runHostScript(path, string(src))
	})

	r.defineMethod(g, "print", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		strs := make([]string, len(args))
		for i, a := range args {
			s, err := vm.ToString(a)
			if err != nil {
				return nil, err
			}
			strs[i] = string(s)
		}
		if _, err := fmt.Fprintln(vm.stdout, strings.Join(strs, " ")); err != nil {
			return nil, fmt.Errorf("print: %w", err)
		}
		return undefined, nil
	})
}

// runHostScript parses and evaluates source for eval and load. The script
// runs in a new root scope over the global object; a syntax error becomes a
// JS SyntaxError.
func (vm *VM) runHostScript(filename, src string) (JSValue, error) {
	script, err := vm.ParseString(filename, src, 1, nil)
	if err != nil {
		var serr *lexer.SyntaxError
		if errors.As(err, &serr) {
			return nil, vm.ThrowError("SyntaxError", serr.Message)
		}
		return nil, vm.ThrowError("SyntaxError", err.Error())
	}
	return vm.Evaluate(script)
}
