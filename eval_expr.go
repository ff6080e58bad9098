package treejs

import (
	"fmt"

	"com.github.sebastianobarrera.modeledjs/treejs/ast"
	"com.github.sebastianobarrera.modeledjs/treejs/token"
)

func (vm *VM) evalExpr(expr ast.Expression) (value JSValue, err error) {
	vm.synCtx.Push(expr)
	defer vm.synCtx.Pop(expr)

	switch expr := expr.(type) {
	case *ast.AssignExpression:
		return vm.evalAssign(expr)

	case *ast.FunctionLiteral:
		return vm.makeFunction(expr, vm.curScope), nil

	case *ast.LetExpression:
		defer vm.enterScope(newVarScope(vm.curScope, expr.VarDecls))()
		if err := vm.runDeclarations(expr.Variables); err != nil {
			return nil, err
		}
		return vm.evalExpr(expr.Expression)

	case *ast.ObjectLiteral:
		return vm.evalObjectLiteral(expr)

	case *ast.ArrayLiteral:
		items := make([]JSValue, len(expr.Value))
		for i, itemExpr := range expr.Value {
			if itemExpr == nil {
				// hole
				continue
			}
			items[i], err = vm.evalExpr(itemExpr)
			if err != nil {
				return nil, err
			}
		}
		return vm.realm.NewArray(items), nil

	case *ast.ArrayComprehension:
		return vm.evalComprehension(expr)

	case *ast.GeneratorExpression:
		return nil, vm.ThrowError("TypeError", "generator expressions are not supported")

	case *ast.YieldExpression:
		return nil, vm.ThrowError("TypeError", "yield is not supported")

	case *ast.BinaryExpression:
		switch expr.Operator {
		case token.LOGICAL_OR, token.LOGICAL_AND:
			left, err := vm.evalExpr(expr.Left)
			if err != nil {
				return nil, err
			}
			// return the value itself!
			if bool(vm.ToBoolean(left)) == (expr.Operator == token.LOGICAL_OR) {
				return left, nil
			}
			return vm.evalExpr(expr.Right)
		}

		left, err := vm.evalExpr(expr.Left)
		if err != nil {
			return nil, err
		}
		right, err := vm.evalExpr(expr.Right)
		if err != nil {
			return nil, err
		}
		return vm.binaryOp(expr.Operator, left, right)

	case *ast.DotExpression, *ast.BracketExpression:
		ref, err := vm.evalRef(expr)
		if err != nil {
			return nil, err
		}
		return vm.getRef(ref)

	case *ast.CallExpression:
		return vm.evalCall(expr)

	case *ast.NewExpression:
		cons, err := vm.evalExpr(expr.Callee)
		if err != nil {
			return nil, err
		}
		args, err := vm.evalArgs(expr.ArgumentList)
		if err != nil {
			return nil, err
		}

		consObj, isObj := cons.(*JSObject)
		if !isObj || !consObj.IsCallable() {
			msg := fmt.Sprintf("%s is not a constructor", vm.describeNode(expr.Callee))
			return nil, vm.ThrowError("TypeError", msg)
		}
		return vm.construct(consObj, args)

	case *ast.UnaryExpression:
		return vm.evalUnary(expr)

	case *ast.UpdateExpression:
		ref, err := vm.evalRef(expr.Operand)
		if err != nil {
			return nil, err
		}
		oldValue, err := vm.getRef(ref)
		if err != nil {
			return nil, err
		}
		oldNum, err := vm.toNumberOrNaN(oldValue)
		if err != nil {
			return nil, err
		}

		newNum := oldNum + 1
		if expr.Operator == token.DECREMENT {
			newNum = oldNum - 1
		}
		if err := vm.putRef(ref, newNum); err != nil {
			return nil, err
		}
		if expr.Postfix {
			return oldNum, nil
		}
		return newNum, nil

	case *ast.ConditionalExpression:
		test, err := vm.evalExpr(expr.Test)
		if err != nil {
			return nil, err
		}

		if vm.ToBoolean(test) {
			return vm.evalExpr(expr.Consequent)
		}
		return vm.evalExpr(expr.Alternate)

	case *ast.SequenceExpression:
		for _, item := range expr.Sequence {
			value, err = vm.evalExpr(item)
			if err != nil {
				break
			}
		}
		return

	case *ast.ThisExpression:
		scope := currentCall(vm.curScope)
		if scope == nil {
			return vm.realm.Global, nil
		}
		return scope.call.this, nil

	case *ast.Identifier:
		// some well-known identifiers directly resolve to a value without any lookup
		if expr.Name == "undefined" {
			return undefined, nil
		}
		return vm.getRef(reference{name: expr.Name})

	case *ast.BooleanLiteral:
		return JSBoolean(expr.Value), nil
	case *ast.NullLiteral:
		return null, nil
	case *ast.NumberLiteral:
		return JSNumber(expr.Value), nil
	case *ast.StringLiteral:
		return JSString(expr.Value), nil
	case *ast.RegExpLiteral:
		return vm.newRegExp(expr.Pattern, expr.Flags)

	default:
		return nil, fmt.Errorf("unsupported expression node: %T", expr)
	}
}

// reference is the target of an assignment: a variable when base is nil,
// otherwise a property of base.
type reference struct {
	name string
	base JSValue
}

func (vm *VM) evalRef(expr ast.Expression) (reference, error) {
	switch expr := expr.(type) {
	case *ast.Identifier:
		return reference{name: expr.Name}, nil

	case *ast.DotExpression:
		base, err := vm.evalExpr(expr.Left)
		if err != nil {
			return reference{}, err
		}
		return reference{name: expr.Identifier.Name, base: base}, nil

	case *ast.BracketExpression:
		base, err := vm.evalExpr(expr.Left)
		if err != nil {
			return reference{}, err
		}
		member, err := vm.evalExpr(expr.Member)
		if err != nil {
			return reference{}, err
		}
		if isNullish(base) {
			// report the null base before coercing the key
			return reference{base: base, name: displayString(member)}, nil
		}
		key, err := vm.ToString(member)
		if err != nil {
			return reference{}, err
		}
		return reference{name: string(key), base: base}, nil

	default:
		// evaluated for side effects, as in f() = 1
		if _, err := vm.evalExpr(expr); err != nil {
			return reference{}, err
		}
		return reference{}, vm.ThrowError("ReferenceError", "invalid assignment left-hand side")
	}
}

func (vm *VM) getRef(ref reference) (JSValue, error) {
	if ref.base != nil {
		return vm.getMember(ref.base, ref.name)
	}

	value, found, err := vm.curScope.env.lookupVar(vm.curScope, ref.name, vm)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, vm.ThrowError("ReferenceError", ref.name+" is not defined")
	}
	return value, nil
}

func (vm *VM) putRef(ref reference, value JSValue) error {
	if ref.base != nil {
		return vm.setMember(ref.base, ref.name, value)
	}
	return vm.curScope.env.setVar(vm.curScope, ref.name, value, vm)
}

func (vm *VM) evalAssign(expr *ast.AssignExpression) (JSValue, error) {
	switch expr.Left.(type) {
	case *ast.ArrayLiteral, *ast.ObjectLiteral:
		value, err := vm.evalExpr(expr.Right)
		if err != nil {
			return nil, err
		}
		return value, vm.bindPattern(expr.Left, value, vm.assignName)
	}

	ref, err := vm.evalRef(expr.Left)
	if err != nil {
		return nil, err
	}

	var value JSValue
	if expr.Operator == token.ASSIGN {
		value, err = vm.evalExpr(expr.Right)
		if err != nil {
			return nil, err
		}
	} else {
		prevValue, err := vm.getRef(ref)
		if err != nil {
			return nil, err
		}
		right, err := vm.evalExpr(expr.Right)
		if err != nil {
			return nil, err
		}
		value, err = vm.binaryOp(expr.Operator, prevValue, right)
		if err != nil {
			return nil, err
		}
	}

	return value, vm.putRef(ref, value)
}

func (vm *VM) evalArgs(exprs []ast.Expression) ([]JSValue, error) {
	args := make([]JSValue, len(exprs))
	for i, argExpr := range exprs {
		var err error
		args[i], err = vm.evalExpr(argExpr)
		if err != nil {
			return nil, err
		}
	}
	return args, nil
}

func (vm *VM) evalCall(expr *ast.CallExpression) (JSValue, error) {
	var callee JSValue
	var subject JSValue = undefined

	switch calleeExpr := expr.Callee.(type) {
	case *ast.DotExpression, *ast.BracketExpression:
		ref, err := vm.evalRef(calleeExpr)
		if err != nil {
			return nil, err
		}
		subject = ref.base
		callee, err = vm.getRef(ref)
		if err != nil {
			return nil, err
		}

	default:
		var err error
		callee, err = vm.evalExpr(calleeExpr)
		if err != nil {
			return nil, err
		}
	}

	args, err := vm.evalArgs(expr.ArgumentList)
	if err != nil {
		return nil, err
	}

	calleeObj, isObj := callee.(*JSObject)
	if !isObj || !calleeObj.IsCallable() {
		msg := fmt.Sprintf("%s is not a function", vm.describeNode(expr.Callee))
		return nil, vm.ThrowError("TypeError", msg)
	}
	return vm.invoke(calleeObj, subject, args, CallFlags{})
}

// describeNode is the source text of n, for error messages.
func (vm *VM) describeNode(n ast.Node) string {
	if script := vm.synCtx.currentScript(); script != nil {
		if src := script.Source(n); src != "" {
			return src
		}
	}
	return fmt.Sprintf("%T", n)
}

func (vm *VM) evalUnary(expr *ast.UnaryExpression) (JSValue, error) {
	switch expr.Operator {
	case token.DELETE:
		switch operand := expr.Operand.(type) {
		case *ast.Identifier:
			didDelete := vm.curScope.env.deleteVar(vm.curScope, operand.Name, vm)
			return JSBoolean(didDelete), nil

		case *ast.DotExpression, *ast.BracketExpression:
			ref, err := vm.evalRef(operand)
			if err != nil {
				return nil, err
			}
			switch base := ref.base.(type) {
			case JSUndefined, JSNull:
				msg := fmt.Sprintf("cannot delete property '%s' of %s", ref.name, typeOfNullish(base))
				return nil, vm.ThrowError("TypeError", msg)
			case *JSObject:
				didDelete := base.DeleteProperty(ref.name)
				if !didDelete && isStrict(vm.curScope) {
					msg := fmt.Sprintf("property '%s' is non-configurable and can't be deleted", ref.name)
					return nil, vm.ThrowError("TypeError", msg)
				}
				return JSBoolean(didDelete), nil
			}
			return JSBoolean(true), nil

		default:
			_, err := vm.evalExpr(expr.Operand)
			return JSBoolean(true), err
		}

	case token.TYPEOF:
		if ident, isIdent := expr.Operand.(*ast.Identifier); isIdent {
			// unbound names are not an error here
			value, found, err := vm.curScope.env.lookupVar(vm.curScope, ident.Name, vm)
			if err != nil {
				return nil, err
			}
			if !found {
				return JSString("undefined"), nil
			}
			return JSString(typeOf(value)), nil
		}
		arg, err := vm.evalExpr(expr.Operand)
		if err != nil {
			return nil, err
		}
		return JSString(typeOf(arg)), nil

	case token.VOID:
		// evaluate and discard
		_, err := vm.evalExpr(expr.Operand)
		return undefined, err
	}

	arg, err := vm.evalExpr(expr.Operand)
	if err != nil {
		return nil, err
	}

	switch expr.Operator {
	case token.NOT:
		return !vm.ToBoolean(arg), nil

	case token.PLUS:
		return vm.toNumberOrNaN(arg)

	case token.MINUS:
		num, err := vm.toNumberOrNaN(arg)
		return -num, err

	case token.BITWISE_NOT:
		num, err := vm.toNumberOrNaN(arg)
		return JSNumber(^toInt32(float64(num))), err

	default:
		return nil, vm.ThrowError("SyntaxError", "unsupported unary expression: "+expr.Operator.String())
	}
}

func (vm *VM) evalObjectLiteral(expr *ast.ObjectLiteral) (JSValue, error) {
	obj := vm.realm.NewObject()
	for _, prop := range expr.Value {
		key := propertyKey(prop.Key)

		switch prop.Kind {
		case ast.PropertyInit:
			var propValue JSValue
			var err error
			if prop.Value == nil {
				propValue, err = vm.evalExpr(prop.Key)
			} else {
				propValue, err = vm.evalExpr(prop.Value)
			}
			if err != nil {
				return nil, err
			}

			if key == "__proto__" {
				if err := vm.setPrototype(obj, propValue); err != nil {
					return nil, err
				}
				continue
			}
			obj.defineValue(key, propValue)

		case ast.PropertyGet, ast.PropertySet:
			propValue, err := vm.evalExpr(prop.Value)
			if err != nil {
				return nil, err
			}
			propObj, isObj := propValue.(*JSObject)
			if !isObj || !propObj.IsCallable() {
				panic("bug: object literal accessor is not a function")
			}

			ds := obj.getOrDefineProperty(key)
			ds.value = nil
			if prop.Kind == ast.PropertyGet {
				ds.get = propObj
			} else {
				ds.set = propObj
			}

		default:
			return nil, fmt.Errorf("unsupported obj literal kind = %s", prop.Kind)
		}
	}
	return obj, nil
}

// evalComprehension evaluates an array comprehension eagerly, with the
// iteration variables bound in a scope of their own.
func (vm *VM) evalComprehension(expr *ast.ArrayComprehension) (JSValue, error) {
	scope := newScope(vm.curScope, make(DirectEnv))
	defer vm.enterScope(scope)()

	bind := func(name string, value JSValue) error {
		scope.env.defineVar(scope, DeclLet, name, value)
		return nil
	}

	var items []JSValue
	tail := expr.Tail

	var loop func(level int) error
	loop = func(level int) error {
		if level == len(tail.For) {
			if tail.Guard != nil {
				guardVal, err := vm.evalExpr(tail.Guard)
				if err != nil || !vm.ToBoolean(guardVal) {
					return err
				}
			}
			item, err := vm.evalExpr(expr.Expression)
			if err == nil {
				items = append(items, item)
			}
			return err
		}

		cf := tail.For[level]
		source, err := vm.evalExpr(cf.Source)
		if err != nil || isNullish(source) {
			return err
		}
		obj, err := vm.ToObject(source)
		if err != nil {
			return err
		}

		for _, key := range vm.enumerate(obj) {
			var item JSValue = JSString(key)
			if cf.Each {
				item, err = vm.getProperty(obj, obj, key)
				if err != nil {
					return err
				}
			}
			if err := vm.bindPattern(cf.Iterator, item, bind); err != nil {
				return err
			}
			if err := loop(level + 1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := loop(0); err != nil {
		return nil, err
	}
	if items == nil {
		items = make([]JSValue, 0)
	}
	return vm.realm.NewArray(items), nil
}
