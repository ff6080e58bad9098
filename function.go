package treejs

import (
	"fmt"

	"com.github.sebastianobarrera.modeledjs/treejs/ast"
)

// makeFunction creates a closure over scope.
func (vm *VM) makeFunction(literal *ast.FunctionLiteral, scope *Scope) *JSObject {
	var nameScope *Scope
	name := ""
	if literal.Name != nil {
		name = literal.Name.Name
		// the name of a function expression is only visible inside it
		if literal.Form == ast.FormExpressed {
			nameScope = newScope(scope, make(DirectEnv))
			scope = nameScope
		}
	}

	fn := NewJSObject(vm.realm.FunctionProto)
	fn.Class = "Function"
	fn.funcPart = &FunctionPart{
		isStrict:     isStrict(scope) || literal.Body != nil && hasUseStrict(literal.Body.Body),
		literal:      literal,
		script:       vm.synCtx.currentScript(),
		lexicalScope: scope,
		name:         name,
	}

	proto := vm.realm.NewObject()
	proto.defineHidden("constructor", fn)
	fn.DefineProperty("prototype", Descriptor{value: proto, writable: true})
	fn.DefineProperty("length", Descriptor{value: JSNumber(len(literal.Parameters))})
	fn.DefineProperty("name", Descriptor{value: JSString(name)})

	if nameScope != nil {
		nameScope.env.defineVar(nameScope, DeclVar, name, fn)
	}
	return fn
}

// invoke calls a function object. With flags.isNew, this is the object
// under construction.
func (vm *VM) invoke(callee *JSObject, this JSValue, args []JSValue, flags CallFlags) (ret JSValue, err error) {
	fp := callee.funcPart
	if fp == nil {
		return nil, vm.ThrowError("TypeError", "callee is not a function")
	}

	if vm.callDepth >= vm.config.MaxCallDepth {
		return nil, vm.ThrowError("RangeError", "Maximum call stack size exceeded")
	}
	vm.callDepth++
	defer func() { vm.callDepth-- }()

	if fp.native != nil {
		ret, err = fp.native(vm, this, args, flags)
		if err == nil && ret == nil {
			ret = undefined
		}
		return ret, err
	}

	literal := fp.literal
	if literal.Body != nil && literal.Body.IsGenerator {
		return nil, vm.ThrowError("TypeError", "generator functions are not supported")
	}

	if !fp.isStrict && isNullish(this) {
		// do this-substitution
		this = vm.realm.Global
	}

	vm.synCtx.PushScript(fp.script)
	defer vm.synCtx.PopScript(fp.script)

	scope := newScope(fp.lexicalScope, make(DirectEnv))
	scope.call = &ScopeCall{this: this, callee: callee}
	scope.isSetStrict = fp.isStrict
	defer vm.enterScope(scope)()

	defineParam := func(name string, value JSValue) error {
		scope.env.defineVar(scope, DeclVar, name, value)
		return nil
	}
	for i, param := range literal.Parameters {
		if err := vm.bindPattern(param, arg(args, i), defineParam); err != nil {
			return nil, err
		}
	}

	if !scope.env.hasVar(scope, "arguments", vm) {
		argsObj := NewJSObject(vm.realm.ObjectProto)
		argsObj.Class = "Arguments"
		argsObj.arrayPart = make([]JSValue, len(args))
		copy(argsObj.arrayPart, args)
		argsObj.defineHidden("callee", callee)
		scope.env.defineVar(scope, DeclVar, "arguments", argsObj)
	}

	if literal.ExprBody != nil {
		return vm.evalExpr(literal.ExprBody)
	}

	vm.hoist(scope, literal.Body)
	c, err := vm.runStmts(literal.Body.Body)
	if err != nil {
		return nil, err
	}

	switch c.Kind {
	case CompletionNormal:
		return undefined, nil
	case CompletionReturn:
		return c.Value, nil
	default:
		panic(fmt.Sprintf("bug: %s completion escaped function %q", c.Kind, fp.name))
	}
}

// construct implements new: the constructor runs with a fresh object whose
// prototype is cons.prototype, and its result replaces that object if it
// is an object.
func (vm *VM) construct(cons *JSObject, args []JSValue) (JSValue, error) {
	protoVal, err := vm.getProperty(cons, cons, "prototype")
	if err != nil {
		return nil, err
	}
	proto, isObj := protoVal.(*JSObject)
	if !isObj {
		proto = vm.realm.ObjectProto
	}

	obj := NewJSObject(proto)
	ret, err := vm.invoke(cons, obj, args, CallFlags{isNew: true})
	if err != nil {
		return nil, err
	}
	if retObj, isObj := ret.(*JSObject); isObj {
		return retObj, nil
	}
	return obj, nil
}

// functionSource renders a function for Function.prototype.toString.
func functionSource(fn *JSObject) string {
	fp := fn.funcPart
	if fp.native != nil || fp.script == nil {
		return fmt.Sprintf("function %s() { [native code] }", fp.name)
	}
	if src := fp.script.Source(fp.literal); src != "" {
		return src
	}
	return fmt.Sprintf("function %s() { [unknown source] }", fp.name)
}
