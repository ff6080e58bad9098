package treejs

import (
	"fmt"

	"com.github.sebastianobarrera.modeledjs/treejs/ast"
)

type DeclKind uint8

const (
	DeclVar DeclKind = iota
	DeclLet
	DeclConst
)

// Environment stores the bindings of one scope. Lookups and assignments
// that miss continue in the parent scope.
type Environment interface {
	// defineVar creates the binding, or overwrites it if it exists
	defineVar(scope *Scope, kind DeclKind, name string, value JSValue)
	// declareVar creates the binding with value undefined, unless it exists
	declareVar(scope *Scope, name string)
	hasVar(scope *Scope, name string, vm *VM) bool
	setVar(scope *Scope, name string, value JSValue, vm *VM) error
	lookupVar(scope *Scope, name string, vm *VM) (JSValue, bool, error)
	deleteVar(scope *Scope, name string, vm *VM) bool
}

type Scope struct {
	parent      *Scope
	isSetStrict bool
	env         Environment
	// const bindings
	readOnly map[string]struct{}

	// non-nil iff this scope is a function call's scope
	call *ScopeCall
}

type ScopeCall struct {
	this   JSValue
	callee *JSObject
}

func isStrict(s *Scope) (ret bool) {
	for ; s != nil; s = s.parent {
		if s.isSetStrict {
			return true
		}
	}
	return false
}

func newScope(parent *Scope, env Environment) *Scope {
	return &Scope{
		parent:   parent,
		env:      env,
		readOnly: make(map[string]struct{}),
	}
}

// newVarScope makes a scope holding the given names, bound to undefined.
func newVarScope(parent *Scope, decls []*ast.Identifier) *Scope {
	s := newScope(parent, make(DirectEnv))
	for _, ident := range decls {
		s.env.declareVar(s, ident.Name)
	}
	return s
}

func currentCall(scope *Scope) *Scope {
	for ; scope != nil; scope = scope.parent {
		if scope.call != nil {
			return scope
		}
	}
	return nil
}

// initialize binds name in the scope that declared it: the innermost one
// holding the name, or the root. let and const use this, so that they don't
// resolve through with objects.
func (s *Scope) initialize(kind DeclKind, name string, value JSValue, vm *VM) {
	for scope := s; ; scope = scope.parent {
		if _, isDirect := scope.env.(DirectEnv); isDirect && scope.env.hasVar(scope, name, vm) || scope.parent == nil {
			scope.env.defineVar(scope, kind, name, value)
			return
		}
	}
}

func (s *Scope) checkWritable(name string, vm *VM) error {
	if _, ro := s.readOnly[name]; ro {
		return vm.ThrowError("TypeError", fmt.Sprintf("invalid assignment to const '%s'", name))
	}
	return nil
}

type DirectEnv map[string]JSValue

func (denv DirectEnv) defineVar(scope *Scope, kind DeclKind, name string, value JSValue) {
	denv[name] = value
	if kind == DeclConst {
		scope.readOnly[name] = struct{}{}
	}
}

func (denv DirectEnv) declareVar(scope *Scope, name string) {
	if _, alreadyDefined := denv[name]; !alreadyDefined {
		denv[name] = undefined
	}
}

func (denv DirectEnv) hasVar(_ *Scope, name string, _ *VM) bool {
	_, defined := denv[name]
	return defined
}

func (denv DirectEnv) setVar(scope *Scope, name string, value JSValue, vm *VM) error {
	if vm == nil {
		panic("bug: vm not passed (required to throw ReferenceError)")
	}

	if _, alreadyDefined := denv[name]; alreadyDefined {
		if err := scope.checkWritable(name, vm); err != nil {
			return err
		}
		denv[name] = value
		return nil
	}
	if parent := scope.parent; parent != nil {
		return parent.env.setVar(parent, name, value, vm)
	}
	return vm.ThrowError("ReferenceError", name+" is not defined")
}

func (denv DirectEnv) lookupVar(scope *Scope, name string, vm *VM) (JSValue, bool, error) {
	if value, defined := denv[name]; defined {
		return value, true, nil
	}
	if scope.parent != nil {
		return scope.parent.env.lookupVar(scope.parent, name, vm)
	}
	return nil, false, nil
}

// deleteVar never removes declared bindings.
func (denv DirectEnv) deleteVar(scope *Scope, name string, vm *VM) bool {
	if _, defined := denv[name]; defined {
		return false
	}
	if scope.parent != nil {
		return scope.parent.env.deleteVar(scope.parent, name, vm)
	}
	return true
}

// ObjectEnv keeps bindings as properties of an object: the global object at
// the root of the scope chain, or the object of a with statement.
type ObjectEnv struct{ *JSObject }

func (oenv ObjectEnv) defineVar(scope *Scope, kind DeclKind, name string, value JSValue) {
	oenv.DefineProperty(name, Descriptor{
		value:        value,
		writable:     true,
		enumerable:   true,
		configurable: scope.parent != nil,
	})
	if kind == DeclConst {
		scope.readOnly[name] = struct{}{}
	}
}

func (oenv ObjectEnv) declareVar(scope *Scope, name string) {
	if !oenv.HasOwnProperty(name) {
		oenv.defineVar(scope, DeclVar, name, undefined)
	}
}

func (oenv ObjectEnv) hasVar(_ *Scope, name string, vm *VM) bool {
	return vm.hasProperty(oenv.JSObject, name)
}

func (oenv ObjectEnv) setVar(scope *Scope, name string, value JSValue, vm *VM) error {
	if vm.hasProperty(oenv.JSObject, name) {
		if err := scope.checkWritable(name, vm); err != nil {
			return err
		}
		return vm.setProperty(oenv.JSObject, name, value)
	}
	if parent := scope.parent; parent != nil {
		return parent.env.setVar(parent, name, value, vm)
	}

	if isStrict(vm.curScope) {
		msg := fmt.Sprintf("assignment to undeclared variable %s", name)
		return vm.ThrowError("ReferenceError", msg)
	}
	oenv.defineValue(name, value)
	return nil
}

func (oenv ObjectEnv) lookupVar(scope *Scope, name string, vm *VM) (JSValue, bool, error) {
	if vm.hasProperty(oenv.JSObject, name) {
		value, err := vm.getProperty(oenv.JSObject, oenv.JSObject, name)
		return value, true, err
	}
	if scope.parent != nil {
		return scope.parent.env.lookupVar(scope.parent, name, vm)
	}
	return nil, false, nil
}

func (oenv ObjectEnv) deleteVar(scope *Scope, name string, vm *VM) bool {
	if oenv.HasOwnProperty(name) || scope.parent == nil {
		return oenv.DeleteProperty(name)
	}
	return scope.parent.env.deleteVar(scope.parent, name, vm)
}

// declarationScope is the innermost scope that function statements bind
// into: skips the scopes of with statements.
func (s *Scope) declarationScope() *Scope {
	for scope := s; ; scope = scope.parent {
		if _, isDirect := scope.env.(DirectEnv); isDirect || scope.parent == nil {
			return scope
		}
	}
}

// copyBindings makes a sibling of s holding copies of its bindings. Each
// iteration of a for loop with a let head runs in a fresh copy.
func (s *Scope) copyBindings() *Scope {
	denv, isDirect := s.env.(DirectEnv)
	if !isDirect {
		panic("bug: copyBindings on an object scope")
	}
	env := make(DirectEnv, len(denv))
	for name, value := range denv {
		env[name] = value
	}
	c := newScope(s.parent, env)
	for name := range s.readOnly {
		c.readOnly[name] = struct{}{}
	}
	return c
}
