package treejs

import (
	"fmt"

	"com.github.sebastianobarrera.modeledjs/treejs/ast"
	"com.github.sebastianobarrera.modeledjs/treejs/token"
)

type CompletionKind uint8

const (
	CompletionNormal CompletionKind = iota
	CompletionBreak
	CompletionContinue
	CompletionReturn
)

func (k CompletionKind) String() string {
	switch k {
	case CompletionNormal:
		return "normal"
	case CompletionBreak:
		return "break"
	case CompletionContinue:
		return "continue"
	case CompletionReturn:
		return "return"
	default:
		return fmt.Sprintf("CompletionKind(%d)", uint8(k))
	}
}

// Completion is how a statement finished. Thrown exceptions are not
// completions: they travel as *ProgramException errors.
type Completion struct {
	Kind CompletionKind
	// the statement's value for normal completions, the returned value
	// for returns; nil if there is none
	Value JSValue
	// the statement a break or continue jumps out of
	Target ast.Node
}

var normal = Completion{}

func (vm *VM) runStmts(stmts []ast.Statement) (Completion, error) {
	var last JSValue
	for _, stmt := range stmts {
		c, err := vm.runStmt(stmt)
		if err != nil {
			return c, err
		}
		if c.Kind != CompletionNormal {
			return c, nil
		}
		if c.Value != nil {
			last = c.Value
		}
	}
	return Completion{Value: last}, nil
}

// enterScope makes scope current until the returned function is called.
func (vm *VM) enterScope(scope *Scope) (restore func()) {
	saveScope := vm.curScope
	vm.curScope = scope
	return func() { vm.curScope = saveScope }
}

func (vm *VM) runStmt(stmt ast.Statement) (c Completion, err error) {
	if ast.IsNil(stmt) {
		return normal, nil
	}
	if err := vm.checkInterrupt(); err != nil {
		return normal, err
	}

	vm.synCtx.Push(stmt)
	defer vm.synCtx.Pop(stmt)

	switch stmt := stmt.(type) {
	case *ast.EmptyStatement, *ast.DebuggerStatement:
		return normal, nil

	case *ast.BlockStatement:
		return vm.runBlock(stmt)

	case *ast.ExpressionStatement:
		value, err := vm.evalExpr(stmt.Expression)
		return Completion{Value: value}, err

	case *ast.IfStatement:
		testVal, err := vm.evalExpr(stmt.Test)
		if err != nil {
			return normal, err
		}

		if vm.ToBoolean(testVal) {
			return vm.runStmt(stmt.Consequent)
		}
		return vm.runStmt(stmt.Alternate)

	case *ast.SwitchStatement:
		return vm.runSwitch(stmt)

	case *ast.ForStatement:
		return vm.runFor(stmt)

	case *ast.ForInStatement:
		return vm.runForIn(stmt)

	case *ast.WhileStatement:
		var value JSValue
		for {
			testVal, err := vm.evalExpr(stmt.Test)
			if err != nil {
				return normal, err
			}
			if !vm.ToBoolean(testVal) {
				return Completion{Value: value}, nil
			}

			c, err := vm.runStmt(stmt.Body)
			if err != nil {
				return c, err
			}
			if c.Value != nil {
				value = c.Value
			}
			if stop, result := loopCompletion(stmt, c, value); stop {
				return result, nil
			}
		}

	case *ast.DoWhileStatement:
		var value JSValue
		for {
			c, err := vm.runStmt(stmt.Body)
			if err != nil {
				return c, err
			}
			if c.Value != nil {
				value = c.Value
			}
			if stop, result := loopCompletion(stmt, c, value); stop {
				return result, nil
			}

			testVal, err := vm.evalExpr(stmt.Test)
			if err != nil {
				return normal, err
			}
			if !vm.ToBoolean(testVal) {
				return Completion{Value: value}, nil
			}
		}

	case *ast.BranchStatement:
		if ast.IsNil(stmt.Target) {
			panic("bug: break/continue without a resolved target")
		}
		kind := CompletionBreak
		if stmt.Token == token.CONTINUE {
			kind = CompletionContinue
		}
		return Completion{Kind: kind, Target: stmt.Target}, nil

	case *ast.LabelledStatement:
		c, err := vm.runStmt(stmt.Statement)
		if err == nil && c.Kind == CompletionBreak && (c.Target == stmt.Statement || c.Target == ast.Node(stmt)) {
			c = Completion{Value: c.Value}
		}
		return c, err

	case *ast.TryStatement:
		return vm.runTry(stmt)

	case *ast.ThrowStatement:
		exc, err := vm.evalExpr(stmt.Argument)
		if err == nil {
			err = vm.makeException(exc)
		}
		return normal, err

	case *ast.ReturnStatement:
		var retVal JSValue = undefined
		if stmt.Argument != nil {
			retVal, err = vm.evalExpr(stmt.Argument)
			if err != nil {
				return normal, err
			}
		}
		return Completion{Kind: CompletionReturn, Value: retVal}, nil

	case *ast.WithStatement:
		value, err := vm.evalExpr(stmt.Object)
		if err != nil {
			return normal, err
		}
		obj, err := vm.ToObject(value)
		if err != nil {
			return normal, err
		}
		defer vm.enterScope(newScope(vm.curScope, ObjectEnv{obj}))()
		return vm.runStmt(stmt.Body)

	case *ast.VariableStatement:
		return normal, vm.runDeclarations(stmt)

	case *ast.LetStatement:
		defer vm.enterScope(newVarScope(vm.curScope, stmt.VarDecls))()
		if err := vm.runDeclarations(stmt.Variables); err != nil {
			return normal, err
		}
		return vm.runBlock(stmt.Body)

	case *ast.FunctionStatement:
		if stmt.Function.Form == ast.FormDeclared {
			// bound by hoisting
			return normal, nil
		}
		scope := vm.curScope.declarationScope()
		fn := vm.makeFunction(stmt.Function, vm.curScope)
		scope.env.defineVar(scope, DeclVar, stmt.Function.Name.Name, fn)
		return normal, nil

	default:
		return normal, fmt.Errorf("unsupported statement node: %T", stmt)
	}
}

// loopCompletion decides what a loop does after its body completed with c.
// When stop is true, the loop ends with result.
func loopCompletion(loop ast.Node, c Completion, value JSValue) (stop bool, result Completion) {
	switch c.Kind {
	case CompletionBreak:
		if c.Target == loop {
			return true, Completion{Value: value}
		}
		return true, c
	case CompletionContinue:
		if c.Target == loop {
			return false, normal
		}
		return true, c
	case CompletionReturn:
		return true, c
	}
	return false, normal
}

func (vm *VM) runBlock(block *ast.BlockStatement) (Completion, error) {
	if block == nil {
		return normal, nil
	}
	if len(block.VarDecls) > 0 {
		defer vm.enterScope(newVarScope(vm.curScope, block.VarDecls))()
	}
	return vm.runStmts(block.List)
}

func (vm *VM) runSwitch(stmt *ast.SwitchStatement) (Completion, error) {
	disc, err := vm.evalExpr(stmt.Discriminant)
	if err != nil {
		return normal, err
	}

	start := -1
	for i, clause := range stmt.Body {
		if clause.Test == nil {
			continue
		}
		caseVal, err := vm.evalExpr(clause.Test)
		if err != nil {
			return normal, err
		}
		if vm.StrictEquals(disc, caseVal) {
			start = i
			break
		}
	}
	if start < 0 {
		start = stmt.Default
	}
	if start < 0 {
		return normal, nil
	}

	// fall through every clause after the first match
	var value JSValue
	for _, clause := range stmt.Body[start:] {
		c, err := vm.runStmts(clause.Consequent)
		if err != nil {
			return c, err
		}
		if c.Value != nil {
			value = c.Value
		}
		if c.Kind == CompletionBreak && c.Target == ast.Node(stmt) {
			return Completion{Value: value}, nil
		}
		if c.Kind != CompletionNormal {
			return c, nil
		}
	}
	return Completion{Value: value}, nil
}

func (vm *VM) runFor(stmt *ast.ForStatement) (Completion, error) {
	perIteration := len(stmt.VarDecls) > 0
	if perIteration {
		defer vm.enterScope(newVarScope(vm.curScope, stmt.VarDecls))()
	} else {
		defer vm.enterScope(vm.curScope)()
	}

	switch init := stmt.Initializer.(type) {
	case nil:
	case *ast.VariableStatement:
		if err := vm.runDeclarations(init); err != nil {
			return normal, err
		}
	case ast.Expression:
		if _, err := vm.evalExpr(init); err != nil {
			return normal, err
		}
	default:
		panic(fmt.Sprintf("bug: invalid for initializer %T", init))
	}

	var value JSValue
	for {
		if stmt.Test != nil {
			testVal, err := vm.evalExpr(stmt.Test)
			if err != nil {
				return normal, err
			}
			if !vm.ToBoolean(testVal) {
				return Completion{Value: value}, nil
			}
		}

		c, err := vm.runStmt(stmt.Body)
		if err != nil {
			return c, err
		}
		if c.Value != nil {
			value = c.Value
		}
		if stop, result := loopCompletion(stmt, c, value); stop {
			return result, nil
		}

		// closures created by this iteration keep its bindings
		if perIteration {
			vm.curScope = vm.curScope.copyBindings()
		}

		if stmt.Update != nil {
			if _, err := vm.evalExpr(stmt.Update); err != nil {
				return normal, err
			}
		}
	}
}

func (vm *VM) runForIn(stmt *ast.ForInStatement) (Completion, error) {
	if decl, isDecl := stmt.Into.(*ast.VariableStatement); isDecl && decl.List[0].Initializer != nil {
		if err := vm.runDeclarations(decl); err != nil {
			return normal, err
		}
	}

	source, err := vm.evalExpr(stmt.Source)
	if err != nil || isNullish(source) {
		return normal, err
	}
	obj, err := vm.ToObject(source)
	if err != nil {
		return normal, err
	}

	defer vm.enterScope(vm.curScope)()
	outer := vm.curScope

	var value JSValue
	for _, key := range vm.enumerate(obj) {
		// skip properties deleted by earlier iterations
		if !vm.hasProperty(obj, key) {
			continue
		}

		var item JSValue = JSString(key)
		if stmt.Each {
			item, err = vm.getProperty(obj, obj, key)
			if err != nil {
				return normal, err
			}
		}

		if len(stmt.VarDecls) > 0 {
			vm.curScope = newVarScope(outer, stmt.VarDecls)
		}
		if err := vm.assignLoopTarget(stmt.Into, item); err != nil {
			return normal, err
		}

		c, err := vm.runStmt(stmt.Body)
		if err != nil {
			return c, err
		}
		if c.Value != nil {
			value = c.Value
		}
		if stop, result := loopCompletion(stmt, c, value); stop {
			return result, nil
		}
	}
	return Completion{Value: value}, nil
}

func (vm *VM) assignLoopTarget(into ast.Node, item JSValue) error {
	switch into := into.(type) {
	case *ast.VariableStatement:
		return vm.bindPattern(into.List[0].Target, item, vm.declarationBinder(into.Token))
	case ast.Expression:
		return vm.bindPattern(into, item, vm.assignName)
	default:
		panic(fmt.Sprintf("bug: invalid for-in target %T", into))
	}
}

func (vm *VM) runTry(stmt *ast.TryStatement) (c Completion, err error) {
	c, err = vm.runBlock(stmt.Body)

	if exc, isExc := err.(*ProgramException); isExc {
		for _, clause := range stmt.Catches {
			matched, cc, cerr := vm.runCatch(clause, exc)
			if matched || cerr != nil {
				c, err = cc, cerr
				break
			}
		}
	}

	if stmt.Finally != nil {
		fc, ferr := vm.runBlock(stmt.Finally)
		if ferr != nil || fc.Kind != CompletionNormal {
			return fc, ferr
		}
	}
	return c, err
}

// runCatch binds the exception value in a fresh scope and, if the guard
// accepts it, runs the catch body.
func (vm *VM) runCatch(clause *ast.CatchClause, exc *ProgramException) (matched bool, c Completion, err error) {
	vm.synCtx.Push(clause)
	defer vm.synCtx.Pop(clause)

	scope := newScope(vm.curScope, make(DirectEnv))
	defer vm.enterScope(scope)()

	err = vm.bindPattern(clause.Parameter, exc.Value, func(name string, value JSValue) error {
		scope.env.defineVar(scope, DeclLet, name, value)
		return nil
	})
	if err != nil {
		return false, normal, err
	}

	if clause.Guard != nil {
		guardVal, err := vm.evalExpr(clause.Guard)
		if err != nil {
			return false, normal, err
		}
		if !vm.ToBoolean(guardVal) {
			return false, normal, nil
		}
	}

	c, err = vm.runBlock(clause.Body)
	return true, c, err
}

func (vm *VM) runDeclarations(stmt *ast.VariableStatement) error {
	bind := vm.declarationBinder(stmt.Token)
	for _, decl := range stmt.List {
		var value JSValue = undefined
		if decl.Initializer != nil {
			var err error
			value, err = vm.evalExpr(decl.Initializer)
			if err != nil {
				return err
			}
		} else if stmt.Token == token.VAR {
			// var x; leaves x alone
			continue
		}

		if err := vm.bindPattern(decl.Target, value, bind); err != nil {
			return err
		}
	}
	return nil
}

// declarationBinder returns how names declared by var, let or const are
// bound. var names are hoisted, so assigning them reaches the hoisted
// binding; let and const bind in the scope that declared them.
func (vm *VM) declarationBinder(kind token.Token) binder {
	switch kind {
	case token.LET:
		return func(name string, value JSValue) error {
			vm.curScope.initialize(DeclLet, name, value, vm)
			return nil
		}
	case token.CONST:
		return func(name string, value JSValue) error {
			vm.curScope.initialize(DeclConst, name, value, vm)
			return nil
		}
	default:
		return vm.assignName
	}
}

func (vm *VM) assignName(name string, value JSValue) error {
	return vm.curScope.env.setVar(vm.curScope, name, value, vm)
}

// hoist binds the var names and declared functions of a script or function
// body in scope.
func (vm *VM) hoist(scope *Scope, script *ast.Script) {
	for _, ident := range script.VarDecls {
		scope.env.declareVar(scope, ident.Name)
	}
	for _, lit := range script.FunDecls {
		fn := vm.makeFunction(lit, scope)
		scope.env.defineVar(scope, DeclVar, lit.Name.Name, fn)
	}
}
