// Package treejs is a tree-walking interpreter for a subset of ECMAScript:
// scripts are parsed by the parser package and evaluated directly on their
// syntax tree.
package treejs

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/sourcemap.v1"

	"com.github.sebastianobarrera.modeledjs/treejs/ast"
	"com.github.sebastianobarrera.modeledjs/treejs/parser"
)

// VM is one interpreter instance with its own realm. A VM must not be used
// from more than one goroutine at a time; separate VMs share nothing.
type VM struct {
	realm    *Realm
	curScope *Scope
	synCtx   ProgramContext

	config    Config
	logger    *zap.Logger
	stdout    io.Writer
	ctx       context.Context
	rand      *rand.Rand
	callDepth int
}

type Option func(vm *VM)

func WithConfig(config Config) Option {
	return func(vm *VM) { vm.config = config }
}

func WithLogger(logger *zap.Logger) Option {
	return func(vm *VM) { vm.logger = logger }
}

// WithStdout sets where print() writes.
func WithStdout(w io.Writer) Option {
	return func(vm *VM) { vm.stdout = w }
}

// WithContext makes evaluation stop with an error wrapping ctx.Err() once
// ctx is done. The context is checked before every statement.
func WithContext(ctx context.Context) Option {
	return func(vm *VM) { vm.ctx = ctx }
}

func NewVM(opts ...Option) *VM {
	vm := &VM{
		config: DefaultConfig(),
		logger: zap.NewNop(),
		stdout: os.Stdout,
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(vm)
	}

	seed := vm.config.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	vm.rand = rand.New(rand.NewSource(seed))
	vm.realm = newRealm()
	return vm
}

func (vm *VM) Realm() *Realm { return vm.realm }

func (vm *VM) RunScriptFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return vm.RunScriptReader(path, f)
}

func (vm *VM) RunScriptReader(path string, f io.Reader) error {
	script, err := vm.ParseReader(path, f)
	if err != nil {
		return err
	}
	_, err = vm.Evaluate(script)
	return err
}

// RunString parses and evaluates src, returning the value of the last
// expression statement.
func (vm *VM) RunString(src string) (JSValue, error) {
	script, err := vm.ParseString("<string>", src, 1, nil)
	if err != nil {
		return nil, err
	}
	return vm.Evaluate(script)
}

func (vm *VM) ParseReader(path string, f io.Reader) (*ast.Script, error) {
	src, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return vm.ParseString(path, string(src), 1, nil)
}

// ParseString parses and checks a script. If sm is not nil, positions are
// reported through the source map.
func (vm *VM) ParseString(filename, src string, line int, sm *sourcemap.Consumer) (*ast.Script, error) {
	var script *ast.Script
	var err error
	if sm != nil {
		script, err = parser.ParseWithSourceMap(src, filename, line, sm)
	} else {
		script, err = parser.Parse(src, filename, line)
	}
	if err != nil {
		return nil, err
	}

	if err := Check(script, vm.logger); err != nil {
		return nil, err
	}
	return script, nil
}

// Evaluate runs a parsed script in the global scope and returns the value
// of the last expression statement executed (undefined if there is none).
// The same script may be evaluated more than once.
func (vm *VM) Evaluate(script *ast.Script) (JSValue, error) {
	vm.synCtx.PushScript(script)
	defer vm.synCtx.PopScript(script)
	vm.synCtx.Push(script)
	defer vm.synCtx.Pop(script)

	topScope := newScope(nil, ObjectEnv{vm.realm.Global})
	topScope.isSetStrict = hasUseStrict(script.Body)

	saveScope := vm.curScope
	vm.curScope = topScope
	defer func() { vm.curScope = saveScope }()

	vm.hoist(topScope, script)
	completion, err := vm.runStmts(script.Body)
	if err != nil {
		return nil, err
	}
	if completion.Kind != CompletionNormal {
		panic(fmt.Sprintf("bug: %s completion escaped the script", completion.Kind))
	}
	if completion.Value == nil {
		return undefined, nil
	}
	return completion.Value, nil
}

// Get reads a global variable. A missing one is undefined.
func (vm *VM) Get(name string) (JSValue, error) {
	return vm.getProperty(vm.realm.Global, vm.realm.Global, name)
}

// Set assigns a global variable.
func (vm *VM) Set(name string, value JSValue) error {
	return vm.setProperty(vm.realm.Global, name, value)
}

// Call invokes fn with the given receiver and arguments.
func (vm *VM) Call(fn JSValue, this JSValue, args ...JSValue) (JSValue, error) {
	fnObj, isObj := fn.(*JSObject)
	if !isObj || !fnObj.IsCallable() {
		return nil, vm.ThrowError("TypeError", displayString(fn)+" is not a function")
	}
	if this == nil {
		this = undefined
	}
	return vm.invoke(fnObj, this, args, CallFlags{})
}

// checkInterrupt fails once the VM's context is done. The error is not a
// *ProgramException, so the program can't catch it.
func (vm *VM) checkInterrupt() error {
	if err := vm.ctx.Err(); err != nil {
		return fmt.Errorf("evaluation interrupted: %w", err)
	}
	return nil
}

func hasUseStrict(body []ast.Statement) bool {
	if len(body) == 0 {
		return false
	}

	es, isES := body[0].(*ast.ExpressionStatement)
	if !isES {
		return false
	}

	lit, isLiteral := es.Expression.(*ast.StringLiteral)
	if !isLiteral {
		return false
	}

	return lit.Value == "use strict"
}

// resolveLoadPath finds a file for load(): absolute paths and paths that
// exist as given win, then the directories of Config.LoadPath in order.
func (vm *VM) resolveLoadPath(path string) (string, error) {
	if _, err := os.Stat(path); err == nil || filepath.IsAbs(path) {
		return path, nil
	}
	for _, dir := range vm.config.LoadPath {
		candidate := filepath.Join(dir, path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("load: %s: not found in load path %v", path, vm.config.LoadPath)
}
