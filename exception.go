package treejs

import (
	"fmt"
	"reflect"
	"strings"

	"com.github.sebastianobarrera.modeledjs/treejs/ast"
)

// ProgramException is a JS exception that was not caught by the program.
// Value is the thrown value; the position fields refer to the innermost
// node being evaluated when it was raised.
type ProgramException struct {
	Value   JSValue
	Name    string
	Message string

	Filename     string
	Line, Column int
	// byte offsets of the node in its script
	Start, End int

	context []ContextItem
}

func (pexc *ProgramException) Error() string {
	var msg string
	if pexc.Name != "" {
		msg = pexc.Name + ": " + pexc.Message
	} else {
		msg = pexc.Message
	}

	frames := pexc.Frames()
	lines := make([]string, 1+len(frames))
	lines[0] = fmt.Sprintf("JS exception: %s", msg)
	for i, frame := range frames {
		lines[1+i] = " " + frame.String()
	}
	return strings.Join(lines, "\n")
}

type StackFrame struct {
	Filename     string
	Line, Column int
	Node         string
}

func (sf StackFrame) String() string {
	return fmt.Sprintf("JS @ %s:%d:%d %s", sf.Filename, sf.Line, sf.Column, sf.Node)
}

// Frames lists the nodes that were being evaluated when the exception was
// raised, outermost first.
func (pexc *ProgramException) Frames() []StackFrame {
	frames := make([]StackFrame, len(pexc.context))
	for i, item := range pexc.context {
		frames[i].Node = reflect.TypeOf(item.node).String()
		if pos := item.script.Position(item.node.Idx0()); pos != nil {
			frames[i].Filename = pos.Filename
			frames[i].Line = pos.Line
			frames[i].Column = pos.Column
		}
	}
	return frames
}

// ProgramContext tracks the scripts and nodes being evaluated, for error
// positions and stack traces.
type ProgramContext struct {
	scriptStack []*ast.Script
	stack       []ContextItem
}

type ContextItem struct {
	script *ast.Script
	node   ast.Node
}

func (pctx *ProgramContext) PushScript(script *ast.Script) {
	pctx.scriptStack = append(pctx.scriptStack, script)
}

func (pctx *ProgramContext) PopScript(check *ast.Script) {
	sl := len(pctx.scriptStack)
	if sl == 0 {
		panic("bug: ProgramContext: PopScript called on empty stack")
	}
	if pctx.scriptStack[sl-1] != check {
		panic("bug: ProgramContext: stack was not managed purely with PushScript/PopScript")
	}
	pctx.scriptStack = pctx.scriptStack[:sl-1]
}

func (pctx *ProgramContext) currentScript() *ast.Script {
	if len(pctx.scriptStack) == 0 {
		return nil
	}
	return pctx.scriptStack[len(pctx.scriptStack)-1]
}

func (pctx *ProgramContext) Push(node ast.Node) {
	if len(pctx.scriptStack) == 0 {
		panic("bug: ProgramContext: Push called without calling PushScript() first")
	}
	pctx.stack = append(pctx.stack, ContextItem{script: pctx.currentScript(), node: node})
}

func (pctx *ProgramContext) Pop(nodeCheck ast.Node) {
	sl := len(pctx.stack)
	if sl == 0 {
		panic("bug: ProgramContext.Pop but stack already empty")
	}
	if nodeCheck != pctx.stack[sl-1].node {
		panic("bug: nodeCheck != stack top")
	}
	pctx.stack = pctx.stack[:sl-1]
}

// snapshot copies the node stack; the copy stays valid after the
// evaluation unwinds.
func (pctx *ProgramContext) snapshot() []ContextItem {
	items := make([]ContextItem, len(pctx.stack))
	copy(items, pctx.stack)
	return items
}

// ThrowError creates an instance of the named error class and returns it as
// a *ProgramException.
func (vm *VM) ThrowError(className string, message string) error {
	proto, isKnown := vm.realm.errorProtos[className]
	if !isKnown {
		proto = vm.realm.ErrorProto
	}
	exc := NewJSObject(proto)
	exc.Class = "Error"
	exc.defineHidden("message", JSString(message))
	return vm.makeException(exc)
}

func (vm *VM) makeException(excValue JSValue) error {
	pexc := &ProgramException{
		Value:   excValue,
		context: vm.synCtx.snapshot(),
	}
	pexc.Name, pexc.Message = describeException(excValue)

	if n := len(pexc.context); n > 0 {
		top := pexc.context[n-1]
		span := top.node.Span()
		pexc.Start, pexc.End = span.Start, span.End
		if pos := top.script.Position(top.node.Idx0()); pos != nil {
			pexc.Filename = pos.Filename
			pexc.Line = pos.Line
			pexc.Column = pos.Column
		}
	}
	return pexc
}

// describeException reads name and message from an error object without
// running any JS code.
func describeException(value JSValue) (name, message string) {
	obj, isObj := value.(*JSObject)
	if !isObj {
		return "", displayString(value)
	}

	dataProp := func(prop string) string {
		for o := obj; o != nil; o = o.Prototype {
			if d, ok := o.descriptors[prop]; ok {
				if s, isStr := d.value.(JSString); isStr && !d.isAccessor() {
					return string(s)
				}
				return ""
			}
		}
		return ""
	}
	return dataProp("name"), dataProp("message")
}
