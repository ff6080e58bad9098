package parser

import (
	"com.github.sebastianobarrera.modeledjs/treejs/ast"
)

type nesting uint8

const (
	// top level of a script or function body
	nestingTop nesting = iota
	// inside static forms such as { ... } or a labelled statement
	nestingShallow
	// inside dynamic forms such as if, loops, with
	nestingDeep
)

// stack is a persistent stack: push returns a new stack that shares its
// tail with the receiver, which is left untouched.
type stack[T any] struct {
	head *frame[T]
}

type frame[T any] struct {
	value T
	next  *frame[T]
}

func (s stack[T]) push(value T) stack[T] {
	return stack[T]{head: &frame[T]{value: value, next: s.head}}
}

func (s stack[T]) isEmpty() bool { return s.head == nil }

func (s stack[T]) find(pred func(T) bool) (T, bool) {
	for f := s.head; f != nil; f = f.next {
		if pred(f.value) {
			return f.value, true
		}
	}
	var zero T
	return zero, false
}

func containsLabel(s stack[string], label string) bool {
	_, found := s.find(func(l string) bool { return l == label })
	return found
}

type labeledTarget struct {
	node   ast.Node
	labels stack[string]
}

// staticContext is the parsing state threaded through the recursive
// descent. It is passed by value and never modified in place: every method
// that changes it returns a modified copy, so sibling parses can't observe
// each other's changes.
type staticContext struct {
	parentScript *ast.Script
	// where let declarations are recorded: the VarDecls of the innermost
	// block, loop head, let block or script
	letDecls *[]*ast.Identifier

	inFunction    bool
	inForLoopInit bool
	nesting       nesting

	allLabels      stack[string]
	currentLabels  stack[string]
	labeledTargets stack[labeledTarget]
	defaultTarget  ast.Node
}

func newContext(script *ast.Script, inFunction bool) staticContext {
	return staticContext{
		parentScript: script,
		letDecls:     &script.VarDecls,
		inFunction:   inFunction,
		nesting:      nestingTop,
	}
}

func (x staticContext) withLetDecls(decls *[]*ast.Identifier) staticContext {
	x.letDecls = decls
	return x
}

func (x staticContext) withForLoopInit(inForLoopInit bool) staticContext {
	x.inForLoopInit = inForLoopInit
	return x
}

func (x staticContext) pushLabel(label string) staticContext {
	x.currentLabels = x.currentLabels.push(label)
	x.allLabels = x.allLabels.push(label)
	return x
}

// pushTarget makes n the target of the labels seen since the last target,
// and the target of unlabelled break/continue if it's a loop or switch.
func (x staticContext) pushTarget(n ast.Node) staticContext {
	isDefaultTarget := isLoop(n)
	if _, isSwitch := n.(*ast.SwitchStatement); isSwitch {
		isDefaultTarget = true
	}

	if x.currentLabels.isEmpty() {
		if isDefaultTarget {
			x.defaultTarget = n
		}
		return x
	}

	x.labeledTargets = x.labeledTargets.push(labeledTarget{node: n, labels: x.currentLabels})
	x.currentLabels = stack[string]{}
	if isDefaultTarget {
		x.defaultTarget = n
	}
	return x
}

func (x staticContext) nest(atLeast nesting) staticContext {
	if x.nesting < atLeast {
		x.nesting = atLeast
	}
	return x
}

func isLoop(n ast.Node) bool {
	switch n.(type) {
	case *ast.ForStatement, *ast.ForInStatement, *ast.WhileStatement, *ast.DoWhileStatement:
		return true
	}
	return false
}
