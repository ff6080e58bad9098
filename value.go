package treejs

import (
	"fmt"
	"math"
)

type JSValue interface {
	Category() JSVCategory
}

type JSVCategory uint8

const (
	VUndefined JSVCategory = iota
	VNull
	VNumber
	VBoolean
	VString
	VObject
	VFunction
)

func (c JSVCategory) String() string {
	switch c {
	case VUndefined:
		return "undefined"
	case VNull:
		return "null"
	case VNumber:
		return "number"
	case VBoolean:
		return "boolean"
	case VString:
		return "string"
	case VObject:
		return "object"
	case VFunction:
		return "function"
	default:
		return fmt.Sprintf("JSVCategory(%d)", uint8(c))
	}
}

type JSUndefined struct{}

func (v JSUndefined) Category() JSVCategory { return VUndefined }

type JSNull struct{}

func (v JSNull) Category() JSVCategory { return VNull }

type JSNumber float64

func (v JSNumber) Category() JSVCategory { return VNumber }

type JSBoolean bool

func (v JSBoolean) Category() JSVCategory { return VBoolean }

type JSString string

func (v JSString) Category() JSVCategory { return VString }

func (v *JSObject) Category() JSVCategory {
	if v.funcPart == nil {
		return VObject
	}
	return VFunction
}

var (
	undefined JSValue = JSUndefined{}
	null      JSValue = JSNull{}
	nan               = JSNumber(math.NaN())
)

func isNullish(v JSValue) bool {
	switch v.(type) {
	case JSUndefined, JSNull:
		return true
	}
	return false
}

// arg returns the i-th argument, or undefined if it wasn't passed.
func arg(args []JSValue, i int) JSValue {
	if i < len(args) {
		return args[i]
	}
	return undefined
}

// typeOf implements the typeof operator.
func typeOf(v JSValue) string {
	switch v.Category() {
	case VNull:
		return "object"
	default:
		return v.Category().String()
	}
}
