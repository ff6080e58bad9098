package ast

import (
	"fmt"
	"reflect"
)

// Visitor is called by Walk on entering and leaving each node. If Enter
// returns nil, the children of the node are not visited (and Exit is not
// called for it).
type Visitor interface {
	Enter(n Node) (v Visitor)
	Exit(n Node)
}

// Walk traverses the owned children of n depth-first, in source order.
func Walk(v Visitor, n Node) {
	if IsNil(n) {
		return
	}
	if v = v.Enter(n); v == nil {
		return
	}
	defer v.Exit(n)

	for _, child := range Children(n) {
		Walk(v, child)
	}
}

var nodeType = reflect.TypeOf((*Node)(nil)).Elem()

// IsNil reports whether n is nil, including a nil pointer stored in the
// interface.
func IsNil(n Node) bool {
	if n == nil {
		return true
	}
	rv := reflect.ValueOf(n)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// Children returns the non-nil nodes owned by n, in field order. Fields
// tagged `js:"ref"` and the embedded Base are skipped.
func Children(n Node) []Node {
	if IsNil(n) {
		return nil
	}

	rv := reflect.ValueOf(n).Elem()
	if rv.Kind() != reflect.Struct {
		panic(fmt.Sprintf("bug: node %T is not a pointer to struct", n))
	}

	var children []Node
	add := func(fv reflect.Value) {
		if !fv.IsValid() || !fv.Type().Implements(nodeType) {
			return
		}
		if (fv.Kind() == reflect.Interface || fv.Kind() == reflect.Pointer) && fv.IsNil() {
			return
		}
		child := fv.Interface().(Node)
		if !IsNil(child) {
			children = append(children, child)
		}
	}

	for _, field := range OwnedFields(rv.Type()) {
		fv := rv.FieldByIndex(field.Index)
		if fv.Kind() == reflect.Slice {
			for i := 0; i < fv.Len(); i++ {
				add(fv.Index(i))
			}
		} else {
			add(fv)
		}
	}
	return children
}

// OwnedFields lists the exported fields of a node struct type that are part
// of its syntax: every field except Base and those tagged `js:"ref"`.
func OwnedFields(structType reflect.Type) []reflect.StructField {
	var fields []reflect.StructField
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.Anonymous || !field.IsExported() || field.Tag.Get("js") == "ref" {
			continue
		}
		fields = append(fields, field)
	}
	return fields
}
