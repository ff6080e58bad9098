package treejs

import (
	"strconv"

	"com.github.sebastianobarrera.modeledjs/treejs/ast"
)

// binder binds one name of a declaration or assignment target.
type binder func(name string, value JSValue) error

// bindPattern destructures value into target: an identifier, an array or
// object pattern, or (in assignments) a property reference.
func (vm *VM) bindPattern(target ast.Expression, value JSValue, bind binder) error {
	switch target := target.(type) {
	case *ast.Identifier:
		return bind(target.Name, value)

	case *ast.ArrayLiteral:
		for i, item := range target.Value {
			if item == nil {
				continue
			}
			element, err := vm.getMember(value, strconv.Itoa(i))
			if err != nil {
				return err
			}
			if err := vm.bindPattern(item, element, bind); err != nil {
				return err
			}
		}
		return nil

	case *ast.ObjectLiteral:
		for _, prop := range target.Value {
			key := propertyKey(prop.Key)
			element, err := vm.getMember(value, key)
			if err != nil {
				return err
			}
			sub := prop.Value
			if sub == nil {
				// {x} binds x
				sub = prop.Key
			}
			if err := vm.bindPattern(sub, element, bind); err != nil {
				return err
			}
		}
		return nil

	default:
		ref, err := vm.evalRef(target)
		if err != nil {
			return err
		}
		return vm.putRef(ref, value)
	}
}

// propertyKey is the property name written by an object literal key.
func propertyKey(key ast.Expression) string {
	switch key := key.(type) {
	case *ast.Identifier:
		return key.Name
	case *ast.StringLiteral:
		return key.Value
	case *ast.NumberLiteral:
		return numberToString(key.Value)
	default:
		panic("bug: invalid property key node")
	}
}
