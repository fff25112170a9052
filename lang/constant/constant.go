// Package constant implements constant recipes: stack manipulations that
// reconstruct one particular runtime value from its description, such as the
// reflective Field object of a named field. Recipes are comparable values,
// two recipes are equal if they reconstruct the same value, so that a recipe
// can be cached by the generation context of a class and its value computed
// only once, in the class initializer.
package constant

import (
	"errors"
	"fmt"

	"github.com/mna/classgen/lang/asm"
	"github.com/mna/classgen/lang/descr"
	"github.com/mna/classgen/lang/stack"
)

// Recipe is a stack manipulation that pushes a value it reconstructs from
// scratch each time it is applied. Implementations must be comparable with
// == (they are used as cache keys) and immutable.
type Recipe interface {
	stack.Manipulation

	// Type returns the type of the value pushed by the recipe.
	Type() descr.Type

	// Cached returns a manipulation that pushes the same value, read from a
	// synthetic static field that is initialized once with this recipe.
	Cached() stack.Manipulation
}

// Cached is the manipulation that reads the value of a Recipe from the
// synthetic field registered for it in the generation context. Two Cached
// values are equal if and only if their recipes are equal.
type Cached struct {
	recipe Recipe
}

// Cache returns the cached variant of r.
func Cache(r Recipe) Cached {
	return Cached{recipe: r}
}

// Recipe returns the recipe that computes the cached value.
func (c Cached) Recipe() Recipe { return c.recipe }

// Apply registers the recipe with ctx, which adds the synthetic field and its
// initialization the first time, and emits the read of that field.
func (c Cached) Apply(e asm.Emitter, ctx stack.Context) stack.Size {
	field := ctx.Cache(c.recipe, c.recipe.Type())
	return stack.FieldAccess(field).Read().Apply(e, ctx)
}

func checkOwner(t descr.Type) error {
	switch {
	case t.IsZero(), t.InternalName() == "":
		return errors.New("missing declaring type")
	case t.IsPrimitive():
		return fmt.Errorf("invalid declaring type: %s", t)
	}
	return nil
}
