// Package gen implements the generation context of a class: the per-class
// state that caches constant recipes in synthetic static fields and collects
// the class initializer code that computes them.
//
// A Context is created for one class, passed to every stack manipulation
// applied while generating that class's methods, and finalized once when the
// class is assembled. It is not safe for concurrent use.
package gen

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/dolthub/swiss"
	"github.com/mna/classgen/lang/asm"
	"github.com/mna/classgen/lang/descr"
	"github.com/mna/classgen/lang/stack"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"
)

// FieldPrefix is the prefix of the names of the synthetic fields that hold
// cached values.
const FieldPrefix = "cachedValue$"

// FieldModifiers are the modifiers of the synthetic fields that hold cached
// values.
const FieldModifiers = descr.Private | descr.Static | descr.Final | descr.Synthetic

// Entry is a cached value: the synthetic field and the recipe that computes
// the value stored in it.
type Entry struct {
	Field  descr.Field
	Recipe stack.Manipulation
}

type cacheKey struct {
	recipe stack.Manipulation
	typ    descr.Type
}

// Context is the generation context of a class.
type Context struct {
	instrumented descr.Type
	suffix       string
	log          *zap.Logger

	cache     *swiss.Map[cacheKey, int] // index in entries
	entries   []Entry                   // in order of registration
	members   map[string]bool           // names taken by declared and synthetic members
	finalized bool

	// deps collects the indexes of the entries read by the recipe being
	// initialized, nil outside of Finalize.
	deps []int
}

var _ stack.Context = (*Context)(nil)

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger that records cache registrations at debug
// level. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Context) {
		c.log = l
	}
}

// WithSuffix sets the suffix of the synthetic field names. The default is a
// hash of the name of the instrumented type.
func WithSuffix(s string) Option {
	return func(c *Context) {
		c.suffix = s
	}
}

// WithDeclaredMembers declares the names of the members of the class that
// are generated outside of the context, so that synthetic fields never take
// one of those names.
func WithDeclaredMembers(names ...string) Option {
	return func(c *Context) {
		for _, n := range names {
			c.members[n] = true
		}
	}
}

// NewContext returns the generation context of the instrumented type.
func NewContext(instrumented descr.Type, opts ...Option) *Context {
	c := &Context{
		instrumented: instrumented,
		suffix:       defaultSuffix(instrumented),
		log:          zap.NewNop(),
		cache:        swiss.NewMap[cacheKey, int](8),
		members:      make(map[string]bool),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func defaultSuffix(t descr.Type) string {
	return strconv.FormatUint(xxh3.HashString(t.InternalName())&0xffffffff, 36)
}

// Instrumented returns the type of the class being generated.
func (c *Context) Instrumented() descr.Type { return c.instrumented }

// Declare reserves the name of a member declared on the class outside of
// the context. It fails if the name is already taken by a synthetic field
// or another declared member.
func (c *Context) Declare(name string) error {
	if c.members[name] {
		return &CollisionError{Type: c.instrumented, Name: name}
	}
	c.members[name] = true
	return nil
}

// Cache returns the synthetic field that holds the value computed by recipe,
// registering it if this is the first time that recipe is cached with typ.
// The recipe must be comparable. Registration appends the recipe and the
// store to the field to the class initializer code, in order of
// registration.
//
// Cache panics with a *CollisionError if the name of the new field is
// already taken, and it panics if the recipe is not comparable or the context
// is finalized.
func (c *Context) Cache(recipe stack.Manipulation, typ descr.Type) descr.Field {
	if recipe == nil {
		panic(fmt.Sprintf("cannot cache nil recipe in context of %s", c.instrumented))
	}
	if rt := reflect.TypeOf(recipe); !rt.Comparable() {
		panic(fmt.Sprintf("cannot cache recipe of non-comparable type %s in context of %s", rt, c.instrumented))
	}

	key := cacheKey{recipe: recipe, typ: typ}
	if ix, ok := c.cache.Get(key); ok {
		c.dependsOn(ix)
		return c.entries[ix].Field
	}
	if c.finalized {
		panic(fmt.Sprintf("cannot cache %v in finalized context of %s", recipe, c.instrumented))
	}

	name := FieldPrefix + c.suffix + "$" + strconv.Itoa(len(c.entries))
	if c.members[name] {
		panic(&CollisionError{Type: c.instrumented, Name: name, Recipe: recipe})
	}
	c.members[name] = true

	field := descr.Field{
		Owner:     c.instrumented,
		Name:      name,
		Type:      typ,
		Modifiers: FieldModifiers,
	}
	c.cache.Put(key, len(c.entries))
	c.dependsOn(len(c.entries))
	c.entries = append(c.entries, Entry{Field: field, Recipe: recipe})

	if ce := c.log.Check(zap.DebugLevel, "cache constant"); ce != nil {
		ce.Write(
			zap.Stringer("class", c.instrumented),
			zap.String("field", name),
			zap.Stringer("type", typ),
			zap.String("recipe", fmt.Sprint(recipe)))
	}
	return field
}

// Len returns the number of cached values.
func (c *Context) Len() int { return len(c.entries) }

// Entries returns the cached values in order of registration.
func (c *Context) Entries() []Entry {
	entries := make([]Entry, len(c.entries))
	copy(entries, c.entries)
	return entries
}

// Finalize emits the code that initializes the synthetic fields to e and
// returns the fields to declare on the class along with the size of the
// emitted code. For each entry in order of registration, the recipe is
// applied and its value stored in the field. Recipes may read other cached
// values, registered before or while they are applied: those are
// initialized before the recipe that reads them.
//
// The emitted code must run before any other class initializer code that
// uses the cached values. The context cannot register new values once the
// call returns.
func (c *Context) Finalize(e asm.Emitter) ([]descr.Field, stack.Size) {
	if c.finalized {
		panic(fmt.Sprintf("context of %s already finalized", c.instrumented))
	}

	var size stack.Size
	states := make(map[int]initState)
	// entries may be added while initializing
	for i := 0; i < len(c.entries); i++ {
		if states[i] == pending {
			size = size.Aggregate(c.initialize(e, i, states))
		}
	}
	c.finalized = true

	fields := make([]descr.Field, len(c.entries))
	for i, entry := range c.entries {
		fields[i] = entry.Field
	}
	c.log.Debug("finalize context",
		zap.Stringer("class", c.instrumented),
		zap.Int("fields", len(fields)),
		zap.Int("max_stack", size.Maximal))
	return fields, size
}

type initState int

const (
	pending initState = iota
	initializing
	initialized
)

// initialize emits the initialization of entry i. The code of the entry is
// recorded first, and the entries it reads that are not initialized yet are
// emitted before it.
func (c *Context) initialize(e asm.Emitter, i int, states map[int]initState) stack.Size {
	entry := c.entries[i]
	states[i] = initializing

	var rec asm.Recorder
	outer := c.deps
	c.deps = make([]int, 0)
	sz := stack.Compound{
		entry.Recipe,
		stack.FieldAccess(entry.Field).Write(),
	}.Apply(&rec, c)
	deps := c.deps
	c.deps = outer

	var size stack.Size
	for _, dep := range deps {
		switch states[dep] {
		case pending:
			size = size.Aggregate(c.initialize(e, dep, states))
		case initializing:
			panic(fmt.Sprintf("cyclic initialization of %s in context of %s", c.entries[dep].Field.Name, c.instrumented))
		}
	}
	rec.Replay(e)
	states[i] = initialized
	return size.Aggregate(sz)
}

// dependsOn records that the recipe being initialized reads entry ix.
func (c *Context) dependsOn(ix int) {
	if c.deps != nil {
		c.deps = append(c.deps, ix)
	}
}

// CollisionError is the error of a synthetic field whose name is already
// taken by another member of the class. It is fatal to the generation of the
// class.
type CollisionError struct {
	Type   descr.Type
	Name   string
	Recipe stack.Manipulation // nil if the collision is detected by Declare
}

func (e *CollisionError) Error() string {
	if e.Recipe != nil {
		return fmt.Sprintf("%s: synthetic field %s for %v collides with an existing member", e.Type.InternalName(), e.Name, e.Recipe)
	}
	return fmt.Sprintf("%s: member %s is already declared", e.Type.InternalName(), e.Name)
}
