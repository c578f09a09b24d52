/*package derive contains the derived-quantity graph: a registry of named
computation rules, each declaring the arrays it reads, and the resolution
logic which computes derived arrays on demand and memoizes them per view.

Resolution is pull-based. Nothing is recomputed in the background: setting a
raw array bumps its version counter, which silently invalidates every cache
entry that read it, and the entry is recomputed on its next access. If both
a raw array and a rule exist under the same name, the raw array always wins,
so user-provided data takes precedence over a derived default.*/
package derive

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Martin-Rey/pynbody/lib/kernel"
	"github.com/Martin-Rey/pynbody/lib/particles"
	"github.com/Martin-Rey/pynbody/lib/tree"
	"github.com/Martin-Rey/pynbody/lib/units"
)

// PosName is the name of the position array, the array every spatial index
// is built over.
const PosName = "pos"

// Context is the environment a rule's Compute function runs in. Resolve
// calls made through a Context are tracked, so the raw arrays a rule
// actually reads become the cache entry's invalidation set.
type Context interface {
	// Len returns the number of rows in the view being computed over.
	Len() int
	// Resolve returns the named array under the current view, computing it
	// recursively if it is itself derived.
	Resolve(name string) (particles.Field, error)
	// Tree returns the spatial index of the current view, building it if
	// needed. Only rules registered with NeedsTree may call this.
	Tree() (*tree.Tree, error)
	// Kernel returns the kernel the view smooths with.
	Kernel() kernel.Kernel
	// Cosmology returns the conversion context of the owning snapshot.
	Cosmology() *units.Context
}

// Rule computes a named derived array from other arrays.
type Rule struct {
	// Name is the array name the rule produces.
	Name string
	// Inputs are the arrays the rule reads. They are resolved before
	// Compute runs, both to surface missing dependencies with a clear
	// error and to record them for invalidation.
	Inputs []string
	// NeedsTree marks rules whose Compute calls Context.Tree().
	NeedsTree bool
	// Compute produces the output array for the view in ctx. The result
	// must have exactly ctx.Len() rows.
	Compute func(ctx Context) (particles.Field, error)
}

// View is the surface the graph resolves against: a snapshot or subview
// which can serve raw arrays scoped to its rows and owns a Cache.
type View interface {
	// Len returns the number of rows in the view.
	Len() int
	// HasRaw returns true if a raw array exists under the name.
	HasRaw(name string) bool
	// Raw returns the raw array under the name, restricted to the view's
	// rows.
	Raw(name string) (particles.Field, error)
	// RawVersion returns the version counter of the raw array in the
	// backing store.
	RawVersion(name string) uint64
	// Cache returns the view's derived-array cache.
	Cache() *Cache
	// Tree returns the view's spatial index, building it if needed.
	Tree() (*tree.Tree, error)
	// Kernel returns the kernel the view smooths with.
	Kernel() kernel.Kernel
	// Cosmology returns the conversion context of the owning snapshot.
	Cosmology() *units.Context
}

// NoRuleError is returned when a requested name has neither a raw array nor
// a registered rule.
type NoRuleError struct {
	// Name is the name that could not be resolved.
	Name string
	// Wanted, if non-empty, is the derived quantity whose computation
	// needed Name.
	Wanted string
}

func (err *NoRuleError) Error() string {
	if err.Wanted == "" || err.Wanted == err.Name {
		return fmt.Sprintf("No raw array or derivation rule exists for "+
			"the quantity '%s'.", err.Name)
	}
	return fmt.Sprintf("Computing '%s' requires '%s', but no raw array "+
		"or derivation rule exists for it.", err.Wanted, err.Name)
}

// CycleError is returned when resolving a name revisits a name already in
// progress on the current resolution stack.
type CycleError struct {
	Stack []string
}

func (err *CycleError) Error() string {
	return fmt.Sprintf("The derivation rules form a cycle: %s. Derivation "+
		"rules must form a directed acyclic graph.",
		strings.Join(err.Stack, " -> "))
}

// Registry maps derived array names to the rules that produce them.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{rules: map[string]Rule{}}
}

// Register adds a rule, replacing any previous rule with the same name.
func (r *Registry) Register(rule Rule) error {
	if rule.Name == "" {
		return fmt.Errorf("A derivation rule must have a non-empty name.")
	} else if rule.Compute == nil {
		return fmt.Errorf("The derivation rule for '%s' has no Compute "+
			"function.", rule.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[rule.Name] = rule
	return nil
}

// Lookup returns the rule producing the given name.
func (r *Registry) Lookup(name string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[name]
	return rule, ok
}

// Names returns the names of all registered rules, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Graph resolves array names against views using a rule registry.
type Graph struct {
	reg *Registry
}

// NewGraph creates a Graph over a registry.
func NewGraph(reg *Registry) *Graph { return &Graph{reg} }

// Registry returns the graph's rule registry.
func (g *Graph) Registry() *Registry { return g.reg }

// Resolve returns the named array under the given view. Raw arrays are
// returned directly; derived arrays are served from the view's cache when
// every raw array they read is unchanged, and recomputed otherwise.
func (g *Graph) Resolve(name string, v View) (particles.Field, error) {
	st := &resolveState{g: g, v: v, inProgress: map[string]bool{}}
	f, _, err := st.resolve(name, "")
	return f, err
}

// resolveState tracks one top-level Resolve call: the names currently being
// computed on this stack (for cycle detection) and the resolution order.
type resolveState struct {
	g          *Graph
	v          View
	inProgress map[string]bool
	stack      []string
}

// resolve returns the field under name along with the versions of every raw
// array read (transitively) to produce it.
func (st *resolveState) resolve(
	name, wanted string,
) (particles.Field, map[string]uint64, error) {
	if st.inProgress[name] {
		return nil, nil, &CycleError{Stack: append(st.stack, name)}
	}

	// Raw arrays win over rules.
	if st.v.HasRaw(name) {
		f, err := st.v.Raw(name)
		if err != nil { return nil, nil, err }
		return f, map[string]uint64{name: st.v.RawVersion(name)}, nil
	}

	rule, ok := st.g.reg.Lookup(name)
	if !ok {
		return nil, nil, &NoRuleError{Name: name, Wanted: wanted}
	}

	cache := st.v.Cache()
	if f, deps, ok := cache.lookup(name, st.v); ok {
		return f, deps, nil
	}

	// At most one build per (view, name) runs at a time. Losers of the
	// race wait, then reread the cache.
	for {
		won, wait := cache.acquire(name)
		if won { break }
		<-wait
		if f, deps, ok := cache.lookup(name, st.v); ok {
			return f, deps, nil
		}
	}
	defer cache.release(name)

	st.inProgress[name] = true
	st.stack = append(st.stack, name)
	defer func() {
		delete(st.inProgress, name)
		st.stack = st.stack[:len(st.stack)-1]
	}()

	ctx := &ruleContext{st: st, name: name, deps: map[string]uint64{}}

	// Resolve the declared inputs up front so a missing dependency names
	// the quantity that needed it.
	for _, input := range rule.Inputs {
		if _, err := ctx.Resolve(input); err != nil {
			return nil, nil, err
		}
	}
	if rule.NeedsTree {
		if _, err := ctx.Tree(); err != nil {
			return nil, nil, err
		}
	}

	f, err := rule.Compute(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("computing '%s': %w", name, err)
	}
	if f.Len() != st.v.Len() {
		return nil, nil, &particles.ShapeError{
			Name: name, Got: f.Len(), Want: st.v.Len(),
		}
	}

	cache.put(name, f, ctx.deps)
	return f, ctx.deps, nil
}

// ruleContext is the Context handed to a rule's Compute function. Resolve
// calls merge the raw dependencies of every input into the entry being
// built.
type ruleContext struct {
	st   *resolveState
	name string
	deps map[string]uint64
}

func (ctx *ruleContext) Len() int { return ctx.st.v.Len() }

func (ctx *ruleContext) Resolve(name string) (particles.Field, error) {
	f, deps, err := ctx.st.resolve(name, ctx.name)
	if err != nil { return nil, err }
	for dep, version := range deps {
		ctx.deps[dep] = version
	}
	return f, nil
}

func (ctx *ruleContext) Tree() (*tree.Tree, error) {
	t, err := ctx.st.v.Tree()
	if err != nil {
		return nil, fmt.Errorf("computing '%s': %w", ctx.name, err)
	}
	// The index is a function of the positions, so a tree-using entry is
	// stale as soon as the positions change.
	ctx.deps[PosName] = ctx.st.v.RawVersion(PosName)
	return t, nil
}

func (ctx *ruleContext) Kernel() kernel.Kernel { return ctx.st.v.Kernel() }

func (ctx *ruleContext) Cosmology() *units.Context {
	return ctx.st.v.Cosmology()
}
