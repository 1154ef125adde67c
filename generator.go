package phrasegen

import "strings"

// generatorState models the lifecycle in the design notes: Empty ->
// Configured (syntaxes added) -> Bound (start resolved, weights computed)
// -> Generating (repeatable) -> Modified (back to Configured). Generating
// isn't tracked as a distinct value here since it has no observable
// difference from Bound between calls; Generate() re-enters Bound
// implicitly whenever needed, same as the notes describe.
type generatorState int

const (
	stateEmpty generatorState = iota
	stateConfigured
	stateBound
)

// DefaultStart is the nonterminal name generate() resolves when the caller
// doesn't ask for a specific one.
const DefaultStart = "main"

type scopedSyntax struct {
	scope string
	syn   *Syntax
}

// Generator assembles one or more compiled Syntaxes under a chosen start
// symbol and exposes sampling, weighting, and combinatorial introspection
// over the combined grammar. A Generator is not safe for concurrent use:
// Generate mutates its RNG and weight cache.
type Generator struct {
	scopes []scopedSyntax

	equalizeChance bool
	maxDepth       int
	rng            Uniform

	state generatorState
	wm    *weightModel
}

// GeneratorOption configures a Generator at construction time.
type GeneratorOption func(*Generator)

// WithRNG supplies the Uniform source Generate draws on. Without this
// option, a Generator uses NewDefaultRNG seeded from the current time at
// first use.
func WithRNG(rng Uniform) GeneratorOption {
	return func(g *Generator) { g.rng = rng }
}

// WithMaxDepth overrides DefaultMaxDepth for recursion-depth checking
// during expansion.
func WithMaxDepth(depth int) GeneratorOption {
	return func(g *Generator) { g.maxDepth = depth }
}

// NewGenerator returns an empty Generator ready to have Syntaxes Add-ed to
// it. EqualizeChance defaults to true, matching the "uniform by default"
// guarantee the weight model is built around.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		equalizeChance: true,
		maxDepth:       DefaultMaxDepth,
		state:          stateEmpty,
	}
	for _, o := range opts {
		o(g)
	}
	if g.rng == nil {
		g.rng = NewDefaultRNG(1)
	}
	return g
}

// Add merges syn into the Generator under scope. An empty scope merges
// names directly into the default namespace. On a name clash between two
// added Syntaxes -- regardless of their scopes -- the most recently Add-ed
// one wins when a bare (unscoped) name is looked up; a caller can still
// reach a shadowed definition by prefixing the lookup with "scope.".
// Add invalidates any cached weight model, moving the Generator back to
// Configured.
func (g *Generator) Add(scope string, syn *Syntax) {
	g.scopes = append(g.scopes, scopedSyntax{scope: scope, syn: syn})
	g.invalidate()
}

// Remove drops every Syntax previously Add-ed under scope. It invalidates
// the cached weight model the same way Add does.
func (g *Generator) Remove(scope string) {
	kept := g.scopes[:0]
	for _, s := range g.scopes {
		if s.scope != scope {
			kept = append(kept, s)
		}
	}
	g.scopes = kept
	g.invalidate()
}

// EqualizeChance turns the default equalization behavior on or off. When
// disabled, every alternative without an explicit weight or "|=" marker
// gets a flat weight of 1 regardless of how many distinct outputs it can
// produce; explicit "|=" markers are honored either way. Changing this
// invalidates the cached weight model.
func (g *Generator) EqualizeChance(enabled bool) {
	g.equalizeChance = enabled
	g.invalidate()
}

func (g *Generator) invalidate() {
	if g.state == stateBound {
		g.state = stateConfigured
	} else if g.state == stateEmpty && len(g.scopes) > 0 {
		g.state = stateConfigured
	}
	g.wm = nil
}

// Rule implements ruleSource by searching Add-ed Syntaxes from most to
// least recently added, so later Adds shadow earlier ones on a name clash.
// A name of the form "scope.local" is resolved only against the Syntax(es)
// registered under that scope.
func (g *Generator) Rule(name string) (*ProductionRule, bool) {
	if scope, local, ok := splitScoped(name); ok {
		for i := len(g.scopes) - 1; i >= 0; i-- {
			if g.scopes[i].scope != scope {
				continue
			}
			if r, ok := g.scopes[i].syn.Rule(local); ok {
				return r, true
			}
		}
		return nil, false
	}
	for i := len(g.scopes) - 1; i >= 0; i-- {
		if r, ok := g.scopes[i].syn.Rule(name); ok {
			return r, true
		}
	}
	return nil, false
}

func splitScoped(name string) (scope, local string, ok bool) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}

// visibleNames returns every bare name resolvable via Rule, most-recent-add
// wins, in a stable order (later Adds first) suitable for cycle detection.
func (g *Generator) visibleNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for i := len(g.scopes) - 1; i >= 0; i-- {
		for _, n := range g.scopes[i].syn.Names() {
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			names = append(names, n)
		}
	}
	return names
}

// bind computes the reference graph, rejects cycles, and (re)builds the
// weight model, transitioning the Generator to Bound. It's a no-op once
// already Bound.
func (g *Generator) bind() error {
	if g.state == stateBound && g.wm != nil {
		return nil
	}
	names := g.visibleNames()
	graph := buildRefGraph(g, names)
	if cyclic, found := detectCycle(graph); found {
		return newErr(KindCyclicReference, cyclic, "reference graph contains a cycle")
	}
	g.wm = newWeightModel(g, g.equalizeChance)
	g.state = stateBound
	return nil
}

// Generate resolves start (DefaultStart if empty) and produces one random
// sample from the language it defines, substituting any name present in
// ctx verbatim in place of further expansion. It implicitly Binds the
// Generator if needed.
func (g *Generator) Generate(start string, ctx ExternalContext) (string, error) {
	if start == "" {
		start = DefaultStart
	}
	if err := g.bind(); err != nil {
		return "", err
	}
	if _, ok := g.Rule(start); !ok {
		if _, inCtx := ctx[start]; !inCtx {
			return "", newErr(KindUnknownStart, start, "start symbol is not defined")
		}
	}

	g.wm.ctx = ctx
	defer func() { g.wm.ctx = nil }()

	exp := &expander{
		syn:      g,
		wm:       g.wm,
		ctx:      ctx,
		rng:      g.rng,
		maxDepth: g.maxDepth,
	}
	return exp.expand(start, 0)
}

// Combinations returns the number of distinct strings Generate could
// produce from start, saturating (and reporting approximate=true) once the
// true count would exceed what a uint64 can hold.
func (g *Generator) Combinations(start string) (count uint64, approximate bool, err error) {
	if start == "" {
		start = DefaultStart
	}
	if err := g.bind(); err != nil {
		return 0, false, err
	}
	c, err := g.wm.leafCount(start)
	if err != nil {
		return 0, false, err
	}
	if !c.Count.IsUint64() {
		return ^uint64(0), true, nil
	}
	return c.Count.Uint64(), c.Approximate, nil
}

// Weight returns the effective weight of start's rule -- the same quantity
// the weighted selector uses internally to choose among its alternatives.
func (g *Generator) Weight(start string) (float64, error) {
	if start == "" {
		start = DefaultStart
	}
	if err := g.bind(); err != nil {
		return 0, err
	}
	return g.wm.weight(start)
}
