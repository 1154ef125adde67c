package phrasegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// fixedRNG always selects a specific index from selectWeighted by returning
// zero below any n, and zero for NextUnit. It's enough to make Generate
// deterministic for alternatives-selection tests without needing a full
// weighted distribution.
type fixedRNG struct {
	below uint64
	unit  float64
}

func (f fixedRNG) NextBelow(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	return f.below % n
}

func (f fixedRNG) NextUnit() float64 {
	return f.unit
}

func Test_Generator_Generate_literalOnly(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("main = hello world")
	assert.NoError(err)

	g := NewGenerator()
	g.Add("", syn)

	out, err := g.Generate("main", nil)
	assert.NoError(err)
	assert.Equal("hello world", out)
}

func Test_Generator_Generate_expansionReference(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("main = {greeting}, world\ngreeting = hello")
	assert.NoError(err)

	g := NewGenerator()
	g.Add("", syn)

	out, err := g.Generate("main", nil)
	assert.NoError(err)
	assert.Equal("hello, world", out)
}

func Test_Generator_Generate_externalContextShadowsRule(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("main = hello {name}\nname = somebody")
	assert.NoError(err)

	g := NewGenerator()
	g.Add("", syn)

	out, err := g.Generate("main", ExternalContext{"name": "Dave"})
	assert.NoError(err)
	assert.Equal("hello Dave", out)
}

func Test_Generator_Generate_externalContextCoversUndeclaredName(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("main = You are {ECONOMICAL_SITUATION}.")
	assert.NoError(err)

	g := NewGenerator()
	g.Add("", syn)

	out, err := g.Generate("main", ExternalContext{"ECONOMICAL_SITUATION": "poor"})
	assert.NoError(err)
	assert.Equal("You are poor.", out)
}

func Test_Generator_Generate_externalContextAsStartSymbol(t *testing.T) {
	assert := assert.New(t)
	g := NewGenerator()
	g.Add("", newSyntax())

	out, err := g.Generate("greeting", ExternalContext{"greeting": "hi"})
	assert.NoError(err)
	assert.Equal("hi", out)
}

func Test_Generator_Generate_gsubAppliedAfterExpansion(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("main = hello world ~/world/there/", WithLiteralGsubs())
	assert.NoError(err)

	g := NewGenerator()
	g.Add("", syn)

	out, err := g.Generate("main", nil)
	assert.NoError(err)
	assert.Equal("hello there", out)
}

func Test_Generator_Generate_weightedChoicePicksSelectedIndex(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("coin = heads:1 | tails:9")
	assert.NoError(err)

	g := NewGenerator(WithRNG(fixedRNG{below: 5}))
	g.Add("", syn)

	out, err := g.Generate("coin", nil)
	assert.NoError(err)
	// total weight 10, target = 5 below 10 lands in the "tails" bucket
	// (index 0 spans [0,1), index 1 spans [1,10)).
	assert.Equal("tails", out)
}

func Test_Generator_Generate_anonymousRuleExpands(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("main = {= only }")
	assert.NoError(err)

	g := NewGenerator()
	g.Add("", syn)

	out, err := g.Generate("main", nil)
	assert.NoError(err)
	assert.Equal(" only ", out)
}

func Test_Generator_Generate_unknownReferenceErrors(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("main = {missing}")
	assert.NoError(err)

	g := NewGenerator()
	g.Add("", syn)

	_, err = g.Generate("main", nil)
	assert.Error(err)
	perr, ok := err.(Error)
	assert.True(ok)
	assert.Equal(KindUnknownReference, perr.Kind)
}

func Test_Generator_Generate_cyclicReferenceErrors(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("a = {b}\nb = {a}")
	assert.NoError(err)

	g := NewGenerator()
	g.Add("", syn)

	_, err = g.Generate("a", nil)
	assert.Error(err)
	perr, ok := err.(Error)
	assert.True(ok)
	assert.Equal(KindCyclicReference, perr.Kind)
}

func Test_Generator_Generate_depthExceededErrors(t *testing.T) {
	assert := assert.New(t)
	// not cyclic by the reference graph's definition (an anonymous rule's
	// dependencies are attributed to its enclosing named rule), but since
	// "wrap" alternates between referencing itself through no named cycle,
	// use a long but finite chain with a very small max depth instead.
	syn, err := Parse("a = {b}\nb = {c}\nc = leaf")
	assert.NoError(err)

	g := NewGenerator(WithMaxDepth(1))
	g.Add("", syn)

	_, err = g.Generate("a", nil)
	assert.Error(err)
	perr, ok := err.(Error)
	assert.True(ok)
	assert.Equal(KindDepthExceeded, perr.Kind)
}

func Test_Generator_Generate_unknownStartErrors(t *testing.T) {
	assert := assert.New(t)
	g := NewGenerator()
	g.Add("", newSyntax())

	_, err := g.Generate("nope", nil)
	assert.Error(err)
	perr, ok := err.(Error)
	assert.True(ok)
	assert.Equal(KindUnknownStart, perr.Kind)
}

func Test_Generator_Generate_defaultStartIsMain(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("main = hello")
	assert.NoError(err)

	g := NewGenerator()
	g.Add("", syn)

	out, err := g.Generate("", nil)
	assert.NoError(err)
	assert.Equal("hello", out)
}

func Test_Generator_Add_laterScopeShadowsEarlier(t *testing.T) {
	assert := assert.New(t)
	base, err := Parse("greeting = hello")
	assert.NoError(err)
	override, err := Parse("greeting = howdy")
	assert.NoError(err)

	g := NewGenerator()
	g.Add("base", base)
	g.Add("override", override)

	out, err := g.Generate("greeting", nil)
	assert.NoError(err)
	assert.Equal("howdy", out)
}

func Test_Generator_Add_scopedLookupReachesShadowedDefinition(t *testing.T) {
	assert := assert.New(t)
	base, err := Parse("greeting = hello")
	assert.NoError(err)
	override, err := Parse("greeting = howdy")
	assert.NoError(err)

	g := NewGenerator()
	g.Add("base", base)
	g.Add("override", override)

	out, err := g.Generate("base.greeting", nil)
	assert.NoError(err)
	assert.Equal("hello", out)
}

func Test_Generator_Remove_dropsScope(t *testing.T) {
	assert := assert.New(t)
	base, err := Parse("greeting = hello")
	assert.NoError(err)

	g := NewGenerator()
	g.Add("base", base)
	g.Remove("base")

	_, err = g.Generate("greeting", nil)
	assert.Error(err)
}

func Test_Generator_Combinations(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("pick = {a}{b}\na = x | y | z\nb = 1 | 2")
	assert.NoError(err)

	g := NewGenerator()
	g.Add("", syn)

	count, approx, err := g.Combinations("pick")
	assert.NoError(err)
	assert.Equal(uint64(6), count)
	assert.False(approx)
}

func Test_Generator_Weight(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("coin = heads:3 | tails:1")
	assert.NoError(err)

	g := NewGenerator()
	g.Add("", syn)

	w, err := g.Weight("coin")
	assert.NoError(err)
	assert.Equal(4.0, w)
}

func Test_Generator_EqualizeChance_invalidatesWeights(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("pick = {wide} | narrow\nwide = a | b | c | d")
	assert.NoError(err)

	g := NewGenerator()
	g.Add("", syn)

	withEqualize, err := g.Weight("pick")
	assert.NoError(err)

	g.EqualizeChance(false)
	withoutEqualize, err := g.Weight("pick")
	assert.NoError(err)

	assert.NotEqual(withEqualize, withoutEqualize)
}
