package phrasegen

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_detectCycle_noCycle(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("a = {b}\nb = {c}\nc = leaf")
	assert.NoError(err)
	g := buildRefGraph(syn, syn.Names())
	_, found := detectCycle(g)
	assert.False(found)
}

func Test_detectCycle_directCycle(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("a = {b}\nb = {a}")
	assert.NoError(err)
	g := buildRefGraph(syn, syn.Names())
	_, found := detectCycle(g)
	assert.True(found)
}

func Test_detectCycle_selfReference(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("a = {a}")
	assert.NoError(err)
	g := buildRefGraph(syn, syn.Names())
	_, found := detectCycle(g)
	assert.True(found)
}

func Test_detectCycle_indirectCycle(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("a = {b}\nb = {c}\nc = {a}")
	assert.NoError(err)
	g := buildRefGraph(syn, syn.Names())
	_, found := detectCycle(g)
	assert.True(found)
}

func Test_detectCycle_referenceToUndeclaredNameIsNotACycle(t *testing.T) {
	assert := assert.New(t)
	// "missing" is resolved elsewhere as KindUnknownReference at generate
	// time; it must never make detectCycle report a false cycle.
	syn, err := Parse("a = {missing}")
	assert.NoError(err)
	g := buildRefGraph(syn, syn.Names())
	_, found := detectCycle(g)
	assert.False(found)
}

func Test_weightModel_explicitWeightsUsedVerbatim(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("coin = heads:3 | tails:1")
	assert.NoError(err)
	wm := newWeightModel(syn, true)

	rule, _ := syn.Rule("coin")
	weights, err := wm.altWeights(rule)
	assert.NoError(err)
	assert.Equal([]float64{3, 1}, weights)
}

func Test_weightModel_equalizeChanceFalseGivesFlatWeights(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("pick = a b c | d")
	assert.NoError(err)
	wm := newWeightModel(syn, false)

	rule, _ := syn.Rule("pick")
	weights, err := wm.altWeights(rule)
	assert.NoError(err)
	assert.Equal([]float64{1, 1}, weights)
}

func Test_weightModel_equalizeChanceTrueWeightsByOutputCount(t *testing.T) {
	assert := assert.New(t)
	// "wide" expands to one of 4 distinct leaves; "narrow" expands to one of
	// 2. With equalize_chance on, each distinct final output should be
	// equally likely, so "wide"'s alternative gets twice the weight of
	// "narrow"'s.
	syn, err := Parse("pick = {wide} | {narrow}\nwide = a | b | c | d\nnarrow = x | y")
	assert.NoError(err)
	wm := newWeightModel(syn, true)

	rule, _ := syn.Rule("pick")
	weights, err := wm.altWeights(rule)
	assert.NoError(err)
	assert.Equal(weights[0], 4.0)
	assert.Equal(weights[1], 2.0)
}

func Test_weightModel_equalizeMarkedAlternativeBorrowsMaxNonExplicit(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("pick = {wide} |= rare\nwide = a | b | c | d")
	assert.NoError(err)
	wm := newWeightModel(syn, true)

	rule, _ := syn.Rule("pick")
	weights, err := wm.altWeights(rule)
	assert.NoError(err)
	// "wide" contributes weight 4 (its own leaf count); the "|=" alternative
	// should match that, not the flat weight "rare" would otherwise get.
	assert.Equal(4.0, weights[0])
	assert.Equal(4.0, weights[1])
}

func Test_weightModel_explicitWeightExcludedFromEqualizeMax(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("pick = common:100 | {wide} |= rare\nwide = a | b")
	assert.NoError(err)
	wm := newWeightModel(syn, true)

	rule, _ := syn.Rule("pick")
	weights, err := wm.altWeights(rule)
	assert.NoError(err)
	// the explicit weight 100 must not be what "|=" copies; it should still
	// copy "wide"'s contribution of 2.
	assert.Equal(100.0, weights[0])
	assert.Equal(2.0, weights[2])
}

func Test_weightModel_negativeExplicitWeightIsAnError(t *testing.T) {
	assert := assert.New(t)
	syn := newSyntax()
	syn.set("bad", &ProductionRule{
		Alternatives: []*Alternative{{HasWeight: true, Weight: -1}},
	})
	wm := newWeightModel(syn, true)
	_, err := wm.ruleWeight(mustRule(syn, "bad"))
	assert.Error(err)
}

func Test_weightModel_leafCount(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("pick = {a}{b}\na = x | y | z\nb = 1 | 2")
	assert.NoError(err)
	wm := newWeightModel(syn, true)

	c, err := wm.leafCount("pick")
	assert.NoError(err)
	assert.Equal(uint64(6), c.Count.Uint64())
	assert.False(c.Approximate)
}

func Test_weightModel_leafCountZeroWeightIsUnreachable(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("pick = never:0 | always")
	assert.NoError(err)
	wm := newWeightModel(syn, true)

	c, err := wm.leafCount("pick")
	assert.NoError(err)
	assert.Equal(uint64(1), c.Count.Uint64())
}

func Test_combinations_saturatesPastMaxUint64(t *testing.T) {
	assert := assert.New(t)
	one := oneCombination()
	huge := combinations{Count: new(big.Int).Set(maxCombinations)}
	result := one.add(huge)
	assert.True(result.Approximate)
	assert.Equal(maxCombinations.String(), result.Count.String())
}

func mustRule(src ruleSource, name string) *ProductionRule {
	r, _ := src.Rule(name)
	return r
}
