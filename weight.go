package phrasegen

import (
	"math/big"

	"github.com/dekarrin/phrasegen/internal/util"
)

// maxCombinations is the ceiling combinations() saturates to. Past this
// point exact leaf counts are no longer tracked; Combinations.Approximate
// is set instead of letting the count overflow silently.
var maxCombinations = new(big.Int).SetUint64(^uint64(0))

// ruleSource is anything that can resolve a nonterminal name to its
// ProductionRule: a single compiled Syntax, or a Generator's merged view
// across several scoped Syntaxes.
type ruleSource interface {
	Rule(name string) (*ProductionRule, bool)
}

// refGraph is the reference graph between named nonterminals: an edge
// name -> dep exists if name's rule can expand to something containing an
// Expansion part naming dep. It is used only to detect cycles up front, the
// same way a dependency graph between build targets is checked before any
// target is actually built.
type refGraph map[string]util.KeySet[string]

func buildRefGraph(src ruleSource, names []string) refGraph {
	g := make(refGraph, len(names))
	for _, name := range names {
		rule, ok := src.Rule(name)
		if !ok {
			continue
		}
		deps := util.NewKeySet[string]()
		collectRuleDeps(rule, deps)
		g[name] = deps
	}
	return g
}

func collectRuleDeps(rule *ProductionRule, out util.KeySet[string]) {
	for _, alt := range rule.Alternatives {
		for _, part := range alt.Parts {
			switch part.Kind {
			case PartExpansion:
				out.Add(part.Name)
			case PartAnonRule:
				collectRuleDeps(part.Anon, out)
			}
		}
	}
}

// detectCycle runs a Kahn's-algorithm topological sort over the reference
// graph; any nonterminal left over once no more dependency-free nodes can
// be peeled off is part of (or depends only on) a cycle.
func detectCycle(g refGraph) (cycleName string, found bool) {
	remaining := make(refGraph, len(g))
	for node, deps := range g {
		cp := util.NewKeySet[string]()
		for _, d := range deps.Elements() {
			// an edge to an undeclared name is resolved elsewhere
			// (UnknownReference); it never participates in a cycle.
			if _, declared := g[d]; declared {
				cp.Add(d)
			}
		}
		remaining[node] = cp
	}

	for len(remaining) != 0 {
		var freed []string
		for node, deps := range remaining {
			if deps.Len() == 0 {
				freed = append(freed, node)
			}
		}
		if len(freed) == 0 {
			for node := range remaining {
				return node, true
			}
		}
		for _, node := range freed {
			delete(remaining, node)
			for _, deps := range remaining {
				deps.Remove(node)
			}
		}
	}
	return "", false
}

// weightModel computes effective weights and leaf counts for a bound
// Syntax, memoizing both since a Generator reuses the same model across
// many generate() calls until the Syntax or EqualizeChance setting changes.
type weightModel struct {
	syn            ruleSource
	equalizeChance bool

	// ctx is the ExternalContext of the Generate call currently in
	// progress, if any. A name present in ctx shadows the Syntax the same
	// way expander.expand treats it, so weight/leafCount never try to
	// resolve it as a nonterminal. It is set per call and not part of the
	// memoized state below.
	ctx ExternalContext

	weightMemo map[string]float64
	countMemo  map[string]combinations
}

func newWeightModel(syn ruleSource, equalizeChance bool) *weightModel {
	return &weightModel{
		syn:            syn,
		equalizeChance: equalizeChance,
		weightMemo:     make(map[string]float64),
		countMemo:      make(map[string]combinations),
	}
}

// combinations is a saturating count of distinct outputs, per the overflow
// policy in the design notes: once the true count would exceed
// maxCombinations, Approximate is set and Count is pinned at the ceiling.
type combinations struct {
	Count       *big.Int
	Approximate bool
}

func oneCombination() combinations {
	return combinations{Count: big.NewInt(1)}
}

func (c combinations) add(o combinations) combinations {
	sum := new(big.Int).Add(c.Count, o.Count)
	return saturate(sum, c.Approximate || o.Approximate)
}

func (c combinations) mul(o combinations) combinations {
	prod := new(big.Int).Mul(c.Count, o.Count)
	return saturate(prod, c.Approximate || o.Approximate)
}

func saturate(n *big.Int, approxAlready bool) combinations {
	if n.Cmp(maxCombinations) > 0 {
		return combinations{Count: new(big.Int).Set(maxCombinations), Approximate: true}
	}
	return combinations{Count: n, Approximate: approxAlready}
}

// weight returns the effective weight of the rule bound to name, per the
// algorithm in the design notes: explicit weights are used verbatim and
// never re-equalized; "|=" alternatives take on the largest contribution
// among their non-explicit siblings; everything else is either the product
// of its parts' weights (EqualizeChance true) or a flat 1 (EqualizeChance
// false), so that by default every distinct output -- not every syntactic
// alternative -- gets an equal share of the probability mass.
func (wm *weightModel) weight(name string) (float64, error) {
	if w, ok := wm.weightMemo[name]; ok {
		return w, nil
	}
	rule, ok := wm.syn.Rule(name)
	if !ok {
		return 0, newErr(KindUnknownReference, name, "no such nonterminal")
	}
	// seed with 0 to break self-reference during computation; real cycles
	// are expected to already have been rejected by detectCycle before this
	// is ever called, so this only guards against bugs in that check.
	wm.weightMemo[name] = 0
	w, err := wm.ruleWeight(rule)
	if err != nil {
		return 0, err
	}
	wm.weightMemo[name] = w
	return w, nil
}

func (wm *weightModel) ruleWeight(rule *ProductionRule) (float64, error) {
	weights, err := wm.altWeights(rule)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	return total, nil
}

// altWeights returns the final effective weight of each of rule's
// alternatives, in order, applying the explicit-weight / equalize / default
// rules documented on weight.
func (wm *weightModel) altWeights(rule *ProductionRule) ([]float64, error) {
	base := make([]float64, len(rule.Alternatives))
	for i, alt := range rule.Alternatives {
		if alt.HasWeight {
			if alt.Weight < 0 {
				return nil, newErr(KindWeightError, "", "negative weight %v", alt.Weight)
			}
			base[i] = alt.Weight
			continue
		}
		if !wm.equalizeChance {
			base[i] = 1
			continue
		}
		w, err := wm.optionWeight(alt.Parts)
		if err != nil {
			return nil, err
		}
		base[i] = w
	}

	var maxNonExplicit float64
	haveNonExplicit := false
	for i, alt := range rule.Alternatives {
		if alt.HasWeight {
			continue
		}
		if !haveNonExplicit || base[i] > maxNonExplicit {
			maxNonExplicit = base[i]
			haveNonExplicit = true
		}
	}

	final := make([]float64, len(rule.Alternatives))
	for i, alt := range rule.Alternatives {
		switch {
		case alt.HasWeight:
			final[i] = base[i]
		case alt.Equalize:
			final[i] = maxNonExplicit
		default:
			final[i] = base[i]
		}
	}
	return final, nil
}

func (wm *weightModel) optionWeight(parts []TextPart) (float64, error) {
	w := 1.0
	for _, part := range parts {
		switch part.Kind {
		case PartLiteral:
			// contributes factor 1
		case PartExpansion:
			if _, inCtx := wm.ctx[part.Name]; inCtx {
				// shadowed by the external context; contributes factor 1,
				// same as a part that isn't part of the Syntax at all.
				continue
			}
			pw, err := wm.weight(part.Name)
			if err != nil {
				return 0, err
			}
			w *= pw
		case PartAnonRule:
			pw, err := wm.ruleWeight(part.Anon)
			if err != nil {
				return 0, err
			}
			w *= pw
		}
	}
	return w, nil
}

// leafCount returns the number of distinct strings reachable through name,
// ignoring weight skew entirely except that an alternative with an explicit
// weight of exactly 0 is unreachable and so contributes none of its leaves.
func (wm *weightModel) leafCount(name string) (combinations, error) {
	if c, ok := wm.countMemo[name]; ok {
		return c, nil
	}
	rule, ok := wm.syn.Rule(name)
	if !ok {
		return combinations{}, newErr(KindUnknownReference, name, "no such nonterminal")
	}
	wm.countMemo[name] = combinations{Count: big.NewInt(0)}
	c, err := wm.ruleLeafCount(rule)
	if err != nil {
		return combinations{}, err
	}
	wm.countMemo[name] = c
	return c, nil
}

func (wm *weightModel) ruleLeafCount(rule *ProductionRule) (combinations, error) {
	total := combinations{Count: big.NewInt(0)}
	for _, alt := range rule.Alternatives {
		if alt.HasWeight && alt.Weight == 0 {
			continue
		}
		c := oneCombination()
		for _, part := range alt.Parts {
			switch part.Kind {
			case PartExpansion:
				if _, inCtx := wm.ctx[part.Name]; inCtx {
					// shadowed by the external context; contributes exactly
					// one leaf, same as a literal.
					continue
				}
				pc, err := wm.leafCount(part.Name)
				if err != nil {
					return combinations{}, err
				}
				c = c.mul(pc)
			case PartAnonRule:
				pc, err := wm.ruleLeafCount(part.Anon)
				if err != nil {
					return combinations{}, err
				}
				c = c.mul(pc)
			}
		}
		total = total.add(c)
	}
	return total, nil
}
