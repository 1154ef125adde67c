package phrasegen

import "strings"

// DefaultMaxDepth is the recursion limit expand uses when a Generator
// hasn't been given an explicit one via WithMaxDepth.
const DefaultMaxDepth = 100

// expander holds everything one call to Generate needs to thread through
// the recursive expansion: the compiled Syntax, the weight model used to
// pick among alternatives, the caller's ExternalContext, and the
// randomness source. It carries no state across calls.
type expander struct {
	syn      ruleSource
	wm       *weightModel
	ctx      ExternalContext
	rng      Uniform
	maxDepth int
}

// expand resolves name against the external context first, then the
// Syntax, recursively assembling and gsub-processing text per the pipeline
// described in the design notes.
func (e *expander) expand(name string, depth int) (string, error) {
	if v, ok := e.ctx[name]; ok {
		return v, nil
	}
	if depth > e.maxDepth {
		return "", newErr(KindDepthExceeded, name, "expansion recursed past the configured limit of %d", e.maxDepth)
	}
	rule, ok := e.syn.Rule(name)
	if !ok {
		return "", newErr(KindUnknownReference, name, "not defined in the syntax or the external context")
	}
	return e.expandRule(rule, depth)
}

// expandRule selects one of rule's alternatives by weighted random choice
// and expands it, then applies the rule's own gsubs to the result.
func (e *expander) expandRule(rule *ProductionRule, depth int) (string, error) {
	if len(rule.Alternatives) == 0 {
		return "", newErr(KindParseError, "", "rule has no alternatives")
	}

	weights, err := e.wm.altWeights(rule)
	if err != nil {
		return "", err
	}

	idx := selectWeighted(e.rng, weights)
	alt := rule.Alternatives[idx]

	s, err := e.expandAlternative(alt, depth)
	if err != nil {
		return "", err
	}

	s, err = applyGsubs(s, rule.Gsubs)
	if err != nil {
		return "", err
	}
	return s, nil
}

// expandAlternative concatenates the expansions of alt's parts and applies
// the alternative's own gsubs, in that order, before the caller applies any
// rule-level gsubs.
func (e *expander) expandAlternative(alt *Alternative, depth int) (string, error) {
	var sb strings.Builder
	for _, part := range alt.Parts {
		switch part.Kind {
		case PartLiteral:
			sb.WriteString(part.Literal)
		case PartExpansion:
			s, err := e.expand(part.Name, depth+1)
			if err != nil {
				return "", err
			}
			sb.WriteString(s)
		case PartAnonRule:
			s, err := e.expandRule(part.Anon, depth+1)
			if err != nil {
				return "", err
			}
			sb.WriteString(s)
		}
	}

	s, err := applyGsubs(sb.String(), alt.Gsubs)
	if err != nil {
		return "", err
	}
	return s, nil
}
