package phrasegen

// Syntax is a compiled grammar: a mapping from nonterminal name to the
// ProductionRule bound to it. Syntax values are immutable once returned from
// Parse; nothing in this package mutates one after compilation.
type Syntax struct {
	rules map[string]*ProductionRule

	// order preserves declaration order so error messages and any future
	// serialization are reproducible instead of depending on map iteration.
	order []string
}

func newSyntax() *Syntax {
	return &Syntax{rules: make(map[string]*ProductionRule)}
}

// Rule returns the ProductionRule bound to name and whether it was found.
func (s *Syntax) Rule(name string) (*ProductionRule, bool) {
	r, ok := s.rules[name]
	return r, ok
}

// Names returns the nonterminal names defined in the Syntax, in the order
// they were declared in source.
func (s *Syntax) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Syntax) set(name string, rule *ProductionRule) {
	if _, exists := s.rules[name]; !exists {
		s.order = append(s.order, name)
	}
	s.rules[name] = rule
}

// ProductionRule is an ordered list of Alternatives, plus gsubs applied
// after whichever alternative is selected during expansion.
type ProductionRule struct {
	Alternatives []*Alternative
	Gsubs        []Gsub
}

// Alternative is one choice within a ProductionRule: a sequence of TextParts
// plus the metadata that governs its selection weight and post-processing.
type Alternative struct {
	Parts []TextPart

	// HasWeight is true when an explicit ":<number>" weight was given in
	// source. Weight is only meaningful when HasWeight is true.
	HasWeight bool
	Weight    float64

	// Equalize is set when the alternative was introduced with "|=" rather
	// than "|". It requests that this alternative's effective weight be
	// normalized against its most prolific sibling rather than computed
	// from its own combinatorial size.
	Equalize bool

	Gsubs []Gsub
}

// TextPartKind discriminates the variants of TextPart.
type TextPartKind int

const (
	// PartLiteral holds literal UTF-8 text copied verbatim into the output.
	PartLiteral TextPartKind = iota

	// PartExpansion holds the name of a nonterminal (or external context
	// key) to substitute recursively.
	PartExpansion

	// PartAnonRule holds an inline production rule introduced with
	// "{= ... }"; it is expanded the same way a named rule would be, but
	// has no name of its own in the Syntax.
	PartAnonRule
)

// TextPart is one element of an Alternative's option sequence: a tagged
// variant of literal text, a named expansion reference, or an inline
// anonymous rule. Exactly one of the fields is meaningful, selected by Kind.
type TextPart struct {
	Kind TextPartKind

	Literal string

	Name string

	Anon *ProductionRule
}

// Gsub is a single textual substitution applied to a fully-expanded option.
// Pattern was compiled once, at parse time, by whichever Matcher backend
// the parser was configured with; Compiled is never nil on a Gsub returned
// from Parse.
type Gsub struct {
	Pattern     string
	Replacement string
	Global      bool

	Compiled CompiledPattern
}

// ExternalContext maps nonterminal names to precomputed strings supplied by
// the caller at generate time. A name present here shadows the Syntax: its
// value is substituted verbatim, with no further expansion, though the
// enclosing alternative's and rule's gsubs still apply to the surrounding
// option text.
type ExternalContext map[string]string
