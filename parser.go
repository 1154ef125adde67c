package phrasegen

import (
	"strconv"
	"strings"
)

// parseConfig holds the options governing one call to Parse.
type parseConfig struct {
	matcher Matcher
}

// ParseOption configures a call to Parse.
type ParseOption func(*parseConfig)

// WithMatcher selects the Matcher backend used to compile gsub patterns. The
// default, when no WithMatcher/WithLiteralGsubs option is given, is
// RegexMatcher{}.
func WithMatcher(m Matcher) ParseOption {
	return func(c *parseConfig) { c.matcher = m }
}

// WithLiteralGsubs disables the regex backend, so every gsub pattern is
// matched as raw text. Use this when source grammars are untrusted and a
// full regex engine is an unwanted attack surface.
func WithLiteralGsubs() ParseOption {
	return WithMatcher(LiteralMatcher{})
}

// Parse compiles phrase-syntax source text into a Syntax. On the first
// malformed construct it stops and returns a ParseError; no partial Syntax
// is ever returned alongside an error.
func Parse(src string, opts ...ParseOption) (*Syntax, error) {
	cfg := parseConfig{matcher: RegexMatcher{}}
	for _, o := range opts {
		o(&cfg)
	}

	p := &parser{sc: newScanner(src), cfg: cfg}
	return p.parseFile()
}

type parser struct {
	sc  *scanner
	cfg parseConfig
}

func (p *parser) parseFile() (*Syntax, error) {
	syn := newSyntax()

	for {
		if err := p.skipBetweenAssignments(); err != nil {
			return nil, err
		}
		if p.sc.eof() {
			break
		}
		if err := p.parseAssignment(syn); err != nil {
			return nil, err
		}
	}

	return syn, nil
}

// skipBetweenAssignments elides whitespace, comments, and stray empty-line
// or ';' separators between one assignment and the next.
func (p *parser) skipBetweenAssignments() error {
	for {
		if err := p.sc.skipInsignificantWhitespace(); err != nil {
			return err
		}
		if !p.sc.eof() && p.sc.peek() == ';' {
			p.sc.next()
			continue
		}
		return nil
	}
}

func (p *parser) parseAssignment(syn *Syntax) error {
	line, col := p.sc.at()
	if p.sc.eof() || !isIdentStart(p.sc.peek()) {
		r := rune(0)
		if !p.sc.eof() {
			r = p.sc.peek()
		}
		return newParseErr(line, col, ErrUnexpectedToken, "expected identifier to begin assignment, found %q", r)
	}
	name := p.sc.scanIdentifier()

	if err := p.sc.skipLineBlank(); err != nil {
		return err
	}
	if p.sc.eof() || p.sc.peek() != '=' {
		l, c := p.sc.at()
		return newParseErr(l, c, ErrUnexpectedToken, "expected '=' after name %q", name)
	}
	p.sc.next() // consume '='

	if err := p.sc.skipLineBlank(); err != nil {
		return err
	}

	if _, exists := syn.Rule(name); exists {
		return newParseErr(line, col, ErrDuplicateAssignment, "nonterminal %q is already defined", name)
	}

	rule, err := p.parseProductionRule(false)
	if err != nil {
		return err
	}
	syn.set(name, rule)

	if !p.sc.eof() {
		switch p.sc.peek() {
		case '\n', ';':
			p.sc.next()
		default:
			l, c := p.sc.at()
			return newParseErr(l, c, ErrUnexpectedToken, "expected end of assignment, found %q", p.sc.peek())
		}
	}
	return nil
}

// parseProductionRule parses "alternative { ('|'|'|=') alternative } [
// rule_gsubs ]". When inAnon is true, it is being parsed as the body of an
// inline "{= ... }" TextPart and alternatives may span physical lines;
// otherwise it is a top-level rule body confined to one logical line (one
// that may itself span physical lines only via an explicit "\"-newline
// continuation).
func (p *parser) parseProductionRule(inAnon bool) (*ProductionRule, error) {
	startLine, startCol := p.sc.at()
	rule := &ProductionRule{}

	equalizeNext := false
	for {
		alt, err := p.parseAlternative(inAnon, equalizeNext)
		if err != nil {
			return nil, err
		}
		rule.Alternatives = append(rule.Alternatives, alt)
		equalizeNext = false

		if err := p.skipBetweenTokens(inAnon); err != nil {
			return nil, err
		}

		if !p.sc.eof() && p.sc.peek() == '|' {
			p.sc.next()
			if !p.sc.eof() && p.sc.peek() == '=' {
				p.sc.next()
				equalizeNext = true
			}
			if err := p.skipBetweenTokens(inAnon); err != nil {
				return nil, err
			}
			continue
		}
		break
	}

	for !p.sc.eof() && p.sc.peek() == '~' {
		g, err := p.parseGsub()
		if err != nil {
			return nil, err
		}
		rule.Gsubs = append(rule.Gsubs, g)
		if err := p.skipBetweenTokens(inAnon); err != nil {
			return nil, err
		}
	}

	if len(rule.Alternatives) == 1 {
		only := rule.Alternatives[0]
		if len(only.Parts) == 0 && !only.HasWeight && len(only.Gsubs) == 0 {
			return nil, newParseErr(startLine, startCol, ErrEmptyRule, "rule has no alternatives")
		}
	}

	return rule, nil
}

func (p *parser) skipBetweenTokens(inAnon bool) error {
	if inAnon {
		return p.sc.skipInsignificantWhitespace()
	}
	return p.sc.skipLineBlank()
}

// parseAlternative parses "option_sequence { '~' gsub } [ ':' number ]".
func (p *parser) parseAlternative(inAnon bool, equalize bool) (*Alternative, error) {
	parts, err := p.parseOptionSequence(inAnon)
	if err != nil {
		return nil, err
	}

	alt := &Alternative{Parts: parts, Equalize: equalize}

	for !p.sc.eof() && p.sc.peek() == '~' {
		g, err := p.parseGsub()
		if err != nil {
			return nil, err
		}
		alt.Gsubs = append(alt.Gsubs, g)
	}

	if !p.sc.eof() && p.sc.peek() == ':' {
		line, col := p.sc.at()
		p.sc.next()
		for !p.sc.eof() && (p.sc.peek() == ' ' || p.sc.peek() == '\t') {
			p.sc.next()
		}
		if p.sc.eof() || p.sc.peek() < '0' || p.sc.peek() > '9' {
			return nil, newParseErr(line, col, ErrBadWeight, "expected a number after ':'")
		}
		numStr := p.sc.scanNumber()
		w, perr := strconv.ParseFloat(numStr, 64)
		if perr != nil || w < 0 {
			return nil, newParseErr(line, col, ErrBadWeight, "invalid weight %q", numStr)
		}
		alt.HasWeight = true
		alt.Weight = w
	}

	return alt, nil
}

// parseOptionSequence parses "{ text_part }", stopping (without consuming)
// at whatever terminator applies given inAnon: '|', '~', ':<weight>', EOF,
// the closing '}' of an inline rule, or (outside an inline rule) ';' or an
// unescaped newline.
func (p *parser) parseOptionSequence(inAnon bool) ([]TextPart, error) {
	var parts []TextPart

	for {
		lit, err := p.scanLiteralRun(inAnon)
		if err != nil {
			return nil, err
		}
		if lit != "" {
			parts = append(parts, TextPart{Kind: PartLiteral, Literal: lit})
		}

		if p.sc.eof() {
			return parts, nil
		}
		if p.sc.peek() == '{' {
			tp, err := p.parseBraceConstruct(inAnon)
			if err != nil {
				return nil, err
			}
			parts = append(parts, tp)
			continue
		}
		return parts, nil
	}
}

// scanLiteralRun reads literal text up to the next unescaped terminator
// without consuming it. "\X" yields a literal X for any X, except "\<LF>"
// which is a line continuation consumed silently.
func (p *parser) scanLiteralRun(inAnon bool) (string, error) {
	sc := p.sc
	var sb strings.Builder

	for {
		if sc.eof() {
			return sb.String(), nil
		}
		r := sc.peek()
		switch {
		case r == '\\':
			if sc.peekAt(1) == '\n' {
				sc.next()
				sc.next()
				continue
			}
			sc.next()
			if sc.eof() {
				l, c := sc.at()
				return "", newParseErr(l, c, ErrUnterminatedLiteral, "dangling escape character at end of input")
			}
			sb.WriteRune(sc.next())
		case r == '{' || r == '|' || r == '~' || r == '\n':
			return sb.String(), nil
		case r == '}' && inAnon:
			return sb.String(), nil
		case r == ';' && !inAnon:
			return sb.String(), nil
		case r == ':' && weightFollows(sc, inAnon):
			return sb.String(), nil
		default:
			sb.WriteRune(sc.next())
		}
	}
}

// weightFollows looks ahead from a ':' to decide whether it begins an
// explicit weight (":" digits, then only whitespace before the alternative
// truly ends) rather than a literal colon embedded in running text. This is
// the one place the grammar requires lookahead beyond a single rune: plain
// text like "arrival: 5:00pm" never stops at a colon, but "a:1" does.
func weightFollows(sc *scanner, inAnon bool) bool {
	snap := sc.snapshot()
	defer sc.restore(snap)

	sc.next() // ':'
	for sc.peek() == ' ' || sc.peek() == '\t' {
		sc.next()
	}
	if sc.peek() < '0' || sc.peek() > '9' {
		return false
	}
	sc.scanNumber()
	for sc.peek() == ' ' || sc.peek() == '\t' {
		sc.next()
	}
	if sc.eof() {
		return true
	}
	switch sc.peek() {
	case '\n', '|', '~':
		return true
	case '}':
		return inAnon
	case ';':
		return !inAnon
	default:
		return false
	}
}

// parseBraceConstruct parses a TextPart that begins with '{': either a
// named expansion "{ name }" or an inline anonymous rule "{= ... }".
func (p *parser) parseBraceConstruct(inAnon bool) (TextPart, error) {
	line, col := p.sc.at()
	p.sc.next() // '{'

	if !p.sc.eof() && p.sc.peek() == '=' {
		p.sc.next() // '='
		rule, err := p.parseProductionRule(true)
		if err != nil {
			return TextPart{}, err
		}
		if err := p.sc.skipInsignificantWhitespace(); err != nil {
			return TextPart{}, err
		}
		if p.sc.eof() || p.sc.peek() != '}' {
			l, c := p.sc.at()
			return TextPart{}, newParseErr(l, c, ErrUnexpectedToken, "expected '}' to close inline rule")
		}
		p.sc.next()
		return TextPart{Kind: PartAnonRule, Anon: rule}, nil
	}

	if err := p.sc.skipInsignificantWhitespace(); err != nil {
		return TextPart{}, err
	}
	if p.sc.eof() || !isIdentStart(p.sc.peek()) {
		return TextPart{}, newParseErr(line, col, ErrUnexpectedToken, "expected identifier or '=' after '{'")
	}
	name := p.sc.scanIdentifier()
	if err := p.sc.skipInsignificantWhitespace(); err != nil {
		return TextPart{}, err
	}
	if p.sc.eof() || p.sc.peek() != '}' {
		l, c := p.sc.at()
		return TextPart{}, newParseErr(l, c, ErrUnexpectedToken, "expected '}' to close expansion reference %q", name)
	}
	p.sc.next()
	return TextPart{Kind: PartExpansion, Name: name}, nil
}

// parseGsub parses "'~' <d> pattern <d> replacement <d> [flags]" where <d>
// is whatever rune immediately follows '~'. The scanner must be positioned
// at the '~'.
func (p *parser) parseGsub() (Gsub, error) {
	line, col := p.sc.at()
	p.sc.next() // '~'

	if p.sc.eof() {
		return Gsub{}, newParseErr(line, col, ErrUnterminatedGsub, "expected a delimiter after '~'")
	}
	delim := p.sc.next()
	if delim == '\n' {
		return Gsub{}, newParseErr(line, col, ErrUnterminatedGsub, "gsub delimiter may not be a newline")
	}

	pattern, err := p.sc.scanDelimited(delim)
	if err != nil {
		return Gsub{}, err
	}
	p.sc.next() // consume delim after pattern

	replacement, err := p.sc.scanDelimited(delim)
	if err != nil {
		return Gsub{}, err
	}
	p.sc.next() // consume delim after replacement

	var flagsb strings.Builder
	for !p.sc.eof() && isIdentCont(p.sc.peek()) {
		flagsb.WriteRune(p.sc.next())
	}
	global := strings.ContainsRune(flagsb.String(), 'g')

	compiled, cerr := p.cfg.matcher.Compile(pattern)
	if cerr != nil {
		return Gsub{}, newParseErr(line, col, ErrBadRegex, "invalid gsub pattern %q: %v", pattern, cerr)
	}

	return Gsub{Pattern: pattern, Replacement: replacement, Global: global, Compiled: compiled}, nil
}
