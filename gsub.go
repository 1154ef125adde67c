package phrasegen

import (
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// CompiledPattern is a pattern compiled once by a Matcher, ready to apply
// against arbitrary subject strings. Implementations are expected to be
// stateless and safe for reuse across many calls.
type CompiledPattern interface {
	// ReplaceFirst replaces only the first match of the pattern in subject
	// with template, returning the result.
	ReplaceFirst(subject, template string) (string, error)

	// ReplaceAll replaces every non-overlapping match of the pattern in
	// subject with template, left to right.
	ReplaceAll(subject, template string) (string, error)
}

// Matcher abstracts over the gsub pattern-matching backend. The engine ships
// two implementations, LiteralMatcher and RegexMatcher, and callers may
// supply their own via WithMatcher.
type Matcher interface {
	// Compile prepares pattern for repeated use. It is called once per Gsub
	// at parse time; any compile-time error (e.g. malformed regex) is
	// surfaced immediately as a ParseError of kind ErrBadRegex.
	Compile(pattern string) (CompiledPattern, error)
}

// LiteralMatcher treats patterns as raw UTF-8 text rather than as regular
// expressions. It is always available and requires no external library.
type LiteralMatcher struct{}

type literalPattern struct {
	pattern string
}

// Compile implements Matcher.
func (LiteralMatcher) Compile(pattern string) (CompiledPattern, error) {
	return literalPattern{pattern: pattern}, nil
}

func (lp literalPattern) ReplaceFirst(subject, template string) (string, error) {
	idx := strings.Index(subject, lp.pattern)
	if idx < 0 {
		return subject, nil
	}
	return subject[:idx] + template + subject[idx+len(lp.pattern):], nil
}

func (lp literalPattern) ReplaceAll(subject, template string) (string, error) {
	if lp.pattern == "" {
		return subject, nil
	}
	return strings.ReplaceAll(subject, lp.pattern, template), nil
}

// RegexMatcher compiles patterns with the dlclark/regexp2 engine, which
// supports .NET-flavored regular expressions including the backreference
// and lookaround constructs many translators expect from a "real" regex
// substitution step. This is the default backend used by Parse.
type RegexMatcher struct {
	// Options are passed through to regexp2.MustCompile-equivalent calls;
	// the zero value (regexp2.None) is a sensible default.
	Options regexp2.RegexOptions
}

type regexPattern struct {
	re *regexp2.Regexp
}

// Compile implements Matcher.
func (m RegexMatcher) Compile(pattern string) (CompiledPattern, error) {
	re, err := regexp2.Compile(pattern, m.Options)
	if err != nil {
		return nil, err
	}
	return regexPattern{re: re}, nil
}

func (rp regexPattern) ReplaceFirst(subject, template string) (string, error) {
	m, err := rp.re.FindStringMatch(subject)
	if err != nil {
		return "", err
	}
	if m == nil {
		return subject, nil
	}
	repl, err := expandRegexTemplate(rp.re, m, template)
	if err != nil {
		return "", err
	}
	return subject[:m.Index] + repl + subject[m.Index+m.Length:], nil
}

func (rp regexPattern) ReplaceAll(subject, template string) (string, error) {
	var sb strings.Builder
	last := 0
	m, err := rp.re.FindStringMatch(subject)
	if err != nil {
		return "", err
	}
	for m != nil {
		sb.WriteString(subject[last:m.Index])
		repl, err := expandRegexTemplate(rp.re, m, template)
		if err != nil {
			return "", err
		}
		sb.WriteString(repl)
		last = m.Index + m.Length
		if m.Length == 0 {
			// avoid an infinite loop on zero-width matches by advancing one
			// rune past the match before looking for the next one.
			if last < len(subject) {
				_, size := utf8.DecodeRuneInString(subject[last:])
				sb.WriteString(subject[last : last+size])
				last += size
			} else {
				break
			}
		}
		m, err = rp.re.FindNextMatch(m)
		if err != nil {
			return "", err
		}
	}
	sb.WriteString(subject[last:])
	return sb.String(), nil
}

// expandRegexTemplate substitutes $0-$9/${name} back-references in template
// using the given match, per regexp2's own Group semantics.
func expandRegexTemplate(re *regexp2.Regexp, m *regexp2.Match, template string) (string, error) {
	var sb strings.Builder
	runes := []rune(template)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '$' || i+1 >= len(runes) {
			sb.WriteRune(r)
			continue
		}
		next := runes[i+1]
		switch {
		case next >= '0' && next <= '9':
			j := i + 1
			for j < len(runes) && runes[j] >= '0' && runes[j] <= '9' {
				j++
			}
			idxStr := string(runes[i+1 : j])
			if g := m.GroupByNumber(atoiSafe(idxStr)); g != nil {
				sb.WriteString(g.String())
			}
			i = j - 1
		case next == '{':
			j := i + 2
			for j < len(runes) && runes[j] != '}' {
				j++
			}
			if j < len(runes) {
				name := string(runes[i+2 : j])
				if g := m.GroupByName(name); g != nil {
					sb.WriteString(g.String())
				}
				i = j
			} else {
				sb.WriteRune(r)
			}
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String(), nil
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

// applyGsubs runs each Gsub in order against subject, returning the final
// transformed string. Gsub.Global selects ReplaceAll versus ReplaceFirst.
func applyGsubs(subject string, gsubs []Gsub) (string, error) {
	cur := subject
	for _, g := range gsubs {
		var err error
		if g.Global {
			cur, err = g.Compiled.ReplaceAll(cur, g.Replacement)
		} else {
			cur, err = g.Compiled.ReplaceFirst(cur, g.Replacement)
		}
		if err != nil {
			return "", newErr(KindGsubError, "", "applying gsub /%s/%s/: %v", g.Pattern, g.Replacement, err)
		}
	}
	return cur, nil
}
