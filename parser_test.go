package phrasegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Parse_simpleAssignment(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("greeting = hello")
	assert.NoError(err)
	rule, ok := syn.Rule("greeting")
	assert.True(ok)
	assert.Len(rule.Alternatives, 1)
	assert.Equal([]TextPart{{Kind: PartLiteral, Literal: "hello"}}, rule.Alternatives[0].Parts)
}

func Test_Parse_multipleAlternatives(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("greeting = hello | hi | hey")
	assert.NoError(err)
	rule, ok := syn.Rule("greeting")
	assert.True(ok)
	assert.Len(rule.Alternatives, 3)
}

func Test_Parse_expansionReference(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("main = {greeting} world\ngreeting = hello")
	assert.NoError(err)
	rule, ok := syn.Rule("main")
	assert.True(ok)
	assert.Len(rule.Alternatives[0].Parts, 2)
	assert.Equal(PartExpansion, rule.Alternatives[0].Parts[0].Kind)
	assert.Equal("greeting", rule.Alternatives[0].Parts[0].Name)
	assert.Equal(PartLiteral, rule.Alternatives[0].Parts[1].Kind)
	assert.Equal(" world", rule.Alternatives[0].Parts[1].Literal)
}

func Test_Parse_anonymousInlineRule(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("main = {= a | b | c } end")
	assert.NoError(err)
	rule, ok := syn.Rule("main")
	assert.True(ok)
	assert.Len(rule.Alternatives[0].Parts, 2)
	anonPart := rule.Alternatives[0].Parts[0]
	assert.Equal(PartAnonRule, anonPart.Kind)
	assert.Len(anonPart.Anon.Alternatives, 3)
}

func Test_Parse_explicitWeight(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("coin = heads:1 | tails:1")
	assert.NoError(err)
	rule, ok := syn.Rule("coin")
	assert.True(ok)
	assert.True(rule.Alternatives[0].HasWeight)
	assert.Equal(1.0, rule.Alternatives[0].Weight)
}

func Test_Parse_colonInLiteralIsNotAWeight(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse(`arrival = the train arrives at 5:00pm`)
	assert.NoError(err)
	rule, ok := syn.Rule("arrival")
	assert.True(ok)
	assert.False(rule.Alternatives[0].HasWeight)
	assert.Equal("the train arrives at 5:00pm", rule.Alternatives[0].Parts[0].Literal)
}

func Test_Parse_equalizeMarkedAlternative(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("pick = common | common | rare |= rare")
	assert.NoError(err)
	rule, ok := syn.Rule("pick")
	assert.True(ok)
	assert.False(rule.Alternatives[0].Equalize)
	assert.False(rule.Alternatives[2].Equalize)
	assert.True(rule.Alternatives[3].Equalize)
}

func Test_Parse_gsubOnAlternative(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("main = hello world ~/world/there/", WithLiteralGsubs())
	assert.NoError(err)
	rule, ok := syn.Rule("main")
	assert.True(ok)
	assert.Len(rule.Alternatives[0].Gsubs, 1)
	g := rule.Alternatives[0].Gsubs[0]
	assert.Equal("world", g.Pattern)
	assert.Equal("there", g.Replacement)
	assert.False(g.Global)
}

func Test_Parse_gsubGlobalFlag(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("main = a a a ~/a/b/g", WithLiteralGsubs())
	assert.NoError(err)
	rule, _ := syn.Rule("main")
	assert.True(rule.Alternatives[0].Gsubs[0].Global)
}

func Test_Parse_gsubWithAlternateDelimiter(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("main = a/b ~#a/b#c#", WithLiteralGsubs())
	assert.NoError(err)
	rule, _ := syn.Rule("main")
	assert.Equal("a/b", rule.Alternatives[0].Gsubs[0].Pattern)
	assert.Equal("c", rule.Alternatives[0].Gsubs[0].Replacement)
}

// A trailing "~gsub" run always attaches to the alternative that precedes it
// -- the grammar's own alternative production greedily consumes gsubs before
// considering the rule closed. The only way remaining gsubs can belong to
// the rule instead is for the last alternative to have already terminated
// its own gsub list with an explicit weight, since weight always comes after
// an alternative's gsubs and nothing can extend an alternative past it.
func Test_Parse_ruleLevelGsub(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("main = a | b:1 ~/a/x/ ~/b/y/", WithLiteralGsubs())
	assert.NoError(err)
	rule, _ := syn.Rule("main")
	assert.Len(rule.Gsubs, 2)
	assert.Len(rule.Alternatives[0].Gsubs, 0)
	assert.Len(rule.Alternatives[1].Gsubs, 0)
	assert.True(rule.Alternatives[1].HasWeight)
}

func Test_Parse_commentsAreElided(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("main {* this rule starts us off *} = hello")
	assert.NoError(err)
	_, ok := syn.Rule("main")
	assert.True(ok)
}

func Test_Parse_multipleAssignments(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("a = 1\nb = 2\nc = 3")
	assert.NoError(err)
	assert.ElementsMatch([]string{"a", "b", "c"}, syn.Names())
}

func Test_Parse_errors(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expectErr ParseErrorKind
	}{
		{name: "missing equals", input: "main hello", expectErr: ErrUnexpectedToken},
		{name: "duplicate assignment", input: "main = a\nmain = b", expectErr: ErrDuplicateAssignment},
		{name: "empty rule", input: "main = ", expectErr: ErrEmptyRule},
		{name: "unterminated gsub", input: "main = a ~/x/y", expectErr: ErrUnterminatedGsub},
		{name: "unclosed expansion", input: "main = {incomplete", expectErr: ErrUnexpectedToken},
		{name: "weight overflows float64", input: "main = a:" + strings.Repeat("9", 320), expectErr: ErrBadWeight},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			_, err := Parse(tc.input)
			assert.Error(err)
			pe, ok := err.(ParseError)
			if assert.True(ok, "expected a ParseError, got %T", err) {
				assert.Equal(tc.expectErr, pe.Kind)
			}
		})
	}
}

func Test_Parse_crossLineContinuationAtTopLevel(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("main = hello \\\n    world")
	assert.NoError(err)
	rule, ok := syn.Rule("main")
	assert.True(ok)
	assert.Equal("hello     world", rule.Alternatives[0].Parts[0].Literal)
}

func Test_Parse_anonRuleSpansPhysicalLines(t *testing.T) {
	assert := assert.New(t)
	syn, err := Parse("main = {= a\n | b\n} end")
	assert.NoError(err)
	rule, ok := syn.Rule("main")
	assert.True(ok)
	assert.Equal(PartAnonRule, rule.Alternatives[0].Parts[0].Kind)
	assert.Len(rule.Alternatives[0].Parts[0].Anon.Alternatives, 2)
}
