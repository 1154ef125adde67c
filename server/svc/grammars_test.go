package svc

import (
	"context"
	"testing"

	"github.com/dekarrin/phrasegen/server/serr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func Test_Service_createGrammarComputesStats(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := newTestService()
	owner := uuid.New()

	g, err := s.CreateGrammar(ctx, owner, "greeting", "greeting = hello | hi | hey", "")
	assert.NoError(err)
	assert.Equal("greeting", g.Name)
	assert.Contains(g.Stats.StartSymbols, "greeting")
	assert.Equal(uint64(3), g.Stats.Combinations["greeting"])
	assert.False(g.Stats.Approximate["greeting"])
}

func Test_Service_createGrammarRejectsInvalidSource(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := newTestService()
	owner := uuid.New()

	_, err := s.CreateGrammar(ctx, owner, "broken", "not valid phrase syntax {{{", "")
	assert.ErrorIs(err, serr.ErrBadArgument)
}

func Test_Service_createGrammarRejectsDuplicateNamePerOwner(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := newTestService()
	owner := uuid.New()

	_, err := s.CreateGrammar(ctx, owner, "greeting", "greeting = hi", "")
	assert.NoError(err)

	_, err = s.CreateGrammar(ctx, owner, "greeting", "greeting = hey", "")
	assert.ErrorIs(err, serr.ErrAlreadyExists)
}

func Test_Service_updateGrammarRecomputesStats(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := newTestService()
	owner := uuid.New()

	created, err := s.CreateGrammar(ctx, owner, "greeting", "greeting = hi", "")
	assert.NoError(err)

	updated, err := s.UpdateGrammar(ctx, created.ID, "greeting", "greeting = hi | hey", "")
	assert.NoError(err)
	assert.Equal(uint64(2), updated.Stats.Combinations["greeting"])
}

func Test_Service_deleteGrammarThenGetReturnsNotFound(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := newTestService()
	owner := uuid.New()

	created, err := s.CreateGrammar(ctx, owner, "greeting", "greeting = hi", "")
	assert.NoError(err)

	_, err = s.DeleteGrammar(ctx, created.ID)
	assert.NoError(err)

	_, err = s.GetGrammar(ctx, created.ID)
	assert.ErrorIs(err, serr.ErrNotFound)
}

func Test_Service_generatePhraseProducesOneOfTheAlternatives(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := newTestService()
	owner := uuid.New()

	created, err := s.CreateGrammar(ctx, owner, "greeting", "greeting = hi | hey", "")
	assert.NoError(err)

	text, err := s.GeneratePhrase(ctx, created.ID, "greeting", nil)
	assert.NoError(err)
	assert.Contains([]string{"hi", "hey"}, text)
}

func Test_Service_listGrammarsByOwnerExcludesOthers(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := newTestService()
	owner := uuid.New()
	other := uuid.New()

	_, err := s.CreateGrammar(ctx, owner, "alpha", "alpha = a", "")
	assert.NoError(err)
	_, err = s.CreateGrammar(ctx, other, "beta", "beta = b", "")
	assert.NoError(err)

	list, err := s.ListGrammarsByOwner(ctx, owner)
	assert.NoError(err)
	assert.Len(list, 1)
	assert.Equal("alpha", list[0].Name)
}
