package svc

import (
	"context"
	"errors"

	"github.com/dekarrin/phrasegen"
	"github.com/dekarrin/phrasegen/server/dao"
	"github.com/dekarrin/phrasegen/server/serr"
	"github.com/google/uuid"
)

// parseOptsFor returns the phrasegen.ParseOption set matching a Grammar's
// stored MatcherKind. An empty or "regex" kind uses the engine default
// (RegexMatcher); "literal" forces the always-available literal backend.
func parseOptsFor(matcherKind string) []phrasegen.ParseOption {
	if matcherKind == "literal" {
		return []phrasegen.ParseOption{phrasegen.WithLiteralGsubs()}
	}
	return nil
}

// computeStats binds a fresh Generator over syn and reports combination
// counts and weights for every declared nonterminal, so a later read of the
// Grammar doesn't need to recompile it just to answer "how many distinct
// outputs does this have".
func computeStats(syn *phrasegen.Syntax) (dao.GrammarStats, error) {
	gen := phrasegen.NewGenerator()
	gen.Add("", syn)

	names := syn.Names()
	stats := dao.GrammarStats{
		StartSymbols: names,
		Combinations: make(map[string]uint64, len(names)),
		Approximate:  make(map[string]bool, len(names)),
		Weight:       make(map[string]float64, len(names)),
	}

	for _, name := range names {
		count, approx, err := gen.Combinations(name)
		if err != nil {
			return dao.GrammarStats{}, err
		}
		weight, err := gen.Weight(name)
		if err != nil {
			return dao.GrammarStats{}, err
		}
		stats.Combinations[name] = count
		stats.Approximate[name] = approx
		stats.Weight[name] = weight
	}

	return stats, nil
}

// CreateGrammar parses source, rejecting it with serr.ErrBadArgument if it
// is not valid phrase-syntax, computes its GrammarStats, and persists it
// under ownerID/name.
func (svc Service) CreateGrammar(ctx context.Context, ownerID uuid.UUID, name, source, matcherKind string) (dao.Grammar, error) {
	syn, err := phrasegen.Parse(source, parseOptsFor(matcherKind)...)
	if err != nil {
		return dao.Grammar{}, serr.New("grammar source is invalid: "+err.Error(), err, serr.ErrBadArgument)
	}

	stats, err := computeStats(syn)
	if err != nil {
		return dao.Grammar{}, serr.New("could not compute grammar statistics: "+err.Error(), err, serr.ErrBadArgument)
	}

	g := dao.Grammar{
		OwnerID:     ownerID,
		Name:        name,
		Source:      source,
		MatcherKind: matcherKind,
		Stats:       stats,
	}

	created, err := svc.DB.Grammars().Create(ctx, g)
	if err != nil {
		if errors.Is(err, dao.ErrConstraintViolation) {
			return dao.Grammar{}, serr.ErrAlreadyExists
		}
		return dao.Grammar{}, serr.WrapDB("could not create grammar", err)
	}

	return created, nil
}

// GetGrammar retrieves a grammar by ID.
func (svc Service) GetGrammar(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	g, err := svc.DB.Grammars().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Grammar{}, serr.ErrNotFound
		}
		return dao.Grammar{}, serr.WrapDB("could not retrieve grammar", err)
	}
	return g, nil
}

// ListGrammarsByOwner retrieves every grammar owned by ownerID.
func (svc Service) ListGrammarsByOwner(ctx context.Context, ownerID uuid.UUID) ([]dao.Grammar, error) {
	all, err := svc.DB.Grammars().GetAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, serr.WrapDB("could not retrieve grammars", err)
	}
	return all, nil
}

// UpdateGrammar re-parses newSource and persists it over the existing
// grammar with id, recomputing GrammarStats the same way CreateGrammar
// does.
func (svc Service) UpdateGrammar(ctx context.Context, id uuid.UUID, name, newSource, matcherKind string) (dao.Grammar, error) {
	existing, err := svc.DB.Grammars().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Grammar{}, serr.ErrNotFound
		}
		return dao.Grammar{}, serr.WrapDB("could not retrieve grammar", err)
	}

	syn, err := phrasegen.Parse(newSource, parseOptsFor(matcherKind)...)
	if err != nil {
		return dao.Grammar{}, serr.New("grammar source is invalid: "+err.Error(), err, serr.ErrBadArgument)
	}

	stats, err := computeStats(syn)
	if err != nil {
		return dao.Grammar{}, serr.New("could not compute grammar statistics: "+err.Error(), err, serr.ErrBadArgument)
	}

	existing.Name = name
	existing.Source = newSource
	existing.MatcherKind = matcherKind
	existing.Stats = stats

	updated, err := svc.DB.Grammars().Update(ctx, id, existing)
	if err != nil {
		if errors.Is(err, dao.ErrConstraintViolation) {
			return dao.Grammar{}, serr.ErrAlreadyExists
		}
		return dao.Grammar{}, serr.WrapDB("could not update grammar", err)
	}

	return updated, nil
}

// DeleteGrammar removes the grammar with the given ID.
func (svc Service) DeleteGrammar(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	deleted, err := svc.DB.Grammars().Delete(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Grammar{}, serr.ErrNotFound
		}
		return dao.Grammar{}, serr.WrapDB("could not delete grammar", err)
	}
	return deleted, nil
}

// GeneratePhrase loads the grammar with id, recompiles it, binds a fresh
// Generator (grammars are not safe to reuse across concurrent callers, so
// one is built per call), and produces one sample starting from start using
// extCtx as the external context.
func (svc Service) GeneratePhrase(ctx context.Context, id uuid.UUID, start string, extCtx phrasegen.ExternalContext) (string, error) {
	g, err := svc.GetGrammar(ctx, id)
	if err != nil {
		return "", err
	}

	syn, err := phrasegen.Parse(g.Source, parseOptsFor(g.MatcherKind)...)
	if err != nil {
		return "", serr.New("stored grammar source is invalid: "+err.Error(), err)
	}

	gen := phrasegen.NewGenerator()
	gen.Add("", syn)

	text, err := gen.Generate(start, extCtx)
	if err != nil {
		return "", serr.New("could not generate phrase: "+err.Error(), err, serr.ErrBadArgument)
	}

	return text, nil
}
