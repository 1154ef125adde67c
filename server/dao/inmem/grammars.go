package inmem

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dekarrin/phrasegen/server/dao"
	"github.com/google/uuid"
)

func NewGrammarsRepository() *GrammarsRepository {
	return &GrammarsRepository{
		grammars: make(map[uuid.UUID]dao.Grammar),
		byName:   make(map[string]uuid.UUID),
	}
}

type GrammarsRepository struct {
	mu       sync.RWMutex
	grammars map[uuid.UUID]dao.Grammar
	// byName is keyed on ownerID.String() + "\x00" + name.
	byName map[string]uuid.UUID
}

func nameKey(ownerID uuid.UUID, name string) string {
	return ownerID.String() + "\x00" + name
}

func (r *GrammarsRepository) Close() error {
	return nil
}

func (r *GrammarsRepository) Create(ctx context.Context, g dao.Grammar) (dao.Grammar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Grammar{}, fmt.Errorf("could not generate ID: %w", err)
	}
	g.ID = newUUID

	key := nameKey(g.OwnerID, g.Name)
	if _, ok := r.byName[key]; ok {
		return dao.Grammar{}, dao.ErrConstraintViolation
	}

	g.Created = time.Now()
	g.Modified = g.Created

	r.grammars[g.ID] = g
	r.byName[key] = g.ID

	return g, nil
}

func (r *GrammarsRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.grammars[id]
	if !ok {
		return dao.Grammar{}, dao.ErrNotFound
	}
	return g, nil
}

func (r *GrammarsRepository) GetByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (dao.Grammar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[nameKey(ownerID, name)]
	if !ok {
		return dao.Grammar{}, dao.ErrNotFound
	}
	return r.grammars[id], nil
}

func (r *GrammarsRepository) GetAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]dao.Grammar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []dao.Grammar
	for _, g := range r.grammars {
		if g.OwnerID == ownerID {
			all = append(all, g)
		}
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	})

	return all, nil
}

func (r *GrammarsRepository) Update(ctx context.Context, id uuid.UUID, g dao.Grammar) (dao.Grammar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.grammars[id]
	if !ok {
		return dao.Grammar{}, dao.ErrNotFound
	}

	newKey := nameKey(g.OwnerID, g.Name)
	oldKey := nameKey(existing.OwnerID, existing.Name)
	if newKey != oldKey {
		if _, ok := r.byName[newKey]; ok {
			return dao.Grammar{}, dao.ErrConstraintViolation
		}
	}

	g.Created = existing.Created
	g.Modified = time.Now()

	r.grammars[id] = g
	delete(r.byName, oldKey)
	r.byName[newKey] = id

	return g, nil
}

func (r *GrammarsRepository) Delete(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.grammars[id]
	if !ok {
		return dao.Grammar{}, dao.ErrNotFound
	}

	delete(r.byName, nameKey(g.OwnerID, g.Name))
	delete(r.grammars, id)

	return g, nil
}
