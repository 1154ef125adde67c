package inmem

import (
	"context"
	"testing"

	"github.com/dekarrin/phrasegen/server/dao"
	"github.com/stretchr/testify/assert"
)

func Test_UsersRepository_createAssignsIDAndRejectsDuplicateUsername(t *testing.T) {
	assert := assert.New(t)
	repo := NewUsersRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, dao.User{Username: "alice", Password: "hash"})
	assert.NoError(err)
	assert.NotEqual(created.ID.String(), "")

	_, err = repo.Create(ctx, dao.User{Username: "alice", Password: "hash2"})
	assert.ErrorIs(err, dao.ErrConstraintViolation)
}

func Test_UsersRepository_getByUsernameAndID(t *testing.T) {
	assert := assert.New(t)
	repo := NewUsersRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, dao.User{Username: "bob", Password: "hash"})
	assert.NoError(err)

	byID, err := repo.GetByID(ctx, created.ID)
	assert.NoError(err)
	assert.Equal(created.Username, byID.Username)

	byName, err := repo.GetByUsername(ctx, "bob")
	assert.NoError(err)
	assert.Equal(created.ID, byName.ID)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(err, dao.ErrNotFound)
}

func Test_UsersRepository_updateRenamesIndexEntry(t *testing.T) {
	assert := assert.New(t)
	repo := NewUsersRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, dao.User{Username: "carol", Password: "hash"})
	assert.NoError(err)

	created.Username = "carolyn"
	updated, err := repo.Update(ctx, created.ID, created)
	assert.NoError(err)
	assert.Equal("carolyn", updated.Username)

	_, err = repo.GetByUsername(ctx, "carol")
	assert.ErrorIs(err, dao.ErrNotFound)

	byNewName, err := repo.GetByUsername(ctx, "carolyn")
	assert.NoError(err)
	assert.Equal(updated.ID, byNewName.ID)
}

func Test_UsersRepository_deleteRemovesFromBothIndexes(t *testing.T) {
	assert := assert.New(t)
	repo := NewUsersRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, dao.User{Username: "dave", Password: "hash"})
	assert.NoError(err)

	_, err = repo.Delete(ctx, created.ID)
	assert.NoError(err)

	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(err, dao.ErrNotFound)
	_, err = repo.GetByUsername(ctx, "dave")
	assert.ErrorIs(err, dao.ErrNotFound)

	_, err = repo.Delete(ctx, created.ID)
	assert.ErrorIs(err, dao.ErrNotFound)
}

func Test_UsersRepository_getAllIsSortedByID(t *testing.T) {
	assert := assert.New(t)
	repo := NewUsersRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, dao.User{Username: "erin", Password: "hash"})
	assert.NoError(err)
	_, err = repo.Create(ctx, dao.User{Username: "frank", Password: "hash"})
	assert.NoError(err)

	all, err := repo.GetAll(ctx)
	assert.NoError(err)
	assert.Len(all, 2)
	assert.True(all[0].ID.String() < all[1].ID.String())
}
