package svc

import (
	"context"
	"testing"

	"github.com/dekarrin/phrasegen/server/dao"
	"github.com/dekarrin/phrasegen/server/dao/inmem"
	"github.com/dekarrin/phrasegen/server/serr"
	"github.com/stretchr/testify/assert"
)

func newTestService() Service {
	return Service{DB: inmem.NewDatastore()}
}

func Test_Service_createUserThenLoginSucceeds(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := newTestService()

	created, err := s.CreateUser(ctx, "alice", "hunter2", dao.Normal)
	assert.NoError(err)
	assert.Equal("alice", created.Username)
	assert.Equal(dao.Normal, created.Role)

	loggedIn, err := s.Login(ctx, "alice", "hunter2")
	assert.NoError(err)
	assert.Equal(created.ID, loggedIn.ID)
	assert.False(loggedIn.LastLoginTime.IsZero())
}

func Test_Service_loginWithWrongPasswordFails(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := newTestService()

	_, err := s.CreateUser(ctx, "bob", "correct-password", dao.Normal)
	assert.NoError(err)

	_, err = s.Login(ctx, "bob", "wrong-password")
	assert.ErrorIs(err, serr.ErrBadCredentials)
}

func Test_Service_loginWithUnknownUsernameFails(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := newTestService()

	_, err := s.Login(ctx, "nobody", "whatever")
	assert.ErrorIs(err, serr.ErrBadCredentials)
}

func Test_Service_createUserRejectsDuplicateUsername(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := newTestService()

	_, err := s.CreateUser(ctx, "carol", "pw1", dao.Normal)
	assert.NoError(err)

	_, err = s.CreateUser(ctx, "carol", "pw2", dao.Normal)
	assert.ErrorIs(err, serr.ErrAlreadyExists)
}

func Test_Service_logoutInvalidatesFutureTokenValidation(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := newTestService()

	created, err := s.CreateUser(ctx, "dave", "pw", dao.Normal)
	assert.NoError(err)

	before := created.LastLogoutTime

	loggedOut, err := s.Logout(ctx, created.ID)
	assert.NoError(err)
	assert.True(loggedOut.LastLogoutTime.After(before))
}

func Test_Service_getUserParsesStringID(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := newTestService()

	created, err := s.CreateUser(ctx, "erin", "pw", dao.Normal)
	assert.NoError(err)

	found, err := s.GetUser(ctx, created.ID.String())
	assert.NoError(err)
	assert.Equal(created.Username, found.Username)

	_, err = s.GetUser(ctx, "not-a-uuid")
	assert.ErrorIs(err, serr.ErrBadArgument)
}
