package svc

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/dekarrin/phrasegen/server/dao"
	"github.com/dekarrin/phrasegen/server/serr"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Login verifies the provided username and password against the existing
// user in persistence and returns that user if they match.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If the credentials do not
// match a user or the password is incorrect, it will match
// serr.ErrBadCredentials. If the error occurred due to an unexpected
// problem with the DB, it will match serr.ErrDB.
func (svc Service) Login(ctx context.Context, username string, password string) (dao.User, error) {
	user, err := svc.DB.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, serr.ErrBadCredentials
		}
		return dao.User{}, serr.WrapDB("", err)
	}

	bcryptHash, err := base64.StdEncoding.DecodeString(user.Password)
	if err != nil {
		return dao.User{}, err
	}

	err = bcrypt.CompareHashAndPassword(bcryptHash, []byte(password))
	if err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return dao.User{}, serr.ErrBadCredentials
		}
		return dao.User{}, serr.WrapDB("", err)
	}

	user.LastLoginTime = time.Now()
	user, err = svc.DB.Users().Update(ctx, user.ID, user)
	if err != nil {
		return dao.User{}, serr.WrapDB("cannot update user login time", err)
	}

	return user, nil
}

// Logout marks the user with the given ID as having logged out, invalidating
// any login that may be active. Returns the user entity that was logged out.
func (svc Service) Logout(ctx context.Context, who uuid.UUID) (dao.User, error) {
	existing, err := svc.DB.Users().GetByID(ctx, who)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, serr.ErrNotFound
		}
		return dao.User{}, serr.WrapDB("could not retrieve user", err)
	}

	existing.LastLogoutTime = time.Now()

	updated, err := svc.DB.Users().Update(ctx, existing.ID, existing)
	if err != nil {
		return dao.User{}, serr.WrapDB("could not update user", err)
	}

	return updated, nil
}

// CreateUser creates a new user account with the given username, password,
// and role. The password is bcrypt-hashed before being persisted.
//
// If a user with username already exists, the returned error matches
// serr.ErrAlreadyExists.
func (svc Service) CreateUser(ctx context.Context, username, password string, role dao.Role) (dao.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return dao.User{}, serr.New("could not hash password", err)
	}

	user := dao.User{
		Username: username,
		Password: base64.StdEncoding.EncodeToString(hash),
		Role:     role,
	}

	created, err := svc.DB.Users().Create(ctx, user)
	if err != nil {
		if errors.Is(err, dao.ErrConstraintViolation) {
			return dao.User{}, serr.ErrAlreadyExists
		}
		return dao.User{}, serr.WrapDB("could not create user", err)
	}

	return created, nil
}

// GetUser retrieves a user by its string-formatted UUID.
func (svc Service) GetUser(ctx context.Context, id string) (dao.User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return dao.User{}, serr.New("not a valid user ID", err, serr.ErrBadArgument)
	}

	user, err := svc.DB.Users().GetByID(ctx, parsed)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, serr.ErrNotFound
		}
		return dao.User{}, serr.WrapDB("could not retrieve user", err)
	}

	return user, nil
}
