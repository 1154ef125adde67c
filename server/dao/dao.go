// Package dao provides data access objects for use in the phrasegen server.
package dao

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConstraintViolation = errors.New("a uniqueness constraint was violated")
	ErrNotFound            = errors.New("the requested resource was not found")
	ErrDecodingFailure     = errors.New("field could not be decoded from DB storage format to model format")
)

// Store holds all the repositories that back a phrasegen server.
type Store interface {
	Users() UserRepository
	Grammars() GrammarRepository
	Close() error
}

// Role is the level of access a User has been granted.
type Role int

const (
	Guest Role = iota
	Unverified
	Normal

	Admin Role = 100
)

func (r Role) String() string {
	switch r {
	case Guest:
		return "guest"
	case Unverified:
		return "unverified"
	case Normal:
		return "normal"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("Role(%d)", r)
	}
}

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "guest":
		return Guest, nil
	case "unverified":
		return Unverified, nil
	case "normal":
		return Normal, nil
	case "admin":
		return Admin, nil
	default:
		return Guest, fmt.Errorf("must be one of 'guest', 'unverified', 'normal', or 'admin'")
	}
}

// User is an account that can log in and own Grammars.
type User struct {
	ID             uuid.UUID // PK, NOT NULL
	Username       string    // UNIQUE, NOT NULL
	Password       string    // NOT NULL, base64-encoded bcrypt hash
	Role           Role      // NOT NULL
	Created        time.Time // NOT NULL
	Modified       time.Time
	LastLogoutTime time.Time // NOT NULL DEFAULT NOW()
	LastLoginTime  time.Time
}

type UserRepository interface {
	// Create creates a new User. All attributes except for auto-generated
	// fields are taken from the provided User.
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetAll(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id uuid.UUID, user User) (User, error)
	Delete(ctx context.Context, id uuid.UUID) (User, error)
	Close() error
}

// GrammarStats is a cached snapshot of combinatorial facts about a Grammar,
// computed at Create/Update time so that a read of the Grammar doesn't have
// to recompile and re-bind it just to report them.
type GrammarStats struct {
	StartSymbols []string
	Combinations map[string]uint64
	Approximate  map[string]bool
	Weight       map[string]float64
}

// Grammar is a named, owned unit of phrase-syntax source text.
type Grammar struct {
	ID          uuid.UUID // PK, NOT NULL
	OwnerID     uuid.UUID // FK (Many-to-One User.ID), NOT NULL
	Name        string    // UNIQUE per OwnerID, NOT NULL
	Source      string    // NOT NULL, phrase-syntax text
	MatcherKind string    // "literal" or "regex"; selects the Gsub backend
	Created     time.Time
	Modified    time.Time
	Stats       GrammarStats
}

type GrammarRepository interface {
	Create(ctx context.Context, g Grammar) (Grammar, error)
	GetByID(ctx context.Context, id uuid.UUID) (Grammar, error)
	GetByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (Grammar, error)
	GetAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]Grammar, error)
	Update(ctx context.Context, id uuid.UUID, g Grammar) (Grammar, error)
	Delete(ctx context.Context, id uuid.UUID) (Grammar, error)
	Close() error
}
