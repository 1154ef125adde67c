// Package inmem provides an in-memory implementation of dao.Store suitable
// for tests and for running a server without a persistent backing store.
package inmem

import (
	"fmt"

	"github.com/dekarrin/phrasegen/server/dao"
)

type store struct {
	users    *UsersRepository
	grammars *GrammarsRepository
}

// NewDatastore returns a dao.Store backed entirely by in-memory maps. Data
// does not survive process restart.
func NewDatastore() dao.Store {
	return &store{
		users:    NewUsersRepository(),
		grammars: NewGrammarsRepository(),
	}
}

func (s *store) Users() dao.UserRepository {
	return s.users
}

func (s *store) Grammars() dao.GrammarRepository {
	return s.grammars
}

func (s *store) Close() error {
	var err error

	if uErr := s.users.Close(); uErr != nil {
		err = uErr
	}
	if gErr := s.grammars.Close(); gErr != nil {
		if err != nil {
			err = fmt.Errorf("%s\nadditionally, %w", err, gErr)
		} else {
			err = gErr
		}
	}

	return err
}
