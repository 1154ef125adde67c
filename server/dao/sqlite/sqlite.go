// Package sqlite provides a sqlite-backed implementation of dao.Store using
// the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dekarrin/phrasegen/server/dao"
	"github.com/google/uuid"
	"modernc.org/sqlite"
)

type store struct {
	dbFilename string
	db         *sql.DB

	users    *UsersDB
	grammars *GrammarsDB
}

// NewDatastore opens (creating if needed) the sqlite database file under
// storageDir and returns a dao.Store backed by it.
func NewDatastore(storageDir string) (dao.Store, error) {
	st := &store{dbFilename: "data.db"}

	fileName := filepath.Join(storageDir, st.dbFilename)

	var err error
	st.db, err = sql.Open("sqlite", fileName)
	if err != nil {
		return nil, wrapDBError(err)
	}

	st.users = &UsersDB{db: st.db}
	if err := st.users.init(); err != nil {
		return nil, err
	}

	st.grammars = &GrammarsDB{db: st.db}
	if err := st.grammars.init(); err != nil {
		return nil, err
	}

	return st, nil
}

func (s *store) Users() dao.UserRepository {
	return s.users
}

func (s *store) Grammars() dao.GrammarRepository {
	return s.grammars
}

func (s *store) Close() error {
	return s.db.Close()
}

func convertToDB_Role(r dao.Role) string {
	return r.String()
}

func convertToDB_UUID(u uuid.UUID) string {
	return u.String()
}

func convertToDB_Time(t time.Time) int64 {
	return t.Unix()
}

func convertToDB_ByteSlice(b []byte) string {
	if len(b) < 1 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(b)
}

func convertFromDB_Role(s string, target *dao.Role) error {
	r, err := dao.ParseRole(s)
	if err != nil {
		return fmt.Errorf("%w: %w", dao.ErrDecodingFailure, err)
	}
	*target = r
	return nil
}

func convertFromDB_UUID(s string, target *uuid.UUID) error {
	u, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("%w: %w", dao.ErrDecodingFailure, err)
	}
	*target = u
	return nil
}

func convertFromDB_Time(i int64, target *time.Time) error {
	*target = time.Unix(i, 0)
	return nil
}

func convertFromDB_ByteSlice(s string, target *[]byte) error {
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("%w: %w", dao.ErrDecodingFailure, err)
	}
	*target = decoded
	return nil
}

func wrapDBError(err error) error {
	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code() == 19 {
			return dao.ErrConstraintViolation
		}
		return fmt.Errorf("%s", sqlite.ErrorCodeString[sqliteErr.Code()])
	} else if errors.Is(err, sql.ErrNoRows) {
		return dao.ErrNotFound
	}
	return err
}
