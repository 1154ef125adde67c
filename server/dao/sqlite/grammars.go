package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dekarrin/phrasegen/server/dao"
	"github.com/dekarrin/rezi"
	"github.com/google/uuid"
)

type GrammarsDB struct {
	db *sql.DB
}

func (repo *GrammarsDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS grammars (
		id TEXT NOT NULL PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		source TEXT NOT NULL,
		matcher_kind TEXT NOT NULL,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL,
		stats TEXT NOT NULL,
		UNIQUE(owner_id, name)
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func convertToDB_GrammarStats(stats dao.GrammarStats) string {
	encoded := rezi.EncBinary(&stats)
	return convertToDB_ByteSlice(encoded)
}

func convertFromDB_GrammarStats(s string, target *dao.GrammarStats) error {
	if s == "" {
		*target = dao.GrammarStats{}
		return nil
	}

	var raw []byte
	if err := convertFromDB_ByteSlice(s, &raw); err != nil {
		return err
	}

	var stats dao.GrammarStats
	n, err := rezi.DecBinary(raw, &stats)
	if err != nil {
		return fmt.Errorf("%w: REZI decode: %w", dao.ErrDecodingFailure, err)
	}
	if n != len(raw) {
		return fmt.Errorf("%w: REZI decoded byte count mismatch; only consumed %d/%d bytes", dao.ErrDecodingFailure, n, len(raw))
	}

	*target = stats
	return nil
}

func (repo *GrammarsDB) Create(ctx context.Context, g dao.Grammar) (dao.Grammar, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Grammar{}, fmt.Errorf("could not generate ID: %w", err)
	}

	now := convertToDB_Time(time.Now())

	stmt, err := repo.db.Prepare(`INSERT INTO grammars
		(id, owner_id, name, source, matcher_kind, created, modified, stats)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		convertToDB_UUID(newUUID),
		convertToDB_UUID(g.OwnerID),
		g.Name,
		g.Source,
		g.MatcherKind,
		now, now,
		convertToDB_GrammarStats(g.Stats),
	)
	if err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *GrammarsDB) scanGrammar(row interface {
	Scan(dest ...interface{}) error
}, g *dao.Grammar) error {
	var id, ownerID, stats string
	var createdI, modifiedI int64

	err := row.Scan(&id, &ownerID, &g.Name, &g.Source, &g.MatcherKind, &createdI, &modifiedI, &stats)
	if err != nil {
		return wrapDBError(err)
	}

	if err := convertFromDB_UUID(id, &g.ID); err != nil {
		return err
	}
	if err := convertFromDB_UUID(ownerID, &g.OwnerID); err != nil {
		return err
	}
	convertFromDB_Time(createdI, &g.Created)
	convertFromDB_Time(modifiedI, &g.Modified)
	if err := convertFromDB_GrammarStats(stats, &g.Stats); err != nil {
		return err
	}

	return nil
}

func (repo *GrammarsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	var g dao.Grammar
	row := repo.db.QueryRowContext(ctx, `SELECT id, owner_id, name, source, matcher_kind, created, modified, stats FROM grammars WHERE id = ?;`, convertToDB_UUID(id))
	if err := repo.scanGrammar(row, &g); err != nil {
		return dao.Grammar{}, err
	}
	return g, nil
}

func (repo *GrammarsDB) GetByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (dao.Grammar, error) {
	var g dao.Grammar
	row := repo.db.QueryRowContext(ctx, `SELECT id, owner_id, name, source, matcher_kind, created, modified, stats FROM grammars WHERE owner_id = ? AND name = ?;`,
		convertToDB_UUID(ownerID), name)
	if err := repo.scanGrammar(row, &g); err != nil {
		return dao.Grammar{}, err
	}
	return g, nil
}

func (repo *GrammarsDB) GetAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]dao.Grammar, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, owner_id, name, source, matcher_kind, created, modified, stats FROM grammars WHERE owner_id = ? ORDER BY name;`, convertToDB_UUID(ownerID))
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Grammar
	for rows.Next() {
		var g dao.Grammar
		if err := repo.scanGrammar(rows, &g); err != nil {
			return all, err
		}
		all = append(all, g)
	}
	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *GrammarsDB) Update(ctx context.Context, id uuid.UUID, g dao.Grammar) (dao.Grammar, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE grammars SET
		owner_id=?, name=?, source=?, matcher_kind=?, modified=?, stats=?
		WHERE id=?;`,
		convertToDB_UUID(g.OwnerID),
		g.Name,
		g.Source,
		g.MatcherKind,
		convertToDB_Time(time.Now()),
		convertToDB_GrammarStats(g.Stats),
		convertToDB_UUID(id),
	)
	if err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.Grammar{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, id)
}

func (repo *GrammarsDB) Delete(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM grammars WHERE id = ?`, convertToDB_UUID(id))
	if err != nil {
		return curVal, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return curVal, wrapDBError(err)
	}
	if rowsAff < 1 {
		return curVal, dao.ErrNotFound
	}

	return curVal, nil
}

func (repo *GrammarsDB) Close() error {
	return nil
}
