package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/tempo/internal/ir"
)

// Compilation is one row of the compilation log.
type Compilation struct {
	ID         string `json:"id"`
	Seq        int64  `json:"seq"`
	Unit       string `json:"unit"`
	SourceHash string `json:"source_hash"`
	IRHash     string `json:"ir_hash,omitempty"`
	IRVersion  string `json:"ir_version"`
	Optimized  bool   `json:"optimized"`

	// IR is the canonical JSON encoding; empty for failed compilations.
	IR []byte `json:"-"`

	ErrorKind    string `json:"error_kind,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Failed reports whether the compilation ended in an error.
func (c Compilation) Failed() bool {
	return c.ErrorKind != ""
}

const compilationColumns = `id, seq, unit, source_hash, ir_hash, ir_version, optimized, ir, error_kind, error_code, error_message`

// Record appends a compilation to the log. ID is generated when empty and
// Seq is always assigned by the store. Returns the stored row.
func (s *Store) Record(ctx context.Context, c Compilation) (Compilation, error) {
	if c.ID == "" {
		c.ID = s.ids.Generate()
	}
	if c.IRVersion == "" {
		c.IRVersion = ir.Version
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Compilation{}, fmt.Errorf("record compilation: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM compilations`).Scan(&c.Seq); err != nil {
		return Compilation{}, fmt.Errorf("record compilation: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO compilations (`+compilationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID,
		c.Seq,
		c.Unit,
		c.SourceHash,
		c.IRHash,
		c.IRVersion,
		c.Optimized,
		string(c.IR),
		c.ErrorKind,
		c.ErrorCode,
		c.ErrorMessage,
	)
	if err != nil {
		return Compilation{}, fmt.Errorf("record compilation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Compilation{}, fmt.Errorf("record compilation: commit: %w", err)
	}
	return c, nil
}

// Lookup returns the most recent successful compilation of unit with the
// given source hash and optimization setting whose IR version is compatible
// with this build. The bool result is false when there is none.
func (s *Store) Lookup(ctx context.Context, unit, sourceHash string, optimized bool) (Compilation, bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+compilationColumns+`
		FROM compilations
		WHERE unit = ? AND source_hash = ? AND optimized = ? AND error_kind = ''
		ORDER BY seq DESC
	`, unit, sourceHash, optimized)
	if err != nil {
		return Compilation{}, false, fmt.Errorf("query compilations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCompilation(rows)
		if err != nil {
			return Compilation{}, false, err
		}
		ok, err := ir.Compatible(c.IRVersion)
		if err != nil || !ok {
			continue
		}
		return c, true, nil
	}
	if err := rows.Err(); err != nil {
		return Compilation{}, false, fmt.Errorf("iterate compilations: %w", err)
	}
	return Compilation{}, false, nil
}

// Get returns the compilation with the given ID.
func (s *Store) Get(ctx context.Context, id string) (Compilation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+compilationColumns+` FROM compilations WHERE id = ?`, id)
	c, err := scanCompilation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Compilation{}, fmt.Errorf("compilation %s: %w", id, ErrNotFound)
	}
	return c, err
}

// ErrNotFound is returned by Get for unknown IDs.
var ErrNotFound = errors.New("not found")

// List returns up to limit compilations, newest first. A limit <= 0 returns
// every row.
//
// Returns an empty slice (not nil) if the log is empty.
func (s *Store) List(ctx context.Context, limit int) ([]Compilation, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+compilationColumns+`
		FROM compilations
		ORDER BY seq DESC, id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query compilations: %w", err)
	}
	defer rows.Close()

	out := []Compilation{}
	for rows.Next() {
		c, err := scanCompilation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compilations: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCompilation(row scanner) (Compilation, error) {
	var (
		c    Compilation
		data string
	)
	err := row.Scan(
		&c.ID,
		&c.Seq,
		&c.Unit,
		&c.SourceHash,
		&c.IRHash,
		&c.IRVersion,
		&c.Optimized,
		&data,
		&c.ErrorKind,
		&c.ErrorCode,
		&c.ErrorMessage,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Compilation{}, err
		}
		return Compilation{}, fmt.Errorf("scan compilation: %w", err)
	}
	if data != "" {
		c.IR = []byte(data)
	}
	return c, nil
}
