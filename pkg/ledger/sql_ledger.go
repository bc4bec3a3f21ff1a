package ledger

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/Mindburn-Labs/ucf/core/pkg/digest"
)

// SQLLedger implements Ledger using database/sql.
// It supports both Postgres and SQLite via standard drivers.
type SQLLedger struct {
	db    *sql.DB
	clock func() time.Time
}

func NewSQLLedger(db *sql.DB) *SQLLedger {
	return &SQLLedger{db: db, clock: time.Now}
}

func NewSQLLedgerWithClock(db *sql.DB, clock func() time.Time) *SQLLedger {
	return &SQLLedger{db: db, clock: clock}
}

const ddl = `
CREATE TABLE IF NOT EXISTS stream_entries (
	stream TEXT NOT NULL,
	seq BIGINT NOT NULL,
	schema_id TEXT NOT NULL,
	prev_digest TEXT NOT NULL,
	digest TEXT NOT NULL,
	recorded_at TIMESTAMP NOT NULL,
	PRIMARY KEY (stream, seq)
);
`

func (s *SQLLedger) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *SQLLedger) Head(ctx context.Context, stream string) ([32]byte, error) {
	query := `SELECT digest FROM stream_entries WHERE stream = $1 ORDER BY seq DESC LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, stream)

	var stored string
	if err := row.Scan(&stored); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return digest.Zero, ErrStreamNotFound
		}
		return digest.Zero, err
	}
	return parseDigest(stored)
}

func (s *SQLLedger) Accept(ctx context.Context, e Entry) (uint64, error) {
	if err := checkEntry(e); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT seq, digest FROM stream_entries WHERE stream = $1 ORDER BY seq DESC LIMIT 1`
	row := tx.QueryRowContext(ctx, query, e.Stream)

	head := digest.Zero
	var seq uint64
	var stored string
	err = row.Scan(&seq, &stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Empty stream; the zero head stands.
	case err != nil:
		return 0, err
	default:
		if head, err = parseDigest(stored); err != nil {
			return 0, err
		}
	}

	if e.Prev != head {
		return 0, chainMismatch(e.Stream, e.Prev, head)
	}

	e.Seq = seq + 1
	e.RecordedAt = s.clock()
	insert := `
		INSERT INTO stream_entries (stream, seq, schema_id, prev_digest, digest, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.ExecContext(ctx, insert,
		e.Stream, e.Seq, e.SchemaID,
		hex.EncodeToString(e.Prev[:]), hex.EncodeToString(e.Digest[:]), e.RecordedAt,
	)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return e.Seq, nil
}

func (s *SQLLedger) History(ctx context.Context, stream string) ([]Entry, error) {
	query := `
		SELECT stream, seq, schema_id, prev_digest, digest, recorded_at
		FROM stream_entries WHERE stream = $1 ORDER BY seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query, stream)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make([]Entry, 0)
	for rows.Next() {
		var rec entryRecord
		if err := rows.Scan(&rec.Stream, &rec.Seq, &rec.SchemaID, &rec.Prev, &rec.Digest, &rec.RecordedAt); err != nil {
			return nil, err
		}
		e, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, ErrStreamNotFound
	}
	return result, nil
}
