package pvgs

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/Mindburn-Labs/ucf/core/pkg/ledger"
)

// ErrReceiptNotFound is returned for lookups of unknown receipt ids.
var ErrReceiptNotFound = errors.New("receipt not found")

// recordStream is the ledger stream receipt record digests chain on.
const recordStream = "pvgs:records"

// StoredReceipt is the persisted projection of one issued receipt plus its
// chain context.
type StoredReceipt struct {
	ReceiptID        string
	Status           string
	ReceiptDigest    [32]byte
	RecordDigest     [32]byte
	PrevRecordDigest [32]byte
	VRFDigest        [32]byte
	KeyID            string
	IssuedAt         time.Time
}

// ReceiptStore persists receipts in SQLite and anchors their record digests
// on a ledger stream, so a receipt whose prev does not extend the accepted
// head never lands in the table.
type ReceiptStore struct {
	db    *sql.DB
	led   ledger.Ledger
	clock func() time.Time
}

// NewReceiptStore migrates the schema and returns a store over db.
func NewReceiptStore(db *sql.DB, led ledger.Ledger) (*ReceiptStore, error) {
	return NewReceiptStoreWithClock(db, led, time.Now)
}

// NewReceiptStoreWithClock is NewReceiptStore with an injectable clock.
func NewReceiptStoreWithClock(db *sql.DB, led ledger.Ledger, clock func() time.Time) (*ReceiptStore, error) {
	s := &ReceiptStore{db: db, led: led, clock: clock}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ReceiptStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS proof_receipts (
		receipt_id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		receipt_digest TEXT NOT NULL,
		record_digest TEXT NOT NULL,
		prev_record_digest TEXT NOT NULL,
		vrf_digest TEXT NOT NULL,
		key_id TEXT NOT NULL DEFAULT '',
		issued_at TEXT NOT NULL
	);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

// Insert anchors the receipt's record digest on the ledger and persists the
// row. Chain rejection surfaces before any SQL runs.
func (s *ReceiptStore) Insert(ctx context.Context, r *StoredReceipt) error {
	if r.ReceiptID == "" {
		return fmt.Errorf("receipt id must not be empty")
	}
	if _, err := s.led.Accept(ctx, ledger.Entry{
		Stream:   recordStream,
		SchemaID: ReceiptSchema,
		Prev:     r.PrevRecordDigest,
		Digest:   r.RecordDigest,
	}); err != nil {
		return fmt.Errorf("anchor receipt %s: %w", r.ReceiptID, err)
	}

	issuedAt := r.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = s.clock()
	}
	query := `INSERT INTO proof_receipts (
		receipt_id, status, receipt_digest, record_digest, prev_record_digest, vrf_digest, key_id, issued_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		r.ReceiptID, r.Status,
		hex.EncodeToString(r.ReceiptDigest[:]),
		hex.EncodeToString(r.RecordDigest[:]),
		hex.EncodeToString(r.PrevRecordDigest[:]),
		hex.EncodeToString(r.VRFDigest[:]),
		r.KeyID,
		issuedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert receipt %s: %w", r.ReceiptID, err)
	}
	return nil
}

// Get returns one receipt by id.
func (s *ReceiptStore) Get(ctx context.Context, receiptID string) (*StoredReceipt, error) {
	query := `
	SELECT receipt_id, status, receipt_digest, record_digest, prev_record_digest, vrf_digest, key_id, issued_at
	FROM proof_receipts
	WHERE receipt_id = ?`
	r, err := scanReceipt(s.db.QueryRowContext(ctx, query, receiptID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrReceiptNotFound, receiptID)
	}
	return r, err
}

// List returns up to limit receipts, newest first.
func (s *ReceiptStore) List(ctx context.Context, limit int) ([]*StoredReceipt, error) {
	query := `
	SELECT receipt_id, status, receipt_digest, record_digest, prev_record_digest, vrf_digest, key_id, issued_at
	FROM proof_receipts
	ORDER BY issued_at DESC
	LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*StoredReceipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Head returns the accepted record-digest chain head.
func (s *ReceiptStore) Head(ctx context.Context) ([32]byte, error) {
	head, err := s.led.Head(ctx, recordStream)
	if errors.Is(err, ledger.ErrStreamNotFound) {
		return [32]byte{}, nil
	}
	return head, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (*StoredReceipt, error) {
	var (
		r        StoredReceipt
		receipt  string
		record   string
		prev     string
		vrfHex   string
		issuedAt string
	)
	if err := row.Scan(&r.ReceiptID, &r.Status, &receipt, &record, &prev, &vrfHex, &r.KeyID, &issuedAt); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		raw  string
		dst  *[32]byte
		name string
	}{
		{receipt, &r.ReceiptDigest, "receipt_digest"},
		{record, &r.RecordDigest, "record_digest"},
		{prev, &r.PrevRecordDigest, "prev_record_digest"},
		{vrfHex, &r.VRFDigest, "vrf_digest"},
	} {
		b, err := hex.DecodeString(f.raw)
		if err != nil || len(b) != 32 {
			return nil, fmt.Errorf("receipt %s: corrupt %s column", r.ReceiptID, f.name)
		}
		copy(f.dst[:], b)
	}
	t, err := time.Parse(time.RFC3339Nano, issuedAt)
	if err != nil {
		return nil, fmt.Errorf("receipt %s: corrupt issued_at column: %w", r.ReceiptID, err)
	}
	r.IssuedAt = t
	return &r, nil
}
