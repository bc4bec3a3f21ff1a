package pvgs

import (
	"context"
	"encoding/hex"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/ucf/core/pkg/digest"
	"github.com/Mindburn-Labs/ucf/core/pkg/ledger"
)

func storeClock() func() time.Time {
	return func() time.Time { return time.Unix(1_700_000_000, 0).UTC() }
}

func newMockStore(t *testing.T) (*ReceiptStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS proof_receipts").
		WillReturnResult(sqlmock.NewResult(0, 0))

	led := ledger.NewMemoryLedgerWithClock(storeClock())
	s, err := NewReceiptStoreWithClock(db, led, storeClock())
	require.NoError(t, err)
	return s, mock
}

func storedReceipt(id string, prev, record [32]byte) *StoredReceipt {
	return &StoredReceipt{
		ReceiptID:        id,
		Status:           "RECEIPT_STATUS_ACCEPTED",
		ReceiptDigest:    fill(9),
		RecordDigest:     record,
		PrevRecordDigest: prev,
		VRFDigest:        fill(7),
		KeyID:            "TEMPORARY_VRF:0102030405060708",
	}
}

func TestReceiptStore_InsertChainsRecords(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO proof_receipts").
		WithArgs("r-1", "RECEIPT_STATUS_ACCEPTED",
			hex.EncodeToString(fillBytes(9, 32)),
			hex.EncodeToString(fillBytes(1, 32)),
			hex.EncodeToString(fillBytes(0, 32)),
			hex.EncodeToString(fillBytes(7, 32)),
			"TEMPORARY_VRF:0102030405060708",
			"2023-11-14T22:13:20Z").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.Insert(ctx, storedReceipt("r-1", fill(0), fill(1))))

	head, err := s.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, fill(1), head)

	// A receipt that does not extend the head is rejected before any SQL.
	err = s.Insert(ctx, storedReceipt("r-2", fill(0), fill(2)))
	require.ErrorIs(t, err, digest.ErrChainBroken)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiptStore_Head_EmptyChain(t *testing.T) {
	s, mock := newMockStore(t)

	head, err := s.Head(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [32]byte{}, head)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiptStore_Get(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	cols := []string{"receipt_id", "status", "receipt_digest", "record_digest",
		"prev_record_digest", "vrf_digest", "key_id", "issued_at"}
	mock.ExpectQuery("FROM proof_receipts").
		WithArgs("r-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"r-1", "RECEIPT_STATUS_ACCEPTED",
			hex.EncodeToString(fillBytes(9, 32)),
			hex.EncodeToString(fillBytes(1, 32)),
			hex.EncodeToString(fillBytes(0, 32)),
			hex.EncodeToString(fillBytes(7, 32)),
			"TEMPORARY_VRF:0102030405060708",
			"2023-11-14T22:13:20Z"))

	r, err := s.Get(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, "r-1", r.ReceiptID)
	assert.Equal(t, fill(1), r.RecordDigest)
	assert.Equal(t, fill(0), r.PrevRecordDigest)
	assert.Equal(t, fill(7), r.VRFDigest)
	assert.Equal(t, time.Unix(1_700_000_000, 0).UTC(), r.IssuedAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiptStore_GetNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("FROM proof_receipts").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"receipt_id"}))

	_, err := s.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrReceiptNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiptStore_List(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	cols := []string{"receipt_id", "status", "receipt_digest", "record_digest",
		"prev_record_digest", "vrf_digest", "key_id", "issued_at"}
	mock.ExpectQuery("FROM proof_receipts").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("r-2", "RECEIPT_STATUS_ACCEPTED",
				hex.EncodeToString(fillBytes(9, 32)),
				hex.EncodeToString(fillBytes(2, 32)),
				hex.EncodeToString(fillBytes(1, 32)),
				hex.EncodeToString(fillBytes(7, 32)),
				"", "2023-11-14T22:14:20Z").
			AddRow("r-1", "RECEIPT_STATUS_ACCEPTED",
				hex.EncodeToString(fillBytes(9, 32)),
				hex.EncodeToString(fillBytes(1, 32)),
				hex.EncodeToString(fillBytes(0, 32)),
				hex.EncodeToString(fillBytes(7, 32)),
				"", "2023-11-14T22:13:20Z"))

	out, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "r-2", out[0].ReceiptID)
	assert.Equal(t, "r-1", out[1].ReceiptID)
	require.NoError(t, mock.ExpectationsWereMet())
}
