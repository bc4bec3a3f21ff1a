package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Mindburn-Labs/ucf/core/pkg/config"
	"github.com/Mindburn-Labs/ucf/core/pkg/corpus"
	"github.com/Mindburn-Labs/ucf/core/pkg/digest"
	"github.com/Mindburn-Labs/ucf/core/pkg/fixtures"
	"github.com/Mindburn-Labs/ucf/core/pkg/ledger"
	"github.com/Mindburn-Labs/ucf/core/pkg/merkle"

	_ "modernc.org/sqlite"
)

// corpusStream is the ledger stream verified corpora are anchored on.
const corpusStream = "corpus:releases"

// anchorCorpus folds the verified corpus into a single digest and accepts
// it onto the ledger. Re-anchoring the unchanged corpus is a no-op; a
// changed corpus must chain off the previously anchored one.
func anchorCorpus(ctx context.Context, store corpus.Store, logger *slog.Logger) error {
	manifest, err := fixtures.LoadManifest(ctx, store)
	if err != nil {
		return err
	}
	d, err := corpusDigest(ctx, store, manifest)
	if err != nil {
		return err
	}

	led, closeLedger, err := openLedger(ctx, config.Load())
	if err != nil {
		return err
	}
	defer func() { _ = closeLedger() }()

	head, err := led.Head(ctx, corpusStream)
	if err != nil && !errors.Is(err, ledger.ErrStreamNotFound) {
		return err
	}
	if head == d {
		logger.Info("corpus already anchored", "digest", fmt.Sprintf("%x", d))
		return nil
	}

	seq, err := led.Accept(ctx, ledger.Entry{
		Stream:   corpusStream,
		SchemaID: "ucf.corpus.Manifest",
		Prev:     head,
		Digest:   d,
	})
	if err != nil {
		return err
	}
	logger.Info("corpus anchored", "digest", fmt.Sprintf("%x", d), "seq", seq)
	return nil
}

// corpusDigest is the Merkle root over the corpus, one leaf per case name
// and stored digest. It pins corpus content without re-reading fixture
// bytes, and the tree supports per-case inclusion proofs against the
// anchored root.
func corpusDigest(ctx context.Context, store corpus.Store, manifest *fixtures.Manifest) ([32]byte, error) {
	leaves := make([]merkle.Leaf, 0, len(manifest.Cases))
	for _, c := range manifest.Cases {
		f, err := fixtures.LoadFixture(ctx, store, c.Name, c.Encoding)
		if err != nil {
			return digest.Zero, err
		}
		leaves = append(leaves, merkle.Leaf{Key: c.Name, Digest: f.Digest})
	}
	return merkle.Build(leaves).Root(), nil
}

// openLedger picks the anchor ledger backend. A configured Postgres DSN
// wins, then a Redis address; the default is a SQLite file under the
// local data directory.
func openLedger(ctx context.Context, cfg *config.Config) (ledger.Ledger, func() error, error) {
	if cfg.LedgerDSN != "" {
		db, err := sql.Open("postgres", cfg.LedgerDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres ledger: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("postgres ping: %w", err)
		}
		led := ledger.NewSQLLedger(db)
		if err := led.Init(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return led, db.Close, nil
	}

	if cfg.RedisAddr != "" {
		led := ledger.NewRedisLedger(cfg.RedisAddr, cfg.RedisPassword, 0)
		return led, func() error { return nil }, nil
	}

	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return nil, nil, fmt.Errorf("creating data dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(cfg.DataDir, "ucf.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening sqlite ledger: %w", err)
	}
	led := ledger.NewSQLLedger(db)
	if err := led.Init(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return led, db.Close, nil
}
