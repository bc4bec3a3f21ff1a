package corpus

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/time/rate"
)

func newSyncedPair(t *testing.T) (Store, Store, *Syncer) {
	t.Helper()
	src, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	dst, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return src, dst, NewSyncer(rate.Inf, 1)
}

func TestSyncer_PushPullRoundTrip(t *testing.T) {
	src, remote, syncer := newSyncedPair(t)
	ctx := context.Background()

	objects := map[string]string{
		"policy_decision_basic.hex":    "0801\n",
		"policy_decision_basic.digest": "ab" + "00",
		"reason_codes_sorted.hex":      "0a01610a0162\n",
	}
	for key, data := range objects {
		if err := src.Put(ctx, key, []byte(data)); err != nil {
			t.Fatalf("Put %s failed: %v", key, err)
		}
	}

	pushed, err := syncer.Push(ctx, src, remote, "")
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if pushed != len(objects) {
		t.Errorf("Expected %d pushed objects, got %d", len(objects), pushed)
	}

	local, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	pulled, err := syncer.Pull(ctx, remote, local)
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	if pulled != len(objects) {
		t.Errorf("Expected %d pulled objects, got %d", len(objects), pulled)
	}

	for key, data := range objects {
		got, err := local.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get %s after pull failed: %v", key, err)
		}
		if string(got) != data {
			t.Errorf("%s: expected %q, got %q", key, data, got)
		}
	}
}

func TestSyncer_PushReplacesSumFile(t *testing.T) {
	src, remote, syncer := newSyncedPair(t)
	ctx := context.Background()

	if err := src.Put(ctx, "a.hex", []byte("01")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := syncer.Push(ctx, src, remote, ""); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	first, err := remote.Get(ctx, SumFile)
	if err != nil {
		t.Fatalf("Get sum file failed: %v", err)
	}

	if err := src.Put(ctx, "a.hex", []byte("02")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := syncer.Push(ctx, src, remote, ""); err != nil {
		t.Fatalf("Second push failed: %v", err)
	}
	second, err := remote.Get(ctx, SumFile)
	if err != nil {
		t.Fatalf("Get sum file failed: %v", err)
	}

	if string(first) == string(second) {
		t.Error("Expected checksum file to change when content changes")
	}
}

func TestSyncer_PullDetectsTamperedObject(t *testing.T) {
	src, remote, syncer := newSyncedPair(t)
	ctx := context.Background()

	if err := src.Put(ctx, "asset_digest_morph.hex", []byte("0a20ff")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := syncer.Push(ctx, src, remote, ""); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	// Flip the stored object after its checksum was recorded.
	if err := remote.Put(ctx, "asset_digest_morph.hex", []byte("0a20fe")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	local, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	_, err = syncer.Pull(ctx, remote, local)
	if !errors.Is(err, ErrIntegrity) {
		t.Fatalf("Expected ErrIntegrity, got %v", err)
	}
}

func TestParseSums_RejectsMalformedLines(t *testing.T) {
	cases := []string{
		"short  a.hex\n",
		"zz" + validSumHex()[2:] + "  a.hex\n",
		validSumHex() + " single-space.hex\n",
	}
	for _, raw := range cases {
		if _, err := parseSums([]byte(raw)); err == nil {
			t.Errorf("Expected parse error for %q", raw)
		}
	}
}

func validSumHex() string {
	return sum([]byte("x"))
}
