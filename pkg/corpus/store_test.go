package corpus

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestNewStoreFromEnv_Default(t *testing.T) {
	_ = os.Unsetenv("UCF_CORPUS_STORE")

	tmpDir := t.TempDir()
	_ = os.Setenv("UCF_CORPUS_DIR", tmpDir)
	defer func() { _ = os.Unsetenv("UCF_CORPUS_DIR") }()

	store, err := NewStoreFromEnv(context.Background())
	if err != nil {
		t.Fatalf("NewStoreFromEnv failed: %v", err)
	}

	fs, ok := store.(*FileStore)
	if !ok {
		t.Fatalf("Expected *FileStore, got %T", store)
	}
	if fs.baseDir != tmpDir {
		t.Errorf("Expected baseDir %s, got %s", tmpDir, fs.baseDir)
	}
}

func TestNewStoreFromEnv_S3MissingBucket(t *testing.T) {
	_ = os.Setenv("UCF_CORPUS_STORE", "s3")
	_ = os.Unsetenv("UCF_CORPUS_S3_BUCKET")
	defer func() { _ = os.Unsetenv("UCF_CORPUS_STORE") }()

	_, err := NewStoreFromEnv(context.Background())
	if err == nil {
		t.Fatal("Expected error for missing S3 bucket")
	}
	if !strings.Contains(err.Error(), "UCF_CORPUS_S3_BUCKET is required") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestNewStoreFromEnv_UnsupportedType(t *testing.T) {
	_ = os.Setenv("UCF_CORPUS_STORE", "azure")
	defer func() { _ = os.Unsetenv("UCF_CORPUS_STORE") }()

	_, err := NewStoreFromEnv(context.Background())
	if err == nil {
		t.Fatal("Expected error for unsupported storage type")
	}
	if !strings.Contains(err.Error(), "unsupported corpus storage type") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	ctx := context.Background()
	data := []byte("deadbeef\n")

	if err := store.Put(ctx, "testvectors/policy_decision_basic.hex", data); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	retrieved, err := store.Get(ctx, "testvectors/policy_decision_basic.hex")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(retrieved) != string(data) {
		t.Errorf("Expected %q, got %q", data, retrieved)
	}

	exists, err := store.Exists(ctx, "testvectors/policy_decision_basic.hex")
	if err != nil || !exists {
		t.Errorf("Expected object to exist, got %v, %v", exists, err)
	}

	if err := store.Delete(ctx, "testvectors/policy_decision_basic.hex"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	exists, err = store.Exists(ctx, "testvectors/policy_decision_basic.hex")
	if err != nil || exists {
		t.Errorf("Expected object to be gone, got %v, %v", exists, err)
	}
}

func TestFileStore_ListSortedUnderPrefix(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	ctx := context.Background()
	for _, key := range []string{"v/b.hex", "v/a.hex", "v/a.digest", "manifest.yaml"} {
		if err := store.Put(ctx, key, []byte(key)); err != nil {
			t.Fatalf("Put %s failed: %v", key, err)
		}
	}

	keys, err := store.List(ctx, "v/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"v/a.digest", "v/a.hex", "v/b.hex"}
	if len(keys) != len(want) {
		t.Fatalf("Expected %d keys, got %v", len(want), keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %s, want %s", i, keys[i], want[i])
		}
	}
}

func TestFileStore_RejectsTraversalKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	ctx := context.Background()
	for _, key := range []string{"", "/abs", "a/../b", "..", "a//b"} {
		if err := store.Put(ctx, key, []byte("x")); err == nil {
			t.Errorf("Expected Put to reject key %q", key)
		}
		if _, err := store.Get(ctx, key); err == nil {
			t.Errorf("Expected Get to reject key %q", key)
		}
	}
}

func TestFileStore_GetNotFound(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	_, err = store.Get(context.Background(), "missing.hex")
	if err == nil {
		t.Fatal("Expected error for non-existent object")
	}
	if !strings.Contains(err.Error(), "object not found") {
		t.Errorf("Unexpected error: %v", err)
	}
}
