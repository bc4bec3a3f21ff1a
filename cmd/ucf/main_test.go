package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(append([]string{"ucf"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCLI(t)
	if code != 2 {
		t.Fatalf("code = %d, want 2", code)
	}
	if !strings.Contains(stderr, "USAGE") {
		t.Errorf("usage not printed: %s", stderr)
	}

	code, _, stderr = runCLI(t, "frobnicate")
	if code != 2 {
		t.Fatalf("code = %d, want 2", code)
	}
	if !strings.Contains(stderr, "Unknown command") {
		t.Errorf("unknown command not reported: %s", stderr)
	}
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := runCLI(t, "version")
	if code != 0 {
		t.Fatalf("code = %d, want 0", code)
	}
	if !strings.Contains(stdout, version) {
		t.Errorf("version output = %q, want it to contain %q", stdout, version)
	}
}

func TestRun_GenerateThenVerify(t *testing.T) {
	dir := t.TempDir()

	code, stdout, stderr := runCLI(t, "generate", "-out", dir)
	if code != 0 {
		t.Fatalf("generate code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Corpus written") {
		t.Errorf("generate output = %q", stdout)
	}

	reportPath := filepath.Join(t.TempDir(), "report.json")
	code, stdout, stderr = runCLI(t, "verify", "-corpus", dir, "-report", reportPath)
	if code != 0 {
		t.Fatalf("verify code = %d, stdout: %s, stderr: %s", code, stdout, stderr)
	}
	if !strings.Contains(stdout, "Corpus verified") {
		t.Errorf("verify output = %q", stdout)
	}

	report, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !bytes.HasPrefix(report, []byte(`{"checks":`)) {
		t.Errorf("report is not canonical JSON: %.60s", report)
	}
}

func TestRun_VerifyFailsOnTamper(t *testing.T) {
	dir := t.TempDir()

	if code, _, stderr := runCLI(t, "generate", "-out", dir); code != 0 {
		t.Fatalf("generate failed: %s", stderr)
	}

	bad := strings.Repeat("ff", 32) + "\n"
	if err := os.WriteFile(filepath.Join(dir, "policy_decision.digest"), []byte(bad), 0644); err != nil {
		t.Fatal(err)
	}

	code, stdout, _ := runCLI(t, "verify", "-corpus", dir)
	if code != 1 {
		t.Fatalf("verify code = %d, want 1", code)
	}
	if !strings.Contains(stdout, "FAILED") {
		t.Errorf("verify output = %q", stdout)
	}
}

func TestRun_GenerateRejectsBadProfile(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(profile, []byte("suites: [warp]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	code, _, stderr := runCLI(t, "generate", "-out", t.TempDir(), "-profile", profile)
	if code != 2 {
		t.Fatalf("code = %d, want 2", code)
	}
	if !strings.Contains(stderr, "profile") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRun_SyncPushPull(t *testing.T) {
	src := t.TempDir()
	if code, _, stderr := runCLI(t, "generate", "-out", src); code != 0 {
		t.Fatalf("generate failed: %s", stderr)
	}

	remote := t.TempDir()
	t.Setenv("UCF_CORPUS_STORE", "fs")
	t.Setenv("UCF_CORPUS_DIR", remote)

	code, stdout, stderr := runCLI(t, "sync", "-dir", src, "-push", "-rps", "1000")
	if code != 0 {
		t.Fatalf("push code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Pushed") {
		t.Errorf("push output = %q", stdout)
	}

	dst := t.TempDir()
	code, stdout, stderr = runCLI(t, "sync", "-dir", dst, "-pull", "-rps", "1000")
	if code != 0 {
		t.Fatalf("pull code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Pulled") {
		t.Errorf("pull output = %q", stdout)
	}

	// The pulled corpus must verify as-is.
	if code, _, stderr := runCLI(t, "verify", "-corpus", dst); code != 0 {
		t.Fatalf("pulled corpus failed verification: %s", stderr)
	}
}

func TestRun_VerifyAnchorsCorpus(t *testing.T) {
	dir := t.TempDir()
	if code, _, stderr := runCLI(t, "generate", "-out", dir); code != 0 {
		t.Fatalf("generate failed: %s", stderr)
	}

	t.Setenv("UCF_DATA_DIR", t.TempDir())

	code, _, stderr := runCLI(t, "verify", "-corpus", dir, "-anchor")
	if code != 0 {
		t.Fatalf("anchor code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stderr, "corpus anchored") {
		t.Errorf("stderr = %q, want anchor log line", stderr)
	}

	// Anchoring the unchanged corpus again is a no-op.
	code, _, stderr = runCLI(t, "verify", "-corpus", dir, "-anchor")
	if code != 0 {
		t.Fatalf("re-anchor code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stderr, "already anchored") {
		t.Errorf("stderr = %q, want no-op log line", stderr)
	}
}

func TestRun_SyncRequiresDirection(t *testing.T) {
	code, _, stderr := runCLI(t, "sync", "-dir", t.TempDir())
	if code != 2 {
		t.Fatalf("code = %d, want 2", code)
	}
	if !strings.Contains(stderr, "-push or -pull") {
		t.Errorf("stderr = %q", stderr)
	}

	code, _, _ = runCLI(t, "sync", "-dir", t.TempDir(), "-push", "-pull")
	if code != 2 {
		t.Fatalf("code = %d, want 2", code)
	}
}
