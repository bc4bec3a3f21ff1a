package fixtures

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfile_Valid(t *testing.T) {
	p, err := ParseProfile([]byte("suites:\n  - core\n  - biophys\noverwrite: true\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"core", "biophys"}, p.Suites)
	assert.True(t, p.Overwrite)
}

func TestParseProfile_RejectsUnknownSuite(t *testing.T) {
	_, err := ParseProfile([]byte("suites:\n  - core\n  - warp\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
}

func TestParseProfile_RequiresSuites(t *testing.T) {
	_, err := ParseProfile([]byte("overwrite: true\n"))
	require.Error(t, err)

	_, err = ParseProfile([]byte("suites: []\n"))
	require.Error(t, err)
}

func TestParseProfile_RejectsUnknownKeys(t *testing.T) {
	_, err := ParseProfile([]byte("suites:\n  - core\nout_dir: /tmp/x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
}

func TestLoadProfile_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("suites:\n  - microcircuit\n"), 0o600))

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"microcircuit"}, p.Suites)
	assert.False(t, p.Overwrite)
}
