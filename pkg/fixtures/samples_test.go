package fixtures

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/ucf/core/pkg/schema"
)

func TestSamples_SortedUniqueNames(t *testing.T) {
	all := Samples()
	require.NotEmpty(t, all)

	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.Name
	}
	assert.True(t, sort.StringsAreSorted(names), "sample names must be sorted: %v", names)

	seen := make(map[string]bool)
	for _, n := range names {
		assert.False(t, seen[n], "duplicate sample name %q", n)
		seen[n] = true
	}
}

func TestSamples_CoverEveryBinding(t *testing.T) {
	reg := schema.Default()
	covered := make(map[string]bool)
	knownSuites := map[string]bool{
		SuiteCore: true, SuiteAssets: true, SuiteBiophys: true,
		SuiteMicrocircuit: true, SuiteReplay: true,
	}

	for _, s := range Samples() {
		_, err := reg.Binding(s.SchemaID)
		require.NoError(t, err, "sample %s references unregistered schema", s.Name)
		assert.True(t, knownSuites[s.Suite], "sample %s has unknown suite %q", s.Name, s.Suite)
		covered[s.SchemaID] = true
	}

	for _, b := range reg.All() {
		assert.True(t, covered[b.SchemaID], "schema %s has no sample", b.SchemaID)
	}
}

func TestSamples_BuildMatchesSchema(t *testing.T) {
	for _, s := range Samples() {
		msg := s.Build()
		require.NotNil(t, msg, "sample %s built nil", s.Name)
		assert.Equal(t, s.SchemaID, string(msg.Descriptor().FullName()),
			"sample %s built the wrong message type", s.Name)
	}
}
