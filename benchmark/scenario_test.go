package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioCatalogIsValid(t *testing.T) {
	names := ScenarioNames()
	require.Len(t, names, 7)
	for _, name := range names {
		sc, err := LookupScenario(name)
		require.NoError(t, err)
		assert.NoError(t, sc.Validate(), name)
		assert.Equal(t, name, sc.Name)
		assert.NotEmpty(t, sc.Description)
	}
}

func TestLookupScenario(t *testing.T) {
	sc, err := LookupScenario(ScenarioReadHeavy)
	require.NoError(t, err)
	assert.Equal(t, 90, sc.ReadPct)
	assert.Equal(t, 10, sc.WritePct)

	_, err = LookupScenario("nope")
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestDocumentSizes(t *testing.T) {
	assert.Equal(t, []string{"small", "medium", "large", "xlarge"}, DocumentSizeNames())

	ds, err := LookupDocumentSize("xlarge")
	require.NoError(t, err)
	assert.Equal(t, uint(1000), ds.KB)
	assert.Equal(t, "1MB", ds.Description)

	_, err = LookupDocumentSize("huge")
	assert.ErrorIs(t, err, ErrUnknownDocumentSize)
}
