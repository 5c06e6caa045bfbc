package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTermClassification_PrimaryDataset tests primary dataset extraction
func TestTermClassification_PrimaryDataset(t *testing.T) {
	t.Run("first dataset is primary", func(t *testing.T) {
		c := TermClassification{Datasets: []DatasetID{DatasetLOINC, DatasetICD10CM}}
		primary, ok := c.PrimaryDataset()
		require.True(t, ok)
		assert.Equal(t, DatasetLOINC, primary)
	})

	t.Run("empty selection has no primary", func(t *testing.T) {
		c := TermClassification{}
		_, ok := c.PrimaryDataset()
		assert.False(t, ok)
	})
}

// TestTermClassification_HasDataset tests dataset membership
func TestTermClassification_HasDataset(t *testing.T) {
	c := TermClassification{Datasets: []DatasetID{DatasetICD10CM, DatasetConditions}}

	assert.True(t, c.HasDataset(DatasetICD10CM))
	assert.True(t, c.HasDataset(DatasetConditions))
	assert.False(t, c.HasDataset(DatasetLOINC))
}

// TestFallbackClassification tests the degraded classification path
func TestFallbackClassification(t *testing.T) {
	c := FallbackClassification("chest pain")

	assert.Equal(t, TermTypeUnknown, c.TermType)
	assert.Equal(t, AllDatasetIDs(), c.Datasets, "fallback searches every dataset")
	assert.Zero(t, c.Confidence)
	assert.NotEmpty(t, c.Rationale)
	assert.Equal(t, []string{"chest pain"}, c.SearchTerms, "the query itself is always searchable")
}
