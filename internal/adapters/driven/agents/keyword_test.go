package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
)

func TestKeywordClassifier_Classify(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  domain.TermType
	}{
		{"lab test", "glucose test", domain.TermTypeLabTest},
		{"medication", "metformin 500 mg", domain.TermTypeMedication},
		{"equipment", "standard wheelchair", domain.TermTypeMedicalEquipment},
		{"procedure", "knee replacement surgery", domain.TermTypeProcedure},
		{"genetic variant", "BRCA1 mutation", domain.TermTypeGeneticVariant},
		{"default diagnosis", "migraine", domain.TermTypeDiagnosis},
		{"case insensitive", "GLUCOSE Panel", domain.TermTypeLabTest},
		{"earlier rule wins", "blood pressure medication", domain.TermTypeLabTest},
	}

	c := NewKeywordClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, err := c.Classify(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, class.TermType)
		})
	}
}

func TestKeywordClassifier_Classify_Fields(t *testing.T) {
	class, err := NewKeywordClassifier().Classify(context.Background(), "CPAP machine")

	require.NoError(t, err)
	assert.Equal(t, domain.TermTypeMedicalEquipment, class.TermType)
	assert.Equal(t, domain.DatasetsForTermType(domain.TermTypeMedicalEquipment), class.Datasets)
	assert.InDelta(t, 0.5, class.Confidence, 1e-9)
	assert.Equal(t, "keyword-based detection", class.Rationale)
	assert.Equal(t, []string{"CPAP machine"}, class.SearchTerms)
}
