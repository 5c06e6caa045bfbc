package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDecision_IsValid tests decision validation
func TestDecision_IsValid(t *testing.T) {
	for _, d := range []Decision{DecisionSufficient, DecisionRefine, DecisionComplete} {
		assert.True(t, d.IsValid(), "decision %s should be valid", d)
	}
	assert.False(t, Decision("maybe").IsValid())
	assert.False(t, Decision("").IsValid())
}

// TestDecision_Terminal tests which decisions end the loop
func TestDecision_Terminal(t *testing.T) {
	tests := []struct {
		name     string
		decision Decision
		expected bool
	}{
		{
			name:     "sufficient ends the loop",
			decision: DecisionSufficient,
			expected: true,
		},
		{
			name:     "complete ends the loop",
			decision: DecisionComplete,
			expected: true,
		},
		{
			name:     "refine continues the loop",
			decision: DecisionRefine,
			expected: false,
		},
		{
			name:     "unknown does not terminate",
			decision: Decision("maybe"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.decision.Terminal())
		})
	}
}

// TestRefinementStrategy_IsValid tests strategy validation
func TestRefinementStrategy_IsValid(t *testing.T) {
	for _, s := range []RefinementStrategy{StrategyBroaden, StrategyNarrow, StrategyAlternative, StrategySufficient} {
		assert.True(t, s.IsValid(), "strategy %s should be valid", s)
	}
	assert.False(t, RefinementStrategy("pivot").IsValid())
	assert.False(t, RefinementStrategy("").IsValid())
}
