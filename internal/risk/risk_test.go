package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"risk-assessment/internal/models"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		score int
		want  models.RiskLevel
	}{
		{1, models.RiskLevelLow},
		{4, models.RiskLevelLow},
		{5, models.RiskLevelMedium},
		{8, models.RiskLevelMedium},
		{9, models.RiskLevelHigh},
		{25, models.RiskLevelHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.score), "score %d", tt.score)
	}
}

func TestDerive(t *testing.T) {
	got := Derive(models.RiskRecord{Severity: 2, Likelihood: 3})
	assert.Equal(t, models.DerivedRiskState{RiskScore: 6, RiskLevel: models.RiskLevelMedium}, got)

	got = Derive(models.RiskRecord{Severity: 3, Likelihood: 3})
	assert.Equal(t, 9, got.RiskScore)
	assert.Equal(t, models.RiskLevelHigh, got.RiskLevel)
}

func TestDerive_AllRatingsAgreeWithBands(t *testing.T) {
	for s := MinRating; s <= MaxRating; s++ {
		for l := MinRating; l <= MaxRating; l++ {
			d := Derive(models.RiskRecord{Severity: s, Likelihood: l})
			assert.Equal(t, s*l, d.RiskScore)
			assert.Equal(t, LevelFor(s*l), d.RiskLevel)
		}
	}
}

func TestValidRating(t *testing.T) {
	assert.False(t, ValidRating(0))
	assert.True(t, ValidRating(1))
	assert.True(t, ValidRating(5))
	assert.False(t, ValidRating(6))
}

func TestOverall(t *testing.T) {
	_, ok := Overall(nil)
	assert.False(t, ok)

	state, ok := Overall([]models.RiskRecord{
		{Severity: 1, Likelihood: 2},
		{Severity: 4, Likelihood: 3},
		{Severity: 2, Likelihood: 2},
	})
	assert.True(t, ok)
	assert.Equal(t, 12, state.RiskScore)
	assert.Equal(t, models.RiskLevelHigh, state.RiskLevel)
}
