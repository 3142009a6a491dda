// Package risk computes the derived values of a risk record.
package risk

import "risk-assessment/internal/models"

// Severity and likelihood are rated on the same 1..5 scale
const (
	MinRating = 1
	MaxRating = 5
)

// Upper bounds (inclusive) of the Low and Medium bands
const (
	lowMax    = 4
	mediumMax = 8
)

// Score returns severity times likelihood
func Score(severity, likelihood int) int {
	return severity * likelihood
}

// LevelFor maps a risk score onto its band
func LevelFor(score int) models.RiskLevel {
	switch {
	case score <= lowMax:
		return models.RiskLevelLow
	case score <= mediumMax:
		return models.RiskLevelMedium
	default:
		return models.RiskLevelHigh
	}
}

// Derive computes score and level of a record
func Derive(r models.RiskRecord) models.DerivedRiskState {
	score := Score(r.Severity, r.Likelihood)
	return models.DerivedRiskState{
		RiskScore: score,
		RiskLevel: LevelFor(score),
	}
}

// ValidRating reports whether v lies on the rating scale
func ValidRating(v int) bool {
	return v >= MinRating && v <= MaxRating
}

// Overall returns the highest score among records and its level.
// ok is false when records is empty.
func Overall(records []models.RiskRecord) (state models.DerivedRiskState, ok bool) {
	for i, r := range records {
		d := Derive(r)
		if i == 0 || d.RiskScore > state.RiskScore {
			state = d
		}
	}
	return state, len(records) > 0
}
