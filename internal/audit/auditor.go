// Package audit turns a before/after pair of a risk record into audit entries.
package audit

import (
	"strconv"
	"sync"
	"time"

	"risk-assessment/internal/models"
	"risk-assessment/internal/risk"
)

// Op is the kind of write that produced a change
type Op int

const (
	OpInsert Op = iota
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpInsert:
		return "INSERT"
	case OpUpdate:
		return "UPDATE"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Change is one logical write of a risk record.
// Old is nil on creation, New is nil on deletion.
type Change struct {
	Op    Op
	Old   *models.RiskRecord
	New   *models.RiskRecord
	Actor models.Actor
}

type reasons struct {
	initial string
	updated string
}

var fieldReasons = map[models.AuditField]reasons{
	models.FieldSeverity:          {"Initial severity set", "Severity updated"},
	models.FieldLikelihood:        {"Initial likelihood set", "Likelihood updated"},
	models.FieldRiskScore:         {"Initial risk score calculated", "Risk score recalculated"},
	models.FieldRiskLevel:         {"Initial risk level determined", "Risk level changed"},
	models.FieldMitigationActions: {"Initial mitigation actions set", "Mitigation actions updated"},
	models.FieldCustomNotes:       {"Initial custom notes set", "Custom notes updated"},
}

// Auditor computes audit entries. It has no side effects besides advancing its clock.
type Auditor struct {
	now func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewAuditor creates an auditor using the wall clock
func NewAuditor() *Auditor {
	return NewAuditorWithClock(time.Now)
}

// NewAuditorWithClock creates an auditor reading time from now
func NewAuditorWithClock(now func() time.Time) *Auditor {
	return &Auditor{now: now}
}

// Audit returns the entries for a change in fixed field order.
// Deletions produce no entries.
func (a *Auditor) Audit(c Change) []models.AuditEntry {
	if c.Op == OpDelete || c.New == nil {
		return nil
	}

	var out []models.AuditEntry
	emit := func(field models.AuditField, oldVal, newVal *string, initial bool) {
		reason := fieldReasons[field].updated
		if initial {
			reason = fieldReasons[field].initial
		}
		out = append(out, models.AuditEntry{
			AssessmentID:   c.New.AssessmentID,
			RiskFactorID:   c.New.RiskFactorID,
			FieldName:      field,
			OldValue:       oldVal,
			NewValue:       newVal,
			ChangedByName:  c.Actor.Name,
			ChangedByEmail: c.Actor.Email,
			ChangeReason:   reason,
		})
	}

	newState := risk.Derive(*c.New)

	if c.Old == nil {
		emit(models.FieldSeverity, nil, intText(c.New.Severity), true)
		emit(models.FieldLikelihood, nil, intText(c.New.Likelihood), true)
		emit(models.FieldRiskScore, nil, intText(newState.RiskScore), true)
		emit(models.FieldRiskLevel, nil, levelText(newState.RiskLevel), true)
		if c.New.MitigationActions != nil {
			emit(models.FieldMitigationActions, nil, c.New.MitigationActions, true)
		}
		if c.New.CustomNotes != nil {
			emit(models.FieldCustomNotes, nil, c.New.CustomNotes, true)
		}
		return a.stamp(out)
	}

	oldState := risk.Derive(*c.Old)

	if c.Old.Severity != c.New.Severity {
		emit(models.FieldSeverity, intText(c.Old.Severity), intText(c.New.Severity), false)
	}
	if c.Old.Likelihood != c.New.Likelihood {
		emit(models.FieldLikelihood, intText(c.Old.Likelihood), intText(c.New.Likelihood), false)
	}
	if oldState.RiskScore != newState.RiskScore {
		emit(models.FieldRiskScore, intText(oldState.RiskScore), intText(newState.RiskScore), false)
	}
	if oldState.RiskLevel != newState.RiskLevel {
		emit(models.FieldRiskLevel, levelText(oldState.RiskLevel), levelText(newState.RiskLevel), false)
	}
	if IsDistinct(c.Old.MitigationActions, c.New.MitigationActions) {
		emit(models.FieldMitigationActions, c.Old.MitigationActions, c.New.MitigationActions, false)
	}
	if IsDistinct(c.Old.CustomNotes, c.New.CustomNotes) {
		emit(models.FieldCustomNotes, c.Old.CustomNotes, c.New.CustomNotes, false)
	}

	return a.stamp(out)
}

// IsDistinct compares like SQL IS DISTINCT FROM: two nils are equal,
// nil and non-nil are distinct.
func IsDistinct(a, b *string) bool {
	if a == nil || b == nil {
		return a != b
	}
	return *a != *b
}

// stamp assigns strictly increasing timestamps at database precision
func (a *Auditor) stamp(entries []models.AuditEntry) []models.AuditEntry {
	if len(entries) == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range entries {
		t := a.now().Truncate(time.Microsecond)
		if !t.After(a.last) {
			t = a.last.Add(time.Microsecond)
		}
		a.last = t
		entries[i].ChangedAt = t
	}
	return entries
}

func intText(v int) *string {
	s := strconv.Itoa(v)
	return &s
}

func levelText(l models.RiskLevel) *string {
	s := string(l)
	return &s
}
