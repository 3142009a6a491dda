package service

import (
	"context"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risk-assessment/internal/apperr"
	"risk-assessment/internal/audit"
	"risk-assessment/internal/config"
	"risk-assessment/internal/metrics"
	"risk-assessment/internal/models"
)

func newTestAuditService(store *memAudit) *AuditService {
	return NewAuditService(store, audit.NewAuditor(), config.AuditConfig{DefaultLimit: 100, MaxLimit: 1000})
}

func seedTrail(t *testing.T, s *AuditService) {
	t.Helper()
	changes := []audit.Change{
		{Op: audit.OpInsert, Actor: pi, New: &models.RiskRecord{AssessmentID: 7, RiskFactorID: 1, Severity: 2, Likelihood: 2}},
		{Op: audit.OpInsert, Actor: pi, New: &models.RiskRecord{AssessmentID: 7, RiskFactorID: 2, Severity: 1, Likelihood: 1}},
		{
			Op: audit.OpUpdate, Actor: sd,
			Old: &models.RiskRecord{AssessmentID: 7, RiskFactorID: 1, Severity: 2, Likelihood: 2},
			New: &models.RiskRecord{AssessmentID: 7, RiskFactorID: 1, Severity: 3, Likelihood: 2},
		},
	}
	n, err := s.Record(context.Background(), changes)
	require.NoError(t, err)
	require.Equal(t, 4+4+3, n)
}

func TestAuditService_Record(t *testing.T) {
	store := &memAudit{}
	s := newTestAuditService(store)
	before := promtest.ToFloat64(metrics.AuditEntriesWritten.WithLabelValues(string(models.FieldRiskLevel)))

	seedTrail(t, s)

	assert.Equal(t, before+3, promtest.ToFloat64(metrics.AuditEntriesWritten.WithLabelValues(string(models.FieldRiskLevel))))
	for i := 1; i < len(store.entries); i++ {
		assert.True(t, store.entries[i].ChangedAt.After(store.entries[i-1].ChangedAt))
	}
}

func TestAuditService_RecordNothing(t *testing.T) {
	store := &memAudit{err: assert.AnError}
	s := newTestAuditService(store)

	// deletes and empty batches never reach the store
	n, err := s.Record(context.Background(), []audit.Change{
		{Op: audit.OpDelete, Actor: pi, Old: &models.RiskRecord{AssessmentID: 7, RiskFactorID: 1, Severity: 1, Likelihood: 1}},
	})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.Record(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAuditService_Slices(t *testing.T) {
	store := &memAudit{}
	s := newTestAuditService(store)
	seedTrail(t, s)
	ctx := context.Background()

	trail, err := s.Trail(ctx, 7, TrailQuery{})
	require.NoError(t, err)
	assert.Len(t, trail, 11)

	scores, err := s.FieldChanges(ctx, 7, models.FieldRiskScore, nil, 0)
	require.NoError(t, err)
	require.Len(t, scores, 3)
	assert.Equal(t, "6", *scores[2].NewValue)

	byUser, err := s.UserChanges(ctx, 7, " SD@Flourish.test ", 0)
	require.NoError(t, err)
	assert.Len(t, byUser, 3)

	_, err = s.UserChanges(ctx, 7, "  ", 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	second, err := s.RiskFactorChanges(ctx, 7, 2, 0)
	require.NoError(t, err)
	assert.Len(t, second, 4)

	empty, err := s.Trail(ctx, 8, TrailQuery{})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	summary, err := s.Summary(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 11, summary.TotalChanges)
}

func TestAuditService_LimitClamped(t *testing.T) {
	store := &memAudit{}
	s := newTestAuditService(store)
	ctx := context.Background()

	tests := []struct {
		requested int
		want      int
	}{
		{0, 100},
		{-5, 100},
		{20, 20},
		{5000, 1000},
	}
	for _, tt := range tests {
		_, err := s.Trail(ctx, 7, TrailQuery{Limit: tt.requested})
		require.NoError(t, err)
		assert.Equal(t, tt.want, store.filters[len(store.filters)-1].Limit, "requested %d", tt.requested)
	}
}
