package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatepass/internal/audit"
	"gatepass/internal/deadletter/models"
	dlstore "gatepass/internal/deadletter/store"
	pstore "gatepass/internal/participant/store"
	dErrors "gatepass/pkg/domain-errors"
)

func newTestService(t *testing.T) (*Service, *dlstore.Memory, *pstore.Memory, *audit.MemoryPublisher) {
	t.Helper()
	records := dlstore.NewMemory()
	participants := pstore.NewMemory()
	auditor := audit.NewMemoryPublisher()
	svc := New(records, participants, WithAuditPublisher(auditor))
	return svc, records, participants, auditor
}

func insertRecord(t *testing.T, records *dlstore.Memory, mutate func(*models.FailureRecord)) *models.FailureRecord {
	t.Helper()
	rec := &models.FailureRecord{
		ID:         uuid.New(),
		RawPayload: json.RawMessage(`{"some":"payload"}`),
		Reason:     "validation failed",
		Status:     models.StatusPending,
		CreatedAt:  time.Now(),
	}
	if mutate != nil {
		mutate(rec)
	}
	require.NoError(t, records.Insert(context.Background(), rec))
	return rec
}

func TestListFiltersByStatus(t *testing.T) {
	svc, records, _, _ := newTestService(t)
	ctx := context.Background()
	insertRecord(t, records, nil)
	insertRecord(t, records, func(r *models.FailureRecord) { r.Status = models.StatusIgnored })

	pending, err := svc.List(ctx, models.StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.List(ctx, "bogus")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestUpdatePatchesOnlyProvidedFields(t *testing.T) {
	svc, records, _, _ := newTestService(t)
	ctx := context.Background()
	rec := insertRecord(t, records, func(r *models.FailureRecord) {
		r.Email = "jane@x.com"
		r.Phone = "555-0100"
	})

	name := "Jane Doe"
	got, err := svc.Update(ctx, rec.ID, Patch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, "jane@x.com", got.Email, "unpatched field must be untouched")
	assert.Equal(t, "555-0100", got.Phone, "unpatched field must be untouched")
}

func TestUpdateStatusTransitions(t *testing.T) {
	svc, records, _, _ := newTestService(t)
	ctx := context.Background()
	rec := insertRecord(t, records, nil)

	ignored := models.StatusIgnored
	got, err := svc.Update(ctx, rec.ID, Patch{Status: &ignored})
	require.NoError(t, err)
	assert.Equal(t, models.StatusIgnored, got.Status)

	pending := models.StatusPending
	got, err = svc.Update(ctx, rec.ID, Patch{Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)

	// Resolution only happens through Resolve.
	resolved := models.StatusResolved
	_, err = svc.Update(ctx, rec.ID, Patch{Status: &resolved})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestUpdateResolvedRecordIsRejected(t *testing.T) {
	svc, records, _, _ := newTestService(t)
	ctx := context.Background()
	rec := insertRecord(t, records, func(r *models.FailureRecord) {
		now := time.Now()
		r.Status = models.StatusResolved
		r.ResolvedAt = &now
	})

	notes := "late edit"
	_, err := svc.Update(ctx, rec.ID, Patch{Notes: &notes})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestResolvePromotesRecordToParticipant(t *testing.T) {
	svc, records, participants, auditor := newTestService(t)
	ctx := context.Background()
	rec := insertRecord(t, records, func(r *models.FailureRecord) {
		r.Name = "Jane Doe"
		r.Email = "jane@x.com"
		r.Phone = "555-0100"
	})

	got, err := svc.Resolve(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, got.Status)
	require.NotNil(t, got.ResolvedAt)

	p, err := participants.FindByIdentity(ctx, "Jane Doe", "jane@x.com")
	require.NoError(t, err)
	assert.Equal(t, "555-0100", p.Phone)

	events := auditor.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionDeadLetterResolved, events[0].Action)
}

func TestResolveInsufficientData(t *testing.T) {
	svc, records, participants, _ := newTestService(t)
	ctx := context.Background()
	rec := insertRecord(t, records, func(r *models.FailureRecord) {
		r.Email = "jane@x.com" // name still missing
	})

	_, err := svc.Resolve(ctx, rec.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	stored, err := records.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status, "failed resolve must not change status")

	all, err := participants.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestResolveExistingParticipantStillResolves(t *testing.T) {
	svc, records, participants, _ := newTestService(t)
	ctx := context.Background()

	first := insertRecord(t, records, func(r *models.FailureRecord) {
		r.Name = "Jane Doe"
		r.Email = "jane@x.com"
	})
	second := insertRecord(t, records, func(r *models.FailureRecord) {
		r.Name = "Jane Doe"
		r.Email = "jane@x.com"
	})

	_, err := svc.Resolve(ctx, first.ID)
	require.NoError(t, err)

	// The participant already exists; resolving the duplicate record must
	// still succeed because the goal state already holds.
	got, err := svc.Resolve(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, got.Status)

	all, err := participants.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestResolveTwiceIsRejected(t *testing.T) {
	svc, records, _, _ := newTestService(t)
	ctx := context.Background()
	rec := insertRecord(t, records, func(r *models.FailureRecord) {
		r.Name = "Jane Doe"
		r.Email = "jane@x.com"
	})

	_, err := svc.Resolve(ctx, rec.ID)
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, rec.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestDeleteUnknownRecord(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	err := svc.Delete(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
