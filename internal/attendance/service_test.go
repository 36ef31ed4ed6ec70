package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatepass/internal/audit"
	pmodels "gatepass/internal/participant/models"
	pstore "gatepass/internal/participant/store"
	"gatepass/internal/ticket"
	dErrors "gatepass/pkg/domain-errors"
)

func newTestService(t *testing.T) (*Service, *pstore.Memory, *ticket.Codec, *audit.MemoryPublisher) {
	t.Helper()
	participants := pstore.NewMemory()
	codec := ticket.NewCodec("gate-secret")
	auditor := audit.NewMemoryPublisher()
	svc := New(participants, codec, WithAuditPublisher(auditor))
	return svc, participants, codec, auditor
}

func register(t *testing.T, participants *pstore.Memory, name, email string) {
	t.Helper()
	p := pmodels.New(name, email, time.Now())
	require.NoError(t, participants.Create(context.Background(), p))
}

func TestVerifyAndMarkRejectsForgedSignature(t *testing.T) {
	svc, participants, _, _ := newTestService(t)
	ctx := context.Background()
	register(t, participants, "Jane Doe", "jane@x.com")

	res, err := svc.VerifyAndMark(ctx, "Jane Doe", "jane@x.com", "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, KindInvalidSignature, res.Kind)
	assert.Nil(t, res.Participant)

	p, err := participants.FindByIdentity(ctx, "Jane Doe", "jane@x.com")
	require.NoError(t, err)
	assert.False(t, p.Attended, "a forged scan must not mark attendance")
}

func TestVerifyAndMarkRejectsSignatureFromOtherSecret(t *testing.T) {
	svc, participants, _, _ := newTestService(t)
	ctx := context.Background()
	register(t, participants, "Jane Doe", "jane@x.com")

	otherSig := ticket.NewCodec("other-secret").Sign("Jane Doe", "jane@x.com")
	res, err := svc.VerifyAndMark(ctx, "Jane Doe", "jane@x.com", otherSig)
	require.NoError(t, err)
	assert.Equal(t, KindInvalidSignature, res.Kind)
}

func TestVerifyAndMarkUnregistered(t *testing.T) {
	svc, _, codec, _ := newTestService(t)
	ctx := context.Background()

	// Legitimate ticket, but the holder has no participant record.
	sig := codec.Sign("Ghost Guest", "ghost@x.com")
	res, err := svc.VerifyAndMark(ctx, "Ghost Guest", "ghost@x.com", sig)
	require.NoError(t, err)
	assert.Equal(t, KindUnregistered, res.Kind)
	assert.Nil(t, res.Participant)
}

func TestVerifyAndMarkFirstScanMarksSecondReportsAlready(t *testing.T) {
	svc, participants, codec, auditor := newTestService(t)
	ctx := context.Background()
	register(t, participants, "Jane Doe", "jane@x.com")
	sig := codec.Sign("Jane Doe", "jane@x.com")

	first, err := svc.VerifyAndMark(ctx, "Jane Doe", "jane@x.com", sig)
	require.NoError(t, err)
	assert.Equal(t, KindMarked, first.Kind)
	require.NotNil(t, first.Participant)
	assert.True(t, first.Participant.Attended)

	second, err := svc.VerifyAndMark(ctx, "Jane Doe", "jane@x.com", sig)
	require.NoError(t, err)
	assert.Equal(t, KindAlreadyAttended, second.Kind)
	require.NotNil(t, second.Participant)
	assert.True(t, second.Participant.Attended)

	p, err := participants.FindByIdentity(ctx, "Jane Doe", "jane@x.com")
	require.NoError(t, err)
	assert.True(t, p.Attended)

	events := auditor.Events()
	require.Len(t, events, 1, "only the first scan emits an audit event")
	assert.Equal(t, audit.ActionAttendanceMarked, events[0].Action)
}

func TestVerifyAndMarkDistinguishesForgeryFromUnregistered(t *testing.T) {
	svc, _, codec, _ := newTestService(t)
	ctx := context.Background()

	forged, err := svc.VerifyAndMark(ctx, "Ghost Guest", "ghost@x.com", "deadbeef")
	require.NoError(t, err)

	legit, err := svc.VerifyAndMark(ctx, "Ghost Guest", "ghost@x.com",
		codec.Sign("Ghost Guest", "ghost@x.com"))
	require.NoError(t, err)

	assert.NotEqual(t, forged.Kind, legit.Kind)
	assert.Equal(t, KindInvalidSignature, forged.Kind)
	assert.Equal(t, KindUnregistered, legit.Kind)
}

func TestToggleVerifiedStatusFlipsBothWays(t *testing.T) {
	svc, participants, _, _ := newTestService(t)
	ctx := context.Background()
	register(t, participants, "Jane Doe", "jane@x.com")

	p, err := svc.ToggleVerifiedStatus(ctx, "Jane Doe", "jane@x.com")
	require.NoError(t, err)
	assert.Equal(t, pmodels.StatusVerified, p.Status)

	p, err = svc.ToggleVerifiedStatus(ctx, "Jane Doe", "jane@x.com")
	require.NoError(t, err)
	assert.Equal(t, pmodels.StatusRegistered, p.Status)
}

func TestToggleVerifiedStatusUnknownParticipant(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.ToggleVerifiedStatus(context.Background(), "Nobody", "nobody@x.com")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
