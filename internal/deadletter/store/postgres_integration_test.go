//go:build integration

package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"gatepass/internal/deadletter/models"
	"gatepass/internal/deadletter/store"
	"gatepass/pkg/platform/sentinel"
	"gatepass/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T(), "../../../migrations")
	s.store = store.NewPostgres(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background(), "failure_records"))
}

func newTestRecord() *models.FailureRecord {
	return &models.FailureRecord{
		ID:         uuid.New(),
		RawPayload: json.RawMessage(`{"b":2,"a":1}`),
		Reason:     "validation failed",
		Details:    map[string]string{"full_name": "missing"},
		Email:      "jane@x.com",
		Status:     models.StatusPending,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

// TestRawPayloadRoundTripsVerbatim guards the byte-exact preservation of the
// captured payload, including key order the database would reorder if the
// column were jsonb.
func (s *PostgresStoreSuite) TestRawPayloadRoundTripsVerbatim() {
	ctx := context.Background()
	rec := newTestRecord()
	s.Require().NoError(s.store.Insert(ctx, rec))

	got, err := s.store.FindByID(ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(`{"b":2,"a":1}`, string(got.RawPayload))
	s.Equal(map[string]string{"full_name": "missing"}, got.Details)
}

func (s *PostgresStoreSuite) TestListFiltersByStatus() {
	ctx := context.Background()
	pending := newTestRecord()
	s.Require().NoError(s.store.Insert(ctx, pending))

	ignored := newTestRecord()
	ignored.Status = models.StatusIgnored
	s.Require().NoError(s.store.Insert(ctx, ignored))

	got, err := s.store.List(ctx, models.StatusPending)
	s.Require().NoError(err)
	s.Len(got, 1)
	s.Equal(pending.ID, got[0].ID)

	all, err := s.store.List(ctx, "")
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *PostgresStoreSuite) TestUpdateResolvedTransition() {
	ctx := context.Background()
	rec := newTestRecord()
	rec.Name = "Jane Doe"
	s.Require().NoError(s.store.Insert(ctx, rec))

	now := time.Now().UTC().Truncate(time.Microsecond)
	rec.MarkResolved(now)
	s.Require().NoError(s.store.Update(ctx, rec))

	got, err := s.store.FindByID(ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusResolved, got.Status)
	s.Require().NotNil(got.ResolvedAt)
	s.WithinDuration(now, *got.ResolvedAt, time.Second)
}

func (s *PostgresStoreSuite) TestDeleteAndNotFound() {
	ctx := context.Background()
	rec := newTestRecord()
	s.Require().NoError(s.store.Insert(ctx, rec))
	s.Require().NoError(s.store.Delete(ctx, rec.ID))

	_, err := s.store.FindByID(ctx, rec.ID)
	s.True(errors.Is(err, sentinel.ErrNotFound))

	err = s.store.Delete(ctx, uuid.New())
	s.True(errors.Is(err, sentinel.ErrNotFound))
}
