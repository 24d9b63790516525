package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/mlctf/internal/dependencies/mocks"
	"github.com/mcoot/mlctf/internal/model"
	"github.com/mcoot/mlctf/internal/storage/memory"
	"github.com/mcoot/mlctf/internal/testutil"
)

// endedRuns records the runs ended through the service
type endedRuns struct {
	ids []model.RunID
	err error
}

func (e *endedRuns) EndRun(ctx context.Context, runID model.RunID) error {
	e.ids = append(e.ids, runID)
	return e.err
}

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	runs    *endedRuns
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.runs = &endedRuns{}
	s.service = New(s.storage, s.runs, s.clock, s.random, testutil.NopLogger(), Config{SessionDuration: time.Hour})
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestCreateSucceeds() {
	s.random.Queue("abc")

	session, err := s.service.Create(s.ctx, "run-1")
	s.Require().NoError(err)

	s.Equal("sess_abc", session.Token)
	s.Equal(s.clock.Now().Add(time.Hour), session.ExpiresAt)

	stored, err := s.storage.GetSession(s.ctx, "sess_abc")
	s.Require().NoError(err)
	s.Equal(session.RunID, stored.RunID)
}

func (s *ServiceSuite) TestValidateSucceeds() {
	s.random.Queue("abc")
	session, _ := s.service.Create(s.ctx, "run-1")

	validated, err := s.service.Validate(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Equal(session.RunID, validated.RunID)
}

func (s *ServiceSuite) TestValidateUnknownToken() {
	_, err := s.service.Validate(s.ctx, "sess_nope")
	s.ErrorIs(err, ErrInvalidSession)

	_, err = s.service.Validate(s.ctx, "")
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestValidateExpiredSessionIsRemoved() {
	s.random.Queue("abc")
	session, _ := s.service.Create(s.ctx, "run-1")

	s.clock.Advance(2 * time.Hour)

	_, err := s.service.Validate(s.ctx, session.Token)
	s.ErrorIs(err, ErrInvalidSession)

	_, err = s.storage.GetSession(s.ctx, session.Token)
	s.Error(err)
}

func (s *ServiceSuite) TestValidateExpiredSessionEndsRun() {
	s.random.Queue("abc")
	session, _ := s.service.Create(s.ctx, "run-1")

	_, err := s.service.Validate(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Empty(s.runs.ids)

	s.clock.Advance(48 * time.Hour)
	_, err = s.service.Validate(s.ctx, session.Token)
	s.ErrorIs(err, ErrInvalidSession)
	s.Equal([]model.RunID{"run-1"}, s.runs.ids)
}

func (s *ServiceSuite) TestValidateExpiredSessionLogsEndRunFailure() {
	logger, logs := testutil.CaptureLogger()
	s.runs.err = errors.New("storage down")
	s.service = New(s.storage, s.runs, s.clock, s.random, logger, Config{SessionDuration: time.Hour})

	s.random.Queue("abc")
	session, _ := s.service.Create(s.ctx, "run-1")
	s.clock.Advance(2 * time.Hour)

	_, err := s.service.Validate(s.ctx, session.Token)
	s.ErrorIs(err, ErrInvalidSession)

	rec := logs.Find("failed to end run of expired session")
	s.Require().NotNil(rec)
	s.Equal("run-1", rec["run_id"])
	s.Equal("storage down", rec["error"])
}

func (s *ServiceSuite) TestInvalidate() {
	s.random.Queue("abc")
	session, _ := s.service.Create(s.ctx, "run-1")

	s.Require().NoError(s.service.Invalidate(s.ctx, session.Token))

	_, err := s.service.Validate(s.ctx, session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}
