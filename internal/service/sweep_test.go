package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"github.com/youngchun/callforward/internal/api/dto"
	"github.com/youngchun/callforward/internal/domain/binding"
	"github.com/youngchun/callforward/internal/domain/processedevent"
	"github.com/youngchun/callforward/internal/metrics"
	"github.com/youngchun/callforward/internal/testutil"
	"github.com/youngchun/callforward/internal/types"
)

type SweepServiceSuite struct {
	testutil.BaseServiceTestSuite
	service SweepService
}

func TestSweepService(t *testing.T) {
	suite.Run(t, new(SweepServiceSuite))
}

func (s *SweepServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.SetNow(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	s.service = NewSweepService(newTestServiceParams(&s.BaseServiceTestSuite))
}

func (s *SweepServiceSuite) createBinding(userID string, expireAt time.Time) *binding.Binding {
	b := &binding.Binding{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_NUMBER_BINDING),
		UserID:      userID,
		PhoneNumber: fmt.Sprintf("+1555111%04d", len(s.GetStores().BindingRepo.All(s.GetContext()))),
		ResourceID:  "PN" + userID,
		StartAt:     expireAt.AddDate(0, -1, 0),
		ExpireAt:    expireAt,
		BaseModel:   types.NewBaseModel(expireAt.AddDate(0, -1, 0)),
	}
	s.Require().NoError(s.GetStores().BindingRepo.Create(s.GetContext(), b))
	return b
}

func (s *SweepServiceSuite) get(id string) *binding.Binding {
	b, err := s.GetStores().BindingRepo.Get(s.GetContext(), id)
	s.Require().NoError(err)
	return b
}

func (s *SweepServiceSuite) TestSweepReleasesExpiredBinding() {
	expired := s.createBinding("u1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	active := s.createBinding("u2", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))

	resp, err := s.service.Sweep(s.GetContext())
	s.Require().NoError(err)

	s.Equal(1, resp.Checked)
	s.Equal(1, resp.Released)
	s.Equal(0, resp.Failed)
	s.Require().Len(resp.Results, 1)
	s.Equal(dto.SweepRowReleased, resp.Results[0].Status)
	s.Equal(expired.ID, resp.Results[0].BindingID)

	got := s.get(expired.ID)
	s.True(got.IsReleased)
	s.Require().NotNil(got.ReleasedAt)
	s.Equal(s.GetNow(), *got.ReleasedAt)
	s.Equal([]string{expired.ResourceID}, s.GetFakes().Telephony.Releases())

	s.False(s.get(active.ID).IsReleased)
}

func (s *SweepServiceSuite) TestSweepIsIdempotent() {
	s.createBinding("u1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	_, err := s.service.Sweep(s.GetContext())
	s.Require().NoError(err)

	resp, err := s.service.Sweep(s.GetContext())
	s.Require().NoError(err)
	s.Equal(0, resp.Checked)
	s.Equal(0, resp.Released)
	s.Empty(resp.Results)
	s.Len(s.GetFakes().Telephony.Releases(), 1)
}

func (s *SweepServiceSuite) TestProviderFailureStillMarksReleased() {
	b := s.createBinding("u1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s.GetFakes().Telephony.SetReleaseErr(errors.New("twilio 503"))

	resp, err := s.service.Sweep(s.GetContext())
	s.Require().NoError(err)

	s.Equal(1, resp.Released)
	s.Equal(1, resp.Failed)
	s.Equal(1, resp.FailedProvider)
	s.Equal(0, resp.FailedLedger)
	s.Equal(dto.SweepRowFailedProvider, resp.Results[0].Status)
	s.NotEmpty(resp.Results[0].Error)
	s.True(s.get(b.ID).IsReleased)
	s.Equal(1.0, promtestutil.ToFloat64(s.GetMetrics().SweepRows.WithLabelValues(metrics.OutcomeProviderFailed)))
}

func (s *SweepServiceSuite) TestLedgerFailureLeavesRowEligible() {
	b := s.createBinding("u1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s.GetStores().BindingRepo.FailMarkReleased(errors.New("update failed"))

	resp, err := s.service.Sweep(s.GetContext())
	s.Require().NoError(err)
	s.Equal(0, resp.Released)
	s.Equal(1, resp.Failed)
	s.Equal(1, resp.FailedLedger)
	s.Equal(dto.SweepRowFailedLedger, resp.Results[0].Status)
	s.False(s.get(b.ID).IsReleased)

	// the provider side is done, the next sweep only fixes the ledger
	s.GetStores().BindingRepo.FailMarkReleased(nil)
	resp, err = s.service.Sweep(s.GetContext())
	s.Require().NoError(err)
	s.Equal(1, resp.Released)
	s.True(s.get(b.ID).IsReleased)
	s.Len(s.GetFakes().Telephony.Releases(), 1)
}

func (s *SweepServiceSuite) TestFailedReleaseMarkerStillMarksReleased() {
	b := s.createBinding("u1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s.GetStores().ProcessedEventRepo.FailRecord(errors.New("insert failed"))

	resp, err := s.service.Sweep(s.GetContext())
	s.Require().NoError(err)

	s.Equal(1, resp.Released)
	s.Equal(0, resp.Failed)
	s.Equal(dto.SweepRowReleased, resp.Results[0].Status)
	s.True(s.get(b.ID).IsReleased)
	s.Equal([]string{b.ResourceID}, s.GetFakes().Telephony.Releases())
}

func (s *SweepServiceSuite) TestFailedMarkerCheckStillReleases() {
	b := s.createBinding("u1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s.GetStores().ProcessedEventRepo.FailExists(errors.New("select failed"))

	resp, err := s.service.Sweep(s.GetContext())
	s.Require().NoError(err)

	s.Equal(1, resp.Released)
	s.Equal(0, resp.FailedLedger)
	s.True(s.get(b.ID).IsReleased)
	s.Len(s.GetFakes().Telephony.Releases(), 1)

	s.GetStores().ProcessedEventRepo.FailExists(nil)
	done, err := s.GetStores().ProcessedEventRepo.Exists(s.GetContext(), types.EventSourceBindingRelease, b.ID)
	s.Require().NoError(err)
	s.True(done)
}

func (s *SweepServiceSuite) TestSkipsReleaseMarkedAtProvider() {
	b := s.createBinding("u1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	_, err := s.GetStores().ProcessedEventRepo.Record(s.GetContext(), &processedevent.ProcessedEvent{
		Source:  types.EventSourceBindingRelease,
		EventID: b.ID,
	})
	s.Require().NoError(err)

	resp, err := s.service.Sweep(s.GetContext())
	s.Require().NoError(err)
	s.Equal(1, resp.Released)
	s.Empty(s.GetFakes().Telephony.Releases())
}

func (s *SweepServiceSuite) TestSkipsBindingExtendedConcurrently() {
	b := s.createBinding("u1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	repo := s.GetStores().BindingRepo
	repo.AfterListExpired(func() {
		_, err := repo.ExtendExpiry(context.Background(), b.ID, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
		s.Require().NoError(err)
	})

	resp, err := s.service.Sweep(s.GetContext())
	s.Require().NoError(err)
	s.Equal(1, resp.Checked)
	s.Equal(0, resp.Released)
	s.Equal(1, resp.Skipped)
	s.Equal(dto.SweepRowSkipped, resp.Results[0].Status)
	s.False(s.get(b.ID).IsReleased)
	s.Empty(s.GetFakes().Telephony.Releases())
}

func (s *SweepServiceSuite) TestResultsAreCapped() {
	for i := 0; i < dto.MaxSweepResults+5; i++ {
		s.createBinding(fmt.Sprintf("u%d", i), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	}

	resp, err := s.service.Sweep(s.GetContext())
	s.Require().NoError(err)
	s.Equal(dto.MaxSweepResults+5, resp.Checked)
	s.Equal(dto.MaxSweepResults+5, resp.Released)
	s.Len(resp.Results, dto.MaxSweepResults)
}
