package service

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
	"github.com/youngchun/callforward/internal/api/dto"
	"github.com/youngchun/callforward/internal/domain/usersettings"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/testutil"
)

type UserSettingsServiceSuite struct {
	testutil.BaseServiceTestSuite
	service UserSettingsService
}

func TestUserSettingsService(t *testing.T) {
	suite.Run(t, new(UserSettingsServiceSuite))
}

func (s *UserSettingsServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewUserSettingsService(newTestServiceParams(&s.BaseServiceTestSuite))
}

func (s *UserSettingsServiceSuite) TestSaveTravelSettingsDefaults() {
	resp, err := s.service.SaveTravelSettings(s.GetContext(), dto.SaveTravelSettingsRequest{
		UserID:    "u1",
		StartDate: "2025-02-25",
		EndDate:   "2025-03-10",
	})
	s.Require().NoError(err)

	s.Equal("u1", resp.UserID)
	s.Equal("2025-02-25", resp.StartDate)
	s.Equal("2025-03-10", resp.EndDate)
	s.False(resp.Notify)
	s.Equal(usersettings.DefaultMessageType, resp.MessageType)
	s.Nil(resp.Contact)
	s.True(resp.Active)

	stored, err := s.GetStores().UserSettingsRepo.GetTravelSettings(s.GetContext(), "u1")
	s.Require().NoError(err)
	s.Equal(time.Date(2025, 2, 25, 0, 0, 0, 0, time.UTC), stored.StartDate)
	s.Equal(s.GetNow(), stored.CreatedAt)
}

func (s *UserSettingsServiceSuite) TestSaveTravelSettingsReplacesPrevious() {
	_, err := s.service.SaveTravelSettings(s.GetContext(), dto.SaveTravelSettingsRequest{
		UserID: "u1", StartDate: "2025-04-01", EndDate: "2025-04-10",
	})
	s.Require().NoError(err)
	created := s.GetNow()

	s.SetNow(created.Add(time.Hour))
	resp, err := s.service.SaveTravelSettings(s.GetContext(), dto.SaveTravelSettingsRequest{
		UserID:      "u1",
		StartDate:   "2025-05-01",
		EndDate:     "2025-05-01",
		Notify:      lo.ToPtr(true),
		MessageType: "custom",
		Contact:     " traveler@example.com ",
	})
	s.Require().NoError(err)
	s.False(resp.Active)

	got, err := s.service.GetTravelSettings(s.GetContext(), "u1")
	s.Require().NoError(err)
	s.Equal("2025-05-01", got.StartDate)
	s.Equal("2025-05-01", got.EndDate)
	s.True(got.Notify)
	s.Equal("custom", got.MessageType)
	s.Equal(lo.ToPtr("traveler@example.com"), got.Contact)
	s.Equal(s.GetNow(), got.UpdatedAt)

	stored, err := s.GetStores().UserSettingsRepo.GetTravelSettings(s.GetContext(), "u1")
	s.Require().NoError(err)
	s.Equal(created, stored.CreatedAt)
}

func (s *UserSettingsServiceSuite) TestSaveTravelSettingsValidation() {
	tests := []struct {
		name string
		req  dto.SaveTravelSettingsRequest
	}{
		{"missing user", dto.SaveTravelSettingsRequest{StartDate: "2025-04-01", EndDate: "2025-04-02"}},
		{"missing start", dto.SaveTravelSettingsRequest{UserID: "u1", EndDate: "2025-04-02"}},
		{"bad date", dto.SaveTravelSettingsRequest{UserID: "u1", StartDate: "04/01/2025", EndDate: "2025-04-02"}},
		{"end before start", dto.SaveTravelSettingsRequest{UserID: "u1", StartDate: "2025-04-02", EndDate: "2025-04-01"}},
	}
	for _, tt := range tests {
		_, err := s.service.SaveTravelSettings(s.GetContext(), tt.req)
		s.Require().Error(err, tt.name)
		s.True(ierr.IsValidation(err), tt.name)
	}
	count, err := s.GetStores().UserSettingsRepo.Count(s.GetContext(), nil, nil)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *UserSettingsServiceSuite) TestGetTravelSettingsNotFound() {
	_, err := s.service.GetTravelSettings(s.GetContext(), "u1")
	s.True(ierr.IsNotFound(err))

	_, err = s.service.GetTravelSettings(s.GetContext(), " ")
	s.True(ierr.IsValidation(err))
}

func (s *UserSettingsServiceSuite) TestPrepareStatus() {
	status, err := s.service.GetPrepareStatus(s.GetContext(), "u1")
	s.Require().NoError(err)
	s.False(status.Completed)
	s.Nil(status.CompletedAt)

	_, err = s.service.CompletePrepare(s.GetContext(), dto.CompletePrepareRequest{UserID: "u1"})
	s.Require().NoError(err)

	s.SetNow(s.GetNow().Add(time.Hour))
	done, err := s.service.CompletePrepare(s.GetContext(), dto.CompletePrepareRequest{UserID: "u1", CustomerID: "cus_1"})
	s.Require().NoError(err)
	s.True(done.Completed)

	status, err = s.service.GetPrepareStatus(s.GetContext(), "u1")
	s.Require().NoError(err)
	s.True(status.Completed)
	s.Equal(lo.ToPtr("cus_1"), status.CustomerID)
	s.Require().NotNil(status.CompletedAt)
	s.Equal(s.GetNow(), *status.CompletedAt)

	records, err := s.GetStores().UserSettingsRepo.PrepareStatuses.Count(s.GetContext(), nil, nil)
	s.Require().NoError(err)
	s.Equal(2, records)
}

func (s *UserSettingsServiceSuite) TestCompletePrepareRequiresUser() {
	_, err := s.service.CompletePrepare(s.GetContext(), dto.CompletePrepareRequest{})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}
