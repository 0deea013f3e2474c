package service

import (
	"context"
	"strings"

	"github.com/samber/lo"
	"github.com/youngchun/callforward/internal/api/dto"
	"github.com/youngchun/callforward/internal/domain/usersettings"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/types"
)

// UserSettingsService keeps the trip window of a user and their pre-departure checklist state
type UserSettingsService interface {
	// SaveTravelSettings replaces the settings of the user
	SaveTravelSettings(ctx context.Context, req dto.SaveTravelSettingsRequest) (*dto.TravelSettingsResponse, error)
	GetTravelSettings(ctx context.Context, userID string) (*dto.TravelSettingsResponse, error)

	// CompletePrepare records a checklist completion. Every call adds a record.
	CompletePrepare(ctx context.Context, req dto.CompletePrepareRequest) (*dto.PrepareStatusResponse, error)
	// GetPrepareStatus reports the newest completion, or Completed false when there is none
	GetPrepareStatus(ctx context.Context, userID string) (*dto.PrepareStatusResponse, error)
}

type userSettingsService struct {
	ServiceParams
}

func NewUserSettingsService(params ServiceParams) UserSettingsService {
	return &userSettingsService{
		ServiceParams: params,
	}
}

func (s *userSettingsService) SaveTravelSettings(ctx context.Context, req dto.SaveTravelSettingsRequest) (*dto.TravelSettingsResponse, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.MessageType = strings.TrimSpace(req.MessageType)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start, end, err := req.Dates()
	if err != nil {
		return nil, err
	}

	now := s.now()
	settings := &usersettings.TravelSettings{
		UserID:      req.UserID,
		StartDate:   start,
		EndDate:     end,
		Notify:      lo.FromPtr(req.Notify),
		MessageType: lo.Ternary(req.MessageType == "", usersettings.DefaultMessageType, req.MessageType),
		Contact:     lo.EmptyableToPtr(strings.TrimSpace(req.Contact)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.UserSettingsRepo.UpsertTravelSettings(ctx, settings); err != nil {
		return nil, err
	}

	s.Logger.Infow("saved travel settings",
		"user_id", settings.UserID,
		"start_date", req.StartDate,
		"end_date", req.EndDate,
		"notify", settings.Notify,
	)
	return dto.NewTravelSettingsResponse(settings, now), nil
}

func (s *userSettingsService) GetTravelSettings(ctx context.Context, userID string) (*dto.TravelSettingsResponse, error) {
	userID, err := requireUserID(userID)
	if err != nil {
		return nil, err
	}

	settings, err := s.UserSettingsRepo.GetTravelSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewTravelSettingsResponse(settings, s.now()), nil
}

func (s *userSettingsService) CompletePrepare(ctx context.Context, req dto.CompletePrepareRequest) (*dto.PrepareStatusResponse, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	status := &usersettings.PrepareStatus{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PREPARE_STATUS),
		UserID:           req.UserID,
		CustomerID:       lo.EmptyableToPtr(strings.TrimSpace(req.CustomerID)),
		PrepareCompleted: true,
		CompletedAt:      s.now(),
	}
	if err := s.UserSettingsRepo.CreatePrepareStatus(ctx, status); err != nil {
		return nil, err
	}

	s.Logger.Infow("recorded prepare completion",
		"user_id", status.UserID,
		"prepare_status_id", status.ID,
	)
	return prepareStatusResponse(status), nil
}

func (s *userSettingsService) GetPrepareStatus(ctx context.Context, userID string) (*dto.PrepareStatusResponse, error) {
	userID, err := requireUserID(userID)
	if err != nil {
		return nil, err
	}

	status, err := s.UserSettingsRepo.GetLatestPrepareStatus(ctx, userID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return &dto.PrepareStatusResponse{UserID: userID}, nil
		}
		return nil, err
	}
	return prepareStatusResponse(status), nil
}

func prepareStatusResponse(status *usersettings.PrepareStatus) *dto.PrepareStatusResponse {
	return &dto.PrepareStatusResponse{
		UserID:      status.UserID,
		Completed:   status.PrepareCompleted,
		CustomerID:  status.CustomerID,
		CompletedAt: lo.ToPtr(status.CompletedAt),
	}
}

func requireUserID(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ierr.NewError("user_id is required").
			WithHint("User ID is required").
			Mark(ierr.ErrValidation)
	}
	return userID, nil
}
