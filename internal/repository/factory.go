package repository

import (
	"github.com/youngchun/callforward/internal/domain/binding"
	"github.com/youngchun/callforward/internal/domain/callevent"
	"github.com/youngchun/callforward/internal/domain/leave"
	"github.com/youngchun/callforward/internal/domain/messageattempt"
	"github.com/youngchun/callforward/internal/domain/processedevent"
	"github.com/youngchun/callforward/internal/domain/pushsubscription"
	"github.com/youngchun/callforward/internal/domain/subscription"
	"github.com/youngchun/callforward/internal/domain/usersettings"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/postgres"
	postgresRepo "github.com/youngchun/callforward/internal/repository/postgres"
)

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(db, logger)
}

func NewBindingRepository(db *postgres.DB, logger *logger.Logger) binding.Repository {
	return postgresRepo.NewBindingRepository(db, logger)
}

func NewProcessedEventRepository(db *postgres.DB, logger *logger.Logger) processedevent.Repository {
	return postgresRepo.NewProcessedEventRepository(db, logger)
}

func NewCallEventRepository(db *postgres.DB, logger *logger.Logger) callevent.Repository {
	return postgresRepo.NewCallEventRepository(db, logger)
}

func NewLeaveRepository(db *postgres.DB, logger *logger.Logger) leave.Repository {
	return postgresRepo.NewLeaveRepository(db, logger)
}

func NewPushSubscriptionRepository(db *postgres.DB, logger *logger.Logger) pushsubscription.Repository {
	return postgresRepo.NewPushSubscriptionRepository(db, logger)
}

func NewMessageAttemptRepository(db *postgres.DB, logger *logger.Logger) messageattempt.Repository {
	return postgresRepo.NewMessageAttemptRepository(db, logger)
}

func NewUserSettingsRepository(db *postgres.DB, logger *logger.Logger) usersettings.Repository {
	return postgresRepo.NewUserSettingsRepository(db, logger)
}
