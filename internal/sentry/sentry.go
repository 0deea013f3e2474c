package sentry

import (
	"context"
	"fmt"
	"time"

	"github.com/youngchun/callforward/internal/config"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/getsentry/sentry-go"
	"go.uber.org/fx"
)

type Service struct {
	cfg    *config.Configuration
	logger *logger.Logger
}

// Module provides fx options for Sentry
func Module() fx.Option {
	return fx.Options(
		fx.Provide(NewSentryService),
		fx.Invoke(RegisterHooks),
	)
}

// RegisterHooks registers lifecycle hooks for Sentry
func RegisterHooks(lc fx.Lifecycle, svc *Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !svc.cfg.Sentry.Enabled {
				svc.logger.Info("Sentry is disabled")
				return nil
			}

			err := sentry.Init(sentry.ClientOptions{
				Dsn:              svc.cfg.Sentry.DSN,
				Environment:      svc.cfg.Sentry.Environment,
				EnableTracing:    true,
				TracesSampleRate: svc.cfg.Sentry.SampleRate,
				BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
					return event
				},
				TracesSampler: sentry.TracesSampler(func(ctx sentry.SamplingContext) float64 {
					if ctx.Span.Name == "GET /health" || ctx.Span.Name == "GET /metrics" {
						return 0.0
					}
					return svc.cfg.Sentry.SampleRate
				}),
			})
			if err != nil {
				svc.logger.Errorw("Failed to initialize Sentry", "error", err)
				return err
			}
			svc.logger.Infow("Sentry initialized successfully",
				"environment", svc.cfg.Sentry.Environment,
				"sample_rate", svc.cfg.Sentry.SampleRate,
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if svc.cfg.Sentry.Enabled {
				svc.logger.Info("Flushing Sentry events before shutdown")
				sentry.Flush(2 * time.Second)
			}
			return nil
		},
	})
}

// NewSentryService creates a new Sentry service
func NewSentryService(cfg *config.Configuration, logger *logger.Logger) *Service {
	return &Service{
		cfg:    cfg,
		logger: logger,
	}
}

// CaptureException captures an error in Sentry
func (s *Service) CaptureException(err error) {
	if !s.cfg.Sentry.Enabled {
		return
	}
	sentry.CaptureException(err)
}

// Flush waits for queued events to be sent
func (s *Service) Flush(timeout uint) bool {
	if !s.cfg.Sentry.Enabled {
		return true
	}
	return sentry.Flush(time.Duration(timeout) * time.Second)
}

// StartDBSpan starts a new database span in the current transaction
func (s *Service) StartDBSpan(ctx context.Context, operation string, params map[string]interface{}) (*sentry.Span, context.Context) {
	if !s.cfg.Sentry.Enabled {
		return nil, ctx
	}

	span := sentry.StartSpan(ctx, operation)
	if span != nil {
		span.Description = operation
		span.Op = "db.postgres"

		for k, v := range params {
			span.SetData(k, v)
		}
	}

	return span, span.Context()
}

// StartProviderSpan starts a span around a call to an external provider (twilio, stripe, push)
func (s *Service) StartProviderSpan(ctx context.Context, provider, operation string, params map[string]interface{}) (*sentry.Span, context.Context) {
	if !s.cfg.Sentry.Enabled {
		return nil, ctx
	}

	span := sentry.StartSpan(ctx, provider+"."+operation)
	if span != nil {
		span.Description = operation
		span.Op = "http.client." + provider

		for k, v := range params {
			span.SetData(k, v)
		}
	}

	return span, span.Context()
}

// CaptureReconciliationGap reports a purchased number that could neither be
// bound to its user nor released. These need manual cleanup at the provider.
func (s *Service) CaptureReconciliationGap(err error, userID, resourceID, phoneNumber string) {
	if !s.cfg.Sentry.Enabled {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelFatal)
		scope.SetTag("reconciliation_gap", "true")
		scope.SetTag("user_id", userID)
		scope.SetContext("number", sentry.Context{
			"twilio_sid":    resourceID,
			"twilio_number": phoneNumber,
		})
		sentry.CaptureException(err)
	})
}

// MonitorTaskProcessing tracks background task processing in Sentry
func (s *Service) MonitorTaskProcessing(ctx context.Context, taskName string, enqueuedAt time.Time, metadata map[string]interface{}) (*sentry.Span, context.Context) {
	if !s.cfg.Sentry.Enabled {
		return nil, ctx
	}

	span := sentry.StartSpan(ctx, "task.process")
	if span != nil {
		span.Description = "Processing " + taskName
		span.Op = "task.process"
		span.SetData("task_name", taskName)

		lag := time.Since(enqueuedAt)
		lagMs := lag.Milliseconds()
		span.SetData("lag_ms", lagMs)

		tx := sentry.TransactionFromContext(ctx)
		if tx != nil {
			tx.SetTag("task.lag.ms", fmt.Sprintf("%d", lagMs))

			if lag >= time.Minute {
				tx.SetTag("task.lag.severity", "critical")
			} else if lag >= 10*time.Second {
				tx.SetTag("task.lag.severity", "warning")
			} else {
				tx.SetTag("task.lag.severity", "normal")
			}
		}

		for k, v := range metadata {
			span.SetData(k, v)
		}
	}

	return span, span.Context()
}
