package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/gotnext/internal/gotnext"
	"github.com/codr1/gotnext/internal/notify"
)

const (
	RotationJobName     = "got_next_rotation"
	NotificationJobName = "promotion_notifications"
)

// RegisterRotationJob runs a rotation tick over every court each interval.
// A failed tick is logged and retried on the next one.
func RegisterRotationJob(rotator *gotnext.Rotator, interval, timeout time.Duration) error {
	if rotator == nil {
		return fmt.Errorf("rotation job requires a rotator")
	}
	jobLogger := log.With().
		Str("component", "got_next_rotation_job").
		Str("job_name", RotationJobName).
		Dur("interval", interval).
		Logger()

	if _, err := AddIntervalJob(RotationJobName, interval, rotationTask(rotator, timeout, jobLogger)); err != nil {
		return fmt.Errorf("add rotation job: %w", err)
	}
	jobLogger.Info().Msg("Rotation job registered")
	return nil
}

// RegisterNotificationJob drains pending promotion events on cronExpr.
func RegisterNotificationJob(dispatcher *notify.Dispatcher, cronExpr string, timeout time.Duration) error {
	if dispatcher == nil {
		return fmt.Errorf("notification job requires a dispatcher")
	}
	jobLogger := log.With().
		Str("component", "promotion_notifications_job").
		Str("job_name", NotificationJobName).
		Str("cron", cronExpr).
		Logger()

	if _, err := AddJob(NotificationJobName, cronExpr, notificationTask(dispatcher, timeout, jobLogger)); err != nil {
		return fmt.Errorf("add notification job: %w", err)
	}
	jobLogger.Info().Msg("Notification job registered")
	return nil
}

func rotationTask(rotator *gotnext.Rotator, timeout time.Duration, jobLogger zerolog.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		report, err := rotator.Tick(ctx)
		if err != nil {
			jobLogger.Error().Err(err).Msg("Rotation tick failed")
			return
		}
		if report.Promoted > 0 || report.Expired > 0 || report.Failed > 0 {
			jobLogger.Info().
				Int("courts", report.Courts).
				Int64("expired", report.Expired).
				Int("promoted", report.Promoted).
				Int("blocked", report.Blocked).
				Int("failed", report.Failed).
				Msg("Rotation tick finished")
		}
	}
}

func notificationTask(dispatcher *notify.Dispatcher, timeout time.Duration, jobLogger zerolog.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		if _, err := dispatcher.Dispatch(ctx); err != nil {
			jobLogger.Error().Err(err).Msg("Promotion dispatch failed")
		}
	}
}
