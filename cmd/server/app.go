// cmd/server/app.go
package main

import (
	"context"
	"fmt"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/codr1/gotnext/internal/api/courts"
	"github.com/codr1/gotnext/internal/api/reservations"
	"github.com/codr1/gotnext/internal/api/waitlist"
	"github.com/codr1/gotnext/internal/booking"
	"github.com/codr1/gotnext/internal/clock"
	"github.com/codr1/gotnext/internal/config"
	catalog "github.com/codr1/gotnext/internal/courts"
	"github.com/codr1/gotnext/internal/db"
	"github.com/codr1/gotnext/internal/gotnext"
	"github.com/codr1/gotnext/internal/notify"
	"github.com/codr1/gotnext/internal/ratelimit"
	"github.com/codr1/gotnext/internal/scheduler"
)

// app owns the long-lived collaborators that need closing on shutdown.
type app struct {
	limiter *ratelimit.Limiter
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Error().Err(err).Msg("Failed to close resource")
		}
	}
}

// newApp builds the services, initializes the HTTP handlers and registers
// the scheduled jobs.
func newApp(ctx context.Context, cfg *config.Config, database *db.DB) (*app, error) {
	a := &app{}
	clk := clock.Real{}

	courtService, err := catalog.NewService(database, clk, cfg.Booking.StoreTimeout)
	if err != nil {
		return nil, err
	}
	bookingCfg := booking.Config{
		MaxDuration:  cfg.Booking.MaxDuration,
		StoreTimeout: cfg.Booking.StoreTimeout,
		Clock:        clk,
	}
	checker, err := booking.NewChecker(database, bookingCfg)
	if err != nil {
		return nil, err
	}
	ledger, err := booking.NewLedger(database, bookingCfg)
	if err != nil {
		return nil, err
	}

	queueCfg := gotnext.Config{
		QueueTTL:     cfg.GotNext.QueueTTL,
		BatchSize:    cfg.GotNext.BatchSize,
		StoreTimeout: cfg.Booking.StoreTimeout,
		Concurrency:  cfg.GotNext.RotationConcurrency,
		Clock:        clk,
	}
	queue, err := gotnext.NewWaitQueue(database, queueCfg)
	if err != nil {
		return nil, err
	}
	resolver, err := gotnext.NewResolver(database, queueCfg)
	if err != nil {
		return nil, err
	}
	rotator, err := gotnext.NewRotator(database, courtService, queueCfg)
	if err != nil {
		return nil, err
	}

	courts.InitHandlers(courtService, checker, ledger)
	reservations.InitHandlers(ledger)
	waitlist.InitHandlers(waitlist.Deps{
		Queue:    queue,
		Resolver: resolver,
		Checker:  checker,
		Horizon:  cfg.GotNext.ReservationHorizon,
	})

	a.limiter = ratelimit.New(ratelimit.Config{
		Cooldown:          cfg.RateLimit.Cooldown,
		MaxPerHour:        cfg.RateLimit.MaxPerHour,
		MaxPerIPPerHour:   cfg.RateLimit.MaxPerIPPerHour,
		TrustProxyHeaders: cfg.RateLimit.TrustProxyHeaders,
		Clock:             clk,
	})
	a.closers = append(a.closers, func() error {
		a.limiter.Close()
		return nil
	})

	var schedulerOpts []gocron.SchedulerOption
	redisClient, err := config.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		a.closers = append(a.closers, redisClient.Close)
		locker, err := scheduler.NewRedisLocker(redisClient, cfg.Redis.LockTTL)
		if err != nil {
			return nil, err
		}
		schedulerOpts = append(schedulerOpts, gocron.WithDistributedLocker(locker))
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Scheduler using Redis distributed lock")
	}
	if err := scheduler.Init(schedulerOpts...); err != nil {
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	if err := scheduler.RegisterRotationJob(rotator, cfg.GotNext.RotationInterval, cfg.GotNext.RotationInterval); err != nil {
		return nil, err
	}

	if cfg.Notify.Enabled {
		publisher, closer, err := newPublisher(cfg.Notify)
		if err != nil {
			return nil, err
		}
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
		dispatcher, err := notify.NewDispatcher(database, publisher, cfg.Notify.BatchLimit, clk)
		if err != nil {
			return nil, err
		}
		if err := scheduler.RegisterNotificationJob(dispatcher, cfg.Notify.Cron, cfg.Booking.StoreTimeout*4); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// newPublisher picks RabbitMQ when AMQP_URL is set and the log publisher
// otherwise.
func newPublisher(cfg config.NotifyConfig) (notify.Publisher, func() error, error) {
	if cfg.AMQP.URL == "" {
		log.Info().Msg("AMQP_URL not set; promotion events go to the log")
		return notify.LogPublisher{}, nil, nil
	}
	publisher, err := notify.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.RoutingKey)
	if err != nil {
		return nil, nil, fmt.Errorf("connect promotion publisher: %w", err)
	}
	log.Info().Str("exchange", cfg.AMQP.Exchange).Str("routing_key", cfg.AMQP.RoutingKey).Msg("Publishing promotion events to RabbitMQ")
	return publisher, publisher.Close, nil
}
