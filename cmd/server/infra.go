package main

import (
	"context"
	"database/sql"
	"log/slog"

	appservice "homeloan/internal/application/service"
	appstore "homeloan/internal/application/store"
	"homeloan/internal/notification"
	"homeloan/internal/platform/config"
	"homeloan/internal/platform/kafka"
	"homeloan/internal/platform/postgres"
	"homeloan/internal/platform/redis"
	servicingservice "homeloan/internal/servicing/service"
	servicingstore "homeloan/internal/servicing/store"
	httptransport "homeloan/internal/transport/http"
	"homeloan/pkg/platform/events"
	memoryoutbox "homeloan/pkg/platform/events/store/memory"
	pgoutbox "homeloan/pkg/platform/events/store/postgres"
	"homeloan/pkg/platform/tx"
)

// infra holds the optional backing services. A nil field means the
// configuration left that concern to its in-process implementation.
type infra struct {
	db     *sql.DB
	redis  *redis.Client
	kafka  *kafka.Producer
	locker *redis.Locker
	log    *slog.Logger
}

func openInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	in := &infra{log: log}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	in.db = db
	if db != nil {
		if err := postgres.Migrate(ctx, db, log); err != nil {
			in.Close()
			return nil, err
		}
		log.InfoContext(ctx, "using postgres stores")
	} else {
		log.InfoContext(ctx, "DATABASE_URL not set, using in-memory stores")
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		in.Close()
		return nil, err
	}
	if rc != nil {
		in.redis = rc
		in.locker = redis.NewLocker(rc.Client, cfg.Redis.LockTTL)
		log.InfoContext(ctx, "using redis aggregate locks")
	}

	producer, err := kafka.New(ctx, cfg.Kafka, log)
	if err != nil {
		in.Close()
		return nil, err
	}
	in.kafka = producer
	if producer == nil {
		log.InfoContext(ctx, "KAFKA_BROKERS not set, events stay in the outbox")
	}
	return in, nil
}

func (in *infra) Close() {
	if in.kafka != nil {
		in.kafka.Close()
	}
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			in.log.Error("close redis", "error", err)
		}
	}
	if in.db != nil {
		if err := in.db.Close(); err != nil {
			in.log.Error("close postgres", "error", err)
		}
	}
}

type stores struct {
	applications appservice.Store
	mortgages    servicingservice.Store
	outbox       events.Outbox
}

func (in *infra) stores() stores {
	if in.db != nil {
		return stores{
			applications: appstore.NewPostgres(in.db),
			mortgages:    servicingstore.NewPostgres(in.db),
			outbox:       pgoutbox.New(in.db),
		}
	}
	return stores{
		applications: appstore.NewInMemory(),
		mortgages:    servicingstore.NewInMemory(),
		outbox:       memoryoutbox.NewInMemoryStore(),
	}
}

// runner serializes writers on one aggregate key: a Postgres transaction or
// an in-process shard lock, behind a Redis lock when Redis is configured.
func (in *infra) runner(prefix string, cfg config.Config) tx.Runner {
	var inner tx.Runner
	if in.db != nil {
		inner = tx.NewPostgresRunner(in.db, cfg.Postgres.TxTimeout)
	} else {
		inner = tx.NewShardedRunner(cfg.Postgres.TxTimeout)
	}
	if in.locker == nil {
		return inner
	}
	return tx.NewLockingRunner("homeloan:lock:"+prefix, in.locker, inner)
}

func (in *infra) directory() notification.Directory {
	if in.redis != nil {
		return notification.NewRedisDirectory(in.redis.Client)
	}
	return notification.NewStaticDirectory()
}

func (in *infra) sender(cfg config.NotificationConfig) notification.Sender {
	if cfg.SMTPHost != "" {
		return notification.NewSMTPSender(cfg)
	}
	return notification.NewLogSender(in.log)
}

func (in *infra) health() map[string]httptransport.HealthCheck {
	checks := map[string]httptransport.HealthCheck{}
	if in.db != nil {
		checks["postgres"] = in.db.PingContext
	}
	if in.redis != nil {
		checks["redis"] = in.redis.Health
	}
	if in.kafka != nil {
		checks["kafka"] = in.kafka.Health
	}
	return checks
}
