package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	apphandler "homeloan/internal/application/handler"
	appmetrics "homeloan/internal/application/metrics"
	appmodels "homeloan/internal/application/models"
	appservice "homeloan/internal/application/service"
	"homeloan/internal/autopay"
	"homeloan/internal/autopay/gateway"
	autopaymetrics "homeloan/internal/autopay/metrics"
	jwttoken "homeloan/internal/jwt_token"
	"homeloan/internal/notification"
	notificationmetrics "homeloan/internal/notification/metrics"
	"homeloan/internal/origination"
	originationmetrics "homeloan/internal/origination/metrics"
	"homeloan/internal/platform/config"
	"homeloan/internal/platform/httpserver"
	platformmetrics "homeloan/internal/platform/metrics"
	servicinghandler "homeloan/internal/servicing/handler"
	servicingmetrics "homeloan/internal/servicing/metrics"
	servicingservice "homeloan/internal/servicing/service"
	"homeloan/internal/sweep"
	sweepmetrics "homeloan/internal/sweep/metrics"
	httptransport "homeloan/internal/transport/http"
	"homeloan/pkg/platform/circuit"
	"homeloan/pkg/platform/events"
	"homeloan/pkg/platform/events/relay"
)

const shutdownTimeout = 10 * time.Second

// run wires the bounded contexts onto the infrastructure the configuration
// selects and serves until ctx is cancelled.
func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	policy, err := appmodels.ParseReviewerPolicy(cfg.Server.ReviewerPolicy)
	if err != nil {
		return fmt.Errorf("REVIEWER_POLICY: %w", err)
	}

	deps, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	st := deps.stores()
	bus := events.NewBus(st.outbox, events.WithLogger(log))

	applications := appservice.New(st.applications, bus,
		appservice.WithLogger(log),
		appservice.WithMetrics(appmetrics.New()),
		appservice.WithRunner(deps.runner("application:", cfg)),
		appservice.WithReviewerPolicy(policy),
	)
	servicing := servicingservice.New(st.mortgages, bus,
		servicingservice.WithLogger(log),
		servicingservice.WithMetrics(servicingmetrics.New()),
		servicingservice.WithRunner(deps.runner("mortgage:", cfg)),
		servicingservice.WithOverduePolicy(cfg.Servicing.GraceWindow, cfg.Servicing.DefaultThreshold),
	)
	originator := origination.New(applications, st.mortgages, bus,
		origination.WithLogger(log),
		origination.WithMetrics(originationmetrics.New()),
		origination.WithRunner(deps.runner("origination:", cfg)),
	)
	originator.Subscribe(bus)

	sweepOpts := []sweep.Option{
		sweep.WithLogger(log),
		sweep.WithMetrics(sweepmetrics.New()),
		sweep.WithOrigination(originator),
	}
	if cfg.Gateway.URL != "" {
		breaker := circuit.New("payment-gateway",
			circuit.WithFailureThreshold(cfg.Gateway.FailureThreshold),
			circuit.WithCooldown(cfg.Gateway.Cooldown),
		)
		charges := gateway.NewHTTPGateway(cfg.Gateway.URL, cfg.Gateway.APIKey, cfg.Gateway.Timeout,
			gateway.WithBreaker(breaker),
			gateway.WithLogger(log),
		)
		scheduler := autopay.New(servicing, charges, bus,
			autopay.WithLogger(log),
			autopay.WithMetrics(autopaymetrics.New()),
			autopay.WithParallelism(cfg.Sweep.AutoPayParallel),
		)
		sweepOpts = append(sweepOpts, sweep.WithAutoPay(scheduler))
	} else {
		log.InfoContext(ctx, "auto-pay disabled: PAYMENT_GATEWAY_URL is not set")
	}
	sweeper := sweep.New(servicing, sweepOpts...)

	notifier := notification.New(deps.directory(), deps.sender(cfg.Notification),
		notification.WithLogger(log),
		notification.WithMetrics(notificationmetrics.New()),
	)
	notifier.Subscribe(bus)

	appHandler := apphandler.New(applications, log)
	mortgageHandler := servicinghandler.New(servicing, log)
	sweepHandler := sweep.NewHandler(sweeper, log)
	router := httptransport.NewRouter(httptransport.Config{
		Logger:     log,
		Metrics:    platformmetrics.New(),
		Validator:  jwttoken.NewJWTServiceAdapter(jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer)),
		AdminToken: cfg.Server.AdminToken,
		Health:     deps.health(),
	}, httptransport.Routes{
		User:    []func(chi.Router){appHandler.Register, mortgageHandler.Register},
		Service: []func(chi.Router){mortgageHandler.RegisterPayments, sweepHandler.Register},
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "starting homeloan", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return notifier.Run(gctx)
	})
	g.Go(func() error {
		return sweeper.Run(gctx, sweep.Specs{
			Overdue:     cfg.Sweep.OverdueSpec,
			AutoPay:     cfg.Sweep.AutoPaySpec,
			Origination: cfg.Sweep.OriginationSpec,
		})
	})
	if deps.kafka != nil {
		if err := deps.kafka.EnsureTopic(ctx); err != nil {
			return err
		}
		r := relay.New(st.outbox, deps.kafka, cfg.Kafka.Topic,
			relay.WithInterval(cfg.Kafka.RelayInterval),
			relay.WithBatchSize(cfg.Kafka.RelayBatch),
			relay.WithLogger(log),
		)
		g.Go(func() error {
			if err := r.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	err = g.Wait()
	log.Info("homeloan stopped")
	return err
}
