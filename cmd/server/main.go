package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/priceflow/priceflow-backend/internal/adapter/eventbus"
	"github.com/priceflow/priceflow-backend/internal/adapter/httpapi"
	"github.com/priceflow/priceflow-backend/internal/adapter/repository/postgres"
	"github.com/priceflow/priceflow-backend/internal/config"
	"github.com/priceflow/priceflow-backend/internal/logger"
	"github.com/priceflow/priceflow-backend/internal/usecase/quotation"
	"github.com/priceflow/priceflow-backend/internal/usecase/stacking"
	"github.com/priceflow/priceflow-backend/internal/usecase/strategy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("priceflow", "info")
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New("priceflow", cfg.LogLevel)

	db, err := postgres.NewDB(cfg.DB.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	campaignRepo := postgres.NewCampaignRepository(db)
	breachRepo := postgres.NewBreachRepository(db)

	writer := eventbus.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	publisher := eventbus.NewKafkaPublisher(writer, log)
	defer publisher.Close()

	defaultKind, err := strategy.ParseKind(cfg.DefaultStrategy)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid default strategy")
	}

	stackingSvc := stacking.NewService(publisher, log)
	quotationSvc := quotation.NewService(
		campaignRepo,
		breachRepo,
		publisher,
		stackingSvc,
		map[strategy.Kind]strategy.PricingStrategy{
			strategy.KindFixed:  strategy.NewFixedPricingStrategy(),
			strategy.KindVolume: strategy.NewVolumePricingStrategy(nil),
		},
		defaultKind,
		log,
	)

	handlers := httpapi.NewHandlers(quotationSvc, campaignRepo, breachRepo, log)
	router := httpapi.NewRouter(handlers, cfg.APIToken, log)
	server := httpapi.NewServer(":"+cfg.Port, router)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(server, log)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down
// the server.
func waitForShutdown(server *http.Server, log zerolog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown did not complete cleanly")
	}
	log.Info().Msg("http server stopped")
}
