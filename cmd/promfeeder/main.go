package main

import (
	"context"
	"os"

	"github.com/fox-gonic/fox"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/halcyonsec/watchpost/internal/feeder"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().Msg("Starting promfeeder")

	cfg, err := feeder.LoadConfig(os.Getenv("FEEDER_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	promClient, err := feeder.NewPromClient(cfg.Prometheus.Address)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create prometheus client")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := feeder.New(cfg, promClient)
	go f.Run(ctx)

	router := fox.New()
	feeder.NewApi(router, cfg, f, promClient)

	log.Info().Msgf("Starting promfeeder on %s", cfg.Server.BindAddr)
	if err := router.Run(cfg.Server.BindAddr); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
