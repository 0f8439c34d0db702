package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/joaquin771/rentalia/internal/app"
	"github.com/joaquin771/rentalia/internal/auth"
	"github.com/joaquin771/rentalia/internal/config"
	"github.com/joaquin771/rentalia/internal/infra"
	"github.com/joaquin771/rentalia/internal/media"
	"github.com/joaquin771/rentalia/internal/prefs"
	"github.com/joaquin771/rentalia/internal/repository"
	"github.com/joaquin771/rentalia/internal/store"
)

func main() {
	// Structured logger: pretty in dev, JSON in prod
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	prefStore, err := prefs.NewFileStore(cfg.PrefsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open preference store")
	}

	// Composition root: every boundary is built here and injected down;
	// no ambient singletons.
	mailer := infra.NewMailer(cfg)
	usuarioRepo := repository.NewUsuarioRepository(db)
	provider := auth.NewLocalProvider(usuarioRepo, mailer, cfg)
	docs := store.NewRedisStore(rdb)
	uploader := media.NewHostUploader(cfg.MediaUploadURL)

	// Headless shell: destructive actions are declined unless a UI is
	// attached to ask the user.
	confirm := func(mensaje string) bool {
		log.Warn().Str("mensaje", mensaje).Msg("confirmacion requerida sin UI, se rechaza")
		return false
	}

	a := app.New(cfg, provider, docs, uploader, prefStore, confirm)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx); err != nil {
		// Non-fatal: the list stays empty, the user is told once.
		log.Error().Err(err).Msg("no se pudo establecer la suscripcion al catalogo")
	}

	if resumen, err := a.Dashboard.Resumen(ctx); err == nil {
		log.Info().
			Int("productos", resumen.TotalProductos).
			Int("stock_total", resumen.StockTotal).
			Int("pedidos_pendientes", resumen.PedidosPendientes).
			Msg("resumen inicial")
	}

	log.Info().Str("env", cfg.Env).Msg("rentalia app core started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down…")
}
