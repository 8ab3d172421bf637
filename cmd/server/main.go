package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/peercall/peercall/internal/adapters/http"
	signalws "github.com/peercall/peercall/internal/adapters/signal"
	"github.com/peercall/peercall/internal/audit"
	"github.com/peercall/peercall/internal/auth"
	"github.com/peercall/peercall/internal/config"
	"github.com/peercall/peercall/internal/registry"
	"github.com/peercall/peercall/internal/registry/presence"
	"github.com/peercall/peercall/internal/repository"
	"github.com/peercall/peercall/internal/repository/gormstore"
	"github.com/peercall/peercall/internal/repository/memstore"
	"github.com/peercall/peercall/internal/service"
	"github.com/peercall/peercall/internal/tasks"
	"github.com/peercall/peercall/internal/worker"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("jwt_secret is required")
	}

	// Room Store: Postgres when configured, in-memory otherwise.
	var repo repository.RoomRepository
	if cfg.PostgresDSN != "" {
		db, err := gormstore.Open(cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open room store")
		}
		repo = gormstore.NewRoomRepository(db)
	} else {
		log.Warn().Msg("no postgres_dsn configured, rooms will not survive a restart")
		repo = memstore.NewRoomRepository()
	}

	var pub audit.Publisher = audit.Nop{}
	var kafkaPub *audit.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub, err = audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect audit publisher")
		}
		pub = kafkaPub
	}

	var sched service.Scheduler
	var tasksClient *tasks.Client
	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	if cfg.RedisAddr != "" {
		tasksClient = tasks.NewClient(redisOpt)
		sched = tasksClient
	}

	rooms := service.NewRoomService(repo, pub, sched, cfg.StoreTimeout, cfg.RoomReapAfter)

	var mirror registry.Mirror
	if cfg.RedisAddr != "" {
		m, err := presence.NewRedisMirror(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.PresenceTTL)
		if err != nil {
			log.Warn().Err(err).Msg("presence mirror unavailable, continuing without it")
		} else {
			mirror = m
			defer m.Close()
		}
	}
	reg := registry.New(mirror)

	sigCtl := signalws.NewController(rooms, reg, cfg.ReadLimit)

	var reaper *worker.Server
	if cfg.RedisAddr != "" {
		reaper = worker.NewServer(redisOpt, rooms, reg)
		go reaper.Start()
	}

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	r := router.SetupRouter(ctx, cfg, rooms, sigCtl, verifier)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("peercall server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if reaper != nil {
		reaper.Shutdown()
	}
	if tasksClient != nil {
		_ = tasksClient.Close()
	}
	if kafkaPub != nil {
		_ = kafkaPub.Close()
	}
	log.Info().Msg("Server exited gracefully")
}
