// Package main provides the room server binary: one process per room
// port, coordinating sessions, turns, and scores for that room.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/kmorita/daifugo/internal/config"
	"github.com/kmorita/daifugo/internal/game/hub"
	"github.com/kmorita/daifugo/internal/game/rules"
	"github.com/kmorita/daifugo/internal/game/score"
	"github.com/kmorita/daifugo/internal/observability"
	"github.com/kmorita/daifugo/internal/server"
	"github.com/kmorita/daifugo/internal/storage/postgres"
	"github.com/kmorita/daifugo/internal/transport"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	room, ok := cfg.RoomForPort(cfg.Server.Port)
	if !ok {
		logger.Fatal("no room profile for port", zap.Int("port", cfg.Server.Port))
	}
	logger.Info("starting room server",
		zap.String("room", room.Name),
		zap.String("addr", cfg.Server.Addr()),
		zap.Int("win_points", room.WinPoints),
		zap.Duration("time_limit", room.TimeLimit),
		zap.Bool("tournament", room.Tournament),
	)

	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	trk, err := postgres.NewPlayerRepository(ctx, pool.DB())
	if err != nil {
		logger.Fatal("loading room gates", zap.Error(err))
	}

	window, err := score.NewWindow(cfg.Tournament)
	if err != nil {
		logger.Fatal("building tournament window", zap.Error(err))
	}
	mode := score.ModePlain
	if room.Tournament {
		mode = score.ModeTournament
	}

	registry := transport.NewRegistry(logger)
	ledger := score.NewLedger(trk, mode, window, nil, registry, logger)

	h := hub.New(trk, ledger, registry, logger)
	engine := rules.NewEngine(h, room.WinPoints, room.TimeLimit, logger)
	h.SetValidator(engine)

	acceptor := transport.NewAcceptor(cfg.Server, trk, h, registry, logger)

	hubCtx, hubCancel := context.WithCancel(ctx)
	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("hub", &server.FuncService{
		StartFn: func() error {
			h.Run(hubCtx)
			return nil
		},
		StopFn: func() {
			h.Post(hub.Shutdown{})
			hubCancel()
		},
	})
	lifecycle.Add("acceptor", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})

	logger.Info("room server ready", zap.Duration("startup", time.Since(start)))
	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("lifecycle error", zap.Error(err))
	}
}
