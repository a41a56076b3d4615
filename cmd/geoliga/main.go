package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/geoliga/geoliga/internal/api"
	"github.com/geoliga/geoliga/internal/config"
	"github.com/geoliga/geoliga/internal/export"
	"github.com/geoliga/geoliga/internal/geoguessr"
	"github.com/geoliga/geoliga/internal/league"
	"github.com/geoliga/geoliga/internal/logger"
	"github.com/geoliga/geoliga/internal/models"
	"github.com/geoliga/geoliga/internal/repository"
	"github.com/geoliga/geoliga/internal/repository/sqlite"
	"github.com/geoliga/geoliga/internal/services"
	"github.com/geoliga/geoliga/internal/worker"
)

func main() {
	app := &cli.App{
		Name:  "geoliga",
		Usage: "build GeoGuessr league standings from weekly challenge results",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "week",
				Usage: `repeatable week spec "LABEL|URLS_FILE|DEADLINE" (deadline optional)`,
			},
			&cli.StringFlag{Name: "tz", Usage: "timezone for deadlines, e.g. Europe/Stockholm"},
			&cli.StringFlag{Name: "tie", Usage: "tie mode: average, min, max or dense"},
			&cli.StringFlag{Name: "ncfa", Usage: "override the GEOLIGA_NCFA session cookie"},
			&cli.StringFlag{Name: "db", Usage: "snapshot database path (enables caching and offline builds)"},
			&cli.StringFlag{Name: "log-level", Usage: "DEBUG, INFO, WARN or ERROR"},
			&cli.Float64Flag{Name: "timeout", Usage: "HTTP timeout in seconds"},
			&cli.IntFlag{Name: "page-size", Usage: "highscores page size"},
			&cli.IntFlag{Name: "max-players", Usage: "max rows fetched per challenge"},
			&cli.IntFlag{Name: "max-concurrent-maps", Usage: "parallel map fetches"},
			&cli.BoolFlag{Name: "fetch-played-at", Usage: "resolve per-entry played-at timestamps (extra API calls)"},
			&cli.BoolFlag{Name: "keep-missing-played-at", Usage: "keep rows without timestamps in the filtered tables"},
			&cli.BoolFlag{Name: "offline", Usage: "build from the snapshot database, no network"},
		},
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "fetch, score, and write the xlsx workbooks",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out-base", Usage: "output base filename without extension"},
				},
				Action: runBuild,
			},
			{
				Name:  "serve",
				Usage: "build the report and serve the tables over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Usage: "listen address"},
				},
				Action: runServe,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// runtime bundles everything both commands need after configuration.
type runtime struct {
	cfg       config.Config
	weeks     []models.WeekSpec
	service   services.ReportService
	snapshots repository.SnapshotRepository
	db        *sql.DB
}

func (rt *runtime) close() {
	if rt.db != nil {
		rt.db.Close()
	}
}

func setup(c *cli.Context) (*runtime, error) {
	cfg := config.Load()
	applyFlags(&cfg, c)

	log := logger.New(logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Engine configuration errors are fatal before any fetching.
	tieMode, err := league.ParseTieMode(cfg.TieMode)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", cfg.Timezone, err)
	}

	weeks, err := config.ParseWeekSpecs(c.StringSlice("week"))
	if err != nil {
		return nil, err
	}

	log.Info("geoliga starting: %d weeks, tie=%s, tz=%s", len(weeks), tieMode, cfg.Timezone)

	rt := &runtime{cfg: cfg, weeks: weeks}

	if cfg.DBPath != "" {
		db, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		rt.db = db
		rt.snapshots = sqlite.NewSnapshotRepository(db)
	} else if cfg.Offline {
		return nil, fmt.Errorf("offline build requires --db")
	}

	client := geoguessr.New(cfg.NCFA,
		geoguessr.WithTimeout(time.Duration(cfg.Timeout*float64(time.Second))),
		geoguessr.WithPageSize(cfg.PageSize),
		geoguessr.WithMaxPlayers(cfg.MaxPlayers),
	)

	rt.service = services.NewReportService(client, rt.snapshots, services.BuildOptions{
		TieMode:             tieMode,
		Location:            loc,
		FetchPlayedAt:       cfg.FetchPlayedAt,
		KeepMissingPlayedAt: cfg.KeepMissingPlayedAt,
		MaxConcurrentMaps:   cfg.MaxConcurrentMaps,
		Offline:             cfg.Offline,
	})
	return rt, nil
}

func applyFlags(cfg *config.Config, c *cli.Context) {
	if c.IsSet("tz") {
		cfg.Timezone = c.String("tz")
	}
	if c.IsSet("tie") {
		cfg.TieMode = c.String("tie")
	}
	if c.IsSet("ncfa") {
		cfg.NCFA = c.String("ncfa")
	}
	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Float64("timeout")
	}
	if c.IsSet("page-size") {
		cfg.PageSize = c.Int("page-size")
	}
	if c.IsSet("max-players") {
		cfg.MaxPlayers = c.Int("max-players")
	}
	if c.IsSet("max-concurrent-maps") {
		cfg.MaxConcurrentMaps = c.Int("max-concurrent-maps")
	}
	if c.IsSet("fetch-played-at") {
		cfg.FetchPlayedAt = c.Bool("fetch-played-at")
	}
	if c.IsSet("keep-missing-played-at") {
		cfg.KeepMissingPlayedAt = c.Bool("keep-missing-played-at")
	}
	if c.IsSet("offline") {
		cfg.Offline = c.Bool("offline")
	}
	if c.IsSet("out-base") {
		cfg.OutBase = c.String("out-base")
	}
	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}
}

func runBuild(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.close()

	report, err := rt.service.BuildReport(c.Context, rt.weeks)
	if err != nil {
		return err
	}

	outAll := rt.cfg.OutBase + "_all.xlsx"
	if err := export.WriteWorkbook(outAll, report.All); err != nil {
		return err
	}

	if report.Filtered != nil {
		outFiltered := rt.cfg.OutBase + "_filtered.xlsx"
		if err := export.WriteWorkbook(outFiltered, *report.Filtered); err != nil {
			return err
		}
	}

	logger.Info("build complete")
	return nil
}

func runServe(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.close()

	log := logger.Default()

	report, err := rt.service.BuildReport(c.Context, rt.weeks)
	if err != nil {
		return err
	}

	pool := worker.NewPool(rt.cfg.WorkerCount, rt.cfg.RebuildQueueSize)
	srv := &api.Server{
		Service:   rt.service,
		Snapshots: rt.snapshots,
		Weeks:     rt.weeks,
		Pool:      pool,
	}
	srv.SetReport(report)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	httpServer := &http.Server{
		Addr:         rt.cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", rt.cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Info("received signal %v, shutting down", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}
	pool.Stop()

	log.Info("geoliga stopped")
	return nil
}
