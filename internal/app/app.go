package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"

	"github.com/jgivc/datasetgen/internal/adapter/fsadapter"
	"github.com/jgivc/datasetgen/internal/adapter/mdadapter"
	"github.com/jgivc/datasetgen/internal/adapter/tpladapter"
	"github.com/jgivc/datasetgen/internal/common"
	"github.com/jgivc/datasetgen/internal/config"
	"github.com/jgivc/datasetgen/internal/entity"
	"github.com/jgivc/datasetgen/internal/repository/stats"
	"github.com/jgivc/datasetgen/internal/service/generator"
	"github.com/jgivc/datasetgen/internal/service/report"
	srvstats "github.com/jgivc/datasetgen/internal/service/stats"
	"github.com/jgivc/datasetgen/internal/strategy"
)

const (
	StagePrepare = "prepare"
	StageSave    = "save"

	pingTimeout    = 5 * time.Second
	publishTimeout = 10 * time.Second
)

// ProgressFunc receives the percentage of the running stage.
type ProgressFunc func(stage string, pct int)

type StatsPublisher interface {
	Publish(ctx context.Context, meta entity.RunMeta, st entity.DatasetStats) error
	TopFiles(ctx context.Context, n int) ([]entity.FileCounter, error)
}

type ReportWriter interface {
	Write(ctx context.Context, src report.Source, reportFile string) ([]string, error)
}

// Result describes a finished run.
type Result struct {
	Meta    entity.RunMeta
	Stats   entity.DatasetStats
	Reports []string
}

type App struct {
	cfg       *config.Config
	gen       *generator.Generator
	publisher StatsPublisher
	report    ReportWriter
	rdb       *redis.Client
	log       *slog.Logger
}

func New(cfg *config.Config, logOut io.Writer) (*App, error) {
	return NewWithFS(afero.NewOsFs(), cfg, logOut)
}

// NewWithFS builds every component of a run on fs. Statistics are published
// only when a Redis URL is configured.
func NewWithFS(fs afero.Fs, cfg *config.Config, logOut io.Writer) (*App, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	codec, err := fsadapter.ParseCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}

	fsa, err := fsadapter.NewFSAdapterWithFS(fs, codec, log)
	if err != nil {
		return nil, fmt.Errorf("cannot create table store: %w", err)
	}

	gen := generator.NewGenerator(fsa, cfg.Seed, log)
	if err := configure(gen, cfg); err != nil {
		return nil, err
	}

	a := &App{
		cfg: cfg,
		gen: gen,
		log: log,
	}

	tpl, err := tpladapter.NewTplAdapter(cfg.Report.TemplateFileName)
	if err != nil {
		return nil, fmt.Errorf("cannot create report template: %w", err)
	}

	md, err := mdadapter.NewMDAdapter()
	if err != nil {
		return nil, fmt.Errorf("cannot create markdown converter: %w", err)
	}

	rs := report.NewReportServiceWithFS(fs, tpl, md, fsa.Ext(), log)
	if cfg.Report.TopFiles > 0 {
		rs.SetTopFiles(cfg.Report.TopFiles)
	}
	a.report = rs

	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("cannot parse redis url: %w", err)
		}

		a.rdb = redis.NewClient(opt)

		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()

		if _, err := a.rdb.Ping(ctx).Result(); err != nil {
			a.rdb.Close()

			return nil, fmt.Errorf("cannot connect to redis: %w", err)
		}

		repo, err := stats.NewStatsRepository(ctx, a.rdb, log)
		if err != nil {
			a.rdb.Close()

			return nil, fmt.Errorf("cannot create stats repository: %w", err)
		}

		svc := srvstats.NewStatsService(repo, log)
		a.publisher = svc
		rs.WithRanker(svc)
	}

	return a, nil
}

func configure(gen *generator.Generator, cfg *config.Config) error {
	if err := gen.SetNumDays(cfg.NumDays); err != nil {
		return err
	}

	if err := gen.SetNumRequestsPerDay(cfg.NumRequestsPerDay); err != nil {
		return err
	}

	if err := gen.SetDestFolder(cfg.DestFolder); err != nil {
		return err
	}

	date, err := cfg.Date()
	if err != nil {
		return err
	}
	gen.SetStartDate(date)

	return nil
}

func (a *App) Generator() *generator.Generator {
	return a.gen
}

// Generate prepares and saves the dataset, then publishes its statistics and
// writes the report when they are configured. Cancelling ctx stops the
// stage in progress.
func (a *App) Generate(ctx context.Context, progress ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(string, int) {}
	}

	pass, err := a.gen.Prepare(a.cfg.Function.Name, strategy.Args(a.cfg.Function.Kwargs), a.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	for pct := range pass {
		if ctx.Err() != nil {
			break
		}

		progress(StagePrepare, pct)
	}

	if err := ctx.Err(); err != nil {
		a.log.Warn("Generation interrupted", slog.Int("days", len(a.gen.Days())))

		return nil, fmt.Errorf("cannot prepare dataset: %w", err)
	}

	for pct, err := range a.gen.Save() {
		if err != nil {
			return nil, fmt.Errorf("cannot save dataset: %w", err)
		}

		if ctx.Err() != nil {
			break
		}

		progress(StageSave, pct)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("cannot save dataset: %w", err)
	}

	meta, err := a.gen.Meta()
	if err != nil {
		return nil, err
	}

	res := &Result{
		Meta:  meta,
		Stats: a.gen.Stats(),
	}

	if a.publisher != nil {
		pctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()

		if err := a.publisher.Publish(pctx, meta, res.Stats); err != nil {
			return nil, err
		}
	}

	if a.cfg.Report.File != "" {
		res.Reports, err = a.report.Write(ctx, a.gen, a.cfg.Report.File)
		switch {
		case errors.Is(err, common.ErrNoDaysPrepared):
			a.log.Warn("Report skipped, no days generated")
		case err != nil:
			return nil, err
		}
	}

	a.log.Info("Dataset generated",
		slog.String("run_id", meta.RunID),
		slog.Int("days", res.Stats.NumDays),
		slog.Int("requests", res.Stats.Requests),
		slog.String("dest_folder", a.gen.DestFolder()),
	)

	return res, nil
}

func (a *App) Close() error {
	if a.rdb == nil {
		return nil
	}

	return a.rdb.Close()
}
