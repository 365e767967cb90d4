// Package generator drives a strategy day by day, buffers the produced days
// and exports them as one table per day.
package generator

import (
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jgivc/datasetgen/internal/common"
	"github.com/jgivc/datasetgen/internal/entity"
	"github.com/jgivc/datasetgen/internal/random"
	"github.com/jgivc/datasetgen/internal/service/stats"
	"github.com/jgivc/datasetgen/internal/storage/day"
	"github.com/jgivc/datasetgen/internal/strategy"
	"github.com/jgivc/datasetgen/internal/util"
)

const (
	DefaultBatchSize  = 100
	DefaultDestFolder = "dataset"

	progressDone = 100
)

var DefaultStartDate = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

type TableStore interface {
	day.TableWriter
	ResetDir(dir string) error
}

// Generator is not safe for concurrent use. It owns its random source, so
// two generators never share one.
type Generator struct {
	store             TableStore
	src               *random.Source
	startDate         time.Time
	numDays           int
	numRequestsPerDay int
	destFolder        string
	days              []*day.Day
	strategy          strategy.Strategy
	runID             string

	log *slog.Logger
}

func NewGenerator(store TableStore, seed int64, log *slog.Logger) *Generator {
	return &Generator{
		store:      store,
		src:        random.New(seed),
		startDate:  DefaultStartDate,
		destFolder: DefaultDestFolder,
		log:        log.With(slog.String("item", "Generator")),
	}
}

func (g *Generator) Seed() int64 {
	return g.src.Seed()
}

// SetSeed reseeds every random stream. Days already prepared are kept as
// they are.
func (g *Generator) SetSeed(seed int64) {
	g.src.Reseed(seed)
}

func (g *Generator) NumDays() int {
	return g.numDays
}

func (g *Generator) SetNumDays(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative number of days %d", common.ErrInvalidConfiguration, n)
	}

	g.numDays = n

	return nil
}

func (g *Generator) NumRequestsPerDay() int {
	return g.numRequestsPerDay
}

func (g *Generator) SetNumRequestsPerDay(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative number of requests per day %d", common.ErrInvalidConfiguration, n)
	}

	g.numRequestsPerDay = n

	return nil
}

// TotalRequests is the request budget of a run.
func (g *Generator) TotalRequests() int {
	return g.numDays * g.numRequestsPerDay
}

func (g *Generator) DestFolder() string {
	return g.destFolder
}

func (g *Generator) SetDestFolder(dir string) error {
	if dir == "" {
		return fmt.Errorf("%w: empty destination folder", common.ErrInvalidConfiguration)
	}

	g.destFolder = dir

	return nil
}

func (g *Generator) StartDate() time.Time {
	return g.startDate
}

// SetStartDate sets the first generated day. Only the calendar date and the
// location of date are used.
func (g *Generator) SetStartDate(date time.Time) {
	g.startDate = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}

// Days returns the prepared days in date order.
func (g *Generator) Days() []*day.Day {
	return g.days
}

// Strategy returns the strategy of the last Prepare call, or nil.
func (g *Generator) Strategy() strategy.Strategy {
	return g.strategy
}

func (g *Generator) RunID() string {
	return g.runID
}

// Clean drops the prepared days. The configuration is kept.
func (g *Generator) Clean() {
	g.days = nil
}

func (g *Generator) Stats() entity.DatasetStats {
	return stats.Compute(g.days)
}

// Meta describes the last prepared run.
func (g *Generator) Meta() (entity.RunMeta, error) {
	meta := entity.RunMeta{
		RunID: g.runID,
		Seed:  g.Seed(),
	}

	if g.strategy == nil {
		return meta, nil
	}

	meta.Strategy = g.strategy.Name()

	fp, err := util.Fingerprint(map[string]any{
		"strategy":      meta.Strategy,
		"kwargs":        map[string]any(g.strategy.ToConfig()),
		"seed":          meta.Seed,
		"num_days":      g.numDays,
		"num_req_x_day": g.numRequestsPerDay,
		"start_date":    g.startDate.Format(time.DateOnly),
	})
	if err != nil {
		return meta, fmt.Errorf("cannot fingerprint run: %w", err)
	}

	meta.Fingerprint = fp

	return meta, nil
}

// Prepare creates the named strategy and returns the generation pass.
// Pulling the sequence reseeds the random source, builds a fresh strategy and
// generates the days, yielding the overall percentage after every request,
// then a final 100. Every pull generates the same days. A day is kept only
// once all its requests are generated: stopping the pass drops the current
// day.
//
// Previously prepared days are dropped.
func (g *Generator) Prepare(name string, args strategy.Args, batchSize int) (iter.Seq[int], error) {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	strat, err := g.newStrategy(name, args)
	if err != nil {
		g.log.Error("Cannot create strategy", slog.String("name", name), slog.Any("error", err))

		return nil, fmt.Errorf("cannot create strategy %s: %w", name, err)
	}

	g.strategy = strat
	g.runID = uuid.NewString()
	g.days = nil

	log := g.log.With(slog.String("run_id", g.runID), slog.String("strategy", strat.Name()))
	log.Info("Prepared", slog.Int("num_days", g.numDays), slog.Int("num_req_x_day", g.numRequestsPerDay), slog.Int64("seed", g.Seed()))

	return func(yield func(int) bool) {
		g.days = nil

		strat, err := g.newStrategy(name, args)
		if err != nil {
			log.Error("Cannot create strategy", slog.Any("error", err))

			return
		}
		g.strategy = strat

		date := g.startDate
		last := 0

		for dayIndex := range g.numDays {
			cur := day.NewDay(date, g.src)
			batch := make([]entity.Record, 0, batchSize)

			var n int
			for req, p := range strat.GenerateDay(dayIndex, g.numRequestsPerDay) {
				batch = append(batch, req.Record())
				if len(batch) == batchSize {
					if err := cur.BulkAppend(batch); err != nil {
						log.Error("Cannot append batch", slog.Any("error", err))

						return
					}
					batch = batch[:0]
				}

				last = max(last, g.progress(dayIndex, n, p))
				n++

				if !yield(last) {
					log.Info("Generation stopped", slog.Time("date", date), slog.Int("requests", n))

					return
				}
			}

			if err := cur.BulkAppend(batch); err != nil {
				log.Error("Cannot append batch", slog.Any("error", err))

				return
			}
			cur.Finalize()

			g.days = append(g.days, cur)
			log.Debug("Day generated", slog.Time("date", date), slog.Int("requests", cur.Len()))

			date = date.AddDate(0, 0, 1)
		}

		yield(progressDone)
	}, nil
}

// newStrategy reseeds the random source before building the strategy, so the
// catalog and the days only depend on the seed.
func (g *Generator) newStrategy(name string, args strategy.Args) (strategy.Strategy, error) {
	g.src.Reseed(g.src.Seed())

	strat, err := strategy.New(name, args, g.src)
	if err != nil {
		return nil, err
	}

	strat.Configure(g.numRequestsPerDay)

	return strat, nil
}

// progress composes the overall percentage from the position inside the day
// when the strategy tracks it, from request counts otherwise.
func (g *Generator) progress(dayIndex, n int, p strategy.Progress) int {
	var pct float64

	if p.Tracked() {
		pct = (float64(p) + float64(dayIndex)*100) / (float64(g.numDays) * 100) * 100
	} else {
		total := g.TotalRequests()
		if total <= 0 {
			return 0
		}

		pct = float64(dayIndex*g.numRequestsPerDay+n) / float64(total) * 100
	}

	return min(int(pct), progressDone)
}

// Save exports the prepared days, one table per day, and yields the
// percentage of written days.
//
// The destination folder is deleted first when it exists: after a save it
// holds exactly the prepared days. An error ends the sequence.
func (g *Generator) Save() iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		log := g.log.With(slog.String("dest_folder", g.destFolder))

		if err := g.store.ResetDir(g.destFolder); err != nil {
			log.Error("Cannot reset destination", slog.Any("error", err))
			yield(0, fmt.Errorf("cannot reset destination: %w", err))

			return
		}

		for i, d := range g.days {
			path, err := d.Persist(g.store, g.destFolder)
			if err != nil {
				log.Error("Cannot save day", slog.Time("date", d.Date()), slog.Any("error", err))
				yield(i*100/len(g.days), err)

				return
			}

			log.Debug("Day saved", slog.String("path", path))

			if !yield((i+1)*100/len(g.days), nil) {
				return
			}
		}

		log.Info("Saved", slog.Int("days", len(g.days)))
		yield(progressDone, nil)
	}
}
