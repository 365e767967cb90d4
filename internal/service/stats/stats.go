package stats

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"github.com/jgivc/datasetgen/internal/entity"
	"github.com/jgivc/datasetgen/internal/storage/day"
)

const (
	serviceName = "stats"
)

// Compute aggregates the requests of days.
func Compute(days []*day.Day) entity.DatasetStats {
	st := entity.DatasetStats{
		NumDays: len(days),
		Days:    make([]entity.DayStats, 0, len(days)),
	}

	counters := make(map[int64]*entity.FileCounter)
	for _, d := range days {
		ds := entity.DayStats{Date: d.Date()}
		seen := make(map[int64]struct{})

		for _, rec := range d.Records() {
			ds.Requests++
			ds.Bytes += rec.Size.V

			id := rec.Filename.V
			seen[id] = struct{}{}

			fc, exists := counters[id]
			if !exists {
				fc = &entity.FileCounter{ID: id, Size: rec.Size.V}
				counters[id] = fc
			}
			fc.Counter++
		}

		ds.UniqueFiles = len(seen)
		st.Requests += ds.Requests
		st.Bytes += ds.Bytes
		st.Days = append(st.Days, ds)
	}

	st.UniqueFiles = len(counters)
	st.Files = make([]entity.FileCounter, 0, len(counters))
	for _, fc := range counters {
		st.Files = append(st.Files, *fc)
	}
	SortCounters(st.Files)

	return st
}

// SortCounters orders counters by request count, most requested first, ties
// by file id.
func SortCounters(counters []entity.FileCounter) {
	slices.SortFunc(counters, func(a, b entity.FileCounter) int {
		if c := cmp.Compare(b.Counter, a.Counter); c != 0 {
			return c
		}

		return cmp.Compare(a.ID, b.ID)
	})
}

type StatsRepository interface {
	Save(ctx context.Context, meta entity.RunMeta, st entity.DatasetStats) error
	FileCounters(ctx context.Context) iter.Seq2[entity.FileCounter, error]
	Meta(ctx context.Context) (entity.RunMeta, error)
}

type statsService struct {
	repo StatsRepository
	log  *slog.Logger
}

func NewStatsService(repo StatsRepository, log *slog.Logger) *statsService {
	return &statsService{
		repo: repo,
		log:  log.With(slog.String("service", serviceName)),
	}
}

// Publish stores the statistics of a run.
func (s *statsService) Publish(ctx context.Context, meta entity.RunMeta, st entity.DatasetStats) error {
	if err := s.repo.Save(ctx, meta, st); err != nil {
		s.log.Error("Cannot publish stats", slog.String("run_id", meta.RunID), slog.Any("error", err))

		return fmt.Errorf("cannot publish run %s stats: %w", meta.RunID, err)
	}

	s.log.Info("Stats published", slog.String("run_id", meta.RunID), slog.Int("files", len(st.Files)))

	return nil
}

// TopFiles returns the n most requested files of the published run, all of
// them when n < 1.
func (s *statsService) TopFiles(ctx context.Context, n int) ([]entity.FileCounter, error) {
	var counters []entity.FileCounter
	for fc, err := range s.repo.FileCounters(ctx) {
		if err != nil {
			s.log.Error("Cannot get file counters", slog.Any("error", err))

			return nil, fmt.Errorf("cannot get file counters: %w", err)
		}

		counters = append(counters, fc)
	}

	SortCounters(counters)
	if n > 0 && len(counters) > n {
		counters = counters[:n]
	}

	return counters, nil
}

// PublishedRun returns the metadata of the published run.
func (s *statsService) PublishedRun(ctx context.Context) (entity.RunMeta, error) {
	meta, err := s.repo.Meta(ctx)
	if err != nil {
		return entity.RunMeta{}, fmt.Errorf("cannot get published run: %w", err)
	}

	return meta, nil
}
