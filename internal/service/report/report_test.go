package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/jgivc/datasetgen/internal/adapter/mdadapter"
	"github.com/jgivc/datasetgen/internal/adapter/tpladapter"
	"github.com/jgivc/datasetgen/internal/common"
	"github.com/jgivc/datasetgen/internal/entity"
	"github.com/jgivc/datasetgen/internal/random"
	"github.com/jgivc/datasetgen/internal/service/stats"
	"github.com/jgivc/datasetgen/internal/storage/day"
)

const testDest = "/data/out"

type fakeSource struct {
	days []*day.Day
}

func (s *fakeSource) Days() []*day.Day {
	return s.days
}

func (s *fakeSource) Stats() entity.DatasetStats {
	return stats.Compute(s.days)
}

func (s *fakeSource) Meta() (entity.RunMeta, error) {
	return entity.RunMeta{RunID: "run-1", Seed: 7, Strategy: "Uniform", Fingerprint: "abc"}, nil
}

func (s *fakeSource) DestFolder() string {
	return testDest
}

type fakeRanker struct {
	runID  string
	runErr error
	files  []entity.FileCounter
	err    error
}

func (r *fakeRanker) PublishedRun(context.Context) (entity.RunMeta, error) {
	if r.runErr != nil {
		return entity.RunMeta{}, r.runErr
	}

	return entity.RunMeta{RunID: r.runID}, nil
}

func (r *fakeRanker) TopFiles(_ context.Context, n int) ([]entity.FileCounter, error) {
	if r.err != nil {
		return nil, r.err
	}

	return r.files[:min(n, len(r.files))], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSource(t *testing.T) *fakeSource {
	t.Helper()

	first := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	src := random.New(1)

	var days []*day.Day
	for i, ids := range [][]int64{{1, 2, 1}, {3, 2}} {
		d := day.NewDay(first.AddDate(0, 0, i), src)
		for _, id := range ids {
			require.NoError(t, d.Append(entity.Request{Filename: id, Size: float64(id * 100)}.Record()))
		}
		d.Finalize()
		days = append(days, d)
	}

	return &fakeSource{days: days}
}

func newTestService(t *testing.T, fs afero.Fs) *reportService {
	t.Helper()

	tpl, err := tpladapter.NewTplAdapter("")
	require.NoError(t, err)

	md, err := mdadapter.NewMDAdapter()
	require.NoError(t, err)

	return NewReportServiceWithFS(fs, tpl, md, ".csv.gz", discardLogger())
}

func TestBuild(t *testing.T) {
	s := newTestService(t, afero.NewMemMapFs())
	s.SetTopFiles(2)

	report, err := s.Build(context.Background(), newSource(t), "/reports/run")
	require.NoError(t, err)

	require.Equal(t, "run-1", report.Meta.RunID)
	require.Equal(t, 5, report.Stats.Requests)
	require.Equal(t, []entity.FileCounter{
		{ID: 1, Counter: 2, Size: 100},
		{ID: 2, Counter: 2, Size: 200},
	}, report.TopFiles)
	require.Equal(t, []entity.TableRef{
		{Date: "2020-01-01", Name: "dataset_2020-01-01.csv.gz", Path: "../data/out/dataset_2020-01-01.csv.gz", Requests: 3},
		{Date: "2020-01-02", Name: "dataset_2020-01-02.csv.gz", Path: "../data/out/dataset_2020-01-02.csv.gz", Requests: 2},
	}, report.Tables)
}

func TestBuildWithRanker(t *testing.T) {
	ranked := []entity.FileCounter{{ID: 9, Counter: 40, Size: 1}, {ID: 8, Counter: 30, Size: 1}}

	s := newTestService(t, afero.NewMemMapFs()).WithRanker(&fakeRanker{runID: "run-1", files: ranked})
	s.SetTopFiles(1)

	report, err := s.Build(context.Background(), newSource(t), "/reports/run")
	require.NoError(t, err)
	require.Equal(t, ranked[:1], report.TopFiles)

	s.WithRanker(&fakeRanker{runID: "run-1", err: errors.New("boom")})
	_, err = s.Build(context.Background(), newSource(t), "/reports/run")
	require.Error(t, err)
}

func TestBuildIgnoresOtherPublishedRun(t *testing.T) {
	ranked := []entity.FileCounter{{ID: 9, Counter: 40, Size: 1}, {ID: 8, Counter: 30, Size: 1}}
	local := []entity.FileCounter{{ID: 1, Counter: 2, Size: 100}}

	tests := []struct {
		name   string
		ranker *fakeRanker
	}{
		{name: "other run", ranker: &fakeRanker{runID: "run-0", files: ranked}},
		{name: "nothing published", ranker: &fakeRanker{runErr: common.ErrStatsNotFound, files: ranked}},
		{name: "unavailable", ranker: &fakeRanker{runErr: errors.New("boom"), err: errors.New("boom")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t, afero.NewMemMapFs()).WithRanker(tt.ranker)
			s.SetTopFiles(1)

			report, err := s.Build(context.Background(), newSource(t), "/reports/run")
			require.NoError(t, err)
			require.Equal(t, local, report.TopFiles)
		})
	}
}

func TestBuildWithoutDays(t *testing.T) {
	s := newTestService(t, afero.NewMemMapFs())

	_, err := s.Build(context.Background(), &fakeSource{}, "/reports/run")
	require.ErrorIs(t, err, common.ErrNoDaysPrepared)
}

func TestWrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newTestService(t, fs)

	paths, err := s.Write(context.Background(), newSource(t), "/reports/run.md")
	require.NoError(t, err)
	require.Equal(t, []string{"/reports/run.md", "/reports/run.html"}, paths)

	md, err := afero.ReadFile(fs, "/reports/run.md")
	require.NoError(t, err)
	require.Contains(t, string(md), "title: \"Dataset Uniform\"")
	require.Contains(t, string(md), "| Requests | 5 |")
	require.Contains(t, string(md), "[[2020-01-02]]")

	page, err := afero.ReadFile(fs, "/reports/run.html")
	require.NoError(t, err)
	require.Contains(t, string(page), "<title>Dataset Uniform</title>")
	require.Contains(t, string(page), "<table>")
	require.Contains(t, string(page), `href="../data/out/dataset_2020-01-02.csv.gz"`)
	require.Contains(t, string(page), `<ul class="tables">`)
	require.NotContains(t, string(page), "[[")
}

func TestWriteInsideDestination(t *testing.T) {
	s := newTestService(t, afero.NewMemMapFs())

	tests := []string{
		testDest + "/report",
		testDest + "/nested/report.html",
		"",
	}

	for _, file := range tests {
		t.Run(file, func(t *testing.T) {
			_, err := s.Write(context.Background(), newSource(t), file)
			require.ErrorIs(t, err, common.ErrInvalidConfiguration)
		})
	}
}

func TestTables(t *testing.T) {
	tt := tables{{Date: "2020-01-01"}, {Date: "2020-01-02"}}

	ref, err := tt.GetTable("2020-01-02")
	require.NoError(t, err)
	require.Equal(t, "2020-01-02", ref.Date)

	_, err = tt.GetTable("2021-01-01")
	require.ErrorIs(t, err, common.ErrTableNotFound)

	require.Len(t, tt.GetTables(), 2)
}
