// Package report renders the summary of a generated dataset as Markdown and
// HTML.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/jgivc/datasetgen/internal/adapter/mdadapter"
	"github.com/jgivc/datasetgen/internal/common"
	"github.com/jgivc/datasetgen/internal/entity"
	"github.com/jgivc/datasetgen/internal/storage/day"
)

const (
	serviceName = "report"

	DefaultTopFiles = 10

	extMarkdown = ".md"
	extHTML     = ".html"
)

type Source interface {
	Days() []*day.Day
	Stats() entity.DatasetStats
	Meta() (entity.RunMeta, error)
	DestFolder() string
}

type FileRanker interface {
	TopFiles(ctx context.Context, n int) ([]entity.FileCounter, error)
	PublishedRun(ctx context.Context) (entity.RunMeta, error)
}

type Renderer interface {
	Markdown(report *entity.Report) ([]byte, error)
	Page(title string, body []byte) ([]byte, error)
}

type Converter interface {
	Convert(src []byte, r mdadapter.TableResolver) (*mdadapter.Document, error)
}

type reportService struct {
	fs        afero.Fs
	renderer  Renderer
	converter Converter
	ranker    FileRanker
	tableExt  string
	topFiles  int
	log       *slog.Logger
}

func NewReportService(renderer Renderer, converter Converter, tableExt string, log *slog.Logger) *reportService {
	return NewReportServiceWithFS(afero.NewOsFs(), renderer, converter, tableExt, log)
}

func NewReportServiceWithFS(fs afero.Fs, renderer Renderer, converter Converter, tableExt string, log *slog.Logger) *reportService {
	return &reportService{
		fs:        fs,
		renderer:  renderer,
		converter: converter,
		tableExt:  tableExt,
		topFiles:  DefaultTopFiles,
		log:       log.With(slog.String("service", serviceName)),
	}
}

// WithRanker takes the most requested files from r instead of the local
// statistics when r has published the reported run.
func (s *reportService) WithRanker(r FileRanker) *reportService {
	s.ranker = r

	return s
}

func (s *reportService) SetTopFiles(n int) {
	s.topFiles = n
}

// Build collects the report of src. Table paths are relative to the folder
// of reportFile.
func (s *reportService) Build(ctx context.Context, src Source, reportFile string) (*entity.Report, error) {
	days := src.Days()
	if len(days) == 0 {
		return nil, common.ErrNoDaysPrepared
	}

	meta, err := src.Meta()
	if err != nil {
		return nil, fmt.Errorf("cannot get run metadata: %w", err)
	}

	report := &entity.Report{
		Meta:       meta,
		Stats:      src.Stats(),
		DestFolder: src.DestFolder(),
	}

	report.TopFiles, err = s.rank(ctx, meta, report.Stats)
	if err != nil {
		return nil, err
	}

	prefix := tablePrefix(filepath.Dir(reportFile), report.DestFolder)
	report.Tables = make([]entity.TableRef, 0, len(days))
	for _, d := range days {
		name := d.FileName() + s.tableExt
		report.Tables = append(report.Tables, entity.TableRef{
			Date:     d.Date().Format(time.DateOnly),
			Name:     name,
			Path:     filepath.ToSlash(filepath.Join(prefix, name)),
			Requests: d.Len(),
		})
	}

	return report, nil
}

func (s *reportService) rank(ctx context.Context, meta entity.RunMeta, st entity.DatasetStats) ([]entity.FileCounter, error) {
	if s.published(ctx, meta) {
		files, err := s.ranker.TopFiles(ctx, s.topFiles)
		if err != nil {
			return nil, fmt.Errorf("cannot rank files: %w", err)
		}

		return files, nil
	}

	files := st.Files
	if s.topFiles > 0 && len(files) > s.topFiles {
		files = files[:s.topFiles]
	}

	return slices.Clone(files), nil
}

// published reports whether the ranker holds the statistics of the run.
func (s *reportService) published(ctx context.Context, meta entity.RunMeta) bool {
	if s.ranker == nil {
		return false
	}

	run, err := s.ranker.PublishedRun(ctx)
	if err != nil {
		s.log.Warn("Published run is unavailable, using local stats", slog.String("run_id", meta.RunID), slog.Any("error", err))

		return false
	}

	if run.RunID != meta.RunID {
		s.log.Warn("Published run differs, using local stats",
			slog.String("run_id", meta.RunID),
			slog.String("published_run_id", run.RunID),
		)

		return false
	}

	return true
}

// Write renders the report of src and stores it next to reportFile with
// the .md and .html extensions. It returns the written paths.
func (s *reportService) Write(ctx context.Context, src Source, reportFile string) ([]string, error) {
	base := strings.TrimSuffix(strings.TrimSuffix(reportFile, extHTML), extMarkdown)
	if err := checkOutside(base, src.DestFolder()); err != nil {
		return nil, err
	}

	log := s.log.With(slog.String("file", base))

	report, err := s.Build(ctx, src, base)
	if err != nil {
		log.Error("Cannot build report", slog.Any("error", err))

		return nil, fmt.Errorf("cannot build report: %w", err)
	}

	md, err := s.renderer.Markdown(report)
	if err != nil {
		return nil, fmt.Errorf("cannot render report: %w", err)
	}

	doc, err := s.converter.Convert(md, tables(report.Tables))
	if err != nil {
		return nil, fmt.Errorf("cannot convert report: %w", err)
	}

	page, err := s.renderer.Page(doc.Title, doc.HTML)
	if err != nil {
		return nil, fmt.Errorf("cannot render page: %w", err)
	}

	if dir := filepath.Dir(base); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create report folder: %w", err)
		}
	}

	paths := []string{base + extMarkdown, base + extHTML}
	for i, data := range [][]byte{md, page} {
		if err := afero.WriteFile(s.fs, paths[i], data, 0o644); err != nil {
			log.Error("Cannot write report", slog.String("path", paths[i]), slog.Any("error", err))

			return nil, fmt.Errorf("cannot write report %s: %w", paths[i], err)
		}
	}

	log.Info("Report written", slog.String("run_id", report.Meta.RunID), slog.Int("tables", len(report.Tables)))

	return paths, nil
}

// checkOutside fails when file is inside dir: saving a dataset resets it.
func checkOutside(file, dir string) error {
	if file == "" {
		return fmt.Errorf("%w: empty report file", common.ErrInvalidConfiguration)
	}

	absFile, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("cannot resolve report file: %w", err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("cannot resolve destination folder: %w", err)
	}

	rel, err := filepath.Rel(absDir, absFile)
	if err != nil {
		return nil
	}

	if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: report %s is inside destination folder %s", common.ErrInvalidConfiguration, file, dir)
	}

	return nil
}

func tablePrefix(reportDir, destFolder string) string {
	from, err := filepath.Abs(reportDir)
	if err != nil {
		return destFolder
	}

	to, err := filepath.Abs(destFolder)
	if err != nil {
		return destFolder
	}

	rel, err := filepath.Rel(from, to)
	if err != nil {
		return destFolder
	}

	return rel
}

type tables []entity.TableRef

func (t tables) GetTable(date string) (*entity.TableRef, error) {
	for i := range t {
		if t[i].Date == date {
			return &t[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", common.ErrTableNotFound, date)
}

func (t tables) GetTables() []entity.TableRef {
	return t
}
