package strategy

import (
	"fmt"
	"iter"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jgivc/datasetgen/internal/common"
	"github.com/jgivc/datasetgen/internal/entity"
	"github.com/jgivc/datasetgen/internal/random"
	"github.com/jgivc/datasetgen/internal/sampler"
)

type highFrequencyParams struct {
	catalogParams      `yaml:",inline"`
	LambdaLessReqFiles float64 `yaml:"lambda_less_req_files"`
	LambdaMoreReqFiles float64 `yaml:"lambda_more_req_files"`
	PercMoreReqFiles   float64 `yaml:"perc_more_req_files"`
	PercFilesPerDay    float64 `yaml:"perc_files_x_day"`
}

func defaultHighFrequencyParams() highFrequencyParams {
	return highFrequencyParams{
		catalogParams:      defaultCatalogParams(),
		LambdaLessReqFiles: 1,
		LambdaMoreReqFiles: 10,
		PercMoreReqFiles:   10,
		PercFilesPerDay:    25,
	}
}

func (p highFrequencyParams) validate() error {
	if err := p.catalogParams.validate(); err != nil {
		return err
	}

	if p.LambdaLessReqFiles < 0 || p.LambdaMoreReqFiles < 0 {
		return fmt.Errorf("%w: poisson lambdas must not be negative", common.ErrInvalidConfiguration)
	}

	if err := validatePercentage("perc_more_req_files", p.PercMoreReqFiles); err != nil {
		return err
	}

	return validatePercentage("perc_files_x_day", p.PercFilesPerDay)
}

// HighFrequency splits the files in a more requested and a less requested
// partition and draws, every day, a Poisson number of requests per file.
//
// The day's request count follows from the drawn frequencies, not from the
// request budget: it can be lower or higher than maxRequests, and a file
// drawing zero gets no request that day.
type HighFrequency struct {
	params   highFrequencyParams
	src      *random.Source
	more     *entity.Catalog
	less     *entity.Catalog
	catalog  *entity.Catalog
	ids      []int
	moreReqs distuv.Poisson
	lessReqs distuv.Poisson
}

func NewHighFrequency(args Args, src *random.Source) (*HighFrequency, error) {
	params := defaultHighFrequencyParams()
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}

	if err := params.validate(); err != nil {
		return nil, err
	}

	numMore := countOf(params.NumFiles, params.PercMoreReqFiles)

	more, err := sampler.BuildCatalog(src, numMore, params.MinFileSize, params.MaxFileSize, params.SizeGenerator, 0)
	if err != nil {
		return nil, fmt.Errorf("cannot build more requested catalog: %w", err)
	}

	less, err := sampler.BuildCatalog(src, params.NumFiles-numMore, params.MinFileSize, params.MaxFileSize, params.SizeGenerator, numMore)
	if err != nil {
		return nil, fmt.Errorf("cannot build less requested catalog: %w", err)
	}

	catalog, err := more.Merge(less)
	if err != nil {
		return nil, fmt.Errorf("cannot merge catalogs: %w", err)
	}

	return &HighFrequency{
		params:   params,
		src:      src,
		more:     more,
		less:     less,
		catalog:  catalog,
		ids:      catalog.IDs(),
		moreReqs: distuv.Poisson{Lambda: params.LambdaMoreReqFiles, Src: src.Dist()},
		lessReqs: distuv.Poisson{Lambda: params.LambdaLessReqFiles, Src: src.Dist()},
	}, nil
}

func (h *HighFrequency) Name() string {
	return NameHighFrequency
}

// Configure is a no-op: the request count is frequency driven.
func (h *HighFrequency) Configure(int) {}

func (h *HighFrequency) Catalog() *entity.Catalog {
	return h.catalog
}

func (h *HighFrequency) MoreRequested() []int {
	return h.more.IDs()
}

func (h *HighFrequency) LessRequested() []int {
	return h.less.IDs()
}

func (h *HighFrequency) ToConfig() Args {
	return mustArgs(h.params)
}

func (h *HighFrequency) draw(id int) int {
	dist := h.lessReqs
	if _, hot := h.more.Get(id); hot {
		dist = h.moreReqs
	}

	if dist.Lambda == 0 {
		return 0
	}

	return int(dist.Rand())
}

// GenerateDay ignores maxRequests, see HighFrequency.
func (h *HighFrequency) GenerateDay(_, _ int) iter.Seq2[entity.Request, Progress] {
	return func(yield func(entity.Request, Progress) bool) {
		counts := make(map[int]int, len(h.ids))
		for _, id := range h.ids {
			counts[id] = h.draw(id)
		}

		var requests []int
		for _, id := range visibleSubset(h.src, h.ids, h.params.PercFilesPerDay) {
			for range counts[id] {
				requests = append(requests, id)
			}
		}

		h.src.Shuffle(requests)

		for i, id := range requests {
			if !yield(h.catalog.Request(id), progressOf(i+1, len(requests))) {
				return
			}
		}
	}
}
