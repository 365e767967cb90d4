package strategy

import (
	"fmt"
	"iter"
	"slices"

	"github.com/jgivc/datasetgen/internal/entity"
	"github.com/jgivc/datasetgen/internal/random"
	"github.com/jgivc/datasetgen/internal/sampler"
)

const (
	lapKeep = iota
	lapShuffle
	lapReverse
	lapModes
)

type recencyParams struct {
	catalogParams   `yaml:",inline"`
	PercNoise       float64 `yaml:"perc_noise"`
	PercFilesPerDay float64 `yaml:"perc_files_x_day"`
}

func defaultRecencyParams() recencyParams {
	return recencyParams{
		catalogParams:   defaultCatalogParams(),
		PercNoise:       10,
		PercFilesPerDay: 25,
	}
}

func (p recencyParams) validate() error {
	if err := p.catalogParams.validate(); err != nil {
		return err
	}

	if err := validatePercentage("perc_noise", p.PercNoise); err != nil {
		return err
	}

	return validatePercentage("perc_files_x_day", p.PercFilesPerDay)
}

// RecencyFocused walks a window of files over and over. The window slides
// along a fixed permutation of the catalog by half its size on every lap, so
// consecutive requests stay on a small working set that drifts slowly.
type RecencyFocused struct {
	params         recencyParams
	src            *random.Source
	catalog        *entity.Catalog
	order          []int
	windowSize     int
	cursor         int
	window         []int
	pos            int
	requestsPerDay int
}

func NewRecencyFocused(args Args, src *random.Source) (*RecencyFocused, error) {
	params := defaultRecencyParams()
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}

	if err := params.validate(); err != nil {
		return nil, err
	}

	catalog, err := sampler.BuildCatalog(src, params.NumFiles, params.MinFileSize, params.MaxFileSize, params.SizeGenerator, 0)
	if err != nil {
		return nil, fmt.Errorf("cannot build catalog: %w", err)
	}

	order := catalog.IDs()
	src.Shuffle(order)

	windowSize := len(order)
	if params.PercFilesPerDay > 0 && params.PercFilesPerDay < 100 {
		windowSize = max(1, countOf(len(order), params.PercFilesPerDay))
	}

	return &RecencyFocused{
		params:     params,
		src:        src,
		catalog:    catalog,
		order:      order,
		windowSize: windowSize,
	}, nil
}

func (r *RecencyFocused) Name() string {
	return NameRecencyFocused
}

func (r *RecencyFocused) Configure(requestsPerDay int) {
	r.requestsPerDay = requestsPerDay
}

func (r *RecencyFocused) Catalog() *entity.Catalog {
	return r.catalog
}

func (r *RecencyFocused) ToConfig() Args {
	return mustArgs(r.params)
}

// Window returns the files of the current lap.
func (r *RecencyFocused) Window() []int {
	return slices.Clone(r.window)
}

func (r *RecencyFocused) nextLap() {
	if r.window != nil {
		r.cursor = (r.cursor + max(1, r.windowSize/2)) % len(r.order)
	}

	window := make([]int, r.windowSize)
	for i := range window {
		window[i] = r.order[(r.cursor+i)%len(r.order)]
	}

	switch r.src.Rand().IntN(lapModes) {
	case lapShuffle:
		r.src.Shuffle(window)
	case lapReverse:
		slices.Reverse(window)
	}

	r.window = window
	r.pos = 0
}

// GenerateDay emits exactly maxRequests requests, continuing the window walk
// where the previous day stopped.
func (r *RecencyFocused) GenerateDay(_, maxRequests int) iter.Seq2[entity.Request, Progress] {
	n := budget(maxRequests, r.requestsPerDay)
	noise := r.params.PercNoise / 100

	return func(yield func(entity.Request, Progress) bool) {
		for emitted := 0; emitted < n; emitted++ {
			if r.window == nil || r.pos >= len(r.window) {
				r.nextLap()
			}

			id := r.window[r.pos]
			r.pos++

			if noise > 0 && r.src.Rand().Float64() < noise {
				id = r.src.Pick(r.window)
			}

			if !yield(r.catalog.Request(id), progressOf(emitted+1, n)) {
				return
			}
		}
	}
}
