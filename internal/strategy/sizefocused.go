package strategy

import (
	"fmt"
	"iter"
	"slices"

	"github.com/jgivc/datasetgen/internal/common"
	"github.com/jgivc/datasetgen/internal/entity"
	"github.com/jgivc/datasetgen/internal/random"
	"github.com/jgivc/datasetgen/internal/sampler"
)

type sizeFocusedParams struct {
	catalogParams    `yaml:",inline"`
	NoiseMinFileSize float64 `yaml:"noise_min_file_size"`
	NoiseMaxFileSize float64 `yaml:"noise_max_file_size"`
	PercNoise        float64 `yaml:"perc_noise"`
	PercFilesPerDay  float64 `yaml:"perc_files_x_day"`
}

func defaultSizeFocusedParams() sizeFocusedParams {
	return sizeFocusedParams{
		catalogParams:    defaultCatalogParams(),
		NoiseMinFileSize: 25000,
		NoiseMaxFileSize: 48000,
		PercNoise:        10,
		PercFilesPerDay:  25,
	}
}

func (p sizeFocusedParams) validate() error {
	if err := p.catalogParams.validate(); err != nil {
		return err
	}

	if err := validatePercentage("perc_noise", p.PercNoise); err != nil {
		return err
	}

	if err := validatePercentage("perc_files_x_day", p.PercFilesPerDay); err != nil {
		return err
	}

	if countOf(p.NumFiles, p.PercNoise) == 0 {
		return nil
	}

	if p.NoiseMinFileSize <= p.MaxFileSize && p.NoiseMaxFileSize >= p.MinFileSize {
		return fmt.Errorf("%w: noise size range [%g, %g] overlaps [%g, %g]", common.ErrInvalidConfiguration,
			p.NoiseMinFileSize, p.NoiseMaxFileSize, p.MinFileSize, p.MaxFileSize)
	}

	return nil
}

// SizeFocused visits files evenly but mixes a fraction of noise files whose
// sizes come from a separate, non overlapping range.
type SizeFocused struct {
	params         sizeFocusedParams
	src            *random.Source
	normal         *entity.Catalog
	noise          *entity.Catalog
	catalog        *entity.Catalog
	ids            []int
	requestsPerDay int
}

func NewSizeFocused(args Args, src *random.Source) (*SizeFocused, error) {
	params := defaultSizeFocusedParams()
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}

	if err := params.validate(); err != nil {
		return nil, err
	}

	numNoise := countOf(params.NumFiles, params.PercNoise)
	numNormal := params.NumFiles - numNoise

	normal, err := sampler.BuildCatalog(src, numNormal, params.MinFileSize, params.MaxFileSize, params.SizeGenerator, 0)
	if err != nil {
		return nil, fmt.Errorf("cannot build catalog: %w", err)
	}

	noise, err := sampler.BuildCatalog(src, numNoise, params.NoiseMinFileSize, params.NoiseMaxFileSize, params.SizeGenerator, numNormal)
	if err != nil {
		return nil, fmt.Errorf("cannot build noise catalog: %w", err)
	}

	catalog, err := normal.Merge(noise)
	if err != nil {
		return nil, fmt.Errorf("cannot merge catalogs: %w", err)
	}

	return &SizeFocused{
		params:  params,
		src:     src,
		normal:  normal,
		noise:   noise,
		catalog: catalog,
		ids:     catalog.IDs(),
	}, nil
}

func (s *SizeFocused) Name() string {
	return NameSizeFocused
}

func (s *SizeFocused) Configure(requestsPerDay int) {
	s.requestsPerDay = requestsPerDay
}

func (s *SizeFocused) Catalog() *entity.Catalog {
	return s.catalog
}

func (s *SizeFocused) NormalFiles() []int {
	return s.normal.IDs()
}

func (s *SizeFocused) NoiseFiles() []int {
	return s.noise.IDs()
}

func (s *SizeFocused) ToConfig() Args {
	return mustArgs(s.params)
}

// GenerateDay cycles over the day's visible files, reshuffled on every lap,
// until exactly maxRequests requests are emitted.
func (s *SizeFocused) GenerateDay(_, maxRequests int) iter.Seq2[entity.Request, Progress] {
	n := budget(maxRequests, s.requestsPerDay)

	return func(yield func(entity.Request, Progress) bool) {
		visible := visibleSubset(s.src, s.ids, s.params.PercFilesPerDay)

		var lap []int
		for emitted := 0; emitted < n; emitted++ {
			if len(lap) == 0 {
				lap = slices.Clone(visible)
				s.src.Shuffle(lap)
			}

			id := lap[0]
			lap = lap[1:]

			if !yield(s.catalog.Request(id), progressOf(emitted+1, n)) {
				return
			}
		}
	}
}
