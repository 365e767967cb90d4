package strategy

import (
	"fmt"
	"iter"

	"github.com/jgivc/datasetgen/internal/entity"
	"github.com/jgivc/datasetgen/internal/random"
	"github.com/jgivc/datasetgen/internal/sampler"
)

type uniformParams struct {
	catalogParams `yaml:",inline"`
}

func defaultUniformParams() uniformParams {
	return uniformParams{catalogParams: defaultCatalogParams()}
}

// Uniform requests files uniformly at random with no memory between days.
type Uniform struct {
	params         uniformParams
	src            *random.Source
	catalog        *entity.Catalog
	ids            []int
	requestsPerDay int
}

func NewUniform(args Args, src *random.Source) (*Uniform, error) {
	params := defaultUniformParams()
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

	return &Uniform{
		params:  params,
		src:     src,
		catalog: catalog,
		ids:     catalog.IDs(),
	}, nil
}

func (u *Uniform) Name() string {
	return NameUniform
}

func (u *Uniform) Configure(requestsPerDay int) {
	u.requestsPerDay = requestsPerDay
}

func (u *Uniform) Catalog() *entity.Catalog {
	return u.catalog
}

func (u *Uniform) ToConfig() Args {
	return mustArgs(u.params)
}

// GenerateDay draws maxRequests files. The position inside the day is not
// tracked, callers compute progress from request counts.
func (u *Uniform) GenerateDay(_, maxRequests int) iter.Seq2[entity.Request, Progress] {
	n := budget(maxRequests, u.requestsPerDay)

	return func(yield func(entity.Request, Progress) bool) {
		for range n {
			if !yield(u.catalog.Request(u.src.Pick(u.ids)), NoProgress) {
				return
			}
		}
	}
}
