package sampler

import (
	"fmt"

	"github.com/jgivc/datasetgen/internal/entity"
	"github.com/jgivc/datasetgen/internal/random"
)

const numProtocols = 2

// BuildCatalog creates numFiles files with ids starting at startID. Callers
// splitting files in several catalogs pass disjoint id ranges and merge the
// results.
func BuildCatalog(src *random.Source, numFiles int, minSize, maxSize float64, mode string, startID int) (*entity.Catalog, error) {
	sizes, err := SampleSizes(src, numFiles, minSize, maxSize, mode)
	if err != nil {
		return nil, fmt.Errorf("cannot sample sizes: %w", err)
	}

	files := make([]entity.File, numFiles)
	for i := range files {
		files[i] = entity.File{
			ID:       startID + i,
			Size:     sizes[i],
			Protocol: src.Rand().IntN(numProtocols),
		}
	}

	return entity.NewCatalog(files...)
}
