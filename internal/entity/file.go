package entity

import (
	"fmt"
	"sort"

	"github.com/jgivc/datasetgen/internal/common"
)

const (
	ProtocolLocal  = 0
	ProtocolRemote = 1
)

// File is a synthetic file of a catalog.
type File struct {
	ID       int     // Stable within a run, contiguous inside a sub-catalog
	Size     float64 // Size in bytes
	Protocol int     // ProtocolLocal or ProtocolRemote
}

// Catalog maps file ids to files. Ids are kept in ascending order so that
// every walk over a catalog is reproducible.
type Catalog struct {
	ids   []int
	files map[int]File
}

func NewCatalog(files ...File) (*Catalog, error) {
	c := &Catalog{files: make(map[int]File, len(files))}
	for _, f := range files {
		if err := c.add(f); err != nil {
			return nil, err
		}
	}
	c.sortIDs()

	return c, nil
}

func (c *Catalog) add(f File) error {
	if _, exists := c.files[f.ID]; exists {
		return fmt.Errorf("%w: %d", common.ErrDuplicateFileID, f.ID)
	}

	c.files[f.ID] = f
	c.ids = append(c.ids, f.ID)

	return nil
}

func (c *Catalog) sortIDs() {
	sort.Ints(c.ids)
}

// Merge returns a new catalog holding the files of both catalogs. Sub-catalogs
// must have been built over disjoint id ranges.
func (c *Catalog) Merge(other *Catalog) (*Catalog, error) {
	merged := &Catalog{files: make(map[int]File, c.Len()+other.Len())}
	for _, src := range []*Catalog{c, other} {
		for _, id := range src.ids {
			if err := merged.add(src.files[id]); err != nil {
				return nil, err
			}
		}
	}
	merged.sortIDs()

	return merged, nil
}

func (c *Catalog) Len() int {
	return len(c.ids)
}

// IDs returns a copy of the catalog ids in ascending order.
func (c *Catalog) IDs() []int {
	ids := make([]int, len(c.ids))
	copy(ids, c.ids)

	return ids
}

func (c *Catalog) Get(id int) (File, bool) {
	f, ok := c.files[id]

	return f, ok
}

// Request builds a request for the file with the given id.
func (c *Catalog) Request(id int) Request {
	f := c.files[id]

	return Request{Filename: int64(f.ID), Size: f.Size, Protocol: int64(f.Protocol)}
}

// FileCounter is the number of requests a file received over a run.
type FileCounter struct {
	ID      int64   `yaml:"id"`
	Counter int64   `yaml:"counter"`
	Size    float64 `yaml:"size"`
}
