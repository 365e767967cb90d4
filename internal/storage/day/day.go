// Package day holds the table of decorated request records generated for
// one calendar date.
package day

import (
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/jgivc/datasetgen/internal/common"
	"github.com/jgivc/datasetgen/internal/entity"
	"github.com/jgivc/datasetgen/internal/random"
	"github.com/jgivc/datasetgen/internal/sampler"
)

const fileNamePrefix = "dataset_"

type TableWriter interface {
	WriteTable(dir, name string, header []string, rows iter.Seq[[]string]) (string, error)
}

// Day is append only until Finalize, read only afterwards.
type Day struct {
	date      time.Time
	reqDay    int64
	src       *random.Source
	records   []entity.Record
	index     []int
	finalized bool
}

// NewDay creates an empty table for the calendar date of date, taken in
// date's location.
func NewDay(date time.Time, src *random.Source) *Day {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	return &Day{
		date:   midnight,
		reqDay: midnight.Unix(),
		src:    src,
	}
}

func (d *Day) Date() time.Time {
	return d.date
}

func (d *Day) Len() int {
	return len(d.records)
}

func (d *Day) Finalized() bool {
	return d.finalized
}

// Records returns the rows of the day. The slice must not be modified.
func (d *Day) Records() []entity.Record {
	return d.records
}

// Index returns the row labels. They are contiguous from zero once the day
// is finalized.
func (d *Day) Index() []int {
	return d.index
}

// FileName is the name of the persisted table without extension.
func (d *Day) FileName() string {
	return fileNamePrefix + d.date.Format(time.DateOnly)
}

func (d *Day) decorate(rec entity.Record) entity.Record {
	rec.ReqDay = entity.Valid(d.reqDay)
	rec.JobSuccess = entity.Valid(true)
	rec.SiteName = entity.Valid[int64](0)
	rec.DataType = entity.Valid[int64](0)
	rec.FileType = entity.Valid[int64](0)

	// NOTE: a record carrying any one of the CPU columns keeps all of them
	// as they are, even the missing ones. Downstream datasets depend on it.
	if !rec.HasCPUWork() {
		rec.SetCPUWork(sampler.FakeCPUWork(d.src, 1))
	}

	return rec
}

// Append decorates rec and adds it as the next row.
func (d *Day) Append(rec entity.Record) error {
	if d.finalized {
		return fmt.Errorf("cannot append to %s: day is finalized", d.FileName())
	}

	d.index = append(d.index, len(d.records))
	d.records = append(d.records, d.decorate(rec))

	return nil
}

// BulkAppend decorates recs in order and adds them as one batch. Rows get the
// same values as with one Append per record, batch rows are labeled from
// zero until Finalize.
func (d *Day) BulkAppend(recs []entity.Record) error {
	if d.finalized {
		return fmt.Errorf("cannot append to %s: day is finalized", d.FileName())
	}

	d.records = slices.Grow(d.records, len(recs))
	d.index = slices.Grow(d.index, len(recs))
	for i, rec := range recs {
		d.index = append(d.index, i)
		d.records = append(d.records, d.decorate(rec))
	}

	return nil
}

// Finalize relabels the rows contiguously from zero and closes the day for
// appends. Calling it again has no effect.
func (d *Day) Finalize() {
	if d.finalized {
		return
	}

	for i := range d.index {
		d.index[i] = i
	}

	d.finalized = true
}

func (d *Day) rows() iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		for i := range d.records {
			if !yield(d.records[i].Values()) {
				return
			}
		}
	}
}

// Persist writes the day as a table into dir and returns the written path.
func (d *Day) Persist(w TableWriter, dir string) (string, error) {
	if !d.finalized {
		return "", fmt.Errorf("cannot persist %s: %w", d.FileName(), common.ErrDayNotFinalized)
	}

	path, err := w.WriteTable(dir, d.FileName(), entity.Header(), d.rows())
	if err != nil {
		return "", fmt.Errorf("cannot persist %s: %w", d.FileName(), err)
	}

	return path, nil
}
