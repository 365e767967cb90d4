package day

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/jgivc/datasetgen/internal/adapter/fsadapter"
	"github.com/jgivc/datasetgen/internal/common"
	"github.com/jgivc/datasetgen/internal/entity"
	"github.com/jgivc/datasetgen/internal/random"
)

var testDate = time.Date(2020, 1, 1, 15, 30, 0, 0, time.UTC)

func testRecords(n int) []entity.Record {
	recs := make([]entity.Record, n)
	for i := range recs {
		recs[i] = entity.Request{Filename: int64(i), Size: float64(100 + i), Protocol: int64(i % 2)}.Record()
	}

	return recs
}

func TestDecoration(t *testing.T) {
	d := NewDay(testDate, random.New(1))
	require.Equal(t, "dataset_2020-01-01", d.FileName())
	require.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), d.Date())

	require.NoError(t, d.Append(testRecords(1)[0]))

	rec := d.Records()[0]
	require.Equal(t, entity.Valid[int64](1577836800), rec.ReqDay)
	require.Equal(t, entity.Valid(true), rec.JobSuccess)
	require.Equal(t, entity.Valid[int64](0), rec.SiteName)
	require.Equal(t, entity.Valid[int64](0), rec.DataType)
	require.Equal(t, entity.Valid[int64](0), rec.FileType)

	require.Equal(t, entity.Valid[int64](1), rec.NumCPU)
	require.GreaterOrEqual(t, rec.WrapWC.V, 60.0)
	require.LessOrEqual(t, rec.WrapWC.V, 600.0)
	require.InDelta(t, rec.WrapWC.V, rec.CPUTime.V+rec.IOTime.V, 1e-9)
	require.False(t, rec.UserID.Valid)
}

func TestDecorationLocation(t *testing.T) {
	loc := time.FixedZone("UTC+1", 3600)
	d := NewDay(time.Date(2020, 1, 1, 0, 0, 0, 0, loc), random.New(1))

	require.NoError(t, d.Append(entity.Record{}))
	require.Equal(t, int64(1577836800-3600), d.Records()[0].ReqDay.V)
}

func TestCPUWorkKeptWhenAnyColumnIsSet(t *testing.T) {
	d := NewDay(testDate, random.New(1))

	rec := testRecords(1)[0]
	rec.IOTime = entity.Valid(12.5)
	require.NoError(t, d.Append(rec))

	got := d.Records()[0]
	require.Equal(t, entity.Valid(12.5), got.IOTime)
	require.False(t, got.NumCPU.Valid)
	require.False(t, got.WrapWC.Valid)
	require.False(t, got.WrapCPU.Valid)
	require.False(t, got.CPUTime.Valid)
}

func TestBulkAppendMatchesAppend(t *testing.T) {
	recs := testRecords(250)

	single := NewDay(testDate, random.New(7))
	for _, rec := range recs {
		require.NoError(t, single.Append(rec))
	}
	single.Finalize()

	bulk := NewDay(testDate, random.New(7))
	for i := 0; i < len(recs); i += 100 {
		require.NoError(t, bulk.BulkAppend(recs[i:min(i+100, len(recs))]))
	}
	require.Equal(t, 0, bulk.Index()[100])
	bulk.Finalize()

	require.Equal(t, single.Records(), bulk.Records())
	require.Equal(t, single.Index(), bulk.Index())
}

func TestFinalize(t *testing.T) {
	d := NewDay(testDate, random.New(1))
	require.NoError(t, d.BulkAppend(testRecords(3)))
	require.NoError(t, d.BulkAppend(testRecords(2)))
	require.Equal(t, []int{0, 1, 2, 0, 1}, d.Index())

	d.Finalize()
	once := append([]entity.Record(nil), d.Records()...)
	require.Equal(t, []int{0, 1, 2, 3, 4}, d.Index())

	d.Finalize()
	require.Equal(t, []int{0, 1, 2, 3, 4}, d.Index())
	require.Equal(t, once, d.Records())
	require.True(t, d.Finalized())

	require.Error(t, d.Append(entity.Record{}))
	require.Error(t, d.BulkAppend(testRecords(1)))
}

func TestPersist(t *testing.T) {
	fs := afero.NewMemMapFs()
	w, err := fsadapter.NewFSAdapterWithFS(fs, fsadapter.CodecGzip, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	d := NewDay(testDate, random.New(1))
	require.NoError(t, d.BulkAppend(testRecords(4)))

	_, err = d.Persist(w, "/out")
	require.ErrorIs(t, err, common.ErrDayNotFinalized)

	exists, err := afero.Exists(fs, "/out/dataset_2020-01-01.csv.gz")
	require.NoError(t, err)
	require.False(t, exists)

	d.Finalize()
	path, err := d.Persist(w, "/out")
	require.NoError(t, err)
	require.Equal(t, "/out/dataset_2020-01-01.csv.gz", path)

	header, rows, err := w.ReadTable(path)
	require.NoError(t, err)
	require.Equal(t, entity.Header(), header)
	require.Len(t, rows, 4)

	for i, row := range rows {
		require.Len(t, row, len(entity.Schema))
		require.Equal(t, d.Records()[i].Values(), row)
	}
}
