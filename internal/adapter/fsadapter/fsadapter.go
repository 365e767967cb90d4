package fsadapter

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"

	"github.com/jgivc/datasetgen/internal/common"
)

const (
	CodecGzip   Codec = "gzip"
	CodecSnappy Codec = "snappy"
	CodecNone   Codec = "none"

	tableExt    = ".csv"
	dirPerm     = 0o755
	writeBuffer = 64 * 1024
)

// Codec selects the compression of written tables.
type Codec string

func ParseCodec(name string) (Codec, error) {
	switch codec := Codec(strings.ToLower(name)); codec {
	case CodecGzip, CodecSnappy, CodecNone:
		return codec, nil
	case "":
		return CodecGzip, nil
	}

	return "", fmt.Errorf("%w: unknown compression %q", common.ErrInvalidConfiguration, name)
}

// Ext returns the file extension of a table written with the codec.
func (c Codec) Ext() string {
	switch c {
	case CodecSnappy:
		return tableExt + ".sz"
	case CodecNone:
		return tableExt
	default:
		return tableExt + ".gz"
	}
}

func codecOf(path string) Codec {
	switch {
	case strings.HasSuffix(path, CodecGzip.Ext()):
		return CodecGzip
	case strings.HasSuffix(path, CodecSnappy.Ext()):
		return CodecSnappy
	default:
		return CodecNone
	}
}

type fsAdapter struct {
	fs    afero.Fs
	codec Codec

	log *slog.Logger
}

func NewFSAdapter(codec Codec, log *slog.Logger) (*fsAdapter, error) {
	return NewFSAdapterWithFS(afero.NewOsFs(), codec, log)
}

func NewFSAdapterWithFS(fs afero.Fs, codec Codec, log *slog.Logger) (*fsAdapter, error) {
	codec, err := ParseCodec(string(codec))
	if err != nil {
		return nil, err
	}

	return &fsAdapter{
		fs:    fs,
		codec: codec,
		log:   log.With(slog.String("item", "FSAdapter")),
	}, nil
}

func (a *fsAdapter) Ext() string {
	return a.codec.Ext()
}

// ResetDir deletes dir with all its content and creates it again empty.
func (a *fsAdapter) ResetDir(dir string) error {
	if err := a.fs.RemoveAll(dir); err != nil {
		return fmt.Errorf("cannot remove folder %s: %w", dir, err)
	}

	if err := a.fs.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("cannot create folder %s: %w", dir, err)
	}

	a.log.Debug("Folder reset", slog.String("path", dir))

	return nil
}

// WriteTable writes header and rows as a CSV table named name plus the codec
// extension inside dir. dir is created when missing. It returns the path of
// the written file.
func (a *fsAdapter) WriteTable(dir, name string, header []string, rows iter.Seq[[]string]) (string, error) {
	if err := a.fs.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("cannot create folder %s: %w", dir, err)
	}

	path := filepath.Join(dir, name+a.codec.Ext())

	file, err := a.fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("cannot create file %s: %w", path, err)
	}

	if err := a.writeTable(file, header, rows); err != nil {
		file.Close()
		return "", fmt.Errorf("cannot write table %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return "", fmt.Errorf("cannot close file %s: %w", path, err)
	}

	a.log.Debug("Table written", slog.String("path", path))

	return path, nil
}

func (a *fsAdapter) writeTable(file io.Writer, header []string, rows iter.Seq[[]string]) error {
	buf := bufio.NewWriterSize(file, writeBuffer)

	enc, err := a.encoder(buf)
	if err != nil {
		return err
	}

	w := csv.NewWriter(enc)
	if err := w.Write(header); err != nil {
		return err
	}

	for row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if err := enc.Close(); err != nil {
		return err
	}

	return buf.Flush()
}

func (a *fsAdapter) encoder(w io.Writer) (io.WriteCloser, error) {
	switch a.codec {
	case CodecGzip:
		// The header keeps a zero modification time, so equal tables give
		// equal files.
		return gzip.NewWriterLevel(w, gzip.DefaultCompression)
	case CodecSnappy:
		return snappy.NewBufferedWriter(w), nil
	default:
		return nopWriteCloser{w}, nil
	}
}

// ReadTable reads back a table written by WriteTable. The codec is taken
// from the file extension.
func (a *fsAdapter) ReadTable(path string) ([]string, [][]string, error) {
	file, err := a.fs.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open file %s: %w", path, err)
	}
	defer file.Close()

	var r io.Reader = file
	switch codecOf(path) {
	case CodecGzip:
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot read gzip header %s: %w", path, err)
		}
		defer gz.Close()

		r = gz
	case CodecSnappy:
		r = snappy.NewReader(file)
	}

	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read table %s: %w", path, err)
	}

	if len(records) == 0 {
		return nil, nil, fmt.Errorf("table %s has no header", path)
	}

	return records[0], records[1:], nil
}

// ListTables returns the paths of the tables in dir written with the
// adapter's codec, in name order.
func (a *fsAdapter) ListTables(dir string) ([]string, error) {
	entries, err := afero.ReadDir(a.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read folder %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), a.codec.Ext()) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}

	return paths, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}
