package producer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
)

// CSVOption configures the csv.Reader of a CSV producer.
type CSVOption func(*csv.Reader)

// WithComma sets the field delimiter (default is ',').
func WithComma(comma rune) CSVOption {
	return func(r *csv.Reader) {
		r.Comma = comma
	}
}

// WithComment sets the comment character. Lines beginning with this
// character are ignored.
func WithComment(comment rune) CSVOption {
	return func(r *csv.Reader) {
		r.Comment = comment
	}
}

// WithFieldsPerRecord sets the expected number of fields per record.
// If positive, each record must have exactly that many fields.
// If 0, the number is set to the first record's field count.
// If negative, no check is made and records may have variable fields.
func WithFieldsPerRecord(n int) CSVOption {
	return func(r *csv.Reader) {
		r.FieldsPerRecord = n
	}
}

// WithLazyQuotes allows lazy quotes in quoted fields.
func WithLazyQuotes(lazy bool) CSVOption {
	return func(r *csv.Reader) {
		r.LazyQuotes = lazy
	}
}

// WithTrimLeadingSpace trims leading whitespace from fields.
func WithTrimLeadingSpace(trim bool) CSVOption {
	return func(r *csv.Reader) {
		r.TrimLeadingSpace = trim
	}
}

// ErrNoHeader is reported by a header-keyed CSV producer reading empty input.
var ErrNoHeader = errors.New("csv: missing header row")

// CSVProducer produces records read from CSV input, keyed by record number
// starting at 0. A malformed record ends the read; Err reports why.
type CSVProducer[V any] struct {
	open   func() (io.ReadCloser, error)
	opts   []CSVOption
	header bool
	decode func(header, record []string) (V, error)
	err    error
}

// CSV creates a producer of the raw records of r.
func CSV(r io.Reader, opts ...CSVOption) *CSVProducer[[]string] {
	return &CSVProducer[[]string]{
		open:   nopOpen(r),
		opts:   opts,
		decode: func(_, record []string) ([]string, error) { return record, nil },
	}
}

// CSVFile creates a producer of the raw records of the file at path.
func CSVFile(path string, opts ...CSVOption) *CSVProducer[[]string] {
	p := CSV(nil, opts...)
	p.open = fileOpen(path)
	return p
}

// CSVRows creates a producer treating the first record of r as a header and
// producing every following record as a map from column name to field.
func CSVRows(r io.Reader, opts ...CSVOption) *CSVProducer[map[string]string] {
	return &CSVProducer[map[string]string]{
		open:   nopOpen(r),
		opts:   opts,
		header: true,
		decode: func(header, record []string) (map[string]string, error) {
			if len(record) != len(header) {
				return nil, fmt.Errorf("csv: record has %d fields, header has %d", len(record), len(header))
			}
			row := make(map[string]string, len(header))
			for i, name := range header {
				row[name] = record[i]
			}
			return row, nil
		},
	}
}

func nopOpen(r io.Reader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) { return io.NopCloser(r), nil }
}

func fileOpen(path string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) { return os.Open(path) }
}

// Err returns the error that ended the last read, if any.
func (p *CSVProducer[V]) Err() error { return p.err }

func (p *CSVProducer[V]) All() iter.Seq2[int, V] {
	return p.AllContext(context.Background())
}

func (p *CSVProducer[V]) AllContext(ctx context.Context) iter.Seq2[int, V] {
	return func(yield func(int, V) bool) {
		p.err = nil
		rc, err := p.open()
		if err != nil {
			p.err = err
			return
		}
		defer rc.Close()

		reader := csv.NewReader(rc)
		for _, opt := range p.opts {
			opt(reader)
		}

		var header []string
		if p.header {
			header, err = reader.Read()
			if err == io.EOF {
				p.err = ErrNoHeader
				return
			}
			if err != nil {
				p.err = err
				return
			}
			header = append([]string(nil), header...)
		}

		for n := 0; ; n++ {
			if ctx.Err() != nil {
				return
			}
			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				p.err = err
				return
			}
			v, err := p.decode(header, record)
			if err != nil {
				p.err = fmt.Errorf("record %d: %w", n, err)
				return
			}
			if !yield(n, v) {
				return
			}
		}
	}
}
