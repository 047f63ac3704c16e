package producer

import (
	"context"
	"errors"
	"io"
	"iter"
	"os"

	"github.com/goccy/go-json"
)

// ErrNotArray is reported when a JSONArray source does not start with '['.
var ErrNotArray = errors.New("producer: JSON input is not an array")

// JSONProducer decodes JSON values into V, keyed by position from 0.
type JSONProducer[V any] struct {
	open  func() (io.ReadCloser, error)
	array bool
	err   error
}

// JSONLines creates a producer decoding a stream of JSON values from r, such
// as newline-delimited JSON.
func JSONLines[V any](r io.Reader) *JSONProducer[V] {
	return &JSONProducer[V]{open: func() (io.ReadCloser, error) { return io.NopCloser(r), nil }}
}

// JSONFile creates a producer decoding a stream of JSON values from the file
// at path.
func JSONFile[V any](path string) *JSONProducer[V] {
	return &JSONProducer[V]{open: func() (io.ReadCloser, error) { return os.Open(path) }}
}

// JSONArray creates a producer decoding the elements of the JSON array read
// from r.
func JSONArray[V any](r io.Reader) *JSONProducer[V] {
	return &JSONProducer[V]{
		open:  func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
		array: true,
	}
}

// Err returns the error that ended the last read, if any.
func (p *JSONProducer[V]) Err() error { return p.err }

func (p *JSONProducer[V]) All() iter.Seq2[int, V] {
	return p.AllContext(context.Background())
}

func (p *JSONProducer[V]) AllContext(ctx context.Context) iter.Seq2[int, V] {
	return func(yield func(int, V) bool) {
		p.err = nil
		rc, err := p.open()
		if err != nil {
			p.err = err
			return
		}
		defer rc.Close()

		dec := json.NewDecoder(rc)
		if p.array {
			tok, err := dec.Token()
			if err != nil {
				p.err = err
				return
			}
			if d, ok := tok.(json.Delim); !ok || d != '[' {
				p.err = ErrNotArray
				return
			}
		}

		for i := 0; ; i++ {
			if ctx.Err() != nil {
				return
			}
			if p.array && !dec.More() {
				return
			}
			var value V
			if err := dec.Decode(&value); err != nil {
				if !errors.Is(err, io.EOF) || p.array {
					p.err = err
				}
				return
			}
			if !yield(i, value) {
				return
			}
		}
	}
}
