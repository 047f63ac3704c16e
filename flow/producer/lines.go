package producer

import (
	"bufio"
	"context"
	"io"
	"iter"
	"os"
)

// LinesProducer produces the lines of a text source keyed by line number,
// starting at 1. Lines are produced without their trailing newline.
type LinesProducer struct {
	open   func() (io.ReadCloser, error)
	bufCap int
	err    error
}

// LinesOption configures a LinesProducer.
type LinesOption func(*LinesProducer)

// WithMaxLineSize raises the longest line the producer can read. Lines
// longer than the default 64 KiB otherwise fail the read.
func WithMaxLineSize(n int) LinesOption {
	return func(p *LinesProducer) {
		p.bufCap = n
	}
}

// Lines creates a producer reading lines from r.
func Lines(r io.Reader, opts ...LinesOption) *LinesProducer {
	return newLines(func() (io.ReadCloser, error) { return io.NopCloser(r), nil }, opts)
}

// File creates a producer reading lines from the file at path. The file is
// opened when a run starts and closed when it ends.
func File(path string, opts ...LinesOption) *LinesProducer {
	return newLines(func() (io.ReadCloser, error) { return os.Open(path) }, opts)
}

func newLines(open func() (io.ReadCloser, error), opts []LinesOption) *LinesProducer {
	p := &LinesProducer{open: open}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Err returns the error that ended the last read, if any.
func (p *LinesProducer) Err() error { return p.err }

func (p *LinesProducer) All() iter.Seq2[int, string] {
	return p.AllContext(context.Background())
}

func (p *LinesProducer) AllContext(ctx context.Context) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		p.err = nil
		rc, err := p.open()
		if err != nil {
			p.err = err
			return
		}
		defer rc.Close()

		scanner := bufio.NewScanner(rc)
		if p.bufCap > 0 {
			scanner.Buffer(make([]byte, 0, min(p.bufCap, 64*1024)), p.bufCap)
		}
		for n := 1; scanner.Scan(); n++ {
			if ctx.Err() != nil {
				return
			}
			if !yield(n, scanner.Text()) {
				return
			}
		}
		p.err = scanner.Err()
	}
}
