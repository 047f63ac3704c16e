package producer

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

var errStopWalk = errors.New("stop walk")

// FilesProducer produces file system entries keyed by path.
type FilesProducer struct {
	fs        afero.Fs
	root      string
	glob      string
	pattern   string
	filesOnly bool
	err       error
}

// FilesOption configures a FilesProducer.
type FilesOption func(*FilesProducer)

// FilesOnly leaves directories out.
func FilesOnly() FilesOption {
	return func(p *FilesProducer) {
		p.filesOnly = true
	}
}

// WithNamePattern keeps the entries whose base name matches pattern, in the
// syntax of filepath.Match.
func WithNamePattern(pattern string) FilesOption {
	return func(p *FilesProducer) {
		p.pattern = pattern
	}
}

// Walk creates a producer walking the tree rooted at root in lexical order,
// root included. A nil fsys walks the operating system's file system.
func Walk(fsys afero.Fs, root string, opts ...FilesOption) *FilesProducer {
	p := &FilesProducer{fs: fsys, root: root}
	return p.apply(opts)
}

// Glob creates a producer for the paths matching pattern, in the syntax of
// filepath.Glob. A nil fsys matches against the operating system's file
// system.
func Glob(fsys afero.Fs, pattern string, opts ...FilesOption) *FilesProducer {
	p := &FilesProducer{fs: fsys, glob: pattern}
	return p.apply(opts)
}

func (p *FilesProducer) apply(opts []FilesOption) *FilesProducer {
	if p.fs == nil {
		p.fs = afero.NewOsFs()
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Err returns the error that ended the last read, if any.
func (p *FilesProducer) Err() error { return p.err }

func (p *FilesProducer) All() iter.Seq2[string, os.FileInfo] {
	return p.AllContext(context.Background())
}

func (p *FilesProducer) AllContext(ctx context.Context) iter.Seq2[string, os.FileInfo] {
	return func(yield func(string, os.FileInfo) bool) {
		p.err = nil
		if _, err := filepath.Match(p.pattern, ""); err != nil {
			p.err = err
			return
		}
		emit := func(path string, info os.FileInfo) bool {
			if p.filesOnly && info.IsDir() {
				return true
			}
			if p.pattern != "" {
				if ok, _ := filepath.Match(p.pattern, filepath.Base(path)); !ok {
					return true
				}
			}
			return yield(path, info)
		}

		if p.glob != "" {
			p.err = p.matches(ctx, emit)
			return
		}
		err := afero.Walk(p.fs, p.root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return errStopWalk
			}
			if !emit(path, info) {
				return errStopWalk
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopWalk) {
			p.err = err
		}
	}
}

func (p *FilesProducer) matches(ctx context.Context, emit func(string, os.FileInfo) bool) error {
	paths, err := afero.Glob(p.fs, p.glob)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if ctx.Err() != nil {
			return nil
		}
		info, err := p.fs.Stat(path)
		if err != nil {
			return err
		}
		if !emit(path, info) {
			return nil
		}
	}
	return nil
}
