package producer

import (
	"context"
	"database/sql"
	"iter"
)

// Querier is implemented by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// RowScanner scans the current row into a (key, value) pair.
type RowScanner[K, V any] func(rows *sql.Rows) (K, V, error)

// QueryProducer produces the rows of a query. The query runs with the
// context of each run, so it is executed once per run.
type QueryProducer[K, V any] struct {
	db    Querier
	query string
	args  []any
	scan  RowScanner[K, V]
	reset func()
	err   error
}

// Query creates a producer running query against db and turning every row
// into a pair with scan. A failing query or scan ends the read; Err reports
// why.
func Query[K, V any](db Querier, query string, scan RowScanner[K, V], args ...any) *QueryProducer[K, V] {
	return &QueryProducer[K, V]{db: db, query: query, args: args, scan: scan}
}

// QueryValues is Query for rows that only carry a value, keyed by row
// number starting at 0.
func QueryValues[V any](db Querier, query string, scan func(rows *sql.Rows) (V, error), args ...any) *QueryProducer[int, V] {
	n := -1
	return &QueryProducer[int, V]{db: db, query: query, args: args, scan: func(rows *sql.Rows) (int, V, error) {
		n++
		v, err := scan(rows)
		return n, v, err
	}, reset: func() { n = -1 }}
}

// Err returns the error that ended the last read, if any.
func (p *QueryProducer[K, V]) Err() error { return p.err }

func (p *QueryProducer[K, V]) All() iter.Seq2[K, V] {
	return p.AllContext(context.Background())
}

func (p *QueryProducer[K, V]) AllContext(ctx context.Context) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		p.err = nil
		if p.reset != nil {
			p.reset()
		}
		rows, err := p.db.QueryContext(ctx, p.query, p.args...)
		if err != nil {
			p.err = err
			return
		}
		defer rows.Close()

		for rows.Next() {
			k, v, err := p.scan(rows)
			if err != nil {
				p.err = err
				return
			}
			if !yield(k, v) {
				return
			}
		}
		if err := rows.Err(); err != nil && ctx.Err() == nil {
			p.err = err
		}
	}
}
