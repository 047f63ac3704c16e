package producer

import (
	"context"
	"iter"
	"time"
)

// TickerProducer produces the times of a ticker keyed by tick number from 0.
// The first tick arrives one interval after the run starts.
type TickerProducer struct {
	interval time.Duration
	count    int
}

// Interval creates a producer ticking every d. A positive count ends the
// run after that many ticks; otherwise it ticks until the run's context is
// done or a downstream operation stops it.
func Interval(d time.Duration, count int) *TickerProducer {
	return &TickerProducer{interval: max(d, time.Nanosecond), count: count}
}

// Len reports the tick count when it is bounded.
func (p *TickerProducer) Len() (int, bool) {
	return p.count, p.count > 0
}

func (p *TickerProducer) All() iter.Seq2[int, time.Time] {
	return p.AllContext(context.Background())
}

func (p *TickerProducer) AllContext(ctx context.Context) iter.Seq2[int, time.Time] {
	return func(yield func(int, time.Time) bool) {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for i := 0; p.count <= 0 || i < p.count; i++ {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				if !yield(i, t) {
					return
				}
			}
		}
	}
}
