package audit

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type status struct {
	queued    uint64
	processed uint64
	found     uint64
	unknown   uint64
	start     time.Time
	interval  time.Duration
	progress  chan struct{}
}

func newStatus(interval time.Duration) *status {
	return &status{
		start:    time.Now(),
		interval: interval,
		progress: make(chan struct{}),
	}
}

// BeginProgress reports the progress of the audit every interval. A zero interval reports nothing.
func (s *status) BeginProgress() {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-s.progress:
				return
			case <-ticker.C:
				queued := atomic.LoadUint64(&s.queued)
				processed := atomic.LoadUint64(&s.processed)
				var pct float64
				if queued > 0 {
					pct = float64(processed*100) / float64(queued)
				}
				log.Info().Msgf("%.2f%% of queued passwords audited. %.0f passwords/s", pct, s.perSecond())
			}
		}
	}()
}

func (s *status) Queued() {
	atomic.AddUint64(&s.queued, 1)
}

func (s *status) Processed(found, unknown bool) {
	atomic.AddUint64(&s.processed, 1)
	if found {
		atomic.AddUint64(&s.found, 1)
	}
	if unknown {
		atomic.AddUint64(&s.unknown, 1)
	}
}

func (s *status) perSecond() float64 {
	processed := float64(atomic.LoadUint64(&s.processed))
	elapsed := time.Since(s.start)
	if elapsed.Seconds() > 0 {
		return processed / elapsed.Seconds()
	}
	return processed
}

// Done stops the progress reports and logs the totals.
func (s *status) Done() time.Duration {
	close(s.progress)
	elapsed := time.Since(s.start)

	p := message.NewPrinter(language.English)
	log.Info().Msgf("audited %s passwords in %v. %.0f passwords/s", p.Sprintf("%d", atomic.LoadUint64(&s.processed)), elapsed, s.perSecond())
	log.Debug().Msgf("breached: %s, lookups failed: %s", p.Sprintf("%d", atomic.LoadUint64(&s.found)), p.Sprintf("%d", atomic.LoadUint64(&s.unknown)))
	return elapsed
}
