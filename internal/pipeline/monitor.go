package pipeline

import (
	"log/slog"
	"time"

	"github.com/bizlink-systems/bizlink-webhooks/internal/metrics"
)

// StartMonitor launches the periodic self-check that restarts draining if the
// queue is populated but no drain pass is running. It is a safety net against
// scheduling races, not a substitute for correct state management.
func (p *Pipeline) StartMonitor() {
	p.wg.Add(1)
	go p.monitorLoop()
}

func (p *Pipeline) monitorLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.checkStalled()
		}
	}
}

func (p *Pipeline) checkStalled() {
	p.mu.Lock()
	depth := len(p.queue)
	stalled := depth > 0 && !p.draining
	p.mu.Unlock()

	if !stalled {
		return
	}

	slog.Warn("queue populated with no active drain, restarting",
		slog.Int("queue_depth", depth))
	metrics.MonitorKicks.Inc()
	p.maybeDrain()
}
