package monitoring

import (
	"time"

	"github.com/grapnel-io/grapnel/hooks"
)

// A ChainProgress describes one hook chain that is currently executing.
type ChainProgress struct {
	ID        string    `json:"id"`
	Engine    string    `json:"engine"`
	Hook      string    `json:"hook"`
	Flavor    string    `json:"flavor"`
	StartTime time.Time `json:"start_time"`
}

// chainWatcher maintains the monitor's in-flight chain list from engine
// observations.
type chainWatcher struct {
	monitor *Monitor
	engine  string
}

func (w *chainWatcher) Observe(ctx hooks.ObsCtx) {
	switch ctx.Pos {
	case hooks.ObsPosChainStart:
		info := ctx.Item.(hooks.ChainInfo)
		w.monitor.chainStarted(&ChainProgress{
			ID:        info.ID,
			Engine:    w.engine,
			Hook:      info.Hook,
			Flavor:    info.Flavor,
			StartTime: time.Now(),
		})
	case hooks.ObsPosChainEnd:
		info := ctx.Item.(hooks.ChainInfo)
		w.monitor.chainEnded(w.engine, info.ID, ctx.Err)
	}
}

// Chain IDs are only unique within one engine, so the in-flight map is
// keyed by engine name and chain ID together.
func (m *Monitor) chainStarted(c *ChainProgress) {
	m.chainLock.Lock()
	defer m.chainLock.Unlock()

	m.inflight[c.Engine+"/"+c.ID] = c
}

func (m *Monitor) chainEnded(engine, id string, err error) {
	m.chainLock.Lock()
	defer m.chainLock.Unlock()

	delete(m.inflight, engine+"/"+id)

	if err != nil {
		m.failed++
		return
	}

	m.completed++
}
