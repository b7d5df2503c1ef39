package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Pinger is a tenant connection pool that can be probed
type Pinger interface {
	TenantID() int64
	Ping(ctx context.Context) error
}

// PoolSource lists the pools opened so far
type PoolSource interface {
	Pingers() []Pinger
}

// TenantHeartbeat periodically pings every open tenant pool so broken
// connections show up in the logs before a driver hits them
type TenantHeartbeat struct {
	pools    PoolSource
	interval time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewTenantHeartbeat creates the job; timeout bounds each ping
func NewTenantHeartbeat(pools PoolSource, interval, timeout time.Duration) *TenantHeartbeat {
	return &TenantHeartbeat{
		pools:    pools,
		interval: interval,
		timeout:  timeout,
	}
}

// Start begins pinging in the background
func (h *TenantHeartbeat) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		log.Debug().Msg("Tenant heartbeat already running")
		return
	}
	if h.interval <= 0 {
		log.Warn().Msg("⚠️  Tenant heartbeat disabled (non-positive interval)")
		return
	}

	h.running = true
	h.stop = make(chan struct{})
	h.done = make(chan struct{})
	go h.loop(h.stop, h.done)
	log.Info().Dur("interval", h.interval).Msg("🔌 Tenant heartbeat started")
}

// Stop halts the job and waits for an in-progress round to finish
func (h *TenantHeartbeat) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	close(h.stop)
	done := h.done
	h.mu.Unlock()

	<-done
	log.Info().Msg("⏹️  Tenant heartbeat stopped")
}

func (h *TenantHeartbeat) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h.RunOnce(context.Background())
		}
	}
}

// RunOnce pings every pool and returns how many failed
func (h *TenantHeartbeat) RunOnce(ctx context.Context) int {
	failed := 0
	for _, p := range h.pools.Pingers() {
		pctx, cancel := context.WithTimeout(ctx, h.timeout)
		err := p.Ping(pctx)
		cancel()
		if err != nil {
			failed++
			log.Error().Err(err).Int64("tenant_id", p.TenantID()).Msg("❌ Tenant database ping failed")
			continue
		}
		log.Debug().Int64("tenant_id", p.TenantID()).Msg("✅ Tenant database reachable")
	}
	return failed
}
