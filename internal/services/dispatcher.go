package services

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/siserv-tech/driverbot-backend/internal/models"
)

// Engine is the conversation state machine as seen by the dispatcher
type Engine interface {
	Handle(ctx context.Context, evt *models.InboundEvent) (*Outcome, error)
	HandleCommand(ctx context.Context, evt *models.InboundEvent) *Outcome
}

// ReplySender delivers one reply; it reports false when the body was skipped
type ReplySender interface {
	Send(ctx context.Context, to, from, body string) (bool, error)
}

// ConversationLog records exchanges in the tenant database
type ConversationLog interface {
	AppendConversation(ctx context.Context, t *models.Tenant, e models.ConversationEntry) error
}

// DispatcherConfig wires a Dispatcher
type DispatcherConfig struct {
	Engine      Engine
	Sink        ReplySender
	Log         ConversationLog
	Processed   *IdempotencyTracker
	Concurrency int
	// TaskTimeout bounds one state transition including its replies
	TaskTimeout time.Duration
}

// Dispatcher accepts inbound events, drops duplicates, and runs each one
// under its sender's lock on the worker pool. The queue keeps a sender's
// messages behind each other so a busy sender holds at most one worker.
type Dispatcher struct {
	engine    Engine
	sink      ReplySender
	convLog   ConversationLog
	processed *IdempotencyTracker
	timeout   time.Duration

	queue   *WorkQueue
	senders *keyedMutex

	mu       sync.Mutex
	inFlight map[string]struct{}
	fast     sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// NewDispatcher starts the worker pool
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Processed == nil {
		cfg.Processed = NewIdempotencyTracker(24 * time.Hour)
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 2 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		engine:    cfg.Engine,
		sink:      cfg.Sink,
		convLog:   cfg.Log,
		processed: cfg.Processed,
		timeout:   cfg.TaskTimeout,
		queue:     NewWorkQueue(cfg.Concurrency),
		senders:   newKeyedMutex(),
		inFlight:  make(map[string]struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Submit schedules evt and reports whether it was accepted. Duplicates of a
// processed or in-flight message are dropped.
func (d *Dispatcher) Submit(evt *models.InboundEvent) bool {
	if !d.claim(evt.MessageID) {
		log.Debug().Str("message_id", evt.MessageID).Msg("⚠️  Duplicate message ignored")
		return false
	}

	if IsFastCommand(evt) {
		d.fast.Add(1)
		go func() {
			defer d.fast.Done()
			d.run(evt, true)
		}()
		return true
	}

	if err := d.queue.Push(evt.From, PriorityOf(evt), func() { d.run(evt, false) }); err != nil {
		d.finish(evt.MessageID, false)
		log.Error().Err(err).Str("message_id", evt.MessageID).Msg("❌ Failed to enqueue message")
		return false
	}
	return true
}

// Simulate runs evt through the engine without sending anything
func (d *Dispatcher) Simulate(ctx context.Context, evt *models.InboundEvent) (*Outcome, error) {
	unlock := d.senders.Lock(evt.From)
	defer unlock()

	if IsFastCommand(evt) {
		return d.engine.HandleCommand(ctx, evt), nil
	}
	return d.engine.Handle(ctx, evt)
}

// QueueDepth is the number of messages waiting for a worker
func (d *Dispatcher) QueueDepth() int {
	return d.queue.Len()
}

// Close drains the queue and waits for running tasks
func (d *Dispatcher) Close() {
	d.queue.Close()
	d.fast.Wait()
	d.cancel()
}

func (d *Dispatcher) claim(id string) bool {
	if id == "" {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, busy := d.inFlight[id]; busy || d.processed.WasProcessed(id) {
		return false
	}
	d.inFlight[id] = struct{}{}
	return true
}

// finish clears id from the in-flight set, recording it as processed when done is set
func (d *Dispatcher) finish(id string, done bool) {
	if id == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if done {
		d.processed.MarkProcessed(id)
	}
	delete(d.inFlight, id)
}

// run performs one full transition for evt while holding its sender's lock
func (d *Dispatcher) run(evt *models.InboundEvent, fast bool) {
	ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
	defer cancel()

	unlock := d.senders.Lock(evt.From)
	defer unlock()
	defer d.finish(evt.MessageID, true)

	out := d.handle(ctx, evt, fast)
	if out == nil {
		return
	}

	for _, body := range out.Replies {
		if _, err := d.sink.Send(ctx, evt.From, evt.To, body); err != nil {
			log.Error().Err(err).Str("from", evt.From).Str("message_id", evt.MessageID).Msg("❌ Failed to deliver reply")
		}
	}
	d.record(ctx, evt, out)
}

// handle invokes the engine, turning errors and panics into the generic
// internal-error reply
func (d *Dispatcher) handle(ctx context.Context, evt *models.InboundEvent, fast bool) (out *Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("from", evt.From).
				Str("message_id", evt.MessageID).
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("❌ Panic while handling message")
			out = &Outcome{Replies: []string{msgInternalError}}
		}
	}()

	if fast {
		return d.engine.HandleCommand(ctx, evt)
	}
	out, err := d.engine.Handle(ctx, evt)
	if err != nil {
		log.Error().Err(err).Str("from", evt.From).Str("message_id", evt.MessageID).Msg("❌ Failed to handle message")
		return &Outcome{Replies: []string{msgInternalError}}
	}
	return out
}

// record appends the exchange to the tenant's conversation log; failures
// are only logged
func (d *Dispatcher) record(ctx context.Context, evt *models.InboundEvent, out *Outcome) {
	if d.convLog == nil || out.Tenant == nil {
		return
	}
	entry := models.ConversationEntry{
		TenantID:  out.Tenant.ID,
		Sender:    evt.From,
		Inbound:   evt.Text,
		Outbound:  out.Text(),
		MediaLink: out.MediaLink,
	}
	if err := d.convLog.AppendConversation(ctx, out.Tenant, entry); err != nil {
		log.Warn().Err(err).Int64("tenant_id", out.Tenant.ID).Str("from", evt.From).Msg("⚠️ Failed to log conversation")
	}
}
