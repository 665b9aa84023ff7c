// Package gateway wires the whole application together: channels feed the
// message bus, each inbound prompt runs through the orchestrator against its
// session, and replies go back out on the channel they came from.
package gateway

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/stellarlinkco/anova/internal/bus"
	"github.com/stellarlinkco/anova/internal/channel"
	"github.com/stellarlinkco/anova/internal/config"
	"github.com/stellarlinkco/anova/internal/cron"
	"github.com/stellarlinkco/anova/internal/intent"
	"github.com/stellarlinkco/anova/internal/memory"
	"github.com/stellarlinkco/anova/internal/orchestrator"
	"github.com/stellarlinkco/anova/internal/preference"
	"github.com/stellarlinkco/anova/internal/provider"
	"github.com/stellarlinkco/anova/internal/routing"
	"github.com/stellarlinkco/anova/internal/store"
)

const costRetention = 90 * 24 * time.Hour

// Options allow tests to inject stub adapters, a prebuilt store, and a signal
// channel.
type Options struct {
	Adapters   []provider.Adapter
	Docs       store.DocumentStore
	SignalChan chan os.Signal
}

// sessionEntry binds a conversation's session memory to the user it belongs to.
type sessionEntry struct {
	session *memory.Session
	userID  string
}

type Gateway struct {
	cfg      *config.Config
	bus      *bus.MessageBus
	docs     store.DocumentStore
	ledger   *store.SQLiteStore // nil when the redis backend is configured
	users    *memory.UserStore
	queue    *memory.PersistQueue
	orch     *orchestrator.Orchestrator
	channels *channel.ChannelManager
	cron     *cron.Service

	mu       sync.Mutex
	sessions map[string]*sessionEntry

	signalChan chan os.Signal
}

func New(cfg *config.Config) (*Gateway, error) {
	return NewWithOptions(cfg, Options{})
}

func NewWithOptions(cfg *config.Config, opts Options) (*Gateway, error) {
	g := &Gateway{
		cfg:      cfg,
		sessions: make(map[string]*sessionEntry),
	}

	g.bus = bus.NewMessageBus(config.DefaultBufSize)

	docs := opts.Docs
	if docs == nil {
		opened, err := store.Open(cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("open document store: %w", err)
		}
		docs = opened
	}
	g.docs = docs
	if sqliteStore, ok := docs.(*store.SQLiteStore); ok {
		g.ledger = sqliteStore
	}

	g.users = memory.NewUserStore(docs)
	g.queue = memory.NewPersistQueue(g.users, cfg.Memory.PersistQueueSize, cfg.Memory.PersistMaxRetries)

	adapters := opts.Adapters
	if adapters == nil {
		adapters = provider.BuildAdapters(cfg)
	}
	router := routing.NewRouter(adapters, cfg.Routing)

	g.orch = orchestrator.New(intent.NewKeywordClassifier(), preference.NewEngine(), router, g.users, g.queue)

	g.cron = cron.NewService()
	g.cron.Register("memory-flush", cfg.Memory.FlushCron, g.flushSessions)
	g.cron.Register("cost-rollup", config.DefaultCostRollupCron, g.rollupCosts)

	chMgr, err := channel.NewChannelManager(cfg.Channels, cfg.Gateway, g.bus)
	if err != nil {
		_ = docs.Close()
		return nil, fmt.Errorf("create channel manager: %w", err)
	}
	g.channels = chMgr

	g.signalChan = opts.SignalChan

	return g, nil
}

// sessionFor returns the session for a conversation, creating it on first
// contact.
func (g *Gateway) sessionFor(key, userID string) *memory.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.sessions[key]
	if !ok {
		entry = &sessionEntry{session: memory.NewSession(), userID: userID}
		g.sessions[key] = entry
	}
	return entry.session
}

func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g.queue.Start(ctx)
	go g.bus.DispatchOutbound(ctx)

	if err := g.channels.StartAll(ctx); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}
	log.Printf("[gateway] channels started: %v", g.channels.EnabledChannels())

	if err := g.cron.Start(); err != nil {
		log.Printf("[gateway] cron start warning: %v", err)
	}

	go g.processLoop(ctx)

	log.Printf("[gateway] running on %s:%d", g.cfg.Gateway.Host, g.cfg.Gateway.Port)

	sigCh := g.signalChan
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	}
	<-sigCh

	log.Printf("[gateway] shutting down...")
	return g.Shutdown()
}

func (g *Gateway) processLoop(ctx context.Context) {
	for {
		select {
		case msg := <-g.bus.Inbound:
			log.Printf("[gateway] inbound from %s/%s: %s", msg.Channel, msg.SenderID, truncate(msg.Content, 80))

			session := g.sessionFor(msg.SessionKey(), msg.SenderID)
			result := g.orch.Orchestrate(ctx, msg.Content, msg.SenderID, session)

			g.recordCosts(ctx, msg.SenderID, result)

			providers := make([]string, 0, len(result.Fusion.Used))
			for _, used := range result.Fusion.Used {
				providers = append(providers, used.Provider)
			}

			g.bus.Outbound <- bus.OutboundMessage{
				Channel: msg.Channel,
				ChatID:  msg.ChatID,
				Content: result.Fusion.Text,
				Metadata: map[string]any{
					"providers": providers,
					"score":     result.Fusion.Score,
				},
			}
		case <-ctx.Done():
			return
		}
	}
}

// recordCosts appends one ledger row per attempted provider call.
func (g *Gateway) recordCosts(ctx context.Context, userID string, result orchestrator.Result) {
	if g.ledger == nil || len(result.Raw) == 0 {
		return
	}
	for _, resp := range result.Raw {
		if resp.Err == provider.ErrNoProviders {
			continue
		}
		entry := store.CostEntry{
			RequestID:        result.Meta.RequestID,
			UserID:           userID,
			Provider:         resp.Provider,
			PromptTokens:     resp.PromptTokens,
			CompletionTokens: resp.CompletionTokens,
			Cost:             resp.EstimatedCost,
		}
		if err := g.ledger.AppendCost(ctx, entry); err != nil {
			log.Printf("[gateway] cost ledger warning: %v", err)
		}
	}
}

// flushSessions folds every active session into long-term user memory and
// clears the in-process state. Runs nightly.
func (g *Gateway) flushSessions() error {
	g.mu.Lock()
	entries := make([]*sessionEntry, 0, len(g.sessions))
	for _, entry := range g.sessions {
		entries = append(entries, entry)
	}
	g.sessions = make(map[string]*sessionEntry)
	g.mu.Unlock()

	for _, entry := range entries {
		if entry.userID == "" {
			continue
		}
		g.queue.Enqueue(entry.userID, entry.session.Snapshot())
	}
	log.Printf("[gateway] flushed %d sessions", len(entries))
	return nil
}

// rollupCosts logs the last day's spend and prunes expired ledger rows.
func (g *Gateway) rollupCosts() error {
	if g.ledger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	total, err := g.ledger.TotalCostSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return err
	}
	pruned, err := g.ledger.PruneCostEntries(ctx, time.Now().Add(-costRetention))
	if err != nil {
		return err
	}
	log.Printf("[gateway] last 24h cost: %.6f, pruned %d old entries", total, pruned)
	return nil
}

// StartWorkers launches the background persistence worker without the full
// channel stack. Run does this itself; the one-shot CLI path calls it
// directly. Safe to call more than once.
func (g *Gateway) StartWorkers(ctx context.Context) {
	g.queue.Start(ctx)
}

// Ask runs one prompt through the orchestrator outside any channel. Used by
// the CLI.
func (g *Gateway) Ask(ctx context.Context, prompt, userID string) orchestrator.Result {
	session := g.sessionFor("cli:"+userID, userID)
	result := g.orch.Orchestrate(ctx, prompt, userID, session)
	g.recordCosts(ctx, userID, result)
	return result
}

// Status reports operational counters for the status command.
type Status struct {
	ActiveSessions int        `json:"activeSessions"`
	QueueFailures  int64      `json:"queueFailures"`
	QueueDropped   int64      `json:"queueDropped"`
	CostLast24h    float64    `json:"costLast24h"`
	Jobs           []cron.Job `json:"jobs"`
}

func (g *Gateway) Status(ctx context.Context) Status {
	g.mu.Lock()
	active := len(g.sessions)
	g.mu.Unlock()

	st := Status{
		ActiveSessions: active,
		QueueFailures:  g.queue.Failures(),
		QueueDropped:   g.queue.Dropped(),
		Jobs:           g.cron.ListJobs(),
	}
	if g.ledger != nil {
		if total, err := g.ledger.TotalCostSince(ctx, time.Now().Add(-24*time.Hour)); err == nil {
			st.CostLast24h = total
		}
	}
	return st
}

func (g *Gateway) Shutdown() error {
	g.cron.Stop()
	g.queue.Stop()
	_ = g.channels.StopAll()
	if err := g.docs.Close(); err != nil {
		log.Printf("[gateway] close store warning: %v", err)
	}
	log.Printf("[gateway] shutdown complete")
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
