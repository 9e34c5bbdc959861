// Package pipeline runs the fetch -> extract -> classify -> format cycle
// and owns the resulting display state.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gridclock/internal/config"
	"gridclock/internal/countdown"
	"gridclock/internal/display"
	"gridclock/internal/feed"
	applog "gridclock/internal/log"
	"gridclock/internal/metrics"
	"gridclock/internal/model"
	"gridclock/internal/notify"
	"gridclock/internal/schedule"
)

// ErrCycleFailed is the cycle-fatal error state: every enabled feed failed,
// so there is nothing to display.
var ErrCycleFailed = errors.New("error loading events")

// Options configures a Pipeline.
type Options struct {
	// Snapshot yields the immutable configuration view for a cycle.
	Snapshot func() config.Snapshot
	// Fetcher retrieves the feeds. Defaults to feed.NewFetcher().
	Fetcher *feed.Fetcher
	// Sink receives countdown ticks from the current cycle's handles.
	Sink func(countdown.Tick)
	// Broadcast, if set, receives notification payloads for fan-out.
	Broadcast func([]byte)
	// Metrics records instrumentation. Defaults to metrics.Noop.
	Metrics metrics.Recorder
	// Now overrides the time source, for tests.
	Now func() time.Time
}

// Pipeline executes fetch cycles. Cycles never overlap: a trigger tears
// down the previous cycle's countdown handles and alarms, then replaces the
// display state wholesale.
type Pipeline struct {
	snapshot  func() config.Snapshot
	fetcher   *feed.Fetcher
	sink      func(countdown.Tick)
	broadcast func([]byte)
	metrics   metrics.Recorder
	now       func() time.Time
	log       zerolog.Logger

	notifier   *notify.Scheduler
	notifySink *switchableSink

	mu       sync.Mutex // serializes cycles
	registry *countdown.Registry

	stateMu sync.RWMutex
	state   model.DisplaySet
	failed  bool
}

// New creates a Pipeline. No cycle is run until Refresh is called.
func New(opts Options) *Pipeline {
	if opts.Fetcher == nil {
		opts.Fetcher = feed.NewFetcher()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sink == nil {
		opts.Sink = func(countdown.Tick) {}
	}

	p := &Pipeline{
		snapshot:  opts.Snapshot,
		fetcher:   opts.Fetcher,
		sink:      opts.Sink,
		broadcast: opts.Broadcast,
		metrics:   opts.Metrics,
		now:       opts.Now,
		log:       applog.WithComponent("pipeline"),
	}

	p.notifySink = &switchableSink{}
	p.notifySink.set(notify.NewLogSink(opts.Broadcast))
	p.notifier = notify.NewScheduler(countingSink{inner: p.notifySink, metrics: opts.Metrics}, opts.Now)

	return p
}

// Refresh runs one full cycle: tear down the previous cycle, snapshot the
// configuration, fetch, extract, classify, format, and swap in the new
// display state. Returns ErrCycleFailed when every enabled feed failed.
func (p *Pipeline) Refresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Previous cycle's timers must be gone before anything else happens.
	if p.registry != nil {
		p.registry.Close()
		p.registry = nil
	}
	p.notifier.Clear()

	snap := p.snapshot()
	now := p.now()

	sources := make([]feed.Source, 0, len(snap.Feeds))
	for _, f := range snap.Feeds {
		sources = append(sources, feed.Source{Series: f.Series, URL: f.URL})
	}

	if len(sources) == 0 {
		p.log.Info().Msg("no series enabled; empty display set")
		p.setState(model.DisplaySet{
			Items:       []model.DisplayItem{},
			FetchedAt:   now,
			ShowSeconds: snap.ShowSeconds,
		}, false)
		p.metrics.SetDisplayedSessions(0)
		p.metrics.CycleCompleted(true)
		return nil
	}

	results, feedErrs := p.fetcher.FetchAll(ctx, sources)
	for _, fe := range feedErrs {
		p.metrics.FeedFailed(string(fe.Series), fe.Stage)
	}

	if len(results) == 0 {
		p.log.Error().Int("feeds", len(sources)).Msg("every enabled feed failed")
		p.setState(model.DisplaySet{FetchedAt: now, ShowSeconds: snap.ShowSeconds}, true)
		p.metrics.SetDisplayedSessions(0)
		p.metrics.CycleCompleted(false)
		return ErrCycleFailed
	}

	var sessions []model.Session
	for _, res := range results {
		extracted, err := feed.ExtractSessions(res.Source, res.Body, feed.ExtractConfig{
			Now:     now,
			Horizon: snap.Horizon,
		})
		if err != nil {
			p.log.Error().Err(err).
				Str("series", string(res.Source.Series)).
				Msg("feed parse failed; entries omitted")
			feedErrs = append(feedErrs, model.FeedError{
				Series:  res.Source.Series,
				Stage:   "parse",
				Message: err.Error(),
			})
			p.metrics.FeedFailed(string(res.Source.Series), "parse")
			continue
		}
		sessions = append(sessions, extracted...)
	}

	selected := schedule.Select(sessions, schedule.Options{
		Now:         now,
		MaxSessions: snap.MaxSessions,
		FantasyLock: snap.ShowFantasyLock,
	})

	items := display.Build(selected, snap, now)

	p.setState(model.DisplaySet{
		Items:       items,
		FeedErrors:  feedErrs,
		FetchedAt:   now,
		ShowSeconds: snap.ShowSeconds,
	}, false)

	p.registry = countdown.NewRegistry(p.sink, p.now)
	for _, s := range selected {
		p.registry.Track(s.Key(), s.Start)
	}

	if snap.NotificationsEnabled {
		sink := notify.Sink(notify.NewLogSink(p.broadcast))
		if snap.NotifyWebhook != "" {
			sink = notify.Fanout{sink, notify.NewWebhookSink(snap.NotifyWebhook)}
		}
		p.notifySink.set(sink)
		p.notifier.Schedule(selected)
	}

	p.metrics.SetDisplayedSessions(len(items))
	p.metrics.CycleCompleted(true)
	p.log.Info().
		Int("sessions", len(items)).
		Int("feed_errors", len(feedErrs)).
		Msg("cycle completed")

	return nil
}

// Display returns the current display set, or ErrCycleFailed while the last
// cycle failed entirely.
func (p *Pipeline) Display() (model.DisplaySet, error) {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	if p.failed {
		return model.DisplaySet{}, ErrCycleFailed
	}
	return p.state, nil
}

// TestNotification delivers a canned notification through the current sink.
func (p *Pipeline) TestNotification() {
	p.notifier.Test()
}

// Close tears down the current cycle's timers and alarms.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.registry != nil {
		p.registry.Close()
		p.registry = nil
	}
	p.notifier.Clear()
}

func (p *Pipeline) setState(set model.DisplaySet, failed bool) {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	p.state = set
	p.failed = failed
}

// switchableSink lets the pipeline swap the notification delivery target
// per cycle (the webhook URL is part of the config snapshot).
type switchableSink struct {
	mu    sync.RWMutex
	inner notify.Sink
}

func (s *switchableSink) set(sink notify.Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner = sink
}

func (s *switchableSink) get() notify.Sink {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner
}

func (s *switchableSink) Notify(n notify.Notification) {
	if sink := s.get(); sink != nil {
		sink.Notify(n)
	}
}

// countingSink counts fired notifications before delegating.
type countingSink struct {
	inner   notify.Sink
	metrics metrics.Recorder
}

func (c countingSink) Notify(n notify.Notification) {
	c.metrics.NotificationFired()
	c.inner.Notify(n)
}
