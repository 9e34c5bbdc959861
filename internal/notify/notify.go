// Package notify schedules session-start alarms and delivers the resulting
// notifications.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	applog "gridclock/internal/log"
	"gridclock/internal/model"
)

// Lead is how long before the session start the alarm fires.
const Lead = 5 * time.Minute

// Notification is one fired alarm.
type Notification struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Sink receives fired notifications.
type Sink interface {
	Notify(n Notification)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(n Notification)

func (f SinkFunc) Notify(n Notification) { f(n) }

// Scheduler owns the scheduled alarms of one configuration of the display
// set. Scheduling a new set clears every previously scheduled alarm first.
type Scheduler struct {
	sink Sink
	now  func() time.Time
	log  zerolog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewScheduler creates a Scheduler delivering into sink.
func NewScheduler(sink Sink, now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		sink:   sink,
		now:    now,
		log:    applog.WithComponent("notify"),
		timers: make(map[string]*time.Timer),
	}
}

// Schedule clears all previously scheduled alarms and schedules one alarm
// per given session, firing five minutes before its start. Sessions already
// inside the lead window (or past) are skipped.
func (s *Scheduler) Schedule(sessions []model.Session) {
	s.Clear()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, sess := range sessions {
		fireAt := sess.Start.Add(-Lead)
		if !fireAt.After(now) {
			continue
		}

		key := "session:" + sess.Summary
		if _, ok := s.timers[key]; ok {
			continue
		}

		summary := sess.Summary
		s.timers[key] = time.AfterFunc(fireAt.Sub(now), func() {
			s.sink.Notify(Notification{
				Key:     key,
				Title:   summary + " starting soon",
				Message: summary + " is starting in 5 minutes!",
			})
		})
		s.log.Debug().Str("key", key).Time("fire_at", fireAt).Msg("alarm scheduled")
	}

	s.log.Info().Int("alarms", len(s.timers)).Msg("alarms scheduled")
}

// Clear cancels every scheduled alarm.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}

// Pending reports the number of alarms currently scheduled.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Test delivers a canned notification through the sink, bypassing
// scheduling. Used by the test-notification API.
func (s *Scheduler) Test() {
	s.sink.Notify(Notification{
		Key:     "session:test",
		Title:   "F1 session starting soon",
		Message: "If this were real, a session would be starting in 5 minutes!",
	})
}

// LogSink logs fired notifications and optionally forwards them to a
// broadcast function as JSON.
type LogSink struct {
	log       zerolog.Logger
	broadcast func([]byte)
}

// NewLogSink creates the default sink. broadcast may be nil.
func NewLogSink(broadcast func([]byte)) *LogSink {
	return &LogSink{
		log:       applog.WithComponent("notify"),
		broadcast: broadcast,
	}
}

func (s *LogSink) Notify(n Notification) {
	s.log.Info().Str("key", n.Key).Str("title", n.Title).Msg(n.Message)
	if s.broadcast != nil {
		if b, err := json.Marshal(struct {
			Type         string       `json:"type"`
			Notification Notification `json:"notification"`
		}{Type: "notification", Notification: n}); err == nil {
			s.broadcast(b)
		}
	}
}

// WebhookSink POSTs fired notifications as JSON to a configured URL.
type WebhookSink struct {
	url    string
	client *http.Client
	log    zerolog.Logger
}

// NewWebhookSink creates a webhook sink for the given URL.
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: applog.WithComponent("notify"),
	}
}

func (s *WebhookSink) Notify(n Notification) {
	body, err := json.Marshal(n)
	if err != nil {
		return
	}
	resp, err := s.client.Post(s.url, "application/json", bytes.NewReader(body))
	if err != nil {
		s.log.Error().Err(err).Str("key", n.Key).Msg("webhook delivery failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		s.log.Error().Err(fmt.Errorf("unexpected status: %s", resp.Status)).
			Str("key", n.Key).Msg("webhook delivery failed")
	}
}

// Fanout delivers each notification to every sink in order.
type Fanout []Sink

func (f Fanout) Notify(n Notification) {
	for _, s := range f {
		s.Notify(n)
	}
}
