package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for the HTTP surface and the
// escalation scheduler.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64

	ticksRun       int64
	ticksSkipped   int64
	ticketsChecked int64

	notificationsSent    int64
	notificationsFailed  int64
	notificationsDeduped int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordTick counts a completed or skipped scheduler tick.
func (m *Metrics) RecordTick(skipped bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if skipped {
		m.ticksSkipped++
	} else {
		m.ticksRun++
	}
}

// AddTicketsChecked counts tickets evaluated during a tick.
func (m *Metrics) AddTicketsChecked(n int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticketsChecked += int64(n)
}

// NotificationOutcome labels the result of one escalation dispatch attempt.
type NotificationOutcome string

const (
	NotificationSent    NotificationOutcome = "sent"
	NotificationFailed  NotificationOutcome = "failed"
	NotificationDeduped NotificationOutcome = "deduped"
)

// RecordNotification counts one dispatch outcome.
func (m *Metrics) RecordNotification(outcome NotificationOutcome) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	switch outcome {
	case NotificationSent:
		m.notificationsSent++
	case NotificationFailed:
		m.notificationsFailed++
	case NotificationDeduped:
		m.notificationsDeduped++
	}
}

// Snapshot returns current counter values keyed by name.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := map[string]int64{
		"ticks_run":             m.ticksRun,
		"ticks_skipped":         m.ticksSkipped,
		"tickets_checked":       m.ticketsChecked,
		"notifications_sent":    m.notificationsSent,
		"notifications_failed":  m.notificationsFailed,
		"notifications_deduped": m.notificationsDeduped,
	}
	var requests, errors int64
	for _, v := range m.requestCount {
		requests += v
	}
	for _, v := range m.errorCount {
		errors += v
	}
	snap["http_requests"] = requests
	snap["http_errors"] = errors
	return snap
}
