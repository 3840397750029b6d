package web

import (
	"sync/atomic"
	"time"
)

type Status struct {
	startUnixNano int64
	eventsTotal   uint64
	lastEventNano int64
	platform      atomic.Value // string
	classifier    atomic.Value // string
	source        atomic.Value // string
	orientation   atomic.Value // string
	lock          atomic.Value // string
	systemUI      atomic.Value // string
	sensorError   atomic.Value // string
}

func NewStatus() *Status {
	s := &Status{}
	atomic.StoreInt64(&s.startUnixNano, time.Now().UTC().UnixNano())
	for _, v := range []*atomic.Value{&s.platform, &s.classifier, &s.source, &s.orientation, &s.lock, &s.systemUI, &s.sensorError} {
		v.Store("")
	}
	s.lock.Store("unspecified")
	return s
}

func (s *Status) SetStatic(platform, classifier, source string) {
	if platform != "" {
		s.platform.Store(platform)
	}
	if classifier != "" {
		s.classifier.Store(classifier)
	}
	if source != "" {
		s.source.Store(source)
	}
}

// MarkOrientation records a change event delivered to subscribers.
func (s *Status) MarkOrientation(nowUTC time.Time, name string) {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	s.orientation.Store(name)
	atomic.StoreInt64(&s.lastEventNano, nowUTC.UnixNano())
	atomic.AddUint64(&s.eventsTotal, 1)
}

func (s *Status) SetSensorError(msg string) { s.sensorError.Store(msg) }

func (s *Status) SetLock(constraint string) { s.lock.Store(constraint) }

// SetSystemUI records the last system UI flag set applied.
func (s *Status) SetSystemUI(flags string) { s.systemUI.Store(flags) }

type StatusSnapshot struct {
	Service      string `json:"service"`
	NowUTC       string `json:"now_utc"`
	UptimeSec    int64  `json:"uptime_sec"`
	Platform     string `json:"platform"`
	Classifier   string `json:"classifier"`
	Source       string `json:"source"`
	Orientation  string `json:"orientation,omitempty"`
	Lock         string `json:"lock"`
	SystemUI     string `json:"system_ui_flags,omitempty"`
	EventsTotal  uint64 `json:"events_total"`
	LastEventUTC string `json:"last_event_utc,omitempty"`
	SensorError  string `json:"sensor_error,omitempty"`

	// Filled in by the handler.
	SensorAvailable bool   `json:"sensor_available"`
	Subscribers     int    `json:"subscribers"`
	MethodChannel   string `json:"method_channel"`
	EventChannel    string `json:"event_channel"`
}

func (s *Status) Snapshot(nowUTC time.Time) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	start := time.Unix(0, atomic.LoadInt64(&s.startUnixNano)).UTC()
	lastEvent := atomic.LoadInt64(&s.lastEventNano)

	snap := StatusSnapshot{
		Service:     "orientd",
		NowUTC:      nowUTC.UTC().Format(time.RFC3339Nano),
		UptimeSec:   int64(nowUTC.Sub(start).Seconds()),
		Platform:    s.platform.Load().(string),
		Classifier:  s.classifier.Load().(string),
		Source:      s.source.Load().(string),
		Orientation: s.orientation.Load().(string),
		Lock:        s.lock.Load().(string),
		SystemUI:    s.systemUI.Load().(string),
		EventsTotal: atomic.LoadUint64(&s.eventsTotal),
		SensorError: s.sensorError.Load().(string),
	}
	if lastEvent != 0 {
		snap.LastEventUTC = time.Unix(0, lastEvent).UTC().Format(time.RFC3339Nano)
	}
	return snap
}
