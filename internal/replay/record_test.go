package replay

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"orientd/internal/sensor"
)

func TestRecorder_WritesDeliveredSamples(t *testing.T) {
	t0 := time.Unix(1000, 0)
	var buf bytes.Buffer
	w, err := NewWriter(nopCloser{&buf}, t0)
	if err != nil {
		t.Fatalf("NewWriter() error: %v", err)
	}

	inner := &Source{
		Records: []Record{{At: 0, Sample: sensor.AngleSample(10)}, {At: time.Second, Sample: sensor.AngleSample(95)}},
		Sleeper: &fakeSleeper{},
	}
	times := []time.Time{t0, t0.Add(500 * time.Millisecond)}
	i := 0
	rec := &Recorder{Source: inner, W: w, Now: func() time.Time { tt := times[i]; i++; return tt }}

	var got []sensor.Sample
	if err := rec.Start(context.Background(), func(s sensor.Sample) { got = append(got, s) }); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("delivered %d samples, want 2", len(got))
	}

	recs, err := NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	want := []Record{
		{Start: true},
		{At: 0, Sample: sensor.AngleSample(10)},
		{At: 500 * time.Millisecond, Sample: sensor.AngleSample(95)},
	}
	if diff := cmp.Diff(want, recs); diff != "" {
		t.Fatalf("records (-want +got):\n%s", diff)
	}
}
