package sensor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseLine(t *testing.T) {
	cases := []struct {
		line string
		want Sample
	}{
		{"angle,92", AngleSample(92)},
		{" tilt, -0.8 ,0.1 ", TiltSample(-0.8, 0.1)},
		{"accel,0.9,0,0.1", AccelSample(0.9, 0, 0.1)},
		{"accelmag,0,9.81,0,0,20,-40", AccelMagSample([3]float64{0, 9.81, 0}, [3]float64{0, 20, -40})},
	}
	for _, tc := range cases {
		got, err := ParseLine(tc.line)
		if err != nil {
			t.Fatalf("ParseLine(%q) error: %v", tc.line, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("ParseLine(%q) (-want +got):\n%s", tc.line, diff)
		}
		if again, err := ParseLine(FormatLine(got)); err != nil || !cmp.Equal(again, got) {
			t.Fatalf("FormatLine(%q) did not parse back: %v", tc.line, err)
		}
	}
}

func TestParseLine_Errors(t *testing.T) {
	for _, line := range []string{"", "angle", "gyro,1,2,3", "angle,abc", "tilt,1", "accel,1,2,3,4"} {
		if _, err := ParseLine(line); err == nil {
			t.Fatalf("ParseLine(%q): expected error", line)
		}
	}
}
