package sensor

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLine decodes "<kind>,<v1>[,<v2>...]", e.g. "angle,92" or
// "tilt,-0.8,0.1". Surrounding whitespace is ignored.
func ParseLine(line string) (Sample, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) < 2 {
		return Sample{}, fmt.Errorf("sensor: invalid sample line %q", line)
	}
	k, err := ParseKind(strings.TrimSpace(fields[0]))
	if err != nil {
		return Sample{}, err
	}
	vals := make([]float64, 0, len(fields)-1)
	for _, f := range fields[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Sample{}, fmt.Errorf("sensor: invalid value %q in %q", f, line)
		}
		vals = append(vals, v)
	}
	return FromValues(k, vals)
}

// FormatLine is the inverse of ParseLine.
func FormatLine(s Sample) string {
	var b strings.Builder
	b.WriteString(s.Kind.String())
	for _, v := range s.Values() {
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}
