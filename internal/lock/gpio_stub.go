//go:build !linux || (!arm && !arm64)

package lock

import "fmt"

func openLine(pin int) (line, error) {
	return nil, fmt.Errorf("lock: gpio unsupported on this platform")
}

var openLineFn = openLine
