package ticket

import (
	"fmt"
	"strings"
	"time"
)

// FormatElapsed renders d as "Xч Yм Zс", dropping zero leading units.
// Sub-second precision is truncated.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	var parts []string
	if h > 0 {
		parts = append(parts, fmt.Sprintf("%dч", h))
	}
	if h > 0 || m > 0 {
		parts = append(parts, fmt.Sprintf("%dм", m))
	}
	parts = append(parts, fmt.Sprintf("%dс", s))
	return strings.Join(parts, " ")
}
