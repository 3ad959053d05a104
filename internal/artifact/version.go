package artifact

import (
	"strconv"
	"strings"
)

// NextVersion returns the version string that follows current.
//
// current is parsed as a base-10 integer; an unparsable value (empty,
// non-numeric, overflow) is treated as 1, so a corrupted chain resumes at
// "2" instead of failing. NextVersion is pure and total — it never fails.
func NextVersion(current string) string {
	n, err := strconv.Atoi(strings.TrimSpace(current))
	if err != nil {
		n = 1
	}
	return strconv.Itoa(n + 1)
}
