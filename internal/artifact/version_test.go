package artifact

import (
	"strconv"
	"testing"
)

func TestNextVersion(t *testing.T) {
	tests := []struct {
		name    string
		current string
		want    string
	}{
		{name: "initial", current: "1", want: "2"},
		{name: "mid chain", current: "41", want: "42"},
		{name: "whitespace tolerated", current: " 7 ", want: "8"},
		{name: "corrupted treated as 1", current: "abc", want: "2"},
		{name: "empty treated as 1", current: "", want: "2"},
		{name: "float treated as 1", current: "1.5", want: "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextVersion(tt.current); got != tt.want {
				t.Errorf("NextVersion(%q) = %q, want %q", tt.current, got, tt.want)
			}
		})
	}
}

func TestNextVersion_Monotonic(t *testing.T) {
	// n applications to "1" must yield strconv(n+1).
	v := "1"
	for n := 1; n <= 100; n++ {
		v = NextVersion(v)
		if want := strconv.Itoa(n + 1); v != want {
			t.Fatalf("after %d bumps got %q, want %q", n, v, want)
		}
	}
}
