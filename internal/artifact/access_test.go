package artifact

import "testing"

func TestCanAccess(t *testing.T) {
	owner := "u1"
	tests := []struct {
		name     string
		ownerID  *string
		callerID string
		want     bool
	}{
		{name: "owner reads own artifact", ownerID: &owner, callerID: "u1", want: true},
		{name: "stranger denied", ownerID: &owner, callerID: "u2", want: false},
		{name: "ownerless readable by anyone", ownerID: nil, callerID: "u2", want: true},
		{name: "ownerless readable by empty caller", ownerID: nil, callerID: "", want: true},
		{name: "owned artifact denied to empty caller", ownerID: &owner, callerID: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canAccess(tt.ownerID, tt.callerID); got != tt.want {
				t.Errorf("canAccess(%v, %q) = %v, want %v", tt.ownerID, tt.callerID, got, tt.want)
			}
		})
	}
}
