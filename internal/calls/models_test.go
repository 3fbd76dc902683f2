package calls

import "testing"

func TestCallStatus_TerminalAndValid(t *testing.T) {
	tests := []struct {
		s        CallStatus
		valid    bool
		terminal bool
	}{
		{CallStatusRinging, true, false},
		{CallStatusInProgress, true, false},
		{CallStatusCompleted, true, true},
		{CallStatusFailed, true, true},
		{"busy", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		if tt.s.Valid() != tt.valid {
			t.Fatalf("%q Valid() = %v", tt.s, tt.s.Valid())
		}
		if tt.s.Terminal() != tt.terminal {
			t.Fatalf("%q Terminal() = %v", tt.s, tt.s.Terminal())
		}
	}
}
