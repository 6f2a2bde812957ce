package protocol

import (
	"reflect"
	"testing"
)

func TestMessageString(t *testing.T) {
	tests := []struct {
		msg  Message
		want string
	}{
		{SelectMsg(), "select:"},
		{UnselectMsg(), "unselect:"},
		{DeleteMsg("r1"), "delete:r1"},
		{DeleteMsg("r2", "r1"), "delete:r2,r1"},
		{RevertMsg("r1"), "revert:r1"},
		{SnapshotMsg(), "snapshot"},
		{RunMsg("single", "default", "1", "2"), "run:single:default:1,2"},
		{FocusMsg(true), "focus-in:"},
		{FocusMsg(false), "focus-out:"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.msg.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		line string
		want Message
	}{
		{"select:\n", SelectMsg()},
		{"snapshot\n", SnapshotMsg()},
		{"delete:r2,r1", DeleteMsg("r2", "r1")},
		{"revert:r1", RevertMsg("r1")},
		{"run:parallel:default:a,b", RunMsg("parallel", "default", "a", "b")},
		{"focus-out:", FocusMsg(false)},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseMessage(tt.line)
			if err != nil {
				t.Fatalf("ParseMessage(%q) error: %v", tt.line, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseMessage(%q) = %#v, want %#v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseMessageErrors(t *testing.T) {
	for _, line := range []string{"select", "run:single", "bogus:x", ""} {
		if _, err := ParseMessage(line); err == nil {
			t.Errorf("ParseMessage(%q) should fail", line)
		}
	}
}
