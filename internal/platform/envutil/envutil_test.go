package envutil

import (
	"testing"
	"time"
)

func TestReaders(t *testing.T) {
	t.Setenv("ENVUTIL_INT", "42")
	t.Setenv("ENVUTIL_BAD_INT", "x")
	t.Setenv("ENVUTIL_FLOAT", "0.25")
	t.Setenv("ENVUTIL_BOOL", "off")
	t.Setenv("ENVUTIL_STR", "  graph ")
	t.Setenv("ENVUTIL_SECS", "3")

	if got := Int("ENVUTIL_INT", 1); got != 42 {
		t.Fatalf("Int=%d", got)
	}
	if got := Int("ENVUTIL_BAD_INT", 7); got != 7 {
		t.Fatalf("Int(bad)=%d", got)
	}
	if got := Float("ENVUTIL_FLOAT", 1); got != 0.25 {
		t.Fatalf("Float=%v", got)
	}
	if got := Bool("ENVUTIL_BOOL", true); got {
		t.Fatalf("Bool=%v", got)
	}
	if got := Bool("ENVUTIL_MISSING", true); !got {
		t.Fatalf("Bool(default)=%v", got)
	}
	if got := String("ENVUTIL_STR", "x"); got != "graph" {
		t.Fatalf("String=%q", got)
	}
	if got := Seconds("ENVUTIL_SECS", time.Minute); got != 3*time.Second {
		t.Fatalf("Seconds=%v", got)
	}
	if got := Seconds("ENVUTIL_MISSING", time.Minute); got != time.Minute {
		t.Fatalf("Seconds(default)=%v", got)
	}
}
