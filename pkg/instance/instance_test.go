package instance

import "testing"

func TestIDPrefersConfiguredWorkerID(t *testing.T) {
	t.Setenv(EnvWorkerID, "  cron-7 ")
	if got := ID(); got != "cron-7" {
		t.Fatalf("expected cron-7, got %q", got)
	}
}

func TestIDFallsBackWhenUnset(t *testing.T) {
	t.Setenv(EnvWorkerID, "")
	if got := ID(); got == "" {
		t.Fatal("expected a non-empty fallback id")
	}
}
