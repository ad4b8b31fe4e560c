package epwcharts

import (
	"strings"
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	cfg = nil

	config, err := Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if config.Host != "localhost" || config.Port != 5272 {
		t.Errorf("default address = %s:%d", config.Host, config.Port)
	}
	if config.ReplayBufferSize != HoursPerYear {
		t.Errorf("replay buffer = %d, want %d", config.ReplayBufferSize, HoursPerYear)
	}
	if config.FlushInterval != 250*time.Millisecond {
		t.Errorf("flush interval = %v", config.FlushInterval)
	}
	if config.DefaultColorSet != string(ColorSetOriginal) {
		t.Errorf("default color set = %q", config.DefaultColorSet)
	}

	// Get caches.
	again, err := Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if again != config {
		t.Error("expected the cached config on the second call")
	}
}

func TestConfigFromEnvironment(t *testing.T) {
	cfg = nil
	t.Setenv("EPWCHARTS_PORT", "9000")
	t.Setenv("EPWCHARTS_HOST", "0.0.0.0")
	t.Setenv("EPWCHARTS_FLUSH_INTERVAL", "1s")

	config, err := Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if config.Host != "0.0.0.0" || config.Port != 9000 {
		t.Errorf("address = %s:%d, want 0.0.0.0:9000", config.Host, config.Port)
	}
	if config.FlushInterval != time.Second {
		t.Errorf("flush interval = %v, want 1s", config.FlushInterval)
	}

	cfg = nil
}

func TestConfigString(t *testing.T) {
	cfg = nil

	config, err := Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	s := config.String()
	if !strings.Contains(s, "localhost") {
		t.Errorf("String() = %q, want the host in it", s)
	}
}
