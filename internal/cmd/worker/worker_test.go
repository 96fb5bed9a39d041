package worker

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfig_ParsesDefaultsAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("worker", flag.ContinueOnError)
	t.Setenv("LMS_WORKER_HEALTH_PORT", "9099")
	t.Setenv("LMS_DB_DSN", "data/worker-test.db")

	cfg, err := ParseConfig(fs, []string{"-poll-interval", "250ms", "-max-attempts", "3"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HealthPort != 9099 {
		t.Fatalf("port = %d, want 9099", cfg.HealthPort)
	}
	if cfg.DB.DSN != "data/worker-test.db" {
		t.Fatalf("db dsn = %q, want %q", cfg.DB.DSN, "data/worker-test.db")
	}
	if cfg.Worker.PollInterval != 250*time.Millisecond {
		t.Fatalf("poll interval = %s, want 250ms", cfg.Worker.PollInterval)
	}
	if cfg.Worker.MaxAttempts != 3 {
		t.Fatalf("max attempts = %d, want 3", cfg.Worker.MaxAttempts)
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("worker", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HealthPort != 8082 {
		t.Fatalf("port = %d, want 8082", cfg.HealthPort)
	}
	if cfg.Worker.PollInterval != 5*time.Second {
		t.Fatalf("poll interval = %s, want 5s", cfg.Worker.PollInterval)
	}
	if cfg.Worker.LeaseTTL != 2*time.Minute {
		t.Fatalf("lease ttl = %s, want 2m", cfg.Worker.LeaseTTL)
	}
	if cfg.Mail.From != "no-reply@lms.local" {
		t.Fatalf("mail from = %q", cfg.Mail.From)
	}
}
