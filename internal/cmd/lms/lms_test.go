package lms

import (
	"flag"
	"io"
	"testing"
	"time"
)

func TestParseConfig_ParsesDefaultsAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("lms", flag.ContinueOnError)
	t.Setenv("LMS_HEALTH_PORT", "9091")
	t.Setenv("LMS_JWT_SECRET", "env-secret-0123456789")
	t.Setenv("LMS_MAIL_HOST", "smtp.lms.test")

	cfg, err := ParseConfig(fs, []string{"-http-addr", "127.0.0.1:9090", "-db-driver", "postgres", "-run-worker=false"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9090" {
		t.Fatalf("http addr = %q, want %q", cfg.HTTPAddr, "127.0.0.1:9090")
	}
	if cfg.HealthPort != 9091 {
		t.Fatalf("health port = %d, want 9091", cfg.HealthPort)
	}
	if cfg.DB.Driver != "postgres" {
		t.Fatalf("db driver = %q, want %q", cfg.DB.Driver, "postgres")
	}
	if cfg.RunWorker {
		t.Fatal("run worker = true, want false")
	}
	if cfg.Auth.Secret != "env-secret-0123456789" {
		t.Fatalf("jwt secret = %q", cfg.Auth.Secret)
	}
	if cfg.Mail.Host != "smtp.lms.test" {
		t.Fatalf("mail host = %q, want %q", cfg.Mail.Host, "smtp.lms.test")
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("lms", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("http addr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.HealthPort != 8081 {
		t.Fatalf("health port = %d, want 8081", cfg.HealthPort)
	}
	if cfg.DB.Driver != "sqlite" || cfg.DB.DSN != "data/lms.db" {
		t.Fatalf("db = %s %s, want sqlite data/lms.db", cfg.DB.Driver, cfg.DB.DSN)
	}
	if cfg.UploadDir != "data/uploads" {
		t.Fatalf("upload dir = %q, want %q", cfg.UploadDir, "data/uploads")
	}
	if cfg.Auth.TTL != 24*time.Hour || cfg.Auth.Issuer != "lms" {
		t.Fatalf("auth = %+v", cfg.Auth)
	}
	if !cfg.RunWorker || !cfg.EmailOutbox {
		t.Fatal("worker and email outbox should default on")
	}
	if cfg.Mail.Port != 587 {
		t.Fatalf("mail port = %d, want 587", cfg.Mail.Port)
	}
}

func TestParseConfig_RejectsUnknownFlag(t *testing.T) {
	fs := flag.NewFlagSet("lms", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	if _, err := ParseConfig(fs, []string{"-nope"}); err == nil {
		t.Fatal("expected unknown flag error")
	}
}
