package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServiceName != "mandate" {
		t.Fatalf("unexpected service name %q", cfg.ServiceName)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("unexpected port %q", cfg.HTTPPort)
	}
	if cfg.InviteExpiryDays != 7 {
		t.Fatalf("unexpected invite expiry %d", cfg.InviteExpiryDays)
	}
	if cfg.InvitationTTL() != 7*24*time.Hour {
		t.Fatalf("unexpected invitation ttl %v", cfg.InvitationTTL())
	}
	if cfg.NotifyPollInterval != 2*time.Second {
		t.Fatalf("unexpected poll interval %v", cfg.NotifyPollInterval)
	}
}

func TestLoadOverridesAndFloors(t *testing.T) {
	t.Setenv("SERVICE_NAME", "  mandate-staging  ")
	t.Setenv("INVITE_EXPIRY_DAYS", "-3")
	t.Setenv("NOTIFY_POLL_INTERVAL", "250ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServiceName != "mandate-staging" {
		t.Fatalf("expected trimmed override, got %q", cfg.ServiceName)
	}
	if cfg.InviteExpiryDays != 7 {
		t.Fatalf("non-positive expiry should floor to 7, got %d", cfg.InviteExpiryDays)
	}
	if cfg.NotifyPollInterval != 250*time.Millisecond {
		t.Fatalf("unexpected poll interval %v", cfg.NotifyPollInterval)
	}
}
