package config

import (
	"testing"
	"time"
)

func TestReadDefaults(t *testing.T) {
	t.Setenv("TRACKER_JWT_SIGNING_KEY", "secret")

	cfg, err := Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if cfg.Env != EnvLocal {
		t.Errorf("env = %q", cfg.Env)
	}
	if cfg.HTTP.Addr() != ":8080" {
		t.Errorf("addr = %q", cfg.HTTP.Addr())
	}
	if cfg.HTTP.ShutdownTimeout != 5*time.Second {
		t.Errorf("shutdown timeout = %s", cfg.HTTP.ShutdownTimeout)
	}
	if cfg.DB.Driver != "sqlite" || cfg.DB.DSN != "data/tracker.db" {
		t.Errorf("db = %+v", cfg.DB)
	}
	if cfg.JWT.AccessTTL != 24*time.Hour || cfg.JWT.SigningKey != "secret" {
		t.Errorf("jwt = %+v", cfg.JWT)
	}
}

func TestReadOverrides(t *testing.T) {
	t.Setenv("TRACKER_JWT_SIGNING_KEY", "secret")
	t.Setenv("TRACKER_ENV", "prod")
	t.Setenv("TRACKER_HTTP_HOST", "127.0.0.1")
	t.Setenv("TRACKER_HTTP_PORT", "9090")
	t.Setenv("TRACKER_DB_DRIVER", "postgres")
	t.Setenv("TRACKER_DB_DSN", "postgres://localhost/tracker")

	cfg, err := Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if cfg.Env != EnvProd || cfg.HTTP.Addr() != "127.0.0.1:9090" || cfg.DB.Driver != "postgres" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestReadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing signing key", map[string]string{"TRACKER_JWT_SIGNING_KEY": ""}},
		{"unknown env", map[string]string{"TRACKER_JWT_SIGNING_KEY": "k", "TRACKER_ENV": "staging"}},
		{"unknown driver", map[string]string{"TRACKER_JWT_SIGNING_KEY": "k", "TRACKER_DB_DRIVER": "mysql"}},
		{"bad port", map[string]string{"TRACKER_JWT_SIGNING_KEY": "k", "TRACKER_HTTP_PORT": "70000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Read(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
