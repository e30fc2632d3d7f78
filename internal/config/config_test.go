package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 0\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 8081 {
		t.Errorf("server port = %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "scan_results.db" {
		t.Errorf("database defaults = %+v", cfg.Database)
	}
	if cfg.Zap.Address != "http://127.0.0.1:8080" {
		t.Errorf("zap address = %q", cfg.Zap.Address)
	}
	if cfg.Zap.Timeout != 30*time.Second || cfg.Zap.PollInterval != 2*time.Second {
		t.Errorf("zap timings = %+v", cfg.Zap)
	}
	if cfg.RateLimit.Capacity != 30 || cfg.RateLimit.RefillRate != 10 {
		t.Errorf("rate limit defaults = %+v", cfg.RateLimit)
	}
	if cfg.Minio.Enabled {
		t.Error("minio should be disabled by default")
	}
}

func TestLoad_FullFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  port: 9090
database:
  driver: mysql
  host: db.internal
  port: 3306
  user: scanner
  password: secret
  name: zapscan
zap:
  address: http://zap:8090
  apiKey: changeme
auth:
  apiKeys:
    acme: k-123
openai:
  apiKey: sk-test
  model: gpt-4o-mini
`))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Zap.Address != "http://zap:8090" || cfg.Zap.APIKey != "changeme" {
		t.Errorf("zap = %+v", cfg.Zap)
	}
	if cfg.Auth.APIKeys["acme"] != "k-123" {
		t.Errorf("auth keys = %v", cfg.Auth.APIKeys)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("openai = %+v", cfg.OpenAI)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [not a map")); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestMySQLDSN(t *testing.T) {
	var cfg Config
	cfg.Database.User = "scanner"
	cfg.Database.Password = "secret"
	cfg.Database.Host = "db.internal"
	cfg.Database.Port = 3306
	cfg.Database.Name = "zapscan"

	want := "scanner:secret@tcp(db.internal:3306)/zapscan?parseTime=true&charset=utf8mb4&loc=UTC"
	if got := cfg.MySQLDSN(); got != want {
		t.Errorf("MySQLDSN() = %q, want %q", got, want)
	}
}

func TestPostgresDSN_DefaultSSLMode(t *testing.T) {
	var cfg Config
	cfg.Database.User = "scanner"
	cfg.Database.Password = "secret"
	cfg.Database.Host = "db.internal"
	cfg.Database.Port = 5432
	cfg.Database.Name = "zapscan"

	want := "host=db.internal port=5432 user=scanner password=secret dbname=zapscan sslmode=disable"
	if got := cfg.PostgresDSN(); got != want {
		t.Errorf("PostgresDSN() = %q, want %q", got, want)
	}

	cfg.Database.SSLMode = "require"
	if got := cfg.PostgresDSN(); got != "host=db.internal port=5432 user=scanner password=secret dbname=zapscan sslmode=require" {
		t.Errorf("PostgresDSN() with sslMode = %q", got)
	}
}
