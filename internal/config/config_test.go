package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_FromFile(t *testing.T) {
	content := []byte(`
server:
  host: "127.0.0.1"
  port: 8080

jquants:
  id_token: "token-from-file"

storage:
  results:
    type: postgres
    dsn: "postgres://localhost:5432/jqbt"
  archive:
    enabled: true
    type: localfs
    path: "/tmp/jqbt/archive"
`)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}

	if cfg.JQuants.IDToken != "token-from-file" {
		t.Errorf("expected id_token from file, got %q", cfg.JQuants.IDToken)
	}

	if cfg.Storage.Results.Type != "postgres" {
		t.Errorf("expected postgres, got %s", cfg.Storage.Results.Type)
	}

	if cfg.Storage.Archive.Path != "/tmp/jqbt/archive" {
		t.Errorf("unexpected archive path %q", cfg.Storage.Archive.Path)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("JQBT_TEST_TOKEN", "secret-token")

	content := []byte(`
server:
  port: 8080
jquants:
  id_token: "${JQBT_TEST_TOKEN}"
`)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.JQuants.IDToken != "secret-token" {
		t.Errorf("expected expanded token, got %q", cfg.JQuants.IDToken)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}

	if cfg.Storage.Results.Type != "memory" {
		t.Errorf("expected default results type memory, got %q", cfg.Storage.Results.Type)
	}

	if cfg.Storage.Results.MaxResults != 1000 {
		t.Errorf("expected default max_results 1000, got %d", cfg.Storage.Results.MaxResults)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
			},
			wantErr: false,
		},
		{
			name: "invalid port - zero",
			cfg: Config{
				Server: ServerConfig{Host: "0.0.0.0", Port: 0},
			},
			wantErr: true,
		},
		{
			name: "invalid port - too high",
			cfg: Config{
				Server: ServerConfig{Host: "0.0.0.0", Port: 70000},
			},
			wantErr: true,
		},
		{
			name: "postgres without dsn",
			cfg: Config{
				Server:  ServerConfig{Host: "0.0.0.0", Port: 8080},
				Storage: StorageConfig{Results: ResultStorageConfig{Type: "postgres"}},
			},
			wantErr: true,
		},
		{
			name: "unknown results type",
			cfg: Config{
				Server:  ServerConfig{Host: "0.0.0.0", Port: 8080},
				Storage: StorageConfig{Results: ResultStorageConfig{Type: "redis"}},
			},
			wantErr: true,
		},
		{
			name: "archive enabled without path",
			cfg: Config{
				Server:  ServerConfig{Host: "0.0.0.0", Port: 8080},
				Storage: StorageConfig{Archive: ArchiveConfig{Enabled: true, Type: "localfs"}},
			},
			wantErr: true,
		},
		{
			name: "s3 archive without bucket",
			cfg: Config{
				Server:  ServerConfig{Host: "0.0.0.0", Port: 8080},
				Storage: StorageConfig{Archive: ArchiveConfig{Enabled: true, Type: "s3"}},
			},
			wantErr: true,
		},
		{
			name: "valid s3 archive",
			cfg: Config{
				Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
				Storage: StorageConfig{Archive: ArchiveConfig{
					Enabled: true, Type: "s3", S3: S3Config{Bucket: "jqbt-archive"},
				}},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
