package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbedded(t *testing.T) {
	cfg, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error = %v", err)
	}

	if cfg.Limits.ExistsChunkSize != 30 {
		t.Errorf("ExistsChunkSize = %d, want 30", cfg.Limits.ExistsChunkSize)
	}
	if cfg.Limits.WriteBatchSize != 500 {
		t.Errorf("WriteBatchSize = %d, want 500", cfg.Limits.WriteBatchSize)
	}
	if cfg.Collections.Transactions == "" {
		t.Error("default transactions collection must be named")
	}
}

func TestLoadFromFile_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
project_id: test-project
limits:
  exists_chunk_size: 10
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.ProjectID != "test-project" {
		t.Errorf("ProjectID = %q, want test-project", cfg.ProjectID)
	}
	if cfg.Limits.ExistsChunkSize != 10 {
		t.Errorf("ExistsChunkSize = %d, want overridden 10", cfg.Limits.ExistsChunkSize)
	}
	// untouched fields keep their defaults
	if cfg.Limits.WriteBatchSize != 500 {
		t.Errorf("WriteBatchSize = %d, want default 500", cfg.Limits.WriteBatchSize)
	}
	if cfg.Collections.Balances == "" {
		t.Error("default balances collection must survive the overlay")
	}
}

func TestLoadFromFile_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
limits:
  write_batch_size: 0
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected validation error for zero write batch size")
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
