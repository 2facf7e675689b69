package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("QUERY_BATCH_SIZE", "")
	t.Setenv("PROPAGATION_WORKERS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.QueryBatchSize != 1000 {
		t.Fatalf("QueryBatchSize = %d", cfg.QueryBatchSize)
	}
	if cfg.PropagationWorkers != 4 {
		t.Fatalf("PropagationWorkers = %d", cfg.PropagationWorkers)
	}
	if cfg.DB.Port != 5432 {
		t.Fatalf("DB.Port = %d", cfg.DB.Port)
	}
}

func TestLoadOverridesAndBadValues(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("QUERY_BATCH_SIZE", "250")
	t.Setenv("PROPAGATION_WORKERS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.QueryBatchSize != 250 {
		t.Fatalf("QueryBatchSize = %d", cfg.QueryBatchSize)
	}
	// unparsable values fall back to the default
	if cfg.PropagationWorkers != 4 {
		t.Fatalf("PropagationWorkers = %d", cfg.PropagationWorkers)
	}
}
