package config

import (
	"errors"
	"testing"
)

func TestLoad_MissingCredential(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("got %v, want ErrMissingCredential", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("WHISPER_MODEL", "")
	t.Setenv("MAX_CHUNK_SIZE_MB", "")
	t.Setenv("TEST_MODE_DURATION", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.WhisperModel != "whisper-1" {
		t.Errorf("WhisperModel = %q, want whisper-1", cfg.WhisperModel)
	}
	if cfg.MaxChunkSizeMB != 24 {
		t.Errorf("MaxChunkSizeMB = %d, want 24", cfg.MaxChunkSizeMB)
	}
	if cfg.TestModeDuration != 600 {
		t.Errorf("TestModeDuration = %d, want 600", cfg.TestModeDuration)
	}
	if cfg.MaxChunkBytes() != 24*1024*1024 {
		t.Errorf("MaxChunkBytes = %d, want %d", cfg.MaxChunkBytes(), 24*1024*1024)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("WHISPER_MODEL", "whisper-large-v3")
	t.Setenv("MAX_CHUNK_SIZE_MB", "10")
	t.Setenv("TEST_MODE_DURATION", "120")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.WhisperModel != "whisper-large-v3" {
		t.Errorf("WhisperModel = %q", cfg.WhisperModel)
	}
	if cfg.MaxChunkSizeMB != 10 {
		t.Errorf("MaxChunkSizeMB = %d, want 10", cfg.MaxChunkSizeMB)
	}
	if cfg.MaxChunkBytes() != 10*1024*1024 {
		t.Errorf("MaxChunkBytes = %d", cfg.MaxChunkBytes())
	}
	if cfg.TestModeDuration != 120 {
		t.Errorf("TestModeDuration = %d, want 120", cfg.TestModeDuration)
	}
}

func TestLoad_BadInteger(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MAX_CHUNK_SIZE_MB", "many")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric MAX_CHUNK_SIZE_MB")
	}

	t.Setenv("MAX_CHUNK_SIZE_MB", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero MAX_CHUNK_SIZE_MB")
	}
}
