package config

import (
	"runtime"
	"testing"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{EnvLogLevel, EnvLogFormat, EnvWorkers, EnvSuffix, EnvLanguage} {
		t.Setenv(k, "")
	}

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	want := Default()
	if *cfg != *want {
		t.Errorf("LoadFromEnv() = %+v, want %+v", cfg, want)
	}
	if cfg.Workers != runtime.NumCPU() {
		t.Errorf("Workers = %d, want NumCPU %d", cfg.Workers, runtime.NumCPU())
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvWorkers, " 3 ")
	t.Setenv(EnvSuffix, "_ocr")
	t.Setenv(EnvLanguage, "deu")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" || cfg.Workers != 3 ||
		cfg.Suffix != "_ocr" || cfg.Language != "deu" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"level", EnvLogLevel, "verbose"},
		{"format", EnvLogFormat, "xml"},
		{"workers not a number", EnvWorkers, "many"},
		{"workers zero", EnvWorkers, "0"},
		{"workers negative", EnvWorkers, "-2"},
		{"suffix with separator", EnvSuffix, "out/x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadFromEnv(); err == nil {
				t.Errorf("%s=%q: expected error", tt.key, tt.value)
			}
		})
	}
}
