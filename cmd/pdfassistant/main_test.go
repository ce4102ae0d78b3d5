package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ataberkkilavuzcu/PDFasistant-sub000/internal/infra/config"
)

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	code := run([]string{"-version"}, &out)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out.String(), "pdfassistant version") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunBadFlag(t *testing.T) {
	var out bytes.Buffer
	code := run([]string{"-nope"}, &out)
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(out.String(), "usage:") {
		t.Errorf("output = %q", out.String())
	}
}

func TestBuildProvider(t *testing.T) {
	cfg := config.Load()
	cfg.DeepSeek.APIKey = "k1"
	cfg.Gemini.APIKey = "k2"

	tests := []struct {
		mode         string
		wantProvider string
		wantErr      bool
	}{
		{config.ModeDeepSeek, "deepseek", false},
		{config.ModeGemini, "gemini", false},
		{config.ModeFallback, "fallback", false},
		{"bogus", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg.ProviderMode = tt.mode
			p, err := buildProvider(cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("buildProvider: %v", err)
			}
			if got := p.ModelInfo().Provider; got != tt.wantProvider {
				t.Errorf("provider = %q, want %q", got, tt.wantProvider)
			}
		})
	}
}
