// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alvinbaena/breachguard/pkg/hibp"
	"github.com/alvinbaena/breachguard/pkg/strength"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Should not fail: %s", err)
	}

	if cfg.Port != 3100 {
		t.Errorf("Port: %d, want: %d", cfg.Port, 3100)
	}

	if cfg.Range.Endpoint != hibp.DefaultEndpoint || cfg.Range.Timeout != hibp.DefaultTimeout {
		t.Errorf("Range defaults not applied: %+v", cfg.Range)
	}

	if !cfg.Range.Padding || cfg.Range.Retries != 0 {
		t.Errorf("Range should pad and not retry by default: %+v", cfg.Range)
	}

	p := cfg.Policy()
	d := strength.DefaultPolicy()
	if p.MinLength != d.MinLength || p.MaxLength != d.MaxLength || p.GuessesPerSecond != d.GuessesPerSecond {
		t.Errorf("Policy should match the default policy: %+v", p)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("BREACHGUARD_PORT", "8443")
	t.Setenv("BREACHGUARD_RANGE_TIMEOUT", "2s")
	t.Setenv("BREACHGUARD_RANGE_PADDING", "false")
	t.Setenv("BREACHGUARD_RANGE_ENDPOINT", "https://range.example.com/range")
	t.Setenv("BREACHGUARD_STRENGTH_MIN_LENGTH", "10")
	t.Setenv("BREACHGUARD_STRENGTH_RECOMMENDED_LENGTH", "16")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Should not fail: %s", err)
	}

	if cfg.Port != 8443 {
		t.Errorf("Port: %d, want: %d", cfg.Port, 8443)
	}

	if cfg.Range.Timeout != 2*time.Second {
		t.Errorf("Timeout: %v, want: %v", cfg.Range.Timeout, 2*time.Second)
	}

	if cfg.Range.Padding {
		t.Errorf("Padding should be disabled")
	}

	cc := cfg.ClientConfig()
	if cc.Endpoint != "https://range.example.com/range" || cc.Timeout != 2*time.Second {
		t.Errorf("ClientConfig: %+v", cc)
	}

	if p := cfg.Policy(); p.MinLength != 10 || p.RecommendedLength != 16 {
		t.Errorf("Policy overrides not applied: %+v", p)
	}
}

func TestLoad_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "breachguard.yaml")
	content := "port: 9000\nrange:\n  timeout: 3s\n  retries: 2\nstrength:\n  min_length: 12\n  recommended_length: 14\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("Should not fail writing config: %s", err)
	}

	t.Setenv("BREACHGUARD_PORT", "9001")

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("Should not fail: %s", err)
	}

	if cfg.Port != 9001 {
		t.Errorf("Environment should win over the file, port: %d", cfg.Port)
	}

	if cfg.Range.Timeout != 3*time.Second || cfg.Range.Retries != 2 {
		t.Errorf("File values not applied: %+v", cfg.Range)
	}

	if cfg.Strength.MinLength != 12 {
		t.Errorf("MinLength: %d, want: %d", cfg.Strength.MinLength, 12)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("Should fail for a missing config file")
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		env  string
		val  string
		want string
	}{
		{"BREACHGUARD_RANGE_ENDPOINT", "http://api.pwnedpasswords.com/range", "BREACHGUARD_RANGE_ENDPOINT"},
		{"BREACHGUARD_RANGE_TIMEOUT", "0s", "BREACHGUARD_RANGE_TIMEOUT"},
		{"BREACHGUARD_RANGE_RETRIES", "9", "BREACHGUARD_RANGE_RETRIES"},
		{"BREACHGUARD_STRENGTH_MIN_LENGTH", "500", "BREACHGUARD_STRENGTH_MIN_LENGTH"},
		{"BREACHGUARD_TLS_CERT", "/tmp/cert.pem", "BREACHGUARD_TLS_KEY"},
	}

	for _, tc := range cases {
		t.Run(tc.env, func(t *testing.T) {
			t.Setenv(tc.env, tc.val)

			_, err := Load("")
			if err == nil {
				t.Fatalf("Should fail for %s=%s", tc.env, tc.val)
			}

			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Error should name %s, got: %s", tc.want, err)
			}
		})
	}
}
