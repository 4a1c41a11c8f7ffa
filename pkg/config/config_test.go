package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mriphysio/pkg/physio"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Scan.TR != 2.0 {
		t.Errorf("Default TR = %g, want 2.0", cfg.Scan.TR)
	}
	if cfg.Physio.Format != "ge" {
		t.Errorf("Default format = %q, want ge", cfg.Physio.Format)
	}
	if cfg.Physio.CardDT != 0.01 || cfg.Physio.RespDT != 0.04 {
		t.Errorf("Default sampling intervals = %g/%g, want 0.01/0.04",
			cfg.Physio.CardDT, cfg.Physio.RespDT)
	}
	if cfg.Validity.MinCardStd != 4.0 || cfg.Validity.MinRespLFP != 50.0 {
		t.Errorf("Default validity thresholds = %g/%g, want 4/50",
			cfg.Validity.MinCardStd, cfg.Validity.MinRespLFP)
	}
}

func TestLoadConfigMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Scan.NFrames != 100 {
		t.Errorf("Got nframes=%d, want the default 100", cfg.Scan.NFrames)
	}
}

func TestLoadConfigParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mriphysio.yaml")
	body := `
scan:
  tr: 1.5
  nframes: 240
  sliceOrder: [0, 2, 1]
physio:
  respDt: 0.025
validity:
  requireValid: true
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Writing config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Scan.TR != 1.5 || cfg.Scan.NFrames != 240 {
		t.Errorf("Parsed scan = %+v", cfg.Scan)
	}
	if cfg.Physio.RespDT != 0.025 {
		t.Errorf("Parsed respDt = %g, want 0.025", cfg.Physio.RespDT)
	}
	if !cfg.Validity.RequireValid {
		t.Error("requireValid not parsed")
	}
	// Unset fields keep their defaults.
	if cfg.Physio.CardDT != 0.01 {
		t.Errorf("cardDt = %g, want default 0.01", cfg.Physio.CardDT)
	}

	st, err := cfg.ScanTiming()
	if err != nil {
		t.Fatalf("ScanTiming: %v", err)
	}
	if st.NSlices() != 3 {
		t.Errorf("NSlices = %d, want 3", st.NSlices())
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mriphysio.yaml")
	cfg := DefaultConfig()
	cfg.Scan.NFrames = 77
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.Scan.NFrames != 77 {
		t.Errorf("Round-tripped nframes = %d, want 77", got.Scan.NFrames)
	}
}

func TestScanTimingSchemes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scan.NSlices = 5
	cfg.Scan.SliceScheme = "interleaved"
	st, err := cfg.ScanTiming()
	if err != nil {
		t.Fatalf("ScanTiming: %v", err)
	}
	want := []int{0, 2, 4, 1, 3}
	for i := range want {
		if st.SliceOrder[i] != want[i] {
			t.Fatalf("Interleaved order = %v, want %v", st.SliceOrder, want)
		}
	}

	cfg.Scan.SliceScheme = "sequential"
	st, err = cfg.ScanTiming()
	if err != nil {
		t.Fatalf("ScanTiming: %v", err)
	}
	if st.SliceOrder[4] != 4 {
		t.Errorf("Sequential order = %v", st.SliceOrder)
	}
}

func TestScanTimingRejectsAmbiguity(t *testing.T) {
	assertConfigErr := func(t *testing.T, cfg *Config) {
		t.Helper()
		_, err := cfg.ScanTiming()
		var cfgErr *physio.ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("Expected ConfigurationError, got %v", err)
		}
	}

	t.Run("no slices at all", func(t *testing.T) {
		assertConfigErr(t, DefaultConfig())
	})
	t.Run("nslices without a scheme", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Scan.NSlices = 12
		assertConfigErr(t, cfg)
	})
	t.Run("unknown scheme", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Scan.NSlices = 12
		cfg.Scan.SliceScheme = "spiral"
		assertConfigErr(t, cfg)
	})
	t.Run("nslices disagrees with order", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Scan.NSlices = 4
		cfg.Scan.SliceOrder = []int{0, 1, 2}
		assertConfigErr(t, cfg)
	})
	t.Run("order not a permutation", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Scan.SliceOrder = []int{0, 0, 1}
		assertConfigErr(t, cfg)
	})
}

func TestCheckerUsesConfiguredThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Validity.MinFrames = 16
	cfg.Validity.MinCardStd = 9.5
	c := cfg.Checker()
	if c.MinFrames != 16 || c.MinCardStd != 9.5 {
		t.Errorf("Checker = %+v, want the configured thresholds", c)
	}
}
