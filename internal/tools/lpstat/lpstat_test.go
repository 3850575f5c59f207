package lpstat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/llxisdsh/lp"
)

func writeKeys(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keys.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write keys: %v", err)
	}
	return path
}

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("lpstat", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if diff := cmp.Diff(Config{Expected: 100}, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseConfigEnv(t *testing.T) {
	t.Setenv("LPSTAT_KEYS_PATH", "cities.txt")
	t.Setenv("LPSTAT_EXPECTED", "50")
	t.Setenv("LPSTAT_CAPACITY", "1000")
	t.Setenv("LPSTAT_JSON", "true")
	fs := flag.NewFlagSet("lpstat", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	want := Config{KeysPath: "cities.txt", Expected: 50, Capacity: 1000, JSONOutput: true}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("LPSTAT_EXPECTED", "50")
	fs := flag.NewFlagSet("lpstat", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-expected", "7", "-generate", "20"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Expected != 7 || cfg.Generate != 20 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestParseConfigBadEnv(t *testing.T) {
	t.Setenv("LPSTAT_EXPECTED", "many")
	fs := flag.NewFlagSet("lpstat", flag.ContinueOnError)
	if _, err := ParseConfig(fs, nil); err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

func TestParseConfigBadArgs(t *testing.T) {
	fs := flag.NewFlagSet("lpstat", flag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	if _, err := ParseConfig(fs, []string{"-invalid"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestRunKeysFile(t *testing.T) {
	path := writeKeys(t, "Melbourne\r\nSydney\r\n\r\nPerth\nSydney\n")
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	if err := Run(context.Background(), Config{KeysPath: path, Expected: 5}, out, errOut); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := strings.TrimSpace(out.String())
	if !strings.HasPrefix(got, "conflicts=") || !strings.HasSuffix(got, "len=3 cap=13") {
		t.Fatalf("unexpected report %q", got)
	}
	if !strings.Contains(errOut.String(), "lpstat: inserting 4 keys") {
		t.Fatalf("unexpected log %q", errOut.String())
	}
}

func TestRunJSON(t *testing.T) {
	path := writeKeys(t, "a\nb\nc\nd\ne\nf\ng\n")
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	if err := Run(context.Background(), Config{KeysPath: path, Expected: 5, JSONOutput: true}, out, errOut); err != nil {
		t.Fatalf("run: %v", err)
	}
	var report Report
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Len != 7 || report.Cap != 37 || report.Stats.Rehashes != 1 || report.Source != path {
		t.Fatalf("unexpected report %+v", report)
	}
	if !strings.Contains(errOut.String(), "table grew 1 times to 37 slots") {
		t.Fatalf("unexpected log %q", errOut.String())
	}
}

func TestRunCapacityOverride(t *testing.T) {
	path := writeKeys(t, "x\ny\nz\n")
	out := &bytes.Buffer{}
	if err := Run(context.Background(), Config{KeysPath: path, Expected: 100, Capacity: 1000}, out, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.TrimSpace(out.String()); !strings.HasSuffix(got, "len=3 cap=1000") {
		t.Fatalf("unexpected report %q", got)
	}
}

func TestRunGenerate(t *testing.T) {
	out := &bytes.Buffer{}
	if err := Run(context.Background(), Config{Generate: 200, Expected: 10, JSONOutput: true}, out, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	var report Report
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Len != 200 || report.Source != "generator" || report.Stats.Rehashes == 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if 2*report.Len > report.Cap {
		t.Fatalf("load factor above 0.5: %d/%d", report.Len, report.Cap)
	}
}

func TestRunValidation(t *testing.T) {
	path := writeKeys(t, "a\n")
	for name, cfg := range map[string]Config{
		"no input":       {Expected: 5},
		"both inputs":    {KeysPath: path, Generate: 3, Expected: 5},
		"negative cap":   {KeysPath: path, Expected: 5, Capacity: -1},
		"zero expected":  {KeysPath: path, Expected: 0},
		"tiny capacity":  {KeysPath: path, Expected: 5, Capacity: 2},
		"missing file":   {KeysPath: filepath.Join(t.TempDir(), "nope.txt"), Expected: 5},
		"directory keys": {KeysPath: t.TempDir(), Expected: 5},
	} {
		if err := Run(context.Background(), cfg, &bytes.Buffer{}, nil); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	err := Run(context.Background(), Config{KeysPath: path, Expected: 0}, nil, nil)
	if !errors.Is(err, lp.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Run(ctx, Config{Generate: 5, Expected: 5}, &bytes.Buffer{}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestReadKeys(t *testing.T) {
	got, err := readKeys(writeKeys(t, "Adelaide\r\nBrisbane\n\nCairns"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff([]string{"Adelaide", "Brisbane", "Cairns"}, got); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	got, err = readKeys(writeKeys(t, ""))
	if err != nil || len(got) != 0 {
		t.Fatalf("read empty got %q, %v", got, err)
	}
	if _, err := readKeys(t.TempDir()); err == nil {
		t.Fatal("expected error reading a directory")
	}
}

func TestSplitKeys(t *testing.T) {
	data := []byte("Hobart\r\n\nDarwin\nCanberra")
	got := splitKeys(data)
	if diff := cmp.Diff([]string{"Hobart", "Darwin", "Canberra"}, got); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	// Keys must not alias the input.
	for i := range data {
		data[i] = 'x'
	}
	if got[0] != "Hobart" {
		t.Fatalf("key changed with input: %q", got[0])
	}
	if keys := splitKeys(nil); len(keys) != 0 {
		t.Fatalf("expected no keys, got %v", keys)
	}
}

func TestGenerateKeys(t *testing.T) {
	keys := generateKeys(64)
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if _, err := uuid.Parse(k); err != nil {
			t.Fatalf("key %q is not a UUID: %v", k, err)
		}
		if seen[k] {
			t.Fatalf("duplicate key %q", k)
		}
		seen[k] = true
	}
}
