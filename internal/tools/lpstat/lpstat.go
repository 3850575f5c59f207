// Package lpstat loads a set of keys into an lp.Table and reports the
// table's probing statistics.
package lpstat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"
	"github.com/llxisdsh/lp"
	"github.com/llxisdsh/lp/internal/platform/config"
)

// Config holds lpstat command configuration.
type Config struct {
	KeysPath   string
	Generate   int
	Expected   int
	Capacity   int
	JSONOutput bool
}

type envConfig struct {
	KeysPath   string `env:"LPSTAT_KEYS_PATH"`
	Generate   int    `env:"LPSTAT_GENERATE"`
	Expected   int    `env:"LPSTAT_EXPECTED" envDefault:"100"`
	Capacity   int    `env:"LPSTAT_CAPACITY"`
	JSONOutput bool   `env:"LPSTAT_JSON"`
}

// ParseConfig parses environment defaults and then flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var envCfg envConfig
	if err := config.ParseEnv(&envCfg); err != nil {
		return Config{}, err
	}

	cfg := Config{
		KeysPath:   envCfg.KeysPath,
		Generate:   envCfg.Generate,
		Expected:   envCfg.Expected,
		Capacity:   envCfg.Capacity,
		JSONOutput: envCfg.JSONOutput,
	}
	fs.StringVar(&cfg.KeysPath, "keys", cfg.KeysPath, "path to a file with one key per line (default: LPSTAT_KEYS_PATH)")
	fs.IntVar(&cfg.Generate, "generate", cfg.Generate, "insert this many random UUID keys instead of reading a file")
	fs.IntVar(&cfg.Expected, "expected", cfg.Expected, "expected number of keys used to size the table")
	fs.IntVar(&cfg.Capacity, "capacity", cfg.Capacity, "fixed initial capacity (0 = derive from -expected)")
	fs.BoolVar(&cfg.JSONOutput, "json", cfg.JSONOutput, "output a JSON report")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Report is the result of one lpstat run.
type Report struct {
	Source string   `json:"source"`
	Stats  lp.Stats `json:"stats"`
	Len    int      `json:"len"`
	Cap    int      `json:"cap"`
}

// Run loads the configured keys and writes the report to out. Progress is
// logged to errOut.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	logger := log.New(errOut, "lpstat: ", 0)

	if (cfg.KeysPath == "") == (cfg.Generate <= 0) {
		return errors.New("exactly one of -keys or -generate is required")
	}
	if cfg.Capacity < 0 {
		return errors.New("-capacity must be >= 0")
	}

	var options []func(*lp.Config)
	if cfg.Capacity > 0 {
		options = append(options, lp.WithCapacity(cfg.Capacity))
	}
	table, err := lp.New[int](cfg.Expected, options...)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	keys, source, err := loadKeys(cfg)
	if err != nil {
		return err
	}
	logger.Printf("inserting %d keys from %s into %d slots", len(keys), source, table.Cap())

	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := table.Set(key, i+1); err != nil {
			return fmt.Errorf("insert key %d: %w", i+1, err)
		}
	}
	stats := table.Stats()
	if stats.Rehashes > 0 {
		logger.Printf("table grew %d times to %d slots", stats.Rehashes, table.Cap())
	}

	report := Report{Source: source, Stats: stats, Len: table.Len(), Cap: table.Cap()}
	if cfg.JSONOutput {
		enc := json.NewEncoder(out)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		return nil
	}
	_, err = fmt.Fprintf(out, "conflicts=%d probe_total=%d probe_max=%d rehashes=%d len=%d cap=%d\n",
		stats.Conflicts, stats.ProbeTotal, stats.ProbeMax, stats.Rehashes, report.Len, report.Cap)
	return err
}

func loadKeys(cfg Config) ([]string, string, error) {
	if cfg.Generate > 0 {
		return generateKeys(cfg.Generate), "generator", nil
	}
	keys, err := readKeys(cfg.KeysPath)
	if err != nil {
		return nil, "", fmt.Errorf("read keys: %w", err)
	}
	return keys, cfg.KeysPath, nil
}

// splitKeys returns the non-empty lines of data, without line endings.
// Each key is copied, so data may be released afterwards.
func splitKeys(data []byte) []string {
	var keys []string
	for len(data) > 0 {
		line := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			data = nil
		}
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) == 0 {
			continue
		}
		keys = append(keys, string(line))
	}
	return keys
}

func generateKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = uuid.NewString()
	}
	return keys
}
