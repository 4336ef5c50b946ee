// Package config resolves flatbench settings from defaults, an optional
// config file, a .env file, FLATBENCH_* environment variables and command
// line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/weiihann/flatbench/flatten"
	"github.com/weiihann/flatbench/report"
	"github.com/weiihann/flatbench/workload"
)

// EnvPrefix prefixes every environment variable flatbench reads.
const EnvPrefix = "FLATBENCH"

// DefaultSizes are the player counts swept when none are configured.
var DefaultSizes = []int{23, 100, 1000, 10000, 100000}

// Config holds the settings for a benchmark run.
type Config struct {
	Sizes        []int
	Suite        string
	Output       string
	Format       string
	Metrics      string
	Isolate      bool
	Verify       bool
	Trace        bool
	Verbose      bool
	ChildTimeout time.Duration
}

// Load resolves the configuration. cfgFile may be empty, in which case
// flatbench.yaml in the working directory is used when present. flags may be
// nil; otherwise every flag whose name matches a key overrides it, with
// dashes in flag names standing for underscores in keys.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	// A missing .env is not an error.
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("sizes", DefaultSizes)
	v.SetDefault("suite", flatten.SuiteMain)
	v.SetDefault("output", "")
	v.SetDefault("format", report.FormatJSON)
	v.SetDefault("metrics", "")
	v.SetDefault("isolate", false)
	v.SetDefault("verify", false)
	v.SetDefault("trace", false)
	v.SetDefault("verbose", false)
	v.SetDefault("child_timeout", 30*time.Minute)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("flatbench")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		var bindErr error

		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if !isKey(key) {
				return
			}

			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
			}
		})

		if bindErr != nil {
			return Config{}, bindErr
		}
	}

	sizes, err := intSlice(v.Get("sizes"))
	if err != nil {
		return Config{}, fmt.Errorf("parse sizes: %w", err)
	}

	cfg := Config{
		Sizes:        sizes,
		Suite:        v.GetString("suite"),
		Output:       v.GetString("output"),
		Format:       v.GetString("format"),
		Metrics:      v.GetString("metrics"),
		Isolate:      v.GetBool("isolate"),
		Verify:       v.GetBool("verify"),
		Trace:        v.GetBool("trace"),
		Verbose:      v.GetBool("verbose"),
		ChildTimeout: v.GetDuration("child_timeout"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

var keys = []string{
	"sizes", "suite", "output", "format", "metrics",
	"isolate", "verify", "trace", "verbose", "child_timeout",
}

func isKey(key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}

	return false
}

// Validate checks the configuration before any data is generated.
func (c Config) Validate() error {
	if len(c.Sizes) == 0 {
		return fmt.Errorf("at least one size must be configured")
	}

	for _, n := range c.Sizes {
		if n < 0 {
			return fmt.Errorf("size %d: %w", n, workload.ErrInvalidPlayerCount)
		}
	}

	if _, err := flatten.Lookup(c.Suite); err != nil {
		return err
	}

	switch c.Format {
	case report.FormatJSON, report.FormatYAML:
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}

	return nil
}

// OutputPath returns the configured results file, or the suite default.
func (c Config) OutputPath() string {
	if c.Output != "" {
		return c.Output
	}

	suite, err := flatten.Lookup(c.Suite)
	if err != nil {
		return ""
	}

	return suite.Output
}

// intSlice accepts the shapes sizes arrive in: []int from defaults and
// flags, []any from a config file, and a comma separated string from the
// environment.
func intSlice(raw any) ([]int, error) {
	switch t := raw.(type) {
	case []int:
		return t, nil
	case []any:
		out := make([]int, 0, len(t))
		for _, item := range t {
			n, err := strconv.Atoi(strings.TrimSpace(fmt.Sprint(item)))
			if err != nil {
				return nil, err
			}

			out = append(out, n)
		}

		return out, nil
	case string:
		t = strings.Trim(strings.TrimSpace(t), "[]")
		if t == "" {
			return nil, nil
		}

		parts := strings.Split(t, ",")

		out := make([]int, 0, len(parts))
		for _, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, err
			}

			out = append(out, n)
		}

		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported sizes value %T", raw)
	}
}
