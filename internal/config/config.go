package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Paths         PathsConfig         `mapstructure:"paths"`
	Synth         SynthConfig         `mapstructure:"synth"`
	Server        ServerConfig        `mapstructure:"server"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	LogLevel      string              `mapstructure:"log_level"`
}

type PathsConfig struct {
	CataloguePath string `mapstructure:"catalogue_path"`
}

type SynthConfig struct {
	UnitType        string  `mapstructure:"unit_type"`
	PruneScoreDelta float64 `mapstructure:"prune_score_delta"`
	PruneNumCands   int     `mapstructure:"prune_num_cands"`
	WindowFactor    float64 `mapstructure:"window_factor"`
	SampleRate      int     `mapstructure:"sample_rate"`
	MaxCandidates   int     `mapstructure:"max_candidates"`
	Workers         int     `mapstructure:"workers"`
	Silence         string  `mapstructure:"silence"`
	// Dither is the TPDF dither gain in LSBs applied when quantizing.
	Dither float64 `mapstructure:"dither"`
	// Timeout in seconds; 0 disables it.
	Timeout int `mapstructure:"timeout"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	Workers         int    `mapstructure:"workers"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64  `mapstructure:"max_body_bytes"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
}

type ObservabilityConfig struct {
	Trace   bool `mapstructure:"trace"`
	Metrics bool `mapstructure:"metrics"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			CataloguePath: "voices/catalogue.safetensors",
		},
		Synth: SynthConfig{
			UnitType:        UnitHalfphone,
			PruneScoreDelta: 0.01,
			PruneNumCands:   100,
			WindowFactor:    1,
			SampleRate:      16000,
			MaxCandidates:   0,
			Workers:         1,
			Silence:         "pau",
			Dither:          0,
			Timeout:         0,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			Workers:         2,
			ShutdownTimeout: 30,
			MaxBodyBytes:    1 << 20,
			RequestTimeout:  60,
		},
		Observability: ObservabilityConfig{
			Trace:   false,
			Metrics: true,
		},
		LogLevel: "info",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("paths-catalogue-path", defaults.Paths.CataloguePath, "Path to the unit catalogue (.safetensors)")
	fs.String("synth-unit-type", defaults.Synth.UnitType, "Unit type: halfphone|word")
	fs.Float64("synth-prune-score-delta", defaults.Synth.PruneScoreDelta, "Relative pruning threshold in (0,1]")
	fs.Int("synth-prune-num-cands", defaults.Synth.PruneNumCands, "Max surviving candidates per position")
	fs.Float64("synth-window-factor", defaults.Synth.WindowFactor, "Residual window half-width factor")
	fs.Int("synth-sample-rate", defaults.Synth.SampleRate, "Expected catalogue sample rate in Hz")
	fs.Int("synth-max-candidates", defaults.Synth.MaxCandidates, "Cap on candidates per unit name at load (0 = unlimited)")
	fs.Int("synth-workers", defaults.Synth.Workers, "Goroutines for join score matrices")
	fs.String("synth-silence", defaults.Synth.Silence, "Silence segment name")
	fs.Float64("synth-dither", defaults.Synth.Dither, "TPDF dither gain in LSBs (0 = off)")
	fs.Int("synth-timeout", defaults.Synth.Timeout, "Per-utterance synthesis timeout in seconds (0 = none)")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("workers", defaults.Server.Workers, "Max concurrent synthesis requests")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.Int64("server-max-body-bytes", defaults.Server.MaxBodyBytes, "Max request body size in bytes")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.Bool("trace", defaults.Observability.Trace, "Export OpenTelemetry spans to stderr")
	fs.Bool("metrics", defaults.Observability.Metrics, "Expose Prometheus metrics")
	fs.String("log-level", defaults.LogLevel, "Log level: debug|info|warn|error")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)

	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("RELPTTS")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)

	if err := v.BindEnv("paths.catalogue_path", "RELPTTS_CATALOGUE", "RELPTTS_PATHS_CATALOGUE_PATH"); err != nil {
		return Config{}, fmt.Errorf("bind catalogue env vars: %w", err)
	}

	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)

		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("relptts")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	unit, err := NormalizeUnitType(cfg.Synth.UnitType)
	if err != nil {
		return Config{}, err
	}

	cfg.Synth.UnitType = unit

	return cfg, nil
}

// Validate reports the first out-of-range setting.
func (c Config) Validate() error {
	s := c.Synth

	switch {
	case s.PruneScoreDelta <= 0 || s.PruneScoreDelta > 1:
		return fmt.Errorf("synth.prune_score_delta = %v: must be in (0,1]", s.PruneScoreDelta)
	case s.PruneNumCands < 1:
		return fmt.Errorf("synth.prune_num_cands = %d: must be >= 1", s.PruneNumCands)
	case s.WindowFactor <= 0:
		return fmt.Errorf("synth.window_factor = %v: must be > 0", s.WindowFactor)
	case s.SampleRate < 1:
		return fmt.Errorf("synth.sample_rate = %d: must be >= 1", s.SampleRate)
	case s.MaxCandidates < 0:
		return fmt.Errorf("synth.max_candidates = %d: must be >= 0", s.MaxCandidates)
	case s.Dither < 0:
		return fmt.Errorf("synth.dither = %v: must be >= 0", s.Dither)
	case s.Timeout < 0:
		return fmt.Errorf("synth.timeout = %d: must be >= 0", s.Timeout)
	case c.Server.Workers < 1:
		return fmt.Errorf("server.workers = %d: must be >= 1", c.Server.Workers)
	case c.Server.MaxBodyBytes < 1:
		return fmt.Errorf("server.max_body_bytes = %d: must be >= 1", c.Server.MaxBodyBytes)
	}

	if _, err := NormalizeUnitType(s.UnitType); err != nil {
		return err
	}

	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.catalogue_path", c.Paths.CataloguePath)
	v.SetDefault("synth.unit_type", c.Synth.UnitType)
	v.SetDefault("synth.prune_score_delta", c.Synth.PruneScoreDelta)
	v.SetDefault("synth.prune_num_cands", c.Synth.PruneNumCands)
	v.SetDefault("synth.window_factor", c.Synth.WindowFactor)
	v.SetDefault("synth.sample_rate", c.Synth.SampleRate)
	v.SetDefault("synth.max_candidates", c.Synth.MaxCandidates)
	v.SetDefault("synth.workers", c.Synth.Workers)
	v.SetDefault("synth.silence", c.Synth.Silence)
	v.SetDefault("synth.dither", c.Synth.Dither)
	v.SetDefault("synth.timeout", c.Synth.Timeout)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.max_body_bytes", c.Server.MaxBodyBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("observability.trace", c.Observability.Trace)
	v.SetDefault("observability.metrics", c.Observability.Metrics)
	v.SetDefault("log_level", c.LogLevel)
}

// flagKeys maps dashed flag names to config keys.
var flagKeys = map[string]string{
	"paths-catalogue-path":    "paths.catalogue_path",
	"synth-unit-type":         "synth.unit_type",
	"synth-prune-score-delta": "synth.prune_score_delta",
	"synth-prune-num-cands":   "synth.prune_num_cands",
	"synth-window-factor":     "synth.window_factor",
	"synth-sample-rate":       "synth.sample_rate",
	"synth-max-candidates":    "synth.max_candidates",
	"synth-workers":           "synth.workers",
	"synth-silence":           "synth.silence",
	"synth-dither":            "synth.dither",
	"synth-timeout":           "synth.timeout",
	"server-listen-addr":      "server.listen_addr",
	"workers":                 "server.workers",
	"server-shutdown-timeout": "server.shutdown_timeout",
	"server-max-body-bytes":   "server.max_body_bytes",
	"server-request-timeout":  "server.request_timeout",
	"trace":                   "observability.trace",
	"metrics":                 "observability.metrics",
	"log-level":               "log_level",
}

// bindFlags binds each registered flag to its dotted key so flags, env vars
// and config file sections all address the same setting.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}

		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}

	return nil
}
