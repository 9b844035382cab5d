// ABOUTME: Daemon configuration from command-line flags and environment
// ABOUTME: Every flag can also be set with an AUDIOCORE_* variable
package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Resonate-Protocol/audiocore/pkg/audio"
	"github.com/Resonate-Protocol/audiocore/pkg/environment"
	"github.com/sirupsen/logrus"
)

// EnvPrefix prefixes the environment variable of every flag
const EnvPrefix = "AUDIOCORE_"

// Local device backends
const (
	BackendMalgo = "malgo"
	BackendOto   = "oto"
)

// Config holds daemon configuration
type Config struct {
	// AutoRegisterLocal registers the local sound card at startup
	AutoRegisterLocal bool
	Backend           string

	SampleRate int
	Channels   int
	BitDepth   int

	// WAVInput and WAVOutput register a file-backed environment
	WAVInput  string
	WAVOutput string

	// Record writes the default environment's input to this WAV file
	Record string

	// Beep plays a short beep once the manager is running
	Beep bool

	LogLevel string
	LogFile  string
	NoTUI    bool

	StreamCapacity int
	EnqueueTimeout time.Duration
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		AutoRegisterLocal: true,
		Backend:           BackendMalgo,
		SampleRate:        audio.DefaultSampleRate,
		Channels:          audio.DefaultChannels,
		BitDepth:          audio.DefaultBitDepth,
		LogLevel:          "info",
		LogFile:           "audiocore.log",
		StreamCapacity:    environment.DefaultStreamCapacity,
		EnqueueTimeout:    environment.DefaultEnqueueTimeout,
	}
}

// Load builds the configuration from defaults, then environment variables
// (looked up with getenv), then args. Flags win over variables.
func Load(args []string, getenv func(string) string) (Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("audiocore", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.BoolVar(&cfg.AutoRegisterLocal, "auto-register-local", cfg.AutoRegisterLocal, "Register the local sound card at startup")
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "Local device backend (malgo, oto)")
	fs.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "Device sample rate in Hz")
	fs.IntVar(&cfg.Channels, "channels", cfg.Channels, "Device channel count")
	fs.IntVar(&cfg.BitDepth, "bit-depth", cfg.BitDepth, "Device bit depth (8, 16, 24, 32)")
	fs.StringVar(&cfg.WAVInput, "wav-input", cfg.WAVInput, "WAV file used as input of a file-backed environment")
	fs.StringVar(&cfg.WAVOutput, "wav-output", cfg.WAVOutput, "WAV file receiving output of a file-backed environment")
	fs.StringVar(&cfg.Record, "record", cfg.Record, "Record the default environment's input to this WAV file")
	fs.BoolVar(&cfg.Beep, "beep", cfg.Beep, "Play a beep on startup")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file path")
	fs.BoolVar(&cfg.NoTUI, "no-tui", cfg.NoTUI, "Disable TUI, use streaming logs instead")
	fs.IntVar(&cfg.StreamCapacity, "stream-capacity", cfg.StreamCapacity, "Queue capacity of each input stream in bytes")
	fs.DurationVar(&cfg.EnqueueTimeout, "enqueue-timeout", cfg.EnqueueTimeout, "Wait for a full input stream before considering eviction")

	var envErr error
	if getenv != nil {
		fs.VisitAll(func(f *flag.Flag) {
			name := EnvVar(f.Name)
			value := getenv(name)
			if value == "" || envErr != nil {
				return
			}
			if err := fs.Set(f.Name, value); err != nil {
				envErr = fmt.Errorf("invalid %s: %w", name, err)
			}
		})
	}
	if envErr != nil {
		return Config{}, envErr
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// EnvVar returns the environment variable for a flag name
func EnvVar(flagName string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

// Validate checks values that flag parsing cannot
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMalgo, BackendOto:
	default:
		return fmt.Errorf("unknown backend %q (supported: %s, %s)", c.Backend, BackendMalgo, BackendOto)
	}
	if err := c.Format().Validate(); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.StreamCapacity <= 0 {
		return fmt.Errorf("stream capacity must be positive, got %d", c.StreamCapacity)
	}
	if c.EnqueueTimeout <= 0 {
		return fmt.Errorf("enqueue timeout must be positive, got %s", c.EnqueueTimeout)
	}
	return nil
}

// Format returns the device format; 8-bit is unsigned as sound cards expect
func (c Config) Format() audio.Format {
	return audio.Format{
		SampleRate: c.SampleRate,
		Channels:   c.Channels,
		BitDepth:   c.BitDepth,
		Unsigned:   c.BitDepth == 8,
	}
}

// Level returns the parsed log level, info if invalid
func (c Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// EnvironmentConfig returns the template for new environments
func (c Config) EnvironmentConfig(logger *logrus.Entry) environment.Config {
	return environment.Config{
		StreamCapacity: c.StreamCapacity,
		EnqueueTimeout: c.EnqueueTimeout,
		Logger:         logger,
	}
}
