package config

import (
	"flag"
	"io"
)

// CLIFlags holds command-line overrides. A nil field was not given.
type CLIFlags struct {
	ConfigPath *string
	Port       *string
	LogLevel   *string
	DBDriver   *string
	DSN        *string
	NatsURL    *string
}

// ParseFlags parses serve-time flags. Both long and short forms are
// accepted for the config path (-c) and port (-p).
func ParseFlags(args []string) (CLIFlags, error) {
	fs := flag.NewFlagSet("missioncontrol", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	vals := map[string]*string{}
	str := func(name, short, usage string) {
		v := new(string)
		fs.StringVar(v, name, "", usage)
		if short != "" {
			fs.StringVar(v, short, "", usage+" (shorthand)")
		}
		vals[name] = v
	}
	str("config", "c", "path to YAML config file")
	str("port", "p", "HTTP listen port")
	str("log-level", "", "log level (debug, info, warn, error)")
	str("db-driver", "", "store driver (postgres, sqlite)")
	str("dsn", "", "PostgreSQL DSN")
	str("nats-url", "", "NATS server URL")

	if err := fs.Parse(args); err != nil {
		return CLIFlags{}, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	given := func(name, short string) *string {
		if set[name] || (short != "" && set[short]) {
			return vals[name]
		}
		return nil
	}

	return CLIFlags{
		ConfigPath: given("config", "c"),
		Port:       given("port", "p"),
		LogLevel:   given("log-level", ""),
		DBDriver:   given("db-driver", ""),
		DSN:        given("dsn", ""),
		NatsURL:    given("nats-url", ""),
	}, nil
}

// applyCLI overlays non-nil flags onto cfg.
func applyCLI(cfg *Config, f CLIFlags) {
	if f.Port != nil {
		cfg.Server.Port = *f.Port
	}
	if f.LogLevel != nil {
		cfg.Logging.Level = *f.LogLevel
	}
	if f.DBDriver != nil {
		cfg.Database.Driver = *f.DBDriver
	}
	if f.DSN != nil {
		cfg.Postgres.DSN = *f.DSN
	}
	if f.NatsURL != nil {
		cfg.NATS.URL = *f.NatsURL
	}
}

// LoadWithCLI loads configuration with the full hierarchy:
// defaults < YAML < ENV < CLI flags. It returns the YAML path used.
func LoadWithCLI(f CLIFlags) (*Config, string, error) {
	path := DefaultConfigFile
	if f.ConfigPath != nil {
		path = *f.ConfigPath
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, path); err != nil {
		return nil, path, err
	}
	loadEnv(&cfg)
	applyCLI(&cfg, f)

	if err := validate(&cfg); err != nil {
		return nil, path, err
	}
	return &cfg, path, nil
}
