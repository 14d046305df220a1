package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix maps CONFERENCE_MONGO_URI to mongo.uri.
const EnvPrefix = "CONFERENCE_"

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"addr":      "http.addr",
	"store":     "store.driver",
	"mongo-uri": "mongo.uri",
	"log-level": "log.level",
}

func defaults() map[string]interface{} {
	d := map[string]interface{}{
		"http.addr":                      ":80",
		"store.driver":                   DriverMongo,
		"mongo.uri":                      "",
		"mongo.database":                 "conference-service",
		"auth.signing_key":               "",
		"auth.token_ttl":                 "8h",
		"ratelimit.rps":                  5.0,
		"ratelimit.burst":                10,
		"announcements.refresh_interval": "1h",
		"log.level":                      "info",
		"log.format":                     "text",
	}
	// variables the service has always read
	if v, err := GetSecret("MONGODB_CONNSTRING"); err == nil {
		d["mongo.uri"] = v
	}
	if v, err := GetSecret("SIGN"); err == nil {
		d["auth.signing_key"] = v
	}
	return d
}

// Load reads configuration. Precedence (highest to lowest): explicitly set
// flags > CONFERENCE_ env vars > config file > defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, known := flagKeys[f.Name]
			if !known || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return Config{}, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg LogConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// DiscardLogger is used by components constructed without a logger.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
