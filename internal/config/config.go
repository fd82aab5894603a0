package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix     = "WHEP"
	envConfigFile = "WHEP_CONFIG"

	DefaultMaxSDPBytes      = 16 * 1024
	DefaultRequestTimeout   = 15 * time.Second
	DefaultICEGatherTimeout = 10 * time.Second
	DefaultListenAddr       = ":8089"
	DefaultBasePath         = "/whep"
	DefaultMaxSessions      = 64
)

// Client configures cmd/whep.
type Client struct {
	URL              string        `mapstructure:"url" validate:"required"`
	Token            string        `mapstructure:"token"`
	Mode             string        `mapstructure:"mode" validate:"oneof=whep whip"`
	MaxSDPBytes      int           `mapstructure:"max-sdp-bytes" validate:"min=256"`
	RequestTimeout   time.Duration `mapstructure:"request-timeout" validate:"min=0"`
	ICEGatherTimeout time.Duration `mapstructure:"ice-gather-timeout" validate:"min=0"`
	STUNServers      []string      `mapstructure:"stun"`
	// Hold keeps the session open this long; zero waits for a signal.
	Hold            time.Duration `mapstructure:"hold" validate:"min=0"`
	MetricsAddr     string        `mapstructure:"metrics-addr"`
	LogLevel        string        `mapstructure:"log-level" validate:"oneof=debug info warn error"`
	RequireLocation bool          `mapstructure:"require-location"`
}

// Server configures cmd/whep-server.
type Server struct {
	ListenAddr       string        `mapstructure:"listen" validate:"required"`
	BasePath         string        `mapstructure:"base-path" validate:"required,startswith=/"`
	Token            string        `mapstructure:"token"`
	STUNServers      []string      `mapstructure:"stun"`
	MaxSDPBytes      int           `mapstructure:"max-sdp-bytes" validate:"min=256"`
	MaxSessions      int           `mapstructure:"max-sessions" validate:"min=1"`
	ICEGatherTimeout time.Duration `mapstructure:"ice-gather-timeout" validate:"min=0"`
	LogLevel         string        `mapstructure:"log-level" validate:"oneof=debug info warn error"`
}

// ClientFlags registers the client flags on fs.
func ClientFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (env "+envConfigFile+")")
	fs.String("token", "", "bearer token sent with every request")
	fs.String("mode", "whep", "whep to receive media, whip to send")
	fs.Int("max-sdp-bytes", DefaultMaxSDPBytes, "upper bound for offer and answer SDP")
	fs.Duration("request-timeout", DefaultRequestTimeout, "HTTP request timeout")
	fs.Duration("ice-gather-timeout", DefaultICEGatherTimeout, "ICE gathering timeout")
	fs.StringSlice("stun", nil, "STUN/TURN server URLs")
	fs.Duration("hold", 0, "keep the session this long, 0 waits for SIGINT/SIGTERM")
	fs.String("metrics-addr", "", "serve Prometheus metrics on this address")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.Bool("require-location", false, "fail when the endpoint returns no session URL")
}

// ServerFlags registers the server flags on fs.
func ServerFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (env "+envConfigFile+")")
	fs.String("listen", DefaultListenAddr, "listen address")
	fs.String("base-path", DefaultBasePath, "path prefix for WHIP/WHEP resources")
	fs.String("token", "", "require this bearer token")
	fs.StringSlice("stun", nil, "STUN/TURN server URLs")
	fs.Int("max-sdp-bytes", DefaultMaxSDPBytes, "upper bound for offer SDP")
	fs.Int("max-sessions", DefaultMaxSessions, "concurrent session cap")
	fs.Duration("ice-gather-timeout", DefaultICEGatherTimeout, "ICE gathering timeout")
	fs.String("log-level", "info", "debug, info, warn or error")
}

// LoadClient resolves the client configuration from flags, WHEP_* env vars
// and an optional config file. The endpoint URL is the first positional
// argument or the url key.
func LoadClient(fs *pflag.FlagSet) (*Client, error) {
	v, err := newViper(fs)
	if err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		v.Set("url", fs.Arg(0))
	}
	v.SetDefault("url", "")

	var cfg Client
	if err := unmarshal(v, &cfg); err != nil {
		return nil, err
	}
	if err := ValidateEndpoint(cfg.URL); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadServer resolves the server configuration.
func LoadServer(fs *pflag.FlagSet) (*Server, error) {
	v, err := newViper(fs)
	if err != nil {
		return nil, err
	}
	var cfg Server
	if err := unmarshal(v, &cfg); err != nil {
		return nil, err
	}
	cfg.BasePath = strings.TrimSuffix(cfg.BasePath, "/")
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("base-path must not be the root")
	}
	return &cfg, nil
}

func newViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	path := v.GetString("config")
	if path == "" {
		path = os.Getenv(envConfigFile)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return v, nil
}

func unmarshal(v *viper.Viper, out interface{}) error {
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if err := validator.New().Struct(out); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
