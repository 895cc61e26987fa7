package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	cli "github.com/urfave/cli"
)

// Config is everything the server reads from flags and the environment.
type Config struct {
	Host            string
	Port            int
	Origin          string
	LogLevel        string
	LogJSON         bool
	BotDelay        time.Duration
	RateLimit       float64
	RateBurst       int
	MaxMessageSize  int64
	ShutdownTimeout time.Duration
}

// Default mirrors the flag defaults.
func Default() Config {
	return Config{
		Host:            "",
		Port:            8080,
		Origin:          "*",
		LogLevel:        "info",
		BotDelay:        1500 * time.Millisecond,
		RateLimit:       10,
		RateBurst:       20,
		MaxMessageSize:  4096,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Flags declares the command line for cmd/server. Every flag can also be set
// through its environment variable.
func Flags() []cli.Flag {
	d := Default()
	return []cli.Flag{
		cli.StringFlag{
			Name:   "host",
			Usage:  "Hostname to listen on",
			Value:  d.Host,
			EnvVar: "LISTEN_HOST",
		},
		cli.IntFlag{
			Name:   "port",
			Usage:  "TCP `port` to listen on",
			Value:  d.Port,
			EnvVar: "PORT",
		},
		cli.StringFlag{
			Name:   "origin",
			Usage:  "Allowed origins, comma separated, or *",
			Value:  d.Origin,
			EnvVar: "ORIGIN",
		},
		cli.StringFlag{
			Name:   "log-level,l",
			Usage:  "Log `level` for output",
			Value:  d.LogLevel,
			EnvVar: "LOG_LEVEL",
		},
		cli.BoolFlag{
			Name:   "log-json",
			Usage:  "Emit logs as JSON",
			EnvVar: "LOG_JSON",
		},
		cli.DurationFlag{
			Name:   "bot-delay",
			Usage:  "Pause before an automated participant moves",
			Value:  d.BotDelay,
			EnvVar: "BOT_DELAY",
		},
		cli.Float64Flag{
			Name:   "rate-limit",
			Usage:  "Commands per second allowed per connection",
			Value:  d.RateLimit,
			EnvVar: "RATE_LIMIT",
		},
		cli.IntFlag{
			Name:   "rate-burst",
			Usage:  "Command burst allowed per connection",
			Value:  d.RateBurst,
			EnvVar: "RATE_BURST",
		},
		cli.Int64Flag{
			Name:   "max-message-size",
			Usage:  "Largest inbound websocket message in `bytes`",
			Value:  d.MaxMessageSize,
			EnvVar: "MAX_MESSAGE_SIZE",
		},
		cli.DurationFlag{
			Name:   "shutdown-timeout",
			Usage:  "How long to wait for connections to drain",
			Value:  d.ShutdownTimeout,
			EnvVar: "SHUTDOWN_TIMEOUT",
		},
	}
}

// FromContext reads the flags declared by Flags.
func FromContext(c *cli.Context) Config {
	return Config{
		Host:            c.String("host"),
		Port:            c.Int("port"),
		Origin:          c.String("origin"),
		LogLevel:        c.String("log-level"),
		LogJSON:         c.Bool("log-json"),
		BotDelay:        c.Duration("bot-delay"),
		RateLimit:       c.Float64("rate-limit"),
		RateBurst:       c.Int("rate-burst"),
		MaxMessageSize:  c.Int64("max-message-size"),
		ShutdownTimeout: c.Duration("shutdown-timeout"),
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.BotDelay < 0 {
		errs = append(errs, fmt.Errorf("bot-delay must not be negative, got %s", c.BotDelay))
	}
	if c.RateLimit <= 0 {
		errs = append(errs, fmt.Errorf("rate-limit must be positive, got %g", c.RateLimit))
	}
	if c.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("rate-burst must be at least 1, got %d", c.RateBurst))
	}
	if c.MaxMessageSize <= 0 {
		errs = append(errs, fmt.Errorf("max-message-size must be positive, got %d", c.MaxMessageSize))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown-timeout must be positive, got %s", c.ShutdownTimeout))
	}
	if !c.AnyOrigin() {
		for _, o := range c.AllowedOrigins() {
			if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
				errs = append(errs, fmt.Errorf("origin %q needs an http:// or https:// scheme", o))
			}
		}
	}
	return errors.Join(errs...)
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// AllowedOrigins splits Origin. A lone "*" means any origin.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.Origin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c Config) AnyOrigin() bool {
	origins := c.AllowedOrigins()
	return len(origins) == 0 || (len(origins) == 1 && origins[0] == "*")
}

// ConfigureLogging applies LogLevel and LogJSON to the standard logger.
func (c Config) ConfigureLogging() {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	case "fatal":
		log.SetLevel(log.FatalLevel)
	}
	if c.LogJSON {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
