// Package redisopts provides options for Redis client configuration.
package redisopts

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/ss0jung/rag-ai-chatbot/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains Redis client configuration.
type Options struct {
	// Enabled controls whether Redis is used at all. When disabled the
	// service falls back to in-process state.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// Host is the Redis server host.
	Host string `json:"host" mapstructure:"host"`

	// Port is the Redis server port.
	Port int `json:"port" mapstructure:"port"`

	// Password for authentication.
	Password string `json:"password" mapstructure:"password"`

	// Database is the Redis database index.
	Database int `json:"database" mapstructure:"database"`

	// MaxRetries is the maximum number of retries per command.
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`

	// PoolSize is the connection pool size.
	PoolSize int `json:"pool-size" mapstructure:"pool-size"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Enabled:    false,
		Host:       "localhost",
		Port:       6379,
		Database:   0,
		MaxRetries: 3,
		PoolSize:   10,
	}
}

// Addr returns the host:port address.
func (o *Options) Addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, options.Join(prefixes...)+"redis.enabled", o.Enabled, "Enable Redis-backed state.")
	fs.StringVar(&o.Host, options.Join(prefixes...)+"redis.host", o.Host, "Redis server host.")
	fs.IntVar(&o.Port, options.Join(prefixes...)+"redis.port", o.Port, "Redis server port.")
	fs.StringVar(&o.Password, options.Join(prefixes...)+"redis.password", o.Password, "Redis password.")
	fs.IntVar(&o.Database, options.Join(prefixes...)+"redis.database", o.Database, "Redis database index.")
	fs.IntVar(&o.MaxRetries, options.Join(prefixes...)+"redis.max-retries", o.MaxRetries, "Maximum number of retries per command.")
	fs.IntVar(&o.PoolSize, options.Join(prefixes...)+"redis.pool-size", o.PoolSize, "Connection pool size.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	var errs []error
	if o.Host == "" {
		errs = append(errs, fmt.Errorf("redis host is required"))
	}
	if o.Port < 1 || o.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid redis port %d", o.Port))
	}
	return errs
}
