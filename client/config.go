package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/swim-go/swim/item"
	"github.com/swim-go/swim/recon"
)

// Config holds the serializable client settings.
type Config struct {
	// ReconnectMin is the first reconnection delay. Each failed attempt
	// doubles it up to ReconnectMax.
	ReconnectMin Duration `yaml:"reconnectMin"`
	ReconnectMax Duration `yaml:"reconnectMax"`
	// IdleTimeout is how long a host without downlinks, observers or
	// queued commands lingers before it closes. Zero keeps idle hosts.
	IdleTimeout Duration `yaml:"idleTimeout"`

	HandshakeTimeout Duration `yaml:"handshakeTimeout"`
	WriteTimeout     Duration `yaml:"writeTimeout"`
	Compression      bool     `yaml:"compression"`

	CommandQueue QueueConfig `yaml:"commandQueue"`
}

// QueueConfig bounds the per-host queue of commands awaiting a
// connection.
type QueueConfig struct {
	// Capacity is the most commands held. Zero means unbounded.
	Capacity int      `yaml:"capacity"`
	Overflow Overflow `yaml:"overflow"`
}

// Overflow selects what happens to a command that finds the queue full.
type Overflow int

const (
	// OverflowReject fails the command with ErrQueueFull.
	OverflowReject Overflow = iota
	// OverflowDropOldest discards the oldest queued command.
	OverflowDropOldest
	// OverflowDropNewest discards the new command.
	OverflowDropNewest
)

var overflowNames = [...]string{
	OverflowReject:     "reject",
	OverflowDropOldest: "dropOldest",
	OverflowDropNewest: "dropNewest",
}

func (o Overflow) String() string {
	if o < 0 || int(o) >= len(overflowNames) {
		return fmt.Sprintf("Overflow(%d)", int(o))
	}
	return overflowNames[o]
}

// ParseOverflow returns the policy named s.
func ParseOverflow(s string) (Overflow, error) {
	for i, n := range overflowNames {
		if n == s {
			return Overflow(i), nil
		}
	}
	return 0, fmt.Errorf("unknown overflow policy %q", s)
}

func (o Overflow) MarshalYAML() (any, error) {
	return o.String(), nil
}

func (o *Overflow) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	p, err := ParseOverflow(s)
	if err != nil {
		return err
	}
	*o = p
	return nil
}

// Duration is a time.Duration written as a string such as "500ms".
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	x, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(x)
	return nil
}

// DefaultConfig returns the default settings.
func DefaultConfig() *Config {
	return &Config{
		ReconnectMin:     Duration(500 * time.Millisecond),
		ReconnectMax:     Duration(30 * time.Second),
		IdleTimeout:      Duration(30 * time.Second),
		HandshakeTimeout: Duration(5 * time.Second),
		WriteTimeout:     Duration(5 * time.Second),
		CommandQueue:     QueueConfig{Capacity: 1024},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error
	if c.ReconnectMin <= 0 {
		errs = append(errs, fmt.Errorf("reconnectMin must be positive, got %s", c.ReconnectMin))
	}
	if c.ReconnectMax < c.ReconnectMin {
		errs = append(errs, fmt.Errorf("reconnectMax %s is below reconnectMin %s", c.ReconnectMax, c.ReconnectMin))
	}
	if c.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("idleTimeout must not be negative, got %s", c.IdleTimeout))
	}
	if c.HandshakeTimeout < 0 || c.WriteTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if c.CommandQueue.Capacity < 0 {
		errs = append(errs, fmt.Errorf("commandQueue.capacity must not be negative, got %d", c.CommandQueue.Capacity))
	}
	if o := c.CommandQueue.Overflow; o < OverflowReject || o > OverflowDropNewest {
		errs = append(errs, fmt.Errorf("unknown overflow policy %s", o))
	}
	return errors.Join(errs...)
}

// LoadConfig loads a configuration file over the defaults. Files ending
// in .yaml or .yml are read as YAML, all others as Recon.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = cfg.FromRecon(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// FromRecon sets the fields present in a Recon record such as
//
//	{reconnectMin: "1s", commandQueue: {capacity: 64, overflow: dropOldest}}
func (c *Config) FromRecon(data []byte) error {
	v, err := recon.ParseBytes(data)
	if err != nil {
		return err
	}
	if v != item.Absent {
		if _, ok := v.(*item.Record); !ok {
			return fmt.Errorf("config is not a record")
		}
	}
	durations := []struct {
		key string
		dst *Duration
	}{
		{"reconnectMin", &c.ReconnectMin},
		{"reconnectMax", &c.ReconnectMax},
		{"idleTimeout", &c.IdleTimeout},
		{"handshakeTimeout", &c.HandshakeTimeout},
		{"writeTimeout", &c.WriteTimeout},
	}
	for _, d := range durations {
		f := item.Get(v, d.key)
		if !item.IsDefined(f) {
			continue
		}
		s, ok := f.(item.Text)
		if !ok {
			return fmt.Errorf("%s: want a duration string", d.key)
		}
		x, err := time.ParseDuration(string(s))
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = Duration(x)
	}
	if f := item.Get(v, "compression"); item.IsDefined(f) {
		b, ok := f.(item.Bool)
		if !ok {
			return fmt.Errorf("compression: want a bool")
		}
		c.Compression = bool(b)
	}
	q := item.Get(v, "commandQueue")
	if f := item.Get(q, "capacity"); item.IsDefined(f) {
		n, ok := f.(item.Num)
		if !ok || !n.IsInt() {
			return fmt.Errorf("commandQueue.capacity: want an integer")
		}
		c.CommandQueue.Capacity = int(n.Int64())
	}
	if f := item.Get(q, "overflow"); item.IsDefined(f) {
		o, err := ParseOverflow(item.StringValue(f, ""))
		if err != nil {
			return fmt.Errorf("commandQueue.overflow: %w", err)
		}
		c.CommandQueue.Overflow = o
	}
	return nil
}
