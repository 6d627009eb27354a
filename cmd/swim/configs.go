package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"

	"github.com/swim-go/swim/client"
	"github.com/swim-go/swim/debug"
	"github.com/swim-go/swim/item"
	"github.com/swim-go/swim/recon"
	"github.com/swim-go/swim/warp"
)

type MainConfig struct {
	Color  bool   `cli:"name=color desc='write recon with color'"`
	Spaces bool   `cli:"name=spaces desc='write recon with a space after separators'"`
	Markup bool   `cli:"name=markup desc='write records holding text as [ ] markup'"`
	Config string `cli:"name=config desc='client config file, .yaml or .recon'"`
	Debug  string `cli:"name=debug desc='comma separated toggles: envelopes,reconnect,recon,downlinks'"`
	V      bool   `cli:"name=v desc='log at debug level'"`

	Main *cli.Command
}

func (cfg *MainConfig) writeOpts(w io.Writer) []recon.WriteOption {
	res := []recon.WriteOption{recon.WithSpaces(cfg.Spaces), recon.WithMarkup(cfg.Markup)}
	if cfg.Color {
		return append(res, recon.WithColors(recon.NewColors()))
	}
	if cfg.Main != nil {
		for _, opt := range cfg.Main.Opts {
			if opt.Name == "color" && opt.Value != nil {
				return res
			}
		}
	}
	f, ok := w.(*os.File)
	if !ok {
		return res
	}
	if isatty.IsTerminal(f.Fd()) {
		res = append(res, recon.WithColors(recon.NewColors()))
	}
	return res
}

func (cfg *MainConfig) setDebug() error {
	if cfg.Debug == "" {
		return nil
	}
	for _, name := range strings.Split(cfg.Debug, ",") {
		if err := debug.Set(strings.TrimSpace(name), true); err != nil {
			return fmt.Errorf("%w: %w (have %s)", cli.ErrUsage, err, strings.Join(debug.Names(), ", "))
		}
	}
	return nil
}

func (cfg *MainConfig) clientSpec() (*client.Spec, error) {
	spec := &client.Spec{Log: theLog}
	if cfg.V {
		spec.Log = newLog(slog.LevelDebug)
	}
	if cfg.Config != "" {
		c, err := client.LoadConfig(cfg.Config)
		if err != nil {
			return nil, err
		}
		spec.Config = c
	}
	return spec, nil
}

type FmtConfig struct {
	*MainConfig
	D bool `cli:"name=d desc='print a diff against the input instead of the result'"`

	Fmt *cli.Command
}

// laneFlags addresses the lane of a link or command.
type laneFlags struct {
	Host string
	Node string
	Lane string
	Auth string
}

func (f laneFlags) check() error {
	var missing []string
	for _, p := range [][2]string{{"host", f.Host}, {"node", f.Node}, {"lane", f.Lane}} {
		if p[1] == "" {
			missing = append(missing, "-"+p[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", cli.ErrUsage, strings.Join(missing, ", "))
	}
	return nil
}

// credentials turns -auth into the body of an auth request: a JWT
// becomes {jwt: token}, anything else is parsed as recon.
func (f laneFlags) credentials() (item.Value, error) {
	if f.Auth == "" {
		return nil, nil
	}
	if strings.HasPrefix(f.Auth, "ey") && strings.Count(f.Auth, ".") == 2 {
		return warp.BearerCredentials(f.Auth)
	}
	v, err := recon.Parse(f.Auth)
	if err != nil {
		return nil, fmt.Errorf("%w: -auth is neither a token nor recon: %w", cli.ErrUsage, err)
	}
	return v, nil
}

type LinkConfig struct {
	*MainConfig
	Host    string `cli:"name=host desc='host uri'"`
	Node    string `cli:"name=node desc='node uri'"`
	Lane    string `cli:"name=lane desc='lane uri'"`
	Auth    string `cli:"name=auth desc='credentials: a jwt or a recon value'"`
	Type    string `cli:"name=type desc='downlink type: event, value, list or map'"`
	N       int    `cli:"name=n desc='exit after n events'"`
	Gops    bool   `cli:"name=gops desc='start a gops diagnostics agent'"`
	Timeout time.Duration

	Link *cli.Command
}

func (cfg *LinkConfig) lane() laneFlags {
	return laneFlags{Host: cfg.Host, Node: cfg.Node, Lane: cfg.Lane, Auth: cfg.Auth}
}

func (cfg *LinkConfig) timeoutOpt(_ *cli.Context, a string) (any, error) {
	d, err := time.ParseDuration(a)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	cfg.Timeout = d
	return d, nil
}

type CommandConfig struct {
	*MainConfig
	Host string `cli:"name=host desc='host uri'"`
	Node string `cli:"name=node desc='node uri'"`
	Lane string `cli:"name=lane desc='lane uri'"`
	Auth string `cli:"name=auth desc='credentials: a jwt or a recon value'"`

	Command *cli.Command
}

func (cfg *CommandConfig) lane() laneFlags {
	return laneFlags{Host: cfg.Host, Node: cfg.Node, Lane: cfg.Lane, Auth: cfg.Auth}
}
