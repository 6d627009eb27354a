package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/scott-cotton/cli"

	"github.com/swim-go/swim/client"
	"github.com/swim-go/swim/item"
	"github.com/swim-go/swim/recon"
)

// command links to the lane, sends the body once the link is up and
// returns when it has been written.
func command(cfg *CommandConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Command.Parse(cc, args)
	if err != nil {
		return err
	}
	lf := cfg.lane()
	if err := lf.check(); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: missing body", cli.ErrUsage)
	}
	body, err := recon.Parse(strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("could not parse body: %w", err)
	}
	creds, err := lf.credentials()
	if err != nil {
		return err
	}
	spec, err := cfg.clientSpec()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	c := client.New(spec)
	defer c.Close()
	host := c.HostRef(lf.Host)
	lane := host.NodeRef(lf.Node).LaneRef(lf.Lane)
	defer lane.Close()
	if creds != nil {
		if err := host.Authenticate(creds); err != nil {
			return err
		}
	}
	sent := make(chan struct{})
	d, err := lane.OpenEvent(&client.DownlinkObserver{
		OnCommand: func(_ item.Value) { close(sent) },
		DidFail: func(err error) {
			spec.Log.Warn("command failed", "host", lf.Host, "error", err)
		},
		DidClose: func() { cancel(fmt.Errorf("%s/%s: unlinked before the command was sent", lf.Node, lf.Lane)) },
	})
	if err != nil {
		return err
	}
	if err := d.Command(body); err != nil {
		return err
	}
	select {
	case <-sent:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}
