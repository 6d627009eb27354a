package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"

	"github.com/google/gops/agent"
	"github.com/scott-cotton/cli"

	"github.com/swim-go/swim/client"
	"github.com/swim-go/swim/item"
	"github.com/swim-go/swim/recon"
)

// printer writes downlink output and counts it against -n.
type printer struct {
	mu     sync.Mutex
	w      io.Writer
	cfg    *LinkConfig
	n      int
	synced bool
	stop   context.CancelCauseFunc
}

func (p *printer) print(v item.Value) {
	p.mu.Lock()
	defer p.mu.Unlock()
	recon.NewWriter(v, p.cfg.writeOpts(p.w)...).WriteTo(p.w)
	io.WriteString(p.w, "\n")
	p.n++
	if p.cfg.N > 0 && p.n >= p.cfg.N {
		p.stop(nil)
	}
}

func (p *printer) setSynced() {
	p.mu.Lock()
	p.synced = true
	p.mu.Unlock()
}

func (p *printer) isSynced() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.synced
}

func link(cfg *LinkConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Link.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: unexpected arguments %q", cli.ErrUsage, args)
	}
	lf := cfg.lane()
	if err := lf.check(); err != nil {
		return err
	}
	creds, err := lf.credentials()
	if err != nil {
		return err
	}
	if cfg.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			fmt.Fprintf(os.Stderr, "gops agent failed: %v\n", err)
		}
		defer agent.Close()
	}
	spec, err := cfg.clientSpec()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	if cfg.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, cfg.Timeout)
		defer cancelTimeout()
	}

	c := client.New(spec)
	defer c.Close()
	host := c.HostRef(lf.Host)
	defer host.Close()
	if err := host.Observe(&client.HostObserver{
		DidDeauthenticate: func(err *client.AuthError) { cancel(err) },
	}); err != nil {
		return err
	}
	if creds != nil {
		if err := host.Authenticate(creds); err != nil {
			return err
		}
	}

	p := &printer{w: cc.Out, cfg: cfg, stop: cancel}
	obs := client.DownlinkObserver{
		DidFail: func(err error) {
			spec.Log.Warn("link failed", "host", lf.Host, "error", err)
		},
		DidClose: func() { cancel(fmt.Errorf("%s/%s: unlinked", lf.Node, lf.Lane)) },
	}
	ds := host.NodeRef(lf.Node).LaneRef(lf.Lane).Spec()
	// opened is closed once the downlink below is assigned.
	opened := make(chan struct{})
	switch cfg.Type {
	case "event":
		obs.OnEvent = p.print
		_, err = host.OpenEvent(ds, &obs)
	case "value":
		var d *client.ValueDownlink
		vo := &client.ValueObserver{DownlinkObserver: obs}
		vo.DidSync = func() {
			<-opened
			p.setSynced()
			p.print(d.Get())
		}
		vo.DidSet = func(newValue, _ item.Value) {
			if p.isSynced() {
				p.print(newValue)
			}
		}
		d, err = host.OpenValue(ds, vo)
	case "list":
		var d *client.ListDownlink
		lo := &client.ListObserver{DownlinkObserver: obs}
		lo.DidSync = func() {
			<-opened
			p.setSynced()
			p.print(item.RecordOf(itemsOf(d.Values())...))
		}
		lo.OnEvent = func(body item.Value) {
			if p.isSynced() {
				p.print(body)
			}
		}
		d, err = host.OpenList(ds, lo)
	case "map":
		var d *client.MapDownlink
		mo := &client.MapObserver{DownlinkObserver: obs}
		mo.DidSync = func() {
			<-opened
			p.setSynced()
			var slots []item.Item
			for k, v := range d.All() {
				slots = append(slots, item.SlotOf(k, v))
			}
			p.print(item.RecordOf(slots...))
		}
		mo.OnEvent = func(body item.Value) {
			if p.isSynced() {
				p.print(body)
			}
		}
		d, err = host.OpenMap(ds, mo)
	default:
		return fmt.Errorf("%w: unknown downlink type %q", cli.ErrUsage, cfg.Type)
	}
	if err != nil {
		return err
	}
	close(opened)
	<-ctx.Done()
	if err := context.Cause(ctx); !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func itemsOf(vs []item.Value) []item.Item {
	items := make([]item.Item, len(vs))
	for i, v := range vs {
		items[i] = v
	}
	return items
}
