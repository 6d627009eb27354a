// Package debug holds environment-driven trace toggles.
//
//	SWIM_DEBUG_ENVELOPES  log every envelope sent and received
//	SWIM_DEBUG_RECONNECT  log host connection attempts and backoff
//	SWIM_DEBUG_RECON      log every token read by the Recon parser
//	SWIM_DEBUG_DOWNLINKS  log downlink state transitions
package debug

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
)

type toggle struct {
	env string
	on  atomic.Bool
}

// toggles is keyed by short name, e.g. "envelopes".
var toggles = map[string]*toggle{}

var (
	envelopes = newToggle("envelopes")
	reconnect = newToggle("reconnect")
	recon     = newToggle("recon")
	downlinks = newToggle("downlinks")
)

func newToggle(name string) *toggle {
	t := &toggle{env: "SWIM_DEBUG_" + strings.ToUpper(name)}
	if x := os.Getenv(t.env); x != "" {
		b, _ := strconv.ParseBool(x)
		t.on.Store(b)
	}
	toggles[name] = t
	return t
}

func Envelopes() bool { return envelopes.on.Load() }
func Reconnect() bool { return reconnect.on.Load() }
func Recon() bool     { return recon.on.Load() }
func Downlinks() bool { return downlinks.on.Load() }

// Names returns the short toggle names in order.
func Names() []string {
	return slices.Sorted(maps.Keys(toggles))
}

// Set turns a toggle on or off while the process runs. name is either
// the short name or the environment variable.
func Set(name string, v bool) error {
	key := strings.ToLower(strings.TrimPrefix(name, "SWIM_DEBUG_"))
	t, ok := toggles[key]
	if !ok {
		return fmt.Errorf("unknown debug toggle %q", name)
	}
	t.on.Store(v)
	return nil
}
