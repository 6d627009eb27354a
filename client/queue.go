package client

import (
	"slices"

	"github.com/swim-go/swim/item"
	"github.com/swim-go/swim/warp"
)

// command is a queued outbound command. Commands issued through a
// downlink carry its model and wait until the model is linked.
type command struct {
	addr warp.Address
	body item.Value
	m    *model
}

// commandQueue is the FIFO of commands not yet written. It is guarded
// by its host's mutex.
type commandQueue struct {
	cfg     QueueConfig
	entries []*command
}

// push enqueues c under the overflow policy. It returns the command
// discarded to make room, if any.
func (q *commandQueue) push(c *command) (dropped *command, err error) {
	if q.cfg.Capacity > 0 && len(q.entries) >= q.cfg.Capacity {
		switch q.cfg.Overflow {
		case OverflowDropOldest:
			dropped = q.entries[0]
			q.entries = slices.Delete(q.entries, 0, 1)
		case OverflowDropNewest:
			return c, nil
		default:
			return nil, ErrQueueFull
		}
	}
	q.entries = append(q.entries, c)
	return dropped, nil
}

// next returns the oldest command that may be written now.
func (q *commandQueue) next() *command {
	for _, c := range q.entries {
		if c.m == nil || c.m.linked() {
			return c
		}
	}
	return nil
}

// remove removes c if it is still queued.
func (q *commandQueue) remove(c *command) {
	if i := slices.Index(q.entries, c); i >= 0 {
		q.entries = slices.Delete(q.entries, i, i+1)
	}
}

// purge drops the commands of m, returning how many were queued.
func (q *commandQueue) purge(m *model) int {
	n := len(q.entries)
	q.entries = slices.DeleteFunc(q.entries, func(c *command) bool { return c.m == m })
	return n - len(q.entries)
}

func (q *commandQueue) len() int {
	return len(q.entries)
}
