package client

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/swim-go/swim/item"
	"github.com/swim-go/swim/warp"
)

func queued(q *commandQueue) []int64 {
	var out []int64
	for _, c := range q.entries {
		out = append(out, item.IntValue(c.body, -1))
	}
	return out
}

func TestCommandQueueOverflow(t *testing.T) {
	tests := []struct {
		overflow Overflow
		want     []int64
		err      error
		dropped  int64
	}{
		{OverflowReject, []int64{1, 2}, ErrQueueFull, -1},
		{OverflowDropOldest, []int64{2, 3}, nil, 1},
		{OverflowDropNewest, []int64{1, 2}, nil, 3},
	}
	for _, tt := range tests {
		t.Run(tt.overflow.String(), func(t *testing.T) {
			q := &commandQueue{cfg: QueueConfig{Capacity: 2, Overflow: tt.overflow}}
			for i := range 2 {
				if _, err := q.push(&command{body: item.Int(int64(i + 1))}); err != nil {
					t.Fatal(err)
				}
			}
			dropped, err := q.push(&command{body: item.Int(3)})
			if !errors.Is(err, tt.err) {
				t.Errorf("got %v, want %v", err, tt.err)
			}
			got := int64(-1)
			if dropped != nil {
				got = item.IntValue(dropped.body, -1)
			}
			if got != tt.dropped {
				t.Errorf("dropped %d, want %d", got, tt.dropped)
			}
			if diff := cmp.Diff(tt.want, queued(q)); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestCommandQueueOrder(t *testing.T) {
	waiting := &model{addr: warp.Address{Node: "n", Lane: "w"}}
	linked := &model{addr: warp.Address{Node: "n", Lane: "l"}}
	linked.state.Store(int32(DownlinkSynced))

	q := &commandQueue{}
	for i, m := range []*model{waiting, nil, linked, waiting} {
		if _, err := q.push(&command{body: item.Int(int64(i)), m: m}); err != nil {
			t.Fatal(err)
		}
	}
	var sent []int64
	for c := q.next(); c != nil; c = q.next() {
		sent = append(sent, item.IntValue(c.body, -1))
		q.remove(c)
	}
	if diff := cmp.Diff([]int64{1, 2}, sent); diff != "" {
		t.Errorf("sent (-want +got):\n%s", diff)
	}
	if n := q.purge(waiting); n != 2 {
		t.Errorf("purged %d, want 2", n)
	}
	if q.len() != 0 {
		t.Errorf("len %d after purge", q.len())
	}
}
