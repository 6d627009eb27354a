package client

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadConfig(t *testing.T) {
	want := DefaultConfig()
	want.ReconnectMin = Duration(time.Second)
	want.IdleTimeout = 0
	want.Compression = true
	want.CommandQueue = QueueConfig{Capacity: 64, Overflow: OverflowDropOldest}

	tests := []struct {
		name string
		file string
		data string
	}{
		{
			name: "yaml",
			file: "client.yaml",
			data: `reconnectMin: 1s
idleTimeout: 0s
compression: true
commandQueue:
  capacity: 64
  overflow: dropOldest
`,
		},
		{
			name: "recon",
			file: "client.recon",
			data: `{reconnectMin: "1s", idleTimeout: "0s", compression: true, commandQueue: {capacity: 64, overflow: dropOldest}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}
			got, err := LoadConfig(path)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
		want string
	}{
		{"bad duration", "c.recon", `{reconnectMin: "soon"}`, "reconnectMin"},
		{"not a string", "c.recon", `{idleTimeout: 3}`, "idleTimeout"},
		{"not a record", "c.recon", `3`, "not a record"},
		{"bad overflow", "c.yaml", "commandQueue:\n  overflow: spill\n", "spill"},
		{"invalid", "c.yaml", "reconnectMin: 2s\nreconnectMax: 1s\n", "below reconnectMin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadConfig(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want it to mention %q", err, tt.want)
			}
		})
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config: %v", err)
	}
	cfg := DefaultConfig()
	cfg.ReconnectMin = 0
	cfg.CommandQueue.Capacity = -1
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"reconnectMin", "capacity"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("%v does not mention %s", err, want)
		}
	}
}

func TestOverflowNames(t *testing.T) {
	for _, o := range []Overflow{OverflowReject, OverflowDropOldest, OverflowDropNewest} {
		got, err := ParseOverflow(o.String())
		if err != nil {
			t.Fatal(err)
		}
		if got != o {
			t.Errorf("got %s, want %s", got, o)
		}
	}
	if _, err := ParseOverflow("spill"); err == nil {
		t.Error("expected error")
	}
}
