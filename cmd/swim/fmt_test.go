package main

import (
	"strings"
	"testing"
)

func TestFmtReader(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		diff   bool
		markup bool
		want   string
	}{
		{"canonical", "@event(node:a,lane:b) 1\n", false, false, "@event(node:a,lane:b) 1\n"},
		{"spaced", "@event(node: a, lane: b)1", false, false, "@event(node:a,lane:b) 1\n"},
		{"diff", "{a: 1,\n b: 2}\n", true, false, "--- in\n+++ in (formatted)\n-{a: 1,\n- b: 2}\n+{a:1,b:2}\n"},
		{"no diff", "{a:1,b:2}\n", true, false, ""},
		{"markup in", "[hi there]", false, false, "{\"hi there\"}\n"},
		{"markup out", "{\"hi there\"}", false, true, "[hi there]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &FmtConfig{MainConfig: &MainConfig{Markup: tt.markup}, D: tt.diff}
			var out strings.Builder
			if err := fmtReader(cfg, &out, strings.NewReader(tt.in), "in"); err != nil {
				t.Fatal(err)
			}
			if got := out.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFmtReaderError(t *testing.T) {
	cfg := &FmtConfig{MainConfig: &MainConfig{}}
	var out strings.Builder
	err := fmtReader(cfg, &out, strings.NewReader("{a:"), "in")
	if err == nil || !strings.Contains(err.Error(), "in") {
		t.Errorf("got %v, want a parse error naming the input", err)
	}
}
