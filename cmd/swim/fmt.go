package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/scott-cotton/cli"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/swim-go/swim/recon"
)

func reconFmt(cfg *FmtConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Fmt.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmtReader(cfg, cc.Out, cc.In, "-")
	}
	for _, file := range args {
		if err := fmtFile(cfg, cc.Out, file); err != nil {
			return err
		}
	}
	return nil
}

func fmtFile(cfg *FmtConfig, w io.Writer, file string) error {
	if file == "-" {
		return fmtReader(cfg, w, os.Stdin, file)
	}
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", file, err)
	}
	defer f.Close()
	return fmtReader(cfg, w, f, file)
}

func fmtReader(cfg *FmtConfig, w io.Writer, r io.Reader, name string) error {
	in, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", name, err)
	}
	v, err := recon.ParseBytes(in)
	if err != nil {
		return fmt.Errorf("error parsing %s: %w", name, err)
	}
	if !cfg.D {
		if _, err := recon.NewWriter(v, cfg.writeOpts(w)...).WriteTo(w); err != nil {
			return fmt.Errorf("error writing %s: %w", name, err)
		}
		_, err = io.WriteString(w, "\n")
		return err
	}
	out, err := recon.Append(nil, v, recon.WithSpaces(cfg.Spaces))
	if err != nil {
		return fmt.Errorf("error writing %s: %w", name, err)
	}
	return writeDiff(w, name, string(in), string(out)+"\n")
}

// writeDiff prints the lines that differ between from and to, each
// prefixed with - or +. Nothing is printed when they are equal.
func writeDiff(w io.Writer, name, from, to string) error {
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	changed := false
	for _, d := range diffs {
		if d.Type != diffpatch.DiffEqual {
			changed = true
			break
		}
	}
	if !changed {
		return nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s (formatted)\n", name, name)
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffpatch.DiffDelete:
			prefix = "-"
		case diffpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix + line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteString("\n")
			}
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
