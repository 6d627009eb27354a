package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "swim").
		WithSynopsis("swim [opts] command [opts]").
		WithDescription("swim links to the lanes of WARP hosts.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return swimMain(cfg, cc, args)
		}).
		WithSubs(
			FmtCommand(cfg),
			LinkCommand(cfg),
			CommandCommand(cfg))
}

func FmtCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &FmtConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Fmt, "fmt").
		WithAliases("f").
		WithSynopsis("fmt [-d] [files]").
		WithDescription("write recon documents in canonical form").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return reconFmt(cfg, cc, args)
		})
}

func LinkCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &LinkConfig{MainConfig: mainCfg, Type: "event"}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts = append(opts, &cli.Opt{
		Name:        "timeout",
		Description: "exit after this long (default never)",
		Type:        cli.NamedFuncOpt(cli.FuncOpt(cfg.timeoutOpt), "(duration)"),
	})
	return cli.NewCommandAt(&cfg.Link, "link").
		WithAliases("l").
		WithSynopsis("link -host uri -node node -lane lane [-type event|value|list|map] [-n count]").
		WithDescription("open a downlink and print what it receives until interrupted").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return link(cfg, cc, args)
		})
}

func CommandCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &CommandConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Command, "command").
		WithAliases("c", "cmd").
		WithSynopsis("command -host uri -node node -lane lane body").
		WithDescription("send a recon value to a lane").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return command(cfg, cc, args)
		})
}
