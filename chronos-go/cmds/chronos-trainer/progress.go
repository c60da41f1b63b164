package main

import (
	"github.com/wacky-klingon/chronos-foundry/chronos-go/checkpoint"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/forecast"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/cmdline"
)

var progressCmd = cmdline.Command{
	Name:     "progress",
	Synopsis: "show training progress recorded in a checkpoint directory",
	Args:     &progressArgs{},
}

type progressArgs struct {
	CheckpointDir string `arg:"positional,required" help:"checkpoint directory to inspect"`
}

func (a *progressArgs) Handle() error {
	store, err := checkpoint.NewStore(a.CheckpointDir, forecast.SeasonalBackend{})
	if err != nil {
		return fail(err)
	}
	printJSON(store.Progress())
	return nil
}
