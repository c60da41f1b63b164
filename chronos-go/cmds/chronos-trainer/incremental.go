package main

import (
	"log"

	"github.com/wacky-klingon/chronos-foundry/chronos-go/dataset"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/partition"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/cmdline"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/errors"
)

var trainIncrementalCmd = cmdline.Command{
	Name:     "train-incremental",
	Synopsis: "update a model with new data and register it as a new version",
	Args: &trainIncrementalArgs{
		ConfigDir: "config",
	},
}

type trainIncrementalArgs struct {
	Start     string `arg:"positional,required" help:"start date of the new data (YYYY-MM-DD)"`
	End       string `arg:"positional,required" help:"end date of the new data (YYYY-MM-DD)"`
	Previous  string `arg:"--previous" help:"directory of the previous model version to update"`
	ConfigDir string `arg:"--config" help:"configuration directory"`
}

func (a *trainIncrementalArgs) Handle() error {
	settings, err := loadSettings(a.ConfigDir)
	if err != nil {
		return fail(err)
	}
	trainer, err := buildTrainer(settings)
	if err != nil {
		return fail(err)
	}

	dr, err := partition.ParseRange(a.Start, a.End)
	if err != nil {
		return fail(err)
	}

	var parts []dataset.Dataset
	for _, ref := range trainer.Catalog.List(dr.Start, dr.End) {
		part, err := trainer.Loader.Load(ref.Location)
		if err != nil {
			log.Printf("skipping partition %s: %v", ref.Key, err)
			continue
		}
		parts = append(parts, part)
	}
	data := dataset.Merge(parts...)

	result := trainer.TrainIncremental(data, dr, a.Previous)
	printJSON(result)
	if !result.Success && !result.RolledBack {
		return fail(errors.Errorf("incremental training failed: %s", result.Message))
	}
	return nil
}
