package main

import (
	"github.com/wacky-klingon/chronos-foundry/chronos-go/partition"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/training"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/cmdline"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/errors"
)

var trainCmd = cmdline.Command{
	Name:     "train",
	Synopsis: "run checkpointed training over a date range",
	Args: &trainArgs{
		ConfigDir: "config",
	},
}

type trainArgs struct {
	Start           string `arg:"positional,required" help:"start date (YYYY-MM-DD)"`
	End             string `arg:"positional,required" help:"end date (YYYY-MM-DD)"`
	ValidationStart string `arg:"--validation-start" help:"validation start date"`
	ValidationEnd   string `arg:"--validation-end" help:"validation end date"`
	PreviousModel   string `arg:"--previous-model" help:"model file to warm-start a fresh run from"`
	ConfigDir       string `arg:"--config" help:"configuration directory"`
	CheckpointDir   string `arg:"--checkpoints" help:"checkpoint directory, overrides config"`
}

func (a *trainArgs) Validate() error {
	if (a.ValidationStart == "") != (a.ValidationEnd == "") {
		return errors.Errorf("validation start and end dates must be given together")
	}
	return nil
}

func (a *trainArgs) Handle() error {
	settings, err := loadSettings(a.ConfigDir)
	if err != nil {
		return fail(err)
	}
	if a.CheckpointDir != "" {
		settings.CheckpointDir = a.CheckpointDir
	}

	trainer, err := buildTrainer(settings)
	if err != nil {
		return fail(err)
	}

	dr, err := partition.ParseRange(a.Start, a.End)
	if err != nil {
		return fail(err)
	}
	params := training.Params{
		Dates:             dr,
		CheckpointDir:     settings.CheckpointDir,
		PreviousModelPath: a.PreviousModel,
	}
	if a.ValidationStart != "" {
		vr, err := partition.ParseRange(a.ValidationStart, a.ValidationEnd)
		if err != nil {
			return fail(err)
		}
		params.Validation = vr
	}

	result := trainer.TrainWithCheckpoints(params)
	printJSON(result)
	if result.Status == training.StatusError {
		return fail(errors.Errorf("training failed: %s", result.Message))
	}
	return nil
}
