package main

import (
	"github.com/wacky-klingon/chronos-foundry/chronos-go/training"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/cmdline"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/errors"
)

var resumeCmd = cmdline.Command{
	Name:     "resume",
	Synopsis: "resume an interrupted training run from its checkpoint directory",
	Args: &resumeArgs{
		ConfigDir: "config",
	},
}

type resumeArgs struct {
	CheckpointDir string `arg:"positional,required" help:"checkpoint directory of the interrupted run"`
	ConfigDir     string `arg:"--config" help:"configuration directory"`
}

func (a *resumeArgs) Handle() error {
	settings, err := loadSettings(a.ConfigDir)
	if err != nil {
		return fail(err)
	}
	trainer, err := buildTrainer(settings)
	if err != nil {
		return fail(err)
	}

	result := trainer.ResumeTraining(a.CheckpointDir)
	printJSON(result)
	if result.Status == training.StatusError {
		return fail(errors.Errorf("resume failed: %s", result.Message))
	}
	return nil
}
