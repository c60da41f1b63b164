package main

import (
	"github.com/wacky-klingon/chronos-foundry/chronos-go/versions"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/cmdline"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/errors"
)

var versionsCmd = cmdline.Command{
	Name:     "versions",
	Synopsis: "list tracked model versions",
	Args: &versionsArgs{
		ConfigDir: "config",
	},
}

type versionsArgs struct {
	SwitchTo  string `arg:"--switch" help:"make the given version current"`
	History   bool   `arg:"--history" help:"print the full tracking history"`
	ConfigDir string `arg:"--config" help:"configuration directory"`
}

func (a *versionsArgs) Handle() error {
	settings, err := loadSettings(a.ConfigDir)
	if err != nil {
		return fail(err)
	}
	registry, err := versions.NewRegistry(settings.ModelRoot, settings.MaxVersions)
	if err != nil {
		return fail(err)
	}

	if a.SwitchTo != "" {
		if !registry.SwitchTo(a.SwitchTo) {
			return fail(errors.Errorf("version %s not found", a.SwitchTo))
		}
	}
	if a.History {
		printJSON(registry.GetHistory())
		return nil
	}
	printJSON(registry.List())
	return nil
}
