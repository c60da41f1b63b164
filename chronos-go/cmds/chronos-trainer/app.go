package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/wacky-klingon/chronos-foundry/chronos-go/config"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/dataset"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/forecast"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/partition"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/training"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/versions"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/errors"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/rollbar"
)

// loadSettings resolves config from the given directory.
func loadSettings(configDir string) (config.Settings, error) {
	provider, err := config.NewProvider(configDir)
	if err != nil {
		return config.Settings{}, err
	}
	return config.LoadSettings(provider)
}

// buildTrainer wires the standard components from resolved settings. Final
// models and version directories share the model root; the registry only
// considers subdirectories carrying version metadata.
func buildTrainer(settings config.Settings) (*training.Trainer, error) {
	registry, err := versions.NewRegistry(settings.ModelRoot, settings.MaxVersions)
	if err != nil {
		return nil, err
	}
	return training.NewTrainer(
		partition.Catalog{Root: settings.DataRoot},
		dataset.CSVLoader{},
		forecast.SeasonalBackend{Period: settings.SeasonalPeriod},
		registry,
		settings,
	), nil
}

// fail reports the error to rollbar before handing it back to the dispatcher.
func fail(err error) error {
	rollbar.Critical(errors.WithStack(err))
	rollbar.Wait()
	return err
}

// printJSON writes a result to stdout for scripting.
func printJSON(v interface{}) {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(string(buf))
}
