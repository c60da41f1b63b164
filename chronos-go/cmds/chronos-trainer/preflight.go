package main

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/wacky-klingon/chronos-foundry/chronos-go/partition"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/cmdline"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/errors"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/fileutil"
)

var preflightCmd = cmdline.Command{
	Name:     "preflight",
	Synopsis: "check configuration and data availability before a training run",
	Args: &preflightArgs{
		ConfigDir: "config",
	},
}

type preflightArgs struct {
	Start     string `arg:"positional,required" help:"start date (YYYY-MM-DD)"`
	End       string `arg:"positional,required" help:"end date (YYYY-MM-DD)"`
	ConfigDir string `arg:"--config" help:"configuration directory"`
}

type preflightReport struct {
	DataRoot           string `json:"data_root"`
	DataRootExists     bool   `json:"data_root_exists"`
	Partitions         int    `json:"partitions"`
	CheckpointDir      string `json:"checkpoint_dir"`
	CheckpointWritable bool   `json:"checkpoint_writable"`
	OK                 bool   `json:"ok"`
}

func (a *preflightArgs) Handle() error {
	settings, err := loadSettings(a.ConfigDir)
	if err != nil {
		return fail(err)
	}
	dr, err := partition.ParseRange(a.Start, a.End)
	if err != nil {
		return fail(err)
	}

	report := preflightReport{
		DataRoot:      settings.DataRoot,
		CheckpointDir: settings.CheckpointDir,
	}
	report.DataRootExists = fileutil.Exists(settings.DataRoot)
	if report.DataRootExists {
		catalog := partition.Catalog{Root: settings.DataRoot}
		report.Partitions = len(catalog.List(dr.Start, dr.End))
	}

	if err := os.MkdirAll(settings.CheckpointDir, 0755); err == nil {
		probe := filepath.Join(settings.CheckpointDir, ".preflight")
		if err := ioutil.WriteFile(probe, nil, 0644); err == nil {
			os.Remove(probe)
			report.CheckpointWritable = true
		}
	}

	report.OK = report.DataRootExists && report.Partitions > 0 && report.CheckpointWritable
	printJSON(report)
	if !report.OK {
		return errors.Errorf("preflight checks failed")
	}
	return nil
}
