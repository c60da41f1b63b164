package main

import (
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/cmdline"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/rollbar"
)

// overridden at release build time via -ldflags "-X main.version=..."
var version = "development"

func main() {
	rollbar.SetCodeVersion(version)

	cmdline.MustDispatch(
		trainCmd,
		trainIncrementalCmd,
		resumeCmd,
		progressCmd,
		versionsCmd,
		preflightCmd,
	)
}
