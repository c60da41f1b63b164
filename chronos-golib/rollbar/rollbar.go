// Package rollbar reports errors from long-running training binaries.
// Without a ROLLBAR_TOKEN in the environment, reporting is a NOOP, which is
// the default behavior while debugging locally.
package rollbar

import (
	"log"
	"os"

	rollbar "github.com/rollbar/rollbar-go"
)

var logDisabled = false

func init() {
	rollbar.SetToken(os.Getenv("ROLLBAR_TOKEN"))

	env := os.Getenv("ROLLBAR_ENV")
	if env == "" {
		env = "development"
	}
	rollbar.SetEnvironment(env)
}

// SetCodeVersion sets the reported code version; it should be called early in
// the binary lifecycle.
func SetCodeVersion(ver string) {
	rollbar.SetCodeVersion(ver)
}

// Disable rollbar messages
func Disable() {
	rollbar.SetToken("")
	rollbar.SetEnvironment("")
	rollbar.SetEnabled(false)
}

// DisableLog turns off the local log mirror of reported errors
func DisableLog() {
	logDisabled = true
}

// Critical reports a critical error along with any extra metadata
func Critical(err error, extras ...map[string]interface{}) {
	if !logDisabled {
		log.Printf("rollbar critical: %v", err)
	}
	args := make([]interface{}, 0, len(extras)+1)
	args = append(args, err)
	for _, e := range extras {
		args = append(args, e)
	}
	rollbar.Critical(args...)
}

// Error reports a non-fatal error along with any extra metadata
func Error(err error, extras ...map[string]interface{}) {
	if !logDisabled {
		log.Printf("rollbar error: %v", err)
	}
	args := make([]interface{}, 0, len(extras)+1)
	args = append(args, err)
	for _, e := range extras {
		args = append(args, e)
	}
	rollbar.Error(args...)
}

// Wait blocks until all queued reports have been sent; call before exiting.
func Wait() {
	rollbar.Wait()
}
