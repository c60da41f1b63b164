// Package forecast defines the model-fitting capability boundary. The
// orchestrator depends only on the Predictor and Backend interfaces; any
// fitting implementation can sit behind them.
package forecast

import (
	"github.com/wacky-klingon/chronos-foundry/chronos-go/dataset"
)

// ExecConfig carries the execution context for a fitting backend. Backends
// receive it explicitly and must not read execution settings from the
// process environment.
type ExecConfig struct {
	Device     string `json:"device" yaml:"device"`
	MaxThreads int    `json:"max_threads" yaml:"max_threads"`
}

// Predictor is a trainable forecasting model.
type Predictor interface {
	// Fit trains the model on the given data, replacing any prior state.
	Fit(data dataset.Dataset) error
	// Predict forecasts the next horizon values following the given history.
	Predict(history dataset.Dataset, horizon int) ([]float64, error)
	// Save persists the trained state to the given location.
	Save(location string) error
}

// Backend constructs and restores predictors.
type Backend interface {
	New(cfg ExecConfig) Predictor
	Load(location string) (Predictor, error)
}
