package forecast

import (
	"github.com/wacky-klingon/chronos-foundry/chronos-go/dataset"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/errors"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/serialization"
)

// DefaultSeasonalPeriod assumes monthly data with yearly seasonality.
const DefaultSeasonalPeriod = 12

// SeasonalBackend builds seasonal-naive predictors. It is the reference
// backend: forecasts repeat the last observed season, which makes the whole
// pipeline runnable without an external fitting engine.
type SeasonalBackend struct {
	Period int
}

func (b SeasonalBackend) period() int {
	if b.Period > 0 {
		return b.Period
	}
	return DefaultSeasonalPeriod
}

// New returns an untrained seasonal-naive predictor.
func (b SeasonalBackend) New(cfg ExecConfig) Predictor {
	return &seasonalNaive{Period: b.period()}
}

// Load restores a predictor saved by Save.
func (b SeasonalBackend) Load(location string) (Predictor, error) {
	var m seasonalNaive
	if err := serialization.Decode(location, &m); err != nil {
		return nil, errors.Wrapf(err, "error loading model from %s", location)
	}
	if m.Period == 0 {
		m.Period = b.period()
	}
	return &m, nil
}

type seasonalNaive struct {
	Period  int       `json:"period"`
	History []float64 `json:"history"`
}

func (m *seasonalNaive) Fit(data dataset.Dataset) error {
	if data.Empty() {
		return errors.New("cannot fit on an empty dataset")
	}
	m.History = data.Targets()
	return nil
}

func (m *seasonalNaive) Predict(history dataset.Dataset, horizon int) ([]float64, error) {
	base := m.History
	if !history.Empty() {
		base = history.Targets()
	}
	if len(base) == 0 {
		return nil, errors.New("no history to predict from")
	}

	season := m.Period
	if season > len(base) {
		season = len(base)
	}
	tail := base[len(base)-season:]

	out := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		out[i] = tail[i%len(tail)]
	}
	return out, nil
}

func (m *seasonalNaive) Save(location string) error {
	if err := serialization.Encode(location, m); err != nil {
		return errors.Wrapf(err, "error saving model to %s", location)
	}
	return nil
}
