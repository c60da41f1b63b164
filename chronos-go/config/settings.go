package config

import (
	"github.com/wacky-klingon/chronos-foundry/chronos-go/forecast"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/errors"
)

// Settings are the resolved orchestrator settings.
type Settings struct {
	DataRoot      string
	CheckpointDir string
	ModelRoot     string

	PerformanceThreshold float64
	RollbackEnabled      bool
	MaxVersions          int

	Horizon        int
	SeasonalPeriod int

	Exec forecast.ExecConfig
}

// LoadSettings resolves settings from the provider. The data root has no
// sane default and is required up front rather than failing mid-run.
func LoadSettings(p *Provider) (Settings, error) {
	if err := p.ValidateRequired("training.data.root"); err != nil {
		return Settings{}, errors.Wrapf(err, "invalid training configuration")
	}

	return Settings{
		DataRoot:      p.GetString("training.data.root", ""),
		CheckpointDir: p.GetString("training.checkpoint.dir", "checkpoints"),
		ModelRoot:     p.GetString("training.model.root", "models"),

		PerformanceThreshold: p.GetFloat("training.performance.threshold", 0.05),
		RollbackEnabled:      p.GetBool("training.performance.rollback_enabled", true),
		MaxVersions:          p.GetInt("training.model.max_versions", 10),

		Horizon:        p.GetInt("training.forecast.horizon", 12),
		SeasonalPeriod: p.GetInt("training.forecast.seasonal_period", forecast.DefaultSeasonalPeriod),

		Exec: forecast.ExecConfig{
			Device:     p.GetString("training.exec.device", "cpu"),
			MaxThreads: p.GetInt("training.exec.max_threads", 1),
		},
	}, nil
}
