package training

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/wacky-klingon/chronos-foundry/chronos-go/dataset"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/forecast"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/partition"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/versions"
)

// IncrementalResult reports the outcome of one incremental training step.
type IncrementalResult struct {
	Success     bool             `json:"success"`
	RolledBack  bool             `json:"rollback"`
	VersionID   string           `json:"version_id,omitempty"`
	VersionDir  string           `json:"version_dir,omitempty"`
	Metrics     forecast.Metrics `json:"performance_metrics"`
	Improvement float64          `json:"improvement"`
	Message     string           `json:"message,omitempty"`
}

// TrainIncremental updates a model with new data and registers the result as
// a new version. When a previous version is given, the new model must improve
// on it by at least the configured threshold or, with rollback enabled, the
// previous version stays current and the candidate is discarded from
// tracking.
func (t *Trainer) TrainIncremental(data dataset.Dataset, dr partition.DateRange, previousVersionDir string) IncrementalResult {
	if data.Empty() {
		return IncrementalResult{Success: false, Message: "no data for incremental training"}
	}

	versionID := t.Registry.GenerateVersionID(dr)
	log.Printf("incremental training for %s on %s records", versionID, humanize.Comma(int64(data.Len())))

	var model forecast.Predictor
	if previousVersionDir != "" {
		loaded, err := t.Backend.Load(filepath.Join(previousVersionDir, versions.ModelName))
		if err != nil {
			log.Printf("could not load previous model from %s, training from scratch: %v", previousVersionDir, err)
		} else {
			model = loaded
		}
	}
	if model == nil {
		model = t.Backend.New(t.Settings.Exec)
	}

	if err := model.Fit(data); err != nil {
		return IncrementalResult{
			Success:   false,
			VersionID: versionID,
			Message:   fmt.Sprintf("incremental fit failed: %v", err),
		}
	}

	metrics := forecast.Evaluate(model, data, t.Settings.Horizon)

	var improvement float64
	if previousVersionDir != "" {
		previous := t.Registry.PreviousPerformance(previousVersionDir)
		improvement = t.Registry.Improvement(metrics, previous)
		log.Printf("improvement over previous version: %.4f (threshold %.4f)", improvement, t.Settings.PerformanceThreshold)

		if improvement < t.Settings.PerformanceThreshold && t.Settings.RollbackEnabled {
			rb := t.Registry.Rollback(versionID)
			return IncrementalResult{
				Success:     false,
				RolledBack:  true,
				VersionID:   versionID,
				Metrics:     metrics,
				Improvement: improvement,
				Message:     rb.Message,
			}
		}
	}

	if err := os.MkdirAll(t.Settings.ModelRoot, 0755); err != nil {
		return IncrementalResult{Success: false, VersionID: versionID, Message: err.Error()}
	}
	transient := filepath.Join(t.Settings.ModelRoot, "temp_"+versionID+".json")
	if err := model.Save(transient); err != nil {
		return IncrementalResult{
			Success:   false,
			VersionID: versionID,
			Message:   fmt.Sprintf("failed to save model: %v", err),
		}
	}

	modelConfig := map[string]interface{}{
		"device":      t.Settings.Exec.Device,
		"max_threads": t.Settings.Exec.MaxThreads,
		"horizon":     t.Settings.Horizon,
	}
	versionDir, err := t.Registry.SaveVersion(transient, versionID, dr, metrics, modelConfig, nil)
	if err != nil {
		return IncrementalResult{
			Success:   false,
			VersionID: versionID,
			Message:   fmt.Sprintf("failed to save version: %v", err),
		}
	}

	t.Registry.UpdateTracking(versionID, versionDir, dr, metrics)
	t.Registry.Cleanup()

	return IncrementalResult{
		Success:     true,
		VersionID:   versionID,
		VersionDir:  versionDir,
		Metrics:     metrics,
		Improvement: improvement,
	}
}
