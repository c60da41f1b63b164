// Package training drives model fitting over month-partitioned datasets. The
// checkpointed loop processes partitions in chronological order, saving a
// checkpoint after each one so an interrupted run resumes where it stopped
// instead of starting over.
package training

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/wacky-klingon/chronos-foundry/chronos-go/checkpoint"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/config"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/dataset"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/forecast"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/partition"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/versions"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/envutil"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/errors"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/rollbar"
)

// Run statuses reported in results.
const (
	StatusCompleted  = "completed"
	StatusError      = "error"
	StatusInProgress = "in_progress"
)

// historyBufferSize caps how many partitions the refit buffer keeps in
// memory; evicted partitions are reloaded from disk on demand.
var historyBufferSize = envutil.GetenvDefaultInt("CHRONOS_HISTORY_BUFFER", 24)

// Params selects what a checkpointed run trains on. PreviousModelPath
// optionally warm-starts a fresh run from an earlier model; it is ignored
// when a checkpoint already provides one.
type Params struct {
	Dates      partition.DateRange
	Validation partition.DateRange

	CheckpointDir     string
	PreviousModelPath string
}

// Result reports the outcome of a checkpointed run.
type Result struct {
	Status         string            `json:"status"`
	Message        string            `json:"message,omitempty"`
	CheckpointDir  string            `json:"checkpoint_dir,omitempty"`
	FinalModelPath string            `json:"final_model_path,omitempty"`
	Performance    *forecast.Metrics `json:"performance,omitempty"`
	ProcessedFiles int               `json:"processed_files"`
	TotalFiles     int               `json:"total_files"`
}

// Trainer wires the catalog, loader, model backend, and version registry into
// the training operations. It is not safe for concurrent use.
type Trainer struct {
	Catalog  partition.Catalog
	Loader   dataset.Loader
	Backend  forecast.Backend
	Registry *versions.Registry
	Settings config.Settings

	buffer *dataset.Buffer
}

// NewTrainer builds a trainer around the given components.
func NewTrainer(catalog partition.Catalog, loader dataset.Loader, backend forecast.Backend, registry *versions.Registry, settings config.Settings) *Trainer {
	return &Trainer{
		Catalog:  catalog,
		Loader:   loader,
		Backend:  backend,
		Registry: registry,
		Settings: settings,
		buffer:   dataset.NewBuffer(historyBufferSize),
	}
}

// TrainWithCheckpoints runs the checkpointed loop over every partition in the
// requested range. If the checkpoint directory holds state from an earlier
// run, already-processed partitions are skipped and the saved model is the
// starting point.
func (t *Trainer) TrainWithCheckpoints(params Params) Result {
	store, err := checkpoint.NewStore(params.CheckpointDir, t.Backend)
	if err != nil {
		return Result{Status: StatusError, Message: err.Error()}
	}

	var model forecast.Predictor
	var state *checkpoint.TrainingState

	if last := store.LoadLast(); last != nil {
		log.Printf("resuming from checkpoint at partition %s", last.Key)
		model = last.Model
		state = last.State
	}
	if model == nil && params.PreviousModelPath != "" {
		loaded, err := t.Backend.Load(params.PreviousModelPath)
		if err != nil {
			log.Printf("could not load previous model from %s, starting fresh: %v", params.PreviousModelPath, err)
		} else {
			model = loaded
		}
	}
	if state == nil {
		state = &checkpoint.TrainingState{
			StartDate:           params.Dates.Start.Format(partition.DateLayout),
			EndDate:             params.Dates.End.Format(partition.DateLayout),
			ValidationStartDate: formatDate(params.Validation.Start),
			ValidationEndDate:   formatDate(params.Validation.End),
		}
	}

	all := t.Catalog.List(params.Dates.Start, params.Dates.End)
	remaining := partition.Remaining(all, state.ProcessedKeys())
	state.TotalFiles = len(remaining)

	if len(remaining) == 0 {
		log.Printf("all %d partitions already processed, nothing to do", len(state.Processed))
		return Result{
			Status:         StatusCompleted,
			Message:        "all partitions already processed",
			CheckpointDir:  store.Root(),
			ProcessedFiles: len(state.Processed),
			TotalFiles:     len(state.Processed),
		}
	}
	log.Printf("training on %d remaining partitions (%d already processed)", len(remaining), len(state.Processed))

	for _, ref := range remaining {
		data, err := t.Loader.Load(ref.Location)
		if err != nil {
			log.Printf("skipping partition %s: %v", ref.Key, err)
			continue
		}
		if data.Empty() {
			log.Printf("skipping empty partition %s", ref.Key)
			continue
		}

		if model == nil {
			model = t.Backend.New(t.Settings.Exec)
		}
		if err := t.fit(model, state, data); err != nil {
			return Result{
				Status:         StatusError,
				Message:        fmt.Sprintf("training failed on partition %s: %v", ref.Key, err),
				CheckpointDir:  store.Root(),
				ProcessedFiles: len(state.Processed),
				TotalFiles:     state.TotalFiles,
			}
		}
		t.buffer.Add(ref.Location, data)

		state.Processed = append(state.Processed, checkpoint.ProcessedPartition{
			Key:         ref.Key,
			Location:    ref.Location,
			RecordCount: data.Len(),
		})
		if !store.Save(ref.Key, model, dataset.Describe(data), state) {
			return Result{
				Status:         StatusError,
				Message:        fmt.Sprintf("failed to save checkpoint for partition %s", ref.Key),
				CheckpointDir:  store.Root(),
				ProcessedFiles: len(state.Processed),
				TotalFiles:     state.TotalFiles,
			}
		}
		log.Printf("processed partition %s (%s records)", ref.Key, humanize.Comma(int64(data.Len())))
	}

	if model == nil {
		return Result{
			Status:        StatusError,
			Message:       "no partitions could be loaded, no model trained",
			CheckpointDir: store.Root(),
			TotalFiles:    state.TotalFiles,
		}
	}

	metrics := t.validate(model, params.Validation)
	finalPath := t.saveFinalModel(model, params.Dates)

	return Result{
		Status:         StatusCompleted,
		CheckpointDir:  store.Root(),
		FinalModelPath: finalPath,
		Performance:    &metrics,
		ProcessedFiles: len(state.Processed),
		TotalFiles:     state.TotalFiles,
	}
}

// ResumeTraining restarts a checkpointed run from the state saved in the
// given checkpoint directory.
func (t *Trainer) ResumeTraining(checkpointDir string) Result {
	store, err := checkpoint.NewStore(checkpointDir, t.Backend)
	if err != nil {
		return Result{Status: StatusError, Message: err.Error()}
	}
	state := store.LoadTrainingState()
	if state == nil {
		return Result{Status: StatusError, Message: "no training state found in checkpoint directory"}
	}

	dr, err := partition.ParseRange(state.StartDate, state.EndDate)
	if err != nil {
		return Result{Status: StatusError, Message: fmt.Sprintf("invalid dates in training state: %v", err)}
	}
	params := Params{Dates: dr, CheckpointDir: checkpointDir}
	if state.ValidationStartDate != "" && state.ValidationEndDate != "" {
		vr, err := partition.ParseRange(state.ValidationStartDate, state.ValidationEndDate)
		if err != nil {
			return Result{Status: StatusError, Message: fmt.Sprintf("invalid validation dates in training state: %v", err)}
		}
		params.Validation = vr
	}
	return t.TrainWithCheckpoints(params)
}

// fit refits the model on the new partition combined with everything
// processed so far. Refitting on the full history keeps the model equivalent
// to one trained on the whole range in a single pass, at the cost of
// reloading evicted partitions.
func (t *Trainer) fit(model forecast.Predictor, state *checkpoint.TrainingState, data dataset.Dataset) error {
	if len(state.Processed) == 0 {
		return model.Fit(data)
	}

	parts := make([]dataset.Dataset, 0, len(state.Processed)+1)
	for _, prev := range state.Processed {
		part, err := t.buffer.Get(prev.Location)
		if err != nil {
			part, err = t.Loader.Load(prev.Location)
			if err != nil {
				log.Printf("could not reload processed partition %s: %v", prev.Key, err)
				continue
			}
			t.buffer.Add(prev.Location, part)
		}
		parts = append(parts, part)
	}
	parts = append(parts, data)
	return model.Fit(dataset.Merge(parts...))
}

// validate evaluates the model on the validation range. Without a validation
// range, or when it holds no data, placeholder metrics are reported so the
// run still completes.
func (t *Trainer) validate(model forecast.Predictor, validation partition.DateRange) forecast.Metrics {
	if validation.Start.IsZero() {
		log.Printf("no validation range configured, reporting placeholder metrics")
		return forecast.Placeholder()
	}

	var parts []dataset.Dataset
	for _, ref := range t.Catalog.List(validation.Start, validation.End) {
		part, err := t.Loader.Load(ref.Location)
		if err != nil {
			log.Printf("skipping validation partition %s: %v", ref.Key, err)
			continue
		}
		parts = append(parts, part)
	}
	data := dataset.Merge(parts...)
	if data.Empty() {
		log.Printf("validation range holds no data, reporting placeholder metrics")
		return forecast.Placeholder()
	}
	return forecast.Evaluate(model, data, t.Settings.Horizon)
}

// saveFinalModel writes the completed model under the model root. Failure is
// reported rather than raised: the checkpoints still hold the trained model.
func (t *Trainer) saveFinalModel(model forecast.Predictor, dr partition.DateRange) string {
	if err := os.MkdirAll(t.Settings.ModelRoot, 0755); err != nil {
		rollbar.Error(errors.Wrapf(err, "failed to create model root %s", t.Settings.ModelRoot))
		return ""
	}
	name := fmt.Sprintf("model_%s_%s_%s.json",
		dr.Start.Format("20060102"),
		dr.End.Format("20060102"),
		time.Now().Format("20060102_150405"))
	path := filepath.Join(t.Settings.ModelRoot, name)
	if err := model.Save(path); err != nil {
		rollbar.Error(errors.Wrapf(err, "failed to save final model to %s", path))
		return ""
	}
	log.Printf("final model saved to: %s", path)
	return path
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(partition.DateLayout)
}
