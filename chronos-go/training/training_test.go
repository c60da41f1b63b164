package training

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wacky-klingon/chronos-foundry/chronos-go/checkpoint"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/config"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/dataset"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/forecast"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/partition"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/versions"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/rollbar"
)

func TestMain(m *testing.M) {
	rollbar.Disable()
	rollbar.DisableLog()
	os.Exit(m.Run())
}

// countingBackend wraps another backend and counts model fits.
type countingBackend struct {
	inner forecast.Backend
	fits  *int
}

func (b countingBackend) New(cfg forecast.ExecConfig) forecast.Predictor {
	return countingPredictor{b.inner.New(cfg), b.fits}
}

func (b countingBackend) Load(location string) (forecast.Predictor, error) {
	p, err := b.inner.Load(location)
	if err != nil {
		return nil, err
	}
	return countingPredictor{p, b.fits}, nil
}

type countingPredictor struct {
	forecast.Predictor
	fits *int
}

func (p countingPredictor) Fit(data dataset.Dataset) error {
	*p.fits++
	return p.Predictor.Fit(data)
}

// brokenSaveBackend produces models whose snapshots cannot be written.
type brokenSaveBackend struct{}

func (brokenSaveBackend) New(cfg forecast.ExecConfig) forecast.Predictor {
	return brokenSavePredictor{forecast.SeasonalBackend{Period: 2}.New(cfg)}
}

func (brokenSaveBackend) Load(location string) (forecast.Predictor, error) {
	return nil, fmt.Errorf("not loadable")
}

type brokenSavePredictor struct {
	forecast.Predictor
}

func (brokenSavePredictor) Save(location string) error {
	return fmt.Errorf("disk full")
}

type fixture struct {
	trainer  *Trainer
	dataRoot string
	ckptDir  string
	fits     int
}

func newFixture(t *testing.T, backend forecast.Backend) *fixture {
	dir, err := ioutil.TempDir("", "training-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	f := &fixture{
		dataRoot: filepath.Join(dir, "data"),
		ckptDir:  filepath.Join(dir, "checkpoints"),
	}
	require.NoError(t, os.MkdirAll(f.dataRoot, 0755))

	if backend == nil {
		backend = countingBackend{forecast.SeasonalBackend{Period: 2}, &f.fits}
	}
	settings := config.Settings{
		DataRoot:             f.dataRoot,
		CheckpointDir:        f.ckptDir,
		ModelRoot:            filepath.Join(dir, "models"),
		PerformanceThreshold: 0.05,
		RollbackEnabled:      true,
		MaxVersions:          5,
		Horizon:              2,
		SeasonalPeriod:       2,
		Exec:                 forecast.ExecConfig{Device: "cpu", MaxThreads: 1},
	}
	registry, err := versions.NewRegistry(settings.ModelRoot, settings.MaxVersions)
	require.NoError(t, err)

	f.trainer = NewTrainer(
		partition.Catalog{Root: f.dataRoot},
		dataset.CSVLoader{},
		backend,
		registry,
		settings,
	)
	return f
}

func (f *fixture) writeMonth(t *testing.T, year, month int, rows string) {
	dir := filepath.Join(f.dataRoot, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month))
	require.NoError(t, os.MkdirAll(dir, 0755))
	contents := "timestamp,target\n" + rows
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "data.csv"), []byte(contents), 0644))
}

func (f *fixture) params(t *testing.T, start, end string) Params {
	dr, err := partition.ParseRange(start, end)
	require.NoError(t, err)
	return Params{Dates: dr, CheckpointDir: f.ckptDir}
}

func TestTrainWithCheckpoints(t *testing.T) {
	f := newFixture(t, nil)
	f.writeMonth(t, 2020, 1, "2020-01-01,1\n2020-01-15,2\n")
	f.writeMonth(t, 2020, 2, "2020-02-01,3\n2020-02-15,4\n")

	result := f.trainer.TrainWithCheckpoints(f.params(t, "2020-01-01", "2020-02-29"))
	require.Equal(t, StatusCompleted, result.Status)
	require.Equal(t, 2, result.ProcessedFiles)
	require.Equal(t, 2, result.TotalFiles)
	require.NotEmpty(t, result.FinalModelPath)
	_, err := os.Stat(result.FinalModelPath)
	require.NoError(t, err)
	require.NotNil(t, result.Performance)

	store, err := checkpoint.NewStore(f.ckptDir, forecast.SeasonalBackend{Period: 2})
	require.NoError(t, err)
	last := store.LoadLast()
	require.NotNil(t, last)
	require.Equal(t, partition.Key{Year: 2020, Month: 2}, last.Key)
	require.Len(t, last.State.Processed, 2)
}

func TestTrainAlreadyComplete(t *testing.T) {
	f := newFixture(t, nil)
	f.writeMonth(t, 2020, 1, "2020-01-01,1\n2020-01-15,2\n")

	first := f.trainer.TrainWithCheckpoints(f.params(t, "2020-01-01", "2020-01-31"))
	require.Equal(t, StatusCompleted, first.Status)
	fitsAfterFirst := f.fits

	// everything is already processed, no refits happen
	second := f.trainer.TrainWithCheckpoints(f.params(t, "2020-01-01", "2020-01-31"))
	require.Equal(t, StatusCompleted, second.Status)
	require.Equal(t, "all partitions already processed", second.Message)
	require.Equal(t, 1, second.ProcessedFiles)
	require.Equal(t, 1, second.TotalFiles)
	require.Equal(t, fitsAfterFirst, f.fits)
}

func TestTrainFinalModelSaveFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.writeMonth(t, 2020, 1, "2020-01-01,1\n2020-01-15,2\n")

	// a file where the model root should be makes the final save impossible
	blocked := filepath.Join(f.dataRoot, "blocked")
	require.NoError(t, ioutil.WriteFile(blocked, []byte("x"), 0644))
	f.trainer.Settings.ModelRoot = blocked

	// the run still completes, the checkpoints hold the trained model
	result := f.trainer.TrainWithCheckpoints(f.params(t, "2020-01-01", "2020-01-31"))
	require.Equal(t, StatusCompleted, result.Status)
	require.Empty(t, result.FinalModelPath)
}

func TestTrainResumesFromCheckpoint(t *testing.T) {
	f := newFixture(t, nil)
	f.writeMonth(t, 2020, 1, "2020-01-01,1\n2020-01-15,2\n")
	f.writeMonth(t, 2020, 2, "2020-02-01,3\n2020-02-15,4\n")

	first := f.trainer.TrainWithCheckpoints(f.params(t, "2020-01-01", "2020-01-31"))
	require.Equal(t, StatusCompleted, first.Status)
	fitsAfterFirst := f.fits

	second := f.trainer.TrainWithCheckpoints(f.params(t, "2020-01-01", "2020-02-29"))
	require.Equal(t, StatusCompleted, second.Status)
	require.Equal(t, 2, second.ProcessedFiles)
	require.Equal(t, fitsAfterFirst+1, f.fits)
}

func TestResumeTraining(t *testing.T) {
	f := newFixture(t, nil)
	f.writeMonth(t, 2020, 1, "2020-01-01,1\n2020-01-15,2\n")

	first := f.trainer.TrainWithCheckpoints(f.params(t, "2020-01-01", "2020-01-31"))
	require.Equal(t, StatusCompleted, first.Status)

	result := f.trainer.ResumeTraining(f.ckptDir)
	require.Equal(t, StatusCompleted, result.Status)
	require.Equal(t, "all partitions already processed", result.Message)
}

func TestResumeTrainingNoState(t *testing.T) {
	f := newFixture(t, nil)
	result := f.trainer.ResumeTraining(f.ckptDir)
	require.Equal(t, StatusError, result.Status)
	require.Equal(t, "no training state found in checkpoint directory", result.Message)
}

func TestTrainSkipsUnloadablePartition(t *testing.T) {
	f := newFixture(t, nil)
	f.writeMonth(t, 2020, 1, "2020-01-01,1\n2020-01-15,2\n")
	// no usable columns, the partition is skipped rather than recorded
	dir := filepath.Join(f.dataRoot, "2020", "02")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "data.csv"), []byte("foo,bar\n1,2\n"), 0644))

	result := f.trainer.TrainWithCheckpoints(f.params(t, "2020-01-01", "2020-02-29"))
	require.Equal(t, StatusCompleted, result.Status)
	require.Equal(t, 1, result.ProcessedFiles)
	require.Equal(t, 2, result.TotalFiles)

	store, err := checkpoint.NewStore(f.ckptDir, nil)
	require.NoError(t, err)
	state := store.LoadTrainingState()
	require.NotNil(t, state)
	require.Equal(t, []partition.Key{{Year: 2020, Month: 1}}, state.ProcessedKeys())
}

func TestTrainAllPartitionsUnloadable(t *testing.T) {
	f := newFixture(t, nil)
	dir := filepath.Join(f.dataRoot, "2020", "01")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "data.csv"), []byte("foo,bar\n1,2\n"), 0644))

	result := f.trainer.TrainWithCheckpoints(f.params(t, "2020-01-01", "2020-01-31"))
	require.Equal(t, StatusError, result.Status)
	require.Contains(t, result.Message, "no partitions could be loaded")
}

func TestTrainCheckpointSaveFailureAborts(t *testing.T) {
	f := newFixture(t, brokenSaveBackend{})
	f.writeMonth(t, 2020, 1, "2020-01-01,1\n2020-01-15,2\n")
	f.writeMonth(t, 2020, 2, "2020-02-01,3\n")

	result := f.trainer.TrainWithCheckpoints(f.params(t, "2020-01-01", "2020-02-29"))
	require.Equal(t, StatusError, result.Status)
	require.Contains(t, result.Message, "failed to save checkpoint")
	require.Contains(t, result.Message, "2020-01")
}

func TestTrainWarmStartFromPreviousModel(t *testing.T) {
	f := newFixture(t, nil)
	f.writeMonth(t, 2020, 1, "2020-01-01,1\n2020-01-15,2\n")

	prev := forecast.SeasonalBackend{Period: 2}.New(forecast.ExecConfig{})
	require.NoError(t, prev.Fit(dataset.Dataset{Points: []dataset.Point{
		{Item: "x", Timestamp: time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), Target: 9},
		{Item: "x", Timestamp: time.Date(2019, 2, 1, 0, 0, 0, 0, time.UTC), Target: 8},
	}}))
	prevPath := filepath.Join(f.dataRoot, "previous.json")
	require.NoError(t, prev.Save(prevPath))

	params := f.params(t, "2020-01-01", "2020-01-31")
	params.PreviousModelPath = prevPath
	result := f.trainer.TrainWithCheckpoints(params)
	require.Equal(t, StatusCompleted, result.Status)
	require.Equal(t, 1, result.ProcessedFiles)
}

func TestTrainWarmStartMissingModelFallsBack(t *testing.T) {
	f := newFixture(t, nil)
	f.writeMonth(t, 2020, 1, "2020-01-01,1\n2020-01-15,2\n")

	params := f.params(t, "2020-01-01", "2020-01-31")
	params.PreviousModelPath = filepath.Join(f.dataRoot, "gone.json")
	result := f.trainer.TrainWithCheckpoints(params)
	require.Equal(t, StatusCompleted, result.Status)
}

func TestTrainWithValidationRange(t *testing.T) {
	f := newFixture(t, nil)
	f.writeMonth(t, 2020, 1, "2020-01-01,1\n2020-01-08,2\n2020-01-15,1\n2020-01-22,2\n")
	f.writeMonth(t, 2020, 2, "2020-02-01,1\n2020-02-08,2\n2020-02-15,1\n2020-02-22,3\n")

	params := f.params(t, "2020-01-01", "2020-01-31")
	vr, err := partition.ParseRange("2020-02-01", "2020-02-29")
	require.NoError(t, err)
	params.Validation = vr

	result := f.trainer.TrainWithCheckpoints(params)
	require.Equal(t, StatusCompleted, result.Status)
	require.NotNil(t, result.Performance)
	require.NotEqual(t, forecast.Placeholder(), *result.Performance)
}

func TestTrainWithoutValidationReportsPlaceholder(t *testing.T) {
	f := newFixture(t, nil)
	f.writeMonth(t, 2020, 1, "2020-01-01,1\n2020-01-15,2\n")

	result := f.trainer.TrainWithCheckpoints(f.params(t, "2020-01-01", "2020-01-31"))
	require.Equal(t, StatusCompleted, result.Status)
	require.Equal(t, forecast.Placeholder(), *result.Performance)
}
