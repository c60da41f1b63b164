package versions

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wacky-klingon/chronos-foundry/chronos-go/forecast"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/partition"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/serialization"
)

func testRange(t *testing.T) partition.DateRange {
	dr, err := partition.ParseRange("2020-01-01", "2020-06-30")
	require.NoError(t, err)
	return dr
}

func testRegistry(t *testing.T, maxVersions int) *Registry {
	root, err := ioutil.TempDir("", "versions-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(root) })

	r, err := NewRegistry(root, maxVersions)
	require.NoError(t, err)
	return r
}

func writeModelFile(t *testing.T, r *Registry, name string) string {
	path := filepath.Join(r.root, name)
	require.NoError(t, ioutil.WriteFile(path, []byte(`{"period":2,"history":[1,2]}`), 0644))
	return path
}

func TestGenerateVersionID(t *testing.T) {
	r := testRegistry(t, 5)
	id := r.GenerateVersionID(testRange(t))
	require.Regexp(t, regexp.MustCompile(`^model_20200101_20200630_\d{8}_\d{6}$`), id)
}

func TestSaveVersionMovesModel(t *testing.T) {
	r := testRegistry(t, 5)
	src := writeModelFile(t, r, "temp_model.json")

	dir, err := r.SaveVersion(src, "model_v1", testRange(t), forecast.Metrics{MAE: 0.5}, nil, nil)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, ModelName))
	require.NoError(t, err)
	_, err = os.Stat(src)
	require.True(t, os.IsNotExist(err))

	var meta Metadata
	require.NoError(t, serialization.Decode(filepath.Join(dir, MetadataName), &meta))
	require.Equal(t, "model_v1", meta.VersionID)
	require.Equal(t, []string{"2020-01-01", "2020-06-30"}, meta.DateRange)
	require.Equal(t, 0.5, meta.Metrics.MAE)
}

func TestSaveVersionWorstCaseMetrics(t *testing.T) {
	r := testRegistry(t, 5)
	src := writeModelFile(t, r, "temp_model.json")

	// a degraded evaluation must still land on disk and decode back intact
	dir, err := r.SaveVersion(src, "model_v1", testRange(t), forecast.WorstCase(), nil, nil)
	require.NoError(t, err)

	var meta Metadata
	require.NoError(t, serialization.Decode(filepath.Join(dir, MetadataName), &meta))
	require.Equal(t, forecast.WorstCase(), meta.Metrics)
}

func TestSaveVersionMissingModel(t *testing.T) {
	r := testRegistry(t, 5)

	// metadata is still written so the gap is visible
	dir, err := r.SaveVersion(filepath.Join(r.root, "does_not_exist.json"), "model_v1", testRange(t), forecast.Metrics{}, nil, nil)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, MetadataName))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, ModelName))
	require.True(t, os.IsNotExist(err))
}

func TestUpdateTrackingRotation(t *testing.T) {
	r := testRegistry(t, 5)
	dr := testRange(t)

	r.UpdateTracking("v1", "loc1", dr, forecast.Metrics{MAE: 1})
	require.Equal(t, "v1", r.CurrentVersion())
	require.Equal(t, "", r.PreviousVersion())

	r.UpdateTracking("v2", "loc2", dr, forecast.Metrics{MAE: 0.5})
	require.Equal(t, "v2", r.CurrentVersion())
	require.Equal(t, "v1", r.PreviousVersion())
}

func TestImprovement(t *testing.T) {
	r := testRegistry(t, 5)

	require.Equal(t, 0.5, r.Improvement(forecast.Metrics{MAE: 0.5}, forecast.Metrics{MAE: 1.0}))

	// a regression reads as zero, never negative
	require.Equal(t, 0.0, r.Improvement(forecast.Metrics{MAE: 2.0}, forecast.Metrics{MAE: 1.0}))

	// a perfect previous model cannot be improved on
	require.Equal(t, 0.0, r.Improvement(forecast.Metrics{MAE: 0.5}, forecast.Metrics{MAE: 0}))
}

func TestPreviousPerformanceFallback(t *testing.T) {
	r := testRegistry(t, 5)
	m := r.PreviousPerformance(filepath.Join(r.root, "no_such_version"))
	require.Equal(t, forecast.Metrics{MAE: 1, RMSE: 1, MASE: 1, DirectionalAccuracy: 0.5}, m)
}

func TestCleanupEvictsOldest(t *testing.T) {
	r := testRegistry(t, 2)
	dr := testRange(t)

	for _, id := range []string{"v1", "v2", "v3", "v4"} {
		src := writeModelFile(t, r, "temp_"+id+".json")
		dir, err := r.SaveVersion(src, id, dr, forecast.Metrics{}, nil, nil)
		require.NoError(t, err)
		r.UpdateTracking(id, dir, dr, forecast.Metrics{})
	}
	r.Cleanup()

	history := r.GetHistory()
	require.Equal(t, 2, history.TotalVersions)
	require.Contains(t, history.Versions, "v3")
	require.Contains(t, history.Versions, "v4")
	_, err := os.Stat(filepath.Join(r.root, "v1"))
	require.True(t, os.IsNotExist(err))
}

func TestRollback(t *testing.T) {
	r := testRegistry(t, 5)
	dr := testRange(t)

	r.UpdateTracking("good", "loc1", dr, forecast.Metrics{MAE: 0.5})
	r.UpdateTracking("bad", "loc2", dr, forecast.Metrics{MAE: 2})

	result := r.Rollback("bad")
	require.False(t, result.Success)
	require.True(t, result.RolledBack)
	require.Equal(t, "good", result.CurrentVersion)
	require.Equal(t, "bad", result.FailedVersion)
	require.Equal(t, "good", r.CurrentVersion())
	require.NotContains(t, r.GetHistory().Versions, "bad")
}

func TestReloadFromDisk(t *testing.T) {
	root, err := ioutil.TempDir("", "versions-test")
	require.NoError(t, err)
	defer os.RemoveAll(root)

	older := Metadata{
		VersionID:         "model_old",
		DateRange:         []string{"2019-01-01", "2019-12-31"},
		Metrics:           forecast.Metrics{MAE: 1.2},
		TrainingTimestamp: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	newer := Metadata{
		VersionID:         "model_new",
		DateRange:         []string{"2020-01-01", "2020-12-31"},
		Metrics:           forecast.Metrics{MAE: 0.8},
		TrainingTimestamp: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, meta := range []Metadata{older, newer} {
		dir := filepath.Join(root, meta.VersionID)
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, serialization.Encode(filepath.Join(dir, MetadataName), meta))
	}

	r, err := NewRegistry(root, 5)
	require.NoError(t, err)
	require.Equal(t, "model_new", r.CurrentVersion())
	require.Equal(t, "model_old", r.PreviousVersion())
	require.Equal(t, 0.8, r.PreviousPerformance(filepath.Join(root, "model_new")).MAE)

	list := r.List()
	require.Len(t, list, 2)
	require.Equal(t, "model_new", list[0].VersionID)
	require.True(t, list[0].IsCurrent)
	require.False(t, list[1].IsCurrent)
}

func TestSwitchTo(t *testing.T) {
	r := testRegistry(t, 5)
	dr := testRange(t)

	r.UpdateTracking("v1", "loc1", dr, forecast.Metrics{})
	r.UpdateTracking("v2", "loc2", dr, forecast.Metrics{})

	require.True(t, r.SwitchTo("v1"))
	require.Equal(t, "v1", r.CurrentVersion())
	require.Equal(t, "v2", r.PreviousVersion())
	require.False(t, r.SwitchTo("missing"))
}
