package forecast

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeasonalSaveLoadRoundtrip(t *testing.T) {
	dir, err := ioutil.TempDir("", "seasonal-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	backend := SeasonalBackend{Period: 4}
	model := backend.New(ExecConfig{Device: "cpu", MaxThreads: 1})
	require.NoError(t, model.Fit(series(1, 2, 3, 4, 5, 6, 7, 8)))

	path := filepath.Join(dir, "model.json")
	require.NoError(t, model.Save(path))

	loaded, err := backend.Load(path)
	require.NoError(t, err)

	want, err := model.Predict(series(), 4)
	require.NoError(t, err)
	got, err := loaded.Predict(series(), 4)
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, []float64{5, 6, 7, 8}, got)
}

func TestSeasonalFitEmpty(t *testing.T) {
	model := SeasonalBackend{}.New(ExecConfig{})
	require.Error(t, model.Fit(series()))
}

func TestSeasonalPredictShortHistory(t *testing.T) {
	model := SeasonalBackend{Period: 12}.New(ExecConfig{})
	require.NoError(t, model.Fit(series(7, 9)))

	// fewer observations than one season, the whole history repeats
	out, err := model.Predict(series(), 4)
	require.NoError(t, err)
	require.Equal(t, []float64{7, 9, 7, 9}, out)
}

func TestSeasonalLoadMissing(t *testing.T) {
	_, err := SeasonalBackend{}.Load("/nonexistent/model.json")
	require.Error(t, err)
}
