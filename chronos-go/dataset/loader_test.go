package dataset

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, contents string) string {
	dir, err := ioutil.TempDir("", "loader-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "data.csv")
	require.NoError(t, ioutil.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestCSVLoaderColumnAliases(t *testing.T) {
	path := writeCSV(t, "ds,y\n2020-01-01,1.5\n2020-01-02,2.5\n")

	ds, err := CSVLoader{}.Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	require.Equal(t, 1.5, ds.Points[0].Target)
	require.Equal(t, "default_item", ds.Points[0].Item)
}

func TestCSVLoaderItemColumn(t *testing.T) {
	path := writeCSV(t, "timestamp,target,item_id\n2020-01-01 00:00:00,3.0,widget\n")

	ds, err := CSVLoader{}.Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	require.Equal(t, "widget", ds.Points[0].Item)
}

func TestCSVLoaderSortsByTimestamp(t *testing.T) {
	path := writeCSV(t, "timestamp,value\n2020-01-03,3\n2020-01-01,1\n2020-01-02,2\n")

	ds, err := CSVLoader{}.Load(path)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3}, ds.Targets())
	require.True(t, ds.Points[0].Timestamp.Before(ds.Points[1].Timestamp))
}

func TestCSVLoaderErrors(t *testing.T) {
	_, err := CSVLoader{}.Load(writeCSV(t, "foo,bar\n1,2\n"))
	require.Error(t, err)

	_, err = CSVLoader{}.Load(writeCSV(t, "timestamp,target\nnot-a-date,1\n"))
	require.Error(t, err)

	_, err = CSVLoader{}.Load(writeCSV(t, "timestamp,target\n2020-01-01,abc\n"))
	require.Error(t, err)

	_, err = CSVLoader{}.Load("/nonexistent/path.csv")
	require.Error(t, err)
}

func TestDescribe(t *testing.T) {
	ds := Dataset{Points: []Point{
		{Item: "a", Timestamp: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Target: 1},
		{Item: "a", Timestamp: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), Target: 3},
		{Item: "b", Timestamp: time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC), Target: 5},
	}}

	stats := Describe(ds)
	require.Equal(t, 3, stats.RecordCount)
	require.Equal(t, 2, stats.Items)
	require.InDelta(t, 3.0, stats.TargetMean, 1e-9)
	require.Equal(t, "2020-01-01T00:00:00Z", stats.StartTime)
	require.Equal(t, "2020-01-03T00:00:00Z", stats.EndTime)
}

func TestMerge(t *testing.T) {
	a := Dataset{Points: []Point{{Target: 1}}}
	b := Dataset{Points: []Point{{Target: 2}, {Target: 3}}}

	merged := Merge(a, b)
	require.Equal(t, 3, merged.Len())
	require.True(t, Merge().Empty())
}

func TestBufferEviction(t *testing.T) {
	buf := NewBuffer(2)
	buf.Add("a", Dataset{Points: []Point{{Target: 1}}})
	buf.Add("b", Dataset{Points: []Point{{Target: 2}}})
	buf.Add("c", Dataset{Points: []Point{{Target: 3}}})

	require.Equal(t, 2, buf.Len())
	require.False(t, buf.Has("a"))
	require.True(t, buf.Has("b"))
	require.True(t, buf.Has("c"))

	_, err := buf.Get("a")
	require.Equal(t, ErrUnavailable, err)

	got, err := buf.Get("c")
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
}

func TestBufferTouchOnGet(t *testing.T) {
	buf := NewBuffer(2)
	buf.Add("a", Dataset{})
	buf.Add("b", Dataset{})

	// reading a makes b the eviction candidate
	_, err := buf.Get("a")
	require.NoError(t, err)

	buf.Add("c", Dataset{})
	require.True(t, buf.Has("a"))
	require.False(t, buf.Has("b"))
}
