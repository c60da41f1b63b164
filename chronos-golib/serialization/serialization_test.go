package serialization

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string   `json:"name" yaml:"name"`
	Count int      `json:"count" yaml:"count"`
	Tags  []string `json:"tags" yaml:"tags"`
}

func TestEncodeDecodeFormats(t *testing.T) {
	dir, err := ioutil.TempDir("", "serialization-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	in := payload{Name: "chronos", Count: 3, Tags: []string{"a", "b"}}

	for _, name := range []string{"obj.json", "obj.json.gz", "obj.gob", "obj.gob.gz", "obj.yaml", "obj.yml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Encode(path, in), name)

		var out payload
		require.NoError(t, Decode(path, &out), name)
		require.Equal(t, in, out, name)
	}
}

func TestEncodeUnknownExtension(t *testing.T) {
	dir, err := ioutil.TempDir("", "serialization-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	require.Error(t, Encode(filepath.Join(dir, "obj.txt"), payload{}))
}

func TestDecodeMissingFile(t *testing.T) {
	var out payload
	require.Error(t, Decode("/nonexistent/obj.json", &out))
}

func TestJSONOutputIsIndented(t *testing.T) {
	dir, err := ioutil.TempDir("", "serialization-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "obj.json")
	require.NoError(t, Encode(path, payload{Name: "x"}))

	buf, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(buf), "\n  \"name\"")
}
