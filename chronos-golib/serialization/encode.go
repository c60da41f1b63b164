// Package serialization reads and writes objects in the format implied by the
// file extension, which can be .json, .gob, or .yaml, optionally followed by
// .gz for gzip compression. Paths may be local or s3:// uris.
package serialization

import (
	"compress/gzip"
	"encoding/gob"
	"encoding/json"
	"io"
	"strings"

	yaml "gopkg.in/yaml.v2"

	"github.com/wacky-klingon/chronos-foundry/chronos-golib/errors"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/fileutil"
)

// Encoder is an interface that matches gob.Encoder and json.Encoder
type Encoder interface {
	Encode(interface{}) error
}

type yamlEncoder struct {
	w io.Writer
}

func (e yamlEncoder) Encode(obj interface{}) error {
	buf, err := yaml.Marshal(obj)
	if err != nil {
		return err
	}
	_, err = e.w.Write(buf)
	return err
}

// Encode writes the object to the path, using the format specified by the
// file extension.
func Encode(path string, obj interface{}) (err error) {
	w, err := fileutil.NewBufferedWriter(path)
	if err != nil {
		return errors.Wrapf(err, "error creating %s", path)
	}
	defer errors.Defer(&err, w.Close)

	var out io.Writer = w
	name := path
	if strings.HasSuffix(name, ".gz") {
		name = strings.TrimSuffix(name, ".gz")
		gz := gzip.NewWriter(out)
		defer errors.Defer(&err, gz.Close)
		out = gz
	}

	var enc Encoder
	switch {
	case strings.HasSuffix(name, ".json"):
		e := json.NewEncoder(out)
		e.SetIndent("", "  ")
		enc = e
	case strings.HasSuffix(name, ".gob"):
		enc = gob.NewEncoder(out)
	case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"):
		enc = yamlEncoder{w: out}
	default:
		return errors.Errorf("could not find encoder for %s", path)
	}

	return enc.Encode(obj)
}
