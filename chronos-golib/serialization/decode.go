package serialization

import (
	"compress/gzip"
	"encoding/gob"
	"encoding/json"
	"io"
	"io/ioutil"
	"strings"

	yaml "gopkg.in/yaml.v2"

	"github.com/wacky-klingon/chronos-foundry/chronos-golib/errors"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/fileutil"
)

// Decoder is an interface that matches gob.Decoder and json.Decoder
type Decoder interface {
	Decode(interface{}) error
}

type yamlDecoder struct {
	r io.Reader
}

func (d yamlDecoder) Decode(obj interface{}) error {
	buf, err := ioutil.ReadAll(d.r)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(buf, obj)
}

// Decode loads an object from a file into the provided pointer. The format is
// determined by the file extension as in Encode.
func Decode(path string, obj interface{}) error {
	r, err := fileutil.NewReader(path)
	if err != nil {
		return errors.Wrapf(err, "error loading %s", path)
	}
	defer r.Close()

	var in io.Reader = r
	name := path
	if strings.HasSuffix(name, ".gz") {
		name = strings.TrimSuffix(name, ".gz")
		gz, err := gzip.NewReader(in)
		if err != nil {
			return errors.Wrapf(err, "error loading %s", path)
		}
		defer gz.Close()
		in = gz
	}

	var dec Decoder
	switch {
	case strings.HasSuffix(name, ".json"):
		dec = json.NewDecoder(in)
	case strings.HasSuffix(name, ".gob"):
		dec = gob.NewDecoder(in)
	case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"):
		dec = yamlDecoder{r: in}
	default:
		return errors.Errorf("could not find decoder for %s", path)
	}

	if err := dec.Decode(obj); err != nil {
		return errors.Wrapf(err, "error decoding %s", path)
	}
	return nil
}
