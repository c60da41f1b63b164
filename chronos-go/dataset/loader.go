package dataset

import (
	"bytes"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/wacky-klingon/chronos-foundry/chronos-golib/errors"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/fileutil"
)

// Loader reads one partition file into a Dataset. Implementations own the
// file format; locations may be local paths or s3:// uris.
type Loader interface {
	Load(location string) (Dataset, error)
}

// CSVLoader reads partition files as headered CSV. Column names are resolved
// through the same aliases the rest of the system uses: timestamp may appear
// as ds, date or datetime; target as value or y; a missing item column gets a
// single default series.
type CSVLoader struct{}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var (
	timestampAliases = []string{"timestamp", "ds", "date", "datetime"}
	targetAliases    = []string{"target", "value", "y"}
)

type csvRecord struct {
	Timestamp string `csv:"timestamp"`
	Target    string `csv:"target"`
	Item      string `csv:"item_id"`
}

func isAlias(aliases []string, name string) bool {
	for _, alias := range aliases {
		if name == alias {
			return true
		}
	}
	return false
}

// canonicalizeHeader rewrites known column aliases in the header line to the
// names the record struct binds to, and verifies the required columns exist.
func canonicalizeHeader(buf []byte, location string) ([]byte, error) {
	headerLine := buf
	var rest []byte
	if i := bytes.IndexByte(buf, '\n'); i >= 0 {
		headerLine = buf[:i]
		rest = buf[i:]
	}

	cols := strings.Split(strings.TrimRight(string(headerLine), "\r"), ",")
	var hasTimestamp, hasTarget bool
	for j, col := range cols {
		name := strings.ToLower(strings.TrimSpace(col))
		switch {
		case !hasTimestamp && isAlias(timestampAliases, name):
			cols[j] = "timestamp"
			hasTimestamp = true
		case !hasTarget && isAlias(targetAliases, name):
			cols[j] = "target"
			hasTarget = true
		case name == "item_id" || name == "item":
			cols[j] = "item_id"
		default:
			cols[j] = name
		}
	}
	if !hasTimestamp {
		return nil, errors.Errorf("no timestamp column in %s (header: %v)", location, cols)
	}
	if !hasTarget {
		return nil, errors.Errorf("no target column in %s (header: %v)", location, cols)
	}
	return append([]byte(strings.Join(cols, ",")), rest...), nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognized timestamp %q", s)
}

// Load reads the partition file at location.
func (CSVLoader) Load(location string) (Dataset, error) {
	buf, err := fileutil.ReadFile(location)
	if err != nil {
		return Dataset{}, errors.Wrapf(err, "error opening partition %s", location)
	}

	normalized, err := canonicalizeHeader(buf, location)
	if err != nil {
		return Dataset{}, err
	}

	var rows []csvRecord
	if err := gocsv.UnmarshalBytes(normalized, &rows); err != nil {
		return Dataset{}, errors.Wrapf(err, "error reading %s", location)
	}

	var ds Dataset
	for _, row := range rows {
		ts, err := parseTimestamp(row.Timestamp)
		if err != nil {
			return Dataset{}, errors.Wrapf(err, "bad row in %s", location)
		}
		target, err := strconv.ParseFloat(strings.TrimSpace(row.Target), 64)
		if err != nil {
			return Dataset{}, errors.Errorf("bad target value %q in %s", row.Target, location)
		}

		item := strings.TrimSpace(row.Item)
		if item == "" {
			item = "default_item"
		}
		ds.Points = append(ds.Points, Point{Item: item, Timestamp: ts, Target: target})
	}

	sort.SliceStable(ds.Points, func(i, j int) bool {
		return ds.Points[i].Timestamp.Before(ds.Points[j].Timestamp)
	})
	return ds, nil
}
