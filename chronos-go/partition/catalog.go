package partition

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/wacky-klingon/chronos-foundry/chronos-golib/awsutil"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/fileutil"
)

// Catalog lists the partition files available under a root location, which
// may be a local directory or an s3:// prefix.
type Catalog struct {
	Root string
}

// List returns every partition file whose month intersects the inclusive
// range [start, end], in strictly chronological (year, month, file name)
// order. Months without data contribute nothing. Any enumeration failure is
// logged and yields an empty result for the whole call; callers cannot
// distinguish that from a range with no data.
func (c Catalog) List(start, end time.Time) []Ref {
	if c.Root == "" {
		log.Println("partition catalog has no root configured")
		return nil
	}

	var refs []Ref
	last := KeyOf(end)
	for key := KeyOf(start); !last.Before(key); key = key.Next() {
		locations, err := c.listMonth(key)
		if err != nil {
			log.Printf("error listing partitions for %s under %s: %v", key, c.Root, err)
			return nil
		}
		for _, loc := range locations {
			refs = append(refs, Ref{Location: loc, Key: key})
		}
	}

	log.Printf("found %d partition files in range %s to %s",
		len(refs), start.Format(DateLayout), end.Format(DateLayout))
	return refs
}

func (c Catalog) listMonth(key Key) ([]string, error) {
	dir := fileutil.Join(c.Root, fmt.Sprintf("%04d", key.Year), fmt.Sprintf("%02d", key.Month))

	// a missing month directory is not an error, it contributes no partitions
	if !awsutil.IsS3URI(dir) {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return nil, nil
		}
	}

	entries, err := fileutil.ListDir(dir)
	if err != nil {
		return nil, err
	}

	var locations []string
	for _, entry := range entries {
		if strings.HasPrefix(fileutil.Base(entry), ".") {
			continue
		}
		if !awsutil.IsS3URI(entry) {
			if info, err := os.Stat(entry); err == nil && info.IsDir() {
				continue
			}
		}
		locations = append(locations, entry)
	}

	// multiple files in one month are ordered by name for determinism
	sort.Strings(locations)
	return locations, nil
}
