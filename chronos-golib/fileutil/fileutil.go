package fileutil

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/wacky-klingon/chronos-foundry/chronos-golib/awsutil"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/envutil"
)

// NewReader opens a local or remote path for reading. If the path looks like
// "s3://bucket/path/to/object" then this will read an object from S3.
// Otherwise, this will read a path from the local filesystem.
func NewReader(path string) (io.ReadCloser, error) {
	if awsutil.IsS3URI(path) {
		return awsutil.NewS3Reader(path)
	}
	return os.Open(path)
}

// NewBufferedWriter opens a local or remote path for writing. If the path
// starts with "s3://", then this will write to a local buffer, copying to s3
// on close. Otherwise, this will write to the local FS.
func NewBufferedWriter(path string) (awsutil.NamedWriteCloser, error) {
	if awsutil.IsS3URI(path) {
		return awsutil.NewBufferedS3Writer(path)
	}
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return nil, err
	}
	return os.Create(path)
}

// ReadFile reads the contents of a local or remote path.
func ReadFile(path string) ([]byte, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return ioutil.ReadAll(r)
}

// ListDir returns the fully qualified names for the members of the provided
// directory. If the directory is local these will simply be the paths, if the
// directory is on s3 then these will be uris for the keys under the prefix.
func ListDir(path string) ([]string, error) {
	if awsutil.IsS3URI(path) {
		trimmed := strings.TrimPrefix(path, "s3://")

		parts := strings.Split(trimmed, "/")
		bucket := parts[0]
		prefix := strings.Join(parts[1:], "/")

		region := envutil.GetenvDefault("AWS_REGION", "us-west-1")
		keys, err := awsutil.S3ListObjects(region, bucket, prefix)
		if err != nil {
			return nil, fmt.Errorf("error reading from s3 path %s: %v", path, err)
		}

		var paths []string
		for _, key := range keys {
			paths = append(paths, Join("s3://", bucket, key))
		}
		return paths, nil
	}

	entries, err := ioutil.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("error reading dir %s: %v", path, err)
	}

	var paths []string
	for _, entry := range entries {
		paths = append(paths, Join(path, entry.Name()))
	}
	return paths, nil
}

// Exists reports whether the local or remote path is readable.
func Exists(path string) bool {
	if awsutil.IsS3URI(path) {
		r, err := NewReader(path)
		if err != nil {
			return false
		}
		r.Close()
		return true
	}
	_, err := os.Stat(path)
	return err == nil
}
