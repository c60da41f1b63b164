package awsutil

import (
	"fmt"
	"io"
	"io/ioutil"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/wacky-klingon/chronos-foundry/chronos-golib/envutil"
)

var localRegion = envutil.GetenvDefault("AWS_REGION", "")

// IsS3URI returns true if the path is an s3 uri.
func IsS3URI(path string) bool {
	return strings.HasPrefix(path, "s3://")
}

// ValidateURI parses an s3://bucket/path/to/object uri.
func ValidateURI(uri string) (*url.URL, error) {
	s3url, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid s3 uri %s: %v", uri, err)
	}
	if s3url.Scheme != "s3" || s3url.Host == "" {
		return nil, fmt.Errorf("invalid s3 uri: %s", uri)
	}
	return s3url, nil
}

// NewS3 creates an s3 client.
func NewS3(region string) (*s3.S3, error) {
	sess, err := session.NewSession()
	if err != nil {
		return nil, err
	}
	return s3.New(sess, aws.NewConfig().WithRegion(region)), nil
}

func objectRegion(uri *url.URL) (string, error) {
	if localRegion != "" {
		return localRegion, nil
	}

	client, err := NewS3("us-west-1")
	if err != nil {
		return "", err
	}

	// Discover the region that this bucket is located in
	out, err := client.GetBucketLocation(&s3.GetBucketLocationInput{
		Bucket: &uri.Host,
	})
	if err != nil {
		return "", err
	}
	if out.LocationConstraint == nil {
		return "us-east-1", nil
	}
	return *out.LocationConstraint, nil
}

// NewS3Reader returns an io.ReadCloser that will read the contents of the
// object pointed to by the uri, which must be of the form
// s3://bucket-name/path/to/object.
func NewS3Reader(uri string) (io.ReadCloser, error) {
	s3url, err := ValidateURI(uri)
	if err != nil {
		return nil, err
	}

	region, err := objectRegion(s3url)
	if err != nil {
		return nil, fmt.Errorf("unable to determine region for %s: %v", uri, err)
	}

	client, err := NewS3(region)
	if err != nil {
		return nil, err
	}

	key := strings.TrimPrefix(s3url.Path, "/")
	out, err := client.GetObject(&s3.GetObjectInput{
		Bucket: &s3url.Host,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

// S3ListObjects lists the keys under the given prefix in the given bucket.
func S3ListObjects(region, bucket, prefix string) ([]string, error) {
	client, err := NewS3(region)
	if err != nil {
		return nil, err
	}

	var keys []string
	input := &s3.ListObjectsInput{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}
	err = client.ListObjectsPages(input, func(page *s3.ListObjectsOutput, lastPage bool) bool {
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// NamedWriteCloser is a file-like object extending io.WriteCloser with a
// string Name() similar to os.File.Name()
type NamedWriteCloser interface {
	io.WriteCloser
	Name() string
}

type bufferedS3Writer struct {
	f     *os.File
	s3uri *url.URL
}

func (w bufferedS3Writer) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

// Close flushes to disk, copies the written data to s3, and closes the file
func (w bufferedS3Writer) Close() error {
	defer os.Remove(w.f.Name())
	defer w.f.Close()

	w.f.Sync()
	if _, err := w.f.Seek(0, 0); err != nil {
		return err
	}

	region, err := objectRegion(w.s3uri)
	if err != nil {
		return fmt.Errorf("unable to determine region: %s", err)
	}

	client, err := NewS3(region)
	if err != nil {
		return err
	}

	key := strings.TrimPrefix(w.s3uri.Path, "/")
	_, err = client.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(w.s3uri.Host),
		Key:    aws.String(key),
		Body:   w.f,
	})
	return err
}

func (w bufferedS3Writer) Name() string {
	return w.s3uri.String()
}

// NewBufferedS3Writer returns an io.WriteCloser that will write to disk and
// upload to S3 on Close
func NewBufferedS3Writer(uri string) (NamedWriteCloser, error) {
	s3url, err := ValidateURI(uri)
	if err != nil {
		return nil, err
	}

	f, err := ioutil.TempFile("", "s3buffer")
	if err != nil {
		return nil, err
	}
	return bufferedS3Writer{f: f, s3uri: s3url}, nil
}
