/*
Copyright © 2019 the InMAP authors.
This file is part of rastermask.

rastermask is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

rastermask is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with rastermask.  If not, see <http://www.gnu.org/licenses/>.
*/

package maskutil

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cenkalti/backoff"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
)

// newBackOff returns the retry policy for downloads.
var newBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 5 * time.Minute
	return b
}

// maybeDownload checks if the input is an existing local file.
// If not, and the path is an HTTP(S) URL or a blob storage location, it
// downloads the file and returns the path to the downloaded copy.
// For shapefiles, it downloads all associated files and
// returns the path to the file with the ".shp" extension.
// c, if not nil, is a channel across which logging messages will be sent.
func maybeDownload(ctx context.Context, path string, c chan string) (string, error) {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return path, nil
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return downloadHTTP(ctx, path, c)
	}
	if IsBlob(path) {
		return downloadBlob(ctx, path, c)
	}
	return path, nil
}

func sendMsg(c chan string, format string, a ...interface{}) {
	if c != nil {
		c <- fmt.Sprintf(format, a...)
	}
}

// downloadHTTP downloads a file from the specified URL, retrying with
// exponential backoff on transport errors and server errors.
func downloadHTTP(ctx context.Context, path string, c chan string) (string, error) {
	dir, err := ioutil.TempDir("", "rastermask")
	if err != nil {
		return "", fmt.Errorf("maskutil: creating temporary download directory: %v", err)
	}
	fnames := expandShp(path)
	for _, fname := range fnames {
		local := filepath.Join(dir, filepath.Base(fname))
		op := func() error { return getHTTP(ctx, fname, local) }
		notify := func(err error, d time.Duration) {
			sendMsg(c, "%v: retrying in %v\n", err, d)
		}
		if err := backoff.RetryNotify(op, backoff.WithContext(newBackOff(), ctx), notify); err != nil {
			return "", err
		}
		sendMsg(c, "downloaded %s\n", fname)
	}
	return filepath.Join(dir, filepath.Base(fnames[0])), nil
}

func getHTTP(ctx context.Context, src, dst string) error {
	req, err := http.NewRequest(http.MethodGet, src, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("maskutil: downloading %s: %v", src, err))
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("maskutil: downloading %s: %v", src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("maskutil: downloading %s: %s", src, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return backoff.Permanent(fmt.Errorf("maskutil: downloading %s: %s", src, resp.Status))
	}
	w, err := os.Create(dst)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("maskutil: creating file for download: %v", err))
	}
	if _, err = io.Copy(w, resp.Body); err != nil {
		w.Close()
		return fmt.Errorf("maskutil: downloading %s: %v", src, err)
	}
	return w.Close()
}

// IsBlob returns whether the given filename represents a blob.
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "file://")
}

// OpenBucket returns the blob storage bucket specified by bucketName,
// where bucketName must be in the format 'provider://name' where provider
// is the name of the storage provider and name is the name of the bucket.
// The currently accepted storage providers are "file" for the local filesystem
// (e.g., for testing), "gs" for Google Cloud Storage, and "s3" for AWS S3.
func OpenBucket(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	u, err := url.Parse(bucketName)
	if err != nil {
		return nil, fmt.Errorf("maskutil: opening bucket: %v", err)
	}
	switch u.Scheme {
	case "file":
		return fileblob.NewBucket(u.Hostname())
	case "gs":
		return gsBucket(ctx, u.Hostname())
	case "s3":
		return s3Bucket(ctx, u.Hostname())
	default:
		return nil, fmt.Errorf("maskutil: invalid blob storage provider %q", u.Scheme)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	// See here for information on credentials:
	// https://cloud.google.com/docs/authentication/getting-started
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket opens an s3 storage bucket. It assumes the following
// environment variables are set: AWS_REGION, AWS_ACCESS_KEY_ID, and
// AWS_SECRET_ACCESS_KEY.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-west-2"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s := session.Must(session.NewSession(c))
	return s3blob.OpenBucket(ctx, s, name)
}

// downloadBlob downloads the specified file from blob storage.
func downloadBlob(ctx context.Context, path string, c chan string) (string, error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("maskutil: %v", err)
	}
	bucket, err := OpenBucket(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		return "", err
	}
	dir, err := ioutil.TempDir("", "rastermask")
	if err != nil {
		return "", fmt.Errorf("maskutil: creating temporary download directory: %v", err)
	}
	for _, key := range expandShp(strings.TrimPrefix(u.Path, "/")) {
		if err := copyBlob(ctx, bucket, key, filepath.Join(dir, filepath.Base(key))); err != nil {
			return "", err
		}
		sendMsg(c, "downloaded %s://%s/%s\n", u.Scheme, u.Host, key)
	}
	return filepath.Join(dir, filepath.Base(u.Path)), nil
}

func copyBlob(ctx context.Context, bucket *blob.Bucket, key, dst string) error {
	r, err := bucket.NewReader(ctx, key)
	if err != nil {
		return fmt.Errorf("maskutil: reading blob %s: %v", key, err)
	}
	defer r.Close()
	w, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("maskutil: creating file for download: %v", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("maskutil: reading blob %s: %v", key, err)
	}
	return w.Close()
}

// expandShp returns the given file + associated [.dbf, .shx, .prj]
// files if the given file has the .shp extension, and returns the given
// file otherwise.
func expandShp(filename string) []string {
	o := []string{filename}
	if filepath.Ext(filename) != ".shp" {
		return o
	}
	for _, newExt := range []string{".dbf", ".shx", ".prj"} {
		o = append(o, strings.TrimSuffix(filename, ".shp")+newExt)
	}
	return o
}
