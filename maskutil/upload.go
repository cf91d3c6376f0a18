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
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-cloud/blob"
)

// uploader writes outputs destined for blob storage to a temporary
// directory and copies them to the bucket afterwards.
type uploader struct {
	// files holds pairs of a local path and the blob
	// location it should be uploaded to.
	files [][2]string
	dir   string
}

// localPath returns path if it is a local file. If path refers to blob
// storage, it returns a temporary local path and records the file (and
// any shapefile support files) for upload.
func (u *uploader) localPath(path string) (string, error) {
	if !IsBlob(path) {
		return path, nil
	}
	if u.dir == "" {
		dir, err := ioutil.TempDir("", "rastermask")
		if err != nil {
			return "", fmt.Errorf("maskutil: creating temporary output directory: %v", err)
		}
		u.dir = dir
	}
	files := expandShp(path)
	for _, f := range files {
		u.files = append(u.files, [2]string{filepath.Join(u.dir, filepath.Base(f)), f})
	}
	return filepath.Join(u.dir, filepath.Base(files[0])), nil
}

// upload copies the recorded files to blob storage.
func (u *uploader) upload(ctx context.Context) error {
	for _, files := range u.files {
		if err := uploadFile(ctx, files[0], files[1]); err != nil {
			return err
		}
	}
	if u.dir != "" {
		return os.RemoveAll(u.dir)
	}
	return nil
}

func uploadFile(ctx context.Context, local, dst string) error {
	r, err := os.Open(local)
	if os.IsNotExist(err) && filepath.Ext(local) == ".prj" {
		return nil // Shapefiles without a projection have no .prj file.
	} else if err != nil {
		return fmt.Errorf("maskutil: opening file '%s' for upload: %v", local, err)
	}
	defer r.Close()
	u, err := url.Parse(dst)
	if err != nil {
		return fmt.Errorf("maskutil: parsing url '%s' for upload: %v", dst, err)
	}
	bucket, err := OpenBucket(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		return fmt.Errorf("maskutil: opening bucket to upload file '%s': %v", dst, err)
	}
	w, err := bucket.NewWriter(ctx, strings.TrimPrefix(u.Path, "/"), &blob.WriterOptions{})
	if err != nil {
		return fmt.Errorf("maskutil: opening writer to upload file '%s': %v", dst, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("maskutil: uploading file '%s' to '%s': %v", local, dst, err)
	}
	return w.Close()
}
