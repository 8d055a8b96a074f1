package store

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DiskBlobStore writes blobs under a local directory
type DiskBlobStore struct {
	dir string
}

// NewDiskBlobStore creates a directory-backed blob store
func NewDiskBlobStore(dir string) *DiskBlobStore {
	return &DiskBlobStore{dir: dir}
}

// Put writes r to dir/key. Existing keys are never overwritten.
func (b *DiskBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := b.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create blob dir")
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return ErrConflict
		}
		return errors.Wrap(err, "create blob file")
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return errors.Wrap(err, "write blob")
	}
	if size > 0 && n != size {
		_ = os.Remove(path)
		return errors.Errorf("write blob: wrote %d of %d bytes", n, size)
	}

	return nil
}

// path keeps keys inside dir; slashes in keys become subdirectories
func (b *DiskBlobStore) path(key string) (string, error) {
	rel := strings.TrimPrefix(filepath.Clean("/"+filepath.FromSlash(key)), string(filepath.Separator))
	if rel == "" || rel == "." {
		return "", errors.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(b.dir, rel), nil
}

// SupabaseBlobStore uploads blobs to a Supabase Storage bucket
type SupabaseBlobStore struct {
	baseURL    string
	key        string
	bucket     string
	httpClient *http.Client
}

// NewSupabaseBlobStore creates a Storage-backed blob store
func NewSupabaseBlobStore(baseURL, serviceKey, bucket string, httpClient *http.Client) *SupabaseBlobStore {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &SupabaseBlobStore{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		key:        serviceKey,
		bucket:     bucket,
		httpClient: httpClient,
	}
}

// Put uploads r under key without upsert
func (b *SupabaseBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	u := b.baseURL + "/storage/v1/object/" + url.PathEscape(b.bucket) + "/" + strings.Join(segments, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, r)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	if size > 0 {
		req.ContentLength = size
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("apikey", b.key)
	req.Header.Set("Authorization", "Bearer "+b.key)
	req.Header.Set("Cache-Control", "max-age="+strconv.Itoa(3600))
	req.Header.Set("x-upsert", "false")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "upload blob")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode == http.StatusConflict {
		return ErrConflict
	}
	return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
}
