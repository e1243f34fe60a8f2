package resources

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	// Registered image decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrDecode wraps failures to decode fetched bytes into an image
var ErrDecode = errors.New("decode image")

// Fetcher retrieves and decodes a single asset
type Fetcher interface {
	Fetch(ctx context.Context, id string) (image.Image, error)
}

// FetcherFunc adapts a function to the Fetcher interface
type FetcherFunc func(ctx context.Context, id string) (image.Image, error)

// Fetch calls f(ctx, id)
func (f FetcherFunc) Fetch(ctx context.Context, id string) (image.Image, error) {
	return f(ctx, id)
}

// NewFetcher picks a fetcher for root: http(s) URLs get an HTTPFetcher,
// anything else is treated as a directory.
func NewFetcher(root string) Fetcher {
	if strings.HasPrefix(root, "http://") || strings.HasPrefix(root, "https://") {
		return &HTTPFetcher{BaseURL: root}
	}
	if root == "" {
		root = "."
	}
	return &DirFetcher{FS: os.DirFS(root)}
}

// DirFetcher loads assets from a filesystem, identifiers are slash-separated paths
type DirFetcher struct {
	FS fs.FS
}

// Fetch opens and decodes id
func (f *DirFetcher) Fetch(ctx context.Context, id string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := f.FS.Open(path.Clean(strings.TrimPrefix(id, "/")))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return decode(file)
}

// HTTPFetcher loads assets relative to a base URL
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

// Fetch downloads and decodes id
func (f *HTTPFetcher) Fetch(ctx context.Context, id string) (image.Image, error) {
	u, err := url.JoinPath(f.BaseURL, id)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("GET %s: %w", u, fs.ErrNotExist)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("GET %s: unexpected status %s", u, resp.Status)
	}

	return decode(resp.Body)
}

func decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}
