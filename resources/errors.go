package resources

import (
	"errors"
	"fmt"
)

var (
	// ErrCacheClosed is returned by operations on a closed cache
	ErrCacheClosed = errors.New("resource cache closed")
	// ErrNotLoaded is returned by Reload for assets that are not in the Loaded state
	ErrNotLoaded = errors.New("asset not loaded")
)

// AssetLoadError reports an asset that could not be fetched or decoded
type AssetLoadError struct {
	ID       string
	Attempts int
	Err      error
}

func (e *AssetLoadError) Error() string {
	return fmt.Sprintf("load asset %q failed after %d attempt(s): %v", e.ID, e.Attempts, e.Err)
}

func (e *AssetLoadError) Unwrap() error {
	return e.Err
}
