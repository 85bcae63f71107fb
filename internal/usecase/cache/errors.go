package cache

import "errors"

var (
	ErrItemNotFound   = errors.New("store: item not found")
	ErrNotInitialized = errors.New("store: not initialized")
	ErrFileNotFound   = errors.New("files: file not found")
	ErrBlobNotFound   = errors.New("store: blob not found")
	ErrNoBlobStore    = errors.New("store: binary storage not supported")
)
