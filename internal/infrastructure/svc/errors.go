package svc

import "errors"

// ErrStorageInitFailed reports a storage backend that could not be
// opened at startup.
var ErrStorageInitFailed = errors.New("storage initialization failed")
