package vault

import "errors"

// ErrSnapshotNotFound is returned by GetSnapshot when nothing was stored for the instance.
var ErrSnapshotNotFound = errors.New("snapshot not found")
