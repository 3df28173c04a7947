// Package vfs mounts a physical directory as a virtual drive that serves
// selected text files to selected processes as UTF-8, whatever encoding they
// are stored in, and writes edits back in the original encoding.
package vfs

import "errors"

// ErrUnsupportedPlatform is returned by Mount where no user-mode filesystem
// driver is available.
var ErrUnsupportedPlatform = errors.New("virtual drive is only supported on windows")
