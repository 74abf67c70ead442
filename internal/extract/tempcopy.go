package extract

import (
	"fmt"
	"io"
	"os"
)

// tempCopy duplicates a file into the temp directory and returns the copy's
// path plus a cleanup func. The embedded store may be held open and locked
// by a live Cursor process, so reads never touch the original: they query a
// private, disposable copy instead. Callers must invoke cleanup on every
// exit path.
func tempCopy(path string) (string, func(), error) {
	src, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "crucible-*.vscdb")
	if err != nil {
		return "", nil, fmt.Errorf("create temp copy: %w", err)
	}

	cleanup := func() { os.Remove(dst.Name()) }

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		cleanup()
		return "", nil, fmt.Errorf("copy %s: %w", path, err)
	}
	if err := dst.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp copy: %w", err)
	}

	return dst.Name(), cleanup, nil
}
