//go:build !linux

package mover

import "os"

func renameNoReplace(src, dst string) error {
	return os.Rename(src, dst)
}
