package mover

import (
	"context"
	"errors"

	"golang.org/x/sys/unix"
)

// Side names the end of a move an error came from. A missing source means the
// file vanished; a missing destination component means the path is invalid.
type Side int

const (
	SideSource Side = iota
	SideDestination
)

// Classify maps a filesystem error onto a Kind.
func Classify(err error, side Side) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	case isErrno(err, unix.EBUSY, unix.ETXTBSY, unix.EAGAIN, unix.EWOULDBLOCK):
		return KindLocked
	case isErrno(err, unix.EACCES, unix.EPERM, unix.EROFS):
		return KindPermissionDenied
	case isErrno(err, unix.ENOSPC, unix.EDQUOT, unix.EFBIG):
		return KindInsufficientSpace
	case isErrno(err, unix.EEXIST, unix.ENOTEMPTY):
		return KindDestinationAppeared
	case isErrno(err, unix.ENOTDIR, unix.ENAMETOOLONG, unix.ELOOP):
		return KindPathInvalid
	case isErrno(err, unix.ENOENT):
		if side == SideSource {
			return KindVanished
		}
		return KindPathInvalid
	default:
		return KindIOError
	}
}

func isErrno(err error, targets ...unix.Errno) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isCrossDevice(err error) bool {
	return errors.Is(err, unix.EXDEV)
}
