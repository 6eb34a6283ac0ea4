package mover

// Status is the terminal state of one move.
type Status int

const (
	StatusMoved Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusMoved:
		return "moved"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Kind classifies why a move did not complete.
type Kind string

const (
	KindNone                Kind = ""
	KindVanished            Kind = "vanished"
	KindLocked              Kind = "locked"
	KindPermissionDenied    Kind = "permission_denied"
	KindInsufficientSpace   Kind = "insufficient_space"
	KindPathInvalid         Kind = "path_invalid"
	KindDestinationAppeared Kind = "destination_appeared"
	KindCancelled           Kind = "cancelled"
	KindIOError             Kind = "io_error"
)

// Outcome reports the result of Move. Path is the final destination for a
// moved file. Reason is a short human explanation for skips and failures.
type Outcome struct {
	Status   Status
	Path     string
	Kind     Kind
	Reason   string
	Attempts int
	Err      error
}

// Moved reports a completed relocation to path.
func Moved(path string) Outcome {
	return Outcome{Status: StatusMoved, Path: path}
}

// Skipped reports a file that was deliberately left in place.
func Skipped(kind Kind, reason string) Outcome {
	return Outcome{Status: StatusSkipped, Kind: kind, Reason: reason}
}

// Failed reports a file that could not be relocated.
func Failed(kind Kind, reason string, err error) Outcome {
	return Outcome{Status: StatusFailed, Kind: kind, Reason: reason, Err: err}
}

func describe(kind Kind) string {
	switch kind {
	case KindVanished:
		return "source disappeared before it could be moved"
	case KindLocked:
		return "file is locked by another process"
	case KindPermissionDenied:
		return "permission denied"
	case KindInsufficientSpace:
		return "insufficient space at destination"
	case KindPathInvalid:
		return "destination path is invalid"
	case KindDestinationAppeared:
		return "destination name was taken before the move"
	case KindCancelled:
		return "cancelled"
	default:
		return "i/o error"
	}
}
