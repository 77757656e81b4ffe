package status

import "fmt"

// CorruptionError indicates the sprint-status document exists but cannot be
// parsed. It is fatal: the loop must stop rather than continue against a
// store that may have silently lost data. Loading never substitutes an empty
// record for a corrupt one, because a later write would then erase every
// other story's state.
type CorruptionError struct {
	// Path is the document that failed to parse.
	Path string
	// Err is the underlying parse error.
	Err error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("sprint status corrupt at %s: %v", e.Path, e.Err)
}

func (e *CorruptionError) Unwrap() error {
	return e.Err
}

// VerificationError indicates an update was written but the read-back did not
// show the expected value. It catches local write failures (storage silently
// dropping the write, or the file being replaced underneath us); it is a
// retryable phase failure, not a fatal condition.
type VerificationError struct {
	Key  string
	Want Status
	Got  Status
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("status update for %s did not take effect: wrote %q, read back %q", e.Key, e.Want, e.Got)
}
