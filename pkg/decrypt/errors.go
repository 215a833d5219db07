package decrypt

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnrecognizedFormat is returned when the file is neither IMG3 nor IMG4
	ErrUnrecognizedFormat = errors.New("not an IMG3 or IMG4 file")
	// ErrUnsupportedFormat is returned when no decryptor handles the format
	ErrUnsupportedFormat = errors.New("format not supported")
	// ErrOutputIsInput is returned when the derived output path would overwrite the input
	ErrOutputIsInput = errors.New("output path is the same as the input path (supply an explicit output)")
	// ErrEmptyKbag is returned when the key bag tool printed nothing
	ErrEmptyKbag = errors.New("no kbag in tool output")
	// ErrInvalidKbag is returned when the key bag tool printed something that is not UTF-8 text
	ErrInvalidKbag = errors.New("kbag is not valid UTF-8")
)

// ToolNotFoundError is returned when an external decryptor is not in $PATH
type ToolNotFoundError struct {
	Tool string
	Err  error
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("can't decrypt file, is %s tool in $PATH? (%v)", e.Tool, e.Err)
}

func (e *ToolNotFoundError) Unwrap() error { return e.Err }

// SubprocessError is returned when an external tool exits with a non-zero status
type SubprocessError struct {
	Tool     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *SubprocessError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); len(stderr) > 0 {
		msg += ": " + stderr
	}
	return msg
}

func (e *SubprocessError) Unwrap() error { return e.Err }
