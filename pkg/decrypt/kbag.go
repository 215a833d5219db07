package decrypt

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"unicode/utf8"

	"github.com/apex/log"
	"github.com/blacktop/autodecrypt/pkg/fwimg"
)

// Keybag is the wrapped key bag of an IM4P
type Keybag struct {
	Type string `json:"type,omitempty"`
	Kbag string `json:"kbag"`
}

// Kbag returns the wrapped key bag of an IM4P by running `img4 -i <path> -b`.
// Unlike Decrypt it blocks until the tool exits.
func (d *Dispatcher) Kbag(ctx context.Context, path string) (*Keybag, error) {
	hdr, err := fwimg.DetectFile(path)
	if err != nil {
		return nil, err
	}
	switch hdr.Format {
	case fwimg.IMG4:
	case fwimg.Unknown:
		return nil, fmt.Errorf("%s: %w", path, ErrUnrecognizedFormat)
	default:
		return nil, fmt.Errorf("kbag extraction of %s: %w", hdr.Format, ErrUnsupportedFormat)
	}

	tool, err := d.lookPath(Img4Tool)
	if err != nil {
		return nil, err
	}

	inv := Invocation{Tool: Img4Tool, Args: []string{"-i", path, "-b"}}
	d.log.WithField("type", hdr.Type).Debug(inv.String())

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, tool, inv.Args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if isNotFound(err) {
			return nil, &ToolNotFoundError{Tool: Img4Tool, Err: err}
		}
		return nil, exitError(Img4Tool, err, stderr.String())
	}

	kbag, err := ParseKbag(out)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.log.WithFields(log.Fields{"file": path, "kbag": kbag}).Debug("found kbag")

	return &Keybag{Type: hdr.Type, Kbag: kbag}, nil
}

// ParseKbag returns the first whitespace delimited token of the key bag tool's output
func ParseKbag(out []byte) (string, error) {
	fields := bytes.Fields(out)
	if len(fields) == 0 {
		return "", ErrEmptyKbag
	}
	if !utf8.Valid(fields[0]) {
		return "", ErrInvalidKbag
	}
	return string(fields[0]), nil
}
