// Package decrypt hands IMG3/IMG4 firmware images to the external decryptors (img4 and xpwntool).
package decrypt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/blacktop/autodecrypt/pkg/fwimg"
	"golang.org/x/sys/execabs"
)

const (
	// Img4Tool decrypts IM4P payloads and dumps their key bags
	Img4Tool = "img4"
	// Xpwntool decrypts IMG3 images
	Xpwntool = "xpwntool"
)

// Config is the dispatcher configuration
type Config struct {
	// Img4Tool is the name or path of the img4 binary (default: img4)
	Img4Tool string
	// Xpwntool is the name or path of the xpwntool binary (default: xpwntool)
	Xpwntool string
	// Stdout receives the decryptor's standard output (default: discarded)
	Stdout io.Writer
	// Stderr receives the decryptor's standard error when the request does not wait (default: os.Stderr).
	// Anything but an *os.File is fed through a pipe that dies with this process.
	Stderr io.Writer
	Logger log.Interface
}

// Request is a single decryption
type Request struct {
	Input  string
	Output string // derived from Input when empty
	IV     string // hex
	Key    string // hex
	// Wait captures the decryptor's stderr into the *SubprocessError.
	// Only set it when the caller will call Process.Wait.
	Wait bool
}

// Invocation is the tool and argv a decryption will run
type Invocation struct {
	Tool string
	Args []string
}

func (i Invocation) String() string {
	return strings.TrimSpace(i.Tool + " " + strings.Join(i.Args, " "))
}

// Dispatcher detects the image format and starts the matching decryptor
type Dispatcher struct {
	tools  map[string]string
	stdout io.Writer
	stderr io.Writer
	log    log.Interface
}

// New creates a new Dispatcher
func New(conf *Config) *Dispatcher {
	if conf == nil {
		conf = &Config{}
	}
	d := &Dispatcher{
		tools: map[string]string{
			Img4Tool: Img4Tool,
			Xpwntool: Xpwntool,
		},
		stdout: conf.Stdout,
		stderr: conf.Stderr,
		log:    conf.Logger,
	}
	if len(conf.Img4Tool) > 0 {
		d.tools[Img4Tool] = conf.Img4Tool
	}
	if len(conf.Xpwntool) > 0 {
		d.tools[Xpwntool] = conf.Xpwntool
	}
	if d.stderr == nil {
		d.stderr = os.Stderr
	}
	if d.log == nil {
		d.log = log.Log
	}
	return d
}

// BuildInvocation returns the decryptor command line for an image of the given format.
//
// img4 takes the IV and key as one concatenated argument (IV first), xpwntool takes them as flags.
func BuildInvocation(format fwimg.Format, input, output, iv, key string) (*Invocation, error) {
	switch format {
	case fwimg.IMG4:
		return &Invocation{
			Tool: Img4Tool,
			Args: []string{"-i", input, output, iv + key},
		}, nil
	case fwimg.IMG3:
		return &Invocation{
			Tool: Xpwntool,
			Args: []string{input, output, "-iv", iv, "-k", key},
		}, nil
	default:
		return nil, fmt.Errorf("%s: %w", format, ErrUnsupportedFormat)
	}
}

// Decrypt detects the format of req.Input and starts the matching decryptor.
// It does NOT wait for the decryptor to finish; use the returned Process for that.
func (d *Dispatcher) Decrypt(ctx context.Context, req *Request) (*Process, error) {
	hdr, err := fwimg.DetectFile(req.Input)
	if err != nil {
		return nil, err
	}
	if !hdr.IsImage() {
		return nil, fmt.Errorf("%s: %w", req.Input, ErrUnrecognizedFormat)
	}

	output := req.Output
	if len(output) == 0 {
		output = fwimg.OutputPath(req.Input)
	}
	if output == req.Input {
		return nil, fmt.Errorf("%s: %w", req.Input, ErrOutputIsInput)
	}

	inv, err := BuildInvocation(hdr.Format, req.Input, output, req.IV, req.Key)
	if err != nil {
		return nil, err
	}

	path, err := d.lookPath(inv.Tool)
	if err != nil {
		return nil, err
	}

	d.log.WithFields(log.Fields{
		"format": hdr.Format,
		"type":   hdr.Type,
	}).Infof("decrypting %s to %s", req.Input, output)
	d.log.Debug(inv.String())

	stderr := d.stderr
	if req.Wait {
		stderr = nil
	}

	return start(ctx, path, inv, output, d.stdout, stderr)
}

func (d *Dispatcher) lookPath(tool string) (string, error) {
	name, ok := d.tools[tool]
	if !ok {
		return "", fmt.Errorf("%s: %w", tool, ErrUnsupportedFormat)
	}
	path, err := execabs.LookPath(name)
	if err != nil {
		return "", &ToolNotFoundError{Tool: tool, Err: err}
	}
	return path, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, execabs.ErrNotFound) || errors.Is(err, os.ErrNotExist)
}
