package decrypt

import (
	"context"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/blacktop/autodecrypt/internal/keys"
	"github.com/blacktop/autodecrypt/pkg/decrypt"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Image decrypts one image. When wait is false the decryptor is left running in the background.
// It is safe to call from several goroutines.
func Image(ctx context.Context, d *decrypt.Dispatcher, req *decrypt.Request, wait bool) error {
	req.Wait = wait

	p, err := d.Decrypt(ctx, req)
	if err != nil {
		return errors.Wrapf(err, "unable to decrypt %s", req.Input)
	}

	if !wait {
		log.WithFields(log.Fields{
			"file": req.Input,
			"pid":  p.Pid(),
		}).Debugf("%s running in background", p.Tool)
		return nil
	}

	if err := p.Wait(); err != nil {
		return errors.Wrapf(err, "failed to decrypt %s", req.Input)
	}

	fi, err := os.Stat(p.Output)
	if err != nil {
		return fmt.Errorf("%s finished but output %s is missing: %v", p.Tool, p.Output, err)
	}
	log.WithFields(log.Fields{
		"file": req.Input,
		"size": humanize.Bytes(uint64(fi.Size())),
	}).Infof("Created %s", p.Output)

	return nil
}

// Batch decrypts every image in a keys file, running at most jobs decryptors at once
func Batch(ctx context.Context, d *decrypt.Dispatcher, k *keys.Keys, jobs int) error {
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}

	for _, img := range k.Images {
		img := img
		g.Go(func() error {
			log.WithField("file", img.File).Debug("queued")
			return Image(ctx, d, &decrypt.Request{
				Input:  img.File,
				Output: img.Output,
				IV:     img.IV,
				Key:    img.Key,
			}, true)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("batch decrypt failed: %w", err)
	}

	return nil
}
