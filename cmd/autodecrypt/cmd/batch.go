/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"errors"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	"github.com/blacktop/autodecrypt/internal/keys"
	"github.com/caarlos0/ctrlc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	icmd "github.com/blacktop/autodecrypt/internal/commands/decrypt"
)

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().IntP("jobs", "j", 0, "Number of decryptors to run at once (default: number of CPUs)")
	viper.BindPFlag("batch.jobs", batchCmd.Flags().Lookup("jobs"))
}

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <KEYS.yml>",
	Short: "Decrypt every image listed in a keys file",
	Example: heredoc.Doc(`
		# keys.yml
		images:
		  - file: iBSS.n88ap.RELEASE.dfu
		    iv: 7e9d...
		    key: 3b8f...
		  - file: kernelcache.release.d10.im4p
		    ivkey: 7e9d...3b8f...
		    output: kernelcache.dec

		❯ autodecrypt batch keys.yml --jobs 4`),
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {

		k, err := keys.Load(args[0])
		if err != nil {
			return err
		}

		d, conf, err := newDispatcher()
		if err != nil {
			return err
		}

		log.WithField("jobs", conf.Batch.Jobs).Infof("Decrypting %d images", len(k.Images))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := ctrlc.Default.Run(ctx, func() error {
			return icmd.Batch(ctx, d, k, conf.Batch.Jobs)
		}); err != nil {
			if errors.As(err, &ctrlc.ErrorCtrlC{}) {
				log.Warn("Exiting...")
				return nil
			}
			return err
		}

		return nil
	},
}
