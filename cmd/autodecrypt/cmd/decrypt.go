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
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	"github.com/blacktop/autodecrypt/internal/utils"
	"github.com/blacktop/autodecrypt/pkg/decrypt"
	"github.com/caarlos0/ctrlc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	icmd "github.com/blacktop/autodecrypt/internal/commands/decrypt"
)

func init() {
	rootCmd.AddCommand(decryptCmd)

	decryptCmd.Flags().String("iv-key", "", "AES iv+key")
	decryptCmd.Flags().StringP("iv", "i", "", "AES iv")
	decryptCmd.Flags().StringP("key", "k", "", "AES key")
	decryptCmd.Flags().StringP("output", "o", "", "Output file (default: input with im4p/dfu/img3 replaced by bin)")
	decryptCmd.Flags().BoolP("wait", "w", false, "Wait for the decryptor to finish and check its exit status")
	viper.BindPFlag("decrypt.wait", decryptCmd.Flags().Lookup("wait"))
}

// decryptCmd represents the decrypt command
var decryptCmd = &cobra.Command{
	Use:     "decrypt <IMG>",
	Aliases: []string{"dec"},
	Short:   "Decrypt IMG3/IMG4 images with xpwntool/img4",
	Example: heredoc.Doc(`
		# Decrypt an IMG4 payload (runs 'img4 -i <in> <out> <iv+key>' in the background)
		❯ autodecrypt decrypt iBoot.d10.RELEASE.im4p --iv 7e9d... --key 3b8f...
		# Decrypt an IMG3 and wait for xpwntool to finish
		❯ autodecrypt decrypt iBSS.n88ap.RELEASE.dfu --iv-key 7e9d...3b8f... --wait
		# Decrypt to an explicit output file
		❯ autodecrypt decrypt kernelcache.release.n88 --iv-key 7e9d...3b8f... -o kernelcache.dec`),
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {

		// flags
		outputFile, _ := cmd.Flags().GetString("output")
		ivkeyStr, _ := cmd.Flags().GetString("iv-key")
		ivStr, _ := cmd.Flags().GetString("iv")
		keyStr, _ := cmd.Flags().GetString("key")
		// validate flags
		if len(ivkeyStr) != 0 && (len(ivStr) != 0 || len(keyStr) != 0) {
			return fmt.Errorf("cannot specify both --iv-key AND --iv/--key")
		} else if len(ivkeyStr) == 0 && (len(ivStr) == 0 || len(keyStr) == 0) {
			return fmt.Errorf("must specify either --iv-key OR --iv/--key")
		}

		var iv, key string
		if len(ivkeyStr) != 0 {
			var err error
			iv, key, err = utils.SplitIVKey(ivkeyStr)
			if err != nil {
				return fmt.Errorf("failed to parse --iv-key: %v", err)
			}
		} else {
			iv = utils.NormalizeHex(ivStr)
			key = utils.NormalizeHex(keyStr)
			if err := utils.ValidateHex("--iv", iv); err != nil {
				return err
			}
			if err := utils.ValidateHex("--key", key); err != nil {
				return err
			}
		}

		d, conf, err := newDispatcher()
		if err != nil {
			return err
		}

		req := &decrypt.Request{
			Input:  args[0],
			Output: outputFile,
			IV:     iv,
			Key:    key,
		}

		if !conf.Decrypt.Wait {
			return icmd.Image(context.Background(), d, req, false)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel() // kills the decryptor on ctrl-c

		if err := ctrlc.Default.Run(ctx, func() error {
			return icmd.Image(ctx, d, req, true)
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
