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
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(kbagCmd)
	kbagCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	kbagCmd.MarkZshCompPositionalArgumentFile(1)
	viper.BindPFlag("kbag.json", kbagCmd.Flags().Lookup("json"))
}

// kbagCmd represents the kbag command
var kbagCmd = &cobra.Command{
	Use:     "kbag <IM4P>",
	Aliases: []string{"k"},
	Short:   "Extract kbag from im4p (via 'img4 -b')",
	Example: heredoc.Doc(`
		# Print the wrapped key bag of an IM4P
		❯ autodecrypt kbag iBoot.d10.RELEASE.im4p
		# Print as JSON
		❯ autodecrypt kbag --json iBoot.d10.RELEASE.im4p`),
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {

		d, _, err := newDispatcher()
		if err != nil {
			return err
		}

		kb, err := d.Kbag(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get kbag: %w", err)
		}

		if viper.GetBool("kbag.json") {
			dat, err := json.Marshal(&struct {
				Name string `json:"name,omitempty"`
				Type string `json:"type,omitempty"`
				Kbag string `json:"kbag,omitempty"`
			}{
				Name: filepath.Base(args[0]),
				Type: kb.Type,
				Kbag: kb.Kbag,
			})
			if err != nil {
				return fmt.Errorf("failed to marshal kbag: %v", err)
			}
			fmt.Println(string(dat))
			return nil
		}

		fmt.Println(kb.Kbag)

		return nil
	},
}
