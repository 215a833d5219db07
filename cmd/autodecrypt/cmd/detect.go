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
	"encoding/json"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/blacktop/autodecrypt/pkg/fwimg"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	colorFile    = color.New(color.Bold).SprintFunc()
	colorFormat  = color.New(color.FgHiBlue).SprintFunc()
	colorType    = color.New(color.FgHiMagenta, color.Bold).SprintFunc()
	colorUnknown = color.New(color.Faint).SprintFunc()
)

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	viper.BindPFlag("detect.json", detectCmd.Flags().Lookup("json"))
}

// detectCmd represents the detect command
var detectCmd = &cobra.Command{
	Use:     "detect <FILE>...",
	Aliases: []string{"d", "info"},
	Short:   "Detect IMG3/IMG4 format and image type",
	Example: heredoc.Doc(`
		# Print format and type of a firmware image
		❯ autodecrypt detect iBoot.d10.RELEASE.im4p
		# Print as JSON
		❯ autodecrypt detect --json *.img3`),
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		type image struct {
			Name string `json:"name"`
			*fwimg.Header
		}

		var images []image
		for _, path := range args {
			hdr, err := fwimg.DetectFile(path)
			if err != nil {
				return err
			}
			images = append(images, image{Name: path, Header: hdr})
		}

		if viper.GetBool("detect.json") {
			dat, err := json.Marshal(images)
			if err != nil {
				return fmt.Errorf("failed to marshal detect results: %v", err)
			}
			fmt.Println(string(dat))
			return nil
		}

		for _, img := range images {
			if !img.IsImage() {
				fmt.Printf("%s: %s\n", colorFile(img.Name), colorUnknown("not an IMG3 or IMG4 file"))
				continue
			}
			fmt.Printf("%s: %s %s\n", colorFile(img.Name), colorFormat(img.Format), colorType(img.Type))
		}

		return nil
	},
}
