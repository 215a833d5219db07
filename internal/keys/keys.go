// Package keys loads firmware image keys files
package keys

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/blacktop/autodecrypt/internal/utils"
	"gopkg.in/yaml.v3"
)

// Entry is the key material for one image
type Entry struct {
	File   string `yaml:"file"`
	Output string `yaml:"output,omitempty"`
	IV     string `yaml:"iv,omitempty"`
	Key    string `yaml:"key,omitempty"`
	IVKey  string `yaml:"ivkey,omitempty"` // iv and key concatenated
}

// Keys is a keys file
//
//	images:
//	  - file: iBSS.n88ap.RELEASE.dfu
//	    iv: 0123...
//	    key: 4567...
//	  - file: kernelcache.release.d10.im4p
//	    ivkey: 0123...4567...
type Keys struct {
	Images []Entry `yaml:"images"`
}

// Load reads and validates the keys file at path.
// Relative image and output paths are resolved against the keys file's directory.
func Load(path string) (*Keys, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keys file %s: %v", path, err)
	}
	return Parse(dat, filepath.Dir(path))
}

// Parse parses and validates a keys file
func Parse(dat []byte, dir string) (*Keys, error) {
	var k Keys
	if err := yaml.Unmarshal(dat, &k); err != nil {
		return nil, fmt.Errorf("failed to parse keys file: %v", err)
	}
	if len(k.Images) == 0 {
		return nil, fmt.Errorf("keys file has no images")
	}
	for i := range k.Images {
		if err := k.Images[i].normalize(dir); err != nil {
			return nil, fmt.Errorf("keys file image %d: %v", i, err)
		}
	}
	return &k, nil
}

func (e *Entry) normalize(dir string) error {
	if len(e.File) == 0 {
		return fmt.Errorf("missing 'file'")
	}
	if !filepath.IsAbs(e.File) {
		e.File = filepath.Join(dir, e.File)
	}
	if len(e.Output) > 0 && !filepath.IsAbs(e.Output) {
		e.Output = filepath.Join(dir, e.Output)
	}

	switch {
	case len(e.IVKey) > 0 && (len(e.IV) > 0 || len(e.Key) > 0):
		return fmt.Errorf("%s: cannot specify both 'ivkey' AND 'iv'/'key'", e.File)
	case len(e.IVKey) > 0:
		iv, key, err := utils.SplitIVKey(e.IVKey)
		if err != nil {
			return fmt.Errorf("%s: %v", e.File, err)
		}
		e.IV, e.Key, e.IVKey = iv, key, ""
	default:
		e.IV = utils.NormalizeHex(e.IV)
		e.Key = utils.NormalizeHex(e.Key)
		if err := utils.ValidateHex("iv", e.IV); err != nil {
			return fmt.Errorf("%s: %v", e.File, err)
		}
		if err := utils.ValidateHex("key", e.Key); err != nil {
			return fmt.Errorf("%s: %v", e.File, err)
		}
	}
	return nil
}
