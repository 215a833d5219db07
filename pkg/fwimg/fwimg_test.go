package fwimg

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// img3Header builds a minimal IMG3 header with the ident stored little-endian
func img3Header(ident string) []byte {
	var b bytes.Buffer
	b.WriteString("3gmI")
	b.Write(make([]byte, 12)) // fullSize, sizeNoPack, sigCheckArea
	b.Write(reverseBytes([]byte(ident)))
	b.Write(make([]byte, 32))
	return b.Bytes()
}

// im4pHeader builds the start of a DER encoded IM4P
func im4pHeader(typ string) []byte {
	var b bytes.Buffer
	b.Write([]byte{0x30, 0x83, 0x00, 0x10, 0x00, 0x16, 0x04})
	b.WriteString("IM4P")
	b.Write([]byte{0x16, 0x04})
	b.WriteString(typ)
	b.Write([]byte{0x16, 0x03})
	b.WriteString("foo")
	return b.Bytes()
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		wantFormat Format
		wantType   string
		wantErr    error
	}{
		{
			name:       "img3 iBSS",
			data:       img3Header("ibss"),
			wantFormat: IMG3,
			wantType:   "ibss",
		},
		{
			name:       "img3 LLB",
			data:       img3Header("illb"),
			wantFormat: IMG3,
			wantType:   "illb",
		},
		{
			name:       "im4p kernelcache",
			data:       im4pHeader("krnl"),
			wantFormat: IMG4,
			wantType:   "krnl",
		},
		{
			name:       "mach-o",
			data:       []byte{0xcf, 0xfa, 0xed, 0xfe, 0x0c, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x10},
			wantFormat: Unknown,
		},
		{
			name:       "empty",
			data:       nil,
			wantFormat: Unknown,
		},
		{
			name:       "shorter than magic",
			data:       []byte("3gm"),
			wantFormat: Unknown,
		},
		{
			name:    "img3 magic without tag",
			data:    []byte("3gmI\x00\x00\x00\x00"),
			wantErr: ErrTruncatedHeader,
		},
		{
			name:    "im4p magic without tag",
			data:    []byte("\x30\x83\x00\x10\x00\x16\x04IM4P\x16\x04kr"),
			wantErr: ErrTruncatedHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hdr, err := Detect(bytes.NewReader(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Detect() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Detect() unexpected error: %v", err)
			}
			if hdr.Format != tt.wantFormat {
				t.Errorf("Format = %v, want %v", hdr.Format, tt.wantFormat)
			}
			if hdr.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", hdr.Type, tt.wantType)
			}
			if hdr.IsImage() != (tt.wantFormat != Unknown) {
				t.Errorf("IsImage() = %v for format %v", hdr.IsImage(), hdr.Format)
			}
		})
	}
}

func TestDetectTagOffsets(t *testing.T) {
	// img3: type is bytes [16:20) reversed
	data := make([]byte, 32)
	copy(data, "3gmI")
	copy(data[16:20], "abcd")
	hdr, err := Detect(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if hdr.Format != IMG3 || hdr.Type != "dcba" {
		t.Errorf("img3 header = %+v, want img3/dcba", hdr)
	}

	// img4: type is bytes [13:17) as-is
	data = make([]byte, 32)
	copy(data[7:11], "IM4P")
	copy(data[13:17], "abcd")
	hdr, err = Detect(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if hdr.Format != IMG4 || hdr.Type != "abcd" {
		t.Errorf("img4 header = %+v, want img4/abcd", hdr)
	}
}

func TestTagTransforms(t *testing.T) {
	for _, l := range layouts {
		got := string(l.transform([]byte("krnl")))
		switch l.format {
		case IMG3:
			if got != "lnrk" {
				t.Errorf("%s transform = %q, want reversed", l.format, got)
			}
		case IMG4:
			if got != "krnl" {
				t.Errorf("%s transform = %q, want unchanged", l.format, got)
			}
		default:
			t.Errorf("unexpected layout format %v", l.format)
		}
	}
}

func TestDetectFile(t *testing.T) {
	img3 := writeTemp(t, "iBSS.n88ap.RELEASE.dfu", img3Header("ibss"))
	hdr, err := DetectFile(img3)
	if err != nil {
		t.Fatalf("DetectFile() error = %v", err)
	}
	if hdr.Format != IMG3 || hdr.Type != "ibss" {
		t.Errorf("DetectFile() = %+v", hdr)
	}

	if _, err := DetectFile(filepath.Join(t.TempDir(), "missing.im4p")); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("DetectFile(missing) error = %v, want ErrFileNotFound", err)
	}

	if _, err := DetectFile(t.TempDir()); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("DetectFile(dir) error = %v, want ErrFileNotFound", err)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"firmware.img3", "firmware.bin"},
		{"firmware.im4p", "firmware.bin"},
		{"iBSS.n71.RELEASE.dfu", "iBSS.n71.RELEASE.bin"},
		{"kernelcache.release.iphone10b.im4p", "kernelcache.release.iphone10b.bin"},
		{"dfu/iBEC.img3", "bin/iBEC.img3"}, // first rule wins
		{"a.im4p.im4p", "a.bin.bin"},
		{"sep-firmware.bin", "sep-firmware.bin"},
		{"kernelcache", "kernelcache"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := OutputPath(tt.in)
			if got != tt.want {
				t.Errorf("OutputPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := OutputPath(tt.in); again != got {
				t.Errorf("OutputPath(%q) not deterministic: %q != %q", tt.in, again, got)
			}
		})
	}
}

func TestFormatJSON(t *testing.T) {
	dat, err := Header{Format: IMG4, Type: "ibot"}.Format.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(dat) != `"img4"` {
		t.Errorf("MarshalJSON() = %s", dat)
	}
}
