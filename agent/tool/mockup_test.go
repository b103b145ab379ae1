package tool

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	statex "github.com/meetkeeps15/brandbox-agent/agent/state"
)

func TestMockupSubject(t *testing.T) {
	t.Parallel()

	cases := []struct {
		sku  string
		want string
	}{
		{"abc-123", "MOCKUP_ABC-123"},
		{"SKU 42/7", "MOCKUP_SKU_42_7"},
	}
	for _, tc := range cases {
		if got := mockupSubject(tc.sku); got != tc.want {
			t.Fatalf("mockupSubject(%q) = %s, want %s", tc.sku, got, tc.want)
		}
	}
}

func TestCenterCropSquare(t *testing.T) {
	t.Parallel()

	src := image.NewRGBA(image.Rect(0, 0, 100, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 100; x++ {
			src.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	cropped, err := centerCropSquare(buf.Bytes())
	if err != nil {
		t.Fatalf("centerCropSquare: %v", err)
	}
	out, _, err := image.Decode(bytes.NewReader(cropped))
	if err != nil {
		t.Fatalf("decode cropped: %v", err)
	}
	if w, h := out.Bounds().Dx(), out.Bounds().Dy(); w != 60 || h != 60 {
		t.Fatalf("cropped to %dx%d, want 60x60", w, h)
	}
}

func TestCenterCropSquareRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := centerCropSquare([]byte("not an image")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestMockupProgression(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("img"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
		return path
	}

	single := []statex.ImageEntry{{ImagePath: write("v1.png")}}
	sources, err := mockupProgression(single)
	if err != nil {
		t.Fatalf("mockupProgression: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("first edit got %d sources, want 1", len(sources))
	}

	pair := append(single, statex.ImageEntry{ImagePath: write("v2.png"), IsEdit: true, EditNumber: 1})
	sources, err = mockupProgression(pair)
	if err != nil {
		t.Fatalf("mockupProgression: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("repeat edit got %d sources, want 2", len(sources))
	}
	for _, s := range sources {
		if !strings.HasPrefix(s, "data:image/png;base64,") {
			t.Fatalf("source is not a data uri: %s", s[:30])
		}
	}
}
