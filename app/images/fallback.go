package images

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	placeholderWidth   = 400
	placeholderHeight  = 300
	placeholderQuality = 90
)

type placeholder struct {
	file  string
	label string
	tint  color.RGBA
}

// Placeholder assets per category. Unknown categories share the default.
var placeholders = map[string]placeholder{
	"general":       {"general.jpg", "NIGERIAN NEWS", color.RGBA{R: 0x00, G: 0x96, B: 0x39, A: 0xff}},
	"sports":        {"sports.jpg", "NIGERIAN SPORTS", color.RGBA{R: 0xff, G: 0x6b, B: 0x35, A: 0xff}},
	"entertainment": {"entertainment.jpg", "NOLLYWOOD ENTERTAINMENT", color.RGBA{R: 0x8e, G: 0x44, B: 0xad, A: 0xff}},
}

var defaultPlaceholder = placeholder{"default.jpg", "BREAKING NEWS", color.RGBA{R: 0x2c, G: 0x3e, B: 0x50, A: 0xff}}

// FallbackResolver maps article categories to placeholder image references.
// Resolve is total: any input yields a usable reference.
type FallbackResolver struct {
	imagesDir string
}

func NewFallbackResolver(imagesDir string) *FallbackResolver {
	return &FallbackResolver{imagesDir: imagesDir}
}

// Resolve returns the placeholder reference for a category. Never fails.
func (r *FallbackResolver) Resolve(category string) string {
	p, ok := placeholders[strings.ToLower(category)]
	if !ok {
		p = defaultPlaceholder
	}
	return "images/fallbacks/" + p.file
}

// Bootstrap synthesizes any missing placeholder asset. It is idempotent and
// safe to call at the start of every ingestion cycle.
func (r *FallbackResolver) Bootstrap() error {
	fallbacksDir := filepath.Join(r.imagesDir, "fallbacks")
	if err := os.MkdirAll(fallbacksDir, 0755); err != nil {
		return fmt.Errorf("failed to create fallbacks directory: %w", err)
	}

	all := make([]placeholder, 0, len(placeholders)+1)
	for _, p := range placeholders {
		all = append(all, p)
	}
	all = append(all, defaultPlaceholder)

	for _, p := range all {
		path := filepath.Join(fallbacksDir, p.file)
		if _, err := os.Stat(path); err == nil {
			continue
		}

		if err := synthesize(path, p.label, p.tint); err != nil {
			return fmt.Errorf("failed to create placeholder %s: %w", p.file, err)
		}

		slog.Info("Created fallback image", "file", p.file)
	}

	return nil
}

// synthesize renders a labeled placeholder: white background, centered
// colored caption, JPEG output.
func synthesize(path, label string, tint color.RGBA) error {
	img := image.NewRGBA(image.Rect(0, 0, placeholderWidth, placeholderHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(tint),
		Face: face,
	}

	textWidth := drawer.MeasureString(label).Ceil()
	x := (placeholderWidth - textWidth) / 2
	if x < 0 {
		x = 0
	}
	y := (placeholderHeight + face.Height) / 2

	drawer.Dot = fixed.P(x, y)
	drawer.DrawString(label)

	out, err := os.Create(path + ".tmp")
	if err != nil {
		return err
	}

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: placeholderQuality}); err != nil {
		out.Close()
		os.Remove(path + ".tmp")
		return err
	}

	if err := out.Close(); err != nil {
		os.Remove(path + ".tmp")
		return err
	}

	return os.Rename(path+".tmp", path)
}
