package images

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	xdraw "golang.org/x/image/draw"
)

const (
	maxWidth        = 800
	jpegQuality     = 85
	downloadTimeout = 10 * time.Second

	// Some CDNs reject requests without a browser-looking user agent.
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Acquirer downloads remote article images, normalizes them (opaque RGB,
// bounded width, JPEG) and stores them in a content-addressed on-disk cache.
// A cache hit skips the network entirely, so repeated ingestion cycles over
// the same article set are free.
type Acquirer struct {
	httpClient *http.Client
	imagesDir  string
}

func NewAcquirer(httpClient *http.Client, imagesDir string) *Acquirer {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Acquirer{
		httpClient: httpClient,
		imagesDir:  imagesDir,
	}
}

// CacheKey derives the deterministic cache filename for a (title, URL) pair.
func CacheKey(articleTitle, imageURL string) string {
	titleHash := md5.Sum([]byte(articleTitle))
	urlHash := md5.Sum([]byte(imageURL))
	return fmt.Sprintf("%s_%s.jpg",
		hex.EncodeToString(titleHash[:])[:8],
		hex.EncodeToString(urlHash[:])[:8])
}

// Acquire fetches and caches the image at imageURL. It returns the relative
// cache reference and true on success, or "" and false when the caller should
// fall back to a placeholder. Failures are logged, never fatal.
func (a *Acquirer) Acquire(ctx context.Context, imageURL, articleTitle string) (string, bool) {
	if imageURL == "" {
		return "", false
	}

	filename := CacheKey(articleTitle, imageURL)
	fullPath := filepath.Join(a.imagesDir, filename)
	reference := "images/" + filename

	// Existence of the cache file is proof of prior acquisition.
	if _, err := os.Stat(fullPath); err == nil {
		return reference, true
	}

	data, err := a.download(ctx, imageURL)
	if err != nil {
		slog.Warn("Image download failed", "url", imageURL, "error", err)
		return "", false
	}

	processed, err := process(data)
	if err != nil {
		slog.Warn("Image processing failed", "url", imageURL, "error", err)
		return "", false
	}

	if err := writeAtomic(fullPath, processed); err != nil {
		slog.Warn("Image cache write failed", "path", fullPath, "error", err)
		return "", false
	}

	slog.Debug("Image cached", "url", imageURL, "file", filename, "bytes", len(processed))

	return reference, true
}

func (a *Acquirer) download(ctx context.Context, imageURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}

	return data, nil
}

// process decodes, flattens transparency onto white, downsamples to at most
// maxWidth and re-encodes as JPEG.
func process(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img = flatten(img)

	bounds := img.Bounds()
	if bounds.Dx() > maxWidth {
		newHeight := bounds.Dy() * maxWidth / bounds.Dx()
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newHeight))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	return buf.Bytes(), nil
}

// flatten composites images carrying an alpha or palette channel onto an
// opaque white background so the JPEG output is always 3-channel.
func flatten(img image.Image) image.Image {
	switch img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.RGBA, *image.RGBA64, *image.Paletted:
	default:
		return img
	}

	bounds := img.Bounds()
	background := image.NewRGBA(bounds)
	draw.Draw(background, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(background, bounds, img, bounds.Min, draw.Over)
	return background
}

// writeAtomic writes to a temporary sibling and renames, so an interrupted
// cycle never leaves a partial file at the cache key.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create images directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize cache file: %w", err)
	}

	return nil
}
