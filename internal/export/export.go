// Package export renders a list of tasks as a shareable reminder card
// image.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/twiced-technology-gmbh/studyplanner/internal/clierr"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
)

// ErrExport wraps every rendering or encoding failure.
var ErrExport = errors.New("could not export image")

// Ratio is the card shape.
type Ratio string

// Card shapes.
const (
	Square    Ratio = "square"
	Portrait  Ratio = "portrait"
	Landscape Ratio = "landscape"
)

// Ratios lists the shapes in display order.
var Ratios = []Ratio{Square, Portrait, Landscape}

var ratioSizes = map[Ratio]image.Point{
	Square:    {X: 1080, Y: 1080}, //nolint:mnd // 1:1
	Portrait:  {X: 1080, Y: 1920}, //nolint:mnd // 9:16
	Landscape: {X: 1280, Y: 720},  //nolint:mnd // 16:9
}

// Size returns the pixel size of the card at scale 1.
func (r Ratio) Size() image.Point {
	return ratioSizes[r]
}

// Format is the image encoding.
type Format string

// Image encodings.
const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

// Formats lists the encodings.
var Formats = []Format{PNG, JPEG}

// DefaultQuality is the JPEG quality used when Options.Quality is zero.
const DefaultQuality = 95

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	return string(f)
}

// FileName is the default output file name for f.
func FileName(f Format) string {
	return "task-reminder." + f.Extension()
}

// ParseRatio validates a ratio name.
func ParseRatio(s string) (Ratio, error) {
	for _, r := range Ratios {
		if strings.EqualFold(string(r), s) {
			return r, nil
		}
	}
	return "", clierr.Newf(clierr.InvalidRatio, "invalid ratio %q", s).
		WithDetails(map[string]any{
			"ratio":   s,
			"allowed": Ratios,
		})
}

// ParseFormat validates a format name. "jpg" is accepted for JPEG.
func ParseFormat(s string) (Format, error) {
	if strings.EqualFold(s, "jpg") {
		return JPEG, nil
	}
	for _, f := range Formats {
		if strings.EqualFold(string(f), s) {
			return f, nil
		}
	}
	return "", clierr.Newf(clierr.InvalidFormat, "invalid image format %q", s).
		WithDetails(map[string]any{
			"format":  s,
			"allowed": Formats,
		})
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	return f, err == nil
}

// MaxScale is the largest pixel scale a card may be rendered at.
const MaxScale = 4

// ParseScale validates a user-supplied scale: greater than zero and at
// most MaxScale.
func ParseScale(s string) (float64, error) {
	scale, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, clierr.Newf(clierr.InvalidInput, "invalid scale %q", s)
	}
	if err := CheckScale(scale); err != nil {
		return 0, err
	}
	return scale, nil
}

// CheckScale rejects scales outside (0, MaxScale].
func CheckScale(scale float64) error {
	if math.IsNaN(scale) || scale <= 0 || scale > MaxScale {
		return clierr.Newf(clierr.InvalidInput, "scale must be above 0 and at most %d, got %g", MaxScale, scale).
			WithDetails(map[string]any{"max": MaxScale})
	}
	return nil
}

// Options controls the card. Zero values mean a square PNG at scale 1
// dated now.
type Options struct {
	Ratio   Ratio
	Format  Format
	Scale   float64
	Quality int
	Now     time.Time
	Title   string
	Footer  string
}

func (o Options) withDefaults() Options {
	if o.Ratio == "" {
		o.Ratio = Square
	}
	if o.Format == "" {
		o.Format = PNG
	}
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.Quality <= 0 {
		o.Quality = DefaultQuality
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.Title == "" {
		o.Title = "Upcoming Tasks"
	}
	if o.Footer == "" {
		o.Footer = "Generated by Student Task Planner"
	}
	return o
}

// Render draws tasks onto a card and writes the encoded image to w.
// Nothing is written unless encoding succeeded.
func Render(w io.Writer, tasks []task.Task, opts Options) error {
	opts = opts.withDefaults()
	if _, ok := ratioSizes[opts.Ratio]; !ok {
		return fmt.Errorf("%w: unknown ratio %q", ErrExport, opts.Ratio)
	}
	if math.IsNaN(opts.Scale) || opts.Scale > MaxScale {
		return fmt.Errorf("%w: scale %g exceeds %d", ErrExport, opts.Scale, MaxScale)
	}

	img, err := drawCard(tasks, opts)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExport, err)
	}

	var buf bytes.Buffer
	if err := encode(&buf, img, opts); err != nil {
		return fmt.Errorf("%w: %w", ErrExport, err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("%w: writing image: %w", ErrExport, err)
	}
	return nil
}

// RenderFile renders to path. The file is written atomically; on failure
// no file is left behind.
func RenderFile(path string, tasks []task.Task, opts Options) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:mnd // standard dir permission
		return fmt.Errorf("%w: creating %s: %w", ErrExport, dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExport, err)
	}
	tmpPath := tmp.Name()

	if err := Render(tmp, tasks, opts); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrExport, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrExport, err)
	}
	return nil
}

func encode(w io.Writer, img image.Image, opts Options) error {
	switch opts.Format {
	case PNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encoding png: %w", err)
		}
	case JPEG:
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: opts.Quality}); err != nil {
			return fmt.Errorf("encoding jpeg: %w", err)
		}
	default:
		return fmt.Errorf("unknown format %q", opts.Format)
	}
	return nil
}
