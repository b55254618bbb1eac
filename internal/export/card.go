package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/twiced-technology-gmbh/studyplanner/internal/date"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
	"github.com/twiced-technology-gmbh/studyplanner/internal/view"
)

// Palette (slate card, sky title).
var (
	colorBackground = rgb(0x1e, 0x29, 0x3b)
	colorRow        = rgb(0x28, 0x35, 0x48)
	colorTitle      = rgb(0x7d, 0xd3, 0xfc)
	colorSubtitle   = rgb(0xcb, 0xd5, 0xe1)
	colorDate       = rgb(0x94, 0xa3, 0xb8)
	colorName       = rgb(0xf1, 0xf5, 0xf9)
	colorFooter     = rgb(0x64, 0x74, 0x8b)
	colorPillText   = rgb(0xff, 0xff, 0xff)
)

var priorityColors = map[task.Priority]color.RGBA{
	task.High:   rgb(0xef, 0x44, 0x44),
	task.Medium: rgb(0xea, 0xb3, 0x08),
	task.Low:    rgb(0x22, 0xc5, 0x5e),
}

// CategoryColors are the badge colours per category.
var CategoryColors = map[task.Category]color.RGBA{
	task.Quiz:        rgb(0xa8, 0x55, 0xf7),
	task.Project:     rgb(0x3b, 0x82, 0xf6),
	task.Exam:        rgb(0xef, 0x44, 0x44),
	task.Requirement: rgb(0xea, 0xb3, 0x08),
	task.Homework:    rgb(0x22, 0xc5, 0x5e),
	task.Reading:     rgb(0x63, 0x66, 0xf1),
}

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// Layout metrics at a 1080px short side.
const (
	basePadding   = 64
	baseTitle     = 56
	baseSubtitle  = 30
	baseDate      = 24
	baseName      = 32
	baseDeadline  = 26
	basePill      = 22
	baseFooter    = 22
	baseHeaderGap = 48
	baseRowHeight = 124
	baseRowGap    = 20
	baseRowPad    = 24
	baseRadius    = 16
	baseBadge     = 30
)

var parsedFonts = sync.OnceValues(func() (map[bool]*opentype.Font, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing bold font: %w", err)
	}
	return map[bool]*opentype.Font{false: regular, true: bold}, nil
})

// faces caches font faces for one render.
type faces struct {
	unit  float64
	fonts map[bool]*opentype.Font
	open  map[string]font.Face
}

func (f *faces) get(size float64, bold bool) (font.Face, error) {
	key := fmt.Sprintf("%v/%v", size, bold)
	if face, ok := f.open[key]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(f.fonts[bold], &opentype.FaceOptions{
		Size:    size * f.unit,
		DPI:     72, //nolint:mnd // points equal pixels
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("creating font face: %w", err)
	}
	f.open[key] = face
	return face, nil
}

func (f *faces) close() {
	for _, face := range f.open {
		_ = face.Close()
	}
}

// card draws onto one image.
type card struct {
	img   *image.RGBA
	unit  float64
	faces *faces
}

func (c *card) px(v float64) int {
	return int(math.Round(v * c.unit))
}

func drawCard(tasks []task.Task, opts Options) (*image.RGBA, error) {
	size := opts.Ratio.Size()
	w := int(math.Round(float64(size.X) * opts.Scale))
	h := int(math.Round(float64(size.Y) * opts.Scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", w, h)
	}

	fonts, err := parsedFonts()
	if err != nil {
		return nil, err
	}
	unit := float64(min(size.X, size.Y)) / 1080 * opts.Scale //nolint:mnd // metrics are given for 1080px
	ff := &faces{unit: unit, fonts: fonts, open: make(map[string]font.Face)}
	defer ff.close()

	c := &card{
		img:   image.NewRGBA(image.Rect(0, 0, w, h)),
		unit:  unit,
		faces: ff,
	}
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)

	y, err := c.header(tasks, opts)
	if err != nil {
		return nil, err
	}
	footerTop, err := c.footer(opts.Footer)
	if err != nil {
		return nil, err
	}
	if err := c.rows(tasks, y, footerTop); err != nil {
		return nil, err
	}
	return c.img, nil
}

// header draws the title, subjects and date and returns the y where rows
// start.
func (c *card) header(tasks []task.Task, opts Options) (int, error) {
	pad := c.px(basePadding)
	right := c.img.Bounds().Dx() - pad

	title, err := c.faces.get(baseTitle, true)
	if err != nil {
		return 0, err
	}
	sub, err := c.faces.get(baseSubtitle, false)
	if err != nil {
		return 0, err
	}
	small, err := c.faces.get(baseDate, false)
	if err != nil {
		return 0, err
	}

	weekday := date.Weekday(opts.Now)
	monthDay := date.MonthDay(opts.Now)
	dateWidth := max(measure(small, weekday), measure(small, monthDay))
	textRight := right - dateWidth - c.px(baseRowPad)

	y := pad
	y = c.text(title, colorTitle, pad, y, fit(title, opts.Title, textRight-pad))
	c.text(small, colorDate, right-measure(small, weekday), pad, weekday)
	c.text(small, colorDate, right-measure(small, monthDay), pad+lineHeight(small), monthDay)

	subjects := strings.Join(view.Subjects(tasks), ", ")
	if subjects != "" {
		y = c.text(sub, colorSubtitle, pad, y, fit(sub, subjects, textRight-pad))
	}
	return y + c.px(baseHeaderGap), nil
}

// footer draws the footer line and returns its top edge.
func (c *card) footer(text string) (int, error) {
	face, err := c.faces.get(baseFooter, false)
	if err != nil {
		return 0, err
	}
	b := c.img.Bounds()
	top := b.Dy() - c.px(basePadding) - lineHeight(face)
	c.text(face, colorFooter, (b.Dx()-measure(face, text))/2, top, text) //nolint:mnd // centred
	return top, nil
}

// rows draws one row per task between top and bottom. Tasks that do not
// fit are summarised in a final "+N more" line.
func (c *card) rows(tasks []task.Task, top, bottom int) error {
	pad := c.px(basePadding)
	rowH := c.px(baseRowHeight)
	gap := c.px(baseRowGap)
	bottom -= gap

	fitCount := 0
	if avail := bottom - top; avail >= rowH {
		fitCount = (avail + gap) / (rowH + gap)
	}
	shown := tasks
	more := 0
	if len(tasks) > fitCount {
		if fitCount > 0 {
			fitCount-- // room for the "+N more" line
		}
		shown = tasks[:fitCount]
		more = len(tasks) - fitCount
	}

	y := top
	for _, t := range shown {
		if err := c.row(t, image.Rect(pad, y, c.img.Bounds().Dx()-pad, y+rowH)); err != nil {
			return err
		}
		y += rowH + gap
	}
	if more > 0 {
		face, err := c.faces.get(baseDeadline, false)
		if err != nil {
			return err
		}
		c.text(face, colorDate, pad, y, fmt.Sprintf("+%d more", more))
	}
	return nil
}

func (c *card) row(t task.Task, r image.Rectangle) error {
	fillRoundRect(c.img, r, float32(c.px(baseRadius)), colorRow)

	rowPad := c.px(baseRowPad)
	badgeR := c.px(baseBadge)
	cy := r.Min.Y + r.Dy()/2 //nolint:mnd // vertical centre

	// Category badge: a coloured disc with the category initial.
	badge := image.Rect(r.Min.X+rowPad, cy-badgeR, r.Min.X+rowPad+2*badgeR, cy+badgeR)
	fillCircle(c.img, badge, CategoryColors[t.Category])
	initial, err := c.faces.get(baseDeadline, true)
	if err != nil {
		return err
	}
	letter := "?"
	if rs := []rune(string(t.Category)); len(rs) > 0 {
		letter = string(rs[0])
	}
	c.text(initial, colorPillText,
		badge.Min.X+(badge.Dx()-measure(initial, letter))/2, //nolint:mnd // centred
		badge.Min.Y+(badge.Dy()-lineHeight(initial))/2,      //nolint:mnd // centred
		letter)

	// Priority pill on the right.
	pillFace, err := c.faces.get(basePill, true)
	if err != nil {
		return err
	}
	label := string(t.Priority)
	pillW := measure(pillFace, label) + 2*c.px(baseRowPad)/2 //nolint:mnd // horizontal padding
	pillH := lineHeight(pillFace) + c.px(baseRowPad)/2       //nolint:mnd // vertical padding
	pill := image.Rect(r.Max.X-rowPad-pillW, cy-pillH/2, r.Max.X-rowPad, cy+pillH-pillH/2)
	fillRoundRect(c.img, pill, float32(pillH)/2, priorityColors[t.Priority]) //nolint:mnd // fully rounded
	c.text(pillFace, colorPillText,
		pill.Min.X+(pill.Dx()-measure(pillFace, label))/2, //nolint:mnd // centred
		pill.Min.Y+(pill.Dy()-lineHeight(pillFace))/2,     //nolint:mnd // centred
		label)

	// Name and deadline between badge and pill.
	nameFace, err := c.faces.get(baseName, true)
	if err != nil {
		return err
	}
	dlFace, err := c.faces.get(baseDeadline, false)
	if err != nil {
		return err
	}
	left := badge.Max.X + rowPad
	width := pill.Min.X - rowPad - left
	block := lineHeight(nameFace) + lineHeight(dlFace)
	y := cy - block/2 //nolint:mnd // centred
	y = c.text(nameFace, colorName, left, y, fit(nameFace, t.Name, width))
	c.text(dlFace, colorSubtitle, left, y, fit(dlFace, date.Short(t.Deadline), width))
	return nil
}

// text draws s with its top edge at y and returns the y below the line.
func (c *card) text(face font.Face, col color.Color, x, y int, s string) int {
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
	return y + lineHeight(face)
}

func measure(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

func lineHeight(face font.Face) int {
	return face.Metrics().Height.Ceil()
}

// fit shortens s with "..." until it is at most width pixels wide.
func fit(face font.Face, s string, width int) string {
	if width <= 0 {
		return ""
	}
	if measure(face, s) <= width {
		return s
	}
	const ellipsis = "..."
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := strings.TrimRight(string(runes), " ") + ellipsis
		if measure(face, candidate) <= width {
			return candidate
		}
	}
	return ""
}

func fillRoundRect(dst draw.Image, r image.Rectangle, radius float32, col color.Color) {
	if r.Empty() {
		return
	}
	w, h := float32(r.Dx()), float32(r.Dy())
	rad := min(radius, w/2, h/2) //nolint:mnd // half extent
	z := vector.NewRasterizer(r.Dx(), r.Dy())
	z.MoveTo(rad, 0)
	z.LineTo(w-rad, 0)
	z.QuadTo(w, 0, w, rad)
	z.LineTo(w, h-rad)
	z.QuadTo(w, h, w-rad, h)
	z.LineTo(rad, h)
	z.QuadTo(0, h, 0, h-rad)
	z.LineTo(0, rad)
	z.QuadTo(0, 0, rad, 0)
	z.ClosePath()
	z.Draw(dst, r, image.NewUniform(col), image.Point{})
}

// kappa places cubic control points so four curves approximate a circle.
const kappa = 0.5522847

func fillCircle(dst draw.Image, r image.Rectangle, col color.Color) {
	if r.Empty() {
		return
	}
	w, h := float32(r.Dx()), float32(r.Dy())
	cx, cy := w/2, h/2 //nolint:mnd // centre
	rx, ry := w/2, h/2 //nolint:mnd // radii
	kx, ky := rx*kappa, ry*kappa
	z := vector.NewRasterizer(r.Dx(), r.Dy())
	z.MoveTo(cx+rx, cy)
	z.CubeTo(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
	z.CubeTo(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
	z.CubeTo(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
	z.CubeTo(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	z.ClosePath()
	z.Draw(dst, r, image.NewUniform(col), image.Point{})
}
