package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	defaultWidth     = 1100
	defaultRowHeight = 40
	margin           = 24
	titleHeight      = 56
	cellPadding      = 8
	bodyFontSize     = 17
	titleFontSize    = 22
)

// Renderer draws a Grid as a PNG table. Parsed fonts are shared; faces are
// created per render so one Renderer can serve concurrent callers.
type Renderer struct {
	Width     int
	RowHeight int
	Palette   Palette

	regular *opentype.Font
	bold    *opentype.Font
}

func NewRenderer() (*Renderer, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &Renderer{
		Width:     defaultWidth,
		RowHeight: defaultRowHeight,
		Palette:   DefaultPalette(),
		regular:   regular,
		bold:      bold,
	}, nil
}

// Size reports the image bounds a grid will be drawn into. Height grows with
// the number of rows.
func (r *Renderer) Size(g Grid) (int, int) {
	return r.Width, margin*2 + titleHeight + (len(g.Rows)+1)*r.RowHeight
}

func (r *Renderer) Render(g Grid) ([]byte, error) {
	if len(g.Columns) == 0 {
		return nil, fmt.Errorf("render %q: no columns", g.Title)
	}

	faces, err := r.newFaces()
	if err != nil {
		return nil, err
	}
	defer faces.close()

	width, height := r.Size(g)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fill(img, img.Bounds(), r.Palette.Default)

	titleRect := image.Rect(margin, margin, width-margin, margin+titleHeight)
	drawText(img, faces.title, g.Title, titleRect, r.Palette.Text)

	top := margin + titleHeight
	r.drawRow(img, faces, g.Header, top)
	for i, row := range g.Rows {
		r.drawRow(img, faces, row, top+(i+1)*r.RowHeight)
	}

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}

func (r *Renderer) drawRow(img *image.RGBA, faces *faceSet, cells []Cell, top int) {
	if len(cells) == 0 {
		return
	}
	tableWidth := r.Width - margin*2
	colWidth := tableWidth / len(cells)
	for i, cell := range cells {
		left := margin + i*colWidth
		right := left + colWidth
		if i == len(cells)-1 {
			right = margin + tableWidth
		}
		rect := image.Rect(left, top, right, top+r.RowHeight)
		fill(img, rect, r.Palette.Fill(cell.Tone))
		outline(img, rect, r.Palette.Border)

		face := faces.regular
		if cell.Bold {
			face = faces.bold
		}
		drawText(img, face, cell.Text, rect.Inset(cellPadding), r.Palette.Text)
	}
}

type faceSet struct {
	regular font.Face
	bold    font.Face
	title   font.Face
}

func (r *Renderer) newFaces() (*faceSet, error) {
	regular, err := opentype.NewFace(r.regular, &opentype.FaceOptions{Size: bodyFontSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("create regular face: %w", err)
	}
	bold, err := opentype.NewFace(r.bold, &opentype.FaceOptions{Size: bodyFontSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		_ = regular.Close()
		return nil, fmt.Errorf("create bold face: %w", err)
	}
	title, err := opentype.NewFace(r.bold, &opentype.FaceOptions{Size: titleFontSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		_ = regular.Close()
		_ = bold.Close()
		return nil, fmt.Errorf("create title face: %w", err)
	}
	return &faceSet{regular: regular, bold: bold, title: title}, nil
}

func (f *faceSet) close() {
	_ = f.regular.Close()
	_ = f.bold.Close()
	_ = f.title.Close()
}

func fill(img *image.RGBA, rect image.Rectangle, c color.Color) {
	xdraw.Draw(img, rect, image.NewUniform(c), image.Point{}, xdraw.Src)
}

func outline(img *image.RGBA, rect image.Rectangle, c color.Color) {
	fill(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+1), c)
	fill(img, image.Rect(rect.Min.X, rect.Max.Y-1, rect.Max.X, rect.Max.Y), c)
	fill(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+1, rect.Max.Y), c)
	fill(img, image.Rect(rect.Max.X-1, rect.Min.Y, rect.Max.X, rect.Max.Y), c)
}

// drawText centers text in rect, shortening it with an ellipsis when it
// would overflow.
func drawText(img *image.RGBA, face font.Face, text string, rect image.Rectangle, c color.Color) {
	d := &font.Drawer{Dst: img, Src: image.NewUniform(c), Face: face}
	text = fitText(d, text, rect.Dx())

	metrics := face.Metrics()
	textWidth := d.MeasureString(text).Ceil()
	textHeight := (metrics.Ascent + metrics.Descent).Ceil()
	x := rect.Min.X + (rect.Dx()-textWidth)/2
	y := rect.Min.Y + (rect.Dy()-textHeight)/2 + metrics.Ascent.Ceil()
	d.Dot = fixed.P(x, y)
	d.DrawString(text)
}

func fitText(d *font.Drawer, text string, maxWidth int) string {
	if d.MeasureString(text).Ceil() <= maxWidth {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "…"
		if d.MeasureString(candidate).Ceil() <= maxWidth {
			return candidate
		}
	}
	return ""
}
