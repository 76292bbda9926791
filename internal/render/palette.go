package render

import (
	"fmt"
	"image/color"
)

type Palette struct {
	Default color.RGBA
	Header  color.RGBA
	Average color.RGBA
	Good    color.RGBA
	Warning color.RGBA
	Bad     color.RGBA
	Border  color.RGBA
	Text    color.RGBA
}

func DefaultPalette() Palette {
	return Palette{
		Default: color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		Header:  color.RGBA{R: 0xF5, G: 0xF5, B: 0xF5, A: 0xFF},
		Average: color.RGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF},
		Good:    color.RGBA{R: 0xC6, G: 0xEF, B: 0xCE, A: 0xFF},
		Warning: color.RGBA{R: 0xFF, G: 0xEB, B: 0x9C, A: 0xFF},
		Bad:     color.RGBA{R: 0xFF, G: 0xC7, B: 0xCE, A: 0xFF},
		Border:  color.RGBA{R: 0x9E, G: 0x9E, B: 0x9E, A: 0xFF},
		Text:    color.RGBA{R: 0x21, G: 0x21, B: 0x21, A: 0xFF},
	}
}

func (p Palette) Fill(t Tone) color.RGBA {
	switch t {
	case ToneHeader:
		return p.Header
	case ToneAverage:
		return p.Average
	case ToneGood:
		return p.Good
	case ToneWarning:
		return p.Warning
	case ToneBad:
		return p.Bad
	default:
		return p.Default
	}
}

// Hex returns the fill as RRGGBB, the form spreadsheet styles expect.
func (p Palette) Hex(t Tone) string {
	return hex(p.Fill(t))
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}
