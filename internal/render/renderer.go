// Package render composes the final weather card: the background is filled
// to 1024x768, a translucent band is drawn across the top and the three text
// lines are laid over it.
package render

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	canvasWidth  = 1024
	canvasHeight = 768

	bandHeight  = 220
	bandAlpha   = 0.25
	textPadding = 30.0

	largeFontSize  = 56
	mediumFontSize = 48

	jpegQuality = 90
)

type Renderer struct {
	fontLarge  font.Face
	fontMedium font.Face
}

func NewRenderer() (*Renderer, error) {
	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bundled font: %w", err)
	}

	return &Renderer{
		fontLarge:  truetype.NewFace(ttf, &truetype.Options{Size: largeFontSize}),
		fontMedium: truetype.NewFace(ttf, &truetype.Options{Size: mediumFontSize}),
	}, nil
}

// Compose draws the station, temperature and condition lines over the given
// background image and returns JPEG bytes.
func (r *Renderer) Compose(background []byte, stationLine, temperatureLine, conditionLine string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(background))
	if err != nil {
		return nil, fmt.Errorf("decode background: %w", err)
	}

	img = imaging.Fill(img, canvasWidth, canvasHeight, imaging.Center, imaging.Lanczos)

	dc := gg.NewContextForImage(img)

	dc.SetRGBA(0, 0, 0, bandAlpha)
	dc.DrawRectangle(0, 0, canvasWidth, bandHeight)
	dc.Fill()

	dc.SetColor(color.White)
	x := textPadding
	y := textPadding

	dc.SetFontFace(r.fontLarge)
	dc.DrawStringAnchored(stationLine, x, y, 0, 1)
	y += 70

	dc.SetFontFace(r.fontMedium)
	dc.DrawStringAnchored(temperatureLine, x, y, 0, 1)
	y += 70

	if conditionLine != "" {
		dc.DrawStringAnchored(conditionLine, x, y, 0, 1)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dc.Image(), imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
