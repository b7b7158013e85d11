package export

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	cardWidth  = 640
	cardHeight = 400
)

var (
	cardBackground = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	cardInk        = color.NRGBA{R: 31, G: 41, B: 55, A: 255}
	cardMuted      = color.NRGBA{R: 107, G: 114, B: 128, A: 255}
	scoreGood      = color.NRGBA{R: 34, G: 197, B: 94, A: 255}
	scoreFair      = color.NRGBA{R: 234, G: 179, B: 8, A: 255}
	scorePoor      = color.NRGBA{R: 239, G: 68, B: 68, A: 255}
)

// ScoreColor is green from 70, yellow from 40 and red below.
func ScoreColor(score int) color.NRGBA {
	switch {
	case score >= 70:
		return scoreGood
	case score >= 40:
		return scoreFair
	default:
		return scorePoor
	}
}

// RenderScoreCard draws the final-score card of an attempt.
func RenderScoreCard(a *models.QuizAttempt) image.Image {
	card := imaging.New(cardWidth, cardHeight, cardBackground)
	accent := ScoreColor(a.Score)

	band := imaging.New(cardWidth, 12, accent)
	card = imaging.Paste(card, band, image.Pt(0, 0))

	card = drawCentered(card, "Quiz Completed!", 3, 48, cardInk)
	card = drawCentered(card, fmt.Sprintf("Well done, %s!", a.UserName), 2, 100, cardMuted)
	card = drawCentered(card, a.QuizTitle, 2, 135, cardMuted)
	card = drawCentered(card, fmt.Sprintf("%d%%", a.Score), 8, 185, accent)
	card = drawCentered(card, "Your Score", 2, 290, cardInk)

	cols := []struct {
		label string
		value int
	}{
		{"Correct", a.TotalCorrect},
		{"Wrong", a.TotalWrong - a.TotalUnanswered},
		{"Unanswered", a.TotalUnanswered},
	}
	colWidth := cardWidth / len(cols)
	for i, c := range cols {
		value := textImage(fmt.Sprint(c.value), 3, cardInk)
		label := textImage(c.label, 2, cardMuted)
		center := colWidth*i + colWidth/2
		card = imaging.Overlay(card, value, image.Pt(center-value.Bounds().Dx()/2, 330), 1)
		card = imaging.Overlay(card, label, image.Pt(center-label.Bounds().Dx()/2, 372), 1)
	}
	return card
}

// WritePNG encodes the score card of an attempt as PNG.
func WritePNG(w io.Writer, a *models.QuizAttempt) error {
	return imaging.Encode(w, RenderScoreCard(a), imaging.PNG)
}

func drawCentered(dst *image.NRGBA, text string, scale float64, top int, c color.Color) *image.NRGBA {
	img := textImage(text, scale, c)
	x := (dst.Bounds().Dx() - img.Bounds().Dx()) / 2
	if x < 0 {
		x = 0
	}
	return imaging.Overlay(dst, img, image.Pt(x, top), 1)
}

// textImage renders text with the built-in bitmap face and scales it up.
func textImage(text string, scale float64, c color.Color) *image.NRGBA {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	if width == 0 {
		width = 1
	}
	height := face.Metrics().Height.Ceil()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)

	if scale <= 1 {
		return img
	}
	return imaging.Resize(img, int(float64(width)*scale), int(float64(height)*scale), imaging.NearestNeighbor)
}
