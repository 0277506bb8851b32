package vision

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"wildwatch/internal/model"
)

var boxColor = color.RGBA{R: 255, G: 0, B: 0, A: 0}

// Annotator draws the motion box and label onto event snapshots.
type Annotator struct{}

// Annotate returns a copy of frame with region outlined and the label written
// above it, re-encoded as JPEG.
func (Annotator) Annotate(frame model.Frame, region image.Rectangle, result model.Classification) (model.Frame, error) {
	mat, err := gocv.IMDecode(frame.Data, gocv.IMReadColor)
	if err != nil {
		return frame, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()

	if err := gocv.Rectangle(&mat, region, boxColor, 2); err != nil {
		return frame, fmt.Errorf("failed to draw rectangle: %w", err)
	}

	text := fmt.Sprintf("%s (%.2f)", result.Label, result.Confidence)
	pt := image.Pt(region.Min.X, max(region.Min.Y-5, 12))
	if err := gocv.PutText(&mat, text, pt, gocv.FontHersheySimplex, 0.5, boxColor, 1); err != nil {
		return frame, fmt.Errorf("failed to draw text: %w", err)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return frame, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	return model.Frame{Data: data, CapturedAt: frame.CapturedAt}, nil
}
