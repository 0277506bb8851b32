package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"testing"
	"time"

	"wildwatch/internal/logger"
	"wildwatch/internal/model"
)

// ========================================
// Test Helpers
// ========================================

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

// encodeFrame renders a grey scene, optionally with a white square, as JPEG.
func encodeFrame(t *testing.T, square *image.Rectangle) model.Frame {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 160, 120))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.Gray{Y: 40}}, image.Point{}, draw.Src)
	if square != nil {
		draw.Draw(img, *square, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("Failed to encode frame: %v", err)
	}
	return model.Frame{Data: buf.Bytes(), CapturedAt: time.Now()}
}

// ========================================
// Tests
// ========================================

func TestMotionDetector_StillSceneHasNoMotion(t *testing.T) {
	d := NewMotionDetector(100, newTestLogger(t))
	defer d.Close()

	for i := 0; i < 30; i++ {
		if signal := d.Observe(encodeFrame(t, nil)); i > 0 && signal.Present {
			t.Fatalf("Frame %d: expected no motion in a still scene", i)
		}
	}
}

func TestMotionDetector_ReportsMovingRegion(t *testing.T) {
	d := NewMotionDetector(100, newTestLogger(t))
	defer d.Close()

	for i := 0; i < 30; i++ {
		d.Observe(encodeFrame(t, nil))
	}

	square := image.Rect(60, 40, 100, 80)
	signal := d.Observe(encodeFrame(t, &square))
	if !signal.Present {
		t.Fatal("Expected motion when a square appears")
	}
	if signal.Region == nil || !signal.Region.Overlaps(square) {
		t.Errorf("Expected region overlapping %v, got %v", square, signal.Region)
	}
}

func TestMotionDetector_UndecodableFrameIsNoMotion(t *testing.T) {
	d := NewMotionDetector(100, newTestLogger(t))
	defer d.Close()

	for _, data := range [][]byte{nil, []byte("not an image")} {
		signal := d.Observe(model.Frame{Data: data, CapturedAt: time.Now()})
		if signal.Present || signal.Region != nil {
			t.Errorf("Expected no motion for %q, got %+v", data, signal)
		}
	}
}
