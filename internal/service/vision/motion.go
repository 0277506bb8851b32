package vision

import (
	"image"
	"sync"

	"gocv.io/x/gocv"

	"wildwatch/internal/logger"
	"wildwatch/internal/model"
)

// MOG2 marks shadows as 127; anything below this is not foreground.
const foregroundThreshold = 200

// MotionDetector keeps an adaptive MOG2 background model and reports the
// region covered by moving contours.
type MotionDetector struct {
	subtractor gocv.BackgroundSubtractorMOG2
	kernel     gocv.Mat
	minArea    float64
	logger     *logger.Logger
	mu         sync.Mutex
}

// NewMotionDetector creates a detector; contours smaller than minArea pixels are ignored.
func NewMotionDetector(minArea int, logger *logger.Logger) *MotionDetector {
	return &MotionDetector{
		subtractor: gocv.NewBackgroundSubtractorMOG2(),
		kernel:     gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3)),
		minArea:    float64(minArea),
		logger:     logger,
	}
}

// Observe updates the background model with frame and reports motion.
// Undecodable frames are logged and count as no motion.
func (d *MotionDetector) Observe(frame model.Frame) model.MotionSignal {
	d.mu.Lock()
	defer d.mu.Unlock()

	mat, err := gocv.IMDecode(frame.Data, gocv.IMReadColor)
	if err != nil {
		d.logger.Warning("Failed to decode frame for motion detection: %v", err)
		return model.MotionSignal{}
	}
	defer mat.Close()

	if mat.Empty() {
		d.logger.Warning("Decoded frame is empty")
		return model.MotionSignal{}
	}

	mask := gocv.NewMat()
	defer mask.Close()
	if err := d.subtractor.Apply(mat, &mask); err != nil {
		d.logger.Warning("Background model update failed: %v", err)
		return model.MotionSignal{}
	}

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(mask, &thresh, foregroundThreshold, 255, gocv.ThresholdBinary)
	if err := gocv.Dilate(thresh, &thresh, d.kernel); err != nil {
		d.logger.Warning("Failed to dilate motion mask: %v", err)
		return model.MotionSignal{}
	}

	contours := gocv.FindContours(thresh, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var region image.Rectangle
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		if gocv.ContourArea(contour) < d.minArea {
			continue
		}
		region = region.Union(gocv.BoundingRect(contour))
	}

	if region.Empty() {
		return model.MotionSignal{}
	}
	return model.MotionSignal{Present: true, Region: &region}
}

// Close releases the background model.
func (d *MotionDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.kernel.Close()
	return d.subtractor.Close()
}
