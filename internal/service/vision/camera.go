package vision

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"wildwatch/internal/logger"
	"wildwatch/internal/model"
)

// Camera yields JPEG frames from a capture device, file or stream URL.
type Camera struct {
	capture   *gocv.VideoCapture
	frame     gocv.Mat
	device    string
	maxMisses int
	misses    int
	logger    *logger.Logger
	mu        sync.Mutex
}

// OpenCamera opens device, which is either a numeric index or a path/URL.
// After maxMisses consecutive failed reads the camera reports end of stream.
func OpenCamera(device string, maxMisses int, logger *logger.Logger) (*Camera, error) {
	var source interface{} = device
	if index, err := strconv.Atoi(device); err == nil {
		source = index
	}

	capture, err := gocv.OpenVideoCapture(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %s: %w", device, err)
	}
	if maxMisses <= 0 {
		maxMisses = 1
	}

	logger.Info("Camera %s opened", device)
	return &Camera{
		capture:   capture,
		frame:     gocv.NewMat(),
		device:    device,
		maxMisses: maxMisses,
		logger:    logger,
	}, nil
}

// Next reads one frame. A single missed read wraps model.ErrTransientIO;
// io.EOF means the source is exhausted.
func (c *Camera) Next(ctx context.Context) (model.Frame, error) {
	if err := ctx.Err(); err != nil {
		return model.Frame{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ok := c.capture.Read(&c.frame); !ok || c.frame.Empty() {
		c.misses++
		if c.misses >= c.maxMisses {
			c.logger.Warning("Camera %s: %d consecutive read misses, treating as end of stream", c.device, c.misses)
			return model.Frame{}, io.EOF
		}
		return model.Frame{}, fmt.Errorf("%w: camera %s read miss", model.ErrTransientIO, c.device)
	}
	c.misses = 0

	capturedAt := time.Now()
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, c.frame)
	if err != nil {
		return model.Frame{}, fmt.Errorf("%w: failed to encode frame: %v", model.ErrTransientIO, err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	return model.Frame{Data: data, CapturedAt: capturedAt}, nil
}

// Close releases the capture device.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frame.Close()
	return c.capture.Close()
}
