package vision

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"wildwatch/internal/logger"
	"wildwatch/internal/model"
)

// ClassifierOptions configures the DNN classifier.
type ClassifierOptions struct {
	ModelPath           string
	ConfigPath          string
	LabelsPath          string
	InputSize           int
	ConfidenceThreshold float64
}

// Classifier runs an image classification network over the motion region.
type Classifier struct {
	net       gocv.Net
	labels    []string
	inputSize int
	threshold float64
	logger    *logger.Logger
	mu        sync.Mutex
}

// NewClassifier loads the network. A missing or unreadable model wraps
// model.ErrConfiguration.
func NewClassifier(opts ClassifierOptions, logger *logger.Logger) (*Classifier, error) {
	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: model file not found: %s", model.ErrConfiguration, opts.ModelPath)
	}

	net := gocv.ReadNet(opts.ModelPath, opts.ConfigPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: failed to load network from %s", model.ErrConfiguration, opts.ModelPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("%w: failed to set backend: %v", model.ErrConfiguration, err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("%w: failed to set target: %v", model.ErrConfiguration, err)
	}

	labels, err := LoadLabels(opts.LabelsPath)
	if err != nil {
		logger.Warning("Labels not loaded, using class ids: %v", err)
	}

	inputSize := opts.InputSize
	if inputSize <= 0 {
		inputSize = 224
	}

	logger.Info("Classifier loaded from %s (%d labels)", opts.ModelPath, len(labels))
	return &Classifier{
		net:       net,
		labels:    labels,
		inputSize: inputSize,
		threshold: opts.ConfidenceThreshold,
		logger:    logger,
	}, nil
}

// Classify labels the region of frame (or the whole frame when region is nil).
// Results under the confidence threshold are reported as model.UnknownLabel.
func (c *Classifier) Classify(ctx context.Context, frame model.Frame, region *image.Rectangle) (model.Classification, error) {
	if err := ctx.Err(); err != nil {
		return model.Classification{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	mat, err := gocv.IMDecode(frame.Data, gocv.IMReadColor)
	if err != nil {
		return model.Classification{}, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return model.Classification{}, errors.New("decoded image is empty")
	}

	input := mat
	if region != nil {
		bounds := region.Intersect(image.Rect(0, 0, mat.Cols(), mat.Rows()))
		if !bounds.Empty() {
			crop := mat.Region(bounds)
			defer crop.Close()
			input = crop
		}
	}

	blob := gocv.BlobFromImage(input, 1.0/255.0, image.Pt(c.inputSize, c.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	c.net.SetInput(blob, "")
	output := c.net.Forward("")
	defer output.Close()

	if output.Empty() {
		return model.Classification{}, errors.New("network produced no output")
	}

	scores := output.Reshape(1, 1)
	defer scores.Close()

	_, maxVal, _, maxLoc := gocv.MinMaxLoc(scores)
	result := model.Classification{
		Label:      c.label(maxLoc.X),
		Confidence: float64(maxVal),
	}
	if result.Confidence < c.threshold {
		result.Label = model.UnknownLabel
	}

	c.logger.Info("Classified %s (%.2f)", result.Label, result.Confidence)
	return result, nil
}

func (c *Classifier) label(classID int) string {
	if classID >= 0 && classID < len(c.labels) && c.labels[classID] != "" {
		return c.labels[classID]
	}
	return fmt.Sprintf("class_%d", classID)
}

// Close releases the network.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.net.Close()
}

// LoadLabels reads one label per line. Labels are lower-cased so they compare
// equal to watchlist names.
func LoadLabels(path string) ([]string, error) {
	if path == "" {
		return nil, fs.ErrNotExist
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var labels []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		labels = append(labels, strings.ToLower(strings.TrimSpace(scanner.Text())))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	return labels, nil
}
