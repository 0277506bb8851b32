package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wildwatch/internal/config"
	"wildwatch/internal/logger"
	"wildwatch/internal/repository/sqlite"
	"wildwatch/internal/route"
	"wildwatch/internal/service/alert"
	"wildwatch/internal/service/notify"
	"wildwatch/internal/service/pipeline"
	"wildwatch/internal/service/storage"
	"wildwatch/internal/service/vision"
)

const (
	mqttConnectTimeout = 5 * time.Second
	shutdownTimeout    = 5 * time.Second
)

// App owns every long-lived component. The capture loop and the admin API
// share nothing but the store.
type App struct {
	config     *config.Config
	logger     *logger.Logger
	store      *sqlite.Store
	camera     *vision.Camera
	detector   *vision.MotionDetector
	classifier *vision.Classifier
	hub        *notify.Hub
	mqttSink   *notify.MQTTSink
	pipeline   *pipeline.Pipeline
	server     *http.Server
}

// NewApp validates the configuration and builds the components. Missing
// assets fail with model.ErrConfiguration before anything is started.
func NewApp(cfg *config.Config, logger *logger.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{config: cfg, logger: logger}
	if err := a.init(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init() error {
	cfg := a.config
	var err error

	a.store, err = sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open event store: %w", err)
	}

	a.classifier, err = vision.NewClassifier(vision.ClassifierOptions{
		ModelPath:           cfg.ModelPath,
		ConfigPath:          cfg.ModelConfigPath,
		LabelsPath:          cfg.LabelsPath,
		InputSize:           cfg.InputSize,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
	}, a.logger)
	if err != nil {
		return err
	}

	a.camera, err = vision.OpenCamera(cfg.CameraDevice, cfg.MaxReadMisses, a.logger)
	if err != nil {
		return err
	}
	a.detector = vision.NewMotionDetector(cfg.MinMotionArea, a.logger)

	mqttClient := notify.NewMQTTClient(notify.MQTTOptions{
		Broker:   cfg.MQTTBroker,
		ClientID: cfg.MQTTClientID,
		Topic:    cfg.MQTTTopic,
		QoS:      byte(cfg.MQTTQoS),
	}, a.logger)
	if err := notify.ConnectMQTT(mqttClient, mqttConnectTimeout); err != nil {
		a.logger.Warning("MQTT not connected yet, retrying in background: %v", err)
	}
	a.mqttSink = notify.NewMQTTSink(mqttClient, cfg.MQTTTopic, byte(cfg.MQTTQoS))

	a.hub = notify.NewHub(a.logger)
	sinks := []notify.Sink{a.mqttSink, a.hub}
	if cfg.FCMServerKey != "" {
		sinks = append(sinks, notify.NewPushSink(notify.PushOptions{
			URL:         cfg.FCMURL,
			ServerKey:   cfg.FCMServerKey,
			ClickAction: cfg.FCMClickAction,
			Timeout:     cfg.NotifyTimeout,
		}, a.store, a.logger))
	} else {
		a.logger.Warning("FCM_SERVER_KEY not set, push notifications disabled")
	}
	fanout := notify.NewFanout(cfg.NotifyTimeout, a.logger, sinks...)

	snapshots := storage.NewSnapshotStore(cfg.ImageDirectory)
	sounder := alert.NewSounder(a.store, alert.NewExecPlayer(cfg.AlertPlayer, a.logger), cfg.AlertSoundPath, a.logger)

	components := pipeline.Components{
		Source:     a.camera,
		Detector:   a.detector,
		Classifier: a.classifier,
		Snapshots:  snapshots,
		Events:     a.store,
		Alerter:    sounder,
		Dispatcher: fanout,
	}
	if cfg.AnnotateImages {
		components.Annotator = vision.Annotator{}
	}
	a.pipeline = pipeline.New(components, pipeline.Options{
		ClassifierTimeout: cfg.ClassifierTimeout,
		DrainTimeout:      cfg.NotifyTimeout,
	}, a.logger)

	router := route.SetupRoutes(route.Dependencies{
		Store:       a.store,
		Snapshots:   snapshots,
		Hub:         a.hub,
		Stats:       a.pipeline,
		Sinks:       fanout.Sinks(),
		EventsLimit: cfg.EventsLimit,
		Started:     time.Now(),
		Logger:      a.logger,
	})
	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Run starts the capture loop and the admin API and blocks until ctx is
// cancelled, the frame source ends, or the server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.hub.Run(ctx)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	pipelineDone := make(chan error, 1)
	go func() {
		pipelineDone <- a.pipeline.Run(ctx)
	}()

	a.logger.Info("🚀 Wildlife watch")
	a.logger.Info("📍 URL: http://localhost:%d", a.config.Port)
	a.logger.Info("📁 Images: %s", a.config.ImageDirectory)
	a.logger.Info("🤖 Model: %s", a.config.ModelPath)

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Stop requested")
	case err := <-serverErr:
		runErr = fmt.Errorf("http server failed: %w", err)
	case err := <-pipelineDone:
		pipelineDone <- err
		a.logger.Info("Capture loop finished, shutting down")
	}

	cancel()
	if err := <-pipelineDone; err != nil && runErr == nil {
		runErr = err
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown: %v", err)
	}
	return runErr
}

// Close releases devices, the broker connection and the store. It is safe on
// a partially built App.
func (a *App) Close() {
	if a.mqttSink != nil {
		a.mqttSink.Close()
	}
	if a.camera != nil {
		a.camera.Close()
	}
	if a.detector != nil {
		a.detector.Close()
	}
	if a.classifier != nil {
		a.classifier.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error("Failed to close event store: %v", err)
		}
	}
}

// WatchQuit cancels when a line reading "q" arrives on r. It returns when r
// is exhausted.
func WatchQuit(r io.Reader, cancel context.CancelFunc, logger *logger.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if strings.EqualFold(strings.TrimSpace(scanner.Text()), "q") {
			logger.Info("Quit command received")
			cancel()
			return
		}
	}
}
