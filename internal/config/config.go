package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"wildwatch/internal/model"
)

type Config struct {
	Port         int    `toml:"port"`
	DatabasePath string `toml:"database_path"`
	LogDirectory string `toml:"log_dir"`

	ImageDirectory string `toml:"image_dir"`
	CameraDevice   string `toml:"camera_device"` // device index ("0") or file/stream URL
	MaxReadMisses  int    `toml:"max_read_misses"`
	MinMotionArea  int    `toml:"min_motion_area"` // smallest contour area (px) counted as motion
	AnnotateImages bool   `toml:"annotate_images"` // draw the motion box and label on snapshots

	ModelPath           string        `toml:"model_path"`
	ModelConfigPath     string        `toml:"model_config_path"`
	LabelsPath          string        `toml:"labels_path"`
	InputSize           int           `toml:"input_size"`
	ConfidenceThreshold float64       `toml:"confidence_threshold"`
	ClassifierTimeout   time.Duration `toml:"classifier_timeout"`

	AlertSoundPath string `toml:"alert_sound_path"`
	AlertPlayer    string `toml:"alert_player"`

	MQTTBroker   string `toml:"mqtt_broker"`
	MQTTTopic    string `toml:"mqtt_topic"`
	MQTTClientID string `toml:"mqtt_client_id"`
	MQTTQoS      int    `toml:"mqtt_qos"`

	FCMURL         string `toml:"fcm_url"`
	FCMServerKey   string `toml:"fcm_server_key"`
	FCMClickAction string `toml:"fcm_click_action"`

	NotifyTimeout time.Duration `toml:"notify_timeout"`
	EventsLimit   int           `toml:"events_limit"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:                5000,
		DatabasePath:        filepath.Join(".", "data", "events.db"),
		LogDirectory:        filepath.Join(".", "logs"),
		ImageDirectory:      filepath.Join(".", "images"),
		CameraDevice:        "0",
		MaxReadMisses:       30,
		MinMotionArea:       500,
		AnnotateImages:      true,
		ModelPath:           "model.tflite",
		LabelsPath:          "labels.txt",
		InputSize:           224,
		ConfidenceThreshold: 0.5,
		ClassifierTimeout:   5 * time.Second,
		AlertSoundPath:      "alert.wav",
		AlertPlayer:         "aplay",
		MQTTBroker:          "tcp://localhost:1883",
		MQTTTopic:           "alert/detection",
		MQTTQoS:             1,
		FCMURL:              "https://fcm.googleapis.com/fcm/send",
		FCMClickAction:      "http://localhost:3000",
		NotifyTimeout:       10 * time.Second,
		EventsLimit:         50,
	}
}

// Load builds the configuration: defaults, then the optional TOML file named by
// CONFIG_FILE, then environment variables (a .env file is loaded first if present).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getEnvAsInt("PORT", c.Port)
	c.DatabasePath = getEnv("DB_PATH", c.DatabasePath)
	c.LogDirectory = getEnv("LOG_DIR", c.LogDirectory)

	c.ImageDirectory = getEnv("IMAGE_DIR", c.ImageDirectory)
	c.CameraDevice = getEnv("CAMERA_DEVICE", c.CameraDevice)
	c.MaxReadMisses = getEnvAsInt("MAX_READ_MISSES", c.MaxReadMisses)
	c.MinMotionArea = getEnvAsInt("MIN_MOTION_AREA", c.MinMotionArea)
	c.AnnotateImages = getEnvAsBool("ANNOTATE_IMAGES", c.AnnotateImages)

	c.ModelPath = getEnv("MODEL_PATH", c.ModelPath)
	c.ModelConfigPath = getEnv("MODEL_CONFIG_PATH", c.ModelConfigPath)
	c.LabelsPath = getEnv("LABELS_PATH", c.LabelsPath)
	c.InputSize = getEnvAsInt("INPUT_SIZE", c.InputSize)
	c.ConfidenceThreshold = getEnvAsFloat("CONFIDENCE_THRESHOLD", c.ConfidenceThreshold)
	c.ClassifierTimeout = getEnvAsDuration("CLASSIFIER_TIMEOUT", c.ClassifierTimeout)

	c.AlertSoundPath = getEnv("ALERT_SOUND", c.AlertSoundPath)
	c.AlertPlayer = getEnv("ALERT_PLAYER", c.AlertPlayer)

	c.MQTTBroker = getEnv("MQTT_BROKER", c.MQTTBroker)
	c.MQTTTopic = getEnv("MQTT_TOPIC", c.MQTTTopic)
	c.MQTTClientID = getEnv("MQTT_CLIENT_ID", c.MQTTClientID)
	c.MQTTQoS = getEnvAsInt("MQTT_QOS", c.MQTTQoS)

	c.FCMURL = getEnv("FCM_URL", c.FCMURL)
	c.FCMServerKey = getEnv("FCM_SERVER_KEY", c.FCMServerKey)
	c.FCMClickAction = getEnv("FCM_CLICK_ACTION", c.FCMClickAction)

	c.NotifyTimeout = getEnvAsDuration("NOTIFY_TIMEOUT", c.NotifyTimeout)
	c.EventsLimit = getEnvAsInt("EVENTS_LIMIT", c.EventsLimit)
}

// Validate checks that the assets the detector cannot run without are present.
// Errors wrap model.ErrConfiguration.
func (c *Config) Validate() error {
	if _, err := os.Stat(c.ModelPath); err != nil {
		return fmt.Errorf("%w: model file %s: %v", model.ErrConfiguration, c.ModelPath, err)
	}
	if c.ModelConfigPath != "" {
		if _, err := os.Stat(c.ModelConfigPath); err != nil {
			return fmt.Errorf("%w: model config %s: %v", model.ErrConfiguration, c.ModelConfigPath, err)
		}
	}
	if _, err := os.Stat(c.AlertSoundPath); err != nil {
		return fmt.Errorf("%w: alert sound %s: %v", model.ErrConfiguration, c.AlertSoundPath, err)
	}
	if c.MQTTQoS < 0 || c.MQTTQoS > 2 {
		return fmt.Errorf("%w: mqtt qos must be 0, 1 or 2, got %d", model.ErrConfiguration, c.MQTTQoS)
	}
	if c.EventsLimit <= 0 {
		return fmt.Errorf("%w: events limit must be positive", model.ErrConfiguration)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
