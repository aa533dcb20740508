package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// HTTP Server Configuration
	HTTPPort        string
	HTTPReadTimeout time.Duration

	// Output Configuration
	OutputDir string
	AudioDir  string

	// Public base URL used to hand audio artifacts to the renderer
	PublicBaseURL string

	// Collaborator binaries
	ClaudeBin  string
	EdgeTTSBin string
	NodeBin    string
	FFprobeBin string

	// Remotion project directory (Node side of the renderer)
	RemotionDir string

	// Stage Timeouts
	ContentTimeout   time.Duration
	AudioStepTimeout time.Duration
	BundleTimeout    time.Duration
	RenderTimeout    time.Duration
	NotifyTimeout    time.Duration

	// TTS Configuration
	TTSVoice string

	// Streaming Configuration
	MaxBufferEvents    int
	SubscriberQueueLen int
	KeepaliveInterval  time.Duration
	CleanupGracePeriod time.Duration

	// Progress Configuration
	MaxProgressLogs int

	// Pipeline Configuration
	MaxConcurrentJobs int

	// Janitor Configuration
	JanitorEnabled   bool
	JanitorSchedule  string
	JanitorRetention time.Duration

	// Logging Configuration
	LogLevel  string
	LogFormat string

	// CORS Configuration
	CORSAllowedOrigins string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		// HTTP Server
		HTTPPort:        getEnv("HTTP_PORT", "8001"),
		HTTPReadTimeout: getDurationEnv("HTTP_READ_TIMEOUT_SEC", 30) * time.Second,

		// Output
		OutputDir:     getEnv("OUTPUT_DIR", "output"),
		AudioDir:      getEnv("AUDIO_DIR", "output/audio"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8001"),

		// Collaborators
		ClaudeBin:   getEnv("CLAUDE_BIN", "claude"),
		EdgeTTSBin:  getEnv("EDGE_TTS_BIN", "edge-tts"),
		NodeBin:     getEnv("NODE_BIN", "node"),
		FFprobeBin:  getEnv("FFPROBE_BIN", "ffprobe"),
		RemotionDir: getEnv("REMOTION_DIR", "remotion"),

		// Timeouts
		ContentTimeout:   getDurationEnv("CONTENT_TIMEOUT_SEC", 300) * time.Second,
		AudioStepTimeout: getDurationEnv("AUDIO_STEP_TIMEOUT_SEC", 60) * time.Second,
		BundleTimeout:    getDurationEnv("BUNDLE_TIMEOUT_SEC", 180) * time.Second,
		RenderTimeout:    getDurationEnv("RENDER_TIMEOUT_SEC", 600) * time.Second,
		NotifyTimeout:    getDurationEnv("NOTIFY_TIMEOUT_SEC", 10) * time.Second,

		// TTS
		TTSVoice: getEnv("TTS_VOICE", "en-US-GuyNeural"),

		// Streaming
		MaxBufferEvents:    getIntEnv("MAX_BUFFER_EVENTS", 500),
		SubscriberQueueLen: getIntEnv("SUBSCRIBER_QUEUE_LEN", 100),
		KeepaliveInterval:  getDurationEnv("KEEPALIVE_INTERVAL_SEC", 30) * time.Second,
		CleanupGracePeriod: getDurationEnv("CLEANUP_GRACE_PERIOD_SEC", 300) * time.Second,

		// Progress
		MaxProgressLogs: getIntEnv("MAX_PROGRESS_LOGS", 50),

		// Pipeline
		MaxConcurrentJobs: getIntEnv("MAX_CONCURRENT_JOBS", 4),

		// Janitor
		JanitorEnabled:   getBoolEnv("JANITOR_ENABLED", true),
		JanitorSchedule:  getEnv("JANITOR_SCHEDULE", "@every 10m"),
		JanitorRetention: getDurationEnv("JANITOR_RETENTION_SEC", 3600) * time.Second,

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// CORS
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return time.Duration(intVal)
		}
		log.Printf("Warning: Invalid duration value for %s, using default %d", key, defaultValue)
	}
	return time.Duration(defaultValue)
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
	}
	return defaultValue
}
