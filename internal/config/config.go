package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigPathEnv names the optional YAML file layered under the environment.
const ConfigPathEnv = "BULLETINLENS_CONFIG"

type Config struct {
	Port string `yaml:"port"`

	// Auth; empty disables the bearer check.
	APIKey string `yaml:"apiKey"`

	// Filesystem
	InputDir   string `yaml:"inputDir"`
	DataDir    string `yaml:"dataDir"`
	ReportFile string `yaml:"reportFile"`

	// Record store
	DBDriver string `yaml:"dbDriver"`
	DBDSN    string `yaml:"dbDsn"`

	// Inference service
	InferenceURL      string        `yaml:"inferenceUrl"`
	InferenceToken    string        `yaml:"inferenceToken"`
	SentimentModel    string        `yaml:"sentimentModel"`
	SummaryModel      string        `yaml:"summaryModel"`
	EntityModel       string        `yaml:"entityModel"`
	ClassifierTimeout time.Duration `yaml:"classifierTimeout"`

	// Classifier result cache; memory cache when RedisAddr is empty.
	RedisAddr      string        `yaml:"redisAddr"`
	CacheTTL       time.Duration `yaml:"cacheTtl"`
	MemoryCacheCap int           `yaml:"memoryCacheCap"`

	// Analysis
	ChunkSize             int    `yaml:"chunkSize"`
	MaxConcurrentClassify int    `yaml:"maxConcurrentClassify"`
	LexiconPath           string `yaml:"lexiconPath"`

	// Cleaning
	DedupeThreshold  int  `yaml:"dedupeThreshold"`
	StripPunctuation bool `yaml:"stripPunctuation"`

	// Topics
	TopN           int      `yaml:"topN"`
	ExcludedTopics []string `yaml:"excludedTopics"`
	RelevantTags   []string `yaml:"relevantTags"`
	Facilities     []string `yaml:"facilities"`
	KeyPhrases     []string `yaml:"keyPhrases"`

	// Runs
	CronSchedule string        `yaml:"cronSchedule"`
	MaxQueueSize int           `yaml:"maxQueueSize"`
	RunTTL       time.Duration `yaml:"runTtl"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"maxUploadBytes"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdfFallbackPdftotext"`

	// Logging
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		Port: "8090",

		InputDir:   "input",
		DataDir:    "data",
		ReportFile: "top_topics.csv",

		DBDriver: "sqlite",
		DBDSN:    filepath.Join("data", "articles.sqlite"),

		InferenceURL:      "https://api-inference.huggingface.co",
		SentimentModel:    "siebert/sentiment-roberta-large-english",
		SummaryModel:      "facebook/bart-large-cnn",
		EntityModel:       "dbmdz/bert-large-cased-finetuned-conll03-english",
		ClassifierTimeout: 60 * time.Second,

		CacheTTL:       24 * time.Hour,
		MemoryCacheCap: 10000,

		ChunkSize:             512,
		MaxConcurrentClassify: 4,
		LexiconPath:           "vader_lexicon.txt",

		DedupeThreshold: 95,

		TopN: 25,

		MaxQueueSize: 10,
		RunTTL:       24 * time.Hour,

		MaxUploadBytes: 52428800, // 50MB

		PDFFallbackPdftotext: true,

		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load layers defaults, the optional YAML file, .env and the environment.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv(ConfigPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// A missing .env is fine.
	_ = godotenv.Load()

	cfg.applyEnv()

	if cfg.MaxConcurrentClassify <= 0 {
		cfg.MaxConcurrentClassify = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 10
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = 24 * time.Hour
	}
	if cfg.ClassifierTimeout <= 0 {
		cfg.ClassifierTimeout = 60 * time.Second
	}
	if cfg.ReportFile == "" {
		cfg.ReportFile = "top_topics.csv"
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = envOr("PORT", c.Port)
	c.APIKey = envOr("BULLETINLENS_API_KEY", c.APIKey)

	c.InputDir = envOr("INPUT_DIR", c.InputDir)
	c.DataDir = envOr("DATA_DIR", c.DataDir)
	c.ReportFile = envOr("REPORT_FILE", c.ReportFile)

	c.DBDriver = envOr("DB_DRIVER", c.DBDriver)
	c.DBDSN = envOr("DATABASE_DSN", c.DBDSN)

	c.InferenceURL = envOr("INFERENCE_URL", c.InferenceURL)
	c.InferenceToken = envOr("INFERENCE_TOKEN", c.InferenceToken)
	c.SentimentModel = envOr("SENTIMENT_MODEL", c.SentimentModel)
	c.SummaryModel = envOr("SUMMARY_MODEL", c.SummaryModel)
	c.EntityModel = envOr("ENTITY_MODEL", c.EntityModel)
	c.ClassifierTimeout = envDuration("CLASSIFIER_TIMEOUT", c.ClassifierTimeout)

	c.RedisAddr = envOr("REDIS_ADDR", c.RedisAddr)
	c.CacheTTL = envDuration("CACHE_TTL", c.CacheTTL)
	c.MemoryCacheCap = envInt("MEMORY_CACHE_CAP", c.MemoryCacheCap)

	c.ChunkSize = envInt("CHUNK_SIZE", c.ChunkSize)
	c.MaxConcurrentClassify = envInt("MAX_CONCURRENT_CLASSIFY", c.MaxConcurrentClassify)
	c.LexiconPath = envOr("LEXICON_PATH", c.LexiconPath)

	c.DedupeThreshold = envInt("DEDUPE_THRESHOLD", c.DedupeThreshold)
	c.StripPunctuation = envBool("STRIP_PUNCTUATION", c.StripPunctuation)

	c.TopN = envInt("TOP_N", c.TopN)

	c.CronSchedule = envOr("CRON_SCHEDULE", c.CronSchedule)
	c.MaxQueueSize = envInt("MAX_QUEUE_SIZE", c.MaxQueueSize)
	c.RunTTL = envDuration("RUN_TTL", c.RunTTL)

	c.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)

	c.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", c.PDFFallbackPdftotext)

	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOr("LOG_FORMAT", c.LogFormat)
}

// ReportPath is where the ranked topic CSV is written.
func (c Config) ReportPath() string {
	return filepath.Join(c.DataDir, c.ReportFile)
}

func (c Config) Validate() error {
	if c.InferenceURL == "" {
		return fmt.Errorf("INFERENCE_URL is required")
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER %q is not supported (sqlite, postgres)", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.DedupeThreshold < 0 || c.DedupeThreshold > 100 {
		return fmt.Errorf("DEDUPE_THRESHOLD must be within 0..100, got %d", c.DedupeThreshold)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("TOP_N must be positive, got %d", c.TopN)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
