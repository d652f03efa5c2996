package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Host         string
	Port         int
	AllowOrigins []string
	LogLevel     string
	MaxUploadMB  int
	LogFile      string

	// storage
	CatalogDB     string
	CorrectionsDB string

	// ai matching
	AnthropicAPIKey    string
	AIMatchingEnabled  bool
	AIModel            string
	AITimeout          time.Duration
	MaxCandidatesForAI int
	CacheEnabled       bool
	CacheTTL           time.Duration

	// matching tuning
	TextScoreWeight  float64
	UnitScoreWeight  float64
	MatchWorkers     int
	LearningEnabled  bool
	MinCorrectionFrq int
}

func Load() Config {
	_ = godotenv.Load()

	port, _ := strconv.Atoi(getenv("PORT", "8000"))
	mb, _ := strconv.Atoi(getenv("MAX_UPLOAD_MB", "64"))
	origins := strings.Split(getenv("ALLOW_ORIGINS", "*"), ",")

	return Config{
		Host:         getenv("HOST", "127.0.0.1"),
		Port:         port,
		AllowOrigins: origins,
		LogLevel:     getenv("LOG_LEVEL", "info"),
		MaxUploadMB:  mb,
		LogFile:      getenv("LOG_FILE", "logs/offerte-service.log"),

		CatalogDB:     getenv("PRIJZENBOEK_DB", "data/prijzenboek.db"),
		CorrectionsDB: getenv("CORRECTIONS_DB", "data/corrections.db"),

		AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		AIMatchingEnabled:  getbool("AI_MATCHING_ENABLED", true),
		AIModel:            getenv("AI_MODEL", "claude-sonnet-4-20250514"),
		AITimeout:          time.Duration(getint("AI_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxCandidatesForAI: getint("MAX_CANDIDATES_FOR_AI", 10),
		CacheEnabled:       getbool("CACHE_ENABLED", true),
		CacheTTL:           time.Duration(getint("CACHE_TTL_HOURS", 24)) * time.Hour,

		TextScoreWeight:  getfloat("TEXT_SCORE_WEIGHT", 0.7),
		UnitScoreWeight:  getfloat("UNIT_SCORE_WEIGHT", 0.3),
		MatchWorkers:     getint("MATCH_WORKERS", 4),
		LearningEnabled:  getbool("LEARNING_ENABLED", true),
		MinCorrectionFrq: getint("MIN_CORRECTION_FREQUENCY", 1),
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// AIAvailable reports whether semantic matching can be offered.
func (c Config) AIAvailable() bool {
	return c.AIMatchingEnabled && c.AnthropicAPIKey != ""
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getbool(k string, def bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func getfloat(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}
