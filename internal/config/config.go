package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	KeyPort                  = "PORT"
	KeyApiUrl                = "API_URL"
	KeyDBUrl                 = "DB_URL"
	KeyRedisAddr             = "REDIS_ADDR"
	KeyRedisPassword         = "REDIS_PASSWORD"
	KeyRedisDB               = "REDIS_DB"
	KeyJWTSecret             = "JWT_SECRET"
	KeyLogLevel              = "LOG_LEVEL"
	KeyEnableAutoQotd        = "ENABLE_AUTO_QOTD"
	KeyCronSchedule          = "CRON_SCHEDULE"
	KeyMinQuestionRating     = "MIN_QUESTION_RATING"
	KeyMaxQuestionRating     = "MAX_QUESTION_RATING"
	KeyScraperApiKey         = "SCRAPER_API_KEY"
	KeyScraperBaseUrl        = "SCRAPER_BASE_URL"
	KeyGeminiApiKey          = "GEMINI_API_KEY"
	KeyGeminiModel           = "GEMINI_MODEL"
	KeyGeminiBaseUrl         = "GEMINI_BASE_URL"
	KeyCodeforcesApiUrl      = "CODEFORCES_API_URL"
	KeyHttpTimeout           = "HTTP_TIMEOUT"
	KeySchedulerCycleTimeout = "SCHEDULER_CYCLE_TIMEOUT"
	KeySolveScore            = "SOLVE_SCORE"
	KeyQotdTimezone          = "QOTD_TIMEZONE"
	KeyLeaderboardTTL        = "LEADERBOARD_TTL"
	KeySenderEmail           = "SENDER_EMAIL"
	KeySenderEmailPassword   = "SENDER_EMAIL_PASSWORD"
	KeyAlertEmails           = "ALERT_EMAILS"
	KeyVerifyRatePerMinute   = "VERIFY_RATE_PER_MINUTE"
)

const (
	DefaultCronSchedule     = "0 0 * * *"
	DefaultScraperBaseUrl   = "https://api.scraperapi.com"
	DefaultGeminiModel      = "gemini-2.5-flash"
	DefaultGeminiBaseUrl    = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultCodeforcesApiUrl = "https://codeforces.com/api"
)

type Config struct {
	Port     string
	ApiUrl   string
	DBUrl    string
	LogLevel string

	RedisAddr     string
	RedisPassword string
	RedisDB       int `validate:"gte=0"`

	JWTSecret string

	EnableAutoQotd bool
	CronSchedule   string `validate:"required"`
	MinRating      int32  `validate:"gte=0"`
	MaxRating      int32  `validate:"gtefield=MinRating"`

	ScraperApiKey  string
	ScraperBaseUrl string `validate:"required,url"`

	GeminiApiKey  string
	GeminiModel   string `validate:"required"`
	GeminiBaseUrl string `validate:"required,url"`

	CodeforcesApiUrl string `validate:"required,url"`

	HttpTimeout           time.Duration `validate:"gt=0"`
	SchedulerCycleTimeout time.Duration `validate:"gt=0"`
	SolveScore            int32         `validate:"gt=0"`
	Location              *time.Location
	LeaderboardTTL        time.Duration `validate:"gt=0"`

	SenderEmail         string
	SenderEmailPassword string
	AlertEmails         []string

	VerifyRatePerMinute int `validate:"gt=0"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, relying on environment variables")
	}

	loc, err := loadLocation(getEnv(KeyQotdTimezone, ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:     getEnv(KeyPort, "8080"),
		ApiUrl:   getEnv(KeyApiUrl, ""),
		DBUrl:    getEnv(KeyDBUrl, ""),
		LogLevel: getEnv(KeyLogLevel, "info"),

		RedisAddr:     getEnv(KeyRedisAddr, ""),
		RedisPassword: getEnv(KeyRedisPassword, ""),
		RedisDB:       getEnvAsInt(KeyRedisDB, 0),

		JWTSecret: getEnv(KeyJWTSecret, ""),

		EnableAutoQotd: getEnvAsBool(KeyEnableAutoQotd, false),
		CronSchedule:   getEnv(KeyCronSchedule, DefaultCronSchedule),
		MinRating:      int32(getEnvAsInt(KeyMinQuestionRating, 800)),
		MaxRating:      int32(getEnvAsInt(KeyMaxQuestionRating, 1200)),

		ScraperApiKey:  getEnv(KeyScraperApiKey, ""),
		ScraperBaseUrl: getEnv(KeyScraperBaseUrl, DefaultScraperBaseUrl),

		GeminiApiKey:  getEnv(KeyGeminiApiKey, ""),
		GeminiModel:   getEnv(KeyGeminiModel, DefaultGeminiModel),
		GeminiBaseUrl: getEnv(KeyGeminiBaseUrl, DefaultGeminiBaseUrl),

		CodeforcesApiUrl: getEnv(KeyCodeforcesApiUrl, DefaultCodeforcesApiUrl),

		HttpTimeout:           getEnvAsDuration(KeyHttpTimeout, 20*time.Second),
		SchedulerCycleTimeout: getEnvAsDuration(KeySchedulerCycleTimeout, 2*time.Minute),
		SolveScore:            int32(getEnvAsInt(KeySolveScore, 100)),
		Location:              loc,
		LeaderboardTTL:        getEnvAsDuration(KeyLeaderboardTTL, 5*time.Minute),

		SenderEmail:         getEnv(KeySenderEmail, ""),
		SenderEmailPassword: getEnv(KeySenderEmailPassword, ""),
		AlertEmails:         getEnvAsList(KeyAlertEmails),

		VerifyRatePerMinute: getEnvAsInt(KeyVerifyRatePerMinute, 10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration, %w", err)
	}
	return nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q, %w", KeyQotdTimezone, name, err)
	}
	return loc, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string) []string {
	res := make([]string, 0)
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			res = append(res, v)
		}
	}
	return res
}
