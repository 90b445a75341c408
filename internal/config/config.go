package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	LogLevel    string
	HTTPAddr    string
	DBDSN       string
	DBMaxConns  int32

	Timezone          string
	ReminderInterval  time.Duration
	ReminderLookahead time.Duration
	ReminderDedup     bool
	StoreTimeout      time.Duration
	PushTimeout       time.Duration
	PushIcon          string

	SlotMax        int
	SlotsPerGroup  int
	SlotMaxRetries int

	FirebaseCredentialsFile string
	FirebaseProjectID       string
	TelegramToken           string
	RedisURL                string

	RazorpayKeyID     string
	RazorpayKeySecret string
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Environment:             getEnv("ENV", "development"),
		LogLevel:                os.Getenv("LOG_LEVEL"),
		HTTPAddr:                getEnv("HTTP_ADDR", ":8080"),
		DBDSN:                   os.Getenv("DB_DSN"),
		Timezone:                getEnv("TIMEZONE", "Asia/Kolkata"),
		PushIcon:                getEnv("PUSH_ICON", "/vite.svg"),
		FirebaseCredentialsFile: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		TelegramToken:           os.Getenv("TELEGRAM_TOKEN"),
		RedisURL:                os.Getenv("REDIS_URL"),
		RazorpayKeyID:           os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:       os.Getenv("RAZORPAY_KEY_SECRET"),
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	var err error
	if cfg.ReminderInterval, err = getEnvDuration("REMINDER_INTERVAL", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ReminderLookahead, err = getEnvDuration("REMINDER_LOOKAHEAD", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.StoreTimeout, err = getEnvDuration("STORE_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.PushTimeout, err = getEnvDuration("PUSH_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.SlotMax, err = getEnvInt("SLOT_MAX", 50); err != nil {
		return nil, err
	}
	if cfg.SlotsPerGroup, err = getEnvInt("SLOTS_PER_GROUP", 10); err != nil {
		return nil, err
	}
	if cfg.SlotMaxRetries, err = getEnvInt("SLOT_MAX_RETRIES", 5); err != nil {
		return nil, err
	}
	maxConns, err := getEnvInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	cfg.DBMaxConns = int32(maxConns)
	if cfg.ReminderDedup, err = getEnvBool("REMINDER_DEDUP", false); err != nil {
		return nil, err
	}

	if cfg.ReminderDedup && cfg.RedisURL == "" {
		return nil, fmt.Errorf("REMINDER_DEDUP requires REDIS_URL")
	}

	return cfg, nil
}

// Location возвращает часовой пояс расписаний
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %w", key, err)
	}
	return parsed, nil
}
