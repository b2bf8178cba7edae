package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppURL                 string
	DatabaseDSN            string
	RateLimit              int
	RedisEnabled           bool
	RedisAddr              string
	ProfileCacheTTL        time.Duration
	ProfileCachePrefix     string
	ProfilesFile           string
	JWTSecret              string
	JWTIssuer              string
	JWTTTL                 time.Duration
	LogLevel               string
	LogFormat              string
	ShutdownTimeoutSeconds int
	DefaultPageSize        int
	MaxPageSize            int
}

func Load() (Config, error) {
	appHost := getEnv("APP_HOST", "127.0.0.1")
	appPort := getEnv("APP_PORT", "8080")
	redisHost := getEnv("REDIS_HOST", "127.0.0.1")
	redisPort := getEnv("REDIS_PORT", "6379")

	var errs []error
	intEnv := func(key string, def int) int {
		v, err := getEnvAsInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	boolEnv := func(key string, def bool) bool {
		v, err := getEnvAsBool(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg := Config{
		AppURL:                 fmt.Sprintf("%s:%s", appHost, appPort),
		DatabaseDSN:            getEnv("DATABASE_DSN", "todo.db"),
		RateLimit:              intEnv("RATE_LIMIT_PER_MINUTE", 60),
		RedisEnabled:           boolEnv("REDIS_ENABLED", false),
		RedisAddr:              fmt.Sprintf("%s:%s", redisHost, redisPort),
		ProfileCacheTTL:        time.Duration(intEnv("PROFILE_CACHE_TTL_SECONDS", 300)) * time.Second,
		ProfileCachePrefix:     getEnv("PROFILE_CACHE_PREFIX", "profile:name:"),
		ProfilesFile:           getEnv("PROFILES_FILE", ""),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		JWTIssuer:              getEnv("JWT_ISSUER", "todo-service"),
		JWTTTL:                 time.Duration(intEnv("JWT_TTL_MINUTES", 60)) * time.Minute,
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "text"),
		ShutdownTimeoutSeconds: intEnv("SHUTDOWN_TIMEOUT_SECONDS", 20),
		DefaultPageSize:        intEnv("DEFAULT_PAGE_SIZE", 20),
		MaxPageSize:            intEnv("MAX_PAGE_SIZE", 100),
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	var errs []error
	if cfg.AppURL == "" {
		errs = append(errs, errors.New("APP_HOST and APP_PORT must not be empty (e.g. 127.0.0.1:8080)"))
	}
	if cfg.DatabaseDSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN must not be empty"))
	}
	if cfg.RateLimit <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be greater than 0"))
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if cfg.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL_MINUTES must be greater than 0"))
	}
	if cfg.ProfileCacheTTL <= 0 {
		errs = append(errs, errors.New("PROFILE_CACHE_TTL_SECONDS must be greater than 0"))
	}
	if cfg.ShutdownTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT_SECONDS must be greater than 0"))
	}
	if cfg.DefaultPageSize <= 0 {
		errs = append(errs, errors.New("DEFAULT_PAGE_SIZE must be greater than 0"))
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		errs = append(errs, errors.New("MAX_PAGE_SIZE must not be less than DEFAULT_PAGE_SIZE"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) (int, error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return defaultVal, fmt.Errorf("invalid integer value for %s", key)
		}
		return i, nil
	}
	return defaultVal, nil
}

func getEnvAsBool(key string, defaultVal bool) (bool, error) {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return defaultVal, fmt.Errorf("invalid boolean value for %s", key)
		}
		return b, nil
	}
	return defaultVal, nil
}
