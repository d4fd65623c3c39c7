package config

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server-side settings
	DatabaseDSN   string `env:"DATABASE_URI"`
	SpreadsheetID string `env:"SPREADSHEET_ID"`
	SheetName     string `env:"SHEET_NAME"`

	// Shared settings
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`
	LogEnv      string `env:"APP_ENV"`
	LogLevel    string `env:"LOG_LEVEL"`

	// Client-side settings
	ServerURL      string        `env:"-"`
	ClientDBPath   string        `env:"CLIENT_DB_PATH"`
	FallbackDir    string        `env:"FALLBACK_DIR"`
	Offline        bool          `env:"QA_OFFLINE"`
	SubmitTimeout  time.Duration `env:"SUBMIT_TIMEOUT"`
	AutosaveDelay  time.Duration `env:"AUTOSAVE_DELAY"`
	StorageQuotaMB int           `env:"STORAGE_QUOTA_MB"`
	Version        bool          `env:"-"` // show client version and exit (flag only)
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags переопределяют значения из env
	// Server flags
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД (postgres DSN или путь к файлу SQLite)")
	flag.StringVar(&cfg.SpreadsheetID, "spreadsheet", cfg.SpreadsheetID, "идентификатор таблицы сводок; пусто — сводки отключены")
	flag.StringVar(&cfg.SheetName, "sheet", cfg.SheetName, "имя листа таблицы сводок")
	// Shared flags
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "address of the QA server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS (client: prefer https scheme for BaseURL)")
	flag.StringVar(&cfg.LogEnv, "env", cfg.LogEnv, "окружение логгера: development|production")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "уровень логирования (debug, info, warn, error)")
	// Client flags
	flag.StringVar(&cfg.ClientDBPath, "client-db", cfg.ClientDBPath, "path to client SQLite DB")
	flag.StringVar(&cfg.FallbackDir, "fallback-dir", cfg.FallbackDir, "каталог резервного хранилища черновиков")
	flag.BoolVar(&cfg.Offline, "offline", cfg.Offline, "start with connectivity state offline")
	flag.DurationVar(&cfg.SubmitTimeout, "submit-timeout", cfg.SubmitTimeout, "таймаут одной отправки формы на сервер")
	flag.DurationVar(&cfg.AutosaveDelay, "autosave-delay", cfg.AutosaveDelay, "задержка автосохранения черновика")
	flag.IntVar(&cfg.StorageQuotaMB, "quota-mb", cfg.StorageQuotaMB, "ограничение локального хранилища в МБ (0 — по свободному месту)")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	// Defaults
	if cfg.SheetName == "" {
		cfg.SheetName = "QA Reports"
	}
	if cfg.LogEnv == "" {
		cfg.LogEnv = "development"
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 15 * time.Second
	}
	if cfg.AutosaveDelay <= 0 {
		cfg.AutosaveDelay = 2 * time.Second
	}
	if cfg.StorageQuotaMB < 0 {
		cfg.StorageQuotaMB = 0
	}
	// validate BaseURL: must be in "address:port" (no scheme, no path). Otherwise use default.
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}

	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}

	// Fill client defaults if empty
	home, _ := os.UserHomeDir()
	if cfg.ClientDBPath == "" {
		cfg.ClientDBPath = filepath.Join(home, ".qacli", "forms.db")
	}
	if cfg.FallbackDir == "" {
		cfg.FallbackDir = filepath.Join(home, ".qacli", "fallback")
	}

	return cfg
}

// QuotaBytes возвращает ограничение хранилища в байтах (0, не задано).
func (c *Config) QuotaBytes() uint64 {
	if c == nil || c.StorageQuotaMB <= 0 {
		return 0
	}
	return uint64(c.StorageQuotaMB) * 1024 * 1024
}
