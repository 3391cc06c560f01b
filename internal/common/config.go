package common

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	OCR    OCRConfig
	Store  StoreConfig
}

// ServerConfig holds HTTP-related configuration
type ServerConfig struct {
	Port        string
	FrontendURL string
	UploadDir   string
}

// OCRConfig holds rasterization and recognition configuration
type OCRConfig struct {
	Pdftoppm       string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract      string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang  string // default "eng"
	TessdataDir    string
	DPI            int // rasterization DPI, default 300
	BatchSize      int // pages OCRed concurrently, default 3
	ProcessTimeout time.Duration
}

// StoreConfig holds run-log configuration
type StoreConfig struct {
	DBPath      string
	CatalogFile string // optional JSON catalog overlay
}

// LoadConfig loads configuration from environment variables.
// A .env file in the working directory is loaded first if present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "3001"),
			FrontendURL: getEnv("FRONTEND_URL", ""),
			UploadDir:   getEnv("UPLOAD_DIR", "./uploads"),
		},
		OCR: OCRConfig{
			Pdftoppm:       getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:      getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang:  getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:    getEnv("TESSDATA_PREFIX", ""),
			DPI:            getEnvAsInt("OCR_DPI", 300),
			BatchSize:      getEnvAsInt("OCR_BATCH_SIZE", 3),
			ProcessTimeout: getEnvAsDuration("PROCESS_TIMEOUT", 2*time.Minute),
		},
		Store: StoreConfig{
			DBPath:      getEnv("DB_PATH", "./labextract.db"),
			CatalogFile: getEnv("BIOMARKER_CATALOG_FILE", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return NewAppError(CodeConfig, "PORT is required", ErrInvalidInput)
	}
	if c.OCR.DPI <= 0 {
		return NewAppError(CodeConfig, "OCR_DPI must be positive", ErrInvalidInput)
	}
	if c.OCR.BatchSize <= 0 {
		return NewAppError(CodeConfig, "OCR_BATCH_SIZE must be positive", ErrInvalidInput)
	}
	return nil
}
