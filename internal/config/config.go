package config

import (
	"fmt"
	"os"
	"strconv"

	"billbook/internal/bill"
	"billbook/internal/logger"
	"billbook/internal/receipt"
	"billbook/internal/session"
	"billbook/internal/voice"
	"billbook/pkg/models"
)

type Config struct {
	// Storage
	DBPath string

	// Billing
	BalanceDisplay string
	InvoicePrefix  string
	EstimatePrefix string
	NumberWidth    int

	// Contractor defaults for new bills
	ContractorName    string
	ContractorPhone   string
	ContractorAddress string
	ContractorGSTIN   string
	DefaultDisclaimer string

	// OpenAI Configuration (optional, voice parsing)
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIMaxRetries int

	// Google Sheets Configuration (optional, sheets export)
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Google Document AI Configuration (optional, receipt scanning)
	GoogleProjectID       string
	GoogleLocation        string
	DocumentAIProcessorID string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		DBPath:                getEnv("BILLBOOK_DB_PATH", "billbook.db"),
		BalanceDisplay:        getEnv("BALANCE_DISPLAY", string(bill.BalanceFloor)),
		InvoicePrefix:         getEnv("INVOICE_PREFIX", "INV-"),
		EstimatePrefix:        getEnv("ESTIMATE_PREFIX", "EST-"),
		ContractorName:        getEnv("CONTRACTOR_NAME", ""),
		ContractorPhone:       getEnv("CONTRACTOR_PHONE", ""),
		ContractorAddress:     getEnv("CONTRACTOR_ADDRESS", ""),
		ContractorGSTIN:       getEnv("CONTRACTOR_GSTIN", ""),
		DefaultDisclaimer:     getEnv("DEFAULT_DISCLAIMER", ""),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", voice.DefaultChatGPTConfig().Model),
		GoogleSheetURL:        getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:  getEnv("GOOGLE_SHEET_WORKSHEET", "Bills"),
		GoogleProjectID:       getEnv("GOOGLE_PROJECT_ID", getEnv("GOOGLE_CLOUD_PROJECT", "")),
		GoogleLocation:        getEnv("GOOGLE_LOCATION", receipt.DefaultConfig().Location),
		DocumentAIProcessorID: getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		LogLevel:              getEnv("LOG_LEVEL", "warn"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stderr"),
	}

	var err error
	if config.NumberWidth, err = getEnvInt("NUMBER_WIDTH", 3); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if config.OpenAIMaxRetries, err = getEnvInt("OPENAI_MAX_RETRIES", voice.DefaultChatGPTConfig().MaxRetries); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("BILLBOOK_DB_PATH must not be empty")
	}
	if _, err := bill.ParseBalancePolicy(c.BalanceDisplay); err != nil {
		return fmt.Errorf("BALANCE_DISPLAY: %w", err)
	}
	if c.NumberWidth < 1 || c.NumberWidth > 9 {
		return fmt.Errorf("NUMBER_WIDTH must be between 1 and 9, got %d", c.NumberWidth)
	}
	if c.InvoicePrefix == c.EstimatePrefix {
		return fmt.Errorf("INVOICE_PREFIX and ESTIMATE_PREFIX must differ")
	}
	if c.OpenAIMaxRetries < 1 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be at least 1")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// BalancePolicy returns the validated balance display policy.
func (c *Config) BalancePolicy() bill.BalancePolicy {
	p, err := bill.ParseBalancePolicy(c.BalanceDisplay)
	if err != nil {
		return bill.BalanceFloor
	}
	return p
}

// Numbering returns the bill numbering scheme.
func (c *Config) Numbering() bill.Numbering {
	return bill.Numbering{
		InvoicePrefix:  c.InvoicePrefix,
		EstimatePrefix: c.EstimatePrefix,
		Width:          c.NumberWidth,
	}
}

// SessionOptions returns the editor options derived from the config.
func (c *Config) SessionOptions() session.Options {
	return session.Options{
		Numbering: c.Numbering(),
		Contractor: models.Party{
			Name:    c.ContractorName,
			Phone:   c.ContractorPhone,
			Address: c.ContractorAddress,
			GSTIN:   c.ContractorGSTIN,
		},
		Disclaimer: c.DefaultDisclaimer,
		Balance:    c.BalancePolicy(),
	}
}

// GetChatGPTConfig returns the voice parser configuration
func (c *Config) GetChatGPTConfig() voice.ChatGPTConfig {
	cfg := voice.DefaultChatGPTConfig()
	cfg.Model = c.OpenAIModel
	cfg.MaxRetries = c.OpenAIMaxRetries
	return cfg
}

// GetDocumentAIConfig returns the receipt processor configuration
func (c *Config) GetDocumentAIConfig() receipt.DocumentAIConfig {
	cfg := receipt.DefaultConfig()
	cfg.ProjectID = c.GoogleProjectID
	cfg.Location = c.GoogleLocation
	cfg.ProcessorID = c.DocumentAIProcessorID
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
