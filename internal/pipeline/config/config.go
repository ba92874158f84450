package config

import (
	"fmt"

	"premarket-sentiment/pkg/config"
)

// Pipeline holds the run window and output settings.
type Pipeline struct {
	Stocks        []string  `mapstructure:"stocks"`
	DateRange     DateRange `mapstructure:"date_range"`
	OutputDir     string    `mapstructure:"output_dir"`
	BufferDays    int       `mapstructure:"buffer_days"`
	MaxConcurrent int       `mapstructure:"max_concurrent"`
}

// DateRange is the inclusive run window.
type DateRange struct {
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`
}

// News holds headline resolution settings.
type News struct {
	LookbackWindowHours int `mapstructure:"lookback_window_hours"`
}

// NewsData holds the configuration for the NewsData.io API.
type NewsData struct {
	APIKey              string `mapstructure:"api_key"`
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// GoogleNews holds the configuration for the Google News RSS feed.
type GoogleNews struct {
	BaseURL string `mapstructure:"base_url"`
}

// YahooFinance holds the configuration for the Yahoo Finance API.
type YahooFinance struct {
	BaseURL             string `mapstructure:"base_url"`
	SymbolSuffix        string `mapstructure:"symbol_suffix"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Schedule holds the recurring-run settings.
type Schedule struct {
	Cron string `mapstructure:"cron"`
}

// Config holds the full configuration for the pipeline service.
type Config struct {
	App          config.App      `mapstructure:"app"`
	Logger       config.Logger   `mapstructure:"logger"`
	Database     config.Database `mapstructure:"database"`
	Redis        config.Redis    `mapstructure:"redis"`
	Pipeline     Pipeline        `mapstructure:"pipeline"`
	News         News            `mapstructure:"news"`
	NewsData     NewsData        `mapstructure:"newsdata"`
	GoogleNews   GoogleNews      `mapstructure:"google_news"`
	YahooFinance YahooFinance    `mapstructure:"yahoo_finance"`
	Gemini       Gemini          `mapstructure:"gemini"`
	Telegram     Telegram        `mapstructure:"telegram"`
	Schedule     Schedule        `mapstructure:"schedule"`
}

// Load loads the pipeline configuration from the given path and applies
// defaults. Missing required settings abort before any processing.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Pipeline.OutputDir == "" {
		c.Pipeline.OutputDir = "output"
	}
	if c.Pipeline.BufferDays < 10 {
		c.Pipeline.BufferDays = 10
	}
	if c.Pipeline.MaxConcurrent < 1 {
		c.Pipeline.MaxConcurrent = 1
	}
	if c.News.LookbackWindowHours == 0 {
		c.News.LookbackWindowHours = 72
	}
	if c.YahooFinance.BaseURL == "" {
		c.YahooFinance.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.YahooFinance.SymbolSuffix == "" {
		c.YahooFinance.SymbolSuffix = ".NS"
	}
	if c.YahooFinance.MaxRequestPerMinute == 0 {
		c.YahooFinance.MaxRequestPerMinute = 30
	}
	if c.NewsData.BaseURL == "" {
		c.NewsData.BaseURL = "https://newsdata.io/api/1/latest"
	}
	if c.NewsData.MaxRequestPerMinute == 0 {
		c.NewsData.MaxRequestPerMinute = 10
	}
	if c.GoogleNews.BaseURL == "" {
		c.GoogleNews.BaseURL = "https://news.google.com/rss/search"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}
	if c.Gemini.MaxRequestPerMinute == 0 {
		c.Gemini.MaxRequestPerMinute = 15
	}
	if c.Schedule.Cron == "" {
		// Pre-market on NSE trading weekdays.
		c.Schedule.Cron = "30 8 * * 1-5"
	}
}

func (c *Config) validate() error {
	if len(c.Pipeline.Stocks) == 0 {
		return fmt.Errorf("pipeline.stocks must not be empty")
	}
	if c.Pipeline.DateRange.Start == "" || c.Pipeline.DateRange.End == "" {
		return fmt.Errorf("pipeline.date_range.start and .end are required")
	}
	return nil
}
