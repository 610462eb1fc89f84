package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// General
	DefaultPlatform string
	PaceProfile     string // "cautious", "normal", "aggressive"
	Debug           bool

	// Detection
	PriceThreshold      float64
	SimilarityThreshold float64
	TrustedShops        []string

	// Device
	DeviceMode   string // "adb" or "webview"
	DeviceSerial string // adb mode
	WebStartURL  string // webview mode

	// Vision
	VisionEndpoint string
	VisionModel    string
	VisionToken    string
	VisionRPM      int

	// Storage
	CatalogPath string
	LedgerPath  string
	EvidenceDir string

	// Patrol
	MaxReports  int
	ScrollEvery int

	// HTTP server
	HTTPPort string
	APIKey   string
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultPlatform:     "xiaohongshu",
		PaceProfile:         "normal",
		PriceThreshold:      0.7,
		SimilarityThreshold: 0.6,
		DeviceMode:          "adb",
		VisionModel:         "qwen-vl-plus",
		VisionRPM:           20,
		CatalogPath:         "data/genuine_products.json",
		LedgerPath:          "data/report_records.json",
		EvidenceDir:         "data/evidence",
		ScrollEvery:         5,
		HTTPPort:            "8080",
	}
}

// LoadFromEnv loads .env file (if present) then overrides config from environment variables.
func (c *Config) LoadFromEnv() {
	// Auto-load .env file; silently ignored if missing
	_ = godotenv.Load()

	if v := os.Getenv("BRANDPATROL_PLATFORM"); v != "" {
		c.DefaultPlatform = v
	}
	if v := os.Getenv("BRANDPATROL_PACE_PROFILE"); v != "" {
		c.PaceProfile = v
	}
	if v := os.Getenv("BRANDPATROL_DEBUG"); v == "true" {
		c.Debug = true
	}
	if v := os.Getenv("BRANDPATROL_PRICE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.PriceThreshold = f
		}
	}
	if v := os.Getenv("BRANDPATROL_SIMILARITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.SimilarityThreshold = f
		}
	}
	if v := os.Getenv("BRANDPATROL_TRUSTED_SHOPS"); v != "" {
		for _, shop := range strings.Split(v, ",") {
			if shop = strings.TrimSpace(shop); shop != "" {
				c.TrustedShops = append(c.TrustedShops, shop)
			}
		}
	}
	if v := os.Getenv("BRANDPATROL_DEVICE_MODE"); v != "" {
		c.DeviceMode = v
	}
	if v := os.Getenv("BRANDPATROL_DEVICE_SERIAL"); v != "" {
		c.DeviceSerial = v
	}
	if v := os.Getenv("BRANDPATROL_WEB_START_URL"); v != "" {
		c.WebStartURL = v
	}
	if v := os.Getenv("BRANDPATROL_VISION_ENDPOINT"); v != "" {
		c.VisionEndpoint = v
	}
	if v := os.Getenv("BRANDPATROL_VISION_MODEL"); v != "" {
		c.VisionModel = v
	}
	if v := os.Getenv("BRANDPATROL_VISION_TOKEN"); v != "" {
		c.VisionToken = v
	}
	if v := os.Getenv("BRANDPATROL_VISION_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.VisionRPM = n
		}
	}
	if v := os.Getenv("BRANDPATROL_CATALOG"); v != "" {
		c.CatalogPath = v
	}
	if v := os.Getenv("BRANDPATROL_LEDGER"); v != "" {
		c.LedgerPath = v
	}
	if v := os.Getenv("BRANDPATROL_EVIDENCE_DIR"); v != "" {
		c.EvidenceDir = v
	}
	if v := os.Getenv("BRANDPATROL_MAX_REPORTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxReports = n
		}
	}
	if v := os.Getenv("BRANDPATROL_SCROLL_EVERY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ScrollEvery = n
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		c.HTTPPort = v
	}
	if v := os.Getenv("BRANDPATROL_API_KEY"); v != "" {
		c.APIKey = v
	}
}
