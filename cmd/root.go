package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"brandpatrol/config"
	"brandpatrol/internal/catalog"
	"brandpatrol/internal/detect"
	"brandpatrol/internal/device"
	"brandpatrol/internal/ledger"
	"brandpatrol/internal/telemetry"
	"brandpatrol/internal/vision"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "brandpatrol",
	Short: "BrandPatrol - marketplace anti-piracy patrol CLI & MCP server",
	Long:  "A CLI tool and MCP server that sweeps marketplace apps for pirated listings and files in-app abuse reports.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("platform", "xiaohongshu", "Target marketplace platform")
	rootCmd.PersistentFlags().String("pace-profile", "normal", "Pacing profile: cautious, normal, aggressive")
	rootCmd.PersistentFlags().String("device-mode", "", "Device channel: adb, webview")
	rootCmd.PersistentFlags().String("device-serial", "", "ADB device serial")
	rootCmd.PersistentFlags().Bool("debug", false, "Verbose development logging")
}

func initConfig() {
	cfg = config.DefaultConfig()
	cfg.LoadFromEnv()

	// Override from flags
	if v, _ := rootCmd.PersistentFlags().GetString("platform"); v != "" {
		cfg.DefaultPlatform = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("pace-profile"); v != "" {
		cfg.PaceProfile = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("device-mode"); v != "" {
		cfg.DeviceMode = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("device-serial"); v != "" {
		cfg.DeviceSerial = v
	}
	if v, _ := rootCmd.PersistentFlags().GetBool("debug"); v {
		cfg.Debug = true
	}
}

// buildLogger creates the process logger from config.
func buildLogger() (*zap.Logger, error) {
	return telemetry.NewLogger(cfg.Debug)
}

// openCatalog opens the genuine-product catalog at the configured path.
func openCatalog() (*catalog.Store, error) {
	return catalog.Open(cfg.CatalogPath)
}

// openLedger opens the report ledger at the configured path.
func openLedger() (*ledger.Store, error) {
	return ledger.Open(cfg.LedgerPath)
}

// buildDetector wires the detector against the catalog with configured
// thresholds.
func buildDetector(cat *catalog.Store, log *zap.Logger) *detect.Detector {
	return detect.New(cat, detect.Options{
		PriceThreshold:      cfg.PriceThreshold,
		SimilarityThreshold: cfg.SimilarityThreshold,
	}, log)
}

// buildChannel creates the device channel selected by config.
func buildChannel(log *zap.Logger) (device.Channel, func(), error) {
	switch cfg.DeviceMode {
	case "webview":
		ch, err := device.NewWebChannel(cfg.WebStartURL, log)
		if err != nil {
			return nil, nil, fmt.Errorf("start webview channel: %w", err)
		}
		return ch, func() { ch.Close() }, nil
	case "adb", "":
		ch := device.NewADBChannel(cfg.DeviceSerial, 0, log)
		return ch, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown device mode %q", cfg.DeviceMode)
	}
}

// buildExtractor creates the vision client from config.
func buildExtractor(log *zap.Logger) (*vision.Client, error) {
	return vision.NewClient(vision.Options{
		Endpoint:          cfg.VisionEndpoint,
		Model:             cfg.VisionModel,
		Token:             cfg.VisionToken,
		RequestsPerMinute: cfg.VisionRPM,
	}, log)
}
