package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"brandpatrol/internal/device"
	"brandpatrol/internal/patrol"
	"brandpatrol/internal/platform"
	"brandpatrol/internal/telemetry"
	"brandpatrol/internal/ui"
)

var patrolCmd = &cobra.Command{
	Use:   "patrol [keyword]",
	Short: "Sweep a platform's search results and report pirated listings",
	Args:  cobra.ExactArgs(1),
	RunE:  runPatrol,
}

func init() {
	patrolCmd.Flags().Int("limit", 20, "Listings to inspect")
	patrolCmd.Flags().Int("max-reports", 0, "Stop after this many filed reports (0 = no cap)")
	patrolCmd.Flags().Bool("dry-run", false, "Detect only, never open the report flow")
	rootCmd.AddCommand(patrolCmd)
}

func runPatrol(cmd *cobra.Command, args []string) error {
	keyword := args[0]
	limit, _ := cmd.Flags().GetInt("limit")
	maxReports, _ := cmd.Flags().GetInt("max-reports")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	platformName, _ := cmd.Flags().GetString("platform")

	log, err := buildLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cat, err := openCatalog()
	if err != nil {
		return err
	}
	store, err := openLedger()
	if err != nil {
		return err
	}
	extractor, err := buildExtractor(log)
	if err != nil {
		return err
	}
	ch, closeCh, err := buildChannel(log)
	if err != nil {
		return err
	}
	defer closeCh()

	evidenceDir := cfg.EvidenceDir
	if dryRun {
		evidenceDir = ""
	}
	if maxReports == 0 {
		maxReports = cfg.MaxReports
	}

	hub := telemetry.NewHub()
	session := patrol.NewSession(
		ch, extractor, buildDetector(cat, log), cat, store,
		device.NewPacer(device.PaceProfile(cfg.PaceProfile)), hub,
		patrol.Options{
			EvidenceDir:  evidenceDir,
			TrustedShops: cfg.TrustedShops,
			MaxReports:   maxReports,
			ScrollEvery:  cfg.ScrollEvery,
			DetectOnly:   dryRun,
		},
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spin := ui.NewSpinner()
	spin.Start(fmt.Sprintf("Patrolling '%s' on %s...", keyword, platformName))
	ctx = platform.WithProgress(ctx, spin.Update)
	events, unsubscribe := hub.Subscribe()
	go func() {
		for ev := range events {
			spin.Update(fmt.Sprintf("[%s] %s", ev.Kind, ev.Message))
		}
	}()

	summary, err := session.Patrol(ctx, platformName, keyword, limit)
	unsubscribe()
	spin.Stop()
	if err != nil {
		return fmt.Errorf("patrol failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
