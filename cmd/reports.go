package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect filed abuse reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List report records, newest first",
	RunE:  runReportsList,
}

var reportsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one report record in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportsShow,
}

var reportsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show report counts by platform and status",
	RunE:  runReportsStats,
}

func init() {
	reportsListCmd.Flags().String("status", "", "Filter by status: pending, submitted, failed")
	reportsListCmd.Flags().String("format", "json", "Output format: json, table")
	reportsCmd.AddCommand(reportsListCmd, reportsShowCmd, reportsStatsCmd)
	rootCmd.AddCommand(reportsCmd)
}

func runReportsList(cmd *cobra.Command, args []string) error {
	store, err := openLedger()
	if err != nil {
		return err
	}
	status, _ := cmd.Flags().GetString("status")
	format, _ := cmd.Flags().GetString("format")

	records := store.List()
	if status != "" {
		filtered := records[:0]
		for _, rec := range records {
			if string(rec.Status) == status {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	if format == "table" {
		printReportsTable(records)
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func runReportsShow(cmd *cobra.Command, args []string) error {
	store, err := openLedger()
	if err != nil {
		return err
	}
	rec, err := store.Get(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

func runReportsStats(cmd *cobra.Command, args []string) error {
	store, err := openLedger()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(store.Stats())
}
