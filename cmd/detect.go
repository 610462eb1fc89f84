package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"brandpatrol/internal/models"
	"brandpatrol/internal/patrol"
)

var detectCmd = &cobra.Command{
	Use:   "detect [observations.json]",
	Short: "Run piracy detection over captured listings without a device",
	Long:  "Reads a JSON array of listing observations from a file (or stdin with -) and prints a verdict for each.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetect,
}

func init() {
	detectCmd.Flags().Int("parallelism", 4, "Concurrent detection workers")
	detectCmd.Flags().Bool("hits-only", false, "Print only listings judged as piracy")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	parallelism, _ := cmd.Flags().GetInt("parallelism")
	hitsOnly, _ := cmd.Flags().GetBool("hits-only")

	var data []byte
	var err error
	if args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read observations: %w", err)
	}
	var observations []models.ProductObservation
	if err := json.Unmarshal(data, &observations); err != nil {
		return fmt.Errorf("parse observations: %w", err)
	}

	log, err := buildLogger()
	if err != nil {
		return err
	}
	defer log.Sync()
	cat, err := openCatalog()
	if err != nil {
		return err
	}

	verdicts, err := patrol.EvaluateAll(cmd.Context(), buildDetector(cat, log), observations, parallelism)
	if err != nil {
		return err
	}

	type row struct {
		Listing models.ProductObservation `json:"listing"`
		Verdict models.DetectionVerdict   `json:"verdict"`
	}
	rows := make([]row, 0, len(verdicts))
	for i, v := range verdicts {
		if hitsOnly && !v.IsPiracy {
			continue
		}
		rows = append(rows, row{Listing: observations[i], Verdict: v})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
