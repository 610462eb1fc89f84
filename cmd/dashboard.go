package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"brandpatrol/internal/dashboard"
	"brandpatrol/internal/telemetry"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Serve the report dashboard HTTP API",
	RunE:  runDashboard,
}

func init() {
	dashboardCmd.Flags().String("port", "", "HTTP port (default from $PORT or 8080)")
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
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

	port := cfg.HTTPPort
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		port = p
	}
	addr := fmt.Sprintf(":%s", port)

	srv := &http.Server{
		Addr:        addr,
		Handler:     dashboard.NewServer(store, cat, telemetry.NewHub(), log).Router(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	log.Info("dashboard listening", zap.String("addr", addr))
	return srv.ListenAndServe()
}
