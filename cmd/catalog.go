package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"brandpatrol/internal/models"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the genuine-product catalog",
}

var catalogAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or update a genuine product",
	RunE:  runCatalogAdd,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog records",
	RunE:  runCatalogList,
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search [needle]",
	Short: "Search catalog records by name",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogSearch,
}

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog counts by platform and category",
	RunE:  runCatalogStats,
}

func init() {
	catalogAddCmd.Flags().String("id", "", "Record id (required)")
	catalogAddCmd.Flags().String("name", "", "Canonical product name (required)")
	catalogAddCmd.Flags().String("shop", "", "Official shop name")
	catalogAddCmd.Flags().StringSlice("authorized-shops", nil, "Additional authorized seller names")
	catalogAddCmd.Flags().Float64("price", 0, "Original price")
	catalogAddCmd.Flags().String("category", "", "Category")
	catalogAddCmd.Flags().StringSlice("keywords", nil, "Match keywords")
	catalogAddCmd.Flags().String("description", "", "Product description")
	catalogAddCmd.MarkFlagRequired("id")
	catalogAddCmd.MarkFlagRequired("name")

	catalogListCmd.Flags().String("format", "json", "Output format: json, table")

	catalogCmd.AddCommand(catalogAddCmd, catalogListCmd, catalogSearchCmd, catalogStatsCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogAdd(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog()
	if err != nil {
		return err
	}

	id, _ := cmd.Flags().GetString("id")
	name, _ := cmd.Flags().GetString("name")
	shop, _ := cmd.Flags().GetString("shop")
	authorized, _ := cmd.Flags().GetStringSlice("authorized-shops")
	price, _ := cmd.Flags().GetFloat64("price")
	category, _ := cmd.Flags().GetString("category")
	keywords, _ := cmd.Flags().GetStringSlice("keywords")
	description, _ := cmd.Flags().GetString("description")
	platformName, _ := cmd.Flags().GetString("platform")

	rec := models.GenuineRecord{
		ID:              id,
		Name:            name,
		ShopName:        shop,
		AuthorizedShops: authorized,
		OriginalPrice:   price,
		Platform:        platformName,
		Category:        category,
		Keywords:        keywords,
		Description:     description,
	}
	if err := cat.Add(rec); err != nil {
		return fmt.Errorf("add record: %w", err)
	}
	fmt.Printf("Saved %s (%s)\n", rec.ID, rec.Name)
	return nil
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog()
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	records := cat.All()
	if format == "table" {
		printRecordsTable(records)
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func runCatalogSearch(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog()
	if err != nil {
		return err
	}
	matches := cat.SearchByName(args[0])
	if len(matches) == 0 {
		fmt.Println("No matching records.")
		return nil
	}
	printRecordsTable(matches)
	return nil
}

func runCatalogStats(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cat.Stats())
}

// printRecordsTable prints catalog records in a human-friendly card layout.
func printRecordsTable(records []models.GenuineRecord) {
	for i, r := range records {
		if i > 0 {
			fmt.Fprintln(os.Stdout)
		}
		fmt.Fprintf(os.Stdout, " %d. %s  [%s]\n", i+1, r.Name, r.ID)
		line := "    Shop: " + r.ShopName
		if len(r.AuthorizedShops) > 0 {
			line += "  (+" + strings.Join(r.AuthorizedShops, ", ") + ")"
		}
		line += fmt.Sprintf("  |  Price: %s", formatPrice(r.OriginalPrice))
		fmt.Fprintln(os.Stdout, line)
		if r.Category != "" {
			fmt.Fprintf(os.Stdout, "    Category: %s\n", r.Category)
		}
		if len(r.Keywords) > 0 {
			fmt.Fprintf(os.Stdout, "    Keywords: %s\n", strings.Join(r.Keywords, ", "))
		}
	}
}
