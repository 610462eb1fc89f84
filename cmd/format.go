package cmd

import (
	"fmt"
	"os"
	"strings"

	"brandpatrol/internal/models"
)

// printReportsTable prints report records in a human-friendly card layout.
func printReportsTable(records []models.ReportRecord) {
	for i, r := range records {
		if i > 0 {
			fmt.Fprintln(os.Stdout)
		}
		fmt.Fprintf(os.Stdout, " %d. %s  [%s]\n", i+1, truncate(r.TargetTitle, 60), strings.ToUpper(string(r.Status)))
		line := fmt.Sprintf("    Shop: %s  |  Price: %s  |  Platform: %s",
			r.TargetShop, formatPrice(r.TargetPrice), r.Platform)
		fmt.Fprintln(os.Stdout, line)
		if r.Verdict != nil {
			fmt.Fprintf(os.Stdout, "    Confidence: %.2f", r.Verdict.Confidence)
			if r.Verdict.MatchedName != "" {
				fmt.Fprintf(os.Stdout, "  |  Matched: %s", r.Verdict.MatchedName)
			}
			fmt.Fprintln(os.Stdout)
		}
		if r.Notes != "" {
			fmt.Fprintf(os.Stdout, "    Note: %s\n", r.Notes)
		}
		fmt.Fprintf(os.Stdout, "    %s  %s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04"))
	}
}

// formatPrice formats a price as "¥1,234.50".
func formatPrice(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	dot := strings.Index(s, ".")
	whole, frac := s[:dot], s[dot:]
	if len(whole) > 3 {
		var parts []string
		for len(whole) > 3 {
			parts = append([]string{whole[len(whole)-3:]}, parts...)
			whole = whole[:len(whole)-3]
		}
		parts = append([]string{whole}, parts...)
		whole = strings.Join(parts, ",")
	}
	return "¥" + whole + frac
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
