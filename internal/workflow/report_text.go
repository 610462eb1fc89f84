package workflow

import (
	"fmt"
	"strings"

	"brandpatrol/internal/models"
)

// maxReportRunes caps the generated report text so it fits the platforms'
// abuse-report input fields. Exceeding text is cut at exactly this many
// runes; the cap and the cut are a documented contract, not an accident.
const maxReportRunes = 480

// suspiciousVocabulary is the fixed list of title fragments worth calling
// out in a report, checked in order. Only the first three hits are rendered.
var suspiciousVocabulary = []string{
	"低价", "特价", "转卖", "拼课", "网盘", "资源", "电子版",
	"low price", "cheap", "discount", "resale", "pdf", "ebook", "course",
}

// ReportReason renders the abuse-report text for a verdict. It is
// deterministic: the same observation, verdict and record always produce the
// same string.
func ReportReason(obs models.ProductObservation, v models.DetectionVerdict, rec *models.GenuineRecord) string {
	var b strings.Builder

	b.WriteString("Suspected pirated listing report\n")
	fmt.Fprintf(&b, "Listing: %s\n", obs.Title)
	fmt.Fprintf(&b, "Seller: %s\n", obs.ShopName)
	fmt.Fprintf(&b, "Price: %.2f\n", obs.Price)

	if v.PriceRatio != nil && rec != nil && rec.OriginalPrice > 0 {
		fmt.Fprintf(&b, "Listed at %.0f%% of the genuine price %.2f.\n",
			*v.PriceRatio*100, rec.OriginalPrice)
	}

	if hits := suspiciousTitleTerms(obs.Title, 3); len(hits) > 0 {
		fmt.Fprintf(&b, "Suspicious terms in title: %s.\n", strings.Join(hits, ", "))
	}

	if rec != nil {
		if v.ShopCheck {
			fmt.Fprintf(&b, "Seller is an authorized shop for %q.\n", rec.Name)
		} else {
			fmt.Fprintf(&b, "Seller is not an authorized shop for %q (authorized: %s).\n",
				rec.Name, strings.Join(authorizedShops(rec), ", "))
		}
	}

	fmt.Fprintf(&b, "Automated detection confidence: %.0f%%.", v.Confidence*100)

	return truncateRunes(b.String(), maxReportRunes)
}

func suspiciousTitleTerms(title string, max int) []string {
	var hits []string
	for _, term := range suspiciousVocabulary {
		if strings.Contains(strings.ToLower(title), term) {
			hits = append(hits, term)
			if len(hits) == max {
				break
			}
		}
	}
	return hits
}

func authorizedShops(rec *models.GenuineRecord) []string {
	if len(rec.AuthorizedShops) > 0 {
		return rec.AuthorizedShops
	}
	return []string{rec.ShopName}
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
