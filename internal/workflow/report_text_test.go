package workflow

import (
	"strings"
	"testing"

	"brandpatrol/internal/models"
)

func TestReportReasonDeterministic(t *testing.T) {
	t.Parallel()
	ratio := 0.3
	obs := models.ProductObservation{
		Title:    "剑桥英语全套低价转卖网盘资源",
		ShopName: "盗版小店",
		Price:    30,
	}
	v := models.DetectionVerdict{Confidence: 1.0, PriceRatio: &ratio}
	rec := &models.GenuineRecord{
		Name:          "剑桥少儿英语预备级",
		ShopName:      "官方旗舰店",
		OriginalPrice: 100,
	}

	first := ReportReason(obs, v, rec)
	for i := 0; i < 3; i++ {
		if got := ReportReason(obs, v, rec); got != first {
			t.Fatal("report text must be deterministic")
		}
	}

	for _, want := range []string{
		obs.Title,
		obs.ShopName,
		"30% of the genuine price 100.00",
		"官方旗舰店",
		"confidence: 100%",
	} {
		if !strings.Contains(first, want) {
			t.Fatalf("report text missing %q:\n%s", want, first)
		}
	}
}

func TestReportReasonSuspiciousTermsCappedAtThree(t *testing.T) {
	t.Parallel()
	obs := models.ProductObservation{
		Title: "低价特价转卖拼课网盘资源电子版",
	}
	got := ReportReason(obs, models.DetectionVerdict{}, nil)

	if !strings.Contains(got, "Suspicious terms in title: 低价, 特价, 转卖.\n") {
		t.Fatalf("suspicious terms line wrong or uncapped:\n%s", got)
	}
}

func TestReportReasonTruncated(t *testing.T) {
	t.Parallel()
	obs := models.ProductObservation{
		Title: strings.Repeat("很长的标题", 200),
	}
	got := ReportReason(obs, models.DetectionVerdict{}, nil)

	if n := len([]rune(got)); n > maxReportRunes {
		t.Fatalf("report text is %d runes, cap is %d", n, maxReportRunes)
	}
}

func TestReportReasonWithoutRecord(t *testing.T) {
	t.Parallel()
	got := ReportReason(models.ProductObservation{Title: "x"}, models.DetectionVerdict{Confidence: 0.8}, nil)

	if strings.Contains(got, "authorized shop") {
		t.Fatalf("shop statement rendered without a matched record:\n%s", got)
	}
	if !strings.Contains(got, "confidence: 80%") {
		t.Fatalf("missing confidence line:\n%s", got)
	}
}
