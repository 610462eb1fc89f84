package detect

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	"brandpatrol/internal/catalog"
	"brandpatrol/internal/models"
)

func testCatalog(t *testing.T) *catalog.Store {
	t.Helper()
	cat, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.json"))
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	records := []models.GenuineRecord{
		{
			ID:              "gp-001",
			Name:            "剑桥少儿英语预备级",
			ShopName:        "官方旗舰店",
			AuthorizedShops: []string{"授权书店"},
			OriginalPrice:   100,
			Keywords:        []string{"剑桥", "英语"},
		},
		{
			ID:            "gp-002",
			Name:          "测试产品手册",
			ShopName:      "测试官方店",
			OriginalPrice: 0,
			Keywords:      []string{"手册"},
		},
	}
	for _, rec := range records {
		if err := cat.Add(rec); err != nil {
			t.Fatalf("add record: %v", err)
		}
	}
	return cat
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDetectPiratedListing(t *testing.T) {
	t.Parallel()
	d := New(testCatalog(t), Options{}, nil)

	v := d.Detect(models.ProductObservation{
		Title:    "剑桥少儿英语预备级",
		ShopName: "盗版小店",
		Price:    30,
	})

	if !v.IsPiracy {
		t.Fatalf("expected piracy verdict, got %+v", v)
	}
	if !approxEqual(v.Confidence, 1.0) {
		t.Fatalf("confidence = %v, want 1.0", v.Confidence)
	}
	if v.MatchedID != "gp-001" {
		t.Fatalf("matched id = %q, want gp-001", v.MatchedID)
	}
	if len(v.Reasons) != 3 {
		t.Fatalf("reasons = %v, want 3 entries", v.Reasons)
	}
	if v.ShopCheck || v.PriceCheck || !v.ContentCheck {
		t.Fatalf("checks = shop=%v price=%v content=%v", v.ShopCheck, v.PriceCheck, v.ContentCheck)
	}
	if v.PriceRatio == nil || *v.PriceRatio != 0.3 {
		t.Fatalf("price ratio = %v, want 0.3", v.PriceRatio)
	}
}

func TestDetectAuthorizedShopShortCircuit(t *testing.T) {
	t.Parallel()
	d := New(testCatalog(t), Options{}, nil)

	for _, shop := range []string{"官方旗舰店", "授权书店"} {
		v := d.Detect(models.ProductObservation{
			Title:    "剑桥少儿英语预备级",
			ShopName: shop,
			Price:    30, // suspicious price must not override the shop signal
		})
		if v.IsPiracy {
			t.Fatalf("shop %q: expected genuine verdict, got %+v", shop, v)
		}
		if !approxEqual(v.Confidence, 0.9) {
			t.Fatalf("shop %q: confidence = %v, want 0.9", shop, v.Confidence)
		}
		if len(v.Reasons) != 1 || !strings.Contains(v.Reasons[0], "authorized seller") {
			t.Fatalf("shop %q: reasons = %v", shop, v.Reasons)
		}
	}
}

func TestDetectShopNameMatchIsCaseSensitive(t *testing.T) {
	t.Parallel()
	cat, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.json"))
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	if err := cat.Add(models.GenuineRecord{
		ID: "gp-010", Name: "Widget Pro", ShopName: "Official Store", OriginalPrice: 100,
	}); err != nil {
		t.Fatalf("add record: %v", err)
	}
	d := New(cat, Options{}, nil)

	v := d.Detect(models.ProductObservation{
		Title: "Widget Pro", ShopName: "official store", Price: 100,
	})
	if v.ShopCheck {
		t.Fatal("shop check passed for a case-mismatched shop name")
	}
}

func TestDetectPriceBoundaryPasses(t *testing.T) {
	t.Parallel()
	d := New(testCatalog(t), Options{}, nil)

	v := d.Detect(models.ProductObservation{
		Title:    "剑桥少儿英语预备级",
		ShopName: "盗版小店",
		Price:    70, // exactly the threshold ratio
	})

	if !v.PriceCheck {
		t.Fatal("price at exactly 70% of original should pass")
	}
	if v.IsPiracy {
		t.Fatalf("expected no piracy at confidence %v", v.Confidence)
	}
	if !approxEqual(v.Confidence, 0.6) {
		t.Fatalf("confidence = %v, want 0.6", v.Confidence)
	}
	// Shop failure plus the passing content check are reported; the
	// passing price check is not.
	if len(v.Reasons) != 2 {
		t.Fatalf("reasons = %v, want 2 entries", v.Reasons)
	}
}

func TestDetectZeroOriginalPriceSkipsPriceCheck(t *testing.T) {
	t.Parallel()
	d := New(testCatalog(t), Options{}, nil)

	v := d.Detect(models.ProductObservation{
		Title:    "测试产品手册",
		ShopName: "无名小店",
		Price:    5,
	})

	if !v.PriceCheck {
		t.Fatal("price check should pass when no original price is known")
	}
	if v.PriceRatio == nil || *v.PriceRatio != 0 {
		t.Fatalf("price ratio = %v, want 0", v.PriceRatio)
	}
	if v.IsPiracy {
		t.Fatalf("expected no piracy, got %+v", v)
	}
}

func TestDetectRawTextKeywordMatch(t *testing.T) {
	t.Parallel()
	d := New(testCatalog(t), Options{}, nil)

	// The title matches nothing; only the recognized raw text carries a
	// catalog keyword.
	v := d.Detect(models.ProductObservation{
		Title:    "全新正品课程资料到手即用",
		ShopName: "盗版小店",
		Price:    30,
		RawText:  "内含剑桥资源",
	})

	if v.MatchedID != "gp-001" {
		t.Fatalf("matched id = %q, want gp-001", v.MatchedID)
	}
	if v.ContentCheck {
		t.Fatal("content check should fail on unrelated title text")
	}
	if !v.IsPiracy || !approxEqual(v.Confidence, 0.8) {
		t.Fatalf("verdict = piracy=%v confidence=%v, want piracy at 0.8", v.IsPiracy, v.Confidence)
	}
	if len(v.Reasons) != 2 {
		t.Fatalf("reasons = %v, want shop and price entries", v.Reasons)
	}
}

func TestDetectNoMatch(t *testing.T) {
	t.Parallel()
	d := New(testCatalog(t), Options{}, nil)

	v := d.Detect(models.ProductObservation{
		Title:    "毫无关联",
		ShopName: "某店",
		Price:    10,
	})

	if v.IsPiracy {
		t.Fatal("unmatched listing must not be judged piracy")
	}
	if v.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0", v.Confidence)
	}
	if len(v.Reasons) != 1 || v.Reasons[0] != "no matching genuine product" {
		t.Fatalf("reasons = %v", v.Reasons)
	}
	if v.MatchedID != "" {
		t.Fatalf("matched id = %q, want empty", v.MatchedID)
	}
}

func TestDetectCandidateOrderIsDeterministic(t *testing.T) {
	t.Parallel()
	cat, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.json"))
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	// Both records contain the observed title; the lowest id must win.
	for _, rec := range []models.GenuineRecord{
		{ID: "gp-b", Name: "少儿英语教材第二册", OriginalPrice: 50, ShopName: "b店"},
		{ID: "gp-a", Name: "少儿英语教材第一册", OriginalPrice: 50, ShopName: "a店"},
	} {
		if err := cat.Add(rec); err != nil {
			t.Fatalf("add record: %v", err)
		}
	}
	d := New(cat, Options{}, nil)

	for i := 0; i < 5; i++ {
		v := d.Detect(models.ProductObservation{Title: "少儿英语教材", ShopName: "x", Price: 50})
		if v.MatchedID != "gp-a" {
			t.Fatalf("matched id = %q, want gp-a", v.MatchedID)
		}
	}
}
