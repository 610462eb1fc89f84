package detect

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"brandpatrol/internal/models"
)

// Catalog is the lookup capability the detector consumes. Implementations
// must be safe for concurrent readers; the detector never mutates the catalog.
type Catalog interface {
	SearchByName(name string) []models.GenuineRecord
	SearchByKeywords(keywords []string) []models.GenuineRecord
	IsAuthorizedShop(shop, recordID string) bool
	All() []models.GenuineRecord
}

const (
	// DefaultPriceThreshold is the minimum observed/original price ratio that
	// still counts as a normal price.
	DefaultPriceThreshold = 0.7
	// DefaultSimilarityThreshold is the minimum weighted content similarity
	// that counts as a content match.
	DefaultSimilarityThreshold = 0.6
)

// Options tunes the detector. Zero values fall back to the defaults.
type Options struct {
	PriceThreshold      float64
	SimilarityThreshold float64
}

// Detector fuses shop, price and content signals into a piracy verdict
// against a catalog of known-genuine products. Detect is pure and
// side-effect-free, so one Detector may be shared across goroutines.
type Detector struct {
	catalog             Catalog
	priceThreshold      float64
	similarityThreshold float64
	log                 *zap.Logger
}

// New creates a Detector over the given catalog.
func New(cat Catalog, opts Options, log *zap.Logger) *Detector {
	if opts.PriceThreshold <= 0 {
		opts.PriceThreshold = DefaultPriceThreshold
	}
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Detector{
		catalog:             cat,
		priceThreshold:      opts.PriceThreshold,
		similarityThreshold: opts.SimilarityThreshold,
		log:                 log.Named("detect"),
	}
}

// Detect evaluates one observation and returns a verdict. It never fails:
// an observation that cannot be matched to any catalog record yields the
// explicit cannot-judge verdict rather than an error.
func (d *Detector) Detect(obs models.ProductObservation) models.DetectionVerdict {
	matched, ok := d.matchGenuine(obs)
	if !ok {
		return models.DetectionVerdict{
			IsPiracy:   false,
			Confidence: 0.0,
			Reasons:    []string{"no matching genuine product"},
			DetectedAt: time.Now(),
		}
	}

	shopOK, shopReason := d.checkShop(obs.ShopName, matched)
	priceOK, priceReason, ratio := d.checkPrice(obs.Price, matched.OriginalPrice)
	contentOK, contentReason := d.checkContent(obs, matched)

	v := models.DetectionVerdict{
		MatchedID:    matched.ID,
		MatchedName:  matched.Name,
		ShopCheck:    shopOK,
		PriceCheck:   priceOK,
		ContentCheck: contentOK,
		PriceRatio:   ratio,
		DetectedAt:   time.Now(),
	}

	// An authorized seller is conclusive: no price or content signal
	// overrides it.
	if shopOK {
		v.IsPiracy = false
		v.Confidence = 0.9
		v.Reasons = []string{shopReason}
		return v
	}

	confidence := 0.4
	reasons := []string{shopReason}
	if !priceOK {
		reasons = append(reasons, priceReason)
		confidence += 0.4
	}
	if contentOK {
		reasons = append(reasons, contentReason)
		confidence += 0.2
	}

	v.IsPiracy = (!priceOK && contentOK) || confidence >= 0.7
	v.Confidence = confidence
	v.Reasons = reasons

	d.log.Debug("verdict",
		zap.String("title", obs.Title),
		zap.Bool("is_piracy", v.IsPiracy),
		zap.Float64("confidence", v.Confidence))
	return v
}

// matchGenuine tries, in order: title-substring match against canonical
// names, title-keyword match against record keyword lists, and record
// keywords appearing literally in the recognized text. The first strategy
// producing candidates wins and its first candidate is selected.
func (d *Detector) matchGenuine(obs models.ProductObservation) (models.GenuineRecord, bool) {
	if results := d.catalog.SearchByName(obs.Title); len(results) > 0 {
		return results[0], true
	}

	if keywords := ExtractKeywords(obs.Title); len(keywords) > 0 {
		if results := d.catalog.SearchByKeywords(keywords); len(results) > 0 {
			return results[0], true
		}
	}

	if obs.RawText != "" {
		for _, rec := range d.catalog.All() {
			if containsAnyKeyword(obs.RawText, rec.Keywords) {
				return rec, true
			}
		}
	}

	return models.GenuineRecord{}, false
}

func (d *Detector) checkShop(shop string, rec models.GenuineRecord) (bool, string) {
	if d.catalog.IsAuthorizedShop(shop, rec.ID) {
		return true, fmt.Sprintf("shop %q is an authorized seller", shop)
	}
	return false, fmt.Sprintf("shop %q is not in the authorized seller list (authorized: %s)",
		shop, joinShops(rec))
}

func (d *Detector) checkPrice(price, original float64) (bool, string, *float64) {
	if original <= 0 {
		zero := 0.0
		return true, "price check skipped", &zero
	}
	ratio := price / original
	if ratio >= d.priceThreshold {
		return true, fmt.Sprintf("price %.2f is %.0f%% of the original %.2f", price, ratio*100, original), &ratio
	}
	return false, fmt.Sprintf("price %.2f is only %.0f%% of the original %.2f, below the %.0f%% threshold",
		price, ratio*100, original, d.priceThreshold*100), &ratio
}

func (d *Detector) checkContent(obs models.ProductObservation, rec models.GenuineRecord) (bool, string) {
	titleSim := TextSimilarity(obs.Title, rec.Name)

	descSim := 0.0
	if obs.Description != "" && rec.Description != "" {
		descSim = TextSimilarity(obs.Description, rec.Description)
	}

	coverage := KeywordCoverage(obs.Title+" "+obs.Description+" "+obs.RawText, rec.Keywords)

	overall := titleSim*0.5 + descSim*0.2 + coverage*0.3
	if overall >= d.similarityThreshold {
		return true, fmt.Sprintf("content similarity is high: %.0f%% (title %.0f%%, keywords %.0f%%)",
			overall*100, titleSim*100, coverage*100)
	}
	return false, fmt.Sprintf("content similarity is low: %.0f%%", overall*100)
}

func joinShops(rec models.GenuineRecord) string {
	shops := rec.AuthorizedShops
	if len(shops) == 0 {
		return rec.ShopName
	}
	out := shops[0]
	for _, s := range shops[1:] {
		out += ", " + s
	}
	return out
}

func containsAnyKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
