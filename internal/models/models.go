package models

import "time"

// ProductObservation is a snapshot of one in-the-wild listing. It is built
// once per listing visited and never mutated afterwards.
type ProductObservation struct {
	Title       string  `json:"title"`
	ShopName    string  `json:"shop_name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
	RawText     string  `json:"raw_text,omitempty"`
	Platform    string  `json:"platform"`
	URL         string  `json:"url,omitempty"`
}

// GenuineRecord is a catalog entry describing an authorized product, its
// sellers and its price, used as ground truth by the detection engine.
type GenuineRecord struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	ShopName        string    `json:"shop_name"`
	AuthorizedShops []string  `json:"authorized_shops"`
	OriginalPrice   float64   `json:"original_price"`
	Platform        string    `json:"platform"`
	Category        string    `json:"category"`
	Keywords        []string  `json:"keywords,omitempty"`
	Description     string    `json:"description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DetectionVerdict is the detection engine's judgment for a single
// observation. Immutable once produced; never reused across observations.
type DetectionVerdict struct {
	IsPiracy     bool     `json:"is_piracy"`
	Confidence   float64  `json:"confidence"`
	Reasons      []string `json:"reasons"`
	MatchedID    string   `json:"matched_id,omitempty"`
	MatchedName  string   `json:"matched_name,omitempty"`
	ShopCheck    bool     `json:"shop_check"`
	PriceCheck   bool     `json:"price_check"`
	ContentCheck bool     `json:"content_check"`
	PriceRatio   *float64 `json:"price_ratio,omitempty"`

	DetectedAt time.Time `json:"detected_at"`
}

// ReportStatus is the lifecycle state of a ReportRecord. A record moves
// monotonically from pending to exactly one terminal status.
type ReportStatus string

const (
	StatusPending   ReportStatus = "pending"
	StatusSubmitted ReportStatus = "submitted"
	StatusFailed    ReportStatus = "failed"
)

// Terminal reports whether s is a terminal status.
func (s ReportStatus) Terminal() bool {
	return s == StatusSubmitted || s == StatusFailed
}

// ReportRecord is the durable record of one abuse-report attempt. It is
// created before the reporting workflow starts so a crash mid-flow still
// leaves a recorded attempt. Status transitions are the only mutation path.
type ReportRecord struct {
	ID           string            `json:"id"`
	Platform     string            `json:"platform"`
	TargetTitle  string            `json:"target_title"`
	TargetShop   string            `json:"target_shop"`
	TargetPrice  float64           `json:"target_price"`
	TargetURL    string            `json:"target_url,omitempty"`
	Verdict      *DetectionVerdict `json:"verdict,omitempty"`
	ReportReason string            `json:"report_reason"`
	Status       ReportStatus      `json:"status"`
	Evidence     []string          `json:"evidence,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}
