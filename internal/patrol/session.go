// Package patrol drives a full sweep over a platform's search results:
// open each listing, read it, judge it, and file a report when it flags.
package patrol

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"brandpatrol/internal/detect"
	"brandpatrol/internal/device"
	"brandpatrol/internal/ledger"
	"brandpatrol/internal/models"
	"brandpatrol/internal/platform"
	"brandpatrol/internal/telemetry"
	"brandpatrol/internal/workflow"
)

// Extractor reads listing fields off a screenshot.
type Extractor interface {
	ExtractListing(ctx context.Context, screenshot []byte) (models.ProductObservation, error)
}

// RecordGetter resolves a genuine-product record by id.
type RecordGetter interface {
	Get(id string) (models.GenuineRecord, bool)
}

// Options configure a patrol session.
type Options struct {
	// EvidenceDir is where listing screenshots are stored. Empty disables
	// evidence capture.
	EvidenceDir string
	// TrustedShops are never reported even when the detector flags them.
	TrustedShops []string
	// MaxReports caps the number of reports filed in one sweep. Zero
	// means no cap.
	MaxReports int
	// ScrollEvery advances the result list after this many listings.
	// Zero means 5.
	ScrollEvery int
	// DetectOnly records hits without opening the report flow.
	DetectOnly bool
}

// Session ties the device channel, the vision extractor, the detector and
// the report machinery together for one patrol run.
type Session struct {
	ch       device.Channel
	extract  Extractor
	detector *detect.Detector
	catalog  RecordGetter
	store    *ledger.Store
	machine  *workflow.Machine
	runner   *workflow.Runner
	pacer    *device.Pacer
	hub      *telemetry.Hub
	opts     Options
	trusted  map[string]struct{}
	log      *zap.Logger
}

// NewSession builds a patrol session.
func NewSession(ch device.Channel, extract Extractor, detector *detect.Detector, cat RecordGetter, store *ledger.Store, pacer *device.Pacer, hub *telemetry.Hub, opts Options, log *zap.Logger) *Session {
	if opts.ScrollEvery <= 0 {
		opts.ScrollEvery = 5
	}
	trusted := make(map[string]struct{}, len(opts.TrustedShops))
	for _, shop := range opts.TrustedShops {
		trusted[shop] = struct{}{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	runner := workflow.NewRunner(ch, pacer, 0, log)
	return &Session{
		ch:       ch,
		extract:  extract,
		detector: detector,
		catalog:  cat,
		store:    store,
		machine:  workflow.NewMachine(runner, store, log),
		runner:   runner,
		pacer:    pacer,
		hub:      hub,
		opts:     opts,
		trusted:  trusted,
		log:      log,
	}
}

// Summary is the outcome of one patrol sweep.
type Summary struct {
	Platform string `json:"platform"`
	Keyword  string `json:"keyword"`
	Scanned  int    `json:"scanned"`
	Hits     int    `json:"hits"`
	Filed    int    `json:"filed"`
	Failed   int    `json:"failed"`
	Skipped  int    `json:"skipped"`
}

// Patrol sweeps up to limit listings for the given keyword on one
// platform. Listings are handled strictly one at a time: the report
// workflow owns the screen, so there is nothing to parallelize here.
func (s *Session) Patrol(ctx context.Context, platformID, keyword string, limit int) (Summary, error) {
	sum := Summary{Platform: platformID, Keyword: keyword}

	def, err := platform.Get(platformID)
	if err != nil {
		return sum, err
	}

	platform.ReportProgress(ctx, fmt.Sprintf("launching %s", def.AppTarget))
	if err := s.ch.Launch(ctx, def.AppTarget); err != nil {
		return sum, fmt.Errorf("launch %s: %w", def.AppTarget, err)
	}
	if err := s.pacer.Settle(ctx); err != nil {
		return sum, err
	}
	for _, step := range def.SearchSteps {
		bound := step
		bound.Text = strings.ReplaceAll(step.Text, workflow.PlaceholderKeyword, keyword)
		if err := s.runner.Run(ctx, bound); err != nil {
			return sum, fmt.Errorf("search setup: %w", err)
		}
	}

	visited := make(map[string]struct{})
	for i := 0; i < limit; i++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		opened, err := s.openNextListing(ctx, visited)
		if err != nil {
			return sum, err
		}
		if !opened {
			s.log.Info("result list exhausted", zap.Int("scanned", sum.Scanned))
			break
		}

		platform.ReportProgress(ctx, fmt.Sprintf("inspecting listing %d/%d", i+1, limit))
		if err := s.handleListing(ctx, platformID, def, &sum); err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			s.log.Warn("listing handling failed", zap.Error(err))
			sum.Skipped++
		}
		sum.Scanned++

		if err := s.ch.Back(ctx); err != nil {
			return sum, fmt.Errorf("return to result list: %w", err)
		}
		s.browsePause(ctx)

		if (i+1)%s.opts.ScrollEvery == 0 {
			s.scrollResults(ctx)
		}
		if s.opts.MaxReports > 0 && sum.Filed >= s.opts.MaxReports {
			s.log.Info("report cap reached", zap.Int("filed", sum.Filed))
			break
		}
	}

	s.hub.Publish(telemetry.Event{
		Kind:     telemetry.KindPatrolDone,
		Platform: platformID,
		Message:  fmt.Sprintf("scanned %d, filed %d", sum.Scanned, sum.Filed),
	})
	return sum, nil
}

// handleListing reads the currently open listing, runs detection and, on a
// hit, files an in-app report.
func (s *Session) handleListing(ctx context.Context, platformID string, def workflow.Definition, sum *Summary) error {
	shot, err := s.ch.Screenshot(ctx)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	obs, err := s.extract.ExtractListing(ctx, shot)
	if err != nil {
		return fmt.Errorf("extract listing: %w", err)
	}
	obs.Platform = platformID
	s.hub.Publish(telemetry.Event{
		Kind:     telemetry.KindListingSeen,
		Platform: platformID,
		Message:  obs.Title,
	})

	verdict := s.detector.Detect(obs)
	if !verdict.IsPiracy {
		return nil
	}
	if _, ok := s.trusted[obs.ShopName]; ok {
		s.log.Info("hit on trusted shop, skipping",
			zap.String("shop", obs.ShopName), zap.String("title", obs.Title))
		sum.Skipped++
		return nil
	}
	sum.Hits++
	s.hub.Publish(telemetry.Event{
		Kind:     telemetry.KindDetectionHit,
		Platform: platformID,
		Message:  fmt.Sprintf("%s (confidence %.2f)", obs.Title, verdict.Confidence),
	})

	if s.opts.DetectOnly {
		return nil
	}

	var matched *models.GenuineRecord
	if verdict.MatchedID != "" {
		if rec, ok := s.catalog.Get(verdict.MatchedID); ok {
			matched = &rec
		}
	}
	reason := workflow.ReportReason(obs, verdict, matched)

	rec, err := s.store.Create(platformID, obs, verdict, reason)
	if err != nil {
		return fmt.Errorf("create report record: %w", err)
	}
	if path := s.saveEvidence(rec.ID, shot); path != "" {
		if err := s.store.AttachEvidence(rec.ID, path); err != nil {
			s.log.Warn("attach evidence failed", zap.Error(err))
		}
	}

	bound := bindDefinition(def, reason)
	if err := s.machine.Execute(ctx, bound, rec.ID); err != nil {
		sum.Failed++
		s.hub.Publish(telemetry.Event{
			Kind:     telemetry.KindReportFailed,
			Platform: platformID,
			Message:  err.Error(),
			ReportID: rec.ID,
		})
		return nil
	}
	sum.Filed++
	s.hub.Publish(telemetry.Event{
		Kind:     telemetry.KindReportFiled,
		Platform: platformID,
		Message:  obs.Title,
		ReportID: rec.ID,
	})
	return nil
}

// openNextListing taps the first unvisited result card. Returns false when
// no new card is on screen even after one scroll.
func (s *Session) openNextListing(ctx context.Context, visited map[string]struct{}) (bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		snap, err := s.ch.Snapshot(ctx)
		if err != nil {
			return false, fmt.Errorf("snapshot result list: %w", err)
		}
		if el, ok := pickCard(snap, visited); ok {
			visited[cardKey(el)] = struct{}{}
			if err := s.ch.Tap(ctx, el.Center()); err != nil {
				return false, fmt.Errorf("open listing: %w", err)
			}
			if err := s.pacer.Settle(ctx); err != nil {
				return false, err
			}
			return true, nil
		}
		s.scrollResults(ctx)
	}
	return false, nil
}

// pickCard selects the topmost unvisited clickable element big enough to
// be a result card.
func pickCard(snap *device.Snapshot, visited map[string]struct{}) (device.Element, bool) {
	const minCardArea = 20000
	var cards []device.Element
	for _, el := range snap.Elements {
		if !el.Clickable || el.Area() < minCardArea {
			continue
		}
		if el.Bounds.Top < 80 {
			continue
		}
		if _, seen := visited[cardKey(el)]; seen {
			continue
		}
		cards = append(cards, el)
	}
	if len(cards) == 0 {
		return device.Element{}, false
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].Bounds.Top < cards[j].Bounds.Top })
	return cards[0], true
}

func cardKey(el device.Element) string {
	if t := strings.TrimSpace(el.Text); t != "" {
		return t
	}
	return fmt.Sprintf("@%d,%d", el.Bounds.Left, el.Bounds.Top)
}

func (s *Session) scrollResults(ctx context.Context) {
	from := device.Point{X: 360, Y: 1500}
	to := device.Point{X: 360, Y: 500}
	if err := s.ch.Swipe(ctx, from, to, 300*time.Millisecond); err != nil {
		s.log.Warn("scroll failed", zap.Error(err))
	}
	s.browsePause(ctx)
}

// browsePause idles between listings like a person skimming results would.
func (s *Session) browsePause(ctx context.Context) {
	select {
	case <-time.After(s.pacer.BrowsePause()):
	case <-ctx.Done():
	}
}

// saveEvidence writes the screenshot under the evidence dir and returns
// its path, or empty when capture is disabled or the write fails.
func (s *Session) saveEvidence(reportID string, shot []byte) string {
	if s.opts.EvidenceDir == "" {
		return ""
	}
	if err := os.MkdirAll(s.opts.EvidenceDir, 0o755); err != nil {
		s.log.Warn("evidence dir", zap.Error(err))
		return ""
	}
	path := filepath.Join(s.opts.EvidenceDir, reportID+".png")
	if err := os.WriteFile(path, shot, 0o644); err != nil {
		s.log.Warn("write evidence", zap.Error(err))
		return ""
	}
	return path
}

// bindDefinition substitutes the report-reason placeholder into a copy of
// the workflow definition's stages.
func bindDefinition(def workflow.Definition, reason string) workflow.Definition {
	stages := make([]workflow.Stage, len(def.Stages))
	for i, st := range def.Stages {
		steps := make([]workflow.Step, len(st.Steps))
		for j, step := range st.Steps {
			step.Text = strings.ReplaceAll(step.Text, workflow.PlaceholderReportReason, reason)
			steps[j] = step
		}
		st.Steps = steps
		stages[i] = st
	}
	def.Stages = stages
	return def
}

// EvaluateAll runs the detector over a batch of observations concurrently.
// Detection is pure computation, so unlike Patrol this can fan out.
func EvaluateAll(ctx context.Context, detector *detect.Detector, observations []models.ProductObservation, parallelism int) ([]models.DetectionVerdict, error) {
	if parallelism <= 0 {
		parallelism = 4
	}
	verdicts := make([]models.DetectionVerdict, len(observations))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, obs := range observations {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			verdicts[i] = detector.Detect(obs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return verdicts, nil
}
