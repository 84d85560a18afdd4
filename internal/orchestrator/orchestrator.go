// Package orchestrator runs one scraping task from listing search to
// spreadsheet rows.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"leadharvest/internal/archive"
	"leadharvest/internal/harvest"
	"leadharvest/internal/metrics"
	"leadharvest/internal/notify"
	"leadharvest/internal/registry"
)

// Orchestrator drives the scrape pipeline for submitted tasks. One Run call
// owns one task; nothing else writes to that task's registry record.
type Orchestrator struct {
	registry *registry.Registry
	listings harvest.ListingScraper
	contacts harvest.ContactScraper
	sheets   harvest.SheetOpener
	archive  archive.Provider
	notify   notify.Publisher
	clock    harvest.Clock
	logger   *zap.Logger

	// secrets maps required environment variable names to their loaded
	// values. Missing values fail the task at setup rather than the process
	// at startup, so the status endpoint can report which one is absent.
	secrets map[string]string
}

// New constructs an Orchestrator.
func New(
	reg *registry.Registry,
	listings harvest.ListingScraper,
	contacts harvest.ContactScraper,
	sheets harvest.SheetOpener,
	arch archive.Provider,
	pub notify.Publisher,
	clock harvest.Clock,
	secrets map[string]string,
	logger *zap.Logger,
) *Orchestrator {
	if arch == nil {
		arch = archive.NoOp{}
	}
	if pub == nil {
		pub = notify.NoOp{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		registry: reg,
		listings: listings,
		contacts: contacts,
		sheets:   sheets,
		archive:  arch,
		notify:   pub,
		clock:    clock,
		logger:   logger,
		secrets:  secrets,
	}
}

// Run processes every combination of a task in order and drives the task to a
// terminal status. Setup failures (missing secrets, unreachable or malformed
// spreadsheet) abort the whole batch; scraper and per-listing failures are
// logged and skipped.
func (o *Orchestrator) Run(ctx context.Context, taskID string, combos []harvest.Combination) {
	metrics.TaskStarted()
	defer metrics.TaskDone()

	log := o.logger.With(zap.String("task_id", taskID))

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("task panicked", zap.Any("panic", rec))
			o.finish(taskID, harvest.TaskStatusFailed, fmt.Sprintf("internal error: %v", rec))
		}
	}()

	running := harvest.TaskStatusRunning
	o.registry.Update(taskID, harvest.TaskUpdate{Status: &running})

	for i, combo := range combos {
		progress := fmt.Sprintf("Processing %d/%d: '%s' in '%s'", i+1, len(combos), combo.Job, combo.Country)
		o.registry.Update(taskID, harvest.TaskUpdate{Progress: &progress})
		log.Info("processing combination",
			zap.Int("index", i+1),
			zap.Int("total", len(combos)),
			zap.String("country", combo.Country),
			zap.String("job", combo.Job),
		)

		if err := o.runCombination(ctx, log, taskID, i, combo); err != nil {
			log.Error("task failed", zap.Error(err))
			o.finish(taskID, harvest.TaskStatusFailed, err.Error())
			return
		}
		metrics.CombinationProcessed()
	}

	done := fmt.Sprintf("Completed %d/%d combinations", len(combos), len(combos))
	o.registry.Update(taskID, harvest.TaskUpdate{Progress: &done})
	o.finish(taskID, harvest.TaskStatusCompleted, "")
}

// runCombination handles one (country, job) pair. A non-nil return is
// batch-fatal.
func (o *Orchestrator) runCombination(ctx context.Context, log *zap.Logger, taskID string, index int, combo harvest.Combination) error {
	if err := o.checkSecrets(); err != nil {
		return err
	}

	ws, err := o.sheets.Open(ctx)
	if err != nil {
		return fmt.Errorf("open spreadsheet: %w", err)
	}
	headers, err := ws.HeaderMap(ctx)
	if err != nil {
		return fmt.Errorf("read spreadsheet headers: %w", err)
	}
	if err := checkHeaders(headers); err != nil {
		return err
	}
	existing, err := ws.ColumnValues(ctx, headers[harvest.LinkHeader])
	if err != nil {
		return fmt.Errorf("read existing links: %w", err)
	}

	searchURL := harvest.BuildSearchURL(combo.Job, combo.Country)
	listings, err := o.listings.ScrapeListings(ctx, searchURL)
	if err != nil {
		metrics.ActorRun("listing", "error")
		log.Error("listing scrape failed",
			zap.String("country", combo.Country),
			zap.String("job", combo.Job),
			zap.Error(err),
		)
		return nil
	}
	metrics.ActorRun("listing", "success")

	o.archiveListings(ctx, log, taskID, index, listings)

	if len(listings) == 0 {
		log.Warn("no listings returned",
			zap.String("country", combo.Country),
			zap.String("job", combo.Job),
		)
		return nil
	}

	for _, listing := range listings {
		o.appendListing(ctx, log, taskID, combo, listing, ws, existing)
	}
	return nil
}

// appendListing enriches one listing with contact details and appends it to
// the sheet. Failures here never escape; a bad listing costs only itself.
func (o *Orchestrator) appendListing(
	ctx context.Context,
	log *zap.Logger,
	taskID string,
	combo harvest.Combination,
	listing harvest.Listing,
	ws harvest.Worksheet,
	existing map[string]struct{},
) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("listing processing panicked",
				zap.String("title", listing.Title),
				zap.Any("panic", rec),
			)
		}
	}()

	if listing.Link == "" {
		metrics.ListingSkipped("missing_link")
		log.Warn("skipping listing without link", zap.String("title", listing.Title))
		return
	}
	if _, ok := existing[listing.Link]; ok {
		metrics.ListingSkipped("existing_link")
		log.Info("skipping already recorded listing", zap.String("link", listing.Link))
		return
	}

	var summary harvest.ContactSummary
	if listing.CompanyWebsite != "" {
		records, err := o.contacts.ScrapeContacts(ctx, listing.CompanyWebsite)
		if err != nil {
			metrics.ActorRun("contact", "error")
			log.Error("contact scrape failed",
				zap.String("website", listing.CompanyWebsite),
				zap.String("title", listing.Title),
				zap.Error(err),
			)
		} else {
			metrics.ActorRun("contact", "success")
			summary = harvest.AggregateContacts(records)
		}
	}

	if err := ws.AppendRow(ctx, harvest.RowValues(listing, summary)); err != nil {
		log.Error("append row failed",
			zap.String("link", listing.Link),
			zap.String("title", listing.Title),
			zap.Error(err),
		)
		return
	}
	existing[listing.Link] = struct{}{}
	metrics.RowAppended()

	if _, err := o.notify.Publish(ctx, notify.RowEvent{
		TaskID:      taskID,
		Link:        listing.Link,
		Title:       listing.Title,
		CompanyName: listing.CompanyName,
		Country:     combo.Country,
		Job:         combo.Job,
	}); err != nil {
		log.Warn("row notification failed", zap.String("link", listing.Link), zap.Error(err))
	}
}

// archiveListings stores the raw listing payload for later inspection.
// Archive failures are logged and otherwise ignored.
func (o *Orchestrator) archiveListings(ctx context.Context, log *zap.Logger, taskID string, index int, listings []harvest.Listing) {
	data, err := json.Marshal(listings)
	if err != nil {
		log.Warn("marshal listings for archive failed", zap.Error(err))
		return
	}
	path := fmt.Sprintf("%s/combo-%03d-listings.json", taskID, index+1)
	uri, err := o.archive.Store(ctx, path, data)
	if err != nil {
		log.Warn("archive listings failed", zap.String("path", path), zap.Error(err))
		return
	}
	if uri != "" {
		log.Info("archived raw listings", zap.String("uri", uri))
	}
}

// checkSecrets verifies that every required credential was provided, in a
// deterministic order so the reported variable is stable.
func (o *Orchestrator) checkSecrets() error {
	names := make([]string, 0, len(o.secrets))
	for name := range o.secrets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if o.secrets[name] == "" {
			return fmt.Errorf("missing required environment variable %s", name)
		}
	}
	return nil
}

func checkHeaders(headers map[string]int) error {
	var missing []string
	for _, name := range harvest.ExpectedHeaders {
		if _, ok := headers[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("spreadsheet is missing required headers: %v", missing)
	}
	return nil
}

func (o *Orchestrator) finish(taskID string, status harvest.TaskStatus, errMsg string) {
	now := o.clock.Now()
	o.registry.Update(taskID, harvest.TaskUpdate{
		Status:     &status,
		Error:      &errMsg,
		FinishedAt: &now,
	})
	metrics.TaskFinished(string(status))
}
