// Package harvest defines core types shared across subsystems.
package harvest

import (
	"context"
	"time"
)

// TaskStatus represents the lifecycle state of a scraping task.
type TaskStatus string

// Task status values held in the registry.
const (
	TaskStatusQueued    TaskStatus = "queued"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Task tracks one submitted request across its whole combination batch.
// Snapshots returned by the registry are copies; mutating one has no effect
// on the stored record.
type Task struct {
	ID                string     `json:"task_id"`
	Status            TaskStatus `json:"status"`
	Progress          string     `json:"progress"`
	TotalCombinations int        `json:"total_combinations"`
	Error             string     `json:"error,omitempty"`
	StartedAt         time.Time  `json:"started_at"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
}

// Terminal reports whether the task has reached a final state.
func (t Task) Terminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// TaskUpdate carries partial task fields for a registry update. Nil fields
// are left unchanged.
type TaskUpdate struct {
	Status     *TaskStatus
	Progress   *string
	Error      *string
	FinishedAt *time.Time
}

// Combination is one (country, job keyword) pair from a request's cross
// product. It exists only as input to one orchestrator invocation.
type Combination struct {
	Country string
	Job     string
}

// Address holds the structured company address fields returned by the
// listing actor.
type Address struct {
	Street   string `json:"addressStreet"`
	Locality string `json:"addressLocality"`
	Region   string `json:"addressRegion"`
	Postal   string `json:"postalCode"`
	Country  string `json:"addressCountry"`
}

// Listing is one scraped job posting. Link is the dedup key; a listing
// without one is never appended to the sheet.
type Listing struct {
	Link           string  `json:"link"`
	Title          string  `json:"title"`
	CompanyName    string  `json:"companyName"`
	CompanyWebsite string  `json:"companyWebsite"`
	EmploymentType string  `json:"employmentType"`
	PostedAt       string  `json:"postedAt"`
	CompanyAddress Address `json:"companyAddress"`
}

// ContactRecord is one raw contact-detail fragment from the contact scraper.
// Several records may describe the same domain.
type ContactRecord struct {
	Domain          string   `json:"domain"`
	Emails          []string `json:"emails"`
	Phones          []string `json:"phones"`
	PhonesUncertain []string `json:"phonesUncertain"`
	LinkedIns       []string `json:"linkedIns"`
	Twitters        []string `json:"twitters"`
	Instagrams      []string `json:"instagrams"`
	Facebooks       []string `json:"facebooks"`
	YouTubes        []string `json:"youtubes"`
	TikToks         []string `json:"tiktoks"`
	Pinterests      []string `json:"pinterests"`
	Discords        []string `json:"discords"`
}

// ContactSummary is the aggregated, deduplicated view of all raw contact
// records for one company website.
type ContactSummary struct {
	Domain    string
	Phones    string
	Emails    string
	LinkedIn  string
	Twitter   string
	Instagram string
	Facebook  string
	YouTube   string
	TikTok    string
	Pinterest string
	Discord   string
}

// ListingScraper invokes the external job-listing service for one search URL.
type ListingScraper interface {
	ScrapeListings(ctx context.Context, searchURL string) ([]Listing, error)
}

// ContactScraper collects raw contact records for one company website.
type ContactScraper interface {
	ScrapeContacts(ctx context.Context, websiteURL string) ([]ContactRecord, error)
}

// Worksheet exposes the spreadsheet operations the orchestrator needs.
type Worksheet interface {
	// HeaderMap returns header name to 1-based column position.
	HeaderMap(ctx context.Context) (map[string]int, error)
	// ColumnValues returns one column's values excluding the header row.
	ColumnValues(ctx context.Context, column int) (map[string]struct{}, error)
	// AppendRow appends values ordered per ExpectedHeaders.
	AppendRow(ctx context.Context, row []string) error
}

// SheetOpener opens the target worksheet. Opening is a setup-phase call and
// its errors are batch-fatal.
type SheetOpener interface {
	Open(ctx context.Context) (Worksheet, error)
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces unique task identifiers.
type IDGenerator interface {
	NewID() (string, error)
}
