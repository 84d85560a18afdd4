// Package contactcrawl implements a contact-detail scraper on top of colly.
// It is the built-in alternative to the hosted contact actor: a bounded
// same-domain crawl that collects emails, phone numbers and social links.
package contactcrawl

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"leadharvest/internal/harvest"
)

// Config bounds one crawl.
type Config struct {
	UserAgent   string
	MaxDepth    int
	MaxRequests int
	Timeout     time.Duration
}

// Crawler implements harvest.ContactScraper.
type Crawler struct {
	cfg    Config
	logger *zap.Logger
}

// New builds a Crawler.
func New(cfg Config, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 2
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Crawler{cfg: cfg, logger: logger}
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// assetSuffixes filters regex matches that are file names, not addresses.
var assetSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".css", ".js"}

// ScrapeContacts crawls the website same-domain up to the configured depth
// and request cap, producing one raw contact record per visited page.
func (c *Crawler) ScrapeContacts(ctx context.Context, websiteURL string) ([]harvest.ContactRecord, error) {
	parsed, err := url.Parse(websiteURL)
	if err != nil {
		return nil, fmt.Errorf("parse website url %q: %w", websiteURL, err)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("website url %q has no host", websiteURL)
	}
	// Colly matches allowed domains against the hostname without port.
	host := strings.TrimPrefix(parsed.Hostname(), "www.")

	collector := colly.NewCollector(
		colly.MaxDepth(c.cfg.MaxDepth),
		colly.AllowedDomains(host, "www."+host),
	)
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	collector.SetRequestTimeout(c.cfg.Timeout)

	var (
		mu       sync.Mutex
		requests int
		records  []harvest.ContactRecord
	)

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if requests >= c.cfg.MaxRequests {
			r.Abort()
			return
		}
		requests++
	})

	collector.OnHTML("html", func(e *colly.HTMLElement) {
		record := c.extractPage(e, host)
		mu.Lock()
		records = append(records, record)
		mu.Unlock()
	})

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		href := e.Attr("href")
		if strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
			return
		}
		// Visit errors here mean the link was off-domain, already seen or
		// over budget; all are expected mid-crawl.
		_ = e.Request.Visit(e.Request.AbsoluteURL(href))
	})

	collector.OnError(func(r *colly.Response, err error) {
		c.logger.Debug("contact crawl fetch failed",
			zap.String("url", r.Request.URL.String()),
			zap.Error(err),
		)
	})

	if err := collector.Visit(websiteURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", websiteURL, err)
	}
	collector.Wait()

	return records, nil
}

func (c *Crawler) extractPage(e *colly.HTMLElement, domain string) harvest.ContactRecord {
	record := harvest.ContactRecord{Domain: domain}

	body := e.DOM.Text()
	for _, email := range emailPattern.FindAllString(body, -1) {
		if looksLikeAsset(email) {
			continue
		}
		record.Emails = append(record.Emails, email)
	}

	e.ForEach("a[href]", func(_ int, a *colly.HTMLElement) {
		href := strings.TrimSpace(a.Attr("href"))
		switch {
		case strings.HasPrefix(href, "mailto:"):
			addr := strings.TrimPrefix(href, "mailto:")
			if i := strings.IndexByte(addr, '?'); i >= 0 {
				addr = addr[:i]
			}
			if addr != "" && !looksLikeAsset(addr) {
				record.Emails = append(record.Emails, addr)
			}
		case strings.HasPrefix(href, "tel:"):
			if num := strings.TrimPrefix(href, "tel:"); num != "" {
				record.Phones = append(record.Phones, num)
			}
		default:
			classifySocial(href, &record)
		}
	})

	return record
}

func looksLikeAsset(email string) bool {
	lower := strings.ToLower(email)
	for _, suffix := range assetSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// classifySocial buckets an external link by platform host.
func classifySocial(href string, record *harvest.ContactRecord) {
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	switch {
	case host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com"):
		record.LinkedIns = append(record.LinkedIns, href)
	case host == "twitter.com" || host == "x.com":
		record.Twitters = append(record.Twitters, href)
	case host == "instagram.com":
		record.Instagrams = append(record.Instagrams, href)
	case host == "facebook.com" || host == "fb.com":
		record.Facebooks = append(record.Facebooks, href)
	case host == "youtube.com" || host == "youtu.be":
		record.YouTubes = append(record.YouTubes, href)
	case host == "tiktok.com":
		record.TikToks = append(record.TikToks, href)
	case host == "pinterest.com":
		record.Pinterests = append(record.Pinterests, href)
	case host == "discord.com" || host == "discord.gg":
		record.Discords = append(record.Discords, href)
	}
}
