package harvest

import (
	"net/url"
	"strings"
)

const searchBaseURL = "https://www.linkedin.com/jobs/search/"

// BuildSearchURL builds a job-search URL from a keyword and a location. The
// listing actor accepts the full URL, so any extra filters belong in the URL
// itself, not here.
func BuildSearchURL(keyword, location string) string {
	params := url.Values{}
	params.Set("keywords", keyword)
	params.Set("location", location)
	return searchBaseURL + "?" + params.Encode()
}

// FormatAddress joins the non-empty address components into one readable
// string.
func FormatAddress(a Address) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.Locality, a.Region, a.Postal, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// ExpandCombinations computes the cross product of countries and jobs,
// discarding pairs with an empty side. Countries drive the outer loop so the
// order is reproducible for a given input.
func ExpandCombinations(countries, jobs []string) []Combination {
	combos := make([]Combination, 0, len(countries)*len(jobs))
	for _, country := range countries {
		if strings.TrimSpace(country) == "" {
			continue
		}
		for _, job := range jobs {
			if strings.TrimSpace(job) == "" {
				continue
			}
			combos = append(combos, Combination{Country: country, Job: job})
		}
	}
	return combos
}
