package harvest

import (
	"sort"
	"strings"
)

// AggregateContacts merges raw contact records into one normalized summary.
// Emails are trimmed, lower-cased, deduplicated and sorted; phone values
// (confident and uncertain) are stripped to digits, deduplicated and sorted.
// Sorting makes the joined fields independent of record order. Social links
// keep first-seen order so each platform's single link is deterministic.
func AggregateContacts(records []ContactRecord) ContactSummary {
	if len(records) == 0 {
		return ContactSummary{}
	}

	emails := newOrderedSet()
	phones := newOrderedSet()
	socials := map[string]*orderedSet{}
	for _, platform := range socialPlatforms {
		socials[platform] = newOrderedSet()
	}

	for _, rec := range records {
		for _, e := range rec.Emails {
			emails.add(normalizeEmail(e))
		}
		for _, p := range rec.Phones {
			phones.add(normalizePhone(p))
		}
		for _, p := range rec.PhonesUncertain {
			phones.add(normalizePhone(p))
		}
		socials["linkedin"].addAll(rec.LinkedIns)
		socials["twitter"].addAll(rec.Twitters)
		socials["instagram"].addAll(rec.Instagrams)
		socials["facebook"].addAll(rec.Facebooks)
		socials["youtube"].addAll(rec.YouTubes)
		socials["tiktok"].addAll(rec.TikToks)
		socials["pinterest"].addAll(rec.Pinterests)
		socials["discord"].addAll(rec.Discords)
	}

	return ContactSummary{
		Domain:    records[0].Domain,
		Emails:    joinSorted(emails),
		Phones:    joinSorted(phones),
		LinkedIn:  socials["linkedin"].first(),
		Twitter:   socials["twitter"].first(),
		Instagram: socials["instagram"].first(),
		Facebook:  socials["facebook"].first(),
		YouTube:   socials["youtube"].first(),
		TikTok:    socials["tiktok"].first(),
		Pinterest: socials["pinterest"].first(),
		Discord:   socials["discord"].first(),
	}
}

var socialPlatforms = []string{
	"linkedin", "twitter", "instagram", "facebook",
	"youtube", "tiktok", "pinterest", "discord",
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizePhone strips every non-digit character. Values that become empty
// are dropped by the caller.
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// orderedSet keeps unique non-empty values in first-seen order.
type orderedSet struct {
	seen   map[string]struct{}
	values []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: map[string]struct{}{}}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.values = append(s.values, v)
}

func (s *orderedSet) addAll(vs []string) {
	for _, v := range vs {
		s.add(v)
	}
}

func (s *orderedSet) first() string {
	if len(s.values) == 0 {
		return ""
	}
	return s.values[0]
}

func joinSorted(s *orderedSet) string {
	sorted := make([]string, len(s.values))
	copy(sorted, s.values)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}
