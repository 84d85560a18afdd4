package harvest

// ExpectedHeaders is the fixed column set of the target spreadsheet, in
// append order. Rows are positioned against the sheet's actual header row at
// run time, so column reordering in the sheet does not corrupt appends, but
// every name listed here must exist.
var ExpectedHeaders = []string{
	"employmentType", "companyName", "companyCountry", "companyWebsite",
	"postedAt", "phones", "emails", "title", "linkedin", "link",
	"fullCompanyAddress", "twitter", "instagram", "facebook", "youtube",
	"tiktok", "pinterest", "discord", "emailSent",
}

// LinkHeader names the column used for duplicate suppression.
const LinkHeader = "link"

// RowValues assembles one output row for a listing and its contact summary,
// ordered per ExpectedHeaders. Missing fields default to empty values; the
// emailSent marker column is always left blank.
func RowValues(listing Listing, contacts ContactSummary) []string {
	fields := map[string]string{
		"employmentType":     listing.EmploymentType,
		"companyName":        listing.CompanyName,
		"companyCountry":     listing.CompanyAddress.Country,
		"companyWebsite":     listing.CompanyWebsite,
		"postedAt":           listing.PostedAt,
		"phones":             contacts.Phones,
		"emails":             contacts.Emails,
		"title":              listing.Title,
		"linkedin":           contacts.LinkedIn,
		"link":               listing.Link,
		"fullCompanyAddress": FormatAddress(listing.CompanyAddress),
		"twitter":            contacts.Twitter,
		"instagram":          contacts.Instagram,
		"facebook":           contacts.Facebook,
		"youtube":            contacts.YouTube,
		"tiktok":             contacts.TikTok,
		"pinterest":          contacts.Pinterest,
		"discord":            contacts.Discord,
	}
	row := make([]string, len(ExpectedHeaders))
	for i, header := range ExpectedHeaders {
		row[i] = fields[header]
	}
	return row
}
