package harvest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRowValues_PositionsFieldsPerHeaders(t *testing.T) {
	t.Parallel()

	listing := Listing{
		Link:           "https://jobs/1",
		Title:          "Engineer",
		CompanyName:    "Acme",
		CompanyWebsite: "https://acme.io",
		EmploymentType: "Full-time",
		PostedAt:       "2026-08-01",
		CompanyAddress: Address{Locality: "Berlin", Country: "Germany"},
	}
	contacts := ContactSummary{
		Emails:   "info@acme.io",
		Phones:   "4930123",
		LinkedIn: "https://linkedin.com/company/acme",
	}

	row := RowValues(listing, contacts)

	require.Len(t, row, len(ExpectedHeaders))
	byHeader := map[string]string{}
	for i, h := range ExpectedHeaders {
		byHeader[h] = row[i]
	}
	require.Equal(t, "Acme", byHeader["companyName"])
	require.Equal(t, "Germany", byHeader["companyCountry"])
	require.Equal(t, "Berlin, Germany", byHeader["fullCompanyAddress"])
	require.Equal(t, "info@acme.io", byHeader["emails"])
	require.Equal(t, "https://jobs/1", byHeader["link"])
	require.Empty(t, byHeader["emailSent"])
}

func TestRowValues_MissingFieldsDefaultEmpty(t *testing.T) {
	t.Parallel()

	row := RowValues(Listing{Link: "https://jobs/2"}, ContactSummary{})

	for i, h := range ExpectedHeaders {
		if h == LinkHeader {
			require.Equal(t, "https://jobs/2", row[i])
			continue
		}
		require.Empty(t, row[i], "header %s", h)
	}
}
