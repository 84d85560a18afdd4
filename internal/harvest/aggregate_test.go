package harvest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAggregateContacts_EmptyInput(t *testing.T) {
	t.Parallel()

	require.Equal(t, ContactSummary{}, AggregateContacts(nil))
	require.Equal(t, ContactSummary{}, AggregateContacts([]ContactRecord{}))
}

func TestAggregateContacts_EmailNormalization(t *testing.T) {
	t.Parallel()

	summary := AggregateContacts([]ContactRecord{
		{Emails: []string{"  A@B.com", "a@b.com"}},
	})

	require.Equal(t, "a@b.com", summary.Emails)
}

func TestAggregateContacts_PhoneNormalization(t *testing.T) {
	t.Parallel()

	summary := AggregateContacts([]ContactRecord{
		{Phones: []string{"(555) 123-4567"}},
		{PhonesUncertain: []string{"555-123-4567 "}},
	})

	require.Equal(t, "5551234567", summary.Phones)
}

func TestAggregateContacts_DropsEmptyPhones(t *testing.T) {
	t.Parallel()

	summary := AggregateContacts([]ContactRecord{
		{Phones: []string{"ext.", "-", "555 0100"}},
	})

	require.Equal(t, "5550100", summary.Phones)
}

func TestAggregateContacts_OrderIndependent(t *testing.T) {
	t.Parallel()

	forward := AggregateContacts([]ContactRecord{
		{Emails: []string{"b@x.com", "a@x.com"}, Phones: []string{"111", "222"}},
	})
	reversed := AggregateContacts([]ContactRecord{
		{Emails: []string{"a@x.com"}, Phones: []string{"222"}},
		{Emails: []string{"b@x.com"}, Phones: []string{"111"}},
	})

	require.Equal(t, forward.Emails, reversed.Emails)
	require.Equal(t, forward.Phones, reversed.Phones)
	require.Equal(t, "a@x.com, b@x.com", forward.Emails)
	require.Equal(t, "111, 222", forward.Phones)
}

func TestAggregateContacts_SocialFirstUnique(t *testing.T) {
	t.Parallel()

	summary := AggregateContacts([]ContactRecord{
		{LinkedIns: []string{"https://x", "https://x", "https://y"}},
		{Twitters: []string{"", "https://t"}},
	})

	require.Equal(t, "https://x", summary.LinkedIn)
	require.Equal(t, "https://t", summary.Twitter)
	require.Empty(t, summary.Instagram)
}

func TestAggregateContacts_SocialsAcrossRecords(t *testing.T) {
	t.Parallel()

	summary := AggregateContacts([]ContactRecord{
		{Domain: "acme.io", Facebooks: []string{"https://fb/acme"}},
		{Domain: "other.io", Facebooks: []string{"https://fb/other"}, Discords: []string{"https://dc/acme"}},
	})

	require.Equal(t, "acme.io", summary.Domain)
	require.Equal(t, "https://fb/acme", summary.Facebook)
	require.Equal(t, "https://dc/acme", summary.Discord)
}
