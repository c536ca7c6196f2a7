package ports

import "context"

// Notifier delivers outbound messages. Callers treat it as fire-and-forget.
type Notifier interface {
	Send(ctx context.Context, to, template string, variables map[string]string) error
	// SignalLogout tells other sessions of a user to end.
	SignalLogout(ctx context.Context, userID int64) error
}

// LocaleHelper resolves a display clock for a person.
type LocaleHelper interface {
	// LocalTimeFor returns the current local time, e.g. "3:04 PM", for a
	// stored time-zone code, falling back to the zone of the phone number.
	LocalTimeFor(timeZoneCode, phone string) string
}

// ERPClient issues calls back into the ERP.
type ERPClient interface {
	CreateLead(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error)
	CreateOrUpdateAddress(ctx context.Context, customerID int64, payload map[string]interface{}) (map[string]interface{}, error)
	// RefreshCustomer asks the ERP to push the record again.
	RefreshCustomer(ctx context.Context, customerID int64) error
}

// RetryEntry names a record whose sync failed.
type RetryEntry struct {
	Collection string
	Key        int64
}

// RetryQueue holds records whose sync failed. Pending is ordered by
// collection, then key.
type RetryQueue interface {
	Add(ctx context.Context, entry RetryEntry) error
	Pending(ctx context.Context) ([]RetryEntry, error)
	Remove(ctx context.Context, entry RetryEntry) error
}
