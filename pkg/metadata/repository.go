package metadata

import "context"

// DeviceRepository defines device persistence. Lookups return (nil, nil) for
// missing rows; errors are reserved for database failures.
type DeviceRepository interface {
	// FindByIDAndTenant returns the device only when it exists and is owned
	// by the tenant.
	FindByIDAndTenant(ctx context.Context, deviceID, tenantID string) (*Device, error)

	// List returns one page of a tenant's devices (newest first) plus the
	// total row count for the filter.
	List(ctx context.Context, tenantID string, filter DeviceFilter, page Page) ([]Device, int, error)

	// Counts aggregates a tenant's devices by type and profile. customerID
	// narrows the aggregation when non-empty.
	Counts(ctx context.Context, tenantID, customerID string) (*DeviceCounts, error)
}

// ProfileRepository defines device-profile persistence.
type ProfileRepository interface {
	List(ctx context.Context, tenantID string, page Page) ([]DeviceProfile, int, error)
	Count(ctx context.Context, tenantID string) (int, error)
}

// UserRepository defines user persistence for authentication and listing.
type UserRepository interface {
	// FindByEmail returns the user and their password hash, or (nil, "",
	// nil) when no such user exists.
	FindByEmail(ctx context.Context, email string) (*User, string, error)

	FindByID(ctx context.Context, id string) (*User, error)

	List(ctx context.Context, tenantID string, page Page) ([]User, int, error)

	// RecordLogin updates the login bookkeeping: success resets the failed
	// counter and stamps last_login, failure increments the counter.
	RecordLogin(ctx context.Context, userID string, success bool) error
}
