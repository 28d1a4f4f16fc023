// Package metadata provides the relational metadata store: tenants, users,
// devices and device profiles live in Postgres; telemetry itself does not.
package metadata

import "time"

// Device is a registered device owned by a tenant.
type Device struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	CustomerID  *string   `json:"customer_id,omitempty"`
	ProfileID   *string   `json:"device_profile_id,omitempty"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Label       *string   `json:"label,omitempty"`
	CreatedTime time.Time `json:"created_time"`
}

// DeviceProfile describes a class of devices.
type DeviceProfile struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description *string   `json:"description,omitempty"`
	Image       *string   `json:"image,omitempty"`
	CreatedTime time.Time `json:"created_time"`
}

// User is a platform user. The password hash lives in a separate credentials
// table and never leaves this package.
type User struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Authority   string    `json:"authority"`
	CreatedTime time.Time `json:"created_time"`
}

// AuthorityTenantAdmin is the authority required for the admin surface.
const AuthorityTenantAdmin = "TENANT_ADMIN"

// Page is a 1-based pagination request.
type Page struct {
	Number int
	Size   int
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	n := p.Number
	if n < 1 {
		n = 1
	}
	return (n - 1) * p.Size
}

// DeviceFilter narrows a device listing. Empty fields are ignored.
type DeviceFilter struct {
	CustomerID string
	Type       string
	ProfileID  string
}

// TypeCount is a device count grouped by type.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// ProfileCount is a device count grouped by profile.
type ProfileCount struct {
	ProfileID   *string `json:"profile_id"`
	ProfileName *string `json:"profile_name"`
	Count       int     `json:"count"`
}

// DeviceCounts aggregates device counts for a tenant.
type DeviceCounts struct {
	Total     int            `json:"total"`
	ByType    []TypeCount    `json:"by_type"`
	ByProfile []ProfileCount `json:"by_profile"`
}
