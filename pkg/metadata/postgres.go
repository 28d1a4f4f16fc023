package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements the repository interfaces on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres with the given DSN and verifies the connection.
// Callers must Close the returned store.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("metadata: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("metadata: ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

const deviceColumns = "id, tenant_id, customer_id, device_profile_id, name, type, label, created_time"

func scanDevice(row pgx.Row) (*Device, error) {
	var d Device
	err := row.Scan(&d.ID, &d.TenantID, &d.CustomerID, &d.ProfileID, &d.Name, &d.Type, &d.Label, &d.CreatedTime)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// FindByIDAndTenant returns the device, or nil when it does not exist or
// belongs to another tenant.
func (p *Postgres) FindByIDAndTenant(ctx context.Context, deviceID, tenantID string) (*Device, error) {
	row := p.pool.QueryRow(ctx,
		"SELECT "+deviceColumns+" FROM device WHERE id = $1 AND tenant_id = $2",
		deviceID, tenantID)

	d, err := scanDevice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("metadata: find device: %w", err)
	}
	return d, nil
}

// List returns one page of devices, newest first, plus the filtered total.
func (p *Postgres) List(ctx context.Context, tenantID string, filter DeviceFilter, page Page) ([]Device, int, error) {
	where := "WHERE tenant_id = $1"
	args := []any{tenantID}

	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		where += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.ProfileID != "" {
		args = append(args, filter.ProfileID)
		where += fmt.Sprintf(" AND device_profile_id = $%d", len(args))
	}

	var total int
	if err := p.pool.QueryRow(ctx, "SELECT count(*) FROM device "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("metadata: count devices: %w", err)
	}

	args = append(args, page.Size, page.Offset())
	query := fmt.Sprintf("SELECT %s FROM device %s ORDER BY created_time DESC LIMIT $%d OFFSET $%d",
		deviceColumns, where, len(args)-1, len(args))

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("metadata: list devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("metadata: scan device: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("metadata: list devices: %w", err)
	}
	return devices, total, nil
}

// Counts aggregates a tenant's devices by type and by profile.
func (p *Postgres) Counts(ctx context.Context, tenantID, customerID string) (*DeviceCounts, error) {
	where := "WHERE tenant_id = $1"
	joinedWhere := "WHERE d.tenant_id = $1"
	args := []any{tenantID}
	if customerID != "" {
		args = append(args, customerID)
		where += " AND customer_id = $2"
		joinedWhere += " AND d.customer_id = $2"
	}

	counts := &DeviceCounts{}
	if err := p.pool.QueryRow(ctx, "SELECT count(*) FROM device "+where, args...).Scan(&counts.Total); err != nil {
		return nil, fmt.Errorf("metadata: device total: %w", err)
	}

	rows, err := p.pool.Query(ctx,
		"SELECT type, count(*) FROM device "+where+" GROUP BY type ORDER BY type", args...)
	if err != nil {
		return nil, fmt.Errorf("metadata: devices by type: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, fmt.Errorf("metadata: scan type count: %w", err)
		}
		counts.ByType = append(counts.ByType, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metadata: devices by type: %w", err)
	}

	rows, err = p.pool.Query(ctx,
		`SELECT d.device_profile_id, p.name, count(*)
		 FROM device d LEFT JOIN device_profile p ON p.id = d.device_profile_id
		 `+joinedWhere+`
		 GROUP BY d.device_profile_id, p.name ORDER BY p.name NULLS LAST`, args...)
	if err != nil {
		return nil, fmt.Errorf("metadata: devices by profile: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pc ProfileCount
		if err := rows.Scan(&pc.ProfileID, &pc.ProfileName, &pc.Count); err != nil {
			return nil, fmt.Errorf("metadata: scan profile count: %w", err)
		}
		counts.ByProfile = append(counts.ByProfile, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metadata: devices by profile: %w", err)
	}

	return counts, nil
}

const profileColumns = "id, tenant_id, name, type, description, image, created_time"

// ListProfiles returns one page of device profiles plus the total count.
func (p *Postgres) ListProfiles(ctx context.Context, tenantID string, page Page) ([]DeviceProfile, int, error) {
	var total int
	if err := p.pool.QueryRow(ctx,
		"SELECT count(*) FROM device_profile WHERE tenant_id = $1", tenantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("metadata: count profiles: %w", err)
	}

	rows, err := p.pool.Query(ctx,
		"SELECT "+profileColumns+" FROM device_profile WHERE tenant_id = $1 ORDER BY name LIMIT $2 OFFSET $3",
		tenantID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("metadata: list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []DeviceProfile
	for rows.Next() {
		var dp DeviceProfile
		if err := rows.Scan(&dp.ID, &dp.TenantID, &dp.Name, &dp.Type, &dp.Description, &dp.Image, &dp.CreatedTime); err != nil {
			return nil, 0, fmt.Errorf("metadata: scan profile: %w", err)
		}
		profiles = append(profiles, dp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("metadata: list profiles: %w", err)
	}
	return profiles, total, nil
}

// CountProfiles returns the number of profiles for a tenant.
func (p *Postgres) CountProfiles(ctx context.Context, tenantID string) (int, error) {
	var total int
	err := p.pool.QueryRow(ctx,
		"SELECT count(*) FROM device_profile WHERE tenant_id = $1", tenantID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("metadata: count profiles: %w", err)
	}
	return total, nil
}

const userColumns = "id, tenant_id, email, first_name, last_name, authority, created_time"

// FindByEmail returns the user and their bcrypt password hash, or (nil, "",
// nil) when the email is unknown or has no credentials.
func (p *Postgres) FindByEmail(ctx context.Context, email string) (*User, string, error) {
	var u User
	var hash string
	err := p.pool.QueryRow(ctx,
		`SELECT u.id, u.tenant_id, u.email, u.first_name, u.last_name, u.authority, u.created_time, c.password_hash
		 FROM app_user u JOIN user_credentials c ON c.user_id = u.id
		 WHERE u.email = $1`, email).
		Scan(&u.ID, &u.TenantID, &u.Email, &u.FirstName, &u.LastName, &u.Authority, &u.CreatedTime, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("metadata: find user: %w", err)
	}
	return &u, hash, nil
}

// FindByID returns the user, or nil when missing.
func (p *Postgres) FindByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := p.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM app_user WHERE id = $1", id).
		Scan(&u.ID, &u.TenantID, &u.Email, &u.FirstName, &u.LastName, &u.Authority, &u.CreatedTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("metadata: find user: %w", err)
	}
	return &u, nil
}

// ListUsers returns one page of a tenant's users plus the total count.
func (p *Postgres) ListUsers(ctx context.Context, tenantID string, page Page) ([]User, int, error) {
	var total int
	if err := p.pool.QueryRow(ctx,
		"SELECT count(*) FROM app_user WHERE tenant_id = $1", tenantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("metadata: count users: %w", err)
	}

	rows, err := p.pool.Query(ctx,
		"SELECT "+userColumns+" FROM app_user WHERE tenant_id = $1 ORDER BY email LIMIT $2 OFFSET $3",
		tenantID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("metadata: list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.TenantID, &u.Email, &u.FirstName, &u.LastName, &u.Authority, &u.CreatedTime); err != nil {
			return nil, 0, fmt.Errorf("metadata: scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("metadata: list users: %w", err)
	}
	return users, total, nil
}

// RecordLogin updates login bookkeeping for a user.
func (p *Postgres) RecordLogin(ctx context.Context, userID string, success bool) error {
	var err error
	if success {
		_, err = p.pool.Exec(ctx,
			"UPDATE app_user SET failed_login_attempts = 0, last_login = now() WHERE id = $1", userID)
	} else {
		_, err = p.pool.Exec(ctx,
			"UPDATE app_user SET failed_login_attempts = failed_login_attempts + 1 WHERE id = $1", userID)
	}
	if err != nil {
		return fmt.Errorf("metadata: record login: %w", err)
	}
	return nil
}
