package metadata

import (
	"context"
	"fmt"
)

// CreateTenant inserts a tenant, ignoring duplicates.
func (p *Postgres) CreateTenant(ctx context.Context, id, name string) error {
	_, err := p.pool.Exec(ctx,
		"INSERT INTO tenant (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING",
		id, name)
	if err != nil {
		return fmt.Errorf("metadata: create tenant: %w", err)
	}
	return nil
}

// CreateUser inserts a user and their credentials in one transaction.
func (p *Postgres) CreateUser(ctx context.Context, u User, passwordHash string) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("metadata: create user: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO app_user (id, tenant_id, email, first_name, last_name, authority)
		 VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING`,
		u.ID, u.TenantID, u.Email, u.FirstName, u.LastName, u.Authority)
	if err != nil {
		return fmt.Errorf("metadata: create user: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO user_credentials (user_id, password_hash)
		 VALUES ($1, $2) ON CONFLICT (user_id) DO UPDATE SET password_hash = $2`,
		u.ID, passwordHash)
	if err != nil {
		return fmt.Errorf("metadata: create credentials: %w", err)
	}

	return tx.Commit(ctx)
}

// CreateProfile inserts a device profile, ignoring duplicates.
func (p *Postgres) CreateProfile(ctx context.Context, dp DeviceProfile) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO device_profile (id, tenant_id, name, type, description, image)
		 VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING`,
		dp.ID, dp.TenantID, dp.Name, dp.Type, dp.Description, dp.Image)
	if err != nil {
		return fmt.Errorf("metadata: create profile: %w", err)
	}
	return nil
}

// CreateDevice inserts a device, ignoring duplicates.
func (p *Postgres) CreateDevice(ctx context.Context, d Device) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO device (id, tenant_id, customer_id, device_profile_id, name, type, label)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (id) DO NOTHING`,
		d.ID, d.TenantID, d.CustomerID, d.ProfileID, d.Name, d.Type, d.Label)
	if err != nil {
		return fmt.Errorf("metadata: create device: %w", err)
	}
	return nil
}
