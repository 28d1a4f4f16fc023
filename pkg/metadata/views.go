package metadata

import "context"

// Devices returns the DeviceRepository view of p.
func (p *Postgres) Devices() DeviceRepository { return p }

// Profiles returns the ProfileRepository view of p.
func (p *Postgres) Profiles() ProfileRepository { return profileStore{p} }

// Users returns the UserRepository view of p.
func (p *Postgres) Users() UserRepository { return userStore{p} }

type profileStore struct{ p *Postgres }

func (s profileStore) List(ctx context.Context, tenantID string, page Page) ([]DeviceProfile, int, error) {
	return s.p.ListProfiles(ctx, tenantID, page)
}

func (s profileStore) Count(ctx context.Context, tenantID string) (int, error) {
	return s.p.CountProfiles(ctx, tenantID)
}

type userStore struct{ p *Postgres }

func (s userStore) FindByEmail(ctx context.Context, email string) (*User, string, error) {
	return s.p.FindByEmail(ctx, email)
}

func (s userStore) FindByID(ctx context.Context, id string) (*User, error) {
	return s.p.FindByID(ctx, id)
}

func (s userStore) List(ctx context.Context, tenantID string, page Page) ([]User, int, error) {
	return s.p.ListUsers(ctx, tenantID, page)
}

func (s userStore) RecordLogin(ctx context.Context, userID string, success bool) error {
	return s.p.RecordLogin(ctx, userID, success)
}
