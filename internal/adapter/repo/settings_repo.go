package repo

import (
	"context"
	"errors"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/infra"
	"ledenbeheer/internal/sqlinline"
)

// SettingsRepositoryPG implements domain.SettingsRepository.
type SettingsRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewSettingsRepository creates a new settings repository backed by PostgreSQL.
func NewSettingsRepository(sql infra.SQLExecutor) *SettingsRepositoryPG {
	return &SettingsRepositoryPG{sql: sql}
}

// Get loads the configuration row, ErrNotFound on a fresh database.
func (r *SettingsRepositoryPG) Get(ctx context.Context) (*domain.Settings, error) {
	var (
		s    domain.Settings
		days []int32
	)
	err := r.sql.QueryRow(ctx, sqlinline.QSelectSettings).Scan(
		&s.ID, &s.OrganizationName, &s.LastMemberNumber, &s.CompanyIBAN, &s.CompanyBIC,
		&s.CompanyAccountHolder, &s.CreditorID, &days, &s.CollectionLeadDays,
		&s.BatchAutoSubmit, &s.InvoiceDueDays, &s.EnableChapters, &s.EnablePortal,
		&s.AnbiRSIN, &s.AnbiPublishedName, &s.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	s.BatchCreationDays = make([]int, len(days))
	for i, d := range days {
		s.BatchCreationDays[i] = int(d)
	}
	return &s, nil
}

// Save writes the configuration, creating the row on first use. The
// member counter is only seeded here; later changes go through
// BumpMemberNumber so concurrent registrations stay serialized.
func (r *SettingsRepositoryPG) Save(ctx context.Context, s *domain.Settings) error {
	days := make([]int32, len(s.BatchCreationDays))
	for i, d := range s.BatchCreationDays {
		days[i] = int32(d)
	}
	if s.ID == "" {
		existing, err := r.Get(ctx)
		switch {
		case err == nil:
			s.ID = existing.ID
		case errors.Is(err, domain.ErrNotFound):
			// fall through to insert
		default:
			return err
		}
	}
	if s.ID == "" {
		return r.sql.QueryRow(ctx, sqlinline.QInsertSettings,
			s.OrganizationName, s.LastMemberNumber, s.CompanyIBAN, s.CompanyBIC,
			s.CompanyAccountHolder, s.CreditorID, days, s.CollectionLeadDays,
			s.BatchAutoSubmit, s.InvoiceDueDays, s.EnableChapters, s.EnablePortal,
			s.AnbiRSIN, s.AnbiPublishedName,
		).Scan(&s.ID)
	}
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateSettings,
		s.ID, s.OrganizationName, s.CompanyIBAN, s.CompanyBIC,
		s.CompanyAccountHolder, s.CreditorID, days, s.CollectionLeadDays,
		s.BatchAutoSubmit, s.InvoiceDueDays, s.EnableChapters, s.EnablePortal,
		s.AnbiRSIN, s.AnbiPublishedName,
	)
	return err
}

// BumpMemberNumber atomically advances the member counter and returns
// the freshly assigned number.
func (r *SettingsRepositoryPG) BumpMemberNumber(ctx context.Context) (int, error) {
	var n int
	err := r.sql.QueryRow(ctx, sqlinline.QBumpMemberNumber, domain.MemberNumberStart).Scan(&n)
	if err != nil {
		return 0, notFound(err)
	}
	return n, nil
}
