package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"ledenbeheer/internal/anbi"
	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/infra"
	"ledenbeheer/internal/sqlinline"
)

// DonorRepositoryPG implements domain.DonorRepository. BSNs are
// encrypted in the database with pgcrypto; reads decrypt in SQL and
// the repo masks the value before it leaves this package.
type DonorRepositoryPG struct {
	sql infra.SQLExecutor
	key string
}

// NewDonorRepository creates a new DonorRepositoryPG with the
// symmetric encryption key for tax identifiers.
func NewDonorRepository(sql infra.SQLExecutor, encryptionKey string) *DonorRepositoryPG {
	return &DonorRepositoryPG{sql: sql, key: encryptionKey}
}

// Create inserts a donor, encrypting the BSN when present.
func (r *DonorRepositoryPG) Create(ctx context.Context, d *domain.Donor) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertDonor,
		d.Name, string(d.Type), d.Email, d.BSN, r.key,
		d.RSIN, d.IdentityVerified, d.VerificationMethod, d.VerifiedAt, d.ANBIConsent, d.ANBIConsentAt,
	)
	if err := row.Scan(&d.ID); err != nil {
		return err
	}
	d.BSN = anbi.Mask(d.BSN)
	return nil
}

// GetByID fetches a donor by UUID with the BSN masked.
func (r *DonorRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Donor, error) {
	d, err := scanDonor(r.sql.QueryRow(ctx, sqlinline.QSelectDonorByID, id, r.key))
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

// GetByEmail fetches a donor by email with the BSN masked.
func (r *DonorRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.Donor, error) {
	d, err := scanDonor(r.sql.QueryRow(ctx, sqlinline.QSelectDonorByEmail, email, r.key))
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

// Update persists donor columns. Tax identifiers are deliberately not
// part of this statement; use SetTaxID.
func (r *DonorRepositoryPG) Update(ctx context.Context, d *domain.Donor) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateDonor,
		d.ID, d.Name, string(d.Type), d.Email,
		d.IdentityVerified, d.VerificationMethod, d.VerifiedAt, d.ANBIConsent, d.ANBIConsentAt,
	)
	return err
}

// SetTaxID stores a donor's BSN (encrypted) and RSIN.
func (r *DonorRepositoryPG) SetTaxID(ctx context.Context, id, bsn, rsin string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QSetDonorTaxID, id, bsn, rsin, r.key)
	return err
}

// RevealTaxID returns the decrypted BSN and RSIN. The only caller is
// the annual report path, which checks permissions and logs the access.
func (r *DonorRepositoryPG) RevealTaxID(ctx context.Context, id string) (string, string, error) {
	var d domain.Donor
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectDonorByID, id, r.key).Scan(
		&d.ID, &d.Name, &d.Type, &d.Email, &d.BSN,
		&d.RSIN, &d.IdentityVerified, &d.VerificationMethod, &d.VerifiedAt,
		&d.ANBIConsent, &d.ANBIConsentAt, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return "", "", notFound(err)
	}
	return d.BSN, d.RSIN, nil
}

// List pages through donors ordered by name, BSNs masked.
func (r *DonorRepositoryPG) List(ctx context.Context, limit, offset int) ([]domain.Donor, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListDonors, limit, offset, r.key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Donor
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

// ListMissingConsent returns donors with at least one paid donation but
// no ANBI consent on file, for the consent chase list.
func (r *DonorRepositoryPG) ListMissingConsent(ctx context.Context, limit int) ([]domain.Donor, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListDonorsMissingConsent, limit, r.key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Donor
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

// ConsentCoverage counts donors with ANBI consent against the total.
func (r *DonorRepositoryPG) ConsentCoverage(ctx context.Context) (int, int, error) {
	var consented, total int
	err := r.sql.QueryRow(ctx, sqlinline.QDonorConsentCoverage).Scan(&consented, &total)
	return consented, total, err
}

func scanDonor(row pgx.Row) (*domain.Donor, error) {
	var d domain.Donor
	if err := row.Scan(
		&d.ID, &d.Name, &d.Type, &d.Email, &d.BSN,
		&d.RSIN, &d.IdentityVerified, &d.VerificationMethod, &d.VerifiedAt,
		&d.ANBIConsent, &d.ANBIConsentAt, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.BSN = anbi.Mask(d.BSN)
	return &d, nil
}
