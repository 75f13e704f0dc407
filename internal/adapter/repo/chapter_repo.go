package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/infra"
	"ledenbeheer/internal/sqlinline"
)

// ChapterRepositoryPG implements domain.ChapterRepository.
type ChapterRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewChapterRepository creates a new ChapterRepositoryPG.
func NewChapterRepository(sql infra.SQLExecutor) *ChapterRepositoryPG {
	return &ChapterRepositoryPG{sql: sql}
}

// Create inserts a chapter and fills in the generated id.
func (r *ChapterRepositoryPG) Create(ctx context.Context, c *domain.Chapter) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertChapter,
		c.Name, c.Region, c.PostalCodes, c.Published, c.Head)
	return row.Scan(&c.ID)
}

// GetByID fetches a chapter by UUID.
func (r *ChapterRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Chapter, error) {
	c, err := scanChapter(r.sql.QueryRow(ctx, sqlinline.QSelectChapterByID, id))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// GetByName fetches a chapter by name, case-insensitive.
func (r *ChapterRepositoryPG) GetByName(ctx context.Context, name string) (*domain.Chapter, error) {
	c, err := scanChapter(r.sql.QueryRow(ctx, sqlinline.QSelectChapterByName, name))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// Update persists the mutable chapter columns.
func (r *ChapterRepositoryPG) Update(ctx context.Context, c *domain.Chapter) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateChapter,
		c.ID, c.Name, c.Region, c.PostalCodes, c.Published, c.Head)
	return err
}

// List returns chapters, optionally only published ones.
func (r *ChapterRepositoryPG) List(ctx context.Context, publishedOnly bool) ([]domain.Chapter, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListChapters, publishedOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Chapter
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// AddBoardMember seats a member on the chapter board.
func (r *ChapterRepositoryPG) AddBoardMember(ctx context.Context, bm *domain.BoardMember) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertBoardMember,
		bm.Chapter, bm.Volunteer, bm.Member, bm.Role, bm.FromDate, bm.ToDate, bm.Active)
	return row.Scan(&bm.ID)
}

// EndBoardMember closes a board seat per the given end date.
func (r *ChapterRepositoryPG) EndBoardMember(ctx context.Context, id string, endDate time.Time) error {
	_, err := r.sql.Exec(ctx, sqlinline.QEndBoardMember, id, endDate)
	return err
}

// ListBoard returns a chapter's board seats.
func (r *ChapterRepositoryPG) ListBoard(ctx context.Context, chapterID string, activeOnly bool) ([]domain.BoardMember, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListBoardByChapter, chapterID, activeOnly)
	if err != nil {
		return nil, err
	}
	return collectBoardMembers(rows)
}

// ListBoardByMember returns the board seats a member holds across
// chapters.
func (r *ChapterRepositoryPG) ListBoardByMember(ctx context.Context, memberID string, activeOnly bool) ([]domain.BoardMember, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListBoardByMember, memberID, activeOnly)
	if err != nil {
		return nil, err
	}
	return collectBoardMembers(rows)
}

// AddChapterMember upserts a member onto the chapter list.
func (r *ChapterRepositoryPG) AddChapterMember(ctx context.Context, cm *domain.ChapterMember) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertChapterMember,
		cm.Chapter, cm.Member, cm.Enabled, cm.Introduction, cm.LeaveReason)
	return row.Scan(&cm.ID)
}

// ListChapterMembers returns the enabled members of a chapter.
func (r *ChapterRepositoryPG) ListChapterMembers(ctx context.Context, chapterID string, limit int) ([]domain.ChapterMember, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListChapterMembers, chapterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.ChapterMember
	for rows.Next() {
		var cm domain.ChapterMember
		if err := rows.Scan(&cm.ID, &cm.Chapter, &cm.Member, &cm.Enabled, &cm.Introduction, &cm.LeaveReason, &cm.JoinedAt); err != nil {
			return nil, err
		}
		items = append(items, cm)
	}
	return items, rows.Err()
}

// GetRole fetches a board role definition by name.
func (r *ChapterRepositoryPG) GetRole(ctx context.Context, name string) (*domain.ChapterRole, error) {
	var role domain.ChapterRole
	err := r.sql.QueryRow(ctx, sqlinline.QSelectChapterRole, name).Scan(
		&role.ID, &role.Name, &role.Chair, &role.Unique)
	if err != nil {
		return nil, notFound(err)
	}
	return &role, nil
}

// ListRoles returns all board role definitions.
func (r *ChapterRepositoryPG) ListRoles(ctx context.Context) ([]domain.ChapterRole, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListChapterRoles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.ChapterRole
	for rows.Next() {
		var role domain.ChapterRole
		if err := rows.Scan(&role.ID, &role.Name, &role.Chair, &role.Unique); err != nil {
			return nil, err
		}
		items = append(items, role)
	}
	return items, rows.Err()
}

func collectBoardMembers(rows pgx.Rows) ([]domain.BoardMember, error) {
	defer rows.Close()
	var items []domain.BoardMember
	for rows.Next() {
		var bm domain.BoardMember
		if err := rows.Scan(&bm.ID, &bm.Chapter, &bm.Volunteer, &bm.Member, &bm.Role, &bm.FromDate, &bm.ToDate, &bm.Active, &bm.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, bm)
	}
	return items, rows.Err()
}

func scanChapter(row pgx.Row) (*domain.Chapter, error) {
	var c domain.Chapter
	if err := row.Scan(&c.ID, &c.Name, &c.Region, &c.PostalCodes, &c.Published, &c.Head, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
