package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/infra"
	"ledenbeheer/internal/sqlinline"
)

// VolunteerRepositoryPG implements domain.VolunteerRepository.
type VolunteerRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewVolunteerRepository creates a new VolunteerRepositoryPG.
func NewVolunteerRepository(sql infra.SQLExecutor) *VolunteerRepositoryPG {
	return &VolunteerRepositoryPG{sql: sql}
}

// Create inserts a volunteer and fills in the generated id.
func (r *VolunteerRepositoryPG) Create(ctx context.Context, v *domain.Volunteer) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertVolunteer,
		v.Member, v.Name, v.Email, string(v.Status), v.StartDate, v.EndDate)
	return row.Scan(&v.ID)
}

// GetByID fetches a volunteer by UUID.
func (r *VolunteerRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Volunteer, error) {
	v, err := scanVolunteer(r.sql.QueryRow(ctx, sqlinline.QSelectVolunteerByID, id))
	if err != nil {
		return nil, notFound(err)
	}
	return v, nil
}

// GetByMember fetches the volunteer record behind a member.
func (r *VolunteerRepositoryPG) GetByMember(ctx context.Context, memberID string) (*domain.Volunteer, error) {
	v, err := scanVolunteer(r.sql.QueryRow(ctx, sqlinline.QSelectVolunteerByMember, memberID))
	if err != nil {
		return nil, notFound(err)
	}
	return v, nil
}

// Update persists the mutable volunteer columns.
func (r *VolunteerRepositoryPG) Update(ctx context.Context, v *domain.Volunteer) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateVolunteer,
		v.ID, v.Name, v.Email, string(v.Status), v.StartDate, v.EndDate)
	return err
}

// List returns volunteers, optionally filtered by status.
func (r *VolunteerRepositoryPG) List(ctx context.Context, status domain.VolunteerStatus, limit int) ([]domain.Volunteer, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListVolunteers, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Volunteer
	for rows.Next() {
		v, err := scanVolunteer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *v)
	}
	return items, rows.Err()
}

// ListAssignments unions board seats, team memberships and standalone
// activities into one assignment view.
func (r *VolunteerRepositoryPG) ListAssignments(ctx context.Context, volunteerID string, activeOnly bool) ([]domain.Assignment, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListVolunteerAssignments, volunteerID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Assignment
	for rows.Next() {
		var a domain.Assignment
		if err := rows.Scan(&a.Source, &a.Reference, &a.Role, &a.StartDate, &a.EndDate, &a.Active); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// CreateTeam inserts a team and fills in the generated id.
func (r *VolunteerRepositoryPG) CreateTeam(ctx context.Context, t *domain.Team) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertTeam, t.Name, t.Chapter, t.Status)
	return row.Scan(&t.ID)
}

// GetTeam fetches a team by UUID.
func (r *VolunteerRepositoryPG) GetTeam(ctx context.Context, id string) (*domain.Team, error) {
	var t domain.Team
	err := r.sql.QueryRow(ctx, sqlinline.QSelectTeamByID, id).Scan(
		&t.ID, &t.Name, &t.Chapter, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// UpdateTeam persists the mutable team columns.
func (r *VolunteerRepositoryPG) UpdateTeam(ctx context.Context, t *domain.Team) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateTeam, t.ID, t.Name, t.Chapter, t.Status)
	return err
}

// ListTeams returns teams, optionally only active ones.
func (r *VolunteerRepositoryPG) ListTeams(ctx context.Context, activeOnly bool) ([]domain.Team, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListTeams, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Team
	for rows.Next() {
		var t domain.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Chapter, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// AddTeamMember seats a volunteer in a team.
func (r *VolunteerRepositoryPG) AddTeamMember(ctx context.Context, tm *domain.TeamMember) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertTeamMember,
		tm.Team, tm.Volunteer, string(tm.Role), tm.FromDate, tm.ToDate, tm.Active)
	return row.Scan(&tm.ID)
}

// EndTeamMember closes a team seat per the given end date.
func (r *VolunteerRepositoryPG) EndTeamMember(ctx context.Context, id string, endDate time.Time) error {
	_, err := r.sql.Exec(ctx, sqlinline.QEndTeamMember, id, endDate)
	return err
}

// ListTeamMembers returns a team's seats.
func (r *VolunteerRepositoryPG) ListTeamMembers(ctx context.Context, teamID string, activeOnly bool) ([]domain.TeamMember, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListTeamMembers, teamID, activeOnly)
	if err != nil {
		return nil, err
	}
	return collectTeamMembers(rows)
}

// ListTeamsByMember returns the team seats held by a member's
// volunteer record.
func (r *VolunteerRepositoryPG) ListTeamsByMember(ctx context.Context, memberID string, activeOnly bool) ([]domain.TeamMember, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListTeamsByMember, memberID, activeOnly)
	if err != nil {
		return nil, err
	}
	return collectTeamMembers(rows)
}

// CreateActivity records a standalone volunteer engagement.
func (r *VolunteerRepositoryPG) CreateActivity(ctx context.Context, a *domain.Activity) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertVolunteerActivity,
		a.Volunteer, a.Role, a.Description, a.StartDate, a.EndDate, a.Status)
	return row.Scan(&a.ID)
}

// EndActivity closes an active engagement on the given date.
func (r *VolunteerRepositoryPG) EndActivity(ctx context.Context, id string, endDate time.Time) error {
	_, err := r.sql.Exec(ctx, sqlinline.QEndVolunteerActivity, id, endDate)
	return err
}

// ListActivities returns a volunteer's standalone engagements.
func (r *VolunteerRepositoryPG) ListActivities(ctx context.Context, volunteerID string) ([]domain.Activity, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListVolunteerActivities, volunteerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Activity
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.ID, &a.Volunteer, &a.Role, &a.Description, &a.StartDate, &a.EndDate, &a.Status, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func collectTeamMembers(rows pgx.Rows) ([]domain.TeamMember, error) {
	defer rows.Close()
	var items []domain.TeamMember
	for rows.Next() {
		var tm domain.TeamMember
		if err := rows.Scan(&tm.ID, &tm.Team, &tm.Volunteer, &tm.Role, &tm.FromDate, &tm.ToDate, &tm.Active, &tm.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, tm)
	}
	return items, rows.Err()
}

func scanVolunteer(row pgx.Row) (*domain.Volunteer, error) {
	var v domain.Volunteer
	if err := row.Scan(&v.ID, &v.Member, &v.Name, &v.Email, &v.Status, &v.StartDate, &v.EndDate, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}
