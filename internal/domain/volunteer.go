package domain

import "time"

// VolunteerStatus enumerates volunteer lifecycle states.
type VolunteerStatus string

const (
	VolunteerNew      VolunteerStatus = "New"
	VolunteerActive   VolunteerStatus = "Active"
	VolunteerInactive VolunteerStatus = "Inactive"
	VolunteerRetired  VolunteerStatus = "Retired"
)

// Volunteer is a member acting in an unpaid role.
type Volunteer struct {
	ID        string
	Member    string
	Name      string
	Email     string
	Status    VolunteerStatus
	StartDate time.Time
	EndDate   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AssignmentSource distinguishes where a volunteer assignment comes from.
type AssignmentSource string

const (
	AssignmentBoard    AssignmentSource = "Board"
	AssignmentTeam     AssignmentSource = "Team"
	AssignmentActivity AssignmentSource = "Activity"
)

// Assignment is one aggregated engagement row (board seat, team
// membership or standalone activity).
type Assignment struct {
	Source    AssignmentSource
	Reference string // chapter, team or activity id
	Role      string
	StartDate time.Time
	EndDate   *time.Time
	Active    bool
}

// Activity is a standalone volunteer engagement outside boards and teams.
type Activity struct {
	ID          string
	Volunteer   string
	Role        string
	Description string
	StartDate   time.Time
	EndDate     *time.Time
	Status      string // Active or Completed
	CreatedAt   time.Time
}

// Team groups volunteers for a task, optionally under a chapter.
type Team struct {
	ID        string
	Name      string
	Chapter   string
	Status    string // Active or Disbanded
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TeamRole enumerates team member functions.
type TeamRole string

const (
	TeamRoleLeader TeamRole = "Leader"
	TeamRoleMember TeamRole = "Member"
)

// TeamMember seats a volunteer in a team.
type TeamMember struct {
	ID        string
	Team      string
	Volunteer string
	Role      TeamRole
	FromDate  time.Time
	ToDate    *time.Time
	Active    bool
	CreatedAt time.Time
}
