package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ledenbeheer/internal/domain"
)

type volunteerDTO struct {
	ID        string `json:"id"`
	Member    string `json:"member"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Status    string `json:"status"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date,omitempty"`
}

func volunteerToDTO(v *domain.Volunteer) volunteerDTO {
	return volunteerDTO{
		ID:        v.ID,
		Member:    v.Member,
		Name:      v.Name,
		Email:     v.Email,
		Status:    string(v.Status),
		StartDate: v.StartDate.Format("2006-01-02"),
		EndDate:   dateOrEmpty(v.EndDate),
	}
}

type volunteerCreateRequest struct {
	MemberID  string `json:"member_id"`
	StartDate string `json:"start_date"`
}

// VolunteerCreate enrolls a member as a volunteer. The member must be
// active and old enough.
func (a *App) VolunteerCreate(w http.ResponseWriter, r *http.Request) {
	var req volunteerCreateRequest
	if !a.decode(w, r, &req) {
		return
	}
	m, err := a.Members.GetByID(r.Context(), req.MemberID)
	if err != nil {
		a.fail(w, err)
		return
	}
	if m.Status != domain.MemberStatusActive {
		a.error(w, http.StatusConflict, "conflict", "member is "+string(m.Status))
		return
	}
	now := time.Now()
	if age := m.Age(now); age < domain.MinVolunteerAge {
		a.error(w, http.StatusBadRequest, "bad_request",
			fmt.Sprintf("volunteers must be at least %d, member is %d", domain.MinVolunteerAge, age))
		return
	}
	if _, err := a.Volunteers.GetByMember(r.Context(), req.MemberID); err == nil {
		a.error(w, http.StatusConflict, "conflict", "member already has a volunteer record")
		return
	}
	start := now
	if req.StartDate != "" {
		if start, err = parseDate(req.StartDate); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "start_date must be YYYY-MM-DD")
			return
		}
	}
	v := &domain.Volunteer{
		Member:    m.ID,
		Name:      m.FullName(),
		Email:     m.Email,
		Status:    domain.VolunteerNew,
		StartDate: start,
	}
	if err := a.Volunteers.Create(r.Context(), v); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, volunteerToDTO(v))
}

// settleVolunteerStatus recomputes the aggregate status from active
// assignments: New becomes Active on the first assignment, Active
// drops to Inactive when the last one ends.
func (a *App) settleVolunteerStatus(r *http.Request, volunteerID string) {
	v, err := a.Volunteers.GetByID(r.Context(), volunteerID)
	if err != nil {
		return
	}
	assignments, err := a.Volunteers.ListAssignments(r.Context(), volunteerID, true)
	if err != nil {
		return
	}
	var next domain.VolunteerStatus
	switch {
	case v.Status == domain.VolunteerNew && len(assignments) > 0:
		next = domain.VolunteerActive
	case v.Status == domain.VolunteerActive && len(assignments) == 0:
		next = domain.VolunteerInactive
	default:
		return
	}
	v.Status = next
	if err := a.Volunteers.Update(r.Context(), v); err != nil {
		a.Logger.Warn().Err(err).Str("volunteer", volunteerID).Msg("settle volunteer status")
	}
}

// VolunteerGet returns one volunteer.
func (a *App) VolunteerGet(w http.ResponseWriter, r *http.Request) {
	v, err := a.Volunteers.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, volunteerToDTO(v))
}

// VolunteerList returns volunteers, optionally filtered by status.
func (a *App) VolunteerList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	volunteers, err := a.Volunteers.List(r.Context(), domain.VolunteerStatus(q.Get("status")), limit)
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]volunteerDTO, 0, len(volunteers))
	for i := range volunteers {
		items = append(items, volunteerToDTO(&volunteers[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

type volunteerEndRequest struct {
	EndDate string `json:"end_date"`
}

// VolunteerEnd closes a volunteer record.
func (a *App) VolunteerEnd(w http.ResponseWriter, r *http.Request) {
	var req volunteerEndRequest
	if r.ContentLength > 0 && !a.decode(w, r, &req) {
		return
	}
	v, err := a.Volunteers.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if v.Status == domain.VolunteerRetired {
		a.error(w, http.StatusConflict, "conflict", "volunteer is "+string(v.Status))
		return
	}
	end := time.Now()
	if req.EndDate != "" {
		if end, err = parseDate(req.EndDate); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "end_date must be YYYY-MM-DD")
			return
		}
	}
	v.Status = domain.VolunteerRetired
	v.EndDate = &end
	if err := a.Volunteers.Update(r.Context(), v); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, volunteerToDTO(v))
}

type assignmentDTO struct {
	Source    string `json:"source"`
	Reference string `json:"reference"`
	Role      string `json:"role"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date,omitempty"`
	Active    bool   `json:"active"`
}

// VolunteerAssignments returns the combined board, team and activity
// assignments of one volunteer.
func (a *App) VolunteerAssignments(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"
	assignments, err := a.Volunteers.ListAssignments(r.Context(), chi.URLParam(r, "id"), activeOnly)
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]assignmentDTO, 0, len(assignments))
	for _, as := range assignments {
		items = append(items, assignmentDTO{
			Source:    string(as.Source),
			Reference: as.Reference,
			Role:      as.Role,
			StartDate: as.StartDate.Format("2006-01-02"),
			EndDate:   dateOrEmpty(as.EndDate),
			Active:    as.Active,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

type teamDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Chapter string `json:"chapter,omitempty"`
	Status  string `json:"status"`
}

type teamCreateRequest struct {
	Name    string `json:"name"`
	Chapter string `json:"chapter"`
}

// TeamCreate adds a volunteer team, optionally under a chapter.
func (a *App) TeamCreate(w http.ResponseWriter, r *http.Request) {
	var req teamCreateRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "name is required")
		return
	}
	if req.Chapter != "" {
		if _, err := a.Chapters.GetByID(r.Context(), req.Chapter); err != nil {
			a.fail(w, err)
			return
		}
	}
	t := &domain.Team{Name: req.Name, Chapter: req.Chapter, Status: "Active"}
	if err := a.Volunteers.CreateTeam(r.Context(), t); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, teamDTO{ID: t.ID, Name: t.Name, Chapter: t.Chapter, Status: t.Status})
}

// TeamList returns teams, active by default.
func (a *App) TeamList(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"
	teams, err := a.Volunteers.ListTeams(r.Context(), activeOnly)
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]teamDTO, 0, len(teams))
	for _, t := range teams {
		items = append(items, teamDTO{ID: t.ID, Name: t.Name, Chapter: t.Chapter, Status: t.Status})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

type teamMemberDTO struct {
	ID        string `json:"id"`
	Team      string `json:"team"`
	Volunteer string `json:"volunteer"`
	Role      string `json:"role"`
	FromDate  string `json:"from_date"`
	ToDate    string `json:"to_date,omitempty"`
	Active    bool   `json:"active"`
}

// TeamGet returns one team with its active members.
func (a *App) TeamGet(w http.ResponseWriter, r *http.Request) {
	t, err := a.Volunteers.GetTeam(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	members, err := a.Volunteers.ListTeamMembers(r.Context(), t.ID, true)
	if err != nil {
		a.fail(w, err)
		return
	}
	memberItems := make([]teamMemberDTO, 0, len(members))
	for _, tm := range members {
		memberItems = append(memberItems, teamMemberDTO{
			ID:        tm.ID,
			Team:      tm.Team,
			Volunteer: tm.Volunteer,
			Role:      string(tm.Role),
			FromDate:  tm.FromDate.Format("2006-01-02"),
			ToDate:    dateOrEmpty(tm.ToDate),
			Active:    tm.Active,
		})
	}
	a.json(w, http.StatusOK, map[string]any{
		"team":    teamDTO{ID: t.ID, Name: t.Name, Chapter: t.Chapter, Status: t.Status},
		"members": memberItems,
	})
}

// TeamDisband marks a team Disbanded and ends its active memberships.
func (a *App) TeamDisband(w http.ResponseWriter, r *http.Request) {
	t, err := a.Volunteers.GetTeam(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if t.Status != "Active" {
		a.error(w, http.StatusConflict, "conflict", "team is "+t.Status)
		return
	}
	now := time.Now()
	members, err := a.Volunteers.ListTeamMembers(r.Context(), t.ID, true)
	if err != nil {
		a.fail(w, err)
		return
	}
	for _, tm := range members {
		if err := a.Volunteers.EndTeamMember(r.Context(), tm.ID, now); err != nil {
			a.fail(w, err)
			return
		}
	}
	t.Status = "Disbanded"
	if err := a.Volunteers.UpdateTeam(r.Context(), t); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, teamDTO{ID: t.ID, Name: t.Name, Chapter: t.Chapter, Status: t.Status})
}

type teamMemberAddRequest struct {
	VolunteerID string `json:"volunteer_id"`
	Role        string `json:"role"`
	FromDate    string `json:"from_date"`
}

// TeamMemberAdd seats a volunteer on a team as leader or member.
func (a *App) TeamMemberAdd(w http.ResponseWriter, r *http.Request) {
	var req teamMemberAddRequest
	if !a.decode(w, r, &req) {
		return
	}
	t, err := a.Volunteers.GetTeam(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if t.Status != "Active" {
		a.error(w, http.StatusConflict, "conflict", "team is "+t.Status)
		return
	}
	vol, err := a.Volunteers.GetByID(r.Context(), req.VolunteerID)
	if err != nil {
		a.fail(w, err)
		return
	}
	if vol.Status != domain.VolunteerActive && vol.Status != domain.VolunteerNew {
		a.error(w, http.StatusConflict, "conflict", "volunteer is "+string(vol.Status))
		return
	}
	role := domain.TeamRole(req.Role)
	if role == "" {
		role = domain.TeamRoleMember
	}
	if role != domain.TeamRoleLeader && role != domain.TeamRoleMember {
		a.error(w, http.StatusBadRequest, "bad_request", "role must be Leader or Member")
		return
	}
	from := time.Now()
	if req.FromDate != "" {
		if from, err = parseDate(req.FromDate); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "from_date must be YYYY-MM-DD")
			return
		}
	}
	current, err := a.Volunteers.ListTeamMembers(r.Context(), t.ID, true)
	if err != nil {
		a.fail(w, err)
		return
	}
	for _, tm := range current {
		if tm.Volunteer == vol.ID {
			a.error(w, http.StatusConflict, "conflict", "volunteer is already on this team")
			return
		}
	}
	tm := &domain.TeamMember{
		Team:      t.ID,
		Volunteer: vol.ID,
		Role:      role,
		FromDate:  from,
		Active:    true,
	}
	if err := a.Volunteers.AddTeamMember(r.Context(), tm); err != nil {
		a.fail(w, err)
		return
	}
	a.settleVolunteerStatus(r, vol.ID)
	a.json(w, http.StatusCreated, teamMemberDTO{
		ID:        tm.ID,
		Team:      tm.Team,
		Volunteer: tm.Volunteer,
		Role:      string(tm.Role),
		FromDate:  tm.FromDate.Format("2006-01-02"),
		Active:    tm.Active,
	})
}

// TeamMemberEnd closes a team seat.
func (a *App) TeamMemberEnd(w http.ResponseWriter, r *http.Request) {
	var req volunteerEndRequest
	if r.ContentLength > 0 && !a.decode(w, r, &req) {
		return
	}
	end := time.Now()
	if req.EndDate != "" {
		var err error
		if end, err = parseDate(req.EndDate); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "end_date must be YYYY-MM-DD")
			return
		}
	}
	seatID := chi.URLParam(r, "seat")
	seats, err := a.Volunteers.ListTeamMembers(r.Context(), chi.URLParam(r, "id"), true)
	if err != nil {
		a.fail(w, err)
		return
	}
	var volunteerID string
	for _, tm := range seats {
		if tm.ID == seatID {
			volunteerID = tm.Volunteer
			break
		}
	}
	if volunteerID == "" {
		a.error(w, http.StatusNotFound, "not_found", "no active team seat with that id")
		return
	}
	if err := a.Volunteers.EndTeamMember(r.Context(), seatID, end); err != nil {
		a.fail(w, err)
		return
	}
	a.settleVolunteerStatus(r, volunteerID)
	w.WriteHeader(http.StatusNoContent)
}

type activityDTO struct {
	ID          string `json:"id"`
	Volunteer   string `json:"volunteer"`
	Role        string `json:"role"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date,omitempty"`
	Status      string `json:"status"`
}

type activityCreateRequest struct {
	Role        string `json:"role"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
}

// ActivityCreate records a standalone engagement for a volunteer.
func (a *App) ActivityCreate(w http.ResponseWriter, r *http.Request) {
	var req activityCreateRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Role == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "role is required")
		return
	}
	vol, err := a.Volunteers.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	start := time.Now()
	if req.StartDate != "" {
		if start, err = parseDate(req.StartDate); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "start_date must be YYYY-MM-DD")
			return
		}
	}
	act := &domain.Activity{
		Volunteer:   vol.ID,
		Role:        req.Role,
		Description: req.Description,
		StartDate:   start,
		Status:      "Active",
	}
	if err := a.Volunteers.CreateActivity(r.Context(), act); err != nil {
		a.fail(w, err)
		return
	}
	a.settleVolunteerStatus(r, vol.ID)
	a.json(w, http.StatusCreated, activityDTO{
		ID:          act.ID,
		Volunteer:   act.Volunteer,
		Role:        act.Role,
		Description: act.Description,
		StartDate:   act.StartDate.Format("2006-01-02"),
		Status:      act.Status,
	})
}

// ActivityEnd closes a standalone engagement.
func (a *App) ActivityEnd(w http.ResponseWriter, r *http.Request) {
	var req volunteerEndRequest
	if r.ContentLength > 0 && !a.decode(w, r, &req) {
		return
	}
	end := time.Now()
	if req.EndDate != "" {
		var err error
		if end, err = parseDate(req.EndDate); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "end_date must be YYYY-MM-DD")
			return
		}
	}
	volID := chi.URLParam(r, "id")
	activities, err := a.Volunteers.ListActivities(r.Context(), volID)
	if err != nil {
		a.fail(w, err)
		return
	}
	var found *domain.Activity
	for i := range activities {
		if activities[i].ID == chi.URLParam(r, "activity") {
			found = &activities[i]
			break
		}
	}
	if found == nil {
		a.error(w, http.StatusNotFound, "not_found", "no activity with that id")
		return
	}
	if found.Status != "Active" {
		a.error(w, http.StatusConflict, "conflict", "activity is "+found.Status)
		return
	}
	if err := a.Volunteers.EndActivity(r.Context(), found.ID, end); err != nil {
		a.fail(w, err)
		return
	}
	a.settleVolunteerStatus(r, volID)
	w.WriteHeader(http.StatusNoContent)
}

// ActivityList returns one volunteer's activities.
func (a *App) ActivityList(w http.ResponseWriter, r *http.Request) {
	activities, err := a.Volunteers.ListActivities(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]activityDTO, 0, len(activities))
	for _, act := range activities {
		items = append(items, activityDTO{
			ID:          act.ID,
			Volunteer:   act.Volunteer,
			Role:        act.Role,
			Description: act.Description,
			StartDate:   act.StartDate.Format("2006-01-02"),
			EndDate:     dateOrEmpty(act.EndDate),
			Status:      act.Status,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
