package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ledenbeheer/internal/domain"
)

func (f *fakeVolunteerRepo) Create(_ context.Context, v *domain.Volunteer) error {
	v.ID = "vol-" + v.Member
	f.created = append(f.created, *v)
	return nil
}

func (f *fakeVolunteerRepo) GetTeam(_ context.Context, id string) (*domain.Team, error) {
	t, ok := f.teams[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeVolunteerRepo) ListTeamMembers(_ context.Context, teamID string, activeOnly bool) ([]domain.TeamMember, error) {
	var out []domain.TeamMember
	for _, tm := range f.teamSeats {
		if tm.Team != teamID {
			continue
		}
		if activeOnly && !tm.Active {
			continue
		}
		out = append(out, tm)
	}
	return out, nil
}

func (f *fakeVolunteerRepo) AddTeamMember(_ context.Context, tm *domain.TeamMember) error {
	tm.ID = "tm-" + tm.Volunteer
	f.teamSeats = append(f.teamSeats, *tm)
	f.assignments[tm.Volunteer]++
	return nil
}

func (f *fakeVolunteerRepo) ListActivities(_ context.Context, volunteerID string) ([]domain.Activity, error) {
	return f.activities[volunteerID], nil
}

func (f *fakeVolunteerRepo) EndActivity(_ context.Context, id string, _ time.Time) error {
	for volID, acts := range f.activities {
		for i := range acts {
			if acts[i].ID == id {
				f.activities[volID][i].Status = "Ended"
				f.assignments[volID]--
			}
		}
	}
	return nil
}

func TestVolunteerCreateChecksAge(t *testing.T) {
	now := time.Now()
	members := &fakeMemberRepo{byID: map[string]*domain.Member{
		"member-kid": {ID: "member-kid", FirstName: "Kim", LastName: "Jansen",
			BirthDate: now.AddDate(-10, 0, 0), Status: domain.MemberStatusActive},
		"member-1": {ID: "member-1", FirstName: "Jan", LastName: "Jansen", Email: "jan@example.org",
			BirthDate: now.AddDate(-30, 0, 0), Status: domain.MemberStatusActive},
	}}
	volunteers := &fakeVolunteerRepo{byMember: map[string]*domain.Volunteer{}}
	app := &App{Logger: zerolog.Nop(), Members: members, Volunteers: volunteers}

	rr := httptest.NewRecorder()
	app.VolunteerCreate(rr, jsonRequest("POST", "/volunteers", `{"member_id":"member-kid"}`))
	if rr.Code != 400 {
		t.Fatalf("underage: status = %d, body %s", rr.Code, rr.Body)
	}

	rr = httptest.NewRecorder()
	app.VolunteerCreate(rr, jsonRequest("POST", "/volunteers", `{"member_id":"member-1"}`))
	if rr.Code != 201 {
		t.Fatalf("create: status = %d, body %s", rr.Code, rr.Body)
	}
	if len(volunteers.created) != 1 {
		t.Fatalf("created = %+v", volunteers.created)
	}
	v := volunteers.created[0]
	if v.Status != domain.VolunteerNew || v.Name != "Jan Jansen" || v.Email != "jan@example.org" {
		t.Fatalf("volunteer = %+v", v)
	}
}

func TestVolunteerCreateRejectsInactiveMember(t *testing.T) {
	members := &fakeMemberRepo{byID: map[string]*domain.Member{
		"member-1": {ID: "member-1", BirthDate: time.Now().AddDate(-40, 0, 0), Status: domain.MemberStatusTerminated},
	}}
	app := &App{Logger: zerolog.Nop(), Members: members, Volunteers: &fakeVolunteerRepo{}}

	rr := httptest.NewRecorder()
	app.VolunteerCreate(rr, jsonRequest("POST", "/volunteers", `{"member_id":"member-1"}`))
	if rr.Code != 409 {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
}

func TestTeamMemberAddPromotesNewVolunteer(t *testing.T) {
	volunteers := &fakeVolunteerRepo{
		byID:        map[string]*domain.Volunteer{"vol-1": {ID: "vol-1", Status: domain.VolunteerNew}},
		teams:       map[string]*domain.Team{"team-1": {ID: "team-1", Name: "Kascommissie", Status: "Active"}},
		assignments: map[string]int{},
	}
	app := &App{Logger: zerolog.Nop(), Volunteers: volunteers}

	rr := httptest.NewRecorder()
	req := jsonRequest("POST", "/teams/team-1/members", `{"volunteer_id":"vol-1","role":"Leader"}`)
	app.TeamMemberAdd(rr, withURLParam(req, "id", "team-1"))
	if rr.Code != 201 {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}

	var dto teamMemberDTO
	if err := json.NewDecoder(rr.Body).Decode(&dto); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dto.Role != "Leader" || !dto.Active {
		t.Fatalf("seat = %+v", dto)
	}
	// The first assignment flips the aggregate status.
	if got := volunteers.byID["vol-1"].Status; got != domain.VolunteerActive {
		t.Fatalf("status = %s", got)
	}
}

func TestActivityEndSettlesStatus(t *testing.T) {
	volunteers := &fakeVolunteerRepo{
		byID:        map[string]*domain.Volunteer{"vol-1": {ID: "vol-1", Status: domain.VolunteerActive}},
		assignments: map[string]int{"vol-1": 1},
		activities: map[string][]domain.Activity{
			"vol-1": {{ID: "act-1", Volunteer: "vol-1", Role: "Webmaster", Status: "Active"}},
		},
	}
	app := &App{Logger: zerolog.Nop(), Volunteers: volunteers}

	rr := httptest.NewRecorder()
	req := jsonRequest("POST", "/volunteers/vol-1/activities/act-1/end", `{"end_date":"2026-04-01"}`)
	req = withURLParam(req, "id", "vol-1")
	req = withURLParam(req, "activity", "act-1")
	app.ActivityEnd(rr, req)
	if rr.Code != 204 {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if got := volunteers.activities["vol-1"][0].Status; got != "Ended" {
		t.Fatalf("activity status = %s", got)
	}
	// Last assignment gone, the volunteer drops to Inactive.
	if got := volunteers.byID["vol-1"].Status; got != domain.VolunteerInactive {
		t.Fatalf("volunteer status = %s", got)
	}
}

func TestActivityEndUnknownActivity(t *testing.T) {
	volunteers := &fakeVolunteerRepo{
		byID:        map[string]*domain.Volunteer{"vol-1": {ID: "vol-1", Status: domain.VolunteerActive}},
		assignments: map[string]int{"vol-1": 1},
		activities:  map[string][]domain.Activity{},
	}
	app := &App{Logger: zerolog.Nop(), Volunteers: volunteers}

	rr := httptest.NewRecorder()
	req := withURLParam(jsonRequest("POST", "/volunteers/vol-1/activities/nope/end", ""), "id", "vol-1")
	app.ActivityEnd(rr, withURLParam(req, "activity", "nope"))
	if rr.Code != 404 {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
}
