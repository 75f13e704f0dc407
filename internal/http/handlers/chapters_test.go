package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ledenbeheer/internal/domain"
)

type fakeChapterRepo struct {
	domain.ChapterRepository
	chapters map[string]*domain.Chapter
	roles    map[string]domain.ChapterRole
	board    []domain.BoardMember
	listed   []domain.ChapterMember
	seats    int
}

func (f *fakeChapterRepo) GetByID(_ context.Context, id string) (*domain.Chapter, error) {
	c, ok := f.chapters[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeChapterRepo) Update(_ context.Context, c *domain.Chapter) error {
	if cur, ok := f.chapters[c.ID]; ok {
		*cur = *c
	}
	return nil
}

func (f *fakeChapterRepo) GetRole(_ context.Context, name string) (*domain.ChapterRole, error) {
	role, ok := f.roles[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &role, nil
}

func (f *fakeChapterRepo) ListBoard(_ context.Context, chapterID string, activeOnly bool) ([]domain.BoardMember, error) {
	var out []domain.BoardMember
	for _, bm := range f.board {
		if bm.Chapter != chapterID {
			continue
		}
		if activeOnly && !bm.Active {
			continue
		}
		out = append(out, bm)
	}
	return out, nil
}

func (f *fakeChapterRepo) AddBoardMember(_ context.Context, bm *domain.BoardMember) error {
	f.seats++
	bm.ID = fmt.Sprintf("seat-%d", f.seats)
	f.board = append(f.board, *bm)
	return nil
}

func (f *fakeChapterRepo) EndBoardMember(_ context.Context, id string, end time.Time) error {
	for i := range f.board {
		if f.board[i].ID == id {
			f.board[i].Active = false
			f.board[i].ToDate = &end
		}
	}
	return nil
}

func (f *fakeChapterRepo) AddChapterMember(_ context.Context, cm *domain.ChapterMember) error {
	cm.ID = "cm-" + cm.Member
	f.listed = append(f.listed, *cm)
	return nil
}

type fakeVolunteerRepo struct {
	domain.VolunteerRepository
	byID           map[string]*domain.Volunteer
	byMember       map[string]*domain.Volunteer
	assignments    map[string]int
	assignmentList map[string][]domain.Assignment
	created        []domain.Volunteer
	teams          map[string]*domain.Team
	teamSeats      []domain.TeamMember
	activities     map[string][]domain.Activity
}

func (f *fakeVolunteerRepo) GetByID(_ context.Context, id string) (*domain.Volunteer, error) {
	v, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVolunteerRepo) GetByMember(_ context.Context, memberID string) (*domain.Volunteer, error) {
	v, ok := f.byMember[memberID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVolunteerRepo) Update(_ context.Context, v *domain.Volunteer) error {
	if cur, ok := f.byID[v.ID]; ok {
		*cur = *v
	}
	return nil
}

func (f *fakeVolunteerRepo) ListAssignments(_ context.Context, volunteerID string, _ bool) ([]domain.Assignment, error) {
	if as, ok := f.assignmentList[volunteerID]; ok {
		return as, nil
	}
	return make([]domain.Assignment, f.assignments[volunteerID]), nil
}

func boardFixture() (*fakeChapterRepo, *fakeVolunteerRepo) {
	chapters := &fakeChapterRepo{
		chapters: map[string]*domain.Chapter{"ch-1": {ID: "ch-1", Name: "Amsterdam", Head: "member-old"}},
		roles: map[string]domain.ChapterRole{
			"Voorzitter":     {ID: "role-1", Name: "Voorzitter", Chair: true, Unique: true},
			"Penningmeester": {ID: "role-2", Name: "Penningmeester", Unique: true},
			"Algemeen lid":   {ID: "role-3", Name: "Algemeen lid"},
		},
		board: []domain.BoardMember{{
			ID: "seat-old", Chapter: "ch-1", Volunteer: "vol-old", Member: "member-old",
			Role: "Voorzitter", FromDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Active: true,
		}},
		seats: 1,
	}
	volunteers := &fakeVolunteerRepo{
		byID: map[string]*domain.Volunteer{
			"vol-old": {ID: "vol-old", Member: "member-old", Status: domain.VolunteerActive},
			"vol-new": {ID: "vol-new", Member: "member-new", Status: domain.VolunteerActive},
		},
		byMember:    map[string]*domain.Volunteer{},
		assignments: map[string]int{"vol-old": 1, "vol-new": 1},
	}
	for _, v := range volunteers.byID {
		volunteers.byMember[v.Member] = v
	}
	return chapters, volunteers
}

func TestChapterBoardAddUniqueRoleChangesHands(t *testing.T) {
	chapters, volunteers := boardFixture()
	app := &App{Logger: zerolog.Nop(), Chapters: chapters, Volunteers: volunteers}

	body := `{"member_id":"member-new","role":"Voorzitter","from_date":"2026-03-01"}`
	rr := httptest.NewRecorder()
	app.ChapterBoardAdd(rr, withURLParam(jsonRequest("POST", "/chapters/ch-1/board", body), "id", "ch-1"))

	if rr.Code != 201 {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	old := chapters.board[0]
	if old.Active || old.ToDate == nil || old.ToDate.Format("2006-01-02") != "2026-03-01" {
		t.Fatalf("previous holder not stepped down: %+v", old)
	}
	seat := chapters.board[1]
	if !seat.Active || seat.Member != "member-new" || seat.Role != "Voorzitter" {
		t.Fatalf("new seat = %+v", seat)
	}
	if chapters.chapters["ch-1"].Head != "member-new" {
		t.Fatalf("head = %q, want the incoming chair", chapters.chapters["ch-1"].Head)
	}
	if len(chapters.listed) != 1 || chapters.listed[0].Member != "member-new" {
		t.Fatalf("chapter list = %+v", chapters.listed)
	}
}

func TestChapterBoardAddRejectsDuplicateSeat(t *testing.T) {
	chapters, volunteers := boardFixture()
	app := &App{Logger: zerolog.Nop(), Chapters: chapters, Volunteers: volunteers}

	body := `{"member_id":"member-old","role":"Voorzitter"}`
	rr := httptest.NewRecorder()
	app.ChapterBoardAdd(rr, withURLParam(jsonRequest("POST", "/chapters/ch-1/board", body), "id", "ch-1"))

	if rr.Code != 409 {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if len(chapters.board) != 1 {
		t.Fatalf("board grew to %d seats", len(chapters.board))
	}
}

func TestChapterBoardTransitionSwapsRole(t *testing.T) {
	chapters, volunteers := boardFixture()
	app := &App{Logger: zerolog.Nop(), Chapters: chapters, Volunteers: volunteers}

	body := `{"role":"Penningmeester","date":"2026-04-01"}`
	rr := httptest.NewRecorder()
	req := withURLParam(jsonRequest("POST", "/chapters/ch-1/board/seat-old/transition", body), "id", "ch-1")
	req = withURLParam(req, "seat", "seat-old")
	app.ChapterBoardTransition(rr, req)

	if rr.Code != 200 {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	old := chapters.board[0]
	if old.Active || old.ToDate == nil {
		t.Fatalf("old seat still active: %+v", old)
	}
	seat := chapters.board[1]
	if seat.Role != "Penningmeester" || seat.Member != "member-old" || !seat.Active {
		t.Fatalf("new seat = %+v", seat)
	}
	// Leaving the chair clears the derived head.
	if chapters.chapters["ch-1"].Head != "" {
		t.Fatalf("head = %q after the chair stepped over", chapters.chapters["ch-1"].Head)
	}
}

func TestChapterBoardListFiltersByRole(t *testing.T) {
	chapters, volunteers := boardFixture()
	chapters.board = append(chapters.board, domain.BoardMember{
		ID: "seat-2", Chapter: "ch-1", Volunteer: "vol-new", Member: "member-new",
		Role: "Algemeen lid", FromDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Active: true,
	})
	app := &App{Logger: zerolog.Nop(), Chapters: chapters, Volunteers: volunteers}

	rr := httptest.NewRecorder()
	app.ChapterBoardList(rr, withURLParam(httptest.NewRequest("GET", "/chapters/ch-1/board?role=Algemeen+lid", nil), "id", "ch-1"))

	if rr.Code != 200 {
		t.Fatalf("status = %d", rr.Code)
	}
	var payload struct {
		Items []struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"items"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Items) != 1 || payload.Items[0].ID != "seat-2" {
		t.Fatalf("items = %+v", payload.Items)
	}
}
