package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ledenbeheer/internal/domain"
)

type chapterDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Region      string `json:"region,omitempty"`
	PostalCodes string `json:"postal_codes,omitempty"`
	Published   bool   `json:"published"`
	Head        string `json:"head,omitempty"`
}

func chapterToDTO(c *domain.Chapter) chapterDTO {
	return chapterDTO{
		ID:          c.ID,
		Name:        c.Name,
		Region:      c.Region,
		PostalCodes: c.PostalCodes,
		Published:   c.Published,
		Head:        c.Head,
	}
}

// ChapterList returns chapters. Non-staff callers only see published
// ones.
func (a *App) ChapterList(w http.ResponseWriter, r *http.Request) {
	publishedOnly := r.URL.Query().Get("published") == "true"
	chapters, err := a.Chapters.List(r.Context(), publishedOnly)
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]chapterDTO, 0, len(chapters))
	for i := range chapters {
		items = append(items, chapterToDTO(&chapters[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

type chapterRequest struct {
	Name        string `json:"name"`
	Region      string `json:"region"`
	PostalCodes string `json:"postal_codes"`
	Published   bool   `json:"published"`
}

// ChapterCreate adds a chapter.
func (a *App) ChapterCreate(w http.ResponseWriter, r *http.Request) {
	var req chapterRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "name is required")
		return
	}
	c := &domain.Chapter{
		Name:        req.Name,
		Region:      req.Region,
		PostalCodes: req.PostalCodes,
		Published:   req.Published,
	}
	if err := a.Chapters.Create(r.Context(), c); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, chapterToDTO(c))
}

// ChapterGet returns one chapter.
func (a *App) ChapterGet(w http.ResponseWriter, r *http.Request) {
	c, err := a.Chapters.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, chapterToDTO(c))
}

// ChapterUpdate edits a chapter's region, postal code patterns and
// publication flag.
func (a *App) ChapterUpdate(w http.ResponseWriter, r *http.Request) {
	var req chapterRequest
	if !a.decode(w, r, &req) {
		return
	}
	c, err := a.Chapters.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if req.Name != "" {
		c.Name = req.Name
	}
	c.Region = req.Region
	c.PostalCodes = req.PostalCodes
	c.Published = req.Published
	if err := a.Chapters.Update(r.Context(), c); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, chapterToDTO(c))
}

type boardMemberDTO struct {
	ID        string `json:"id"`
	Chapter   string `json:"chapter"`
	Volunteer string `json:"volunteer"`
	Member    string `json:"member"`
	Role      string `json:"role"`
	FromDate  string `json:"from_date"`
	ToDate    string `json:"to_date,omitempty"`
	Active    bool   `json:"active"`
}

func boardMemberToDTO(bm *domain.BoardMember) boardMemberDTO {
	return boardMemberDTO{
		ID:        bm.ID,
		Chapter:   bm.Chapter,
		Volunteer: bm.Volunteer,
		Member:    bm.Member,
		Role:      bm.Role,
		FromDate:  bm.FromDate.Format("2006-01-02"),
		ToDate:    dateOrEmpty(bm.ToDate),
		Active:    bm.Active,
	}
}

type boardAddRequest struct {
	MemberID string `json:"member_id"`
	Role     string `json:"role"`
	FromDate string `json:"from_date"`
}

// seatBoard puts a volunteer on the board. A unique role changes hands
// on the spot: the sitting holder's seat ends on the successor's start
// date. The new board member lands on the chapter member list and the
// chair role carries the chapter head with it.
func (a *App) seatBoard(r *http.Request, chapter *domain.Chapter, role *domain.ChapterRole, memberID, volunteerID string, from time.Time) (*domain.BoardMember, error) {
	ctx := r.Context()
	board, err := a.Chapters.ListBoard(ctx, chapter.ID, true)
	if err != nil {
		return nil, err
	}
	for i := range board {
		seat := &board[i]
		if seat.Role != role.Name {
			continue
		}
		if seat.Member == memberID {
			return nil, fmt.Errorf("%w: member already holds the %s seat", domain.ErrConflict, role.Name)
		}
		if !role.Unique {
			continue
		}
		if err := a.Chapters.EndBoardMember(ctx, seat.ID, from); err != nil {
			return nil, err
		}
		a.settleVolunteerStatus(r, seat.Volunteer)
	}
	bm := &domain.BoardMember{
		Chapter:   chapter.ID,
		Volunteer: volunteerID,
		Member:    memberID,
		Role:      role.Name,
		FromDate:  from,
		Active:    true,
	}
	if err := a.Chapters.AddBoardMember(ctx, bm); err != nil {
		return nil, err
	}
	cm := &domain.ChapterMember{
		Chapter:      chapter.ID,
		Member:       memberID,
		Enabled:      true,
		Introduction: "Board " + role.Name,
		JoinedAt:     time.Now(),
	}
	if err := a.Chapters.AddChapterMember(ctx, cm); err != nil {
		a.Logger.Warn().Err(err).Str("chapter", chapter.ID).Msg("board member not added to chapter list")
	}
	a.settleVolunteerStatus(r, volunteerID)
	if role.Chair && chapter.Head != memberID {
		chapter.Head = memberID
		if err := a.Chapters.Update(ctx, chapter); err != nil {
			a.Logger.Warn().Err(err).Str("chapter", chapter.ID).Msg("set chapter head")
		}
	}
	return bm, nil
}

// ChapterBoardAdd seats a member's volunteer record on the chapter
// board.
func (a *App) ChapterBoardAdd(w http.ResponseWriter, r *http.Request) {
	var req boardAddRequest
	if !a.decode(w, r, &req) {
		return
	}
	chapter, err := a.Chapters.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	role, err := a.Chapters.GetRole(r.Context(), req.Role)
	if err != nil {
		a.fail(w, err)
		return
	}
	vol, err := a.Volunteers.GetByMember(r.Context(), req.MemberID)
	if err != nil {
		a.fail(w, err)
		return
	}
	if vol.Status != domain.VolunteerActive && vol.Status != domain.VolunteerNew {
		a.error(w, http.StatusConflict, "conflict", "volunteer is "+string(vol.Status))
		return
	}
	from := time.Now()
	if req.FromDate != "" {
		if from, err = parseDate(req.FromDate); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "from_date must be YYYY-MM-DD")
			return
		}
	}
	bm, err := a.seatBoard(r, chapter, role, req.MemberID, vol.ID, from)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, boardMemberToDTO(bm))
}

type boardEndRequest struct {
	EndDate string `json:"end_date"`
}

// ChapterBoardEnd closes a board seat. Ending the chair seat clears
// the chapter head.
func (a *App) ChapterBoardEnd(w http.ResponseWriter, r *http.Request) {
	var req boardEndRequest
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
	chapterID := chi.URLParam(r, "id")
	seatID := chi.URLParam(r, "seat")
	board, err := a.Chapters.ListBoard(r.Context(), chapterID, true)
	if err != nil {
		a.fail(w, err)
		return
	}
	var seat *domain.BoardMember
	for i := range board {
		if board[i].ID == seatID {
			seat = &board[i]
			break
		}
	}
	if seat == nil {
		a.error(w, http.StatusNotFound, "not_found", "no active board seat with that id")
		return
	}
	if err := a.Chapters.EndBoardMember(r.Context(), seatID, end); err != nil {
		a.fail(w, err)
		return
	}
	a.settleVolunteerStatus(r, seat.Volunteer)
	if role, err := a.Chapters.GetRole(r.Context(), seat.Role); err == nil && role.Chair {
		if chapter, err := a.Chapters.GetByID(r.Context(), chapterID); err == nil && chapter.Head == seat.Member {
			chapter.Head = ""
			if err := a.Chapters.Update(r.Context(), chapter); err != nil {
				a.Logger.Warn().Err(err).Str("chapter", chapterID).Msg("clear chapter head")
			}
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

type boardTransitionRequest struct {
	Role string `json:"role"`
	Date string `json:"date"`
}

// ChapterBoardTransition moves a sitting board member to another role
// in one step: the old seat ends on the transition date and the new
// one starts the same day.
func (a *App) ChapterBoardTransition(w http.ResponseWriter, r *http.Request) {
	var req boardTransitionRequest
	if !a.decode(w, r, &req) {
		return
	}
	chapter, err := a.Chapters.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	role, err := a.Chapters.GetRole(r.Context(), req.Role)
	if err != nil {
		a.fail(w, err)
		return
	}
	when := time.Now()
	if req.Date != "" {
		if when, err = parseDate(req.Date); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "date must be YYYY-MM-DD")
			return
		}
	}
	board, err := a.Chapters.ListBoard(r.Context(), chapter.ID, true)
	if err != nil {
		a.fail(w, err)
		return
	}
	seatID := chi.URLParam(r, "seat")
	var seat *domain.BoardMember
	for i := range board {
		if board[i].ID == seatID {
			seat = &board[i]
			break
		}
	}
	if seat == nil {
		a.error(w, http.StatusNotFound, "not_found", "no active board seat with that id")
		return
	}
	if seat.Role == role.Name {
		a.error(w, http.StatusConflict, "conflict", "seat already holds the "+role.Name+" role")
		return
	}
	if err := a.Chapters.EndBoardMember(r.Context(), seatID, when); err != nil {
		a.fail(w, err)
		return
	}
	if old, err := a.Chapters.GetRole(r.Context(), seat.Role); err == nil && old.Chair && chapter.Head == seat.Member {
		chapter.Head = ""
		if err := a.Chapters.Update(r.Context(), chapter); err != nil {
			a.Logger.Warn().Err(err).Str("chapter", chapter.ID).Msg("clear chapter head")
		}
	}
	bm, err := a.seatBoard(r, chapter, role, seat.Member, seat.Volunteer, when)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, boardMemberToDTO(bm))
}

// ChapterBoardList returns the chapter's board, active seats by
// default. A role query narrows it to one role's holders.
func (a *App) ChapterBoardList(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"
	board, err := a.Chapters.ListBoard(r.Context(), chi.URLParam(r, "id"), activeOnly)
	if err != nil {
		a.fail(w, err)
		return
	}
	role := r.URL.Query().Get("role")
	items := make([]boardMemberDTO, 0, len(board))
	for i := range board {
		if role != "" && board[i].Role != role {
			continue
		}
		items = append(items, boardMemberToDTO(&board[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

type chapterMemberDTO struct {
	ID           string `json:"id"`
	Chapter      string `json:"chapter"`
	Member       string `json:"member"`
	Enabled      bool   `json:"enabled"`
	Introduction string `json:"introduction,omitempty"`
	JoinedAt     string `json:"joined_at"`
}

type chapterMemberAddRequest struct {
	MemberID     string `json:"member_id"`
	Introduction string `json:"introduction"`
}

// ChapterMemberAdd puts a member on the chapter's member list.
func (a *App) ChapterMemberAdd(w http.ResponseWriter, r *http.Request) {
	var req chapterMemberAddRequest
	if !a.decode(w, r, &req) {
		return
	}
	if _, err := a.Members.GetByID(r.Context(), req.MemberID); err != nil {
		a.fail(w, err)
		return
	}
	cm := &domain.ChapterMember{
		Chapter:      chi.URLParam(r, "id"),
		Member:       req.MemberID,
		Enabled:      true,
		Introduction: req.Introduction,
		JoinedAt:     time.Now(),
	}
	if err := a.Chapters.AddChapterMember(r.Context(), cm); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, chapterMemberDTO{
		ID:           cm.ID,
		Chapter:      cm.Chapter,
		Member:       cm.Member,
		Enabled:      cm.Enabled,
		Introduction: cm.Introduction,
		JoinedAt:     cm.JoinedAt.Format(time.RFC3339),
	})
}

// ChapterMemberList returns the chapter's member list.
func (a *App) ChapterMemberList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	members, err := a.Chapters.ListChapterMembers(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]chapterMemberDTO, 0, len(members))
	for _, cm := range members {
		items = append(items, chapterMemberDTO{
			ID:           cm.ID,
			Chapter:      cm.Chapter,
			Member:       cm.Member,
			Enabled:      cm.Enabled,
			Introduction: cm.Introduction,
			JoinedAt:     cm.JoinedAt.Format(time.RFC3339),
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// ChapterRoleList returns the configured board roles.
func (a *App) ChapterRoleList(w http.ResponseWriter, r *http.Request) {
	roles, err := a.Chapters.ListRoles(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	type roleDTO struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Chair  bool   `json:"chair"`
		Unique bool   `json:"unique"`
	}
	items := make([]roleDTO, 0, len(roles))
	for _, role := range roles {
		items = append(items, roleDTO{ID: role.ID, Name: role.Name, Chair: role.Chair, Unique: role.Unique})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
