package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ledenbeheer/internal/domain"
)

type terminationDTO struct {
	ID                string                    `json:"id"`
	Member            string                    `json:"member"`
	MemberName        string                    `json:"member_name,omitempty"`
	Type              string                    `json:"type"`
	Reason            string                    `json:"reason,omitempty"`
	RequestDate       string                    `json:"request_date"`
	RequestedBy       string                    `json:"requested_by"`
	Status            string                    `json:"status"`
	SecondaryApprover string                    `json:"secondary_approver,omitempty"`
	ApprovedAt        string                    `json:"approved_at,omitempty"`
	EffectiveDate     string                    `json:"effective_date,omitempty"`
	ExecutedAt        string                    `json:"executed_at,omitempty"`
	Cascade           domain.TerminationCascade `json:"cascade"`
	Audit             []domain.TerminationAudit `json:"audit,omitempty"`
}

func terminationToDTO(req *domain.TerminationRequest) terminationDTO {
	dto := terminationDTO{
		ID:                req.ID,
		Member:            req.Member,
		MemberName:        req.MemberName,
		Type:              string(req.Type),
		Reason:            req.Reason,
		RequestDate:       req.RequestDate.Format("2006-01-02"),
		RequestedBy:       req.RequestedBy,
		Status:            string(req.Status),
		SecondaryApprover: req.SecondaryApprover,
		ApprovedAt:        timeOrEmpty(req.ApprovedAt),
		ExecutedAt:        timeOrEmpty(req.ExecutedAt),
		Cascade:           req.Cascade,
		Audit:             req.Audit,
	}
	if !req.EffectiveDate.IsZero() {
		dto.EffectiveDate = req.EffectiveDate.Format("2006-01-02")
	}
	return dto
}

type terminationSubmitRequest struct {
	MemberID         string `json:"member_id"`
	Type             string `json:"type"`
	Reason           string `json:"reason"`
	DisciplinaryDocs string `json:"disciplinary_docs"`
}

// TerminationSubmit opens a termination request. Standard types are
// auto-approved with a notice period, disciplinary types wait for a
// second approver.
func (a *App) TerminationSubmit(w http.ResponseWriter, r *http.Request) {
	var req terminationSubmitRequest
	if !a.decode(w, r, &req) {
		return
	}
	ttype := domain.TerminationType(req.Type)
	switch ttype {
	case domain.TerminationVoluntary, domain.TerminationNonPayment, domain.TerminationDeceased,
		domain.TerminationExpulsion, domain.TerminationDisc, domain.TerminationExpelled:
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "unknown termination type")
		return
	}
	if req.Reason == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "reason is required")
		return
	}
	tr := &domain.TerminationRequest{
		Member:           req.MemberID,
		Type:             ttype,
		Reason:           req.Reason,
		RequestedBy:      a.actorName(r),
		DisciplinaryDocs: req.DisciplinaryDocs,
	}
	if err := a.Terminator.Submit(r.Context(), tr, time.Now()); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, terminationToDTO(tr))
}

// TerminationList returns requests by status, or by member when
// given.
func (a *App) TerminationList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		requests []domain.TerminationRequest
		err      error
	)
	if memberID := q.Get("member"); memberID != "" {
		requests, err = a.Terminations.ListByMember(r.Context(), memberID)
	} else {
		status := domain.TerminationStatus(q.Get("status"))
		if status == "" {
			status = domain.TerminationPending
		}
		limit, _ := strconv.Atoi(q.Get("limit"))
		requests, err = a.Terminations.ListByStatus(r.Context(), status, limit)
	}
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]terminationDTO, 0, len(requests))
	for i := range requests {
		items = append(items, terminationToDTO(&requests[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// TerminationGet returns one request.
func (a *App) TerminationGet(w http.ResponseWriter, r *http.Request) {
	tr, err := a.Terminations.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, terminationToDTO(tr))
}

// TerminationApprove seconds a disciplinary request. The approver must
// differ from the requester.
func (a *App) TerminationApprove(w http.ResponseWriter, r *http.Request) {
	tr, err := a.Terminations.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if err := a.Terminator.Approve(r.Context(), tr, a.actorName(r), time.Now()); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, terminationToDTO(tr))
}

type terminationRejectRequest struct {
	Reason string `json:"reason"`
}

// TerminationReject closes a pending request without touching the
// member.
func (a *App) TerminationReject(w http.ResponseWriter, r *http.Request) {
	var req terminationRejectRequest
	if r.ContentLength > 0 && !a.decode(w, r, &req) {
		return
	}
	tr, err := a.Terminations.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if err := a.Terminator.Reject(r.Context(), tr, a.actorName(r), req.Reason); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, terminationToDTO(tr))
}

// TerminationExecute runs the cascade for an approved request ahead
// of the scheduled sweep.
func (a *App) TerminationExecute(w http.ResponseWriter, r *http.Request) {
	tr, err := a.Terminations.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if err := a.Terminator.Execute(r.Context(), tr, time.Now()); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, terminationToDTO(tr))
}
