package handlers

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/middleware"
)

type fakeExpenseRepo struct {
	domain.ExpenseRepository
	byID    map[string]*domain.Expense
	created []domain.Expense
}

func (f *fakeExpenseRepo) Create(_ context.Context, e *domain.Expense) error {
	e.ID = "exp-1"
	f.created = append(f.created, *e)
	return nil
}

func (f *fakeExpenseRepo) GetByID(_ context.Context, id string) (*domain.Expense, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeExpenseRepo) Update(_ context.Context, e *domain.Expense) error {
	if cur, ok := f.byID[e.ID]; ok {
		*cur = *e
	}
	return nil
}

func expenseApp() (*App, *fakeExpenseRepo, *fakeVolunteerRepo) {
	expenses := &fakeExpenseRepo{byID: map[string]*domain.Expense{}}
	volunteers := &fakeVolunteerRepo{
		byID: map[string]*domain.Volunteer{"vol-1": {ID: "vol-1", Status: domain.VolunteerActive}},
		assignmentList: map[string][]domain.Assignment{
			"vol-1": {{Source: domain.AssignmentTeam, Reference: "team-1", Role: "Member", Active: true}},
		},
	}
	app := &App{Logger: zerolog.Nop(), Expenses: expenses, Volunteers: volunteers}
	return app, expenses, volunteers
}

func TestExpenseSubmitValidates(t *testing.T) {
	app, expenses, _ := expenseApp()
	cases := []struct {
		name string
		body string
		want int
	}{
		{"future date", `{"volunteer_id":"vol-1","org_type":"Team","org_ref":"team-1","description":"reiskosten","amount":"12.50","expense_date":"2099-01-01"}`, 400},
		{"zero amount", `{"volunteer_id":"vol-1","org_type":"Team","org_ref":"team-1","description":"reiskosten","amount":"0","expense_date":"2026-02-01"}`, 400},
		{"wrong org", `{"volunteer_id":"vol-1","org_type":"Chapter","org_ref":"ch-1","description":"zaalhuur","amount":"40.00","expense_date":"2026-02-01"}`, 403},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			app.ExpenseSubmit(rr, jsonRequest("POST", "/expenses", tc.body))
			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d, body %s", rr.Code, tc.want, rr.Body)
			}
		})
	}

	rr := httptest.NewRecorder()
	body := `{"volunteer_id":"vol-1","org_type":"Team","org_ref":"team-1","category":"Travel","description":"reiskosten ALV","amount":"12.50","expense_date":"2026-02-01"}`
	app.ExpenseSubmit(rr, jsonRequest("POST", "/expenses", body))
	if rr.Code != 201 {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if len(expenses.created) != 1 {
		t.Fatalf("created = %+v", expenses.created)
	}
	e := expenses.created[0]
	if e.Status != domain.ExpenseSubmitted || !e.Amount.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("expense = %+v", e)
	}
}

func TestExpenseApproveRecordsActor(t *testing.T) {
	app, expenses, _ := expenseApp()
	app.Accounts = &fakeAccounts{byID: map[string]*domain.Account{
		"acct-9": {ID: "acct-9", Name: "Fatima de Vries", Role: domain.RoleBoard},
	}}
	expenses.byID["exp-1"] = &domain.Expense{ID: "exp-1", Volunteer: "vol-1", Status: domain.ExpenseSubmitted}

	req := withURLParam(httptest.NewRequest("POST", "/expenses/exp-1/approve", nil), "id", "exp-1")
	req = req.WithContext(middleware.ContextWithAccount(req.Context(), "acct-9", "board", ""))
	rr := httptest.NewRecorder()
	app.ExpenseApprove(rr, req)
	if rr.Code != 200 {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	got := expenses.byID["exp-1"]
	if got.Status != domain.ExpenseApproved || got.ApprovedBy != "Fatima de Vries" || got.ApprovedAt == nil {
		t.Fatalf("expense = %+v", got)
	}

	// Approving twice is a conflict.
	rr = httptest.NewRecorder()
	app.ExpenseApprove(rr, req)
	if rr.Code != 409 {
		t.Fatalf("second approve: status = %d", rr.Code)
	}
}

func TestExpenseRejectUnwindsApproved(t *testing.T) {
	app, expenses, _ := expenseApp()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	expenses.byID["exp-1"] = &domain.Expense{
		ID: "exp-1", Status: domain.ExpenseApproved,
		ApprovedBy: "Fatima de Vries", ApprovedAt: &at,
	}
	expenses.byID["exp-2"] = &domain.Expense{ID: "exp-2", Status: domain.ExpenseReimbursed}

	rr := httptest.NewRecorder()
	req := withURLParam(jsonRequest("POST", "/expenses/exp-1/reject", `{"reason":"bon ontbreekt"}`), "id", "exp-1")
	app.ExpenseReject(rr, req)
	if rr.Code != 200 {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	got := expenses.byID["exp-1"]
	if got.Status != domain.ExpenseRejected || got.RejectReason != "bon ontbreekt" {
		t.Fatalf("expense = %+v", got)
	}
	// The original approval stays on the record.
	if got.ApprovedBy == "" || got.ApprovedAt == nil {
		t.Fatalf("approval audit dropped: %+v", got)
	}

	// A paid-out claim is settled, no unwinding.
	rr = httptest.NewRecorder()
	app.ExpenseReject(rr, withURLParam(jsonRequest("POST", "/expenses/exp-2/reject", `{"reason":"x"}`), "id", "exp-2"))
	if rr.Code != 409 {
		t.Fatalf("reimbursed reject: status = %d", rr.Code)
	}
}
