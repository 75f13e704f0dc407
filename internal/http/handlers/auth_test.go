package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/middleware"
)

type fakeAccounts struct {
	domain.AccountRepository
	byID     map[string]*domain.Account
	byEmail  map[string]*domain.Account
	byMember map[string]*domain.Account
	created  []domain.Account
	touched  []string
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	acc, ok := f.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*domain.Account, error) {
	acc, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (f *fakeAccounts) GetByMember(_ context.Context, memberID string) (*domain.Account, error) {
	acc, ok := f.byMember[memberID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (f *fakeAccounts) Create(_ context.Context, a *domain.Account) error {
	a.ID = "acc-new"
	f.created = append(f.created, *a)
	return nil
}

func (f *fakeAccounts) TouchLogin(_ context.Context, id string, _ time.Time) error {
	f.touched = append(f.touched, id)
	return nil
}

func TestAuthLoginIssuesToken(t *testing.T) {
	accounts := &fakeAccounts{byEmail: map[string]*domain.Account{
		"bestuur@vereniging.nl": {
			ID: "acc-1", Email: "bestuur@vereniging.nl", Name: "Bestuur",
			PasswordHash: mustHash(t, "lange-wachtzin"), Role: domain.RoleBoard, Active: true,
		},
	}}
	app := &App{Logger: zerolog.Nop(), JWTSecret: "test-secret", Accounts: accounts}

	rr := httptest.NewRecorder()
	app.AuthLogin(rr, jsonRequest("POST", "/auth/login", `{"email":"bestuur@vereniging.nl","password":"lange-wachtzin"}`))

	if rr.Code != 200 {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	var payload struct {
		Token   string `json:"token"`
		Account struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"account"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := middleware.VerifyJWT("test-secret", payload.Token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Sub != "acc-1" || claims.Role != string(domain.RoleBoard) {
		t.Fatalf("claims = %+v", claims)
	}
	if len(accounts.touched) != 1 || accounts.touched[0] != "acc-1" {
		t.Fatalf("touched = %v", accounts.touched)
	}
}

func TestAuthLoginRejectsBadCredentials(t *testing.T) {
	accounts := &fakeAccounts{byEmail: map[string]*domain.Account{
		"bestuur@vereniging.nl": {ID: "acc-1", PasswordHash: mustHash(t, "lange-wachtzin"), Active: true},
		"oud@vereniging.nl":     {ID: "acc-2", PasswordHash: mustHash(t, "lange-wachtzin"), Active: false},
	}}
	app := &App{Logger: zerolog.Nop(), JWTSecret: "test-secret", Accounts: accounts}

	cases := []struct{ name, body string }{
		{"wrong password", `{"email":"bestuur@vereniging.nl","password":"fout"}`},
		{"unknown account", `{"email":"niemand@vereniging.nl","password":"lange-wachtzin"}`},
		{"deactivated account", `{"email":"oud@vereniging.nl","password":"lange-wachtzin"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			app.AuthLogin(rr, jsonRequest("POST", "/auth/login", tc.body))
			if rr.Code != 401 {
				t.Fatalf("status = %d", rr.Code)
			}
			if code := errorCode(t, rr); code != "unauthorized" {
				t.Fatalf("code = %s", code)
			}
		})
	}
}

func TestAuthRegisterMatchesMemberRecord(t *testing.T) {
	members := &fakeMemberRepo{byNumber: map[int]*domain.Member{
		10001: {ID: "member-1", MemberNumber: 10001, FirstName: "Jan", LastName: "Jansen", Email: "jan@example.org"},
	}}
	accounts := &fakeAccounts{}
	app := &App{Logger: zerolog.Nop(), Members: members, Accounts: accounts}

	// The submitted email may differ in case from the member record.
	rr := httptest.NewRecorder()
	app.AuthRegister(rr, jsonRequest("POST", "/auth/register", `{"member_number":10001,"email":"JAN@example.org","password":"lange-wachtzin"}`))

	if rr.Code != 201 {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if len(accounts.created) != 1 {
		t.Fatalf("created = %d", len(accounts.created))
	}
	acc := accounts.created[0]
	if acc.Role != domain.RoleMember || acc.MemberID != "member-1" || !acc.Active {
		t.Fatalf("account = %+v", acc)
	}
	if acc.Email != "jan@example.org" {
		t.Fatalf("email = %s, want the record's address", acc.Email)
	}
}

func TestAuthRegisterGuards(t *testing.T) {
	members := &fakeMemberRepo{byNumber: map[int]*domain.Member{
		10001: {ID: "member-1", MemberNumber: 10001, Email: "jan@example.org"},
	}}
	accounts := &fakeAccounts{byMember: map[string]*domain.Account{"member-1": {ID: "acc-1"}}}
	app := &App{Logger: zerolog.Nop(), Members: members, Accounts: accounts}

	rr := httptest.NewRecorder()
	app.AuthRegister(rr, jsonRequest("POST", "/auth/register", `{"member_number":10001,"email":"ander@example.org","password":"lange-wachtzin"}`))
	if rr.Code != 403 {
		t.Fatalf("email mismatch: status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	app.AuthRegister(rr, jsonRequest("POST", "/auth/register", `{"member_number":10001,"email":"jan@example.org","password":"kort"}`))
	if rr.Code != 400 {
		t.Fatalf("short password: status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	app.AuthRegister(rr, jsonRequest("POST", "/auth/register", `{"member_number":10001,"email":"jan@example.org","password":"lange-wachtzin"}`))
	if rr.Code != 409 {
		t.Fatalf("existing account: status = %d", rr.Code)
	}
	if len(accounts.created) != 0 {
		t.Fatalf("created = %d, want none", len(accounts.created))
	}
}

func TestAccountCreateRejectsMemberRole(t *testing.T) {
	app := &App{Logger: zerolog.Nop(), Accounts: &fakeAccounts{}}
	rr := httptest.NewRecorder()
	app.AccountCreate(rr, jsonRequest("POST", "/accounts", `{"email":"x@vereniging.nl","password":"lange-wachtzin","role":"member"}`))
	if rr.Code != 400 {
		t.Fatalf("status = %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "bad_request" {
		t.Fatalf("code = %s", code)
	}
}
