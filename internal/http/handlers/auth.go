package handlers

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"ledenbeheer/internal/domain"
	"ledenbeheer/internal/middleware"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string     `json:"token"`
	Account accountDTO `json:"account"`
}

type accountDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	MemberID  string `json:"member_id,omitempty"`
	LastLogin string `json:"last_login,omitempty"`
}

func accountToDTO(acc *domain.Account) accountDTO {
	return accountDTO{
		ID:        acc.ID,
		Email:     acc.Email,
		Name:      acc.Name,
		Role:      string(acc.Role),
		MemberID:  acc.MemberID,
		LastLogin: timeOrEmpty(acc.LastLoginAt),
	}
}

// AuthLogin verifies credentials and issues a 24h JWT.
func (a *App) AuthLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "email and password required")
		return
	}
	acc, err := a.Accounts.GetByEmail(r.Context(), req.Email)
	if err != nil || !acc.Active {
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}
	token, err := middleware.SignJWT(a.JWTSecret, middleware.TokenClaims{
		Sub:      acc.ID,
		Role:     string(acc.Role),
		MemberID: acc.MemberID,
		Exp:      time.Now().Add(24 * time.Hour).Unix(),
		Issuer:   "ledenbeheer",
		Audience: "ledenbeheer-clients",
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign jwt failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}
	if err := a.Accounts.TouchLogin(r.Context(), acc.ID, time.Now()); err != nil {
		a.Logger.Warn().Err(err).Str("account", acc.ID).Msg("touch login failed")
	}
	a.json(w, http.StatusOK, loginResponse{Token: token, Account: accountToDTO(acc)})
}

// Me returns the authenticated account.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	id, _, _ := a.currentAccount(r)
	if id == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	acc, err := a.Accounts.GetByID(r.Context(), id)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, accountToDTO(acc))
}

type registerRequest struct {
	MemberNumber int    `json:"member_number"`
	Email        string `json:"email"`
	Password     string `json:"password"`
}

// AuthRegister opens a portal account for an approved member. The
// member number and registered email must match.
func (a *App) AuthRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.MemberNumber <= 0 || req.Email == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "member_number and email required")
		return
	}
	if len(req.Password) < 10 {
		a.error(w, http.StatusBadRequest, "bad_request", "password must be at least 10 characters")
		return
	}
	m, err := a.Members.GetByNumber(r.Context(), req.MemberNumber)
	if err != nil || !strings.EqualFold(m.Email, req.Email) {
		// One answer for wrong number and wrong email keeps the
		// endpoint from confirming which members exist.
		a.error(w, http.StatusForbidden, "forbidden", "member number and email do not match")
		return
	}
	if _, err := a.Accounts.GetByMember(r.Context(), m.ID); err == nil {
		a.error(w, http.StatusConflict, "conflict", "portal account already exists")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.fail(w, err)
		return
	}
	acc := &domain.Account{
		Email:        m.Email,
		Name:         m.FullName(),
		PasswordHash: string(hash),
		Role:         domain.RoleMember,
		MemberID:     m.ID,
		Active:       true,
	}
	if err := a.Accounts.Create(r.Context(), acc); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, accountToDTO(acc))
}

type staffAccountRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// AccountCreate lets an admin add staff logins.
func (a *App) AccountCreate(w http.ResponseWriter, r *http.Request) {
	var req staffAccountRequest
	if !a.decode(w, r, &req) {
		return
	}
	role := domain.AccountRole(req.Role)
	switch role {
	case domain.RoleAdmin, domain.RoleBoard:
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "role must be admin or board")
		return
	}
	if req.Email == "" || len(req.Password) < 10 {
		a.error(w, http.StatusBadRequest, "bad_request", "email and a password of at least 10 characters required")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.fail(w, err)
		return
	}
	acc := &domain.Account{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}
	if err := a.Accounts.Create(r.Context(), acc); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, accountToDTO(acc))
}
