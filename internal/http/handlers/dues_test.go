package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ledenbeheer/internal/domain"
)

func TestDuesScheduleListDefaultsToActive(t *testing.T) {
	schedules := &fakeScheduleRepo{active: []domain.DuesSchedule{{
		ID:               "sched-1",
		Member:           "member-1",
		MembershipType:   "Standaard",
		BillingFrequency: domain.FrequencyMonthly,
		DuesRate:         decimal.RequireFromString("12.50"),
		NextInvoiceDate:  time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Status:           domain.DuesActive,
		PaymentMethod:    domain.PaymentMethodDirectDebit,
		AutoGenerate:     true,
	}}}
	app := &App{Logger: zerolog.Nop(), Schedules: schedules}

	rr := httptest.NewRecorder()
	app.DuesScheduleList(rr, httptest.NewRequest("GET", "/dues-schedules", nil))

	if rr.Code != 200 {
		t.Fatalf("status = %d", rr.Code)
	}
	if schedules.asked != domain.DuesActive {
		t.Fatalf("listed status = %s, want the Active default", schedules.asked)
	}
	var payload struct {
		Items []struct {
			ID              string `json:"id"`
			DuesRate        string `json:"dues_rate"`
			NextInvoiceDate string `json:"next_invoice_date"`
			Status          string `json:"status"`
		} `json:"items"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Items) != 1 {
		t.Fatalf("items = %+v", payload.Items)
	}
	item := payload.Items[0]
	if item.ID != "sched-1" || item.DuesRate != "12.50" || item.NextInvoiceDate != "2026-04-01" || item.Status != "Active" {
		t.Fatalf("item = %+v", item)
	}
}

func TestDuesScheduleListPassesRequestedStatus(t *testing.T) {
	schedules := &fakeScheduleRepo{}
	app := &App{Logger: zerolog.Nop(), Schedules: schedules}

	rr := httptest.NewRecorder()
	app.DuesScheduleList(rr, httptest.NewRequest("GET", "/dues-schedules?status=Grace", nil))

	if rr.Code != 200 {
		t.Fatalf("status = %d", rr.Code)
	}
	if schedules.asked != domain.DuesGrace {
		t.Fatalf("listed status = %s", schedules.asked)
	}
}

func TestDuesScheduleListRejectsUnknownStatus(t *testing.T) {
	app := &App{Logger: zerolog.Nop(), Schedules: &fakeScheduleRepo{}}

	rr := httptest.NewRecorder()
	app.DuesScheduleList(rr, httptest.NewRequest("GET", "/dues-schedules?status=Slapend", nil))

	if rr.Code != 400 {
		t.Fatalf("status = %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "bad_request" {
		t.Fatalf("error code = %s", code)
	}
}
