package anbi

import (
	"errors"
	"testing"

	"ledenbeheer/internal/domain"
)

func TestElevenProof(t *testing.T) {
	valid := []string{"111222333", "123456782", "061234564"}
	for _, v := range valid {
		if !ElevenProof(v) {
			t.Fatalf("ElevenProof(%q) = false", v)
		}
	}
	invalid := []string{"123456789", "000000000", "11122233", "1112223334", "11122233a"}
	for _, v := range invalid {
		if ElevenProof(v) {
			t.Fatalf("ElevenProof(%q) = true", v)
		}
	}
}

func TestValidateBSN(t *testing.T) {
	got, err := ValidateBSN("111.22.23.33")
	if err != nil {
		t.Fatalf("ValidateBSN: %v", err)
	}
	if got != "111222333" {
		t.Fatalf("normalized = %q", got)
	}

	// Eight digit BSNs get a leading zero.
	got, err = ValidateBSN("61234564")
	if err != nil {
		t.Fatalf("ValidateBSN 8-digit: %v", err)
	}
	if got != "061234564" {
		t.Fatalf("padded = %q", got)
	}

	if _, err := ValidateBSN("123456789"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if _, err := ValidateBSN("12345"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("short: err = %v", err)
	}
}

func TestValidateRSIN(t *testing.T) {
	if _, err := ValidateRSIN("123456782"); err != nil {
		t.Fatalf("ValidateRSIN: %v", err)
	}
	if _, err := ValidateRSIN("123456781"); err == nil {
		t.Fatal("invalid RSIN accepted")
	}
}

func TestMask(t *testing.T) {
	cases := map[string]string{
		"111222333": "*****2333",
		"1234":      "1234",
		"":          "",
	}
	for in, want := range cases {
		if got := Mask(in); got != want {
			t.Fatalf("Mask(%q) = %q, want %q", in, got, want)
		}
	}
}
