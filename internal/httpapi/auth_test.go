package httpapi

import (
	"testing"
	"time"

	"ghazistore/backend/internal/domain"
)

func TestLoginRejectsWrongPassword(t *testing.T) {
	auth := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, "Ghazi786")

	if _, err := auth.Login(domain.LoginRequest{Password: "wrong"}); err == nil {
		t.Fatalf("expected wrong password to be rejected")
	}
	if _, err := auth.Login(domain.LoginRequest{Password: ""}); err == nil {
		t.Fatalf("expected empty password to be rejected")
	}
}

func TestLoginIssuesParsableToken(t *testing.T) {
	auth := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, "Ghazi786")

	resp, err := auth.Login(domain.LoginRequest{Password: "Ghazi786"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.AccessToken == "" || resp.ExpiresAt == "" {
		t.Fatalf("expected token and expiry in response, got %+v", resp)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if actor.Subject != "store" {
		t.Fatalf("expected subject %q, got %q", "store", actor.Subject)
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	issuer := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, "Ghazi786")
	verifier := NewAuthManager("ffffffffffffffffffffffffffffffff", time.Hour, "Ghazi786")

	resp, err := issuer.Login(domain.LoginRequest{Password: "Ghazi786"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := verifier.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	auth := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, "Ghazi786")
	if _, err := auth.ParseToken("not-a-token"); err == nil {
		t.Fatalf("expected garbage token to be rejected")
	}
}
