package auth

import (
	"strings"
	"testing"
)

func TestGenerateSessionToken(t *testing.T) {
	tok, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(tok, "fp_sess_") {
		t.Fatalf("token = %q", tok)
	}
	other, _ := GenerateSessionToken()
	if tok == other {
		t.Fatal("two tokens collided")
	}
}

func TestVerifyToken(t *testing.T) {
	tok, _ := GenerateSessionToken()
	hash := HashToken(tok)
	if !VerifyToken(tok, hash) {
		t.Fatal("valid token rejected")
	}
	if VerifyToken(tok+"x", hash) {
		t.Fatal("tampered token accepted")
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Bearer fp_sess_abc", "fp_sess_abc"},
		{"Bearer   fp_sess_abc  ", "fp_sess_abc"},
		{"bearer fp_sess_abc", ""},
		{"Basic dXNlcg==", ""},
		{"Bearer ", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := BearerToken(tc.header); got != tc.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}
