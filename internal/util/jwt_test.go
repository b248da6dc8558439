package util

import (
	"net/http/httptest"
	"testing"
)

func TestJWTRoundTrip(t *testing.T) {
	claims := Claims{UserID: "u1", TenantID: "t1", Role: "admin"}

	token, err := GenerateJWT(claims, "secret")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	got, err := ParseJWT(token, "secret")
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if got != claims {
		t.Errorf("claims = %+v, want %+v", got, claims)
	}
}

func TestParseJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT(Claims{UserID: "u1", TenantID: "t1"}, "secret")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	if _, err := ParseJWT(token, "other"); err == nil {
		t.Error("ParseJWT with wrong secret: want error")
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"bearer", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"lowercase scheme", "bearer tok", "tok"},
		{"missing", "", ""},
		{"wrong scheme", "Basic abc", ""},
		{"no token", "Bearer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if got := ExtractToken(r); got != tt.want {
				t.Errorf("ExtractToken = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword("hunter2", hash) {
		t.Error("CheckPassword rejected the correct password")
	}
	if CheckPassword("hunter3", hash) {
		t.Error("CheckPassword accepted a wrong password")
	}
}
