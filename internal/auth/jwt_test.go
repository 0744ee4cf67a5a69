package auth

import (
	"strings"
	"testing"
	"time"
)

func init() {
	SetJWTSecret("test-secret-for-auth-package-0123456789abcdef")
}

func TestGenerateAndValidateJWT(t *testing.T) {
	token, err := GenerateJWT("admin-1", "root", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("token is not a JWT: %s", token)
	}

	claims, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if claims.AdminID != "admin-1" {
		t.Errorf("AdminID = %s, want admin-1", claims.AdminID)
	}
	if claims.Username != "root" {
		t.Errorf("Username = %s, want root", claims.Username)
	}
	if claims.Issuer != "codegate" {
		t.Errorf("Issuer = %s, want codegate", claims.Issuer)
	}
}

func TestValidateJWT_Expired(t *testing.T) {
	token, err := GenerateJWT("admin-1", "root", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := ValidateJWT(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestValidateJWT_Garbage(t *testing.T) {
	if _, err := ValidateJWT("not.a.token"); err == nil {
		t.Error("expected garbage token to be rejected")
	}
}

func TestValidateJWT_TamperedSignature(t *testing.T) {
	token, err := GenerateJWT("admin-1", "root", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	tampered := token[:len(token)-2] + "xx"
	if _, err := ValidateJWT(tampered); err == nil {
		t.Error("expected tampered token to be rejected")
	}
}
