package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

var apiKeyCols = []string{
	"id", "project_id", "api_key", "secret", "name", "is_active",
	"last_used_at", "created_by", "created_at",
}

func apiKeyRow() *sqlmock.Rows {
	return sqlmock.NewRows(apiKeyCols).
		AddRow("key-old", "proj-1", "cg_old", "oldsecret", nil, true, nil, nil, time.Now())
}

func TestGenerateAPIKey_RotatesOldKeys(t *testing.T) {
	s := newServices(t)
	s.mock.ExpectQuery("SELECT.*FROM projects").
		WillReturnRows(projectRow(true, nil))
	s.mock.ExpectQuery("SELECT.*FROM api_keys.*WHERE project_id").
		WillReturnRows(apiKeyRow())
	s.mock.ExpectExec("DELETE FROM api_keys").
		WithArgs("key-old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec("INSERT INTO api_keys").
		WillReturnResult(sqlmock.NewResult(0, 1))

	key, err := s.apiKeys.Generate(context.Background(), "proj-1", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(key.APIKey, "cg_") {
		t.Errorf("APIKey = %s, want cg_ prefix", key.APIKey)
	}
	if key.Secret == "" {
		t.Error("secret not returned at creation")
	}
	if err := s.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGenerateAPIKey_ProjectMissing(t *testing.T) {
	s := newServices(t)
	s.mock.ExpectQuery("SELECT.*FROM projects").
		WillReturnRows(sqlmock.NewRows(projectCols))

	_, err := s.apiKeys.Generate(context.Background(), "missing", nil, nil)
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("err = %v, want ErrProjectNotFound", err)
	}
}

func TestAuthenticate_TouchesLastUsed(t *testing.T) {
	s := newServices(t)
	s.mock.ExpectQuery("SELECT.*FROM api_keys.*WHERE api_key").
		WithArgs("cg_old").
		WillReturnRows(apiKeyRow())
	s.mock.ExpectExec("UPDATE api_keys SET last_used_at").
		WillReturnResult(sqlmock.NewResult(0, 1))

	k, err := s.apiKeys.Authenticate(context.Background(), "cg_old")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k == nil || k.ID != "key-old" {
		t.Fatalf("k = %+v, want key-old", k)
	}
	if err := s.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAuthenticate_UnknownKey(t *testing.T) {
	s := newServices(t)
	s.mock.ExpectQuery("SELECT.*FROM api_keys.*WHERE api_key").
		WillReturnRows(sqlmock.NewRows(apiKeyCols))

	k, err := s.apiKeys.Authenticate(context.Background(), "cg_missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k != nil {
		t.Error("expected nil for unknown key")
	}
}

func TestSetActive_NotFound(t *testing.T) {
	s := newServices(t)
	s.mock.ExpectExec("UPDATE api_keys SET is_active").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.apiKeys.SetActive(context.Background(), "missing", false); !errors.Is(err, ErrAPIKeyNotFound) {
		t.Fatalf("err = %v, want ErrAPIKeyNotFound", err)
	}
}
