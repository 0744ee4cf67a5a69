package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

func TestCreateProject_Success(t *testing.T) {
	s := newServices(t)
	s.mock.ExpectExec("INSERT INTO projects").
		WillReturnResult(sqlmock.NewResult(0, 1))

	p, err := s.projects.Create(context.Background(), CreateProjectInput{Name: "beta-launch"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == "" {
		t.Error("ID not assigned")
	}
	if !p.Status {
		t.Error("new project not enabled")
	}
}

func TestCreateProject_DuplicateName(t *testing.T) {
	s := newServices(t)
	s.mock.ExpectExec("INSERT INTO projects").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := s.projects.Create(context.Background(), CreateProjectInput{Name: "beta-launch"})
	if !errors.Is(err, ErrProjectAlreadyExists) {
		t.Fatalf("err = %v, want ErrProjectAlreadyExists", err)
	}
}

func TestCreateProject_EmptyName(t *testing.T) {
	s := newServices(t)
	_, err := s.projects.Create(context.Background(), CreateProjectInput{Name: "   "})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestCreateProject_NameTooLong(t *testing.T) {
	s := newServices(t)
	_, err := s.projects.Create(context.Background(), CreateProjectInput{Name: strings.Repeat("a", 101)})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestUpdateProject_NameTooLong(t *testing.T) {
	s := newServices(t)
	s.mock.ExpectQuery("SELECT.*FROM projects").
		WillReturnRows(projectRow(true, nil))

	long := strings.Repeat("a", 101)
	_, err := s.projects.Update(context.Background(), "proj-1", UpdateProjectInput{Name: &long})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestGetProject_NotFound(t *testing.T) {
	s := newServices(t)
	s.mock.ExpectQuery("SELECT.*FROM projects").
		WillReturnRows(sqlmock.NewRows(projectCols))

	_, err := s.projects.Get(context.Background(), "missing")
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("err = %v, want ErrProjectNotFound", err)
	}
}

func TestGetProjectWithStats(t *testing.T) {
	s := newServices(t)
	s.mock.ExpectQuery("SELECT.*FROM projects").
		WillReturnRows(projectRow(true, nil))
	s.mock.ExpectQuery("SELECT COUNT.*FROM invitation_codes").
		WillReturnRows(sqlmock.NewRows([]string{"total", "used", "unused", "disabled", "expired"}).
			AddRow(10, 4, 5, 1, 0))

	p, err := s.projects.GetWithStats(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Stats.Total != 10 || p.Stats.Used != 4 {
		t.Errorf("stats = %+v", p.Stats)
	}
}

func TestUpdateProject_RenameConflict(t *testing.T) {
	s := newServices(t)
	s.mock.ExpectQuery("SELECT.*FROM projects").
		WillReturnRows(projectRow(true, nil))
	s.mock.ExpectExec("UPDATE projects").
		WillReturnError(&pq.Error{Code: "23505"})

	name := "taken"
	_, err := s.projects.Update(context.Background(), "proj-1", UpdateProjectInput{Name: &name})
	if !errors.Is(err, ErrProjectAlreadyExists) {
		t.Fatalf("err = %v, want ErrProjectAlreadyExists", err)
	}
}

func TestUpdateProject_ClearExpiry(t *testing.T) {
	s := newServices(t)
	exp := testNow.Add(-time.Hour)
	s.mock.ExpectQuery("SELECT.*FROM projects").
		WillReturnRows(projectRow(true, &exp))
	s.mock.ExpectExec("UPDATE projects").
		WillReturnResult(sqlmock.NewResult(0, 1))

	p, err := s.projects.Update(context.Background(), "proj-1", UpdateProjectInput{SetExpiresAt: true, ExpiresAt: nil})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ExpiresAt != nil {
		t.Error("expires_at not cleared")
	}
}

func TestDeleteProject_NotFound(t *testing.T) {
	s := newServices(t)
	s.mock.ExpectExec("DELETE FROM projects").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.projects.Delete(context.Background(), "missing"); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("err = %v, want ErrProjectNotFound", err)
	}
}
