package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/pfeak/codegate/internal/clock"
	"github.com/pfeak/codegate/internal/db/repositories"
)

func newAuditRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	repo := repositories.NewAuditRepository(sqlx.NewDb(db, "sqlmock"))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(AdminIDKey, "admin-1")
		c.Next()
	})
	r.Use(AuditMiddleware(repo, clock.Fixed{Instant: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}))
	r.POST("/projects", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.GET("/projects", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.DELETE("/projects/:project_id", func(c *gin.Context) { c.Status(http.StatusForbidden) })
	return r, mock
}

func TestAudit_RecordsWrite(t *testing.T) {
	r, mock := newAuditRouter(t)
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodPost, "/projects", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("audit row not written: %v", err)
	}
}

func TestAudit_SkipsReads(t *testing.T) {
	r, mock := newAuditRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database access on read: %v", err)
	}
}

func TestAudit_RecordsFailedWrite(t *testing.T) {
	r, mock := newAuditRouter(t)
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodDelete, "/projects/proj-1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("failed write not audited: %v", err)
	}
}

func TestAudit_SkipsUnauthenticated(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	repo := repositories.NewAuditRepository(sqlx.NewDb(db, "sqlmock"))

	r := gin.New()
	r.Use(AuditMiddleware(repo, clock.Real{}))
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unauthenticated request audited: %v", err)
	}
}
