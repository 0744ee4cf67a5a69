package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/pfeak/codegate/internal/db/models"
)

var logCols = []string{
	"id", "code_id", "verified_at", "verified_by", "ip_address",
	"user_agent", "result", "reason",
}

func sampleLogRow() *sqlmock.Rows {
	return sqlmock.NewRows(logCols).
		AddRow("log-1", "code-1", time.Now(), nil, nil, nil,
			models.VerificationResultSuccess, nil)
}

func newLogRepo(t *testing.T) (*VerificationLogRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	return NewVerificationLogRepository(db), mock
}

// ---------------------------------------------------------------------------
// Create / CreateTx
// ---------------------------------------------------------------------------

func TestCreateLog_Success(t *testing.T) {
	repo, mock := newLogRepo(t)
	mock.ExpectExec("INSERT INTO verification_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	l := &models.VerificationLog{
		CodeID:     "code-1",
		VerifiedAt: time.Now(),
		Result:     models.VerificationResultSuccess,
	}
	if err := repo.Create(context.Background(), l); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.ID == "" {
		t.Error("ID not assigned")
	}
}

func TestCreateLogTx_RollsUpIntoTransaction(t *testing.T) {
	repo, mock := newLogRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO verification_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := repo.db.Beginx()
	if err != nil {
		t.Fatalf("Beginx: %v", err)
	}
	l := &models.VerificationLog{
		CodeID:     "code-1",
		VerifiedAt: time.Now(),
		Result:     models.VerificationResultReactivated,
	}
	if err := repo.CreateTx(context.Background(), tx, l); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestCreateLog_DBError(t *testing.T) {
	repo, mock := newLogRepo(t)
	mock.ExpectExec("INSERT INTO verification_logs").WillReturnError(errDB)

	l := &models.VerificationLog{CodeID: "code-1", Result: models.VerificationResultFailed}
	if err := repo.Create(context.Background(), l); err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// List / RecentByProject
// ---------------------------------------------------------------------------

func TestListLogs_ByProject(t *testing.T) {
	repo, mock := newLogRepo(t)
	mock.ExpectQuery("SELECT COUNT.*FROM verification_logs").
		WithArgs("proj-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT.*FROM verification_logs.*ORDER BY l.verified_at DESC").
		WillReturnRows(sampleLogRow())

	logs, total, err := repo.List(context.Background(), LogFilters{ProjectID: "proj-1"}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(logs) != 1 {
		t.Errorf("total = %d, len = %d; want 1, 1", total, len(logs))
	}
	if logs[0].Result != models.VerificationResultSuccess {
		t.Errorf("Result = %s, want success", logs[0].Result)
	}
}

func TestListLogs_ByResult(t *testing.T) {
	repo, mock := newLogRepo(t)
	mock.ExpectQuery("SELECT COUNT.*FROM verification_logs").
		WithArgs(models.VerificationResultFailed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT.*FROM verification_logs").
		WillReturnRows(sqlmock.NewRows(logCols))

	logs, total, err := repo.List(context.Background(), LogFilters{Result: models.VerificationResultFailed}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 || len(logs) != 0 {
		t.Errorf("total = %d, len = %d; want 0, 0", total, len(logs))
	}
}

func TestRecentByProject(t *testing.T) {
	repo, mock := newLogRepo(t)
	mock.ExpectQuery("SELECT.*FROM verification_logs l.*JOIN invitation_codes c").
		WithArgs("proj-1", 10).
		WillReturnRows(sampleLogRow())

	logs, err := repo.RecentByProject(context.Background(), "proj-1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("len(logs) = %d, want 1", len(logs))
	}
}
