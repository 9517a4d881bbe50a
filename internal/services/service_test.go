package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/taskdeck-be/internal/database"
)

const testTimeout = 5 * time.Second

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestUser(t *testing.T, users *UserService, username, email string) string {
	t.Helper()
	user, err := users.CreateUser(context.Background(), username, email, "Secret123")
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user.ID
}
