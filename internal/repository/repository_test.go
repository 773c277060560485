package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestMigrationNames(t *testing.T) {
	names, err := migrationNames()
	if err != nil {
		t.Fatalf("migrationNames: %v", err)
	}
	want := []string{"migrations/001_availability.sql", "migrations/002_notifications.sql"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names[%d] = %q, want %q", i, names[i], want[i])
		}
		body, err := migrationFiles.ReadFile(names[i])
		if err != nil || !strings.Contains(string(body), "CREATE TABLE") {
			t.Fatalf("migration %s unreadable or empty: %v", names[i], err)
		}
	}
}

func TestWithTimeout(t *testing.T) {
	t.Run("zero leaves context unbounded", func(t *testing.T) {
		ctx, cancel := withTimeout(context.Background(), 0)
		defer cancel()
		if _, ok := ctx.Deadline(); ok {
			t.Fatal("unexpected deadline")
		}
		if ctx.Err() != nil {
			t.Fatalf("context already done: %v", ctx.Err())
		}
	})

	t.Run("positive sets deadline", func(t *testing.T) {
		ctx, cancel := withTimeout(context.Background(), time.Millisecond)
		defer cancel()
		<-ctx.Done()
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			t.Fatalf("got %v", ctx.Err())
		}
	})
}

func TestMigrateRequiresPool(t *testing.T) {
	if err := Migrate(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error for nil pool")
	}
}

func TestJSONBArgEncodesAsText(t *testing.T) {
	data := []byte(`{"ranges":2}`)

	arg := jsonbArg(data)
	if _, ok := arg.(string); !ok {
		t.Fatalf("jsonbArg returned %T, want string", arg)
	}

	// Same encoding the simple query protocol applies to an untyped parameter
	buf, err := pgtype.NewMap().Encode(0, pgtype.TextFormatCode, arg, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !json.Valid(buf) || string(buf) != string(data) {
		t.Fatalf("encoded %q, want the JSON text %q", buf, data)
	}

	if got := jsonbArg(nil); got != nil {
		t.Fatalf("jsonbArg(nil) = %v, want nil", got)
	}
}
