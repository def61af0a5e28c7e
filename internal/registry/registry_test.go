package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func openRegistries(t *testing.T) map[string]Registry {
	t.Helper()
	sq, err := NewSQLiteRegistry(filepath.Join(t.TempDir(), "data", "users.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSQLiteRegistry: %v", err)
	}
	t.Cleanup(func() { sq.Close() })
	return map[string]Registry{
		"sqlite": sq,
		"memory": NewMemoryRegistry(),
	}
}

func TestRegistry_SubscribeAndAlias(t *testing.T) {
	for name, reg := range openRegistries(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if ids, err := reg.ListRecipients(ctx); err != nil || len(ids) != 0 {
				t.Fatalf("empty registry: ids=%v err=%v", ids, err)
			}

			if err := reg.UpsertAlias(ctx, 42, ""); err != nil {
				t.Fatalf("subscribe: %v", err)
			}
			if _, ok, err := reg.GetAlias(ctx, 42); err != nil || ok {
				t.Fatalf("fresh subscriber should have no alias: ok=%v err=%v", ok, err)
			}

			if err := reg.UpsertAlias(ctx, 42, "Captain"); err != nil {
				t.Fatalf("set alias: %v", err)
			}
			alias, ok, err := reg.GetAlias(ctx, 42)
			if err != nil || !ok || alias != "Captain" {
				t.Fatalf("GetAlias = %q, %v, %v; want Captain", alias, ok, err)
			}

			// Re-subscribing clears the alias but keeps a single row.
			if err := reg.UpsertAlias(ctx, 42, ""); err != nil {
				t.Fatalf("resubscribe: %v", err)
			}
			if _, ok, _ := reg.GetAlias(ctx, 42); ok {
				t.Error("alias should be cleared after resubscribe")
			}

			if err := reg.UpsertAlias(ctx, -1001, "group"); err != nil {
				t.Fatalf("second subscriber: %v", err)
			}
			ids, err := reg.ListRecipients(ctx)
			if err != nil {
				t.Fatalf("ListRecipients: %v", err)
			}
			if len(ids) != 2 || ids[0] != -1001 || ids[1] != 42 {
				t.Errorf("ListRecipients = %v, want [-1001 42]", ids)
			}

			if _, ok, err := reg.GetAlias(ctx, 7); err != nil || ok {
				t.Errorf("unknown id: ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestSQLiteRegistry_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	ctx := context.Background()

	r1, err := NewSQLiteRegistry(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := r1.UpsertAlias(ctx, 5, "Bunny"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	r1.Close()

	r2, err := NewSQLiteRegistry(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r2.Close()
	alias, ok, err := r2.GetAlias(ctx, 5)
	if err != nil || !ok || alias != "Bunny" {
		t.Errorf("after reopen GetAlias = %q, %v, %v", alias, ok, err)
	}
}

func TestSQLiteRegistry_ClosedReturnsRegistryError(t *testing.T) {
	r, err := NewSQLiteRegistry(filepath.Join(t.TempDir(), "users.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	r.Close()

	_, err = r.ListRecipients(context.Background())
	var re *Error
	if !errors.As(err, &re) || re.Op != "list" {
		t.Fatalf("expected registry list error, got %v", err)
	}
}
