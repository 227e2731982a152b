package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/standardbeagle/pagetour/internal/annotation"
	"github.com/standardbeagle/pagetour/internal/locator"
)

func guide(id, pageKey string) annotation.Annotation {
	return annotation.Annotation{
		ID:      id,
		Kind:    annotation.KindGuide,
		Locator: locator.Locator{Selector: "#go", Confidence: locator.High, Method: locator.MethodID},
		Payload: annotation.Payload{Title: "Go", Body: "Click to start"},
		PageKey: pageKey,
		Status:  annotation.StatusActive,
	}
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

// backends returns a fresh instance of every Store implementation, all
// driven by clk.
func backends(t *testing.T, clk *clock) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	file := NewFileStore(filepath.Join(dir, "annotations.json"))
	file.Now = clk.now

	sq, err := OpenSQLite(filepath.Join(dir, "annotations.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	sq.Now = clk.now
	t.Cleanup(func() { sq.Close() })

	mem := NewMemoryStore()
	mem.Now = clk.now

	return map[string]Store{"file": file, "sqlite": sq, "memory": mem}
}

func TestStore_SaveAndList(t *testing.T) {
	clk := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	for name, s := range backends(t, clk) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			a, err := s.Save(ctx, guide("a", "/home"))
			if err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			if !a.CreatedAt.Equal(clk.t) || !a.UpdatedAt.Equal(clk.t) {
				t.Errorf("timestamps = %v / %v; want %v", a.CreatedAt, a.UpdatedAt, clk.t)
			}
			if _, err := s.Save(ctx, guide("b", "/about")); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			list, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(list) != 2 || list[0].ID != "a" || list[1].ID != "b" {
				t.Fatalf("List = %+v; want a, b in creation order", list)
			}
			if list[0].Locator.Selector != "#go" || list[0].Payload.Body != "Click to start" {
				t.Errorf("List[0] = %+v", list[0])
			}
		})
	}
}

func TestStore_UpsertKeepsCreatedAt(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := &clock{t: created}
	for name, s := range backends(t, clk) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clk.t = created

			if _, err := s.Save(ctx, guide("a", "/home")); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			clk.advance(time.Hour)

			updated := guide("a", "/home")
			updated.Payload.Title = "Start here"
			got, err := s.Save(ctx, updated)
			if err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			if !got.CreatedAt.Equal(created) {
				t.Errorf("CreatedAt = %v; want %v", got.CreatedAt, created)
			}
			if !got.UpdatedAt.Equal(clk.t) {
				t.Errorf("UpdatedAt = %v; want %v", got.UpdatedAt, clk.t)
			}

			list, _ := s.List(ctx)
			if len(list) != 1 || list[0].Payload.Title != "Start here" {
				t.Errorf("List = %+v; want one superseded record", list)
			}
		})
	}
}

func TestStore_SaveAssignsDefaults(t *testing.T) {
	clk := &clock{t: time.Now()}
	for name, s := range backends(t, clk) {
		t.Run(name, func(t *testing.T) {
			a := guide("", "/home")
			a.Status = ""
			got, err := s.Save(context.Background(), a)
			if err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			if got.ID == "" {
				t.Error("Save did not assign an id")
			}
			if got.Status != annotation.StatusActive {
				t.Errorf("Status = %q; want active", got.Status)
			}
		})
	}
}

func TestStore_SaveRejectsInvalid(t *testing.T) {
	clk := &clock{t: time.Now()}
	for name, s := range backends(t, clk) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Save(context.Background(), guide("a", ""))
			if !errors.Is(err, annotation.ErrMissingPageKey) {
				t.Errorf("Save err = %v; want ErrMissingPageKey", err)
			}
			list, _ := s.List(context.Background())
			if len(list) != 0 {
				t.Errorf("invalid annotation was stored: %+v", list)
			}
		})
	}
}

func TestStore_Delete(t *testing.T) {
	clk := &clock{t: time.Now()}
	for name, s := range backends(t, clk) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s.Save(ctx, guide("a", "/home"))
			s.Save(ctx, guide("b", "/home"))

			if err := s.Delete(ctx, "a"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			list, _ := s.List(ctx)
			if len(list) != 1 || list[0].ID != "b" {
				t.Errorf("List after delete = %+v", list)
			}
			if err := s.Delete(ctx, "a"); !errors.Is(err, ErrNotFound) {
				t.Errorf("second Delete err = %v; want ErrNotFound", err)
			}
		})
	}
}

func TestFileStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "annotations.json")
	ctx := context.Background()

	if _, err := NewFileStore(path).Save(ctx, guide("a", "/home")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}

	list, err := NewFileStore(path).List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != "a" {
		t.Errorf("List after reopen = %+v", list)
	}
}

func TestFileStore_VersionMismatchClears(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotations.json")
	stale := `{"version": 0, "annotations": [{"id": "old", "kind": "guide", "page_key": "/"}]}`
	if err := os.WriteFile(path, []byte(stale), 0644); err != nil {
		t.Fatal(err)
	}

	list, err := NewFileStore(path).List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("List = %+v; want no data on version mismatch", list)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("mismatched store file was not cleared")
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotations.json")
	os.WriteFile(path, []byte("{not json"), 0644)

	if _, err := NewFileStore(path).List(context.Background()); err == nil {
		t.Error("List on a corrupt file succeeded")
	}
}

func TestSQLiteStore_VersionMismatchClears(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotations.db")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	s.Save(ctx, guide("a", "/home"))
	if _, err := s.db.Exec("PRAGMA user_version = 7"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("List = %+v; want cleared on version mismatch", list)
	}

	var v int
	s.db.QueryRow("PRAGMA user_version").Scan(&v)
	if v != SchemaVersion {
		t.Errorf("user_version = %d; want %d", v, SchemaVersion)
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotations.db")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	s.Save(ctx, guide("a", "/home"))
	s.Close()

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	list, _ := s.List(ctx)
	if len(list) != 1 || list[0].ID != "a" {
		t.Errorf("List after reopen = %+v", list)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		backend string
		path    string
		wantErr bool
	}{
		{"", filepath.Join(dir, "a.json"), false},
		{BackendFile, filepath.Join(dir, "b.json"), false},
		{BackendSQLite, filepath.Join(dir, "c.db"), false},
		{BackendMemory, "", false},
		{"redis", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			s, err := Open(tt.backend, tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownBackend) {
					t.Errorf("Open err = %v; want ErrUnknownBackend", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			s.Close()
		})
	}
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := NewMemoryStore()
	src.Save(ctx, guide("a", "/home"))
	tag := annotation.Annotation{
		ID:      "t",
		Kind:    annotation.KindPageTag,
		Payload: annotation.Payload{Name: "Home"},
		PageKey: "/home",
	}
	src.Save(ctx, tag)

	var buf bytes.Buffer
	if err := Export(ctx, src, &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.Contains(buf.String(), "#go") {
		t.Errorf("export missing selector:\n%s", buf.String())
	}

	dst := NewMemoryStore()
	n, err := Import(ctx, dst, &buf)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Import count = %d; want 2", n)
	}
	list, _ := dst.List(ctx)
	if len(list) != 2 || list[0].Locator.Selector != "#go" || list[1].Payload.Name != "Home" {
		t.Errorf("imported = %+v", list)
	}
}

func TestImportVersionMismatch(t *testing.T) {
	_, err := Import(context.Background(), NewMemoryStore(), strings.NewReader("version: 9\nannotations: []\n"))
	if err == nil {
		t.Error("Import accepted a foreign schema version")
	}
}

func TestFileFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	f := NewFileFlags(path)

	if _, ok, err := f.Get("editor"); err != nil || ok {
		t.Fatalf("Get on empty = %v, %v", ok, err)
	}
	if err := f.Set("editor", "guide"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	v, ok, err := NewFileFlags(path).Get("editor")
	if err != nil || !ok || v != "guide" {
		t.Errorf("Get after reopen = %q, %v, %v", v, ok, err)
	}

	if err := f.Delete("editor"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("empty flag file was not removed")
	}
	if err := f.Delete("editor"); err != nil {
		t.Errorf("Delete of unset key = %v", err)
	}
}

func TestMemoryStore_FailSave(t *testing.T) {
	boom := errors.New("disk full")
	s := NewMemoryStore()
	s.FailSave = boom
	if _, err := s.Save(context.Background(), guide("a", "/")); !errors.Is(err, boom) {
		t.Errorf("Save err = %v; want %v", err, boom)
	}
}
