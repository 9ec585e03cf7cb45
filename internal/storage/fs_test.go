package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/jobtrail/internal/checksum"
	"github.com/starford/jobtrail/internal/models"
)

func tempDataDir(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return s
}

func TestWriteAndRead(t *testing.T) {
	s := tempDataDir(t)
	content := []byte(`[{"id":"1","company":"Acme"}]`)
	if err := s.Write(models.CollectionApplications, content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read(models.CollectionApplications)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got.Data) != string(content) {
		t.Errorf("content mismatch: got %q", got.Data)
	}
	if got.Path != "applications.json" {
		t.Errorf("path = %q, want applications.json", got.Path)
	}
}

func TestWriteKeepsExistingExtension(t *testing.T) {
	s := tempDataDir(t)
	if err := os.WriteFile(filepath.Join(s.Root(), "offers.yaml"), []byte("[]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(models.CollectionOffers, []byte("- id: o1\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read(models.CollectionOffers)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Path != "offers.yaml" {
		t.Errorf("path = %q, want offers.yaml", got.Path)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "offers.json")); err == nil {
		t.Error("offers.json should not have been created")
	}
}

func TestReadMissing(t *testing.T) {
	s := tempDataDir(t)
	_, err := s.Read(models.CollectionInterviews)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist", err)
	}
}

func TestUnknownCollection(t *testing.T) {
	s := tempDataDir(t)
	cases := []models.Collection{"../../etc/passwd", "notes", ""}
	for _, c := range cases {
		if _, err := s.Read(c); err == nil {
			t.Errorf("expected error reading %q", c)
		}
		if err := s.Write(c, []byte("x")); err == nil {
			t.Errorf("expected error writing %q", c)
		}
	}
}

func TestDelete(t *testing.T) {
	s := tempDataDir(t)
	_ = s.Write(models.CollectionRejections, []byte("[]"))
	if err := s.Delete(models.CollectionRejections); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read(models.CollectionRejections); err == nil {
		t.Error("expected error reading deleted collection")
	}
}

func TestList(t *testing.T) {
	s := tempDataDir(t)
	_ = s.Write(models.CollectionApplications, []byte("[]"))
	_ = s.Write(models.CollectionWithdrawals, []byte(`[{"id":"w"}]`))
	_ = os.WriteFile(filepath.Join(s.Root(), "readme.txt"), []byte("ignored"), 0o644)

	items, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].Name != models.CollectionApplications || items[1].Name != models.CollectionWithdrawals {
		t.Errorf("names = %s, %s", items[0].Name, items[1].Name)
	}
	if items[1].Checksum != checksum.Sum([]byte(`[{"id":"w"}]`)) {
		t.Errorf("checksum mismatch for withdrawals")
	}
}

func TestCollectionForFile(t *testing.T) {
	cases := []struct {
		name string
		want models.Collection
		ok   bool
	}{
		{"applications.json", models.CollectionApplications, true},
		{"/data/interviews.yml", models.CollectionInterviews, true},
		{"offers.yaml", models.CollectionOffers, true},
		{"offers.txt", "", false},
		{"notes.json", "", false},
	}
	for _, tc := range cases {
		got, ok := CollectionForFile(tc.name)
		if got != tc.want || ok != tc.ok {
			t.Errorf("CollectionForFile(%q) = %q, %v", tc.name, got, ok)
		}
	}
}

func TestAtomicWriteNoCorruption(t *testing.T) {
	s := tempDataDir(t)
	_ = s.Write(models.CollectionInterviews, []byte("original"))

	updated := []byte("updated")
	if err := s.Write(models.CollectionInterviews, updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read(models.CollectionInterviews)
	if string(got.Data) != string(updated) {
		t.Errorf("expected updated content, got %q", got.Data)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".jobtrail-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/jobtrail-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "jobtrail-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
