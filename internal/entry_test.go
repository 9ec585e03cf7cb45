package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/jobtrail/internal/sse"
)

func testConfig(t *testing.T, files map[string]string) *Config {
	t.Helper()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dataDir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := NewDefaultConfig()
	cfg.Data.Path = dataDir
	cfg.SQLite.Path = filepath.Join(dir, "index.db")
	return cfg
}

func TestRunStats(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"applications.json": `[{"id":"a1","company":"Acme","appliedOn":"2024-03-01"},
			{"id":"a2","company":"Globex","appliedOn":"2024-02-10"}]`,
	})

	var out bytes.Buffer
	if err := RunStats(context.Background(), &out, 2024, time.March, WithConfig(cfg)); err != nil {
		t.Fatal(err)
	}
	var report struct {
		Current  struct{ Total int } `json:"current"`
		Previous struct{ Total int } `json:"previous"`
	}
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decode %s: %v", out.String(), err)
	}
	if report.Current.Total != 1 || report.Previous.Total != 1 {
		t.Errorf("report = %+v", report)
	}

	if err := RunStats(context.Background(), &out, 2024, 13, WithConfig(cfg)); err == nil {
		t.Error("expected error for month 13")
	}
}

func TestRunStats_RequiresConfig(t *testing.T) {
	if err := RunStats(context.Background(), &bytes.Buffer{}, 2024, time.March); err == nil {
		t.Error("expected error without config")
	}
}

func TestRunSync_Disabled(t *testing.T) {
	cfg := testConfig(t, nil)
	err := RunSync(context.Background(), &bytes.Buffer{}, WithConfig(cfg), WithLogOutput(&bytes.Buffer{}))
	if err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Errorf("err = %v", err)
	}
}

func TestReadyHandler(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"offers.json": `[{"id":"o1","company":"Acme","offerDate":"2024-03-28"}]`,
	})
	rt, err := setup([]Option{WithConfig(cfg), WithLogOutput(&bytes.Buffer{})})
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Close()

	broker := sse.NewBroker(time.Second)
	defer broker.Close()

	w := httptest.NewRecorder()
	readyHandler(rt.db, broker, rt.logger)(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["events"] != float64(1) || body["clients"] != float64(0) {
		t.Errorf("body = %v", body)
	}
}
