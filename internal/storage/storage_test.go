package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	logx "pubcheck/pkg/logx"
)

func record(id string, at time.Time, status string) RunRecord {
	return RunRecord{
		ID:        id,
		Today:     at.Format("2006-01-02"),
		Status:    status,
		Subject:   "Kindle publication " + status,
		Articles:  120,
		Images:    40,
		StartedAt: at.UTC(),
		TookMS:    1500,
	}
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil || st != nil {
			t.Fatalf("Open(%q) = %v, %v; want nil, nil", driver, st, err)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "postgres", Path: "x"}, logx.Nop()); err == nil {
		t.Fatal("Open(postgres) error = nil")
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"file", "sqlite"} {
		if _, err := Open(Config{Driver: driver}, logx.Nop()); err == nil {
			t.Fatalf("Open(%s without path) error = nil", driver)
		}
	}
}

func TestStores(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"file", "sqlite"} {
		driver := driver
		t.Run(driver, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			st, err := Open(Config{Driver: driver, Path: filepath.Join(t.TempDir(), "nested", "pubcheck.db")}, logx.Nop())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer st.Close()

			base := time.Date(2024, 5, 10, 0, 5, 0, 0, time.UTC)
			failed := record("run-2", base.Add(time.Hour), StatusFailure)
			failed.Stage = "redirect"
			failed.Reason = "Expected status code 302 for url https://kindle.example.com/manifest, got 200"
			failed.SendError = "smtp: dial: refused"
			runs := []RunRecord{
				record("run-1", base, StatusSuccess),
				failed,
				record("run-3", base.Add(24*time.Hour), StatusSuccess),
			}
			for _, r := range runs {
				if err := st.AppendRun(ctx, r); err != nil {
					t.Fatalf("AppendRun(%s): %v", r.ID, err)
				}
			}

			got, err := st.RecentRuns(ctx, 2)
			if err != nil {
				t.Fatalf("RecentRuns: %v", err)
			}
			want := []RunRecord{runs[2], runs[1]}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("RecentRuns mismatch (-want +got):\n%s", diff)
			}

			all, err := st.RecentRuns(ctx, 10)
			if err != nil || len(all) != 3 {
				t.Fatalf("RecentRuns(10) = %d records, %v", len(all), err)
			}
			if none, err := st.RecentRuns(ctx, 0); err != nil || len(none) != 0 {
				t.Fatalf("RecentRuns(0) = %v, %v", none, err)
			}
		})
	}
}

func TestFileStoreSkipsCorruptLines(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(dir, "pubcheck.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	at := time.Date(2024, 5, 10, 1, 5, 0, 0, time.UTC)
	if err := st.AppendRun(ctx, record("run-1", at, StatusSuccess)); err != nil {
		t.Fatalf("AppendRun: %v", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "pubcheck.runs.jsonl"), os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatalf("open runs file: %v", err)
	}
	_, _ = f.WriteString("{\"id\": \"torn\n")
	_ = f.Close()
	if err := st.AppendRun(ctx, record("run-2", at.Add(time.Hour), StatusSuccess)); err != nil {
		t.Fatalf("AppendRun: %v", err)
	}

	got, err := st.RecentRuns(ctx, 5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(got) != 2 || got[0].ID != "run-2" || got[1].ID != "run-1" {
		t.Fatalf("RecentRuns = %+v", got)
	}
}

func TestFileStoreClosed(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(t.TempDir(), "h.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = st.Close()
	if err := st.AppendRun(context.Background(), RunRecord{ID: "x"}); err != ErrDisabled {
		t.Fatalf("AppendRun after Close = %v, want ErrDisabled", err)
	}
}
