package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"pubcheck/internal/check"
	"pubcheck/internal/config"
	"pubcheck/internal/storage"
	logx "pubcheck/pkg/logx"
)

const (
	testManifest = "https://kindle.example.com/manifest"
	testTarget   = "https://kindle.example.com/editions/2024-05-10/manifest.json"
)

type fakeObjects struct{ keys []string }

func (f fakeObjects) ListObjects(ctx context.Context, bucket, prefix string) ([]string, error) {
	return f.keys, nil
}

type fakeLogs struct{ events map[string][]check.LogEvent }

func (f fakeLogs) DescribeLogStreams(ctx context.Context, group string, limit int) ([]check.LogStream, error) {
	return []check.LogStream{{Name: "newest"}}, nil
}

func (f fakeLogs) GetLogEvents(ctx context.Context, group, stream string) ([]check.LogEvent, error) {
	return f.events[stream], nil
}

type fakeProber struct{}

func (fakeProber) Head(ctx context.Context, url string) (check.ProbeResponse, error) {
	switch url {
	case testManifest:
		return check.ProbeResponse{StatusCode: http.StatusFound, Header: http.Header{"Location": {testTarget}}}, nil
	case testTarget:
		return check.ProbeResponse{StatusCode: http.StatusOK, Header: http.Header{}}, nil
	}
	return check.ProbeResponse{StatusCode: http.StatusNotFound, Header: http.Header{}}, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []check.Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg check.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func noEnv(string) (string, bool) { return "", false }

func baseConfig(dir string) *config.Config {
	return &config.Config{
		Check: config.CheckConfig{
			ManifestURL:         testManifest,
			Bucket:              "kindle-bucket",
			Stage:               "PROD",
			MinimumArticleCount: 2,
			SourceAddress:       "pubcheck@example.com",
			SuccessRecipients:   []string{"ok@example.com"},
			FailureRecipients:   []string{"oncall@example.com"},
			Timezone:            "UTC",
		},
		Notify:  config.NotifyConfig{Driver: "stdout"},
		Storage: &config.StorageConfig{Driver: "file", Path: filepath.Join(dir, "audit")},
	}
}

func writeConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

type harness struct {
	cfgPath string
	mailer  *fakeMailer
	stdout  *bytes.Buffer
	now     time.Time
}

func newHarness(t *testing.T, mutate func(*config.Config)) (*harness, *App) {
	t.Helper()
	dir := t.TempDir()
	cfg := baseConfig(dir)
	if mutate != nil {
		mutate(cfg)
	}
	h := &harness{
		cfgPath: filepath.Join(dir, "config.json"),
		mailer:  &fakeMailer{},
		stdout:  &bytes.Buffer{},
		now:     time.Date(2024, 5, 10, 0, 5, 0, 0, time.UTC),
	}
	writeConfig(t, h.cfgPath, cfg)

	a, err := New(h.cfgPath, noEnv,
		WithLogger(logx.Nop()),
		WithClock(func() time.Time { return h.now }),
		WithStdout(h.stdout),
		WithDeps(Deps{
			Objects: fakeObjects{keys: []string{
				"PROD/2024-05-10/0000/a.nitf.xml",
				"PROD/2024-05-10/0000/b.nitf.xml",
				"PROD/2024-05-10/0000/a.jpg",
			}},
			Logs: fakeLogs{events: map[string][]check.LogEvent{
				"newest": {{Timestamp: h.now, Message: check.StartMarker("2024-05-10")}},
			}},
			Prober: fakeProber{},
			Mailer: h.mailer,
			System: &fakeSystem{},
		}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return h, a
}

func recent(t *testing.T, a *App) []storage.RunRecord {
	t.Helper()
	recs, err := History(context.Background(), a.Config(), 10, logx.Nop())
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	return recs
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	cfg := baseConfig(dir)
	cfg.Check.Bucket = ""
	writeConfig(t, path, cfg)

	_, err := New(path, noEnv, WithLogger(logx.Nop()))
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("New() error = %v, want ErrInvalid", err)
	}
}

func TestRunSkipsOutsideRunHours(t *testing.T) {
	t.Parallel()
	h, a := newHarness(t, nil)
	h.now = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	res, err := a.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Skipped || res.SkipReason != "Not running because hour is 9" {
		t.Fatalf("Run() = %+v, want skipped at hour 9", res)
	}
	if n := h.mailer.count(); n != 0 {
		t.Fatalf("sent %d messages, want 0", n)
	}
	if recs := recent(t, a); len(recs) != 0 {
		t.Fatalf("audit has %d records, want 0", len(recs))
	}
}

func TestRunForceBypassesGate(t *testing.T) {
	t.Parallel()
	h, a := newHarness(t, nil)
	h.now = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	res, err := a.Run(context.Background(), RunOptions{Force: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Skipped {
		t.Fatal("forced run was skipped")
	}
	// 09:00 counts against the 0100 bucket, which the fake ignores.
	if !res.Report.Outcome.OK() {
		t.Fatalf("outcome failed: %v", res.Report.Outcome.Failure)
	}
}

func TestRunSuccessIsAudited(t *testing.T) {
	t.Parallel()
	h, a := newHarness(t, nil)

	res, err := a.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Report.Outcome.OK() {
		t.Fatalf("outcome failed: %v", res.Report.Outcome.Failure)
	}
	if n := h.mailer.count(); n != 1 {
		t.Fatalf("sent %d messages, want 1", n)
	}

	got := recent(t, a)
	want := []storage.RunRecord{{
		ID:        res.Report.RunID,
		Today:     "2024-05-10",
		Status:    storage.StatusSuccess,
		Subject:   res.Report.Message.Subject,
		MessageID: "msg-1",
		Articles:  2,
		Images:    1,
	}}
	opts := cmpopts.IgnoreFields(storage.RunRecord{}, "StartedAt", "TookMS")
	if diff := cmp.Diff(want, got, opts); diff != "" {
		t.Fatalf("audit mismatch (-want +got):\n%s", diff)
	}
}

func TestRunDateOverrideReportsFailure(t *testing.T) {
	t.Parallel()
	h, a := newHarness(t, nil)
	h.now = time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC)

	res, err := a.Run(context.Background(), RunOptions{Date: "2024-05-09"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Skipped {
		t.Fatal("run with an explicit date was gated")
	}
	if res.Report.Today != "2024-05-09" {
		t.Fatalf("Today = %s, want 2024-05-09", res.Report.Today)
	}
	if res.Report.Outcome.OK() {
		t.Fatal("outcome succeeded, want log failure")
	}

	recs := recent(t, a)
	if len(recs) != 1 {
		t.Fatalf("audit has %d records, want 1", len(recs))
	}
	if recs[0].Status != storage.StatusFailure || recs[0].Stage != string(check.StageLogs) {
		t.Fatalf("record = %s/%s, want failure/logs", recs[0].Status, recs[0].Stage)
	}
	if !strings.Contains(recs[0].Reason, "2024-05-09") {
		t.Fatalf("reason %q should name the day", recs[0].Reason)
	}
}

func TestRunRejectsMalformedDate(t *testing.T) {
	t.Parallel()
	_, a := newHarness(t, nil)
	if _, err := a.Run(context.Background(), RunOptions{Date: "10/05/2024"}); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("Run() error = %v, want ErrInvalid", err)
	}
}

func TestRunDryRunPrints(t *testing.T) {
	t.Parallel()
	h, a := newHarness(t, nil)

	res, err := a.Run(context.Background(), RunOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n := h.mailer.count(); n != 0 {
		t.Fatalf("dry run sent %d messages", n)
	}
	if !strings.HasPrefix(res.Report.MessageID, "dry-run-") {
		t.Fatalf("MessageID = %q, want dry-run-*", res.Report.MessageID)
	}
	want := "Subject: " + res.Report.Message.Subject + "\n\n" + res.Report.Message.Body + "\n"
	if h.stdout.String() != want {
		t.Fatalf("stdout = %q, want %q", h.stdout.String(), want)
	}
	if recs := recent(t, a); len(recs) != 0 {
		t.Fatalf("dry run was audited: %+v", recs)
	}
}

func TestRunSendErrorIsReturnedAndAudited(t *testing.T) {
	t.Parallel()
	h, a := newHarness(t, nil)
	boom := errors.New("throttled")
	h.mailer.err = boom

	_, err := a.Run(context.Background(), RunOptions{})
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want %v", err, boom)
	}
	recs := recent(t, a)
	if len(recs) != 1 || !strings.Contains(recs[0].SendError, "throttled") {
		t.Fatalf("audit = %+v, want one record with the send error", recs)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	t.Parallel()
	h, a := newHarness(t, nil)
	var ids []string
	for i := 0; i < 3; i++ {
		h.now = h.now.Add(time.Minute)
		res, err := a.Run(context.Background(), RunOptions{})
		if err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
		ids = append([]string{res.Report.RunID}, ids...)
	}

	recs, err := History(context.Background(), a.Config(), 2, logx.Nop())
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	got := []string{recs[0].ID, recs[1].ID}
	if diff := cmp.Diff(ids[:2], got); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestHistoryDisabled(t *testing.T) {
	t.Parallel()
	_, err := History(context.Background(), &config.Config{}, 5, logx.Nop())
	if !errors.Is(err, storage.ErrDisabled) {
		t.Fatalf("History() error = %v, want ErrDisabled", err)
	}
}

func TestMapStorageConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      *config.StorageConfig
		want    storage.Config
		enabled bool
		wantErr bool
	}{
		{name: "nil"},
		{name: "none", in: &config.StorageConfig{Driver: "None"}},
		{name: "file", in: &config.StorageConfig{Driver: "file", Path: " runs "}, want: storage.Config{Driver: "file", Path: "runs"}, enabled: true},
		{
			name:    "sqlite default busy timeout",
			in:      &config.StorageConfig{Driver: "SQLite", Path: "runs.db"},
			want:    storage.Config{Driver: "sqlite", Path: "runs.db", BusyTimeout: time.Second},
			enabled: true,
		},
		{name: "sqlite without path", in: &config.StorageConfig{Driver: "sqlite"}, wantErr: true},
		{name: "sqlite bad timeout", in: &config.StorageConfig{Driver: "sqlite", Path: "x", BusyTimeout: "soon"}, wantErr: true},
		{name: "unknown", in: &config.StorageConfig{Driver: "redis"}, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, enabled, err := mapStorageConfig(&config.Config{Storage: tt.in})
			if (err != nil) != tt.wantErr {
				t.Fatalf("mapStorageConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if enabled != tt.enabled {
				t.Fatalf("enabled = %v, want %v", enabled, tt.enabled)
			}
			if got != tt.want {
				t.Fatalf("mapStorageConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
