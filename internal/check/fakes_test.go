package check

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	logx "pubcheck/pkg/logx"
)

func nopLog() logx.Logger { return logx.Nop() }

type fakeObjects struct {
	mu       sync.Mutex
	keys     []string
	err      error
	prefixes []string
}

func (f *fakeObjects) ListObjects(ctx context.Context, bucket, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefixes = append(f.prefixes, bucket+"/"+prefix)
	if f.err != nil {
		return nil, f.err
	}
	return append([]string(nil), f.keys...), nil
}

func (f *fakeObjects) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prefixes)
}

type fakeLogs struct {
	mu          sync.Mutex
	streams     []LogStream
	events      map[string][]LogEvent
	describeErr error
	eventsErr   error
	fetched     []string
}

func (f *fakeLogs) DescribeLogStreams(ctx context.Context, group string, limit int) ([]LogStream, error) {
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	out := f.streams
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeLogs) GetLogEvents(ctx context.Context, group, stream string) ([]LogEvent, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, stream)
	f.mu.Unlock()
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	return f.events[stream], nil
}

type probeResult struct {
	status   int
	location string
	err      error
}

type fakeProber struct {
	mu      sync.Mutex
	results map[string]probeResult
	urls    []string
	// block makes Head wait for ctx cancellation.
	block bool
}

func (f *fakeProber) Head(ctx context.Context, url string) (ProbeResponse, error) {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	r, ok := f.results[url]
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return ProbeResponse{}, ctx.Err()
	}
	if !ok {
		return ProbeResponse{StatusCode: http.StatusNotFound, Header: http.Header{}}, nil
	}
	if r.err != nil {
		return ProbeResponse{}, r.err
	}
	h := http.Header{}
	if r.location != "" {
		h.Set("Location", r.location)
	}
	return ProbeResponse{StatusCode: r.status, Header: h}, nil
}

func (f *fakeProber) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.urls)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}

const (
	testToday    = "2024-05-10"
	testManifest = "https://kindle.example.com/manifest"
	testTarget   = "https://kindle.example.com/editions/2024-05-10/manifest.json"
)

func events(lines ...string) []LogEvent {
	base := time.Date(2024, 5, 10, 1, 0, 0, 0, time.UTC)
	out := make([]LogEvent, 0, len(lines))
	for i, l := range lines {
		out = append(out, LogEvent{Timestamp: base.Add(time.Duration(i) * time.Second), Message: l})
	}
	return out
}

type fixture struct {
	cfg     RunConfig
	objects *fakeObjects
	logs    *fakeLogs
	prober  *fakeProber
	mailer  *fakeMailer
	now     time.Time
}

// newFixture returns collaborators that make a run succeed.
func newFixture() *fixture {
	return &fixture{
		cfg: RunConfig{
			ManifestURL:         testManifest,
			Bucket:              "kindle-bucket",
			Stage:               "PROD",
			LogGroup:            "/aws/lambda/kindle-gen-PROD",
			Today:               testToday,
			MinimumArticleCount: 2,
			SourceAddress:       "pubcheck@example.com",
			SuccessRecipients:   []string{"ok@example.com"},
			FailureRecipients:   []string{"oncall@example.com", "editor@example.com"},
			Location:            time.UTC,
		},
		objects: &fakeObjects{keys: []string{
			"PROD/2024-05-10/0100/a.nitf.xml",
			"PROD/2024-05-10/0100/b.nitf.xml",
			"PROD/2024-05-10/0100/a.jpg",
			"PROD/2024-05-10/0100/manifest.json",
		}},
		logs: &fakeLogs{
			streams: []LogStream{{Name: "newest"}, {Name: "older"}},
			events: map[string][]LogEvent{
				"newest": events("INFO booting", StartMarker(testToday), "INFO done"),
			},
		},
		prober: &fakeProber{results: map[string]probeResult{
			testManifest: {status: http.StatusFound, location: testTarget},
			testTarget:   {status: http.StatusOK},
		}},
		mailer: &fakeMailer{},
		now:    time.Date(2024, 5, 10, 1, 5, 0, 0, time.UTC),
	}
}

func (f *fixture) checker(t testing.TB) *Checker {
	t.Helper()
	c, err := New(f.cfg, Deps{Objects: f.objects, Logs: f.logs, Prober: f.prober, Mailer: f.mailer}, nopLog(),
		WithClock(func() time.Time { return f.now }), WithRunID("run-1"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}
