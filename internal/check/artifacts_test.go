package check

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	t.Parallel()
	keys := []string{
		"PROD/2024-05-10/0100/001.nitf.xml",
		"PROD/2024-05-10/0100/002.nitf.xml",
		"PROD/2024-05-10/0100/001.jpg",
		"PROD/2024-05-10/0100/001.jpg.meta",
		"PROD/2024-05-10/0100/manifest.json",
		"PROD/2024-05-10/0100/notes.xml",
	}
	got := Classify(keys, DefaultArticleSuffix, DefaultImageSuffix)
	want := PublicationInfo{ArticleCount: 2, ImageCount: 1}
	if got != want {
		t.Fatalf("Classify = %+v, want %+v", got, want)
	}
}

func TestValidateCount(t *testing.T) {
	t.Parallel()
	if err := ValidateCount(PublicationInfo{ArticleCount: 50}, 50); err != nil {
		t.Fatalf("count equal to minimum should pass: %v", err)
	}

	err := ValidateCount(PublicationInfo{ArticleCount: 49}, 50)
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("ValidateCount(49, 50) = %v, want *StageError", err)
	}
	want := "Expected at least 50 articles, but there are only 49"
	if se.Reason() != want {
		t.Fatalf("reason = %q, want %q", se.Reason(), want)
	}
	if se.Kind != KindData {
		t.Fatalf("Kind = %v, want %v", se.Kind, KindData)
	}
}

func TestArtifactPrefix(t *testing.T) {
	t.Parallel()
	midnight := time.Date(2024, 5, 10, 0, 10, 0, 0, time.UTC)
	if got := ArtifactPrefix("PROD", "2024-05-10", midnight); got != "PROD/2024-05-10/0000" {
		t.Fatalf("prefix at 00:10 = %s", got)
	}
	later := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	if got := ArtifactPrefix("CODE", "2024-05-10", later); got != "CODE/2024-05-10/0100" {
		t.Fatalf("prefix at 09:00 = %s", got)
	}
}

func TestCountArtifactsUsesLocalRunHour(t *testing.T) {
	t.Parallel()
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	f := newFixture()
	f.cfg.Location = loc
	// 23:10 UTC is 00:10 BST.
	f.now = time.Date(2024, 5, 9, 23, 10, 0, 0, time.UTC)
	c := f.checker(t)

	if _, se := c.countArtifacts(context.Background()); se != nil {
		t.Fatalf("countArtifacts: %v", se)
	}
	if len(f.objects.prefixes) != 1 || f.objects.prefixes[0] != "kindle-bucket/PROD/2024-05-10/0000" {
		t.Fatalf("listed prefixes = %v", f.objects.prefixes)
	}
}

func TestCountArtifactsBelowMinimum(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.cfg.MinimumArticleCount = 3
	c := f.checker(t)

	info, se := c.countArtifacts(context.Background())
	if se == nil {
		t.Fatal("countArtifacts() = nil, want failure")
	}
	if info.ArticleCount != 2 {
		t.Fatalf("ArticleCount = %d, want 2", info.ArticleCount)
	}
	if se.Reason() != "Expected at least 3 articles, but there are only 2" {
		t.Fatalf("reason = %q", se.Reason())
	}
}

func TestCountArtifactsListError(t *testing.T) {
	t.Parallel()
	boom := errors.New("AccessDenied")
	f := newFixture()
	f.objects.err = boom
	c := f.checker(t)

	_, se := c.countArtifacts(context.Background())
	if se == nil || se.Kind != KindTransport {
		t.Fatalf("countArtifacts() = %v, want transport failure", se)
	}
	if !errors.Is(se, boom) {
		t.Fatalf("errors.Is(%v, boom) = false", se)
	}
}
