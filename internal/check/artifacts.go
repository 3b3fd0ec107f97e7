package check

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"pubcheck/internal/calendar"
)

// ArtifactPrefix is the storage prefix of the publisher run a check at now
// is looking at: <stage>/<today>/<0000|0100>.
func ArtifactPrefix(stage, today string, now time.Time) string {
	return path.Join(stage, today, calendar.RunHourSegment(now))
}

// Classify counts article and image keys.
func Classify(keys []string, articleSuffix, imageSuffix string) PublicationInfo {
	var info PublicationInfo
	for _, k := range keys {
		switch {
		case strings.HasSuffix(k, articleSuffix):
			info.ArticleCount++
		case strings.HasSuffix(k, imageSuffix):
			info.ImageCount++
		}
	}
	return info
}

// ValidateCount fails when fewer than minimum articles were published.
func ValidateCount(info PublicationInfo, minimum int) error {
	if se := countFailure(info, minimum); se != nil {
		return se
	}
	return nil
}

func countFailure(info PublicationInfo, minimum int) *StageError {
	if info.ArticleCount >= minimum {
		return nil
	}
	return dataError(StageArtifacts, "Expected at least %d articles, but there are only %d", minimum, info.ArticleCount)
}

func (c *Checker) countArtifacts(ctx context.Context) (PublicationInfo, *StageError) {
	prefix := ArtifactPrefix(c.cfg.Stage, c.cfg.Today, c.now().In(c.cfg.Location))

	cctx, cancel := c.callContext(ctx)
	keys, err := c.objects.ListObjects(cctx, c.cfg.Bucket, prefix)
	cancel()
	if err != nil {
		return PublicationInfo{}, transportError(StageArtifacts, fmt.Errorf("list s3://%s/%s: %w", c.cfg.Bucket, prefix, err))
	}

	info := Classify(keys, c.cfg.ArticleSuffix, c.cfg.ImageSuffix)
	return info, countFailure(info, c.cfg.MinimumArticleCount)
}
