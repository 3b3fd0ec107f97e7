package awsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"pubcheck/internal/check"
)

// Objects lists keys with ListObjectsV2, following every page.
type Objects struct {
	api s3.ListObjectsV2APIClient
}

// NewObjects wraps an S3 API client. Tests pass a fake.
func NewObjects(api s3.ListObjectsV2APIClient) *Objects {
	return &Objects{api: api}
}

// NewS3 builds an S3 client. A custom endpoint switches to path-style
// addressing for S3-compatible stores.
func NewS3(awsCfg aws.Config, customEndpoint string) *Objects {
	ep := endpoint(customEndpoint)
	return NewObjects(s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if ep != nil {
			o.BaseEndpoint = ep
			o.UsePathStyle = true
		}
	}))
}

func (o *Objects) ListObjects(ctx context.Context, bucket, prefix string) ([]string, error) {
	p := s3.NewListObjectsV2Paginator(o.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}
	return keys, nil
}

var _ check.ObjectLister = (*Objects)(nil)
