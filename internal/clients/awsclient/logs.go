package awsclient

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"pubcheck/internal/check"
)

// maxEventPages caps GetLogEvents paging for a single stream.
const maxEventPages = 500

// LogsAPI is the part of the CloudWatch Logs client the reader calls.
type LogsAPI interface {
	DescribeLogStreams(ctx context.Context, in *cloudwatchlogs.DescribeLogStreamsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error)
	GetLogEvents(ctx context.Context, in *cloudwatchlogs.GetLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetLogEventsOutput, error)
}

// Logs reads the publisher's log group.
type Logs struct {
	api LogsAPI
}

func NewLogs(api LogsAPI) *Logs { return &Logs{api: api} }

func NewCloudWatchLogs(awsCfg aws.Config, customEndpoint string) *Logs {
	ep := endpoint(customEndpoint)
	return NewLogs(cloudwatchlogs.NewFromConfig(awsCfg, func(o *cloudwatchlogs.Options) {
		if ep != nil {
			o.BaseEndpoint = ep
		}
	}))
}

// DescribeLogStreams returns up to limit streams ordered by last event time,
// newest first.
func (l *Logs) DescribeLogStreams(ctx context.Context, group string, limit int) ([]check.LogStream, error) {
	if limit <= 0 {
		return nil, nil
	}
	out, err := l.api.DescribeLogStreams(ctx, &cloudwatchlogs.DescribeLogStreamsInput{
		LogGroupName: aws.String(group),
		OrderBy:      types.OrderByLastEventTime,
		Descending:   aws.Bool(true),
		Limit:        aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("describe log streams %s: %w", group, err)
	}
	streams := make([]check.LogStream, 0, len(out.LogStreams))
	for _, s := range out.LogStreams {
		if s.LogStreamName == nil {
			continue
		}
		streams = append(streams, check.LogStream{
			Name:          *s.LogStreamName,
			LastEventTime: millis(s.LastEventTimestamp),
		})
	}
	if len(streams) > limit {
		streams = streams[:limit]
	}
	return streams, nil
}

// GetLogEvents reads a stream from the start. CloudWatch signals the end of
// a stream by returning the forward token it was given.
func (l *Logs) GetLogEvents(ctx context.Context, group, stream string) ([]check.LogEvent, error) {
	var (
		events []check.LogEvent
		token  *string
	)
	for page := 0; page < maxEventPages; page++ {
		out, err := l.api.GetLogEvents(ctx, &cloudwatchlogs.GetLogEventsInput{
			LogGroupName:  aws.String(group),
			LogStreamName: aws.String(stream),
			StartFromHead: aws.Bool(true),
			NextToken:     token,
		})
		if err != nil {
			return nil, fmt.Errorf("get log events %s/%s: %w", group, stream, err)
		}
		for _, e := range out.Events {
			events = append(events, check.LogEvent{
				Timestamp: millis(e.Timestamp),
				Message:   aws.ToString(e.Message),
			})
		}
		next := out.NextForwardToken
		if next == nil || (token != nil && *next == *token) {
			return events, nil
		}
		token = next
	}
	return events, nil
}

func millis(ms *int64) time.Time {
	if ms == nil {
		return time.Time{}
	}
	return time.UnixMilli(*ms).UTC()
}

var _ check.LogReader = (*Logs)(nil)
