// Package cloudtrail implements the audit-log source. CloudTrail retains
// management events for roughly 90 days; the normalizer's lookback windows
// stay well inside that.
package cloudtrail

import (
	"context"
	"fmt"
	"time"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/sources"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/store/cache"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail/types"
)

const sourceName = "cloudtrail"

// eventNameMap translates CloudTrail management event names to lifecycle
// event types. Anything else in the stream is discarded.
var eventNameMap = map[string]domain.EventType{
	"RunInstances":       domain.EventCreated,
	"StartInstances":     domain.EventStarted,
	"StopInstances":      domain.EventStopped,
	"TerminateInstances": domain.EventTerminated,
}

type TrailAPI interface {
	LookupEvents(ctx context.Context, params *cloudtrail.LookupEventsInput, optFns ...func(*cloudtrail.Options)) (*cloudtrail.LookupEventsOutput, error)
}

type source struct {
	client TrailAPI
	store  cache.Store
	ttl    time.Duration
}

func New(client TrailAPI, store cache.Store, ttl time.Duration) sources.AuditSource {
	if ttl == 0 {
		ttl = sources.TTLAuditEvents
	}
	return &source{client: client, store: store, ttl: ttl}
}

func NewFromConfig(cfg aws.Config, store cache.Store) sources.AuditSource {
	return New(cloudtrail.NewFromConfig(cfg), store, sources.TTLAuditEvents)
}

// GetLifecycleEvents returns the raw lifecycle events for one instance over
// the lookback window, unordered and possibly containing duplicates; the
// normalizer owns filtering and ordering. Runtime reconstruction depends on
// these, so they are primary data.
func (s *source) GetLifecycleEvents(
	ctx context.Context,
	resourceID string,
	lookback domain.TimePeriod,
) ([]domain.LifecycleEvent, error) {
	lookback = clampToRetention(lookback)
	key := fmt.Sprintf("events_%s_%d_%d", resourceID, lookback.Start.Unix(), lookback.End.Unix())

	events, _, err := cache.GetOrFetchAs(ctx, s.store, sourceName, key, s.ttl, cache.ClassPrimary,
		func(ctx context.Context) ([]domain.LifecycleEvent, error) {
			return s.fetchEvents(ctx, resourceID, lookback)
		})
	return events, err
}

func (s *source) fetchEvents(
	ctx context.Context,
	resourceID string,
	lookback domain.TimePeriod,
) ([]domain.LifecycleEvent, error) {
	var (
		events    []domain.LifecycleEvent
		nextToken *string
	)

	for {
		result, err := s.client.LookupEvents(ctx, &cloudtrail.LookupEventsInput{
			StartTime: aws.Time(lookback.Start),
			EndTime:   aws.Time(lookback.End),
			LookupAttributes: []types.LookupAttribute{
				{
					AttributeKey:   types.LookupAttributeKeyResourceName,
					AttributeValue: aws.String(resourceID),
				},
			},
			NextToken: nextToken,
		})
		if err != nil {
			return nil, domain.NewSourceError(domain.ErrSourceUnavailable, sourceName,
				fmt.Errorf("LookupEvents for %s: %w", resourceID, err))
		}

		for _, raw := range result.Events {
			if raw.EventName == nil || raw.EventTime == nil {
				return nil, domain.NewSourceError(domain.ErrMalformedResponse, sourceName,
					fmt.Errorf("event without name or time for %s", resourceID))
			}
			eventType, relevant := eventNameMap[*raw.EventName]
			if !relevant {
				continue
			}
			events = append(events, domain.LifecycleEvent{
				ResourceID: resourceID,
				Type:       eventType,
				Timestamp:  raw.EventTime.UTC(),
			})
		}

		nextToken = result.NextToken
		if nextToken == nil {
			break
		}
	}

	return events, nil
}

func clampToRetention(lookback domain.TimePeriod) domain.TimePeriod {
	horizon := time.Now().UTC().AddDate(0, 0, -sources.AuditRetentionDays)
	if lookback.Start.Before(horizon) {
		lookback.Start = horizon
	}
	return lookback
}
