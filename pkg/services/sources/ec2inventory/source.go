// Package ec2inventory lists the tracked compute instances and their current
// observed state via EC2 DescribeInstances.
package ec2inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/sources"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/store/cache"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

const sourceName = "ec2_inventory"

type EC2API interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

type source struct {
	client EC2API
	store  cache.Store
	region string
	zone   string
	ttl    time.Duration
}

// New builds the inventory source. zone is the grid zone all instances in
// region map to for carbon intensity lookups.
func New(client EC2API, store cache.Store, region, zone string, ttl time.Duration) sources.InventorySource {
	if ttl == 0 {
		ttl = sources.TTLInventory
	}
	return &source{client: client, store: store, region: region, zone: zone, ttl: ttl}
}

func NewFromConfig(cfg aws.Config, store cache.Store, zone string) sources.InventorySource {
	return New(ec2.NewFromConfig(cfg), store, cfg.Region, zone, sources.TTLInventory)
}

func (s *source) ListResources(ctx context.Context) ([]domain.Resource, error) {
	res, _, err := cache.GetOrFetchAs(ctx, s.store, sourceName, "instances_"+s.region, s.ttl, cache.ClassPrimary,
		s.fetchInstances)
	return res, err
}

func (s *source) fetchInstances(ctx context.Context) ([]domain.Resource, error) {
	var (
		out       []domain.Resource
		nextToken *string
	)

	for {
		result, err := s.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
			NextToken: nextToken,
		})
		if err != nil {
			return nil, domain.NewSourceError(domain.ErrSourceUnavailable, sourceName,
				fmt.Errorf("DescribeInstances: %w", err))
		}

		for _, reservation := range result.Reservations {
			for _, inst := range reservation.Instances {
				if inst.InstanceId == nil {
					return nil, domain.NewSourceError(domain.ErrMalformedResponse, sourceName,
						fmt.Errorf("instance without id"))
				}
				// Terminated instances still appear for a while; keep them so
				// their runtime inside the window is still attributed.
				instanceType := string(inst.InstanceType)
				out = append(out, domain.Resource{
					ID:           *inst.InstanceId,
					Category:     instanceType,
					InstanceType: instanceType,
					Region:       s.region,
					Zone:         s.zone,
					Running:      inst.State != nil && inst.State.Name == ec2types.InstanceStateNameRunning,
				})
			}
		}

		nextToken = result.NextToken
		if nextToken == nil {
			break
		}
	}

	return out, nil
}
