// Package registry composes the concrete external sources from config into
// the set one analysis run consumes.
package registry

import (
	"context"
	"fmt"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/config"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/sources"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/sources/awsce"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/sources/awsconfig"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/sources/cloudtrail"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/sources/cloudwatch"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/sources/ec2inventory"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/sources/electricitymaps"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/sources/power"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/store/cache"
)

// BuildSources resolves AWS credentials once and constructs every source
// against the shared cache store.
func BuildSources(ctx context.Context, cfg *config.Config) (sources.Set, error) {
	store, err := cache.NewFileStore(cfg.CacheDir)
	if err != nil {
		return sources.Set{}, fmt.Errorf("failed to create cache store: %w", err)
	}

	awsCfg, err := awsconfig.Load(ctx, cfg.AWS.Profile, cfg.AWS.Region)
	if err != nil {
		return sources.Set{}, err
	}

	return sources.Set{
		Billing:     awsce.NewFromConfig(*awsCfg, store),
		Utilization: cloudwatch.NewFromConfig(*awsCfg, store),
		Audit:       cloudtrail.NewFromConfig(*awsCfg, store),
		Inventory:   ec2inventory.NewFromConfig(*awsCfg, store, cfg.Carbon.Zone),
		Carbon:      electricitymaps.New(electricitymaps.Config{Token: cfg.Carbon.Token}, store),
		Power:       power.NewStatic(),
	}, nil
}
