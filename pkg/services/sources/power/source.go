// Package power provides the static hardware power model. Profiles are an
// embedded coefficient table in the Cloud Carbon Footprint style; they change
// on the order of hardware generations, not analysis runs.
package power

import (
	"context"
	"fmt"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/sources"
)

const sourceName = "power_model"

// profiles maps EC2 instance types to whole-instance power draw in watts.
// Min is idle, Max is full load, Avg is the 50% utilization point.
var profiles = map[string]domain.PowerProfile{
	"t2.micro":    {InstanceType: "t2.micro", MinWatts: 1.6, AvgWatts: 4.3, MaxWatts: 7.0},
	"t2.small":    {InstanceType: "t2.small", MinWatts: 1.7, AvgWatts: 4.7, MaxWatts: 7.7},
	"t2.medium":   {InstanceType: "t2.medium", MinWatts: 3.3, AvgWatts: 9.2, MaxWatts: 15.1},
	"t3.micro":    {InstanceType: "t3.micro", MinWatts: 1.3, AvgWatts: 3.8, MaxWatts: 6.3},
	"t3.small":    {InstanceType: "t3.small", MinWatts: 1.4, AvgWatts: 4.2, MaxWatts: 6.9},
	"t3.medium":   {InstanceType: "t3.medium", MinWatts: 2.7, AvgWatts: 8.0, MaxWatts: 13.3},
	"t3.large":    {InstanceType: "t3.large", MinWatts: 5.2, AvgWatts: 15.5, MaxWatts: 25.9},
	"m5.large":    {InstanceType: "m5.large", MinWatts: 6.1, AvgWatts: 17.9, MaxWatts: 29.8},
	"m5.xlarge":   {InstanceType: "m5.xlarge", MinWatts: 12.3, AvgWatts: 35.9, MaxWatts: 59.6},
	"m5.2xlarge":  {InstanceType: "m5.2xlarge", MinWatts: 24.6, AvgWatts: 71.8, MaxWatts: 119.2},
	"c5.large":    {InstanceType: "c5.large", MinWatts: 5.8, AvgWatts: 17.1, MaxWatts: 28.4},
	"c5.xlarge":   {InstanceType: "c5.xlarge", MinWatts: 11.6, AvgWatts: 34.2, MaxWatts: 56.8},
	"r5.large":    {InstanceType: "r5.large", MinWatts: 6.4, AvgWatts: 18.7, MaxWatts: 31.1},
	"r5.xlarge":   {InstanceType: "r5.xlarge", MinWatts: 12.8, AvgWatts: 37.4, MaxWatts: 62.2},
	"m6g.medium":  {InstanceType: "m6g.medium", MinWatts: 1.9, AvgWatts: 5.6, MaxWatts: 9.3},
	"m6g.large":   {InstanceType: "m6g.large", MinWatts: 3.8, AvgWatts: 11.2, MaxWatts: 18.6},
	"t4g.nano":    {InstanceType: "t4g.nano", MinWatts: 0.4, AvgWatts: 1.2, MaxWatts: 2.0},
	"t4g.micro":   {InstanceType: "t4g.micro", MinWatts: 0.8, AvgWatts: 2.4, MaxWatts: 4.0},
	"t4g.small":   {InstanceType: "t4g.small", MinWatts: 1.0, AvgWatts: 3.0, MaxWatts: 5.0},
	"t4g.medium":  {InstanceType: "t4g.medium", MinWatts: 2.0, AvgWatts: 6.0, MaxWatts: 10.0},
}

type staticSource struct{}

func NewStatic() sources.PowerSource {
	return &staticSource{}
}

// GetPowerProfile returns the power model for an instance type. Unknown
// types are an explicit error; there is no default wattage.
func (s *staticSource) GetPowerProfile(_ context.Context, instanceType string) (domain.PowerProfile, error) {
	profile, ok := profiles[instanceType]
	if !ok {
		return domain.PowerProfile{}, domain.NewSourceError(domain.ErrInsufficientData, sourceName,
			fmt.Errorf("no power profile for instance type %q", instanceType))
	}
	return profile, nil
}

// KnownInstanceTypes lists the instance types the model covers.
func KnownInstanceTypes() []string {
	types := make([]string, 0, len(profiles))
	for t := range profiles {
		types = append(types, t)
	}
	return types
}
