package commands

import (
	"fmt"
	"sort"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/sources/power"
	"github.com/spf13/cobra"
)

// NewResourcesCmd lists the instance types the power model covers; anything
// else will report its emissions as absent.
func NewResourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List instance types with a known power profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			types := power.KnownInstanceTypes()
			sort.Strings(types)
			for _, t := range types {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
}
