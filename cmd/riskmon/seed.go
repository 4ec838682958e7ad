package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"riskmonitor/internal/types"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo organization with suppliers and dependencies",
	RunE:  runSeed,
}

func coord(v float64) *float64 { return &v }

func runSeed(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	org, err := st.CreateOrganization(ctx, &types.Organization{
		Name:          "Meridian Electronics",
		Industry:      types.IndustryElectronics,
		Headquarters:  "San Jose, USA",
		Description:   "Consumer electronics manufacturer with an Asia-Pacific supply base",
		ShippingRoute: []string{"Shanghai", "Los Angeles"},
	})
	if err != nil {
		return fmt.Errorf("create organization: %w", err)
	}

	suppliers := []types.Supplier{
		{
			Name: "Hsinchu Semiconductor", Country: "Taiwan", City: "Hsinchu",
			Category: types.CategoryComponents, Criticality: types.CriticalityCritical,
			Tier: types.Tier1, LeadTimeDays: 90, ReliabilityScore: 94,
			CapacityUtilization: 88, Latitude: coord(24.80), Longitude: coord(120.97),
		},
		{
			Name: "Osaka Precision Parts", Country: "Japan", City: "Osaka",
			Category: types.CategoryComponents, Criticality: types.CriticalityHigh,
			Tier: types.Tier1, LeadTimeDays: 45, ReliabilityScore: 91,
			CapacityUtilization: 72, Latitude: coord(34.69), Longitude: coord(135.50),
		},
		{
			Name: "Shenzhen Assembly Works", Country: "China", City: "Shenzhen",
			Category: types.CategoryFinishedGoods, Criticality: types.CriticalityHigh,
			Tier: types.Tier1, LeadTimeDays: 30, ReliabilityScore: 85,
			CapacityUtilization: 93, Latitude: coord(22.54), Longitude: coord(114.06),
		},
		{
			Name: "Bavarian Connector GmbH", Country: "Germany", City: "Munich",
			Category: types.CategoryComponents, Criticality: types.CriticalityMedium,
			Tier: types.Tier2, LeadTimeDays: 21, ReliabilityScore: 96,
			CapacityUtilization: 60, Latitude: coord(48.14), Longitude: coord(11.58),
		},
		{
			Name: "Pacific Freight Lines", Country: "USA", City: "Los Angeles",
			Category: types.CategoryLogistics, Criticality: types.CriticalityMedium,
			Tier: types.Tier1, LeadTimeDays: 14, ReliabilityScore: 82,
			CapacityUtilization: 78, Latitude: coord(34.05), Longitude: coord(-118.24),
		},
		{
			Name: "Inner Mongolia Rare Earths", Country: "China", City: "Baotou",
			Category: types.CategoryRawMaterials, Criticality: types.CriticalityLow,
			Tier: types.Tier3, LeadTimeDays: 60, ReliabilityScore: 75,
			CapacityUtilization: 65, Latitude: coord(40.66), Longitude: coord(109.84),
		},
	}

	ids := make(map[string]int64, len(suppliers))
	for i := range suppliers {
		suppliers[i].OrganizationID = org.ID
		sup, err := st.CreateSupplier(ctx, &suppliers[i])
		if err != nil {
			return fmt.Errorf("create supplier %q: %w", suppliers[i].Name, err)
		}
		ids[sup.Name] = sup.ID
	}

	deps := []struct {
		from, to, kind string
	}{
		{"Shenzhen Assembly Works", "Hsinchu Semiconductor", "sole_source"},
		{"Shenzhen Assembly Works", "Osaka Precision Parts", "primary"},
		{"Osaka Precision Parts", "Inner Mongolia Rare Earths", "raw_material"},
		{"Pacific Freight Lines", "Shenzhen Assembly Works", "upstream"},
	}
	for _, d := range deps {
		if _, err := st.AddDependency(ctx, ids[d.from], ids[d.to], d.kind); err != nil {
			return fmt.Errorf("add dependency %s -> %s: %w", d.from, d.to, err)
		}
	}

	if _, err := st.AppendRiskHistory(ctx, &types.RiskHistoryEntry{
		OrganizationID: org.ID,
		RiskScore:      28.5,
		Notes:          "Baseline assessment at seed time",
	}); err != nil {
		return fmt.Errorf("append risk history: %w", err)
	}

	fmt.Printf("Seeded organization %d (%s) with %d suppliers and %d dependencies\n",
		org.ID, org.Name, len(suppliers), len(deps))
	return nil
}
