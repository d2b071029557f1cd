// Package output renders calculation results for humans: a colored
// console report and a CSV bill of materials.
package output

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/panelwise/panelwright/pkg/demand"
)

// PrintLoadReport prints a nicely formatted load calculation report with colors
func PrintLoadReport(projectName string, res *demand.ResidentialLoadResult) {
	// Color definitions
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	// Header
	bold.Println("Panelwright - Residential Load Calculation")
	bold.Println("==========================================")
	if projectName != "" {
		fmt.Printf("Project: %s\n", projectName)
	}
	fmt.Println()

	// Breakdown table
	bold.Println("LOAD BREAKDOWN:")
	for _, row := range res.Breakdown {
		fmt.Printf("  %-42s %10.0f VA", row.Description, row.ConnectedVA)
		if row.DemandFactor != 1 {
			cyan.Printf("  x%.2f", row.DemandFactor)
		} else {
			fmt.Printf("       ")
		}
		fmt.Printf(" -> %10.0f VA\n", row.DemandVA)
	}
	fmt.Println()

	// Totals
	fmt.Printf("Total connected: %.0f VA\n", res.TotalConnectedVA)
	fmt.Printf("Total demand:    %.0f VA (factor %.2f)\n", res.TotalDemandVA, res.DemandFactor)
	fmt.Printf("Service load:    %.1f A\n", res.ServiceAmps)
	fmt.Printf("Neutral load:    %.0f VA (%.1f A)\n", res.NeutralLoadVA, res.NeutralAmps)
	if res.NeutralReduction > 0 {
		cyan.Printf("Neutral reduced by %.0f VA per NEC 220.61(B)\n", res.NeutralReduction)
	}
	fmt.Println()

	// Service recommendation, colored by headroom
	headroom := 1 - res.ServiceAmps/float64(res.RecommendedServiceSize)
	recColor := green
	if headroom < 0.3 {
		recColor = yellow
	}
	if headroom < 0.1 {
		recColor = red
	}
	recColor.Printf("Recommended service: %dA\n", res.RecommendedServiceSize)
	fmt.Printf("Service conductor:   %s\n", res.ServiceConductorSize)
	fmt.Printf("Neutral conductor:   %s\n", res.NeutralConductorSize)
	fmt.Printf("Grounding electrode: %s\n", res.GECSize)
	fmt.Println()

	// Warnings
	if len(res.Warnings) > 0 {
		red.Println("WARNINGS:")
		for _, w := range res.Warnings {
			yellow.Printf("  %s\n", w)
		}
		fmt.Println()
	}

	// Code references
	if len(res.NECReferences) > 0 {
		fmt.Print("References: ")
		for i, ref := range res.NECReferences {
			if i > 0 {
				fmt.Print(", ")
			}
			fmt.Print(ref)
		}
		fmt.Println()
	}
}

// PrintSchedule prints the generated panel schedule.
func PrintSchedule(circuits []demand.GeneratedCircuit) {
	bold := color.New(color.Bold)
	bold.Println("GENERATED PANEL SCHEDULE:")
	for _, c := range circuits {
		fmt.Printf("  %-32s %3dA %d-pole %8.0f W  %s\n",
			c.Description, c.BreakerAmps, c.Pole, c.LoadWatts, c.NECReference)
	}
	fmt.Println()
}

// PrintError prints a fatal validation or topology error in red.
func PrintError(err error) {
	color.New(color.FgRed, color.Bold).Fprintf(color.Error, "error: %v\n", err)
}
