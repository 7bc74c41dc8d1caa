package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contactkeval/csp-screener/internal/execution"
	"github.com/contactkeval/csp-screener/internal/report"
)

func planCmd() *cobra.Command {
	var (
		input         string
		maxPositions  int
		maxCollateral float64
		output        string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Turn saved scan results into a sized order plan",
		RunE: func(*cobra.Command, []string) error {
			cands, err := report.ReadJSON(input)
			if err != nil {
				return err
			}

			plan, err := execution.PlanOrders(cands, maxPositions, maxCollateral)
			if err != nil {
				return err
			}

			execution.WritePlan(os.Stdout, plan)
			if output != "" {
				if err := execution.SavePlan(plan, output); err != nil {
					return fmt.Errorf("writing plan: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "results.json", "scan results JSON (from scan --json)")
	cmd.Flags().IntVar(&maxPositions, "max-positions", 5, "maximum simultaneous positions")
	cmd.Flags().Float64Var(&maxCollateral, "max-collateral", 100000, "total cash available to secure puts")
	cmd.Flags().StringVarP(&output, "output", "o", "", "also write the plan to this JSON file")

	return cmd
}
