package main

import (
	"github.com/spf13/cobra"
)

func newAppraiseCmd(c *cli) *cobra.Command {
	var price float64
	cmd := &cobra.Command{
		Use:   "appraise <domain>",
		Short: "Score and value a single domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comps, release, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer release()

			var p *float64
			if cmd.Flags().Changed("price") {
				p = &price
			}
			scored, err := comps.Appraiser.Appraise(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			if c.json {
				return writeJSON(cmd.OutOrStdout(), scored)
			}
			return renderAppraisal(cmd.OutOrStdout(), scored)
		},
	}
	cmd.Flags().Float64Var(&price, "price", 0, "asking price in USD")
	return cmd
}
