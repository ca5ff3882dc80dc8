package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/snackhack/client/pkg/healthcheck"
)

func (c *cli) doctorCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the store and the recipe backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := c.app.Health.Check(cmd.Context())

			if asJSON {
				data, err := json.MarshalIndent(resp, "", "  ")
				if err != nil {
					return err
				}
				c.printf("%s\n", data)
			} else {
				c.printf("Overall: %s (%s)\n", resp.Status, resp.TotalDuration.Round(1e6))
				for _, check := range resp.Checks {
					c.printf("  %-8s %-9s %s\n", check.Name, check.Status, check.Message)
				}
			}

			if resp.Status == healthcheck.StatusUnhealthy {
				return errors.New("one or more dependencies are unhealthy")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	return cmd
}
