package cmd

import (
	"fmt"

	"github.com/fcastdev/fcast-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newMarketsCmd(app *app) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "markets",
		Short: "Browse forecast markets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			markets, err := app.client.ListMarkets(cmd.Context(), domain.MarketStatus(status))
			if err != nil {
				return fmt.Errorf("fetch markets: %w", err)
			}

			if len(markets) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No markets.")
				return err
			}

			for _, market := range markets {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%-8s\t%3.0f%% yes\t%d chips\t%s\n",
					market.ID, market.Status, market.YesPercent, market.Pool, market.Question)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status: open, closed, resolved")

	return cmd
}
