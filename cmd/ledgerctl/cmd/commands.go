package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/database"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			version, err := database.Migrate(cmd.Context(), e.cfg.Database.Driver, e.db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}
}

func newPostDividendsCmd(e *env) *cobra.Command {
	var (
		shareTypeID string
		instanceIDs []string
		runID       string
	)

	c := &cobra.Command{
		Use:     "post-dividends",
		Short:   "Pay the dividend of a share type to the shares of the given instances",
		Example: "ledgerctl post-dividends --share-type {id} --instance {id} --instance {id} [--run-id {id}]",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := e.svcs.Dividend.PostDividends(cmd.Context(), model.DividendRequest{
				ShareTypeID: shareTypeID,
				InstanceIDs: instanceIDs,
				RunID:       runID,
			})
			if err != nil {
				if result.RunID != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "run %s stopped after %d pages; rerun with --run-id %s to resume\n",
						result.RunID, result.PagesCommitted, result.RunID)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s paid %d shares a total of %s in %d pages\n",
				result.RunID, result.SharesPaid, result.TotalPaid, result.PagesCommitted)
			return nil
		},
	}

	c.Flags().StringVarP(&shareTypeID, "share-type", "t", "", "share type id")
	c.Flags().StringArrayVarP(&instanceIDs, "instance", "i", nil, "instance id (repeatable)")
	c.Flags().StringVar(&runID, "run-id", "", "id of an interrupted run to resume")
	//nolint:errcheck // flags are defined above
	c.MarkFlagRequired("share-type")
	//nolint:errcheck // flags are defined above
	c.MarkFlagRequired("instance")
	return c
}

func newResetLimitsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-limits",
		Short: "Start a new withdrawal-limit window for every share type whose window expired",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reset, err := e.svcs.LimitReset.ResetExpired(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reset %d share types\n", len(reset))
			for _, id := range reset {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newVerifyBalanceCmd(e *env) *cobra.Command {
	var shareIDs []string

	c := &cobra.Command{
		Use:   "verify-balance",
		Short: "Check that share balances match the sum of their ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var failed int
			for _, id := range shareIDs {
				if err := e.svcs.Share.VerifyBalance(cmd.Context(), id); err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", id, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", id)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d shares failed verification", failed, len(shareIDs))
			}
			return nil
		},
	}

	c.Flags().StringArrayVarP(&shareIDs, "share", "s", nil, "share id (repeatable)")
	//nolint:errcheck // flags are defined above
	c.MarkFlagRequired("share")
	return c
}
