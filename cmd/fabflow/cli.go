package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neomorfeo/fabflow/internal/adapter/otel"
	"github.com/neomorfeo/fabflow/internal/adapter/sqlite"
	"github.com/neomorfeo/fabflow/internal/app"
	"github.com/neomorfeo/fabflow/internal/domain"
)

func newSeedCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load development platforms and profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := otel.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if _, err := sqlite.NewFromDB(db); err != nil {
				return err
			}
			if err := sqlite.Seed(cmd.Context(), db, sqlite.DevFixtures); err != nil {
				return fmt.Errorf("seeding: %w", err)
			}

			for _, p := range sqlite.DevFixtures.Profiles {
				printf(cmd, "user %d\t%s\t%s\n", p.UserID, p.Role, p.CompanyName)
			}
			return nil
		},
	}
}

func newActCmd(cfg *config) *cobra.Command {
	var (
		userID  int64
		orderID int64
		expect  string
	)

	cmd := &cobra.Command{
		Use:   "act ACTION",
		Short: "Apply a workflow action to an order",
		Long: "Apply a workflow action to an order as the given user. ACTION is a " +
			"named action such as approve or sign_agreement, or advance/revert.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := app.Command{Action: domain.Action(args[0])}
			if command.Action.Generic() && expect == "" {
				return fmt.Errorf("%s needs --expect with the status you last saw", command.Action)
			}
			if expect != "" {
				s, err := domain.ParseStatus(expect)
				if err != nil {
					return err
				}
				command.Expect = s
			}

			// Without a running worker the chat job stays queued until the
			// next serve picks it up.
			st, err := openStack(cmd.Context(), *cfg, newLogger(*cfg), nil)
			if err != nil {
				return err
			}
			defer st.Close()

			res, err := st.engine.Apply(cmd.Context(), userID, orderID, command)
			if err != nil {
				return err
			}

			printf(cmd, "%s: %s -> %s (%s)\n", res.Order.Number, res.Previous, res.Order.Status, res.Outcome)
			if res.Outcome == app.OutcomePreconditionUnmet {
				printf(cmd, "reason: %s\n", res.Reason)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "acting user id")
	cmd.Flags().Int64Var(&orderID, "order", 0, "order id")
	cmd.Flags().StringVar(&expect, "expect", "", "status the order is expected to be in (required for advance and revert)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("order")
	return cmd
}
