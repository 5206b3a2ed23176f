package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Muscledia/gamification-service/internal/app"
	"github.com/Muscledia/gamification-service/internal/outbox"
)

const deadLetterTimeout = 30 * time.Second

func newApp() *fx.App {
	return app.New()
}

func newDeadLetterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deadletter",
		Short: "Inspect and replay dead-lettered outbox entries",
	}

	cmd.AddCommand(newDeadLetterListCmd())
	cmd.AddCommand(newDeadLetterReplayCmd())

	return cmd
}

func newDeadLetterListCmd() *cobra.Command {
	var limit int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List dead-lettered entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, store outbox.Store) error {
				entries, err := store.ListDeadLetters(ctx, limit)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Println("no dead-lettered entries")
					return nil
				}

				fmt.Printf("%-36s  %-22s  %-24s  %8s  %s\n",
					"ID", "EVENT TYPE", "TOPIC", "ATTEMPTS", "LAST ERROR")
				for _, entry := range entries {
					fmt.Printf("%-36s  %-22s  %-24s  %8d  %s\n",
						entry.ID, entry.EventType, entry.Topic,
						entry.AttemptCount, entry.LastError)
				}
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&limit, "limit", 100, "Maximum number of entries to list")

	return cmd
}

func newDeadLetterReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <entry-id>",
		Short: "Requeue a dead-lettered entry for publishing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, store outbox.Store) error {
				if err := store.Replay(ctx, args[0]); err != nil {
					if errors.Is(err, outbox.ErrNotDeadLetter) {
						return fmt.Errorf("entry %s is not dead-lettered", args[0])
					}
					return err
				}
				fmt.Printf("entry %s requeued\n", args[0])
				return nil
			})
		},
	}
}

// withStore runs fn against the outbox store with only the infrastructure
// stack started; the relay, consumers and scheduler stay down.
func withStore(fn func(ctx context.Context, store outbox.Store) error) error {
	var runErr error

	fxApp := fx.New(
		app.InfraOptions(),
		outbox.StoreModule(),
		fx.Invoke(func(lc fx.Lifecycle, store outbox.Store) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					runErr = fn(ctx, store)
					return nil
				},
			})
		}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), deadLetterTimeout)
	defer cancel()

	if err := fxApp.Start(ctx); err != nil {
		return err
	}
	if err := fxApp.Stop(ctx); err != nil {
		return err
	}
	return runErr
}
