package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/tableview"
	"github.com/vango-dev/tableview/internal/config"
	"github.com/vango-dev/tableview/internal/errors"
	"github.com/vango-dev/tableview/pkg/snapshot"
	"github.com/vango-dev/tableview/pkg/viewstate"
)

func snapshotCmd() *cobra.Command {
	var (
		dir    string
		client string
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect or clear persisted view state",
		Long: `Inspect or clear the view state persisted for a client.

The client id is the value of the tv_client cookie.

Examples:
  tableview snapshot show --client=3f0c...
  tableview snapshot clear --client=3f0c...`,
	}

	cmd.PersistentFlags().StringVarP(&dir, "config", "c", ".", "Directory containing the config file")
	cmd.PersistentFlags().StringVar(&client, "client", "", "Client id (tv_client cookie)")
	_ = cmd.MarkPersistentFlagRequired("client")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the persisted view state as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), dir, func(ctx context.Context, cfg *config.Config, store snapshot.Store) error {
				return showSnapshot(ctx, cmd.OutOrStdout(), store, snapshot.Key(client, cfg.Table.ID))
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the persisted view state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), dir, func(ctx context.Context, cfg *config.Config, store snapshot.Store) error {
				key := snapshot.Key(client, cfg.Table.ID)
				if err := store.Delete(ctx, key); err != nil {
					return errors.FromError(err, errors.CodeSnapshotUnavailable)
				}
				success("Cleared %s", key)
				return nil
			})
		},
	}

	cmd.AddCommand(show, clearCmd)
	return cmd
}

func withStore(ctx context.Context, dir string, fn func(context.Context, *config.Config, snapshot.Store) error) error {
	cfg, err := loadConfig(dir)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	store, closeStore, err := tableview.OpenSnapshotStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(ctx, cfg, store)
}

// showSnapshot writes the snapshot for key. A missing snapshot prints the
// empty view state.
func showSnapshot(ctx context.Context, w io.Writer, store snapshot.Store, key string) error {
	vs, err := snapshot.LoadState(ctx, store, key)
	switch {
	case stderrors.Is(err, snapshot.ErrMissing):
		fmt.Fprintf(os.Stderr, "no snapshot stored for %s\n", key)
		vs = viewstate.ViewState{}
	case stderrors.Is(err, snapshot.ErrCorrupt):
		return errors.New(errors.CodeSnapshotCorrupt).WithDetailf("key %s", key).Wrap(err)
	case err != nil:
		return errors.FromError(err, errors.CodeSnapshotUnavailable)
	}

	data, err := snapshot.Encode(vs)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
