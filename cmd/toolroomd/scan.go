package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"toolroom-console/config"
	"toolroom-console/internal/apiclient"
	"toolroom-console/internal/db"
	"toolroom-console/internal/scan"
	"toolroom-console/internal/store"
)

func newScanCmd(a *app) *cobra.Command {
	var mode, worker, asset string
	var noJournal bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one checkout or return from the command line",
		Example: "  toolroomd scan --worker QR-W-001 --asset QR-A-001\n" +
			"  toolroomd scan --mode return --worker QR-W-001 --asset QR-A-001",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.scanOnce(cmd, strings.ToUpper(mode), worker, asset, !noJournal)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", scan.ModeCheckout, "CHECKOUT or RETURN")
	cmd.Flags().StringVar(&worker, "worker", "", "worker badge code")
	cmd.Flags().StringVar(&asset, "asset", "", "asset or kit code")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "do not record the scan in the station journal")
	return cmd
}

func (a *app) scanOnce(cmd *cobra.Command, mode, worker, asset string, journal bool) error {
	var j scan.Journal
	if journal {
		gormDB, err := db.Init(&a.cfg.Database, a.log)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		j = store.NewGormStore(gormDB)
	}

	ctl := scan.NewController(apiclient.New(a.cfg.API, a.log), j, scan.Options{
		SuccessDismiss: config.Every(a.cfg.Console.SuccessDismissMs),
		ErrorDismiss:   config.Every(a.cfg.Console.ErrorDismissMs),
		Location:       a.cfg.Display.Location,
	}, a.log)
	defer ctl.Close()

	if err := ctl.Update(scan.Input{WorkerCode: &worker, AssetCode: &asset, Mode: &mode}); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.API.Timeout+5*time.Second)
	defer cancel()
	st, err := ctl.Submit(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, st.Message)
	if st.SubMessage != "" {
		fmt.Fprintln(out, st.SubMessage)
	}
	if st.Status != scan.StatusSuccess {
		return fmt.Errorf("%s failed", strings.ToLower(mode))
	}
	return nil
}
