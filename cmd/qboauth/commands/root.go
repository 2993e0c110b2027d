package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/qbotools/qboauth/internal/app"
	"github.com/qbotools/qboauth/internal/observability"
	"github.com/qbotools/qboauth/internal/qbo"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:  "qboauth",
		Usage: "QuickBooks Online credential bootstrap and query tool",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:  "auth--storage",
				Usage: "bundle storage backend (file|keyring)",
			},
			&cli.StringFlag{
				Name:  "api--environment",
				Usage: "QuickBooks environment (sandbox|production)",
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			tokenCommand(),
			resetCommand(),
			inventoryCommand(),
			invoicesCommand(),
			salesReceiptsCommand(),
			reportCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

// setup loads configuration, installs logging, and wires the application.
func setup(cmd *cli.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Set up observability before creating the app
	if err := observability.Instrument(cfg.LogLevel, string(cfg.LogFormat)); err != nil {
		return nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create app: %w", err)
	}
	return application, nil
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "run the interactive authorization flow, replacing stored credentials",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			application, err := setup(cmd)
			if err != nil {
				return err
			}
			defer shutdownObservability(ctx)

			if err := application.Manager.Login(ctx); err != nil {
				return fmt.Errorf("authorization failed: %w", err)
			}

			realm, err := application.Manager.RealmID(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Authorization complete. Connected to company %s.\n", realm)
			fmt.Println("Future runs will refresh silently.")
			return nil
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "print a currently valid access token and realm id",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			application, err := setup(cmd)
			if err != nil {
				return err
			}
			defer shutdownObservability(ctx)

			token, err := application.Manager.Token(ctx)
			if err != nil {
				return err
			}
			realm, err := application.Manager.RealmID(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("access_token  %s\n", token)
			fmt.Printf("realm_id      %s\n", realm)
			return nil
		},
	}
}

func resetCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "delete stored credentials; the next run starts authorization over",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			application, err := setup(cmd)
			if err != nil {
				return err
			}
			defer shutdownObservability(ctx)

			if err := application.Manager.Reset(ctx); err != nil {
				return err
			}
			fmt.Println("Stored credentials removed.")
			return nil
		},
	}
}

func inventoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "inventory",
		Usage: "inventory item queries",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list active inventory items",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					application, err := setup(cmd)
					if err != nil {
						return err
					}
					defer shutdownObservability(ctx)

					items, err := application.Client.ActiveInventoryItems(ctx)
					if err != nil {
						return err
					}
					if len(items) == 0 {
						fmt.Println("No inventory items found in this company file.")
						fmt.Println("(Inventory tracking requires QuickBooks Online Plus and must be enabled in company settings.)")
						return nil
					}
					renderItems(items)
					return nil
				},
			},
			{
				Name:  "export-qty",
				Usage: "export SKU and quantity on hand for all active inventory items to CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "output CSV file",
						Value:   "qbo_inventory_qty.csv",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					application, err := setup(cmd)
					if err != nil {
						return err
					}
					defer shutdownObservability(ctx)

					items, err := application.Client.AllInventoryItems(ctx)
					if err != nil {
						return err
					}

					outPath := cmd.String("output")
					out, err := os.Create(outPath)
					if err != nil {
						return fmt.Errorf("creating %s: %w", outPath, err)
					}
					defer func() { _ = out.Close() }()

					rows, err := qbo.WriteSkuQuantityCSV(out, items)
					if err != nil {
						return err
					}
					if err := out.Close(); err != nil {
						return fmt.Errorf("writing %s: %w", outPath, err)
					}

					fmt.Printf("%d inventory items saved to %s\n", rows, outPath)
					return nil
				},
			},
		},
	}
}

func invoicesCommand() *cli.Command {
	return &cli.Command{
		Name:  "invoices",
		Usage: "invoice queries",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list recent invoices",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					application, err := setup(cmd)
					if err != nil {
						return err
					}
					defer shutdownObservability(ctx)

					invoices, err := application.Client.RecentInvoices(ctx)
					if err != nil {
						return err
					}
					if len(invoices) == 0 {
						fmt.Println("No invoices found matching the query.")
						return nil
					}
					renderInvoices(invoices)
					return nil
				},
			},
		},
	}
}

func salesReceiptsCommand() *cli.Command {
	return &cli.Command{
		Name:  "salesreceipts",
		Usage: "sales receipt queries",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list recent sales receipts",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					application, err := setup(cmd)
					if err != nil {
						return err
					}
					defer shutdownObservability(ctx)

					receipts, err := application.Client.RecentSalesReceipts(ctx)
					if err != nil {
						return err
					}
					if len(receipts) == 0 {
						fmt.Println("No sales receipts found.")
						return nil
					}
					renderSalesReceipts(receipts)
					return nil
				},
			},
		},
	}
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "fetch recent invoices and sales receipts in one go",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			application, err := setup(cmd)
			if err != nil {
				return err
			}
			defer shutdownObservability(ctx)

			// Prime the session first so the concurrent queries never race
			// into the interactive flow
			if _, err := application.Manager.Token(ctx); err != nil {
				return err
			}

			var (
				invoices []qbo.Invoice
				receipts []qbo.SalesReceipt
			)
			g, gCtx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				invoices, err = application.Client.RecentInvoices(gCtx)
				return err
			})
			g.Go(func() error {
				var err error
				receipts, err = application.Client.RecentSalesReceipts(gCtx)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			fmt.Printf("Invoices (%d):\n", len(invoices))
			if len(invoices) > 0 {
				renderInvoices(invoices)
			}
			fmt.Printf("\nSales receipts (%d):\n", len(receipts))
			if len(receipts) > 0 {
				renderSalesReceipts(receipts)
			}
			return nil
		},
	}
}

// shutdownObservability flushes exported log records; best effort.
func shutdownObservability(ctx context.Context) {
	if err := observability.Shutdown(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "warning: flushing logs:", err)
	}
}
