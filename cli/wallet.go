// ABOUTME: Wallet CLI commands
// ABOUTME: Personal ledger pages, the admin all-wallets table, and payouts
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/harperreed/salesdesk/entities"
	"github.com/harperreed/salesdesk/models"
	"github.com/harperreed/salesdesk/wallet"
)

func WalletCommand(ctx context.Context, app *App, args []string) error {
	if len(args) > 0 && args[0] == "payout" {
		return PayoutCommand(ctx, app, args[1:])
	}

	fs := flag.NewFlagSet("wallet", flag.ContinueOnError)
	pageNum := fs.Int("page", 1, "Transaction page")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := app.RequireSession(ctx); err != nil {
		return err
	}

	v, err := app.Wallet.Load(ctx, *app.Session.User(), *pageNum)
	if err != nil {
		return err
	}
	wallet.Render(app.Out, v)
	return nil
}

// PayoutCommand processes a payout for a user. Admin only.
func PayoutCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("wallet payout", flag.ContinueOnError)
	user := fs.String("user", "", "User ID to pay (required)")
	amount := fs.Float64("amount", 0, "Amount to pay out (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" {
		return fmt.Errorf("--user is required")
	}
	if err := app.RequireSession(ctx); err != nil {
		return err
	}

	v, err := app.Wallet.Payout(ctx, *app.Session.User(), models.ID(*user), *amount)
	if err != nil {
		return err
	}
	app.printf("✓ Paid %s to user %s\n\n", entities.Money(models.Amount(*amount)), *user)
	wallet.Render(app.Out, v)
	return nil
}
