// ABOUTME: Wallet screen loader with separate admin and personal views
// ABOUTME: Admins see every wallet and pending payouts; others see their own ledger
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/harperreed/salesdesk/entities"
	"github.com/harperreed/salesdesk/models"
	"github.com/harperreed/salesdesk/notify"
)

// PageSize is the number of ledger rows per page.
const PageSize = 10

var (
	ErrNotAdmin      = errors.New("payouts require admin access")
	ErrInvalidAmount = errors.New("payout amount must be greater than zero")
)

// Source is the slice of the API the wallet screen needs. *api.Client satisfies it.
type Source interface {
	Wallet(ctx context.Context) (models.Wallet, error)
	Transactions(ctx context.Context, limit, offset int) ([]models.Transaction, int, error)
	AllWallets(ctx context.Context) ([]models.WalletSummary, error)
	PendingPayouts(ctx context.Context) ([]models.Payout, error)
	ProcessPayout(ctx context.Context, userID models.ID, amount float64) error
}

// IsAdmin reports whether u gets the all-wallets view.
func IsAdmin(u models.User) bool {
	return u.HasAny(models.PermAdmin, models.PermSuperAdmin)
}

// View is everything one render of the wallet screen shows. Admin views fill
// Wallets and Pending; personal views fill Wallet and Transactions.
type View struct {
	Admin bool

	Wallets []models.WalletSummary
	Pending []models.Payout

	Wallet       models.Wallet
	Transactions []models.Transaction
	Page         int
	TotalPages   int
}

func (v View) HasPrev() bool { return !v.Admin && v.Page > 1 }
func (v View) HasNext() bool { return !v.Admin && v.Page < v.TotalPages }

type Loader struct {
	src      Source
	notifier notify.Notifier
	logger   *log.Logger
}

func NewLoader(src Source, notifier notify.Notifier, logger *log.Logger) *Loader {
	return &Loader{src: src, notifier: notifier, logger: logger}
}

// Load fetches the view for user. page is ignored for admins and clamped to
// at least 1 otherwise.
func (l *Loader) Load(ctx context.Context, user models.User, page int) (View, error) {
	if IsAdmin(user) {
		return l.loadAdmin(ctx)
	}
	return l.loadPersonal(ctx, max(page, 1))
}

func (l *Loader) loadAdmin(ctx context.Context) (View, error) {
	v := View{Admin: true, Page: 1, TotalPages: 1}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w, err := l.src.AllWallets(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch wallets: %w", err)
		}
		v.Wallets = w
		return nil
	})
	g.Go(func() error {
		p, err := l.src.PendingPayouts(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch pending payouts: %w", err)
		}
		v.Pending = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return View{}, l.failed(err, "Failed to fetch wallet data")
	}
	if v.Wallets == nil {
		v.Wallets = []models.WalletSummary{}
	}
	if v.Pending == nil {
		v.Pending = []models.Payout{}
	}
	return v, nil
}

func (l *Loader) loadPersonal(ctx context.Context, page int) (View, error) {
	v := View{Page: page, TotalPages: 1}
	var total int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w, err := l.src.Wallet(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch wallet: %w", err)
		}
		v.Wallet = w
		return nil
	})
	g.Go(func() error {
		txs, n, err := l.src.Transactions(gctx, PageSize, (page-1)*PageSize)
		if err != nil {
			return fmt.Errorf("failed to fetch transactions: %w", err)
		}
		v.Transactions, total = txs, n
		return nil
	})
	if err := g.Wait(); err != nil {
		return View{}, l.failed(err, "Failed to fetch wallet data")
	}
	if v.Transactions == nil {
		v.Transactions = []models.Transaction{}
	}
	if total == 0 {
		total = len(v.Transactions)
	}
	v.TotalPages = max(TotalPages(total), 1)
	return v, nil
}

// TotalPages is ceil(total / PageSize).
func TotalPages(total int) int {
	return (total + PageSize - 1) / PageSize
}

// Payout processes a payout for userID and returns the refreshed admin view.
func (l *Loader) Payout(ctx context.Context, admin models.User, userID models.ID, amount float64) (View, error) {
	if !IsAdmin(admin) {
		return View{}, ErrNotAdmin
	}
	if amount <= 0 {
		return View{}, ErrInvalidAmount
	}
	if userID.IsZero() {
		return View{}, fmt.Errorf("payout needs a user id")
	}
	if err := l.src.ProcessPayout(ctx, userID, amount); err != nil {
		return View{}, l.failed(err, "Failed to process payout")
	}
	l.notifier.Notify(notify.Successf("Payout of %s processed", entities.Money(models.Amount(amount))))
	l.logger.Info("payout processed", "user", userID, "amount", amount)
	return l.loadAdmin(ctx)
}

func (l *Loader) failed(err error, msg string) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	l.logger.Error(msg, "err", err)
	l.notifier.Notify(notify.Errorf(err, "%s", msg))
	return err
}
