// ABOUTME: Text rendering of the wallet screen
// ABOUTME: Admin all-wallets and pending tables, or the personal summary and ledger
package wallet

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/harperreed/salesdesk/entities"
	"github.com/harperreed/salesdesk/forms"
	"github.com/harperreed/salesdesk/models"
)

func money(v float64) string { return entities.Money(models.Amount(v)) }

// Render writes either view of the wallet screen as aligned text.
func Render(out io.Writer, v View) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	if v.Admin {
		_, _ = fmt.Fprintln(w, "ALL WALLETS")
		if len(v.Wallets) == 0 {
			_, _ = fmt.Fprintln(w, "No wallets yet")
		} else {
			_, _ = fmt.Fprintln(w, "USER\tNAME\tBALANCE\tTOTAL EARNED\tLAST PAYOUT")
			for _, s := range v.Wallets {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.UserID, forms.OrNA(s.FullName),
					money(s.Balance), money(s.TotalEarned), orNever(s.LastPayoutDate))
			}
		}
		_, _ = fmt.Fprintln(w, "\nPENDING PAYOUTS")
		if len(v.Pending) == 0 {
			_, _ = fmt.Fprintln(w, "None")
			return
		}
		_, _ = fmt.Fprintln(w, "ID\tUSER\tAMOUNT\tREQUESTED")
		for _, p := range v.Pending {
			name := p.FullName
			if name == "" {
				name = p.UserID.String()
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, name, money(p.Amount), forms.OrNA(entities.Day(p.RequestedAt)))
		}
		return
	}

	_, _ = fmt.Fprintf(w, "Current Balance:\t%s\n", money(v.Wallet.Balance))
	_, _ = fmt.Fprintf(w, "Total Earned:\t%s\n", money(v.Wallet.TotalEarned))
	_, _ = fmt.Fprintf(w, "Last Payout:\t%s\n\n", orNever(v.Wallet.LastPayoutDate))

	if len(v.Transactions) == 0 {
		_, _ = fmt.Fprintln(w, "No transactions yet")
		return
	}
	_, _ = fmt.Fprintln(w, "DATE\tDESCRIPTION\tLEAD\tAMOUNT")
	for _, t := range v.Transactions {
		lead := t.LeadCompany
		if lead == "" {
			lead = t.LeadName
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", forms.OrNA(entities.Day(t.CreatedAt)), t.Description, forms.OrNA(lead), money(t.Amount))
	}
	if v.TotalPages > 1 {
		_, _ = fmt.Fprintf(w, "\nPage %d of %d\n", v.Page, v.TotalPages)
	}
}

func orNever(date string) string {
	if date == "" {
		return "No payouts yet"
	}
	return entities.Day(date)
}
