// ABOUTME: Relation picker searches backed by the list endpoints
// ABOUTME: Maps outlets, leads, tasks, and users to picker options
package entities

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/harperreed/salesdesk/api"
	"github.com/harperreed/salesdesk/forms"
	"github.com/harperreed/salesdesk/models"
)

// lookupLimit caps how many matches a picker dropdown shows.
const lookupLimit = 10

func searchParams(text string) url.Values {
	q := url.Values{"page": {"1"}, "limit": {fmt.Sprint(lookupLimit)}}
	if s := strings.TrimSpace(text); s != "" {
		q.Set("search", s)
	}
	return q
}

func lookupOver[T any](res *api.Resource[T], option func(T) forms.Option) forms.SearchFunc {
	return func(ctx context.Context, text string) ([]forms.Option, error) {
		page, err := res.List(ctx, searchParams(text))
		if err != nil {
			return nil, err
		}
		opts := make([]forms.Option, 0, len(page.Items))
		for _, it := range page.Items {
			opts = append(opts, option(it))
		}
		return opts, nil
	}
}

// Lookup returns the picker search for a relation, or nil for an unknown one.
func Lookup(client *api.Client, relation string) forms.SearchFunc {
	switch relation {
	case "outlets":
		return lookupOver(client.Outlets(), func(o models.Outlet) forms.Option {
			return forms.Option{ID: o.ID, Label: o.OutletName}
		})
	case "leads":
		return lookupOver(client.Leads(), func(l models.Lead) forms.Option {
			label := l.FullName
			if label == "" {
				label = l.Email
			}
			return forms.Option{ID: l.ID, Label: label}
		})
	case "tasks":
		return lookupOver(client.Tasks(), func(t models.Task) forms.Option {
			return forms.Option{ID: t.ID, Label: t.Name}
		})
	case "users":
		return lookupOver(client.Users(), func(u models.User) forms.Option {
			return forms.Option{ID: u.ID, Label: u.DisplayName()}
		})
	}
	return nil
}
