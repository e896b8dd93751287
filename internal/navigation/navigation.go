// Package navigation holds the per-panel page state of the dashboard and the pure
// adapters between that state and the URL query string.
package navigation

import (
	"net/url"

	"github.com/frahmantamala/genops/internal/role"
)

type Panel string

const (
	PanelAdmin      Panel = "admin"
	PanelOperator   Panel = "operator"
	PanelTechnician Panel = "technician"
	PanelInventory  Panel = "inventory"
)

type Page string

const (
	Dashboard       Page = "Dashboard"
	Generators      Page = "Generators"
	GeneratorDetail Page = "GeneratorDetail"
	Batteries       Page = "Batteries"
	Tasks           Page = "Tasks"
	Services        Page = "Services"
	Shops           Page = "Shops"
	Invoices        Page = "Invoices"
	Operators       Page = "Operators"
	Stock           Page = "Stock"
	Reports         Page = "Reports"
	Notifications   Page = "Notifications"
	Profile         Page = "Profile"
	Settings        Page = "Settings"
)

// Query parameters understood by the panels.
const (
	QueryPage      = "page"
	QueryFrom      = "from"
	QueryGenerator = "generatorId"

	FromTechnician = "technician"
)

var panelPages = map[Panel][]Page{
	PanelAdmin: {
		Dashboard, Generators, GeneratorDetail, Batteries, Shops, Invoices,
		Operators, Reports, Notifications, Settings,
	},
	PanelOperator: {
		Dashboard, Generators, Batteries, Tasks, Invoices, Notifications, Profile,
	},
	PanelTechnician: {
		Dashboard, Tasks, Services, Generators, Batteries, Reports, Notifications,
	},
	PanelInventory: {
		Dashboard, Generators, Batteries, Stock, Reports, Notifications,
	},
}

// technicianTokens is the page to URL token mapping of the technician panel. It must
// stay a bijection; Dashboard is deliberately absent so the default page has no token.
var technicianTokens = map[Page]string{
	Tasks:         "tasks",
	Services:      "services",
	Generators:    "generators",
	Batteries:     "batteries",
	Reports:       "reports",
	Notifications: "notifications",
}

var technicianPages = invert(technicianTokens)

func invert(m map[Page]string) map[string]Page {
	out := make(map[string]Page, len(m))
	for page, token := range m {
		out[token] = page
	}
	return out
}

// PanelFor returns the panel a role is dispatched to.
func PanelFor(r role.Role) Panel {
	switch r {
	case role.Operate:
		return PanelOperator
	case role.Tech:
		return PanelTechnician
	case role.Invent:
		return PanelInventory
	case role.Admin:
		return PanelAdmin
	default:
		return PanelAdmin
	}
}

func (p Panel) Valid() bool {
	_, ok := panelPages[p]
	return ok
}

// Pages lists the recognised pages of the panel in sidebar order.
func (p Panel) Pages() []Page {
	pages := panelPages[p]
	out := make([]Page, len(pages))
	copy(out, pages)
	return out
}

func (p Panel) Has(page Page) bool {
	for _, candidate := range panelPages[p] {
		if candidate == page {
			return true
		}
	}
	return false
}

func (p Panel) Default() Page {
	return Dashboard
}

// SyncsURL reports whether navigation in the panel is written back to the URL.
func (p Panel) SyncsURL() bool {
	return p == PanelTechnician
}

// TokenFor returns the technician URL token of page.
func TokenFor(page Page) (string, bool) {
	token, ok := technicianTokens[page]
	return token, ok
}

// PageForToken returns the technician page of a URL token. Tokens are matched exactly.
func PageForToken(token string) (Page, bool) {
	page, ok := technicianPages[token]
	return page, ok
}

// PageFromQuery resolves the initial page of a panel from the query string. Missing or
// unrecognised values resolve to the panel default.
func PageFromQuery(panel Panel, q url.Values) Page {
	raw := q.Get(QueryPage)
	if raw == "" {
		return panel.Default()
	}

	if panel == PanelTechnician {
		if page, ok := PageForToken(raw); ok {
			return page
		}
		return panel.Default()
	}

	page := Page(raw)
	if panel.Has(page) {
		return page
	}
	return panel.Default()
}

// ApplyPage writes page into q for panels that sync the URL. Pages without a token
// remove the page parameter. It reports whether q was touched.
func ApplyPage(panel Panel, q url.Values, page Page) bool {
	if !panel.SyncsURL() {
		return false
	}
	if token, ok := TokenFor(page); ok {
		q.Set(QueryPage, token)
	} else {
		q.Del(QueryPage)
	}
	return true
}

// PageURL returns base with its query rewritten for page.
func PageURL(panel Panel, base string, page Page) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if ApplyPage(panel, q, page) {
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
