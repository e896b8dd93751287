package navigation

import (
	"net/url"
	"strings"
)

// Target is a panel and page pair to navigate to.
type Target struct {
	Panel Panel `json:"panel"`
	Page  Page  `json:"page"`
}

// State is the navigation state of one panel shell. It is not safe for concurrent use.
type State struct {
	panel               Panel
	page                Page
	selectedGeneratorID string
	fromTechnician      bool
	query               url.Values
}

// NewState initialises the state of panel from the query string of the page load.
func NewState(panel Panel, q url.Values) *State {
	if !panel.Valid() {
		panel = PanelAdmin
	}

	query := url.Values{}
	for key, values := range q {
		query[key] = append([]string(nil), values...)
	}

	s := &State{
		panel: panel,
		page:  PageFromQuery(panel, query),
		query: query,
	}

	if panel == PanelAdmin {
		s.selectedGeneratorID = strings.TrimSpace(query.Get(QueryGenerator))
		s.fromTechnician = query.Get(QueryFrom) == FromTechnician
		if s.page == GeneratorDetail && s.selectedGeneratorID == "" {
			s.page = Generators
		}
	}
	return s
}

func (s *State) Panel() Panel {
	return s.panel
}

func (s *State) Page() Page {
	return s.page
}

func (s *State) SelectedGeneratorID() string {
	return s.selectedGeneratorID
}

// Navigate moves the panel to page. Pages the panel does not know are kept so the
// router can render its placeholder for them.
func (s *State) Navigate(page Page) {
	s.page = page
	if page != GeneratorDetail {
		s.selectedGeneratorID = ""
		s.fromTechnician = false
	}
	ApplyPage(s.panel, s.query, page)
}

// SelectGenerator opens the generator detail page. Only the admin panel tracks a
// selected generator; other panels ignore it.
func (s *State) SelectGenerator(id string) bool {
	id = strings.TrimSpace(id)
	if s.panel != PanelAdmin || id == "" {
		return false
	}
	s.selectedGeneratorID = id
	s.fromTechnician = false
	s.page = GeneratorDetail
	return true
}

// Back returns where leaving the current page leads. A generator detail opened from
// the technician deep link leads back to the technician generators page.
func (s *State) Back() Target {
	if s.page == GeneratorDetail {
		if s.fromTechnician {
			return Target{Panel: PanelTechnician, Page: Generators}
		}
		return Target{Panel: s.panel, Page: Generators}
	}
	return Target{Panel: s.panel, Page: s.panel.Default()}
}

// Query returns a copy of the synced query string.
func (s *State) Query() url.Values {
	out := url.Values{}
	for key, values := range s.query {
		out[key] = append([]string(nil), values...)
	}
	return out
}

// URL renders the current location relative to path.
func (s *State) URL(path string) string {
	if len(s.query) == 0 {
		return path
	}
	return path + "?" + s.query.Encode()
}
