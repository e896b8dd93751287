package panel

import (
	"net/url"
	"sync"
	"time"

	"github.com/frahmantamala/genops/internal/navigation"
	"github.com/frahmantamala/genops/internal/role"
)

// View is what the client renders after mounting or navigating.
type View struct {
	Shell               Shell              `json:"shell"`
	Page                navigation.Page    `json:"page"`
	Content             Content            `json:"content"`
	URL                 string             `json:"url"`
	SelectedGeneratorID string             `json:"selectedGeneratorId,omitempty"`
	Back                *navigation.Target `json:"back,omitempty"`
}

type entry struct {
	state    *navigation.State
	role     role.Role
	lastSeen time.Time
}

// Registry holds the navigation state of every client. Each client owns one state per
// panel; mounting the same panel again starts over from the query string.
type Registry struct {
	mu      sync.Mutex
	entries map[string]map[navigation.Panel]*entry
	path    string
	now     func() time.Time
}

func NewRegistry(path string) *Registry {
	if path == "" {
		path = "/"
	}
	return &Registry{
		entries: make(map[string]map[navigation.Panel]*entry),
		path:    path,
		now:     time.Now,
	}
}

// Mount initialises the client's panel for r from the query string of a page load.
func (reg *Registry) Mount(clientID string, r role.Role, q url.Values) View {
	shell := ShellFor(r)
	state := navigation.NewState(shell.Panel, q)

	reg.mu.Lock()
	defer reg.mu.Unlock()

	panels, ok := reg.entries[clientID]
	if !ok {
		panels = make(map[navigation.Panel]*entry)
		reg.entries[clientID] = panels
	}
	e := &entry{state: state, role: shell.Role, lastSeen: reg.now()}
	panels[shell.Panel] = e
	return reg.view(e)
}

// Navigate applies onNavigate to the client's panel, mounting it first when needed.
func (reg *Registry) Navigate(clientID string, r role.Role, page navigation.Page) View {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	e := reg.lookup(clientID, r)
	e.state.Navigate(page)
	return reg.view(e)
}

// SelectGenerator applies onSelectGenerator. It reports false when the panel does not
// track a selected generator.
func (reg *Registry) SelectGenerator(clientID string, r role.Role, generatorID string) (View, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	e := reg.lookup(clientID, r)
	ok := e.state.SelectGenerator(generatorID)
	return reg.view(e), ok
}

// Current returns the client's view of its panel, mounting the default page if the
// client has not mounted it yet.
func (reg *Registry) Current(clientID string, r role.Role) View {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.view(reg.lookup(clientID, r))
}

func (reg *Registry) Forget(clientID string) {
	reg.mu.Lock()
	delete(reg.entries, clientID)
	reg.mu.Unlock()
}

// EvictIdle forgets clients that have not navigated within ttl and returns how many
// were removed.
func (reg *Registry) EvictIdle(ttl time.Duration) int {
	cutoff := reg.now().Add(-ttl)

	reg.mu.Lock()
	defer reg.mu.Unlock()

	removed := 0
	for clientID, panels := range reg.entries {
		idle := true
		for _, e := range panels {
			if e.lastSeen.After(cutoff) {
				idle = false
				break
			}
		}
		if idle {
			delete(reg.entries, clientID)
			removed++
		}
	}
	return removed
}

func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.entries)
}

func (reg *Registry) lookup(clientID string, r role.Role) *entry {
	shell := ShellFor(r)
	panels, ok := reg.entries[clientID]
	if !ok {
		panels = make(map[navigation.Panel]*entry)
		reg.entries[clientID] = panels
	}
	e, ok := panels[shell.Panel]
	if !ok {
		e = &entry{state: navigation.NewState(shell.Panel, nil), role: shell.Role}
		panels[shell.Panel] = e
	}
	e.lastSeen = reg.now()
	return e
}

func (reg *Registry) view(e *entry) View {
	page := e.state.Page()
	v := View{
		Shell:               ShellFor(e.role),
		Page:                page,
		Content:             Resolve(e.role, page),
		URL:                 e.state.URL(reg.path),
		SelectedGeneratorID: e.state.SelectedGeneratorID(),
	}
	if page == navigation.GeneratorDetail {
		back := e.state.Back()
		v.Back = &back
	}
	return v
}
