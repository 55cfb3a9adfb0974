package honoring

import (
	"fmt"
	"strings"
)

// Agent is one fulfillment endpoint reachable over HTTP.
type Agent struct {
	Name string
	URL  string
}

// Registry maps purposes to their ordered agent lists. The wildcard
// purpose "*" catches anything without a dedicated entry.
type Registry struct {
	byPurpose map[string][]Agent
}

// ParseRegistry builds a registry from its configuration form:
// semicolon-separated PURPOSE=name|url[,name|url...] entries.
func ParseRegistry(spec string) (*Registry, error) {
	r := &Registry{byPurpose: map[string][]Agent{}}

	if strings.TrimSpace(spec) == "" {
		return r, nil
	}

	for _, entry := range strings.Split(spec, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		purpose, list, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("malformed honoring agent entry %q", entry)
		}

		purpose = strings.TrimSpace(purpose)

		var agents []Agent

		for _, item := range strings.Split(list, ",") {
			name, url, ok := strings.Cut(strings.TrimSpace(item), "|")
			if !ok || name == "" || url == "" {
				return nil, fmt.Errorf("malformed honoring agent %q for purpose %q", item, purpose)
			}

			agents = append(agents, Agent{Name: name, URL: url})
		}

		r.byPurpose[purpose] = agents
	}

	return r, nil
}

// AgentsFor resolves the ordered agent list for a purpose.
func (r *Registry) AgentsFor(purpose string) []Agent {
	if agents, ok := r.byPurpose[purpose]; ok {
		return agents
	}

	return r.byPurpose["*"]
}

// Empty reports whether the registry has no agents at all.
func (r *Registry) Empty() bool {
	return len(r.byPurpose) == 0
}
