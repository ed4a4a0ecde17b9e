package plugin

import (
	"sort"
)

// Plan is the dependency- and priority-ordered sequence in which
// discovered plugins are initialized and started, plus the plugins that
// could not be planned at all.
type Plan struct {
	// Order lists plugin ids in initialization order: a plugin requiring
	// capability X comes after the provider of X, ties broken by
	// ascending priority then plugin id.
	Order []string
	// Failed records the plugins excluded by a dependency cycle or a
	// requirement no provider declares. Unaffected plugins still load.
	Failed []Record
}

// Resolve builds the load plan for a set of descriptors. hostProvided
// names the capability identities registered by the host itself; a
// requirement on one of those never creates a plugin-to-plugin edge.
func Resolve(manifests []Manifest, hostProvided map[string]bool) *Plan {
	plan := &Plan{
		Order:  make([]string, 0, len(manifests)),
		Failed: make([]Record, 0),
	}

	byID := make(map[string]*Manifest, len(manifests))
	ids := make([]string, 0, len(manifests))
	for i := range manifests {
		m := &manifests[i]
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)

	// providers maps each declared capability tag to its providing
	// plugin. With two declared providers the earlier (priority, id)
	// one wins the edge; the loser still initializes and hits the
	// registry's duplicate rejection at runtime.
	providers := make(map[string]string)
	ordered := make([]string, len(ids))
	copy(ordered, ids)
	sort.Slice(ordered, func(i, j int) bool { return planLess(byID, ordered[i], ordered[j]) })
	for _, id := range ordered {
		for _, cap := range byID[id].Provides {
			if _, ok := providers[cap]; !ok {
				providers[cap] = id
			}
		}
	}

	// Build edges provider -> consumer. A requirement with no plugin
	// provider and no host provider fails the consumer immediately.
	dependents := make(map[string][]string)
	indegree := make(map[string]int, len(ids))
	missing := make(map[string]string)
	for _, id := range ids {
		indegree[id] = 0
	}
	for _, id := range ids {
		for _, req := range byID[id].Requires {
			if hostProvided[req.ID] {
				continue
			}
			provider, ok := providers[req.ID]
			if !ok {
				if _, failed := missing[id]; !failed {
					missing[id] = req.ID
				}
				continue
			}
			if provider == id {
				continue // self-provided
			}
			dependents[provider] = append(dependents[provider], id)
			indegree[id]++
		}
	}

	// Kahn's algorithm with a ready set ordered by (priority, id) for a
	// deterministic plan. Plugins with a missing provider are never
	// ready, so their dependents stay blocked and fall out as part of
	// the failed subgraph.
	emitted := make(map[string]bool)
	ready := make([]string, 0, len(ids))
	for _, id := range ids {
		if indegree[id] == 0 {
			if _, failed := missing[id]; !failed {
				ready = append(ready, id)
			}
		}
	}
	sortReady(byID, ready)

	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		plan.Order = append(plan.Order, id)
		emitted[id] = true

		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				if _, failed := missing[dep]; !failed {
					ready = append(ready, dep)
				}
			}
		}
		sortReady(byID, ready)
	}

	// Everything not emitted is failed: a missing provider, a cycle
	// member, or a dependent of either.
	for _, id := range ids {
		if emitted[id] {
			continue
		}
		if cap, ok := missing[id]; ok {
			plan.Failed = append(plan.Failed, Record{
				PluginID: id,
				Err:      &DependencyError{PluginID: id, Missing: cap},
			})
			continue
		}
		if cycle := findCycle(id, byID, providers, hostProvided, emitted); len(cycle) > 0 {
			plan.Failed = append(plan.Failed, Record{
				PluginID: id,
				Err:      &DependencyError{PluginID: id, Cycle: cycle},
			})
			continue
		}
		plan.Failed = append(plan.Failed, Record{
			PluginID: id,
			Err:      &DependencyError{PluginID: id},
		})
	}

	return plan
}

func planLess(byID map[string]*Manifest, a, b string) bool {
	pa, pb := byID[a].Priority, byID[b].Priority
	if pa != pb {
		return pa < pb
	}
	return a < b
}

func sortReady(byID map[string]*Manifest, ready []string) {
	sort.Slice(ready, func(i, j int) bool { return planLess(byID, ready[i], ready[j]) })
}

// findCycle walks start's unresolved dependency edges looking for a path
// back to start. Only plugins that were not emitted can participate.
func findCycle(start string, byID map[string]*Manifest, providers map[string]string, hostProvided map[string]bool, emitted map[string]bool) []string {
	visited := make(map[string]bool)
	var path []string

	var walk func(id string) []string
	walk = func(id string) []string {
		if visited[id] {
			return nil
		}
		visited[id] = true
		path = append(path, id)

		for _, req := range byID[id].Requires {
			if hostProvided[req.ID] {
				continue
			}
			provider, ok := providers[req.ID]
			if !ok || emitted[provider] || provider == id {
				continue
			}
			if provider == start {
				return append(append([]string{}, path...), start)
			}
			if cycle := walk(provider); cycle != nil {
				return cycle
			}
		}

		path = path[:len(path)-1]
		return nil
	}

	return walk(start)
}
