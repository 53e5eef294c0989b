package routes

import (
	"cmp"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/deps"
)

// Registrar mounts one group of routes.
type Registrar func(r chi.Router, d deps.Deps)

type entry struct {
	name string
	reg  Registrar
}

var registry []entry

// Register adds a named route group. Files of this package call it from init().
func Register(name string, reg Registrar) {
	registry = append(registry, entry{name: name, reg: reg})
}

// RegisterAll mounts every group in name order, so the router does not
// depend on file initialization order, and returns the group names.
func RegisterAll(r chi.Router, d deps.Deps) []string {
	entries := slices.Clone(registry)
	slices.SortFunc(entries, func(a, b entry) int { return cmp.Compare(a.name, b.name) })

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		e.reg(r, d)
		names = append(names, e.name)
	}
	return names
}
