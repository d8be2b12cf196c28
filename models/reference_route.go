package models

// RouteLocation is one named point of a reference route.
type RouteLocation struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ReferenceRoute is an entry of the independently managed route catalog.
// The console consumes the catalog read-only; it only constrains which point
// names a charge route may use.
type ReferenceRoute struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Locations []RouteLocation `json:"locations"`
	MinPrice  *float64        `json:"min_price,omitempty"`
	MaxPrice  *float64        `json:"max_price,omitempty"`
}

// LocationNames returns the ordered point names of the route.
func (r ReferenceRoute) LocationNames() []string {
	names := make([]string, 0, len(r.Locations))
	for _, loc := range r.Locations {
		names = append(names, loc.Name)
	}
	return names
}

// HasLocation reports whether the route contains a point with the given name.
func (r ReferenceRoute) HasLocation(name string) bool {
	for _, loc := range r.Locations {
		if loc.Name == name {
			return true
		}
	}
	return false
}
