package dto

// RouteLocationItem is one selectable point of a reference route.
type RouteLocationItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ReferenceRouteItem is one entry of the reference route catalog.
type ReferenceRouteItem struct {
	ID        int64               `json:"id"`
	Name      string              `json:"name"`
	Locations []RouteLocationItem `json:"locations"`
}

type ListRouteCatalogResponse struct {
	Message string               `json:"message"`
	Routes  []ReferenceRouteItem `json:"routes"`
	Empty   bool                 `json:"empty"`
}

// ListRoutePointsResponse carries the point options for a selected route.
type ListRoutePointsResponse struct {
	Message string   `json:"message"`
	Route   string   `json:"route"`
	Points  []string `json:"points"`
}
