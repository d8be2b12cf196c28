package businessflow

import (
	"context"

	"github.com/quickship/charge-console/app/dto"
	"github.com/quickship/charge-console/app/services"
	"github.com/quickship/charge-console/models"
)

// ResolverState is the phase of a point-selection session.
type ResolverState string

const (
	// ResolverUnselected means no route is chosen yet; point selection is locked.
	ResolverUnselected ResolverState = "unselected"
	// ResolverRouteSelected means a route is chosen and point options are live.
	ResolverRouteSelected ResolverState = "route_selected"
)

// RouteResolverFlow opens point-selection sessions against the reference
// route catalog and serves catalog reads for the gateway surface.
type RouteResolverFlow interface {
	NewSession(ctx context.Context) (*ResolverSession, error)
	NewEditSession(ctx context.Context, route models.DeliveryChargeRoute) (*ResolverSession, error)
	ListRouteCatalog(ctx context.Context) (*dto.ListRouteCatalogResponse, error)
	ListRoutePoints(ctx context.Context, routeName string) (*dto.ListRoutePointsResponse, error)
}

type RouteResolverFlowImpl struct {
	catalog *services.CatalogCache
}

func NewRouteResolverFlow(catalog *services.CatalogCache) RouteResolverFlow {
	return &RouteResolverFlowImpl{catalog: catalog}
}

// ResolverSession keeps the start/end point choices consistent with the
// currently selected route. Selecting a different route clears both points;
// edit-mode hydration resolves the route without touching pre-loaded points.
type ResolverSession struct {
	catalog         []models.ReferenceRoute
	catalogDegraded bool

	selectedRouteID *int64
	zoneName        string
	fromPoint       string
	toPoint         string
}

// NewSession opens a create-mode session. A failed catalog fetch degrades to
// an empty catalog rather than failing the session; the caller surfaces the
// empty-catalog warning.
func (f *RouteResolverFlowImpl) NewSession(ctx context.Context) (*ResolverSession, error) {
	routes, err := f.catalog.Routes(ctx)
	if err != nil {
		return &ResolverSession{catalogDegraded: true}, nil
	}
	return &ResolverSession{catalog: routes}, nil
}

// NewEditSession opens a session hydrated from an existing charge route. The
// pre-existing points are kept even though the catalog load resolves the
// zone name, so editing never wipes persisted values on open.
func (f *RouteResolverFlowImpl) NewEditSession(ctx context.Context, route models.DeliveryChargeRoute) (*ResolverSession, error) {
	s, err := f.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	s.zoneName = route.ZoneName
	s.fromPoint = route.FromPoint
	s.toPoint = route.ToPoint
	if ref := s.lookup(route.ZoneName); ref != nil {
		id := ref.ID
		s.selectedRouteID = &id
	}
	return s, nil
}

// ListRouteCatalog serves the full catalog for the zone-name dropdown.
func (f *RouteResolverFlowImpl) ListRouteCatalog(ctx context.Context) (*dto.ListRouteCatalogResponse, error) {
	routes, err := f.catalog.Routes(ctx)
	if err != nil {
		return nil, NewBusinessError("ROUTE_CATALOG_LOAD_FAILED", "Failed to load route catalog", err)
	}
	items := make([]dto.ReferenceRouteItem, 0, len(routes))
	for _, r := range routes {
		locations := make([]dto.RouteLocationItem, 0, len(r.Locations))
		for _, loc := range r.Locations {
			locations = append(locations, dto.RouteLocationItem{ID: loc.ID, Name: loc.Name})
		}
		items = append(items, dto.ReferenceRouteItem{ID: r.ID, Name: r.Name, Locations: locations})
	}
	return &dto.ListRouteCatalogResponse{
		Message: "Route catalog retrieved successfully",
		Routes:  items,
		Empty:   len(items) == 0,
	}, nil
}

// ListRoutePoints serves the point options of one catalog route.
func (f *RouteResolverFlowImpl) ListRoutePoints(ctx context.Context, routeName string) (*dto.ListRoutePointsResponse, error) {
	routes, err := f.catalog.Routes(ctx)
	if err != nil {
		return nil, NewBusinessError("ROUTE_CATALOG_LOAD_FAILED", "Failed to load route catalog", err)
	}
	for _, r := range routes {
		if r.Name == routeName {
			return &dto.ListRoutePointsResponse{
				Message: "Route points retrieved successfully",
				Route:   r.Name,
				Points:  r.LocationNames(),
			}, nil
		}
	}
	return nil, NewBusinessError("ROUTE_NOT_IN_CATALOG", "Route not found in the reference catalog", ErrRouteNotInCatalog)
}

// State reports the session phase.
func (s *ResolverSession) State() ResolverState {
	if s.zoneName == "" {
		return ResolverUnselected
	}
	return ResolverRouteSelected
}

// CatalogDegraded reports that the catalog fetch failed and the session is
// running on an empty route list.
func (s *ResolverSession) CatalogDegraded() bool { return s.catalogDegraded }

// CatalogEmpty reports that the catalog loaded but contains no routes.
func (s *ResolverSession) CatalogEmpty() bool {
	return !s.catalogDegraded && len(s.catalog) == 0
}

func (s *ResolverSession) ZoneName() string  { return s.zoneName }
func (s *ResolverSession) FromPoint() string { return s.fromPoint }
func (s *ResolverSession) ToPoint() string   { return s.toPoint }

// SelectedRouteID returns the resolved catalog route ID, if any.
func (s *ResolverSession) SelectedRouteID() *int64 { return s.selectedRouteID }

// SelectRoute chooses a route by name. Switching to a different route clears
// both points so a point name never silently outlives the route it belongs
// to. Re-selecting the current route is a no-op.
func (s *ResolverSession) SelectRoute(name string) error {
	if name == s.zoneName {
		return nil
	}
	ref := s.lookup(name)
	if ref == nil {
		return ErrRouteNotInCatalog
	}
	s.zoneName = name
	s.fromPoint = ""
	s.toPoint = ""
	id := ref.ID
	s.selectedRouteID = &id
	return nil
}

// PointOptions returns the selectable point names for the current route.
func (s *ResolverSession) PointOptions() []string {
	ref := s.lookup(s.zoneName)
	if ref == nil {
		return nil
	}
	return ref.LocationNames()
}

// SetFromPoint sets the start point; the name must belong to the selected route.
func (s *ResolverSession) SetFromPoint(name string) error {
	if err := s.checkPoint(name); err != nil {
		return err
	}
	s.fromPoint = name
	return nil
}

// SetToPoint sets the end point; the name must belong to the selected route.
func (s *ResolverSession) SetToPoint(name string) error {
	if err := s.checkPoint(name); err != nil {
		return err
	}
	s.toPoint = name
	return nil
}

func (s *ResolverSession) checkPoint(name string) error {
	if s.zoneName == "" {
		return ErrRouteNotSelected
	}
	ref := s.lookup(s.zoneName)
	if ref == nil || !ref.HasLocation(name) {
		return ErrPointNotOnRoute
	}
	return nil
}

func (s *ResolverSession) lookup(name string) *models.ReferenceRoute {
	for i := range s.catalog {
		if s.catalog[i].Name == name {
			return &s.catalog[i]
		}
	}
	return nil
}
