package models

// StrategyKind identifies one of the tiered pricing strategies.
type StrategyKind string

const (
	StrategyWeight   StrategyKind = "weight"
	StrategyDistance StrategyKind = "distance"
	StrategyCube     StrategyKind = "cube"
)

// TierField names an editable field of a RawTier.
type TierField string

const (
	TierFieldMinBound      TierField = "min_bound"
	TierFieldMaxBound      TierField = "max_bound"
	TierFieldPerUnitCharge TierField = "per_unit_charge"
	TierFieldMinCharge     TierField = "min_charge"
	TierFieldMaxCharge     TierField = "max_charge"
)

// Strategy is a tagged value: either disabled or enabled with a tier list.
// Disabling never discards tiers, so re-enabling restores the operator's edits.
// The payload side needs no conditional; WireTiers answers for both states.
type Strategy struct {
	enabled bool
	tiers   []RawTier
}

// DisabledStrategy returns a disabled strategy retaining the given tiers.
func DisabledStrategy(tiers []RawTier) Strategy {
	return Strategy{enabled: false, tiers: tiers}
}

// EnabledStrategy returns an enabled strategy. An enabled strategy always
// carries at least one tier.
func EnabledStrategy(tiers []RawTier) Strategy {
	if len(tiers) == 0 {
		tiers = []RawTier{NewRawTier()}
	}
	return Strategy{enabled: true, tiers: tiers}
}

func (s Strategy) Enabled() bool { return s.enabled }

// Tiers returns the retained tier list regardless of the enabled state.
func (s Strategy) Tiers() []RawTier { return s.tiers }

// WireTiers normalizes the tiers for serialization. Disabled strategies emit
// an empty (non-nil) slice so retained edits are never persisted.
func (s Strategy) WireTiers() []RangeTier {
	out := make([]RangeTier, 0, len(s.tiers))
	if !s.enabled {
		return out
	}
	for _, t := range s.tiers {
		out = append(out, t.Normalize())
	}
	return out
}

// PricingStrategySet is the editable pricing state of a charge route: a
// mandatory flat base charge plus three independently toggleable tiered
// strategies.
type PricingStrategySet struct {
	FlatBaseCharge string
	FlatEnabled    bool

	weight   Strategy
	distance Strategy
	cube     Strategy
}

// NewPricingStrategySet returns the default editor state: flat charge on with
// a zero amount, all tiered strategies off with one default tier retained.
func NewPricingStrategySet() PricingStrategySet {
	return PricingStrategySet{
		FlatBaseCharge: "0",
		FlatEnabled:    true,
		weight:         DisabledStrategy([]RawTier{NewRawTier()}),
		distance:       DisabledStrategy([]RawTier{NewRawTier()}),
		cube:           DisabledStrategy([]RawTier{NewRawTier()}),
	}
}

// Strategy returns the current state of the named kind.
func (p *PricingStrategySet) Strategy(kind StrategyKind) Strategy {
	return *p.strategyRef(kind)
}

func (p *PricingStrategySet) strategyRef(kind StrategyKind) *Strategy {
	switch kind {
	case StrategyDistance:
		return &p.distance
	case StrategyCube:
		return &p.cube
	default:
		return &p.weight
	}
}

// AddTier appends a default tier to the named kind. There is no upper bound
// on the tier count.
func (p *PricingStrategySet) AddTier(kind StrategyKind) {
	s := p.strategyRef(kind)
	tiers := append(copyTiers(s.tiers), NewRawTier())
	s.tiers = tiers
}

// RemoveTier removes the tier at index. The last remaining tier is never
// removed, so an enabled strategy cannot end up with zero tiers.
func (p *PricingStrategySet) RemoveTier(kind StrategyKind, index int) {
	s := p.strategyRef(kind)
	if len(s.tiers) <= 1 || index < 0 || index >= len(s.tiers) {
		return
	}
	tiers := copyTiers(s.tiers)
	s.tiers = append(tiers[:index], tiers[index+1:]...)
}

// UpdateTierField replaces one field on one tier. The tier list is copied
// rather than mutated in place so callers holding the previous list can rely
// on it not changing underneath them.
func (p *PricingStrategySet) UpdateTierField(kind StrategyKind, index int, field TierField, value string) {
	s := p.strategyRef(kind)
	if index < 0 || index >= len(s.tiers) {
		return
	}
	tiers := copyTiers(s.tiers)
	switch field {
	case TierFieldMinBound:
		tiers[index].MinBound = value
	case TierFieldMaxBound:
		tiers[index].MaxBound = value
	case TierFieldPerUnitCharge:
		tiers[index].PerUnitCharge = value
	case TierFieldMinCharge:
		tiers[index].MinCharge = value
	case TierFieldMaxCharge:
		tiers[index].MaxCharge = value
	default:
		return
	}
	s.tiers = tiers
}

// SetStrategy replaces the whole state of the named kind, used when mapping
// a submitted form back into editor state.
func (p *PricingStrategySet) SetStrategy(kind StrategyKind, s Strategy) {
	if len(s.tiers) == 0 {
		s.tiers = []RawTier{NewRawTier()}
	}
	*p.strategyRef(kind) = s
}

// ToggleStrategy flips the enabled state of the named kind. The tier list is
// preserved across toggles.
func (p *PricingStrategySet) ToggleStrategy(kind StrategyKind, enabled bool) {
	s := p.strategyRef(kind)
	if enabled {
		*s = EnabledStrategy(s.tiers)
	} else {
		*s = DisabledStrategy(s.tiers)
	}
}

// PricingPayload is the wire shape of the pricing section of a charge route.
type PricingPayload struct {
	FlatBaseCharge float64     `json:"flat_base_charge"`
	FlatEnabled    bool        `json:"flat_enabled"`
	WeightRanges   []RangeTier `json:"weight_ranges"`
	DistanceRanges []RangeTier `json:"distance_ranges"`
	CubeRanges     []RangeTier `json:"cube_ranges"`
}

// BuildPayload serializes the set for submission. This is the single choke
// point for the pricing wire shape: disabled strategies emit empty arrays,
// the flat charge parses with a 0 fallback and is always present.
func (p *PricingStrategySet) BuildPayload() PricingPayload {
	return PricingPayload{
		FlatBaseCharge: parseAmount(p.FlatBaseCharge),
		FlatEnabled:    p.FlatEnabled,
		WeightRanges:   p.weight.WireTiers(),
		DistanceRanges: p.distance.WireTiers(),
		CubeRanges:     p.cube.WireTiers(),
	}
}

func copyTiers(tiers []RawTier) []RawTier {
	out := make([]RawTier, len(tiers))
	copy(out, tiers)
	return out
}
