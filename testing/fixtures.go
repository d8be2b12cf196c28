// Package testing provides test utilities and database setup for testing the charge console
package testing

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/quickship/charge-console/models"
	"github.com/quickship/charge-console/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateAuditEntry creates a persisted audit entry for the given action
func (tf *TestFixtures) CreateAuditEntry(action string, success bool) (*models.AuditEntry, error) {
	zone := fmt.Sprintf("Zone-%d", rand.Intn(10000))
	targetID := int64(rand.Intn(100000) + 1)
	requestID := uuid.NewString()

	entry := &models.AuditEntry{
		Action:        action,
		ZoneName:      &zone,
		TargetID:      &targetID,
		RequestID:     &requestID,
		ChangedFields: []string{"zone_name", "flat_base_charge"},
		Metadata:      json.RawMessage(`{"source":"test"}`),
		Success:       utils.ToPtr(success),
		CreatedAt:     utils.UTCNow(),
	}
	if !success {
		entry.ErrorMessage = utils.ToPtr("backend rejected the request")
	}

	if err := tf.DB.DB.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create audit entry: %w", err)
	}

	return entry, nil
}

// SampleChargeRouteRecord returns a backend record the way the list and
// single-fetch endpoints shape it.
func SampleChargeRouteRecord(id int64, zone string) models.ChargeRouteRecord {
	return models.ChargeRouteRecord{
		ID:             id,
		ZoneName:       zone,
		FromPoint:      "Harbor Terminal",
		ToPoint:        "North Depot",
		Status:         models.ChargeRouteStatusActive,
		Currency:       models.DefaultCurrency,
		FlatBaseCharge: 12.5,
		FlatEnabled:    utils.ToPtr(true),
		WeightRanges: []models.TierRecord{
			{
				MinBound:      0,
				MaxBound:      10,
				PerUnitCharge: 2.5,
				MinCharge:     utils.ToPtr(5.0),
				Enabled:       utils.ToPtr(true),
			},
		},
	}
}

// SampleCatalog returns a small reference route catalog
func SampleCatalog() []models.ReferenceRoute {
	return []models.ReferenceRoute{
		{
			ID:   1,
			Name: "Coastal Corridor",
			Locations: []models.RouteLocation{
				{ID: 1, Name: "Harbor Terminal"},
				{ID: 2, Name: "North Depot"},
				{ID: 3, Name: "Airport Hub"},
			},
		},
		{
			ID:   2,
			Name: "Inland Loop",
			Locations: []models.RouteLocation{
				{ID: 4, Name: "Central Yard"},
				{ID: 5, Name: "East Gate"},
			},
		},
	}
}
