package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotify/rfq-extractor/constants"
)

const validPayload = `{
	"title": "Conference furniture",
	"description": "Seating and staging for a 300-person conference",
	"submission_deadline_date": "2026-03-01",
	"submission_deadline_time": "17:00",
	"budget_min": 5000,
	"budget_max": 8000,
	"currency_code": "USD",
	"requested_products": [
		{"name": "Folding chair", "quantity": 300, "unit": "pcs", "category": "Furniture", "unit_cost": 0}
	],
	"confidence": {"overall": 0.92, "products": 0.95, "dates": 0.9, "contact": 0.5}
}`

func TestValidPayloadPasses(t *testing.T) {
	schema := BuildRFQJSONSchema(constants.AsStringSlice())
	assert.NoError(t, ValidateJSONAgainstSchema(schema, []byte(validPayload)))
}

func TestMissingRequiredFieldFails(t *testing.T) {
	schema := BuildRFQJSONSchema(nil)
	err := ValidateJSONAgainstSchema(schema, []byte(`{"description":"d","requested_products":[],"confidence":{"overall":1}}`))
	require.Error(t, err)
}

func TestCategoryOutsideEnumFails(t *testing.T) {
	schema := BuildRFQJSONSchema(constants.AsStringSlice())
	bad := `{"title":"t","description":"d","requested_products":[{"name":"x","quantity":1,"category":"Snacks"}],"confidence":{"overall":1}}`
	assert.Error(t, ValidateJSONAgainstSchema(schema, []byte(bad)))
}

func TestUnknownTopLevelKeyFails(t *testing.T) {
	schema := BuildRFQJSONSchema(nil)
	bad := `{"title":"t","description":"d","requested_products":[],"confidence":{"overall":1},"notes":"extra"}`
	assert.Error(t, ValidateJSONAgainstSchema(schema, []byte(bad)))
}

func TestMalformedDatePatternFails(t *testing.T) {
	schema := BuildRFQJSONSchema(nil)
	bad := `{"title":"t","description":"d","delivery_date":"March 5","requested_products":[],"confidence":{"overall":1}}`
	assert.Error(t, ValidateJSONAgainstSchema(schema, []byte(bad)))
}
