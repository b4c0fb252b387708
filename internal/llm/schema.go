package llm

// BuildRFQJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We pass this to the provider as a structured output constraint and also use it
// locally to validate responses.
func BuildRFQJSONSchema(allowedCategories []string) map[string]any {
	lineItem := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name":          map[string]any{"type": "string", "minLength": 1},
			"quantity":      map[string]any{"type": "number", "minimum": 0},
			"unit":          map[string]any{"type": "string"},
			"specification": map[string]any{"type": "string"},
			"category":      categoryProp(allowedCategories),
			"unit_cost":     map[string]any{"type": "number", "minimum": 0},
		},
		"required": []string{"name", "quantity"},
	}

	confidence := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"overall":  scoreProp(),
			"products": scoreProp(),
			"dates":    scoreProp(),
			"contact":  scoreProp(),
		},
		"required": []string{"overall"},
	}

	props := map[string]any{
		"title":        map[string]any{"type": "string"},
		"description":  map[string]any{"type": "string"},
		"requirements": map[string]any{"type": "string"},

		"submission_deadline_date": dateProp(),
		"submission_deadline_time": timeProp(),
		"decision_date":            dateProp(),
		"delivery_date":            dateProp(),
		"delivery_time":            timeProp(),

		"budget_min":    map[string]any{"type": "number", "minimum": 0},
		"budget_max":    map[string]any{"type": "number", "minimum": 0},
		"currency_code": map[string]any{"type": "string", "minLength": 3, "maxLength": 3},

		"event_location":   map[string]any{"type": "string"},
		"delivery_address": map[string]any{"type": "string"},

		"requested_products": map[string]any{
			"type":  "array",
			"items": lineItem,
		},

		"evaluation_criteria": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},

		"requester_name":  map[string]any{"type": "string"},
		"requester_email": map[string]any{"type": "string"},
		"requester_phone": map[string]any{"type": "string"},
		"company_name":    map[string]any{"type": "string"},

		"metadata": map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "string"},
		},

		"confidence": confidence,
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{"title", "description", "requested_products", "confidence"},
	}
}

func categoryProp(allowed []string) map[string]any {
	if len(allowed) > 0 {
		return map[string]any{"type": "string", "enum": allowed}
	}
	return map[string]any{"type": "string"}
}

func scoreProp() map[string]any {
	return map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0}
}

func dateProp() map[string]any {
	return map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`}
}

func timeProp() map[string]any {
	return map[string]any{"type": "string", "pattern": `^\d{2}:\d{2}$`}
}
