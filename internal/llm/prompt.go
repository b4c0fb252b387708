package llm

import (
	"strconv"
	"strings"
)

// BuildSystemPrompt composes the system message with currency defaults, the
// category taxonomy, and strict-but-practical formatting rules.
func BuildSystemPrompt(req ExtractRequest) string {
	var catLine string
	if len(req.AllowedCategories) > 0 {
		catLine = "Each requested product MUST include a 'category' and it MUST be exactly one of the allowed enum. " +
			"If uncertain, choose 'Other'. Allowed categories (enum): " + strings.Join(req.AllowedCategories, ", ") + ". "
	} else {
		catLine = "Each requested product MUST include a short, sensible 'category' label. If uncertain, use 'Other'. "
	}

	defCur := strings.TrimSpace(req.DefaultCurrency)
	if defCur == "" {
		defCur = "USD"
	}

	parts := []string{
		"You are a procurement analyst parsing request-for-quote documents. Return ONLY JSON that matches the provided JSON Schema.",
		"Use ISO-8601 dates (YYYY-MM-DD) and 24-hour times (HH:MM).",
		"Currency must be a 3-letter ISO 4217 code; default to " + defCur + " if uncertain.",
		catLine,
		"Category selection rubric: " + buildCategoryRubric(req.AllowedCategories),

		// Line-item behavior:
		"List EVERY requested product or service as a separate entry in 'requested_products', with its quantity and unit where stated.",
		"Put technical requirements, dimensions, and material constraints for an item into its 'specification'.",
		"NEVER invent a 'unit_cost'. Include it only when the document states a price for that item; otherwise use 0.",
		"If a budget range is given, fill 'budget_min' and 'budget_max'; a single budget figure goes into both.",

		// Contact and logistics:
		"Capture the requester's name, email, and phone and the issuing company where visible.",
		"'event_location' is where the event or project takes place; 'delivery_address' is where goods ship. Do not conflate them.",

		// Formatting hygiene:
		"Never output null. If a field is not present in the document, omit it.",
		"Score 'confidence' honestly per section; use low values when the source text is garbled or incomplete.",
	}

	if req.DocumentCount > 1 {
		parts = append(parts,
			"The input contains "+strconv.Itoa(req.DocumentCount)+" documents separated by '===== Document:' markers. "+
				"They describe ONE request for quote; reconcile them into a single result and do not duplicate items that appear in several documents.")
	}

	return strings.Join(parts, " ")
}

// BuildUserPrompt wraps the extracted document text. The text is already
// normalized and chunked upstream, so it is passed through whole.
func BuildUserPrompt(req ExtractRequest) string {
	var b strings.Builder
	b.WriteString("Extract the RFQ fields from the following document text.\n\n")
	b.WriteString(req.Text)
	return b.String()
}

// buildCategoryRubric emits short, high-precision rules only for categories
// present in the enum, with tie-breakers to avoid oscillating between
// similar buckets.
func buildCategoryRubric(allowed []string) string {
	if len(allowed) == 0 {
		return "Use item names to decide: tables/chairs/stages → 'Furniture'; " +
			"computers/screens/peripherals → 'Electronics'; sound/light/projection → 'AV Equipment'; " +
			"food/drink → 'Catering'; flowers/banners/themed props → 'Decoration'; " +
			"printed materials → 'Printing'; personnel → 'Staffing'; vehicles/logistics → 'Transportation'; " +
			"rooms/halls → 'Venue'; intangible work → 'Services'; otherwise → 'Other'. " +
			"When torn between two, choose the narrower, more specific one; if still unsure, choose 'Other'."
	}

	have := make(map[string]bool, len(allowed))
	for _, c := range allowed {
		have[c] = true
	}

	rules := []struct{ cat, rule string }{
		{"Furniture", "tables, chairs, stages, podiums, shelving → 'Furniture'"},
		{"Electronics", "computers, tablets, screens, peripherals → 'Electronics'"},
		{"AV Equipment", "speakers, microphones, projectors, lighting rigs → 'AV Equipment'"},
		{"Catering", "food, beverages, waitstaff-served meals → 'Catering'"},
		{"Decoration", "flowers, banners, drapes, themed props → 'Decoration'"},
		{"Printing", "brochures, signage, badges, printed collateral → 'Printing'"},
		{"Staffing", "hosts, security, technicians, temporary personnel → 'Staffing'"},
		{"Transportation", "shuttles, freight, courier, vehicle hire → 'Transportation'"},
		{"Venue", "halls, conference rooms, outdoor grounds → 'Venue'"},
		{"Services", "intangible work such as cleaning, consulting, installation → 'Services'"},
	}

	var b strings.Builder
	for _, r := range rules {
		if have[r.cat] {
			b.WriteString(r.rule)
			b.WriteString("; ")
		}
	}
	b.WriteString("otherwise → 'Other'. When torn between two, choose the narrower, more specific one; if still unsure, choose 'Other'.")
	return b.String()
}
