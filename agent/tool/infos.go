package tool

import "github.com/cloudwego/eino/schema"

// Infos returns the tool definitions bound to the assistant model.
func (c *Catalog) Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolCheckTime,
			Desc: "Get the current UTC and local time, plus today and next-7-days window anchors for scheduling.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"timezone": {Type: schema.String, Desc: "IANA timezone name, e.g. America/New_York", Required: false},
			}),
		},
		{
			Name: ToolValidateBrand,
			Desc: "Validate a brand name: domain availability across .com/.net/.org, market competition, and a 0-10 viability score with a PROCEED/CAUTION/RECONSIDER recommendation.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"brand_name": {Type: schema.String, Desc: "Candidate brand name", Required: true},
			}),
		},
		{
			Name: ToolGenerateBrandNames,
			Desc: "Generate brand name candidates tuned to the creator's analyzed style. Returns the top five with the first preselected.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"count":    {Type: schema.Integer, Desc: "How many candidates to generate (default 10)", Required: false},
				"guidance": {Type: schema.String, Desc: "Extra naming guidance from the user", Required: false},
			}),
		},
		{
			Name: ToolAnalyzeSocialProfile,
			Desc: "Scrape and analyze an Instagram or TikTok profile: archetype, persona, design and naming guidance. Cached per session.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"profile_url":   {Type: schema.String, Desc: "Full profile URL", Required: true},
				"force_refresh": {Type: schema.Boolean, Desc: "Ignore the cached analysis", Required: false},
			}),
		},
		{
			Name: ToolRenderPalette,
			Desc: "Resolve and render a brand color palette as PNG swatches. Explicit colors win over the social analysis; a primary color can seed a generated palette.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"colors": {Type: schema.Array, ElemInfo: &schema.ParameterInfo{Type: schema.String}, Desc: "Explicit hex colors", Required: false},
				"roles": {Type: schema.Array, ElemInfo: &schema.ParameterInfo{Type: schema.Object, SubParams: map[string]*schema.ParameterInfo{
					"hex":  {Type: schema.String, Desc: "Hex color", Required: true},
					"role": {Type: schema.String, Desc: "Role such as primary, secondary, accent, neutral", Required: false},
				}}, Desc: "Role assignments per color", Required: false},
				"primary_color": {Type: schema.String, Desc: "Primary hex color to generate a palette from", Required: false},
				"size":          {Type: schema.Integer, Desc: "Palette size, capped at 5", Required: false},
				"save_override": {Type: schema.Boolean, Desc: "Persist this palette as the session override", Required: false},
			}),
		},
		{
			Name: ToolGenerateLogo,
			Desc: "Generate exactly three logo options for the brand, biased by the social analysis, palette override, and user requirements.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"brand_name":   {Type: schema.String, Desc: "Brand name to letter into the logo", Required: true},
				"requirements": {Type: schema.String, Desc: "Free-text user requirements", Required: false},
				"styles":       {Type: schema.Array, ElemInfo: &schema.ParameterInfo{Type: schema.String}, Desc: "Style template names to use (up to 3)", Required: false},
			}),
		},
		{
			Name: ToolEditLogo,
			Desc: "Edit the most recently generated logo (or an explicit source image) per the user's change request.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"request":    {Type: schema.String, Desc: "The change the user wants", Required: true},
				"image_path": {Type: schema.String, Desc: "Explicit source image path, defaults to the latest logo", Required: false},
			}),
		},
		{
			Name: ToolGenerateMockup,
			Desc: "Generate a labeled product mockup for a SKU by composing the product photo, label template, and brand logo.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"sku":        {Type: schema.String, Desc: "Product SKU from the catalog", Required: true},
				"brand_name": {Type: schema.String, Desc: "Brand name for the label", Required: false},
				"request":    {Type: schema.String, Desc: "Design direction from the user", Required: false},
			}),
		},
		{
			Name: ToolEditMockup,
			Desc: "Edit the latest mockup for a SKU, keeping cumulative context from the previous edit.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"sku":     {Type: schema.String, Desc: "Product SKU whose mockup to edit", Required: true},
				"request": {Type: schema.String, Desc: "The change the user wants", Required: true},
			}),
		},
		{
			Name: ToolRetrieveProducts,
			Desc: "Search the wholesale product catalog against the user's stated desires and return the best matches with relevance scores.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"desires":     {Type: schema.String, Desc: "Free-text description of what the user wants to sell", Required: true},
				"category":    {Type: schema.String, Desc: "Restrict to one category", Required: false},
				"max_results": {Type: schema.Integer, Desc: "Maximum products to return (default 5)", Required: false},
			}),
		},
		{
			Name: ToolCalculateProfit,
			Desc: "Estimate per-unit profit and audience earnings for a SKU given a retail price, follower count, and conversion rate.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"sku":              {Type: schema.String, Desc: "Product SKU", Required: true},
				"retail_price":     {Type: schema.Number, Desc: "Intended retail price", Required: false},
				"followers":        {Type: schema.Integer, Desc: "Audience size, defaults to the analyzed profile", Required: false},
				"conversion_rate":  {Type: schema.Number, Desc: "Buyer conversion rate, default 0.02", Required: false},
				"check_price_only": {Type: schema.Boolean, Desc: "Only report the base cost", Required: false},
			}),
		},
		{
			Name: ToolCalendarAvailability,
			Desc: "Fetch open appointment slots for the onboarding calendar and cache them for booking by index.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"calendar_id": {Type: schema.String, Desc: "Calendar id, defaults to the configured one", Required: false},
				"days":        {Type: schema.Integer, Desc: "Window length in days (default 7)", Required: false},
				"timezone":    {Type: schema.String, Desc: "IANA timezone for the query", Required: false},
			}),
		},
		{
			Name: ToolBookAppointment,
			Desc: "Book an appointment in a previously fetched slot (by index or explicit time) for the session's contact.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"calendar_id": {Type: schema.String, Desc: "Calendar id, defaults to the configured one", Required: false},
				"slot_index":  {Type: schema.Integer, Desc: "Index into the cached availability list", Required: false},
				"start_time":  {Type: schema.String, Desc: "Explicit slot start, ISO-8601", Required: false},
				"end_time":    {Type: schema.String, Desc: "Explicit slot end, ISO-8601", Required: false},
				"email":       {Type: schema.String, Desc: "Contact email if the user provided one", Required: false},
				"name":        {Type: schema.String, Desc: "Contact name if the user provided one", Required: false},
			}),
		},
		{
			Name: ToolSaveSelectedProducts,
			Desc: "Persist the user's chosen product SKUs onto their CRM contact record.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"skus": {Type: schema.Array, ElemInfo: &schema.ParameterInfo{Type: schema.String}, Desc: "Selected product SKUs", Required: true},
			}),
		},
	}
}
