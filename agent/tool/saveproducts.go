package tool

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
	"github.com/meetkeeps15/brandbox-agent/pkg/highlevel"
)

const productSKUsFieldName = "Product SKUs"

func (c *Catalog) executeSaveSelectedProducts(ctx context.Context, sess contractx.SessionContext, args map[string]any) contractx.ToolResult {
	skus := stringSliceArg(args, "skus")
	cleaned := make([]string, 0, len(skus))
	for _, sku := range skus {
		if sku = strings.TrimSpace(sku); sku != "" {
			cleaned = append(cleaned, sku)
		}
	}
	if len(cleaned) == 0 {
		return errorResult(ToolSaveSelectedProducts, "skus is required and must contain at least one sku")
	}
	if c.deps.CRM == nil || !c.deps.CRM.Configured() {
		return errorResult(ToolSaveSelectedProducts, "crm access is not configured; set CRM credentials")
	}

	// The field id is not a stock default, so discover or create it.
	fieldID, err := c.deps.CRM.EnsureCustomField(ctx, productSKUsFieldName, c.deps.CRM.Fields().ProductSKUs)
	if err != nil {
		return errorResult(ToolSaveSelectedProducts, fmt.Sprintf("resolve %q field: %v", productSKUsFieldName, err))
	}

	contact, err := c.sessionContact(ctx, sess, []highlevel.CustomFieldValue{
		{ID: fieldID, Value: strings.Join(cleaned, ", ")},
	})
	if err != nil {
		return errorResult(ToolSaveSelectedProducts, fmt.Sprintf("save selection: %v", err))
	}

	return okResult(ToolSaveSelectedProducts, map[string]any{
		"contact_id": contact.ID,
		"skus":       cleaned,
		"count":      len(cleaned),
	})
}
