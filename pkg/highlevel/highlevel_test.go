package highlevel

import (
	"testing"

	"github.com/kelseyhightower/envconfig"
)

func TestFieldIDEnvOverrides(t *testing.T) {
	t.Setenv("HL_CF_BRAND_NAME", "custom-brand-field")
	t.Setenv("HL_CF_PRODUCT_SKUS", "custom-skus-field")

	var fields FieldIDs
	if err := envconfig.Process("", &fields); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if fields.BrandName != "custom-brand-field" {
		t.Fatalf("BrandName = %q", fields.BrandName)
	}
	if fields.ProductSKUs != "custom-skus-field" {
		t.Fatalf("ProductSKUs = %q", fields.ProductSKUs)
	}
	if fields.IGHandle != "qeGZxU9HDjLh4fqox8P0" {
		t.Fatalf("IGHandle default = %q", fields.IGHandle)
	}
}
