package highlevel

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Contact is the subset of the CRM contact record the tools need.
type Contact struct {
	ID    string
	Email string
}

type CustomFieldValue struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

type UpsertContactInput struct {
	Email        string
	FirstName    string
	LastName     string
	Phone        string
	Tags         []string
	CustomFields []CustomFieldValue
}

// SessionEmail builds the synthetic address used to key session contacts.
func SessionEmail(sessionKey string) string {
	return strings.ToLower(strings.TrimSpace(sessionKey)) + "@example.com"
}

func (c *Client) UpsertContact(ctx context.Context, in UpsertContactInput) (*Contact, error) {
	if err := c.requireCredentials(); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, errors.New("contact email is required")
	}

	payload := map[string]any{
		"email":      email,
		"locationId": c.locationID,
		"source":     "AAAS Tools",
	}
	if len(in.Tags) > 0 {
		payload["tags"] = in.Tags
	}
	if in.FirstName != "" {
		payload["firstName"] = in.FirstName
	}
	if in.LastName != "" {
		payload["lastName"] = in.LastName
	}
	if in.Phone != "" {
		payload["phone"] = in.Phone
	}
	if len(in.CustomFields) > 0 {
		payload["customFields"] = in.CustomFields
	}

	var resp struct {
		ID      string `json:"id"`
		Contact struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"contact"`
	}
	if err := c.doJSON(ctx, "POST", c.baseURL+"/contacts/upsert", nil, payload, &resp); err != nil {
		return nil, fmt.Errorf("upsert contact: %w", err)
	}

	id := resp.Contact.ID
	if id == "" {
		id = resp.ID
	}
	if id == "" {
		return nil, errors.New("upsert contact: response has no contact id")
	}
	return &Contact{ID: id, Email: email}, nil
}

// UpdateContactFields overwrites custom field values on an existing contact.
func (c *Client) UpdateContactFields(ctx context.Context, contactID string, fields []CustomFieldValue) error {
	if err := c.requireCredentials(); err != nil {
		return err
	}
	if strings.TrimSpace(contactID) == "" {
		return errors.New("contact id is required")
	}
	if len(fields) == 0 {
		return nil
	}

	payload := map[string]any{"customFields": fields}
	if err := c.doJSON(ctx, "PUT", c.baseURL+"/contacts/"+contactID, nil, payload, nil); err != nil {
		return fmt.Errorf("update contact fields: %w", err)
	}
	return nil
}

// EnsureCustomField resolves a custom field id by override, then by listing
// existing fields, then by creating one across known endpoint and payload
// generations. The first successful attempt wins.
func (c *Client) EnsureCustomField(ctx context.Context, name, override string) (string, error) {
	if id := strings.TrimSpace(override); id != "" {
		return id, nil
	}
	if err := c.requireCredentials(); err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("custom field name is required")
	}

	if id, err := c.findCustomField(ctx, name); err == nil && id != "" {
		return id, nil
	}

	paths := []string{
		"/custom-fields",
		"/customFields",
		"/locations/" + c.locationID + "/custom-fields",
		"/locations/" + c.locationID + "/customFields",
	}
	payloads := []map[string]any{
		{"name": name, "dataType": "TEXT", "locationId": c.locationID},
		{"name": name, "dataType": "TEXTBOX_LIST", "locationId": c.locationID},
	}

	var attempts []error
	for _, path := range paths {
		for _, payload := range payloads {
			var resp struct {
				ID          string `json:"id"`
				CustomField struct {
					ID string `json:"id"`
				} `json:"customField"`
			}
			err := c.doJSON(ctx, "POST", c.baseURL+path, nil, payload, &resp)
			if err != nil {
				attempts = append(attempts, fmt.Errorf("%s %s: %w", path, payload["dataType"], err))
				continue
			}
			if resp.CustomField.ID != "" {
				return resp.CustomField.ID, nil
			}
			if resp.ID != "" {
				return resp.ID, nil
			}
			attempts = append(attempts, fmt.Errorf("%s %s: response has no field id", path, payload["dataType"]))
		}
	}

	// A racing create may have succeeded on the server side.
	if id, err := c.findCustomField(ctx, name); err == nil && id != "" {
		return id, nil
	}

	return "", fmt.Errorf("create custom field %q: %w", name, errors.Join(attempts...))
}

func (c *Client) findCustomField(ctx context.Context, name string) (string, error) {
	var resp struct {
		CustomFields []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"customFields"`
	}
	err := c.doJSON(ctx, "GET", c.baseURL+"/locations/"+c.locationID+"/customFields", nil, nil, &resp)
	if err != nil {
		return "", err
	}
	for _, f := range resp.CustomFields {
		if strings.EqualFold(strings.TrimSpace(f.Name), name) {
			return f.ID, nil
		}
	}
	return "", nil
}
