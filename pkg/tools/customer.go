package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/skiff-ai/skiff/pkg/crm"
)

// CustomerTool gives the agent read and annotate access to customer
// records. The CRM client is injected at construction.
type CustomerTool struct {
	client *crm.Client
}

func NewCustomerTool(client *crm.Client) *CustomerTool {
	return &CustomerTool{client: client}
}

func (t *CustomerTool) Name() string {
	return "customer"
}

func (t *CustomerTool) Description() string {
	return "Look up customer records. Actions: 'lookup' (by phone), 'search' (free text), 'note' (append a note to a customer)."
}

func (t *CustomerTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"action": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"lookup", "search", "note"},
				"description": "What to do",
			},
			"phone": map[string]interface{}{
				"type":        "string",
				"description": "Phone number for 'lookup'",
			},
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Search text for 'search'",
			},
			"customer_id": map[string]interface{}{
				"type":        "string",
				"description": "Customer ID for 'note'",
			},
			"note": map[string]interface{}{
				"type":        "string",
				"description": "Note text for 'note'",
			},
		},
		"required": []string{"action"},
	}
}

func (t *CustomerTool) Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *ToolResult {
	if t.client == nil {
		return ErrorResult("CRM is not configured")
	}

	action, _ := args["action"].(string)
	switch action {
	case "lookup":
		phone, _ := args["phone"].(string)
		customer, err := t.client.LookupByPhone(ctx, phone)
		if err == crm.ErrNotFound {
			return SuccessResult(fmt.Sprintf("No customer found for %s", phone))
		}
		if err != nil {
			return ErrorResult(fmt.Sprintf("customer lookup failed: %v", err))
		}
		return SuccessResult(formatCustomer(customer))

	case "search":
		query, _ := args["query"].(string)
		customers, err := t.client.Search(ctx, query)
		if err != nil {
			return ErrorResult(fmt.Sprintf("customer search failed: %v", err))
		}
		if len(customers) == 0 {
			return SuccessResult(fmt.Sprintf("No customers match %q", query))
		}
		var lines []string
		for _, c := range customers {
			lines = append(lines, fmt.Sprintf("- %s (%s)", c.Name, c.ID))
		}
		return SuccessResult(strings.Join(lines, "\n"))

	case "note":
		customerID, _ := args["customer_id"].(string)
		note, _ := args["note"].(string)
		if note == "" {
			return ErrorResult("note is required")
		}
		if err := t.client.AppendNote(ctx, customerID, note); err != nil {
			return ErrorResult(fmt.Sprintf("appending note failed: %v", err))
		}
		return SuccessResult(fmt.Sprintf("Note added to customer %s", customerID))

	default:
		return ErrorResult(fmt.Sprintf("unknown action %q", action))
	}
}

func formatCustomer(c *crm.Customer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Customer %s (%s)\n", c.Name, c.ID)
	if c.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", c.Email)
	}
	if c.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", c.Phone)
	}
	for k, v := range c.Fields {
		fmt.Fprintf(&b, "%s: %s\n", k, v)
	}
	if c.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", c.Notes)
	}
	return strings.TrimSpace(b.String())
}
