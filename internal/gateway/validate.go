package gateway

import (
	"encoding/json"
	"strings"

	"renderhub/internal/domain"
)

// applyDefaults fills absent arguments from field defaults, in field
// declaration order. Caller-supplied values always win, including explicit
// empty strings for optional fields.
func applyDefaults(fields []FieldSpec, args map[string]any) {
	for _, f := range fields {
		if f.Default == nil {
			continue
		}
		if _, present := args[f.Name]; !present {
			args[f.Name] = f.Default
		}
	}
}

// missingRequired returns the names of required fields that are absent or
// blank after defaults were applied, in declaration order.
func missingRequired(fields []FieldSpec, args map[string]any) []string {
	var missing []string
	for _, f := range fields {
		if !f.Required {
			continue
		}
		if isBlank(args[f.Name]) {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// missingNamed reports which of the named fields are absent or blank. It
// backs the per-operation requirements of multi-operation methods, whose
// shared schema declares those fields optional.
func missingNamed(names []string, args map[string]any) []string {
	var missing []string
	for _, name := range names {
		if isBlank(args[name]) {
			missing = append(missing, name)
		}
	}
	return missing
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}

// coerceModelProxy enforces the extra shape the generic model-proxy method
// needs: non-empty model and prompt strings, plus an optional JSON-object
// input blob whose entries are merged into the forwarded arguments without
// overriding anything the caller set explicitly.
func coerceModelProxy(args map[string]any) error {
	if model, _ := args["model"].(string); strings.TrimSpace(model) == "" {
		return domain.Validation("model must be a non-empty string")
	}
	if prompt, _ := args["prompt"].(string); strings.TrimSpace(prompt) == "" {
		return domain.Validation("prompt must be a non-empty string")
	}
	raw, present := args["input"]
	if !present || raw == nil {
		return nil
	}
	delete(args, "input")

	var blob map[string]any
	switch v := raw.(type) {
	case map[string]any:
		blob = v
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		if err := json.Unmarshal([]byte(v), &blob); err != nil {
			return domain.Validation("input must be a JSON object")
		}
	default:
		return domain.Validation("input must be a JSON object")
	}
	for k, v := range blob {
		if _, exists := args[k]; !exists {
			args[k] = v
		}
	}
	return nil
}
