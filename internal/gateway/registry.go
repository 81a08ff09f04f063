package gateway

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"renderhub/internal/domain"
)

// Registry holds the immutable method table and routes validated requests to
// their bound handlers. It carries no mutable state across calls.
type Registry struct {
	methods map[string]*method
	names   []string
	logger  zerolog.Logger
}

func newRegistry(logger zerolog.Logger) *Registry {
	return &Registry{methods: make(map[string]*method), logger: logger}
}

func (r *Registry) register(m *method) {
	if m.descriptor.DisplayName == "" {
		m.descriptor.DisplayName = displayName(m.descriptor.Name)
	}
	r.methods[m.descriptor.Name] = m
	r.names = append(r.names, m.descriptor.Name)
	sort.Strings(r.names)
}

// Methods returns a snapshot of the method table for capability discovery.
// Descriptors are deep-copied so callers cannot mutate the registered table.
func (r *Registry) Methods() map[string]MethodDescriptor {
	out := make(map[string]MethodDescriptor, len(r.methods))
	for name, m := range r.methods {
		out[name] = m.descriptor.clone()
	}
	return out
}

// Cost resolves the credit cost the request would be billed, applying
// defaults so multi-operation methods resolve their per-operation override.
// The request is fully validated first: callers debit this amount before
// invoking Handle, and a request must never cost credits only to fail a
// local check afterwards.
func (r *Registry) Cost(req GenerationRequest) (float64, error) {
	m, args, err := r.resolve(req)
	if err != nil {
		return 0, err
	}
	if err := r.validate(m, args); err != nil {
		return 0, err
	}
	return m.cost(args), nil
}

// Handle validates the request, invokes the bound handler and attaches the
// resolved credit cost to the result. Provider errors pass through unchanged.
func (r *Registry) Handle(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	m, args, err := r.resolve(req)
	if err != nil {
		return nil, err
	}
	if err := r.validate(m, args); err != nil {
		return nil, err
	}
	result, err := m.handle(ctx, args)
	if err != nil {
		r.logger.Warn().Err(err).Str("method", m.descriptor.Name).Msg("generation failed")
		return nil, err
	}
	result.CreditCost = m.cost(args)
	return result, nil
}

// validate runs every locally-detectable check for the resolved method:
// required fields, model-proxy coercion, and a multi-operation method's
// per-operation requirements. Nothing past this point is the caller's fault.
func (r *Registry) validate(m *method, args map[string]any) error {
	if missing := missingRequired(m.descriptor.Fields, args); len(missing) > 0 {
		return domain.MissingArguments(missing)
	}
	switch m.kind {
	case kindModelProxy:
		return coerceModelProxy(args)
	case kindMultiOperation:
		op, _ := args["operation"].(string)
		if _, ok := m.operationCosts[op]; !ok {
			return domain.Validation("operation must be one of: " + strings.Join(m.operationNames(), ", "))
		}
		if missing := missingNamed(m.operationRequires[op], args); len(missing) > 0 {
			return domain.MissingArguments(missing)
		}
	}
	return nil
}

// resolve looks up the method and returns a defaulted copy of the arguments.
func (r *Registry) resolve(req GenerationRequest) (*method, map[string]any, error) {
	name := strings.TrimSpace(req.Method)
	if name == "" {
		return nil, nil, domain.Validation("missing method")
	}
	m, ok := r.methods[name]
	if !ok {
		return nil, nil, &domain.ValidationError{
			Reason:           fmt.Sprintf("unknown method: %s", name),
			AvailableMethods: append([]string(nil), r.names...),
		}
	}
	args := make(map[string]any, len(req.Args))
	for k, v := range req.Args {
		args[k] = v
	}
	applyDefaults(m.descriptor.Fields, args)
	return m, args, nil
}

func (m *method) cost(args map[string]any) float64 {
	if m.kind == kindMultiOperation {
		if op, ok := args["operation"].(string); ok {
			if cost, ok := m.operationCosts[op]; ok {
				return cost
			}
		}
	}
	return m.descriptor.CreditCost
}

func (m *method) operationNames() []string {
	names := make([]string, 0, len(m.operationCosts))
	for op := range m.operationCosts {
		names = append(names, op)
	}
	sort.Strings(names)
	return names
}
