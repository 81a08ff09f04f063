package gateway

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Intent classifies what a method does to an image.
type Intent string

const (
	IntentGenerate Intent = "generate"
	IntentMutate   Intent = "mutate"
)

// FieldType enumerates the input field shapes a method can declare.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldSelect   FieldType = "select"
	FieldNumber   FieldType = "number"
	FieldBoolean  FieldType = "boolean"
	FieldImageURL FieldType = "image_url"
)

// FieldSpec declares one input field of a method. Order in the Fields slice
// is declaration order, which is also default-application order.
type FieldSpec struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Default  any       `json:"default,omitempty"`
	Options  []string  `json:"options,omitempty"`
}

// MethodDescriptor is the static, immutable description of one registered
// method: display metadata, credit cost and input schema.
type MethodDescriptor struct {
	Name        string      `json:"name"`
	DisplayName string      `json:"display_name"`
	Description string      `json:"description"`
	Intent      Intent      `json:"intent"`
	CreditCost  float64     `json:"credit_cost"`
	Fields      []FieldSpec `json:"fields"`
}

// clone deep-copies the descriptor so snapshots share nothing mutable with
// the registered table.
func (d MethodDescriptor) clone() MethodDescriptor {
	out := d
	out.Fields = make([]FieldSpec, len(d.Fields))
	for i, f := range d.Fields {
		f.Options = append([]string(nil), f.Options...)
		out.Fields[i] = f
	}
	return out
}

// GenerationRequest is the inbound contract: a method name and its raw
// arguments. The dispatcher injects schema defaults into Args before
// validation; the request is never persisted.
type GenerationRequest struct {
	Method string         `json:"method"`
	Args   map[string]any `json:"args"`
}

// GenerationResult is the uniform envelope every method produces. Ownership
// passes to the caller, which streams Bytes and surfaces the rest as
// metadata.
type GenerationResult struct {
	Bytes            []byte
	Width            int
	Height           int
	Format           string
	ColorHex         string
	CreditCost       float64
	DurationMs       int64
	PollCount        int
	ProviderMetadata map[string]string
}

// HandlerFunc executes one validated request. Args have had defaults applied
// and required fields checked before a handler runs.
type HandlerFunc func(ctx context.Context, args map[string]any) (*GenerationResult, error)

type methodKind int

const (
	kindSimpleGenerate methodKind = iota
	kindModelProxy
	kindMultiOperation
)

// method binds a descriptor to its handler. operationCosts holds the
// per-operation credit overrides of a multi-operation method, and
// operationRequires the fields each operation needs beyond the shared schema.
type method struct {
	descriptor        MethodDescriptor
	kind              methodKind
	handle            HandlerFunc
	operationCosts    map[string]float64
	operationRequires map[string][]string
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// displayName derives a human label from a camelCase method name, e.g.
// "fluxImage" becomes "Flux Image".
func displayName(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return titleCaser.String(b.String())
}
