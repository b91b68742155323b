package pref

// Validator checks and may coerce a document snapshot before a read. The
// store calls it on every Get, Size, Document, iteration start, and change
// fan-out when configured; concrete engines (JSON-schema, rule-based) are
// swappable implementations behind this single method.
type Validator interface {
	Validate(doc map[string]any) (map[string]any, error)
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc func(doc map[string]any) (map[string]any, error)

// Validate implements Validator.
func (f ValidatorFunc) Validate(doc map[string]any) (map[string]any, error) {
	return f(doc)
}
