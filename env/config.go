package env

import "fmt"

// Configuration keys for serialized handlers.
const (
	modeKey  = "mode"
	keyKey   = "key"
	valueKey = "value"
)

// DumpConfig serializes the handler into a plain mapping suitable for
// YAML or TOML storage. Unused fields are omitted.
func (h Handler) DumpConfig() map[string]any {
	cfg := map[string]any{modeKey: h.op.String()}
	if h.key != "" {
		cfg[keyKey] = h.key
	}
	if h.value != "" {
		cfg[valueKey] = h.value
	}
	return cfg
}

// HandlerFromConfig reconstructs a handler from its serialized form.
// Field validation happens in NewHandler, so malformed configurations
// fail here rather than at pipeline execution time.
func HandlerFromConfig(cfg map[string]any) (Handler, error) {
	mode, ok := cfg[modeKey]
	if !ok {
		return Handler{}, fmt.Errorf("environment handler configuration is missing the `%s` field", modeKey)
	}
	modeStr, ok := mode.(string)
	if !ok {
		return Handler{}, fmt.Errorf("environment handler field `%s` must be a string, got %T", modeKey, mode)
	}

	var op Operation
	if err := op.FromString(modeStr); err != nil {
		return Handler{}, err
	}

	key, err := optionalString(cfg, keyKey)
	if err != nil {
		return Handler{}, err
	}
	value, err := optionalString(cfg, valueKey)
	if err != nil {
		return Handler{}, err
	}

	return NewHandler(op, key, value)
}

func optionalString(cfg map[string]any, name string) (string, error) {
	raw, ok := cfg[name]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("environment handler field `%s` must be a string, got %T", name, raw)
	}
	return s, nil
}
