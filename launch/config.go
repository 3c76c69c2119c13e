package launch

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the plain mapping form of a launcher or wrapper: nothing but
// strings, numbers, booleans, lists and nested mappings, suitable for
// YAML or TOML storage.
type Config map[string]any

// ClassNameKey is the discriminator field that selects the concrete type
// during deserialization. It is reserved and cannot be used as an
// ordinary configuration field.
const ClassNameKey = "class_name"

// finalizeConfig validates the reserved-name invariant and optionally
// injects the discriminator.
func finalizeConfig(name string, cfg Config, withClass bool) (Config, error) {
	if _, ok := cfg[ClassNameKey]; ok {
		return nil, fmt.Errorf("`%s` is a reserved field name and cannot be used in %s", ClassNameKey, name)
	}
	if withClass {
		cfg[ClassNameKey] = name
	}
	return cfg, nil
}

// DecodeLauncher builds a Launcher from its configuration mapping. The
// registry is passed through so nested launchers (composites) can be
// reconstructed.
type DecodeLauncher func(*Registry, Config) (Launcher, error)

// DecodeWrapper builds a Wrapper from its configuration mapping.
type DecodeWrapper func(*Registry, Config) (Wrapper, error)

// Registry maps discriminator names to decoders. It is an explicit
// object, constructed once during process initialization and passed to
// whatever loads configurations; registering the same name twice is an
// error rather than a silent overwrite.
type Registry struct {
	launchers map[string]DecodeLauncher
	wrappers  map[string]DecodeWrapper
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		launchers: map[string]DecodeLauncher{},
		wrappers:  map[string]DecodeWrapper{},
	}
}

// RegisterLauncher adds a launcher decoder under the given name.
func (r *Registry) RegisterLauncher(name string, decode DecodeLauncher) error {
	if _, ok := r.launchers[name]; ok {
		return fmt.Errorf("launcher `%s` is already registered", name)
	}
	r.launchers[name] = decode
	return nil
}

// RegisterWrapper adds a wrapper decoder under the given name.
func (r *Registry) RegisterWrapper(name string, decode DecodeWrapper) error {
	if _, ok := r.wrappers[name]; ok {
		return fmt.Errorf("launcher wrapper `%s` is already registered", name)
	}
	r.wrappers[name] = decode
	return nil
}

func (r *Registry) className(cfg Config, allowed []string) (string, error) {
	raw, ok := cfg[ClassNameKey]
	if !ok {
		return "", fmt.Errorf("configuration is missing the `%s` field (allowed values: %s)",
			ClassNameKey, strings.Join(allowed, ", "))
	}
	name, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("configuration field `%s` must be a string, got %T", ClassNameKey, raw)
	}
	return name, nil
}

func (r *Registry) allowedLaunchers() []string {
	names := make([]string, 0, len(r.launchers))
	for name := range r.launchers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) allowedWrappers() []string {
	names := make([]string, 0, len(r.wrappers))
	for name := range r.wrappers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LauncherFromConfig reconstructs the concrete launcher named by the
// discriminator field.
func (r *Registry) LauncherFromConfig(cfg Config) (Launcher, error) {
	name, err := r.className(cfg, r.allowedLaunchers())
	if err != nil {
		return nil, err
	}
	decode, ok := r.launchers[name]
	if !ok {
		return nil, fmt.Errorf("unknown launcher `%s` in field `%s` (allowed values: %s)",
			name, ClassNameKey, strings.Join(r.allowedLaunchers(), ", "))
	}
	return decode(r, cfg)
}

// WrapperFromConfig reconstructs the concrete wrapper named by the
// discriminator field.
func (r *Registry) WrapperFromConfig(cfg Config) (Wrapper, error) {
	name, err := r.className(cfg, r.allowedWrappers())
	if err != nil {
		return nil, err
	}
	decode, ok := r.wrappers[name]
	if !ok {
		return nil, fmt.Errorf("unknown launcher wrapper `%s` in field `%s` (allowed values: %s)",
			name, ClassNameKey, strings.Join(r.allowedWrappers(), ", "))
	}
	return decode(r, cfg)
}

// LauncherFromYAML decodes a YAML document holding a launcher
// configuration mapping.
func (r *Registry) LauncherFromYAML(data []byte) (Launcher, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing launcher configuration: %w", err)
	}
	return r.LauncherFromConfig(cfg)
}

// DefaultRegistry builds a registry holding all built-in launchers and
// wrappers. New variants require an explicit registration call here or
// on the returned registry.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	register := func(err error) {
		// Built-in names are unique by construction.
		if err != nil {
			panic(err)
		}
	}

	register(r.RegisterLauncher("DirectLauncher", decodeDirectLauncher))
	register(r.RegisterLauncher("MpirunLauncher", decodeMpirunLauncher))
	register(r.RegisterLauncher("SrunLauncher", decodeSrunLauncher))
	register(r.RegisterLauncher("CompositeLauncher", decodeCompositeLauncher))

	register(r.RegisterWrapper("DDTLauncher", decodeDDTLauncher))
	register(r.RegisterWrapper("BashLauncher", decodeBashLauncher))

	return r
}
