package launch

import (
	"fmt"
)

// Shared configuration field names.
const (
	flagsKey        = "flags"
	executableKey   = "executable"
	baseLauncherKey = "base_launcher"
	wrappersKey     = "wrappers"
)

// configStringSlice reads an optional list-of-strings field. YAML and
// TOML decoders hand lists over as []any, so both forms are accepted.
func configStringSlice(cfg Config, name string) ([]string, error) {
	raw, ok := cfg[name]
	if !ok || raw == nil {
		return nil, nil
	}

	switch v := raw.(type) {
	case []string:
		return append([]string{}, v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, entry := range v {
			s, ok := entry.(string)
			if !ok {
				return nil, fmt.Errorf("field `%s` must be a list of strings, got element of type %T", name, entry)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("field `%s` must be a list of strings, got %T", name, raw)
	}
}

// configString reads an optional string field.
func configString(cfg Config, name string) (string, error) {
	raw, ok := cfg[name]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("field `%s` must be a string, got %T", name, raw)
	}
	return s, nil
}

// configMapping reads a nested configuration mapping. YAML hands nested
// mappings over as map[string]any; TOML does the same for tables.
func configMapping(raw any, name string) (Config, error) {
	switch v := raw.(type) {
	case Config:
		return v, nil
	case map[string]any:
		return Config(v), nil
	default:
		return nil, fmt.Errorf("field `%s` must be a mapping, got %T", name, raw)
	}
}

// flagsConfig builds the common single-field configuration shared by the
// flag-only launchers and wrappers.
func flagsConfig(flags []string) Config {
	cfg := Config{}
	if len(flags) > 0 {
		cfg[flagsKey] = append([]string{}, flags...)
	}
	return cfg
}

// DumpConfig implements Launcher.
func (l *DirectLauncher) DumpConfig(withClass bool) (Config, error) {
	cfg := flagsConfig(l.Flags)
	if l.Executable != "" {
		cfg[executableKey] = l.Executable
	}
	return finalizeConfig("DirectLauncher", cfg, withClass)
}

func decodeDirectLauncher(_ *Registry, cfg Config) (Launcher, error) {
	flags, err := configStringSlice(cfg, flagsKey)
	if err != nil {
		return nil, err
	}
	executable, err := configString(cfg, executableKey)
	if err != nil {
		return nil, err
	}
	return &DirectLauncher{Executable: executable, Flags: flags}, nil
}

// DumpConfig implements Launcher.
func (l *MpirunLauncher) DumpConfig(withClass bool) (Config, error) {
	return finalizeConfig("MpirunLauncher", flagsConfig(l.Flags), withClass)
}

func decodeMpirunLauncher(_ *Registry, cfg Config) (Launcher, error) {
	flags, err := configStringSlice(cfg, flagsKey)
	if err != nil {
		return nil, err
	}
	return &MpirunLauncher{Flags: flags}, nil
}

// DumpConfig implements Launcher.
func (l *SrunLauncher) DumpConfig(withClass bool) (Config, error) {
	return finalizeConfig("SrunLauncher", flagsConfig(l.Flags), withClass)
}

func decodeSrunLauncher(_ *Registry, cfg Config) (Launcher, error) {
	flags, err := configStringSlice(cfg, flagsKey)
	if err != nil {
		return nil, err
	}
	return &SrunLauncher{Flags: flags}, nil
}

// DumpConfig implements Wrapper.
func (l *DDTLauncher) DumpConfig(withClass bool) (Config, error) {
	return finalizeConfig("DDTLauncher", flagsConfig(l.Flags), withClass)
}

func decodeDDTLauncher(_ *Registry, cfg Config) (Wrapper, error) {
	flags, err := configStringSlice(cfg, flagsKey)
	if err != nil {
		return nil, err
	}
	return &DDTLauncher{Flags: flags}, nil
}

// DumpConfig implements Wrapper.
func (l *BashLauncher) DumpConfig(withClass bool) (Config, error) {
	return finalizeConfig("BashLauncher", flagsConfig(l.Flags), withClass)
}

func decodeBashLauncher(_ *Registry, cfg Config) (Wrapper, error) {
	flags, err := configStringSlice(cfg, flagsKey)
	if err != nil {
		return nil, err
	}
	return &BashLauncher{Flags: flags}, nil
}

// DumpConfig implements Launcher. Nested launchers and wrappers always
// carry their discriminator, since they cannot be reconstructed without
// it.
func (l *CompositeLauncher) DumpConfig(withClass bool) (Config, error) {
	cfg := flagsConfig(l.Flags)

	if l.Base != nil {
		base, err := l.Base.DumpConfig(true)
		if err != nil {
			return nil, err
		}
		cfg[baseLauncherKey] = map[string]any(base)
	}

	if len(l.Wrappers) > 0 {
		wrappers := make([]any, 0, len(l.Wrappers))
		for _, wrapper := range l.Wrappers {
			wrapped, err := wrapper.DumpConfig(true)
			if err != nil {
				return nil, err
			}
			wrappers = append(wrappers, map[string]any(wrapped))
		}
		cfg[wrappersKey] = wrappers
	}

	return finalizeConfig("CompositeLauncher", cfg, withClass)
}

func decodeCompositeLauncher(r *Registry, cfg Config) (Launcher, error) {
	flags, err := configStringSlice(cfg, flagsKey)
	if err != nil {
		return nil, err
	}

	composite := &CompositeLauncher{Flags: flags}

	raw, ok := cfg[baseLauncherKey]
	if !ok || raw == nil {
		return nil, fmt.Errorf("composite launcher configuration is missing the `%s` field", baseLauncherKey)
	}
	baseCfg, err := configMapping(raw, baseLauncherKey)
	if err != nil {
		return nil, err
	}
	composite.Base, err = r.LauncherFromConfig(baseCfg)
	if err != nil {
		return nil, err
	}

	if raw, ok := cfg[wrappersKey]; ok && raw != nil {
		entries, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("field `%s` must be a list of mappings, got %T", wrappersKey, raw)
		}
		for _, entry := range entries {
			wrapperCfg, err := configMapping(entry, wrappersKey)
			if err != nil {
				return nil, err
			}
			wrapper, err := r.WrapperFromConfig(wrapperCfg)
			if err != nil {
				return nil, err
			}
			composite.Wrappers = append(composite.Wrappers, wrapper)
		}
	}

	return composite, nil
}
