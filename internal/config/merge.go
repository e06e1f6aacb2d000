package config

// WasExplicitlySet checks if a flag was explicitly set by the user
func WasExplicitlySet(flags map[string]bool, flagName string) bool {
	if flags == nil {
		return false
	}
	return flags[flagName]
}

// Overrides carries command-line values that may replace configured ones
type Overrides struct {
	Parallel        bool
	FailOnWarnings  bool
	BOMPath         string
	MaxWorkers      int
	LabelWidth      int
	IncludePatterns []string
	ExcludePatterns []string
	Format          string
	Addr            string
	LogLevel        string
}

// ApplyOverrides copies every override whose flag was explicitly set into c.
// Flag names follow the CLI: parallel, fail-on-warnings, bom, max-workers,
// label-width, include, exclude, format, addr, log-level.
func (c *Config) ApplyOverrides(o Overrides, flags map[string]bool) {
	c.Validation.Parallel = mergeBool(c.Validation.Parallel, o.Parallel, "parallel", flags)
	c.Validation.FailOnWarnings = mergeBool(c.Validation.FailOnWarnings, o.FailOnWarnings, "fail-on-warnings", flags)
	c.Validation.BOMPath = mergeString(c.Validation.BOMPath, o.BOMPath, "bom", flags)
	c.Validation.MaxWorkers = mergeInt(c.Validation.MaxWorkers, o.MaxWorkers, "max-workers", flags)
	c.Query.LabelWidth = mergeInt(c.Query.LabelWidth, o.LabelWidth, "label-width", flags)
	c.Input.IncludePatterns = mergeStringSlice(c.Input.IncludePatterns, o.IncludePatterns, "include", flags)
	c.Input.ExcludePatterns = mergeStringSlice(c.Input.ExcludePatterns, o.ExcludePatterns, "exclude", flags)
	c.Output.Format = mergeString(c.Output.Format, o.Format, "format", flags)
	c.Server.Addr = mergeString(c.Server.Addr, o.Addr, "addr", flags)
	c.Logging.Level = mergeString(c.Logging.Level, o.LogLevel, "log-level", flags)
}

func mergeString(base, override, flagName string, flags map[string]bool) string {
	if WasExplicitlySet(flags, flagName) {
		return override
	}
	return base
}

func mergeInt(base, override int, flagName string, flags map[string]bool) int {
	if WasExplicitlySet(flags, flagName) {
		return override
	}
	return base
}

func mergeBool(base, override bool, flagName string, flags map[string]bool) bool {
	if WasExplicitlySet(flags, flagName) {
		return override
	}
	return base
}

func mergeStringSlice(base, override []string, flagName string, flags map[string]bool) []string {
	if WasExplicitlySet(flags, flagName) && len(override) > 0 {
		return override
	}
	return base
}
