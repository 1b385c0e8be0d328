// Package config loads the whole-compilation-unit configuration the
// optimizer core consumes but does not define (spec.md §6 "Configuration").
// It is wired through github.com/spf13/viper so the same bitmap/size knobs
// can come from a CLI flag, an environment variable, or a TOML/YAML file —
// the natural extension of the teacher CLI's flag-only Cobra setup.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
)

// OutputMode selects the emitter mode (spec.md §6: "mode selector: default,
// cog-spin, ..."). The core never interprets it beyond threading it through.
type OutputMode string

const (
	OutputDefault OutputMode = "default"
	OutputCogSpin OutputMode = "cog-spin"
)

// Config holds the module-level settings from spec.md §6.
type Config struct {
	P2          bool
	FcacheSize  int // longs; 0 disables, a negative value auto-sizes
	Compress    bool
	Output      OutputMode
	OptimizeFlags frontend.OptimizeFlag
}

// Default returns the baseline configuration: P1, F-cache disabled, all
// passes enabled except the experimental/extra-small/remove-hub-bss bits,
// matching a conservative "-O1"-equivalent default.
func Default() Config {
	return Config{
		P2:            false,
		FcacheSize:    0,
		Compress:      false,
		Output:        OutputDefault,
		OptimizeFlags: frontend.OptAll,
	}
}

// Load reads configuration from a viper instance that the CLI layer has
// already bound to flags/env/file, falling back to Default() for anything
// unset.
func Load(v *viper.Viper) Config {
	cfg := Default()
	if v == nil {
		return cfg
	}
	if v.IsSet("p2") {
		cfg.P2 = v.GetBool("p2")
	}
	if v.IsSet("fcache-size") {
		cfg.FcacheSize = v.GetInt("fcache-size")
	}
	if v.IsSet("compress") {
		cfg.Compress = v.GetBool("compress")
	}
	if v.IsSet("output") {
		cfg.Output = OutputMode(v.GetString("output"))
	}
	if v.IsSet("optimize-flags") {
		cfg.OptimizeFlags = ParseOptimizeFlags(v.GetStringSlice("optimize-flags"))
	}
	return cfg
}

var flagNames = map[string]frontend.OptimizeFlag{
	"basic_regs":          frontend.OptBasicRegs,
	"const_propagate":      frontend.OptConstPropagate,
	"peephole":             frontend.OptPeephole,
	"branches":             frontend.OptBranches,
	"tail_calls":           frontend.OptTailCalls,
	"cordic_reorder":       frontend.OptCordicReorder,
	"local_reuse":          frontend.OptLocalReuse,
	"deadcode":             frontend.OptDeadcode,
	"experimental":         frontend.OptExperimental,
	"aggressive_mem":       frontend.OptAggressiveMem,
	"remove_hub_bss":       frontend.OptRemoveHubBss,
	"auto_fcache":          frontend.OptAutoFcache,
	"merge_duplicates":     frontend.OptMergeDuplicates,
	"inline_smallfuncs":    frontend.OptInlineSmallfuncs,
	"inline_singleuse":     frontend.OptInlineSingleuse,
	"remove_unused_funcs":  frontend.OptRemoveUnusedFuncs,
	"extrasmall":           frontend.OptExtrasmall,
	"fastasm":              frontend.OptFastasm,
}

// ParseOptimizeFlags turns a list of flag names (case-insensitive, as they
// would appear in a TOML `optimize-flags = [...]` array) into the packed
// bitmap spec.md §6 describes.
func ParseOptimizeFlags(names []string) frontend.OptimizeFlag {
	var bits frontend.OptimizeFlag
	for _, n := range names {
		if f, ok := flagNames[strings.ToLower(strings.TrimSpace(n))]; ok {
			bits |= f
		}
	}
	return bits
}
