// Command ppcc-opt is a thin driver over the optimizer core, grounded on
// the teacher's cmd/z80opt: one root cobra.Command, subcommands bound to
// package-level flag variables, configuration layered through viper so the
// same knobs work as flags or PPCC_OPT_ environment variables (no config
// file is read), and zerolog for anything that
// isn't the command's actual result (spec.md §7's ambient logging). It has
// no PASM/P2ASM parser of its own — spec.md §1 scopes that out as an
// external collaborator — so every subcommand operates on the named
// built-in fixture from internal/demo rather than a file on disk.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/totalspectrum/ppcc-optimizer/internal/config"
	"github.com/totalspectrum/ppcc-optimizer/internal/demo"
	"github.com/totalspectrum/ppcc-optimizer/internal/emit"
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
	"github.com/totalspectrum/ppcc-optimizer/internal/optimizer"
	"github.com/totalspectrum/ppcc-optimizer/internal/peephole"
	"github.com/totalspectrum/ppcc-optimizer/internal/report"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var p2 bool
	var fcacheSize int
	var logLevel string

	root := &cobra.Command{
		Use:   "ppcc-opt",
		Short: "Propeller 1/2 assembly IR optimizer",
	}
	root.PersistentFlags().BoolVar(&p2, "p2", false, "target Propeller 2 (enables CORDIC reorder/fold)")
	root.PersistentFlags().IntVar(&fcacheSize, "fcache-size", 0, "F-cache window in longs (0 disables, -1 auto-sizes)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "trace, debug, info, warn, error")
	v.BindPFlag("p2", root.PersistentFlags().Lookup("p2"))
	v.BindPFlag("fcache-size", root.PersistentFlags().Lookup("fcache-size"))
	v.SetEnvPrefix("PPCC_OPT")
	v.AutomaticEnv()

	newLogger := func() zerolog.Logger {
		lvl, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			lvl = zerolog.InfoLevel
		}
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(lvl).With().Timestamp().Logger()
	}
	loadConfig := func() config.Config { return config.Load(v) }

	root.AddCommand(newOptimizeCmd(loadConfig, newLogger))
	root.AddCommand(newDumpIRCmd(loadConfig, newLogger))
	root.AddCommand(newExplainPeepholeCmd())
	root.AddCommand(newBenchCmd(loadConfig, newLogger))
	return root
}

func resolveFixture(args []string) (*frontend.Function, error) {
	name := "muldiv-fold"
	if len(args) > 0 {
		name = args[0]
	}
	fn, ok := demo.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown fixture %q (available: %v)", name, demo.Names())
	}
	return fn, nil
}

func newOptimizeCmd(loadConfig func() config.Config, newLogger func() zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "optimize [fixture]",
		Short: "Run the full driver pipeline over a built-in fixture and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			fn, err := resolveFixture(args)
			if err != nil {
				return err
			}
			cfg := loadConfig()
			d := &optimizer.Driver{Cfg: cfg, Log: newLogger(), Functions: []*frontend.Function{fn}}
			before := fn.Body.Len()
			result := d.OptimizeFunction(fn)
			if err := emit.CheckOutputContract(fn.Body); err != nil {
				return err
			}

			fmt.Printf("optimized %s: %d -> %d instructions\n", fn.Name, before, fn.Body.Len())
			printBody(fn.Body)
			for _, diagnostic := range result.Sink.All() {
				fmt.Fprintln(cmd.ErrOrStderr(), diagnostic.Error())
			}
			return nil
		},
	}
}

func newDumpIRCmd(loadConfig func() config.Config, newLogger func() zerolog.Logger) *cobra.Command {
	var optimize bool
	cmd := &cobra.Command{
		Use:   "dump-ir [fixture]",
		Short: "Print a fixture's instruction list, optionally after optimizing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			fn, err := resolveFixture(args)
			if err != nil {
				return err
			}
			if optimize {
				d := &optimizer.Driver{Cfg: loadConfig(), Log: newLogger(), Functions: []*frontend.Function{fn}}
				d.OptimizeFunction(fn)
			}
			printBody(fn.Body)
			return nil
		},
	}
	cmd.Flags().BoolVar(&optimize, "optimize", false, "run the driver before dumping")
	return cmd
}

func newExplainPeepholeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain-peephole",
		Short: "List the peephole patterns the driver tries, in match order",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range peephole.PatternNames() {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func newBenchCmd(loadConfig func() config.Config, newLogger func() zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Run every built-in fixture through the driver and report which passes fired",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			log := newLogger()
			tbl := report.NewTable()
			for _, name := range demo.Names() {
				fn, _ := demo.Get(name)
				d := &optimizer.Driver{Cfg: cfg, Log: log, Functions: []*frontend.Function{fn}, Report: tbl}
				start := time.Now()
				d.OptimizeFunction(fn)
				log.Info().Str("fixture", name).Dur("elapsed", time.Since(start)).
					Int("instructions", fn.Body.Len()).Msg("optimized fixture")
			}
			fmt.Printf("%-28s %12s %12s\n", "pass/pattern", "firings", "cycles_saved")
			for _, e := range tbl.Entries() {
				fmt.Printf("%-28s %12d %12d\n", e.Name, e.Occurrences, e.CyclesSaved)
			}
			return nil
		},
	}
}

// printBody renders body as a best-effort textual listing: mnemonic plus
// raw operand fields. It is not a PASM/P2ASM printer (spec.md §1) — just
// enough to eyeball what the driver did to a fixture.
func printBody(body *ir.IRList) {
	body.Walk(func(i *ir.Instruction) {
		if i.IsDummy() {
			return
		}
		if i.Op == ir.LABEL {
			fmt.Printf("%s:\n", i.Text)
			return
		}
		fmt.Printf("  %-8s %s\n", ir.Mnemonic(i.Op), formatOperands(i))
	})
}

func formatOperands(i *ir.Instruction) string {
	s := formatOperand(&i.Dst)
	if i.Op != ir.GETQX && i.Op != ir.GETQY {
		if rhs := formatOperand(&i.Src); rhs != "" {
			s += ", " + rhs
		}
	}
	if i.HasSrc2 {
		s += ", " + formatOperand(&i.Src2)
	}
	return s
}

func formatOperand(op *ir.Operand) string {
	switch {
	case op.IsImm():
		if op.Name != "" {
			return op.Name
		}
		return fmt.Sprintf("#%d", op.Val)
	case op.Name != "":
		return op.Name
	default:
		return ""
	}
}
