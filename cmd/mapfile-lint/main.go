// Package main provides the CLI entry point for mapfile-lint.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	mapfile "github.com/Consortis-Geospatial/Mapfile-Preview"
	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/config"
	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/extent"
	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/result"
)

// version is set at build time via ldflags
var version = "dev"

// CLI flags
var (
	flagFormat  string
	flagVerbose bool
	flagConfig  string

	// check
	flagSoftWindow     int
	flagMaxSuggestions int
	flagMultiline      bool

	// balance
	flagNoHeuristics bool
	flagInlineEnd    bool

	// fmt
	flagIndent    int
	flagWrite     bool
	flagListDiffs bool

	// extent
	flagBBox       string
	flagCRS        string
	flagNoAdd      bool
	flagMapOnly    bool
	flagLayersOnly bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mapfile-lint [files...]",
	Short: "Check MapServer mapfiles",
	Long: `mapfile-lint analyzes MapServer mapfiles: block nesting and keyword
context, END balance, indentation, EXTENT synchronization and WFS
capability. Without a subcommand it runs the syntax check.

Examples:
  mapfile-lint world.map
  mapfile-lint check --format json maps/*.map
  mapfile-lint balance world.map
  mapfile-lint fmt -w world.map
  mapfile-lint extent --bbox 19,34,29,42 --crs EPSG:4326 world.map
  mapfile-lint wfs world.map
  cat world.map | mapfile-lint -`,
	Args:         cobra.ArbitraryArgs,
	Version:      version,
	SilenceUsage: true,
	RunE:         runCheck,
}

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Report HARD and SOFT syntax and context issues",
	RunE:  runCheck,
}

var balanceCmd = &cobra.Command{
	Use:   "balance [files...]",
	Short: "Report unmatched ENDs and unterminated blocks",
	RunE:  runBalance,
}

var fmtCmd = &cobra.Command{
	Use:   "fmt [files...]",
	Short: "Re-indent mapfiles by block depth",
	RunE:  runFmt,
}

var extentCmd = &cobra.Command{
	Use:   "extent --bbox minx,miny,maxx,maxy [file]",
	Short: "Write a bounding box into the MAP and LAYER EXTENTs",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExtent,
}

var wfsCmd = &cobra.Command{
	Use:   "wfs [files...]",
	Short: "Tell which layers can be published through WFS",
	RunE:  runWFS,
}

func init() {
	// Output options
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "Output format: text, json")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Show detailed progress")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: ./"+config.FileName+" or $"+config.EnvPath+")")

	// Check options
	for _, c := range []*cobra.Command{rootCmd, checkCmd} {
		c.Flags().IntVar(&flagSoftWindow, "soft-window", 25, "Lines after a HARD issue in which SOFT issues are suppressed (negative disables)")
		c.Flags().IntVar(&flagMaxSuggestions, "max-suggestions", 3, "Typo suggestions per unknown keyword")
		c.Flags().BoolVar(&flagMultiline, "multiline-quotes", false, "Let quoted strings span lines")
	}

	// Balance options
	balanceCmd.Flags().BoolVar(&flagNoHeuristics, "no-heuristics", false, "Only treat known block keywords as openers")
	balanceCmd.Flags().BoolVar(&flagInlineEnd, "inline-end", false, "Honor an END after other tokens on any line")

	// Fmt options
	fmtCmd.Flags().IntVar(&flagIndent, "indent", 2, "Spaces per nesting level")
	fmtCmd.Flags().BoolVarP(&flagWrite, "write", "w", false, "Write the result back to the file")
	fmtCmd.Flags().BoolVarP(&flagListDiffs, "list", "l", false, "List files whose formatting differs, exit 1 if any")

	// Extent options
	extentCmd.Flags().StringVar(&flagBBox, "bbox", "", "Viewport as minx,miny,maxx,maxy (required)")
	extentCmd.Flags().StringVar(&flagCRS, "crs", "", "Reference of the bbox (default from config, CRS:84)")
	extentCmd.Flags().BoolVarP(&flagWrite, "write", "w", false, "Write the result back to the file")
	extentCmd.Flags().BoolVar(&flagNoAdd, "no-add", false, "Only replace existing EXTENT lines")
	extentCmd.Flags().BoolVar(&flagMapOnly, "map-only", false, "Do not touch LAYER blocks")
	extentCmd.Flags().BoolVar(&flagLayersOnly, "layers-only", false, "Do not touch the MAP EXTENT")
	extentCmd.MarkFlagRequired("bbox")

	rootCmd.AddCommand(checkCmd, balanceCmd, fmtCmd, extentCmd, wfsCmd)
}

// InputSource represents a mapfile to be analyzed.
type InputSource struct {
	Name    string
	Content string
	Path    string // empty for stdin
}

// readInputs reads the named files, or stdin when none or "-" is given.
func readInputs(args []string, stdin io.Reader) ([]InputSource, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		content, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return []InputSource{{Name: "<stdin>", Content: string(content)}}, nil
	}

	var inputs []InputSource
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		inputs = append(inputs, InputSource{Name: path, Content: string(content), Path: path})
	}
	return inputs, nil
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flagConfig != "" {
		if _, err := os.Stat(flagConfig); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		cfg, err = config.LoadFile(flagConfig)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("soft-window") {
		cfg.Check.SoftSuppressionLines = flagSoftWindow
	}
	if flags.Changed("max-suggestions") {
		cfg.Check.MaxSuggestions = flagMaxSuggestions
	}
	if flags.Changed("multiline-quotes") {
		cfg.Check.AllowMultilineQuotes = flagMultiline
		cfg.Balance.AllowMultilineQuotes = flagMultiline
	}
	if flags.Changed("no-heuristics") {
		cfg.Balance.HeuristicOpeners = !flagNoHeuristics
	}
	if flags.Changed("inline-end") {
		cfg.Balance.AllowInlineEndWithoutOpener = flagInlineEnd
	}
	if flags.Changed("indent") {
		cfg.IndentWidth = flagIndent
	}
	if flags.Changed("crs") {
		cfg.Extent.CRS = flagCRS
	}
	if flags.Changed("no-add") {
		cfg.Extent.AddMissing = !flagNoAdd
	}
	if flagMapOnly {
		cfg.Extent.UpdateLayers = false
	}
	if flagLayersOnly {
		cfg.Extent.UpdateMap = false
	}

	if flagVerbose {
		fmt.Fprintf(os.Stderr, "config: indent=%d extra_openers=%v\n", cfg.IndentWidth, cfg.ExtraOpeners)
	}
	return cfg, nil
}

// prepare applies env defaults, loads config and reads the inputs.
func prepare(cmd *cobra.Command, args []string) (*mapfile.Linter, *config.Config, []InputSource, error) {
	// Apply env var defaults now that cobra has parsed flags
	applyEnvDefaults()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	inputs, err := readInputs(args, cmd.InOrStdin())
	if err != nil {
		return nil, nil, nil, err
	}
	return mapfile.New(*cfg), cfg, inputs, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	linter, _, inputs, err := prepare(cmd, args)
	if err != nil {
		return err
	}

	var reports []result.Report
	for _, input := range inputs {
		if flagVerbose {
			fmt.Fprintf(os.Stderr, "checking %s\n", input.Name)
		}
		reports = append(reports, *linter.Check(input.Name, input.Content))
	}

	w := cmd.OutOrStdout()
	if len(reports) == 1 {
		outputSingle(w, reports[0], flagFormat)
	} else {
		outputMultiple(w, reports, flagFormat)
	}

	// Exit code based on validity
	for _, r := range reports {
		if !r.Valid {
			os.Exit(1)
		}
	}
	return nil
}

func runBalance(cmd *cobra.Command, args []string) error {
	linter, _, inputs, err := prepare(cmd, args)
	if err != nil {
		return err
	}

	results := make([]fileBalance, 0, len(inputs))
	for _, input := range inputs {
		results = append(results, fileBalance{File: input.Name, BalanceResult: linter.Balance(input.Content)})
	}

	if err := outputBalance(cmd.OutOrStdout(), results, flagFormat); err != nil {
		return err
	}

	for _, r := range results {
		if !r.OK {
			os.Exit(1)
		}
	}
	return nil
}

func runFmt(cmd *cobra.Command, args []string) error {
	linter, _, inputs, err := prepare(cmd, args)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	differs := false
	for _, input := range inputs {
		res := linter.Format(input.Content)
		if res.FinalDepth > 0 || res.ExtraEnds > 0 {
			fmt.Fprintf(os.Stderr, "%s: blocks are unbalanced (%d open, %d extra END); indentation may be off\n",
				input.Name, res.FinalDepth, res.ExtraEnds)
		}

		switch {
		case flagListDiffs:
			if res.Changed {
				differs = true
				fmt.Fprintln(w, input.Name)
			}
		case flagWrite && input.Path != "":
			if !res.Changed {
				continue
			}
			if err := writeFile(input.Path, res.Text); err != nil {
				return err
			}
			if flagVerbose {
				fmt.Fprintf(os.Stderr, "formatted %s\n", input.Path)
			}
		default:
			fmt.Fprint(w, res.Text)
		}
	}

	if differs {
		os.Exit(1)
	}
	return nil
}

func runExtent(cmd *cobra.Command, args []string) error {
	if flagMapOnly && flagLayersOnly {
		return fmt.Errorf("--map-only and --layers-only exclude each other")
	}
	linter, cfg, inputs, err := prepare(cmd, args)
	if err != nil {
		return err
	}

	viewport, err := extent.ParseBBox(flagBBox, cfg.Extent.CRS)
	if err != nil {
		return err
	}

	input := inputs[0]
	res := linter.SyncExtent(input.Content, viewport)
	for _, warn := range res.Warnings {
		fmt.Fprintf(os.Stderr, "%s: %s\n", input.Name, warn)
	}
	if flagVerbose {
		for _, c := range res.Changes {
			fmt.Fprintf(os.Stderr, "%s: line %d: %s %s -> %s\n", input.Name, c.Line, c.Block, c.Action, c.Extent)
		}
	}

	if err := outputExtent(cmd.OutOrStdout(), input, res, flagFormat, flagWrite); err != nil {
		return err
	}

	if !res.Updated && len(res.Changes) == 0 {
		fmt.Fprintf(os.Stderr, "%s: no EXTENT was updated\n", input.Name)
	}
	return nil
}

// outputExtent writes the synchronized text back when asked to, then prints
// the JSON result or, unless the file was written, the text.
func outputExtent(w io.Writer, input InputSource, res mapfile.SyncResult, format string, write bool) error {
	written := write && input.Path != ""
	if written && res.Updated {
		if err := writeFile(input.Path, res.Text); err != nil {
			return err
		}
	}

	switch {
	case format == "json":
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	case !written:
		fmt.Fprint(w, res.Text)
	}
	return nil
}

func runWFS(cmd *cobra.Command, args []string) error {
	linter, _, inputs, err := prepare(cmd, args)
	if err != nil {
		return err
	}

	results := make([]fileVerdicts, 0, len(inputs))
	for _, input := range inputs {
		results = append(results, fileVerdicts{File: input.Name, Layers: linter.ClassifyWFS(input.Content)})
	}
	return outputWFS(cmd.OutOrStdout(), results, flagFormat, flagVerbose)
}

type fileBalance struct {
	File string `json:"file"`
	*mapfile.BalanceResult
}

type fileVerdicts struct {
	File   string            `json:"file"`
	Layers []mapfile.Verdict `json:"layers"`
}

func outputSingle(w io.Writer, r result.Report, format string) {
	switch format {
	case "json":
		data, _ := r.ToJSON()
		fmt.Fprintln(w, string(data))
	default:
		fmt.Fprint(w, r.ToText())
	}
}

func outputMultiple(w io.Writer, reports []result.Report, format string) {
	m := result.NewMultiReport(reports)

	switch format {
	case "json":
		data, _ := m.ToJSON()
		fmt.Fprintln(w, string(data))
	default:
		fmt.Fprint(w, m.ToText())
	}
}

func outputBalance(w io.Writer, results []fileBalance, format string) error {
	if format == "json" {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	for _, r := range results {
		bold.Fprintf(w, "mapfile-lint: %s\n", r.File)
		for _, e := range r.ExtraEnds {
			red.Fprint(w, "  EXTRA END")
			fmt.Fprintf(w, " [line %d:%d] %s\n", e.Line, e.Col, e.Excerpt)
		}
		for _, m := range r.MissingEnds {
			red.Fprint(w, "  MISSING END")
			fmt.Fprintf(w, " [line %d:%d] %s", m.Line, m.Col, m.Kind)
			if m.Heuristic {
				fmt.Fprint(w, " (heuristic opener)")
			}
			fmt.Fprintln(w)
		}
		if r.OK {
			color.New(color.FgGreen).Fprintf(w, "  %s\n", r.Message)
		} else {
			fmt.Fprintf(w, "  %s\n", r.Message)
		}
	}
	return nil
}

func outputWFS(w io.Writer, results []fileVerdicts, format string, verbose bool) error {
	if format == "json" {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	bold := color.New(color.Bold)
	yes := color.New(color.FgGreen, color.Bold)
	no := color.New(color.FgRed, color.Bold)
	for _, r := range results {
		bold.Fprintf(w, "mapfile-lint: %s\n", r.File)
		if len(r.Layers) == 0 {
			fmt.Fprintln(w, "  no LAYER blocks")
			continue
		}
		for _, v := range r.Layers {
			fmt.Fprintf(w, "  %-24s ", v.Layer)
			if v.Supported {
				yes.Fprint(w, "WFS")
			} else {
				no.Fprint(w, "---")
			}
			if len(v.Reasons) > 0 {
				fmt.Fprintf(w, "  %s", v.Reasons[len(v.Reasons)-1])
			}
			fmt.Fprintln(w)
			if verbose {
				fmt.Fprintf(w, "      %s\n", strings.Join(v.Reasons, "\n      "))
			}
		}
	}
	return nil
}

func writeFile(path, text string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(text), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// applyEnvDefaults fills in flag values from environment variables
// when the user didn't provide them on the command line.
// Called inside RunE after cobra has parsed flags.
func applyEnvDefaults() {
	if flagConfig == "" {
		if v := os.Getenv(config.EnvPath); v != "" {
			flagConfig = v
		}
	}
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}
