package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/jgivc/datasetgen/internal/app"
	"github.com/jgivc/datasetgen/internal/config"
	"github.com/jgivc/datasetgen/internal/strategy"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

var (
	destFolder string
	numDays    int
	seed       int64
	reportFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "datasetgen",
	Short:         "Synthetic file access dataset generator",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var genCmd = &cobra.Command{
	Use:   "gen <config>",
	Short: "Generate a dataset from a YAML or JSON configuration",
	Long: `Generate one compressed CSV table per simulated day.

The destination folder is deleted and created again before the tables are
written.

Examples:
  datasetgen gen config.yml
  datasetgen gen config.json --num-days 30 --seed 7 --report reports/run`,
	Args: cobra.ExactArgs(1),
	RunE: runGen,
}

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the generation strategies with their default arguments",
	Args:  cobra.NoArgs,
	RunE:  runStrategies,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "datasetgen %s (%s)\n", version, commit)
	},
}

func init() {
	genCmd.Flags().StringVar(&destFolder, "dest-folder", "", "Output folder, overrides dest_folder")
	genCmd.Flags().IntVar(&numDays, "num-days", 0, "Number of days, overrides num_days")
	genCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "Random seed, overrides seed")
	genCmd.Flags().StringVar(&reportFile, "report", "", "Report file without extension, overrides report.file")

	rootCmd.AddCommand(genCmd)
	rootCmd.AddCommand(strategiesCmd)
	rootCmd.AddCommand(versionCmd)
}

func runGen(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("dest-folder") {
		cfg.DestFolder = destFolder
	}
	if flags.Changed("num-days") {
		cfg.NumDays = numDays
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("report") {
		cfg.Report.File = reportFile
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	a, err := app.New(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bars := map[string]*progressbar.ProgressBar{
		app.StagePrepare: newProgressBar("Prepare dataset days"),
		app.StageSave:    newProgressBar("Save dataset"),
	}

	res, err := a.Generate(ctx, func(stage string, pct int) {
		bars[stage].Set(pct)
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nRun %s: %d days, %d requests, %d files -> %s\n",
		res.Meta.RunID, res.Stats.NumDays, res.Stats.Requests, res.Stats.UniqueFiles, cfg.DestFolder)
	for _, path := range res.Reports {
		fmt.Fprintf(out, "Report: %s\n", path)
	}

	return nil
}

func newProgressBar(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(100,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

func runStrategies(cmd *cobra.Command, _ []string) error {
	all := make(yaml.MapSlice, 0, len(strategy.Names()))
	for _, name := range strategy.Names() {
		args, err := strategy.Defaults(name)
		if err != nil {
			return err
		}

		all = append(all, yaml.MapItem{Key: name, Value: map[string]any(args)})
	}

	data, err := yaml.Marshal(all)
	if err != nil {
		return fmt.Errorf("cannot encode strategies: %w", err)
	}

	_, err = cmd.OutOrStdout().Write(data)

	return err
}
