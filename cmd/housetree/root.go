package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"housetree/pkg/config"
	"housetree/pkg/logger"
	"housetree/pkg/pipeline"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// errRenderFailed makes the process exit non-zero after an otherwise
// complete run whose tree image could not be produced.
var errRenderFailed = errors.New("tree image was not rendered")

type flags struct {
	configPath string
	input      string
	outputDir  string
	drop       int
	logLevel   string
	logFile    string

	ratio       float64
	seed        int64
	estimator   string
	criterion   string
	maxDepth    int
	minLeaf     int
	nEstimators int
	format      string
	dotBinary   string
	timeout     time.Duration
	noRender    bool
	noChart     bool
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:   "housetree",
		Short: "Train a decision tree on house price buckets and render its artifacts",
		Long: `housetree loads a numeric CSV whose last column is a price bucket,
splits it into train and test sets, fits a decision tree, and writes
predictions, the tree in DOT form, its rendered image, and a feature
importance chart to the output directory.`,
		Example: `
  # Reference run with defaults
  housetree

  # Drop an identifier column and use a random forest
  housetree --drop-leading 1 --estimator forest --n-estimators 50

  # Settings from a file, overriding one value
  housetree --config housetree.yaml --seed 7`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := setup(cmd, &f, stdout)
			if err != nil {
				return err
			}
			defer logger.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			res, err := p.Run(ctx)
			if err != nil {
				return err
			}
			if res.RenderErr != nil {
				return errRenderFailed
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "YAML settings file")
	pf.StringVarP(&f.input, "input", "i", "", "input CSV path")
	pf.StringVarP(&f.outputDir, "output-dir", "o", "", "directory for generated artifacts")
	pf.IntVar(&f.drop, "drop-leading", 0, "number of leading identifier columns to ignore")
	pf.StringVar(&f.logLevel, "log-level", "", "DEBUG, INFO, WARN, ERROR or NONE")
	pf.StringVar(&f.logFile, "log-file", "", "also append log lines to this file")
	pf.Float64Var(&f.ratio, "ratio", 0, "fraction of rows used for training")
	pf.Int64Var(&f.seed, "seed", 0, "shuffle seed for the split and folds")
	pf.StringVar(&f.estimator, "estimator", "", "tree or forest")
	pf.StringVar(&f.criterion, "criterion", "", "gini or entropy")
	pf.IntVar(&f.maxDepth, "max-depth", 0, "maximum tree depth (0 = unlimited)")
	pf.IntVar(&f.minLeaf, "min-samples-leaf", 0, "minimum rows per leaf")
	pf.IntVar(&f.nEstimators, "n-estimators", 0, "number of trees in a forest")
	pf.StringVar(&f.format, "render-format", "", "Graphviz output format (png, svg, pdf)")
	pf.StringVar(&f.dotBinary, "dot", "", "Graphviz dot executable")
	pf.DurationVar(&f.timeout, "render-timeout", 0, "bound on a single render")
	pf.BoolVar(&f.noRender, "no-render", false, "skip the tree image")
	pf.BoolVar(&f.noChart, "no-chart", false, "skip the feature importance chart")

	root.AddCommand(newCVCmd(&f, stdout), newExportCmd(&f, stdout))
	return root
}

func newCVCmd(f *flags, stdout io.Writer) *cobra.Command {
	var folds int
	cmd := &cobra.Command{
		Use:   "cv",
		Short: "Report k-fold cross-validated accuracy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := setup(cmd, f, stdout)
			if err != nil {
				return err
			}
			defer logger.Close()
			_, err = p.CrossValidate(cmd.Context(), folds)
			return err
		},
	}
	cmd.Flags().IntVarP(&folds, "folds", "k", 5, "number of folds")
	return cmd
}

func newExportCmd(f *flags, stdout io.Writer) *cobra.Command {
	var modelPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Re-export and render the tree of a saved model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := setup(cmd, f, stdout)
			if err != nil {
				return err
			}
			defer logger.Close()
			if modelPath == "" {
				modelPath = p.Config.OutputPath(pipeline.ModelFile)
			}
			if _, err := p.ExportModel(cmd.Context(), modelPath); err != nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "saved model (default <output-dir>/model.gob)")
	return cmd
}

// setup resolves the configuration (defaults, then file, then changed
// flags), starts the logger and builds the pipeline.
func setup(cmd *cobra.Command, f *flags, stdout io.Writer) (*pipeline.Pipeline, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd.Flags(), f, &cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log.File, cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	logger.Debug("resolved config: %+v", cfg)

	p := pipeline.New(cfg)
	p.Out = stdout
	return p, nil
}

func applyFlags(fs *pflag.FlagSet, f *flags, cfg *config.Config) {
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("input", func() { cfg.Input = f.input })
	set("output-dir", func() { cfg.OutputDir = f.outputDir })
	set("drop-leading", func() { cfg.DropLeading = f.drop })
	set("log-level", func() { cfg.Log.Level = f.logLevel })
	set("log-file", func() { cfg.Log.File = f.logFile })
	set("ratio", func() { cfg.Split.Ratio = f.ratio })
	set("seed", func() {
		cfg.Split.Seed = f.seed
		cfg.Model.Seed = f.seed
	})
	set("estimator", func() { cfg.Model.Estimator = f.estimator })
	set("criterion", func() { cfg.Model.Criterion = f.criterion })
	set("max-depth", func() { cfg.Model.MaxDepth = f.maxDepth })
	set("min-samples-leaf", func() { cfg.Model.MinSamplesLeaf = f.minLeaf })
	set("n-estimators", func() { cfg.Model.NEstimators = f.nEstimators })
	set("render-format", func() { cfg.Render.Format = f.format })
	set("dot", func() { cfg.Render.DotBinary = f.dotBinary })
	set("render-timeout", func() { cfg.Render.Timeout = f.timeout })
	set("no-render", func() { cfg.Render.Enabled = !f.noRender })
	set("no-chart", func() { cfg.Chart.Enabled = !f.noChart })
}
