// Package pipeline runs the housetree job end to end: load, build, split,
// fit, evaluate, write artifacts, rank importances and render the tree.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"housetree/pkg/config"
	"housetree/pkg/data"
	"housetree/pkg/graph"
	"housetree/pkg/loader"
	"housetree/pkg/logger"
	"housetree/pkg/model"
	"housetree/pkg/report"
	"housetree/pkg/stats"

	"gonum.org/v1/plot/vg"
)

// Artifact file names inside the output directory.
const (
	PredictionsFile = "predictions.csv"
	TargetsFile     = "test_targets.csv"
	ModelFile       = "model.gob"
	TreeDotFile     = "tree.dot"
	TreeImageBase   = "tree"
	ChartFile       = "feature_importance.png"
)

// ChartRenderer draws ranked importances to an image file.
type ChartRenderer interface {
	Render(ranked []report.Importance, path string) error
}

// Pipeline holds the configuration and the pluggable collaborators of a run.
// A nil Chart or Graph skips that artifact; a nil Out discards console text.
type Pipeline struct {
	Config config.Config
	Out    io.Writer
	Chart  ChartRenderer
	Graph  graph.Renderer
	// NewModel builds an unfitted classifier; defaults to NewClassifier.
	NewModel func(config.ModelConfig) model.Classifier
}

// Result collects everything a run produced. ChartErr and RenderErr hold the
// non-fatal failures of the auxiliary image artifacts.
type Result struct {
	Dataset     *data.Dataset
	Train       *data.Dataset
	Test        *data.Dataset
	Model       model.Classifier
	Predictions []int
	Confusion   *model.Confusion
	Accuracy    float64
	Ranked      []report.Importance
	Graph       graph.GraphText
	Artifacts   []string
	ChartErr    error
	RenderErr   error
}

// New wires the default collaborators for cfg: a gonum/plot bar chart and the
// Graphviz command renderer.
func New(cfg config.Config) *Pipeline {
	p := &Pipeline{Config: cfg, Out: os.Stdout, NewModel: NewClassifier}
	if cfg.Chart.Enabled {
		chart := report.NewBarChart()
		chart.Width = vg.Length(cfg.Chart.WidthInches) * vg.Inch
		chart.Height = vg.Length(cfg.Chart.HeightInches) * vg.Inch
		p.Chart = chart
	}
	if cfg.Render.Enabled {
		p.Graph = graph.CommandRenderer{
			Binary:  cfg.Render.DotBinary,
			Format:  cfg.Render.Format,
			Timeout: cfg.Render.Timeout,
		}
	}
	return p
}

// NewClassifier returns the estimator selected by mc.
func NewClassifier(mc config.ModelConfig) model.Classifier {
	if mc.Estimator == "forest" {
		return model.NewRandomForest(
			model.WithNEstimators(mc.NEstimators),
			model.WithForestMaxDepth(mc.MaxDepth),
			model.WithForestMinSamplesSplit(mc.MinSamplesSplit),
			model.WithForestMinSamplesLeaf(mc.MinSamplesLeaf),
			model.WithForestCriterion(mc.Criterion),
			model.WithForestMaxFeatures(mc.MaxFeatures),
			model.WithForestRandomState(mc.Seed),
		)
	}
	return model.NewDecisionTreeClassifier(
		model.WithMaxDepth(mc.MaxDepth),
		model.WithMinSamplesSplit(mc.MinSamplesSplit),
		model.WithMinSamplesLeaf(mc.MinSamplesLeaf),
		model.WithCriterion(mc.Criterion),
		model.WithMaxFeatures(mc.MaxFeatures),
		model.WithMinImpurityDecrease(mc.MinImpurityGain),
		model.WithRandomState(mc.Seed),
	)
}

func (p *Pipeline) out() io.Writer {
	if p.Out == nil {
		return io.Discard
	}
	return p.Out
}

func (p *Pipeline) printf(format string, args ...any) {
	fmt.Fprintf(p.out(), format, args...)
}

func (p *Pipeline) newModel() model.Classifier {
	if p.NewModel == nil {
		return NewClassifier(p.Config.Model)
	}
	return p.NewModel(p.Config.Model)
}

// LoadDataset reads and builds the configured input file.
func (p *Pipeline) LoadDataset() (*data.Dataset, error) {
	logger.Info("loading %s", p.Config.Input)
	tbl, err := data.LoadTable(p.Config.Input)
	if err != nil {
		return nil, err
	}
	ds, err := data.Build(tbl, p.Config.DropLeading, true)
	if err != nil {
		return nil, err
	}
	logger.Debug("built %dx%d feature matrix from %s", ds.Rows(), ds.Cols(), tbl.Source)
	return ds, nil
}

// Run executes the whole job. A returned error means a fatal stage failed;
// image rendering failures are reported on the Result instead.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	cfg := p.Config
	res := &Result{}

	ds, err := p.LoadDataset()
	if err != nil {
		return nil, err
	}
	res.Dataset = ds
	p.printf("%s\n\n%s\n", ds, stats.Summarize(ds))

	res.Train, res.Test, err = loader.Split(ds, cfg.Split.Ratio, cfg.Split.Seed)
	if err != nil {
		return nil, err
	}
	p.printf("Train size: %d, Test size: %d (ratio %.2f, seed %d)\n",
		res.Train.Rows(), res.Test.Rows(), cfg.Split.Ratio, cfg.Split.Seed)

	res.Model = p.newModel()
	logger.Info("training %s on %d rows", cfg.Model.Estimator, res.Train.Rows())
	if err := res.Model.Fit(res.Train.Features, res.Train.Labels); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	if t := res.Model.Tree(); t != nil {
		logger.Info("tree has %d nodes, %d leaves, depth %d", t.Len(), t.Leaves(), t.Depth())
	}

	res.Predictions, err = res.Model.Predict(res.Test.Features)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	res.Confusion, err = model.ConfusionMatrix(res.Test.Labels, res.Predictions)
	if err != nil {
		return nil, err
	}
	res.Accuracy = res.Confusion.Accuracy()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", data.ErrIO, cfg.OutputDir, err)
	}
	if err := p.writeLabels(res, cfg.OutputPath(PredictionsFile), res.Predictions); err != nil {
		return nil, err
	}
	if err := p.writeLabels(res, cfg.OutputPath(TargetsFile), res.Test.Labels); err != nil {
		return nil, err
	}
	modelPath := cfg.OutputPath(ModelFile)
	if err := model.SaveFile(modelPath, res.Model, ds.FeatureNames); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", data.ErrIO, modelPath, err)
	}
	p.created(res, modelPath)

	prec, rec, f1 := res.Confusion.PrecisionRecallF1()
	p.printf("\nConfusion matrix (rows = actual, cols = predicted):\n%s\n", res.Confusion)
	p.printf("Accuracy is: %.2f%%\n", res.Accuracy*100)
	p.printf("Macro precision %.2f%%, recall %.2f%%, F1 %.2f%%\n", prec*100, rec*100, f1*100)

	res.Ranked, err = report.Rank(ds.FeatureNames, res.Model.FeatureImportance())
	if err != nil {
		return nil, err
	}
	p.printf("\nFeature importance:\n")
	if err := report.FormatImportances(p.out(), res.Ranked); err != nil {
		return nil, err
	}
	p.renderChart(res)

	if err := p.exportTree(ctx, res, ds.FeatureNames); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) writeLabels(res *Result, path string, labels []int) error {
	if err := data.WriteLabels(path, labels); err != nil {
		return err
	}
	p.created(res, path)
	return nil
}

func (p *Pipeline) created(res *Result, path string) {
	res.Artifacts = append(res.Artifacts, path)
	p.printf("%s created successfully.\n", path)
}

func (p *Pipeline) renderChart(res *Result) {
	if p.Chart == nil {
		return
	}
	path := p.Config.OutputPath(ChartFile)
	err := p.Chart.Render(report.TruncateAtFirstZero(res.Ranked), path)
	if err != nil {
		res.ChartErr = err
		logger.Warn("feature importance chart: %v", err)
		p.printf("Unable to create %s: %v\n", path, err)
		return
	}
	p.created(res, path)
}

// exportTree writes tree.dot and renders it. An exporter error means the
// model and the feature names disagree and is fatal; a renderer error is not.
func (p *Pipeline) exportTree(ctx context.Context, res *Result, names []string) error {
	g, err := graph.Export(res.Model.Tree(), names)
	if err != nil {
		return err
	}
	res.Graph = g

	dotPath := p.Config.OutputPath(TreeDotFile)
	if err := graph.WriteFile(dotPath, g); err != nil {
		return fmt.Errorf("%w: %s: %v", data.ErrIO, dotPath, err)
	}
	p.created(res, dotPath)

	if p.Graph == nil {
		return nil
	}
	imgPath := p.Config.OutputPath(TreeImageBase + "." + p.Config.Render.Format)
	if err := p.Graph.Render(ctx, g, imgPath); err != nil {
		res.RenderErr = err
		logger.Error("tree image: %v", err)
		p.printf("Unable to create %s: %v\n", imgPath, err)
		return nil
	}
	p.created(res, imgPath)
	return nil
}
