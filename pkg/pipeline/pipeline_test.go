package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"housetree/pkg/config"
	"housetree/pkg/data"
	"housetree/pkg/graph"
	"housetree/pkg/model"
	"housetree/pkg/pipeline"
	"housetree/pkg/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// housesCSV has 20 rows where area (feature 1) alone separates the two
// price buckets.
func housesCSV(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("rooms,area,age,price_bucket\n")
	for i := range 20 {
		area, bucket := 100+10*(i%10), 0
		if i >= 10 {
			area, bucket = 300+10*(i%10), 1
		}
		fmt.Fprintf(&b, "%d,%d,%d,%d\n", i%3+1, area, i%5, bucket)
	}
	path := filepath.Join(t.TempDir(), "houses.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

type chartFunc func([]report.Importance, string) error

func (f chartFunc) Render(r []report.Importance, path string) error { return f(r, path) }

func writeChart(_ []report.Importance, path string) error {
	return os.WriteFile(path, []byte("png"), 0o644)
}

func writeGraph(_ context.Context, g graph.GraphText, path string) error {
	return os.WriteFile(path, []byte(g.String()), 0o644)
}

func newPipeline(t *testing.T) (*pipeline.Pipeline, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Input = housesCSV(t)
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	out := &bytes.Buffer{}
	return &pipeline.Pipeline{
		Config: cfg,
		Out:    out,
		Chart:  chartFunc(writeChart),
		Graph:  graph.RendererFunc(writeGraph),
	}, out
}

func TestRun_WritesAllArtifacts(t *testing.T) {
	p, out := newPipeline(t)
	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 18, res.Train.Rows())
	assert.Equal(t, 2, res.Test.Rows())
	assert.Equal(t, 1.0, res.Accuracy)
	require.NoError(t, res.ChartErr)
	require.NoError(t, res.RenderErr)

	for _, name := range []string{
		pipeline.PredictionsFile, pipeline.TargetsFile, pipeline.ModelFile,
		pipeline.ChartFile, pipeline.TreeDotFile, "tree.png",
	} {
		path := p.Config.OutputPath(name)
		assert.FileExists(t, path)
		assert.Contains(t, res.Artifacts, path)
		assert.Contains(t, out.String(), path+" created successfully.")
	}

	preds, err := data.ReadLabels(p.Config.OutputPath(pipeline.PredictionsFile))
	require.NoError(t, err)
	assert.Equal(t, res.Predictions, preds)
	targets, err := data.ReadLabels(p.Config.OutputPath(pipeline.TargetsFile))
	require.NoError(t, err)
	assert.Equal(t, res.Test.Labels, targets)

	assert.Contains(t, out.String(), "Accuracy is: 100.00%")
	assert.Contains(t, out.String(), "area: 100.00%")
	require.Len(t, res.Ranked, 3)
	assert.Equal(t, "area", res.Ranked[0].Name)
	assert.Equal(t, "digraph Tree {", res.Graph[0])
}

func TestRun_ModelFileReloads(t *testing.T) {
	p, _ := newPipeline(t)
	res, err := p.Run(context.Background())
	require.NoError(t, err)

	clf, names, err := model.LoadFile(p.Config.OutputPath(pipeline.ModelFile))
	require.NoError(t, err)
	assert.Equal(t, []string{"rooms", "area", "age"}, names)
	pred, err := clf.Predict(res.Test.Features)
	require.NoError(t, err)
	assert.Equal(t, res.Predictions, pred)
}

func TestRun_RenderFailureIsNotFatal(t *testing.T) {
	p, out := newPipeline(t)
	p.Graph = graph.RendererFunc(func(context.Context, graph.GraphText, string) error {
		return fmt.Errorf("%w: dot exploded", graph.ErrRender)
	})
	p.Chart = chartFunc(func([]report.Importance, string) error {
		return fmt.Errorf("%w: no fonts", report.ErrRender)
	})

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, res.RenderErr, graph.ErrRender)
	assert.ErrorIs(t, res.ChartErr, report.ErrRender)
	assert.FileExists(t, p.Config.OutputPath(pipeline.TreeDotFile))
	assert.NoFileExists(t, p.Config.OutputPath("tree.png"))
	assert.Contains(t, out.String(), "Unable to create")
}

func TestRun_ChartGetsTruncatedRanking(t *testing.T) {
	p, _ := newPipeline(t)
	var got []report.Importance
	p.Chart = chartFunc(func(r []report.Importance, path string) error {
		got = r
		return writeChart(r, path)
	})
	_, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "area", got[0].Name)
}

func TestRun_NilRenderersSkipImages(t *testing.T) {
	p, _ := newPipeline(t)
	p.Chart, p.Graph = nil, nil
	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, p.Config.OutputPath(pipeline.ChartFile))
	assert.FileExists(t, p.Config.OutputPath(pipeline.TreeDotFile))
	assert.Len(t, res.Artifacts, 4)
}

func TestRun_Forest(t *testing.T) {
	p, _ := newPipeline(t)
	p.Config.Model.Estimator = "forest"
	p.Config.Model.NEstimators = 5
	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &model.RandomForest{}, res.Model)
	assert.NotEmpty(t, res.Graph)
}

func TestRun_FatalErrors(t *testing.T) {
	t.Run("missing input", func(t *testing.T) {
		p, _ := newPipeline(t)
		p.Config.Input = filepath.Join(t.TempDir(), "nope.csv")
		_, err := p.Run(context.Background())
		assert.ErrorIs(t, err, data.ErrIO)
	})
	t.Run("malformed input", func(t *testing.T) {
		p, _ := newPipeline(t)
		bad := filepath.Join(t.TempDir(), "bad.csv")
		require.NoError(t, os.WriteFile(bad, []byte("a,b\n1,x\n"), 0o644))
		p.Config.Input = bad
		_, err := p.Run(context.Background())
		assert.ErrorIs(t, err, data.ErrFormat)
	})
	t.Run("output dir is a file", func(t *testing.T) {
		p, _ := newPipeline(t)
		blocker := filepath.Join(t.TempDir(), "blocker")
		require.NoError(t, os.WriteFile(blocker, nil, 0o644))
		p.Config.OutputDir = blocker
		_, err := p.Run(context.Background())
		assert.ErrorIs(t, err, data.ErrIO)
	})
}

func TestCrossValidate(t *testing.T) {
	p, out := newPipeline(t)
	res, err := p.CrossValidate(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, res.Folds, 4)
	for _, acc := range res.Folds {
		assert.InDelta(t, 0.5, acc, 0.5)
	}
	assert.Contains(t, out.String(), "Mean accuracy over 4 folds")

	_, err = p.CrossValidate(context.Background(), 1)
	assert.Error(t, err)
}

func TestCrossValidate_Cancelled(t *testing.T) {
	p, _ := newPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.CrossValidate(ctx, 4)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExportModel(t *testing.T) {
	p, _ := newPipeline(t)
	res, err := p.Run(context.Background())
	require.NoError(t, err)

	g, err := p.ExportModel(context.Background(), p.Config.OutputPath(pipeline.ModelFile))
	require.NoError(t, err)
	assert.Equal(t, res.Graph, g)
}

func TestExportModel_UsesSavedFeatureNames(t *testing.T) {
	p, _ := newPipeline(t)
	res, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Model.Tree().Root().Feature)

	wider := filepath.Join(t.TempDir(), "wider.csv")
	require.NoError(t, os.WriteFile(wider,
		[]byte("id,rooms,area,age,price_bucket\n1,1,100,0,0\n2,2,300,1,1\n"), 0o644))
	p.Config.Input = wider

	g, err := p.ExportModel(context.Background(), p.Config.OutputPath(pipeline.ModelFile))
	require.NoError(t, err)
	assert.Equal(t, res.Graph, g)
	assert.Contains(t, g.String(), `n0 [label="Feature area <= `)
	assert.NotContains(t, g.String(), "Feature rooms")
}

func TestExportModel_MissingModel(t *testing.T) {
	p, _ := newPipeline(t)
	_, err := p.ExportModel(context.Background(), filepath.Join(t.TempDir(), "none.gob"))
	assert.Error(t, err)
}

func TestNew_WiresDefaults(t *testing.T) {
	cfg := config.Default()
	p := pipeline.New(cfg)
	assert.IsType(t, &report.BarChart{}, p.Chart)
	assert.IsType(t, graph.CommandRenderer{}, p.Graph)

	cfg.Render.Enabled, cfg.Chart.Enabled = false, false
	p = pipeline.New(cfg)
	assert.Nil(t, p.Chart)
	assert.Nil(t, p.Graph)
}
