package pipeline

import (
	"context"
	"fmt"
	"os"

	"housetree/pkg/data"
	"housetree/pkg/graph"
	"housetree/pkg/loader"
	"housetree/pkg/logger"
	"housetree/pkg/model"
	"housetree/pkg/stats"
)

// CVResult holds per-fold test accuracies of a k-fold run.
type CVResult struct {
	Folds []float64
	Mean  float64
	Std   float64
}

// CrossValidate fits a fresh classifier on each of k seeded folds of the
// configured input and reports the held-out accuracy of every fold.
func (p *Pipeline) CrossValidate(ctx context.Context, k int) (*CVResult, error) {
	ds, err := p.LoadDataset()
	if err != nil {
		return nil, err
	}
	folds, err := loader.KFold(ds.Rows(), k, p.Config.Split.Seed)
	if err != nil {
		return nil, err
	}

	res := &CVResult{Folds: make([]float64, 0, k)}
	for f := range folds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		train, test, err := loader.FoldSplit(ds, folds, f)
		if err != nil {
			return nil, err
		}
		clf := p.newModel()
		if err := clf.Fit(train.Features, train.Labels); err != nil {
			return nil, fmt.Errorf("fold %d: fit: %w", f, err)
		}
		pred, err := clf.Predict(test.Features)
		if err != nil {
			return nil, fmt.Errorf("fold %d: predict: %w", f, err)
		}
		acc, err := model.Accuracy(test.Labels, pred)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", f, err)
		}
		logger.Debug("fold %d: train %d, test %d, accuracy %.4f", f, train.Rows(), test.Rows(), acc)
		p.printf("Fold %d: accuracy %.2f%%\n", f+1, acc*100)
		res.Folds = append(res.Folds, acc)
	}
	res.Mean = stats.Mean(res.Folds)
	res.Std = stats.Std(res.Folds)
	p.printf("Mean accuracy over %d folds: %.2f%% (std %.2f%%)\n", k, res.Mean*100, res.Std*100)
	return res, nil
}

// ExportModel loads a persisted classifier and re-exports its tree labelled
// with the feature names stored alongside it. The tree is rendered when a
// graph renderer is set; a render failure is returned alongside the graph.
func (p *Pipeline) ExportModel(ctx context.Context, modelPath string) (graph.GraphText, error) {
	clf, names, err := model.LoadFile(modelPath)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded %d-feature model from %s", clf.NumFeatures(), modelPath)
	if err := os.MkdirAll(p.Config.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", data.ErrIO, p.Config.OutputDir, err)
	}
	res := &Result{Model: clf}
	if err := p.exportTree(ctx, res, names); err != nil {
		return nil, err
	}
	return res.Graph, res.RenderErr
}
