package model

import (
	"encoding"
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

const (
	kindTree   = "decision-tree"
	kindForest = "random-forest"
)

// envelope tags the encoded classifier with its concrete kind and carries the
// names of the columns it was trained on.
type envelope struct {
	Kind         string
	Blob         []byte
	FeatureNames []string
}

// Save writes a fitted classifier and its feature names to w. There must be
// exactly one name per training feature.
func Save(w io.Writer, c Classifier, featureNames []string) error {
	if len(featureNames) != c.NumFeatures() {
		return fmt.Errorf("%w: %d feature names for a %d-feature model",
			ErrMismatch, len(featureNames), c.NumFeatures())
	}
	var kind string
	switch c.(type) {
	case *DecisionTreeClassifier:
		kind = kindTree
	case *RandomForest:
		kind = kindForest
	default:
		return fmt.Errorf("model: cannot save %T", c)
	}
	blob, err := c.(encoding.BinaryMarshaler).MarshalBinary()
	if err != nil {
		return err
	}
	return gob.NewEncoder(w).Encode(envelope{Kind: kind, Blob: blob, FeatureNames: featureNames})
}

// Load reads a classifier and its feature names written by Save.
func Load(r io.Reader) (Classifier, []string, error) {
	var env envelope
	if err := gob.NewDecoder(r).Decode(&env); err != nil {
		return nil, nil, fmt.Errorf("model: decode: %w", err)
	}
	var c interface {
		Classifier
		encoding.BinaryUnmarshaler
	}
	switch env.Kind {
	case kindTree:
		c = &DecisionTreeClassifier{}
	case kindForest:
		c = &RandomForest{}
	default:
		return nil, nil, fmt.Errorf("model: unknown kind %q", env.Kind)
	}
	if err := c.UnmarshalBinary(env.Blob); err != nil {
		return nil, nil, fmt.Errorf("model: decode %s: %w", env.Kind, err)
	}
	if len(env.FeatureNames) != c.NumFeatures() {
		return nil, nil, fmt.Errorf("%w: %s stores %d feature names for a %d-feature model",
			ErrMismatch, env.Kind, len(env.FeatureNames), c.NumFeatures())
	}
	return c, env.FeatureNames, nil
}

// SaveFile writes c and its feature names to path, truncating any existing
// file.
func SaveFile(path string, c Classifier, featureNames []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Save(f, c, featureNames); err != nil {
		f.Close()
		return fmt.Errorf("model: save %s: %w", path, err)
	}
	return f.Close()
}

// LoadFile reads a classifier and its feature names from path.
func LoadFile(path string) (Classifier, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return Load(f)
}
