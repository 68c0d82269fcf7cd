// Package graph serialises a fitted decision tree as a Graphviz DOT digraph
// and renders it with an external layout program.
package graph

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"housetree/pkg/model"
)

var (
	// ErrInvariant is returned when the tree references a feature or child
	// that does not exist; the model and the feature names are out of sync.
	ErrInvariant = errors.New("graph: tree invariant violated")

	// ErrRender is returned when the external renderer fails or times out.
	ErrRender = errors.New("graph: render failed")
)

// GraphText is a DOT document, one statement per line.
type GraphText []string

func (g GraphText) String() string {
	return strings.Join(g, "\n") + "\n"
}

// WriteTo writes the document to w.
func (g GraphText) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, g.String())
	return int64(n), err
}

// NodeID returns the DOT identifier for the node with pre-order index id.
func NodeID(id int) string { return "n" + strconv.Itoa(id) }

// Export walks t in pre-order (node, true branch, false branch) and returns
// its DOT description. Graph node ids are assigned by the walk itself, so the
// same tree always produces the same text.
func Export(t *model.Tree, featureNames []string) (GraphText, error) {
	if t.Len() == 0 {
		return nil, fmt.Errorf("%w: empty tree", ErrInvariant)
	}
	e := &exporter{tree: t, names: featureNames, visited: make([]bool, t.Len())}
	e.lines = append(e.lines,
		"digraph Tree {",
		`  node [shape=box, style="rounded,filled", fillcolor="#f3f6fb", fontname="helvetica"];`,
		`  edge [fontname="helvetica"];`,
	)
	if err := e.visit(0); err != nil {
		return nil, err
	}
	e.lines = append(e.lines, "}")
	return e.lines, nil
}

type exporter struct {
	tree    *model.Tree
	names   []string
	visited []bool
	next    int
	lines   GraphText
}

// visit emits the arena node at index and then its subtree.
func (e *exporter) visit(index int) error {
	if index < 0 || index >= len(e.tree.Nodes) {
		return fmt.Errorf("%w: child index %d outside arena of %d nodes", ErrInvariant, index, len(e.tree.Nodes))
	}
	if e.visited[index] {
		return fmt.Errorf("%w: node %d reached twice", ErrInvariant, index)
	}
	e.visited[index] = true

	id := e.next
	e.next++
	n := &e.tree.Nodes[index]
	if n.Leaf {
		e.lines = append(e.lines, fmt.Sprintf(`  %s [label="Class %d"];`, NodeID(id), n.Class))
		return nil
	}

	if n.Feature < 0 || n.Feature >= len(e.names) {
		return fmt.Errorf("%w: node %d splits on feature %d, only %d names", ErrInvariant, id, n.Feature, len(e.names))
	}
	label := fmt.Sprintf("Feature %s <= %s", e.names[n.Feature], strconv.FormatFloat(n.Threshold, 'g', -1, 64))
	e.lines = append(e.lines, fmt.Sprintf(`  %s [label="%s"];`, NodeID(id), escape(label)))

	// The true subtree starts right after this node; the false subtree starts
	// after the whole true subtree, so its id is only known once that is done.
	trueID := e.next
	edgeAt := len(e.lines)
	e.lines = append(e.lines, "", "")
	if err := e.visit(n.True); err != nil {
		return err
	}
	falseID := e.next
	e.lines[edgeAt] = fmt.Sprintf(`  %s -> %s [label="true"];`, NodeID(id), NodeID(trueID))
	e.lines[edgeAt+1] = fmt.Sprintf(`  %s -> %s [label="false"];`, NodeID(id), NodeID(falseID))
	return e.visit(n.False)
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// WriteFile writes g to path, truncating any existing file.
func WriteFile(path string, g GraphText) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := g.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
