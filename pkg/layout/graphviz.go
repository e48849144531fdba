package layout

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/model"
	"github.com/matzehuels/linkgraph/pkg/shape"
)

// pointsPerInch converts Graphviz inches to diagram units.
const pointsPerInch = 72

// formatPlain is Graphviz's line-oriented "plain" output.
const formatPlain graphviz.Format = "plain"

// Graphviz lays nodes out with the dot engine. Node sizes are passed as fixed
// sizes so ranks leave room for large shapes.
type Graphviz struct {
	// RankDir is "TB" (default), "LR", "BT" or "RL".
	RankDir string
	// NodeSep and RankSep are in inches (defaults 0.5 and 0.75).
	NodeSep float64
	RankSep float64
}

// AssignPositions implements Layout.
func (l Graphviz) AssignPositions(ctx context.Context, nodes []*model.Node, edges []*model.Edge) (map[string]shape.Point, error) {
	if len(nodes) == 0 {
		return map[string]shape.Point{}, nil
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(l.ToDOT(nodes, edges)))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, formatPlain, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "graphviz layout")
	}

	pos, err := ParsePlain(buf.Bytes())
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if _, ok := pos[n.ID()]; !ok {
			return nil, errors.New(errors.ErrCodeInternal, "graphviz returned no position for %q", n.ID())
		}
	}
	return pos, nil
}

// ToDOT converts nodes and resolved edges to DOT source.
func (l Graphviz) ToDOT(nodes []*model.Node, edges []*model.Edge) string {
	rankdir := l.RankDir
	if rankdir == "" {
		rankdir = "TB"
	}
	nodesep, ranksep := l.NodeSep, l.RankSep
	if nodesep <= 0 {
		nodesep = 0.5
	}
	if ranksep <= 0 {
		ranksep = 0.75
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	fmt.Fprintf(&buf, "  nodesep=%s;\n", inches(nodesep))
	fmt.Fprintf(&buf, "  ranksep=%s;\n", inches(ranksep))
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n\n")

	live := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		live[n.ID()] = true
		w, h := n.Dims()
		fmt.Fprintf(&buf, "  %q [width=%s, height=%s];\n", n.ID(), inches(w/pointsPerInch), inches(h/pointsPerInch))
	}

	buf.WriteString("\n")
	for _, e := range edges {
		if !e.Resolved() || !live[e.Source()] || !live[e.Target()] {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source(), e.Target())
	}
	buf.WriteString("}\n")
	return buf.String()
}

func inches(v float64) string {
	if v <= 0 {
		v = 0.01
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParsePlain reads node centres from Graphviz "plain" output and converts
// them to diagram units with y growing downward.
//
//	graph scale width height
//	node name x y width height label style shape color fillcolor
//	edge tail head n x1 y1 ... style color
//	stop
func ParsePlain(data []byte) (map[string]shape.Point, error) {
	var height float64
	out := make(map[string]shape.Point)

	sc := bufio.NewScanner(bytes.NewReader(data))
	for line := 1; sc.Scan(); line++ {
		fields, err := splitPlain(sc.Text())
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "plain output line %d", line)
		}
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "graph":
			if len(fields) < 4 {
				return nil, errors.New(errors.ErrCodeInvalidFormat, "plain output line %d: short graph record", line)
			}
			if height, err = strconv.ParseFloat(fields[3], 64); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "plain output line %d", line)
			}
		case "node":
			if len(fields) < 4 {
				return nil, errors.New(errors.ErrCodeInvalidFormat, "plain output line %d: short node record", line)
			}
			x, errX := strconv.ParseFloat(fields[2], 64)
			y, errY := strconv.ParseFloat(fields[3], 64)
			if errX != nil || errY != nil {
				return nil, errors.New(errors.ErrCodeInvalidFormat, "plain output line %d: bad coordinates", line)
			}
			out[fields[1]] = shape.Point{X: x * pointsPerInch, Y: (height - y) * pointsPerInch}
		case "stop":
			return out, nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read plain output")
	}
	return out, nil
}

// splitPlain splits a plain-format record on spaces, honouring double-quoted
// fields with backslash escapes.
func splitPlain(s string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inQuote, escaped, quoted := false, false, false

	flush := func() {
		if cur.Len() > 0 || quoted {
			fields = append(fields, cur.String())
		}
		cur.Reset()
		quoted = false
	}

	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
			quoted = true
		case r == ' ' && !inQuote:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in %q", s)
	}
	flush()
	return fields, nil
}
