package topology

import (
	"fmt"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"
)

// ParseDOT reads a topology from an undirected DOT graph. Nodes are devices and
// carry the kind, mac and, optionally, interfaces attributes. Every edge is a
// link and names the ports on both ends, e.g. "h0":eth0 -- "sw":eth1.
func ParseDOT(dotBytes []byte) (*T, error) {
	g := newDotGraph()
	if err := dot.UnmarshalMulti(dotBytes, g); err != nil {
		return nil, fmt.Errorf("ParseDOT: %w", err)
	}

	t := &T{}

	nodes := graph.NodesOf(g.Nodes())
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID() < nodes[j].ID()
	})

	for _, n := range nodes {
		n := n.(*dotNode)
		d := Device{
			Name: n.dotID,
			Kind: Kind(n.attrs["kind"]),
			MAC:  n.attrs["mac"],
		}

		if s, ok := n.attrs["interfaces"]; ok {
			num, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("ParseDOT: device %s: interfaces %q",
					d.Name, s)
			}

			d.Interfaces = num
		}

		t.Devices = append(t.Devices, d)
	}

	for _, l := range g.lines {
		fromPort, _ := l.FromPort()
		toPort, _ := l.ToPort()
		t.Links = append(t.Links, Link{
			From:     l.From().(*dotNode).dotID,
			FromPort: fromPort,
			To:       l.To().(*dotNode).dotID,
			ToPort:   toPort,
		})
	}

	return t, nil
}

// dotGraph wraps a multi.UndirectedGraph for DOT unmarshaling. Lines are kept
// in definition order with the orientation they were written in.
type dotGraph struct {
	*multi.UndirectedGraph

	lines []*dotLine
}

func newDotGraph() *dotGraph {
	return &dotGraph{UndirectedGraph: multi.NewUndirectedGraph()}
}

// NewLine returns a DOT-aware line.
func (g *dotGraph) NewLine(from, to graph.Node) graph.Line {
	l := g.UndirectedGraph.NewLine(from, to).(multi.Line)
	return &dotLine{Line: l}
}

// NewNode returns a DOT-aware node.
func (g *dotGraph) NewNode() graph.Node {
	return &dotNode{Node: g.UndirectedGraph.NewNode()}
}

// SetLine allows the DOT unmarshaler to add lines to the graph.
func (g *dotGraph) SetLine(l graph.Line) {
	dl := l.(*dotLine)
	g.UndirectedGraph.SetLine(dl)
	g.lines = append(g.lines, dl)
}

type dotPortLabels struct {
	Port, Compass string
}

// dotLine is a DOT-aware unweighted line.
type dotLine struct {
	multi.Line

	FromPortLabels dotPortLabels
	ToPortLabels   dotPortLabels
	attrs          map[string]string
}

// SetAttribute sets an attribute of the receiver.
func (l *dotLine) SetAttribute(attr encoding.Attribute) error {
	if l.attrs == nil {
		l.attrs = make(map[string]string)
	}
	l.attrs[attr.Key] = attr.Value

	return nil
}

// ReversedLine returns the line seen from its other end, ports swapped.
func (l *dotLine) ReversedLine() graph.Line {
	return &dotLine{
		Line:           l.Line.ReversedLine().(multi.Line),
		FromPortLabels: l.ToPortLabels,
		ToPortLabels:   l.FromPortLabels,
		attrs:          l.attrs,
	}
}

func (l *dotLine) SetFromPort(port, compass string) error {
	l.FromPortLabels = dotPortLabels{Port: port, Compass: compass}
	return nil
}

func (l *dotLine) SetToPort(port, compass string) error {
	l.ToPortLabels = dotPortLabels{Port: port, Compass: compass}
	return nil
}

func (l *dotLine) FromPort() (port, compass string) {
	return l.FromPortLabels.Port, l.FromPortLabels.Compass
}

func (l *dotLine) ToPort() (port, compass string) {
	return l.ToPortLabels.Port, l.ToPortLabels.Compass
}

// dotNode is a DOT-aware node.
type dotNode struct {
	graph.Node
	dotID string
	attrs map[string]string
}

// SetDOTID sets the DOT ID of the dotNode.
func (n *dotNode) SetDOTID(id string) { n.dotID = id }

func (n *dotNode) String() string { return n.dotID }

// SetAttribute sets a DOT attribute.
func (n *dotNode) SetAttribute(attr encoding.Attribute) error {
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[attr.Key] = attr.Value

	return nil
}
