package ols

import (
	"context"
	"encoding/json"
)

// Graph is the neighbourhood of a term: the term, its parents and its
// children, with labelled edges.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphNode is one term of a [Graph].
type GraphNode struct {
	IRI   string `json:"iri"`
	Label string `json:"label"`
}

// GraphEdge links two terms by IRI.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
	URI    string `json:"uri,omitempty"`
}

// Graph fetches the neighbourhood graph of t.
func (t *Term) Graph(ctx context.Context) (*Graph, error) {
	u, err := t.subresource("graph")
	if err != nil {
		return nil, err
	}
	var g Graph
	if err := t.client.getJSON(ctx, "graph", u, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// JSTreeNode is one node of the tree view served for a term.
type JSTreeNode struct {
	ID       string `json:"id"`
	Parent   string `json:"parent"`
	IRI      string `json:"iri"`
	Text     string `json:"text"`
	Children bool   `json:"children"`
	State    struct {
		Opened   bool `json:"opened"`
		Selected bool `json:"selected,omitempty"`
	} `json:"state"`
	OntologyName string `json:"ontology_name,omitempty"`
}

// JSTree fetches the tree view of t: every path from a root down to t,
// flattened to nodes that name their parent.
func (t *Term) JSTree(ctx context.Context) ([]JSTreeNode, error) {
	u, err := t.subresource("jstree")
	if err != nil {
		return nil, err
	}
	var nodes []JSTreeNode
	if err := t.client.getJSON(ctx, "jstree", u, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// MarshalIndent renders the graph as indented JSON.
func (g *Graph) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}
