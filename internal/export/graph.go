// Package export renders a compiled workflow graph as JSON, YAML or a
// property list for inspection and tooling.
package export

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-oozie-composer/internal/common/errors"
	"github.com/deploymenttheory/go-oozie-composer/internal/common/plistutil"
	"github.com/deploymenttheory/go-oozie-composer/internal/workflow"
)

// Format selects the serialization of an exported graph
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatPlist Format = "plist"
)

// ParseFormat resolves a user-supplied format name
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "plist":
		return FormatPlist, nil
	default:
		return "", fmt.Errorf("%w: %s", errors.ErrUnsupportedFormat, s)
	}
}

// Graph is the serializable form of a compiled workflow
type Graph struct {
	Name  string   `json:"name" yaml:"name" plist:"name"`
	Start string   `json:"start" yaml:"start" plist:"start"`
	Nodes []Record `json:"nodes" yaml:"nodes" plist:"nodes"`
}

// Record is one flat graph node. Fields that do not apply to the node's
// kind are omitted.
type Record struct {
	Kind          string       `json:"kind" yaml:"kind" plist:"kind"`
	ID            string       `json:"id" yaml:"id" plist:"id"`
	ActionType    string       `json:"action_type,omitempty" yaml:"action_type,omitempty" plist:"action_type,omitempty"`
	Payload       string       `json:"payload,omitempty" yaml:"payload,omitempty" plist:"payload,omitempty"`
	Credential    string       `json:"credential,omitempty" yaml:"credential,omitempty" plist:"credential,omitempty"`
	RetryMax      *uint        `json:"retry_max,omitempty" yaml:"retry_max,omitempty" plist:"retry_max,omitempty"`
	RetryInterval *uint        `json:"retry_interval,omitempty" yaml:"retry_interval,omitempty" plist:"retry_interval,omitempty"`
	OK            string       `json:"ok,omitempty" yaml:"ok,omitempty" plist:"ok,omitempty"`
	Error         string       `json:"error,omitempty" yaml:"error,omitempty" plist:"error,omitempty"`
	Message       string       `json:"message,omitempty" yaml:"message,omitempty" plist:"message,omitempty"`
	Paths         []string     `json:"paths,omitempty" yaml:"paths,omitempty" plist:"paths,omitempty"`
	Cases         []CaseRecord `json:"cases,omitempty" yaml:"cases,omitempty" plist:"cases,omitempty"`
	Default       string       `json:"default,omitempty" yaml:"default,omitempty" plist:"default,omitempty"`
}

// CaseRecord is one predicate edge of a decision
type CaseRecord struct {
	When string `json:"when" yaml:"when" plist:"when"`
	To   string `json:"to" yaml:"to" plist:"to"`
}

// NewGraph converts compiled nodes into their serializable form. Action
// payloads are rendered as their XML element.
func NewGraph(name, start string, nodes []workflow.Node) (Graph, error) {
	g := Graph{Name: name, Start: start, Nodes: make([]Record, 0, len(nodes))}
	for _, n := range nodes {
		r := Record{
			Kind:    n.Kind.String(),
			ID:      n.ID,
			OK:      n.OK,
			Error:   n.Error,
			Message: n.Message,
			Paths:   n.Paths,
			Default: n.Default,
		}
		if n.Kind == workflow.NodeAction {
			r.ActionType = n.Payload.ActionType()
			payload, err := xml.Marshal(n.Payload)
			if err != nil {
				return Graph{}, fmt.Errorf("node %s: %w", n.ID, err)
			}
			r.Payload = string(payload)
			r.Credential = n.Credential
			if n.Retry.HasMax {
				retryMax := n.Retry.Max
				r.RetryMax = &retryMax
			}
			if n.Retry.HasInterval {
				interval := n.Retry.Interval
				r.RetryInterval = &interval
			}
		}
		for _, c := range n.Cases {
			r.Cases = append(r.Cases, CaseRecord{When: c.Predicate, To: c.To})
		}
		g.Nodes = append(g.Nodes, r)
	}
	return g, nil
}

// Option adjusts how a graph is serialized
type Option func(*options)

type options struct {
	plistFormat plistutil.Format
}

// WithPlistFormat selects the property list flavour. XML is the default.
func WithPlistFormat(f plistutil.Format) Option {
	return func(o *options) { o.plistFormat = f }
}

// Marshal serializes the graph in the requested format
func Marshal(g Graph, format Format, opts ...Option) ([]byte, error) {
	o := options{plistFormat: plistutil.FormatXML}
	for _, opt := range opts {
		opt(&o)
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML:
		return yaml.Marshal(g)
	case FormatPlist:
		return plistutil.Encode(g, o.plistFormat)
	default:
		return nil, fmt.Errorf("%w: %s", errors.ErrUnsupportedFormat, format)
	}
}

// Unmarshal decodes a graph previously produced by Marshal. Property lists
// are read in any flavour.
func Unmarshal(data []byte, format Format) (Graph, error) {
	var g Graph
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &g)
	case FormatYAML:
		err = yaml.Unmarshal(data, &g)
	case FormatPlist:
		_, err = plistutil.Decode(data, &g)
	default:
		err = fmt.Errorf("%w: %s", errors.ErrUnsupportedFormat, format)
	}
	return g, err
}
