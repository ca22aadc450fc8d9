package oozie

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/deploymenttheory/go-oozie-composer/internal/common/errors"
	"github.com/deploymenttheory/go-oozie-composer/internal/common/xmlutil"
	"github.com/deploymenttheory/go-oozie-composer/internal/logger"
	"github.com/deploymenttheory/go-oozie-composer/internal/workflow"
)

// WorkflowNamespace is the schema version of generated documents.
const WorkflowNamespace = "uri:oozie:workflow:0.5"

// WorkflowApp is a complete, validated workflow-app document.
type WorkflowApp struct {
	name        string
	root        workflow.Entity
	parameters  Properties
	global      GlobalConfiguration
	credentials []Credential
}

// Option configures a WorkflowApp.
type Option func(*WorkflowApp)

// WithParameters declares workflow parameters.
func WithParameters(p Properties) Option {
	return func(w *WorkflowApp) { w.parameters = p }
}

// WithConfiguration sets the global configuration properties.
func WithConfiguration(p Properties) Option {
	return func(w *WorkflowApp) { w.global.Configuration = p }
}

// WithCredentials declares the credentials actions may reference.
func WithCredentials(creds ...Credential) Option {
	return func(w *WorkflowApp) { w.credentials = append(w.credentials, creds...) }
}

// WithJobTracker sets the global job tracker.
func WithJobTracker(jobTracker string) Option {
	return func(w *WorkflowApp) { w.global.JobTracker = jobTracker }
}

// WithNameNode sets the global name node.
func WithNameNode(nameNode string) Option {
	return func(w *WorkflowApp) { w.global.NameNode = nameNode }
}

// WithJobXMLFiles appends global job-xml files.
func WithJobXMLFiles(files ...string) Option {
	return func(w *WorkflowApp) { w.global.JobXMLFiles = append(w.global.JobXMLFiles, files...) }
}

// NewWorkflowApp validates name and the tree under root. A nil root yields a
// document that goes straight from start to end.
func NewWorkflowApp(name string, root workflow.Entity, opts ...Option) (*WorkflowApp, error) {
	if _, err := workflow.ValidateName(name); err != nil {
		return nil, err
	}

	w := &WorkflowApp{name: name, root: root}
	for _, opt := range opts {
		opt(w)
	}

	declared := workflow.NewCredentialSet()
	for _, c := range w.credentials {
		if _, err := workflow.ValidateIdentifier(c.Name); err != nil {
			return nil, err
		}
		declared[c.Name] = struct{}{}
	}
	if err := workflow.Validate(root, declared); err != nil {
		logger.LogDebug("Workflow validation failed", map[string]interface{}{
			"workflow": name,
			"error":    err.Error(),
		})
		return nil, err
	}
	for _, n := range w.Nodes() {
		if p, ok := n.Payload.(payloadValidator); ok {
			if err := p.Validate(); err != nil {
				return nil, fmt.Errorf("action %s: %w", n.ID, err)
			}
		}
	}
	return w, nil
}

type payloadValidator interface {
	Validate() error
}

// Name returns the workflow name.
func (w *WorkflowApp) Name() string { return w.name }

// Start returns the identifier the start node transitions to.
func (w *WorkflowApp) Start() string {
	return workflow.Entry(w.root, workflow.EndNode)
}

// Nodes returns the compiled node list. Unhandled failures fall through to
// the end node.
func (w *WorkflowApp) Nodes() []workflow.Node {
	return workflow.Compile(w.root, workflow.EndNode, "")
}

// XML renders the document. An empty indent produces compact output.
func (w *WorkflowApp) XML(indent string) ([]byte, error) {
	data, err := xmlutil.MarshalXML(w, indent)
	if err != nil {
		return nil, err
	}
	logger.LogDebug("Rendered workflow document", map[string]interface{}{
		"workflow": w.name,
		"bytes":    len(data),
	})
	return data, nil
}

// WriteFile renders the document to path.
func (w *WorkflowApp) WriteFile(path, indent string) error {
	return xmlutil.WriteXMLFile(path, w, indent)
}

func startElement(local string, attrs ...xml.Attr) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: local}, Attr: attrs}
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

type transitionXML struct {
	To string `xml:"to,attr"`
}

type endXML struct {
	Name string `xml:"name,attr"`
}

func (w *WorkflowApp) MarshalXML(enc *xml.Encoder, _ xml.StartElement) error {
	root := startElement("workflow-app", attr("xmlns", WorkflowNamespace), attr("name", w.name))
	if err := enc.EncodeToken(root); err != nil {
		return err
	}

	if pl := w.parameters.list(); pl != nil {
		if err := enc.EncodeElement(pl, startElement("parameters")); err != nil {
			return err
		}
	}
	if !w.global.IsZero() {
		if err := enc.Encode(w.global.element()); err != nil {
			return err
		}
	}
	if len(w.credentials) > 0 {
		creds := credentialsXML{}
		for _, c := range w.credentials {
			creds.Credentials = append(creds.Credentials, c.element())
		}
		if err := enc.EncodeElement(creds, startElement("credentials")); err != nil {
			return err
		}
	}

	if err := enc.EncodeElement(transitionXML{To: w.Start()}, startElement("start")); err != nil {
		return err
	}
	for _, n := range w.Nodes() {
		if err := encodeNode(enc, n); err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	if err := enc.EncodeElement(endXML{Name: workflow.EndNode}, startElement("end")); err != nil {
		return err
	}
	return enc.EncodeToken(root.End())
}

type killXML struct {
	Name    string `xml:"name,attr"`
	Message string `xml:"message"`
}

type forkXML struct {
	Name  string `xml:"name,attr"`
	Paths []struct {
		Start string `xml:"start,attr"`
	} `xml:"path"`
}

type joinXML struct {
	Name string `xml:"name,attr"`
	To   string `xml:"to,attr"`
}

type caseXML struct {
	To        string `xml:"to,attr"`
	Predicate string `xml:",chardata"`
}

type decisionXML struct {
	Name   string `xml:"name,attr"`
	Switch struct {
		Cases   []caseXML     `xml:"case"`
		Default transitionXML `xml:"default"`
	} `xml:"switch"`
}

func encodeNode(enc *xml.Encoder, n workflow.Node) error {
	switch n.Kind {
	case workflow.NodeAction:
		return encodeAction(enc, n)
	case workflow.NodeKill:
		return enc.EncodeElement(killXML{Name: n.ID, Message: n.Message}, startElement("kill"))
	case workflow.NodeFork:
		fork := forkXML{Name: n.ID}
		for _, p := range n.Paths {
			fork.Paths = append(fork.Paths, struct {
				Start string `xml:"start,attr"`
			}{Start: p})
		}
		return enc.EncodeElement(fork, startElement("fork"))
	case workflow.NodeJoin:
		return enc.EncodeElement(joinXML{Name: n.ID, To: n.OK}, startElement("join"))
	case workflow.NodeDecision:
		d := decisionXML{Name: n.ID}
		for _, c := range n.Cases {
			d.Switch.Cases = append(d.Switch.Cases, caseXML{To: c.To, Predicate: c.Predicate})
		}
		d.Switch.Default.To = n.Default
		return enc.EncodeElement(d, startElement("decision"))
	default:
		return fmt.Errorf("%w: node kind %s", errors.ErrInvalidArgument, n.Kind)
	}
}

func encodeAction(enc *xml.Encoder, n workflow.Node) error {
	start := startElement("action", attr("name", n.ID))
	if n.Credential != "" {
		start.Attr = append(start.Attr, attr("cred", n.Credential))
	}
	if n.Retry.HasMax {
		start.Attr = append(start.Attr, attr("retry-max", strconv.FormatUint(uint64(n.Retry.Max), 10)))
	}
	if n.Retry.HasInterval {
		start.Attr = append(start.Attr, attr("retry-interval", strconv.FormatUint(uint64(n.Retry.Interval), 10)))
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	if m, ok := n.Payload.(xml.Marshaler); ok {
		if err := enc.Encode(m); err != nil {
			return err
		}
	} else if err := enc.EncodeElement(n.Payload, startElement(n.Payload.ActionType())); err != nil {
		return err
	}

	if err := enc.EncodeElement(transitionXML{To: n.OK}, startElement("ok")); err != nil {
		return err
	}
	if err := enc.EncodeElement(transitionXML{To: n.Error}, startElement("error")); err != nil {
		return err
	}
	return enc.EncodeToken(start.End())
}
