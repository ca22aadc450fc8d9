package oozie

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"

	"github.com/deploymenttheory/go-oozie-composer/internal/common/errors"
)

const (
	ShellNamespace = "uri:oozie:shell-action:0.3"
	EmailNamespace = "uri:oozie:email-action:0.2"
)

// Shell runs a command on a cluster node.
type Shell struct {
	Exec          string
	JobTracker    string
	NameNode      string
	JobXMLFiles   []string
	Configuration Properties
	Arguments     []string
	EnvVars       map[string]string
	Files         []string
	Archives      []string
	CaptureOutput bool
}

func (Shell) ActionType() string { return "shell" }

// Validate checks the fields Oozie requires.
func (s Shell) Validate() error {
	if s.Exec == "" {
		return fmt.Errorf("%w: shell action requires exec", errors.ErrInvalidArgument)
	}
	return nil
}

type shellXML struct {
	XMLName       xml.Name      `xml:"shell"`
	Xmlns         string        `xml:"xmlns,attr"`
	JobTracker    string        `xml:"job-tracker,omitempty"`
	NameNode      string        `xml:"name-node,omitempty"`
	JobXML        []string      `xml:"job-xml"`
	Configuration *propertyList `xml:"configuration"`
	Exec          string        `xml:"exec"`
	Arguments     []string      `xml:"argument"`
	EnvVars       []string      `xml:"env-var"`
	Files         []string      `xml:"file"`
	Archives      []string      `xml:"archive"`
	CaptureOutput *struct{}     `xml:"capture-output"`
}

func (s Shell) MarshalXML(enc *xml.Encoder, _ xml.StartElement) error {
	out := shellXML{
		Xmlns:         ShellNamespace,
		JobTracker:    s.JobTracker,
		NameNode:      s.NameNode,
		JobXML:        s.JobXMLFiles,
		Configuration: s.Configuration.list(),
		Exec:          s.Exec,
		Arguments:     s.Arguments,
		Files:         s.Files,
		Archives:      s.Archives,
	}

	keys := make([]string, 0, len(s.EnvVars))
	for k := range s.EnvVars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out.EnvVars = append(out.EnvVars, k+"="+s.EnvVars[k])
	}

	if s.CaptureOutput {
		out.CaptureOutput = &struct{}{}
	}
	return enc.Encode(out)
}

// SubWorkflow runs another workflow application and waits for it.
type SubWorkflow struct {
	AppPath                string
	PropagateConfiguration bool
	Configuration          Properties
}

func (SubWorkflow) ActionType() string { return "sub-workflow" }

func (s SubWorkflow) Validate() error {
	if s.AppPath == "" {
		return fmt.Errorf("%w: sub-workflow action requires app-path", errors.ErrInvalidArgument)
	}
	return nil
}

type subWorkflowXML struct {
	XMLName                xml.Name      `xml:"sub-workflow"`
	AppPath                string        `xml:"app-path"`
	PropagateConfiguration *struct{}     `xml:"propagate-configuration"`
	Configuration          *propertyList `xml:"configuration"`
}

func (s SubWorkflow) MarshalXML(enc *xml.Encoder, _ xml.StartElement) error {
	out := subWorkflowXML{
		AppPath:       s.AppPath,
		Configuration: s.Configuration.list(),
	}
	if s.PropagateConfiguration {
		out.PropagateConfiguration = &struct{}{}
	}
	return enc.Encode(out)
}

// Email sends a notification. Address lists are sorted and comma-joined.
type Email struct {
	To          []string
	Subject     string
	Body        string
	CC          []string
	BCC         []string
	ContentType string
	Attachments []string
}

func (Email) ActionType() string { return "email" }

func (e Email) Validate() error {
	if len(e.To) == 0 {
		return fmt.Errorf("%w: email action requires at least one recipient", errors.ErrInvalidArgument)
	}
	return nil
}

type emailXML struct {
	XMLName     xml.Name `xml:"email"`
	Xmlns       string   `xml:"xmlns,attr"`
	To          string   `xml:"to"`
	Subject     string   `xml:"subject"`
	Body        string   `xml:"body"`
	CC          string   `xml:"cc,omitempty"`
	BCC         string   `xml:"bcc,omitempty"`
	ContentType string   `xml:"content_type,omitempty"`
	Attachment  string   `xml:"attachment,omitempty"`
}

func (e Email) MarshalXML(enc *xml.Encoder, _ xml.StartElement) error {
	return enc.Encode(emailXML{
		Xmlns:       EmailNamespace,
		To:          joinSorted(e.To),
		Subject:     e.Subject,
		Body:        e.Body,
		CC:          joinSorted(e.CC),
		BCC:         joinSorted(e.BCC),
		ContentType: e.ContentType,
		Attachment:  joinSorted(e.Attachments),
	})
}

func joinSorted(values []string) string {
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
