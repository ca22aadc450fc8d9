package composition

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Definition is a workflow definition file
type Definition struct {
	// Name of the workflow (required)
	Name string `yaml:"name" validate:"required,max=255,printascii"`

	// Optional description of the workflow
	Description string `yaml:"description,omitempty"`

	// Variables substituted into {{ }} templates anywhere in the file
	Variables map[string]interface{} `yaml:"variables,omitempty"`

	// Workflow parameters and global configuration
	Parameters    map[string]interface{} `yaml:"parameters,omitempty"`
	Configuration map[string]interface{} `yaml:"configuration,omitempty"`
	JobTracker    string                 `yaml:"job_tracker,omitempty"`
	NameNode      string                 `yaml:"name_node,omitempty"`
	JobXMLFiles   []string               `yaml:"job_xml_files,omitempty"`

	Credentials []CredentialSpec `yaml:"credentials,omitempty" validate:"dive"`

	// Root of the control flow. An absent flow compiles to start -> end.
	Flow *Node `yaml:"flow,omitempty" validate:"-"`

	source string
}

// Source returns the file or label the definition was parsed from.
func (d *Definition) Source() string { return d.source }

// CredentialSpec declares one credential
type CredentialSpec struct {
	Name       string                 `yaml:"name" validate:"required"`
	Type       string                 `yaml:"type" validate:"required"`
	Properties map[string]interface{} `yaml:"properties,omitempty"`
}

// Node kind keys. A node carries exactly one of them.
const (
	KindShell       = "shell"
	KindSubWorkflow = "sub_workflow"
	KindEmail       = "email"
	KindKill        = "kill"
	KindSerial      = "serial"
	KindParallel    = "parallel"
	KindDecision    = "decision"
)

var kindKeys = map[string]bool{
	KindShell: true, KindSubWorkflow: true, KindEmail: true, KindKill: true,
	KindSerial: true, KindParallel: true, KindDecision: true,
}

var attributeKeys = map[string]bool{
	"name": true, "on_error": true, "credential": true, "retry_max": true, "retry_interval": true,
}

// Node is one entry of the flow tree
type Node struct {
	Name          string `yaml:"name,omitempty"`
	OnError       *Node  `yaml:"on_error,omitempty"`
	Credential    string `yaml:"credential,omitempty"`
	RetryMax      *uint  `yaml:"retry_max,omitempty"`
	RetryInterval *uint  `yaml:"retry_interval,omitempty"`

	Shell       *ShellSpec       `yaml:"shell,omitempty"`
	SubWorkflow *SubWorkflowSpec `yaml:"sub_workflow,omitempty"`
	Email       *EmailSpec       `yaml:"email,omitempty"`
	Kill        *string          `yaml:"kill,omitempty"`
	Serial      []*Node          `yaml:"serial,omitempty"`
	Parallel    []*Node          `yaml:"parallel,omitempty"`
	Decision    *DecisionSpec    `yaml:"decision,omitempty"`

	kinds   []string
	unknown []string
	line    int
}

// Kind returns the node's single kind key, or "" when it has none or several.
func (n *Node) Kind() string {
	if len(n.kinds) != 1 {
		return ""
	}
	return n.kinds[0]
}

// UnmarshalYAML records which kind keys are present so that an empty
// `serial: []` is told apart from an absent one.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: a flow node must be a mapping", value.Line)
	}

	type plain Node
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*n = Node(p)
	n.line = value.Line

	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i].Value
		switch {
		case kindKeys[key]:
			n.kinds = append(n.kinds, key)
		case !attributeKeys[key]:
			n.unknown = append(n.unknown, key)
		}
	}
	return nil
}

// ShellSpec configures a shell action
type ShellSpec struct {
	Exec          string                 `yaml:"exec" validate:"required"`
	JobTracker    string                 `yaml:"job_tracker,omitempty"`
	NameNode      string                 `yaml:"name_node,omitempty"`
	JobXMLFiles   []string               `yaml:"job_xml_files,omitempty"`
	Configuration map[string]interface{} `yaml:"configuration,omitempty"`
	Arguments     []string               `yaml:"arguments,omitempty"`
	EnvVars       map[string]string      `yaml:"env_vars,omitempty"`
	Files         []string               `yaml:"files,omitempty"`
	Archives      []string               `yaml:"archives,omitempty"`
	CaptureOutput bool                   `yaml:"capture_output,omitempty"`
}

// SubWorkflowSpec configures a sub-workflow action. Configuration is
// propagated unless propagate_configuration is false.
type SubWorkflowSpec struct {
	AppPath                string                 `yaml:"app_path" validate:"required"`
	PropagateConfiguration *bool                  `yaml:"propagate_configuration,omitempty"`
	Configuration          map[string]interface{} `yaml:"configuration,omitempty"`
}

// EmailSpec configures an email action
type EmailSpec struct {
	To          StringList `yaml:"to" validate:"min=1,dive,required"`
	Subject     string     `yaml:"subject"`
	Body        string     `yaml:"body"`
	CC          StringList `yaml:"cc,omitempty"`
	BCC         StringList `yaml:"bcc,omitempty"`
	ContentType string     `yaml:"content_type,omitempty"`
	Attachments StringList `yaml:"attachments,omitempty"`
}

// DecisionSpec configures a switch node
type DecisionSpec struct {
	Cases   []CaseSpec `yaml:"cases" validate:"dive"`
	Default *Node      `yaml:"default" validate:"-"`
}

// CaseSpec is one predicate branch of a decision
type CaseSpec struct {
	When string `yaml:"when" validate:"required"`
	Then *Node  `yaml:"then" validate:"-"`
}

// StringList accepts either a single string or a list of strings
type StringList []string

func (s *StringList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*s = StringList{value.Value}
		return nil
	}
	var list []string
	if err := value.Decode(&list); err != nil {
		return err
	}
	*s = list
	return nil
}
