package oozie

import (
	"fmt"
	"sort"

	"github.com/deploymenttheory/go-oozie-composer/internal/workflow"
)

// Properties is a name/value set rendered as a list of <property> elements.
// Values are formatted with fmt; a nil value renders as an empty <value>.
type Properties map[string]any

type property struct {
	Name  string `xml:"name"`
	Value string `xml:"value"`
}

type propertyList struct {
	Name       string     `xml:"name,attr,omitempty"`
	Type       string     `xml:"type,attr,omitempty"`
	Properties []property `xml:"property"`
}

// sorted returns the properties ordered by name.
func (p Properties) sorted() []property {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]property, 0, len(names))
	for _, name := range names {
		out = append(out, property{Name: name, Value: formatValue(p[name])})
	}
	return out
}

// list returns the element body, or nil when p is empty so the element is
// omitted.
func (p Properties) list() *propertyList {
	if len(p) == 0 {
		return nil
	}
	return &propertyList{Properties: p.sorted()}
}

// Merge returns a copy of p overlaid with other.
func (p Properties) Merge(other Properties) Properties {
	out := make(Properties, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Credential declares a named credential that actions reference through
// their cred attribute.
type Credential struct {
	Name       string
	Type       string
	Properties Properties
}

// NewCredential validates name against the identifier grammar.
func NewCredential(name, credentialType string, props Properties) (Credential, error) {
	if _, err := workflow.ValidateIdentifier(name); err != nil {
		return Credential{}, err
	}
	return Credential{Name: name, Type: credentialType, Properties: props}, nil
}

func (c Credential) element() propertyList {
	return propertyList{Name: c.Name, Type: c.Type, Properties: c.Properties.sorted()}
}

type credentialsXML struct {
	Credentials []propertyList `xml:"credential"`
}
