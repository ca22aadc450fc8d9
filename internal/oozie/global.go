package oozie

import "encoding/xml"

// GlobalConfiguration holds the job-tracker, name-node, job-xml and
// configuration defaults applied to every action of a workflow.
type GlobalConfiguration struct {
	JobTracker    string
	NameNode      string
	JobXMLFiles   []string
	Configuration Properties
}

// IsZero reports whether g would render an empty <global> element.
func (g GlobalConfiguration) IsZero() bool {
	return g.JobTracker == "" && g.NameNode == "" && len(g.JobXMLFiles) == 0 && len(g.Configuration) == 0
}

type globalXML struct {
	XMLName       xml.Name      `xml:"global"`
	JobTracker    string        `xml:"job-tracker,omitempty"`
	NameNode      string        `xml:"name-node,omitempty"`
	JobXML        []string      `xml:"job-xml"`
	Configuration *propertyList `xml:"configuration"`
}

func (g GlobalConfiguration) element() globalXML {
	return globalXML{
		JobTracker:    g.JobTracker,
		NameNode:      g.NameNode,
		JobXML:        g.JobXMLFiles,
		Configuration: g.Configuration.list(),
	}
}
