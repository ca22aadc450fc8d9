package oozie

import (
	"encoding/xml"
	"fmt"

	"github.com/deploymenttheory/go-oozie-composer/internal/common/errors"
	"github.com/deploymenttheory/go-oozie-composer/internal/common/xmlutil"
)

// Property names Oozie reads from a workflow job submission.
const (
	PropertyUserName = "user.name"
	PropertyAppPath  = "oozie.wf.application.path"
)

// Submission is the <configuration> document posted to Oozie to start a
// workflow job.
type Submission struct {
	Properties Properties
}

// WorkflowSubmission merges the user and application path into props. The
// two reserved properties always win over entries in props.
func WorkflowSubmission(user, appPath string, props Properties) (*Submission, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: submission user is required", errors.ErrInvalidArgument)
	}
	if appPath == "" {
		return nil, fmt.Errorf("%w: application path is required", errors.ErrInvalidArgument)
	}
	return &Submission{
		Properties: props.Merge(Properties{
			PropertyUserName: user,
			PropertyAppPath:  appPath,
		}),
	}, nil
}

type configurationXML struct {
	XMLName    xml.Name   `xml:"configuration"`
	Properties []property `xml:"property"`
}

// XML renders the submission. An empty indent produces compact output.
func (s *Submission) XML(indent string) ([]byte, error) {
	return xmlutil.MarshalXML(configurationXML{Properties: s.Properties.sorted()}, indent)
}
