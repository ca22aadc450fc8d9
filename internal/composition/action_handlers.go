package composition

import (
	"github.com/deploymenttheory/go-oozie-composer/internal/oozie"
	"github.com/deploymenttheory/go-oozie-composer/internal/workflow"
)

// ActionHandler converts the payload section of a task node into a payload.
// It is only called when the node's kind matches its registry key.
type ActionHandler func(n *Node) (workflow.Payload, []error)

var actionHandlers = createActionHandlerRegistry()

func createActionHandlerRegistry() map[string]ActionHandler {
	return map[string]ActionHandler{
		KindShell:       handleShellAction,
		KindSubWorkflow: handleSubWorkflowAction,
		KindEmail:       handleEmailAction,
	}
}

func handleShellAction(n *Node) (workflow.Payload, []error) {
	s := n.Shell
	if s == nil {
		s = &ShellSpec{}
	}
	if errs := validateStruct(s); len(errs) > 0 {
		return nil, errs
	}
	return oozie.Shell{
		Exec:          s.Exec,
		JobTracker:    s.JobTracker,
		NameNode:      s.NameNode,
		JobXMLFiles:   s.JobXMLFiles,
		Configuration: oozie.Properties(s.Configuration),
		Arguments:     s.Arguments,
		EnvVars:       s.EnvVars,
		Files:         s.Files,
		Archives:      s.Archives,
		CaptureOutput: s.CaptureOutput,
	}, nil
}

func handleSubWorkflowAction(n *Node) (workflow.Payload, []error) {
	s := n.SubWorkflow
	if s == nil {
		s = &SubWorkflowSpec{}
	}
	if errs := validateStruct(s); len(errs) > 0 {
		return nil, errs
	}
	propagate := true
	if s.PropagateConfiguration != nil {
		propagate = *s.PropagateConfiguration
	}
	return oozie.SubWorkflow{
		AppPath:                s.AppPath,
		PropagateConfiguration: propagate,
		Configuration:          oozie.Properties(s.Configuration),
	}, nil
}

func handleEmailAction(n *Node) (workflow.Payload, []error) {
	s := n.Email
	if s == nil {
		s = &EmailSpec{}
	}
	if errs := validateStruct(s); len(errs) > 0 {
		return nil, errs
	}
	return oozie.Email{
		To:          s.To,
		Subject:     s.Subject,
		Body:        s.Body,
		CC:          s.CC,
		BCC:         s.BCC,
		ContentType: s.ContentType,
		Attachments: s.Attachments,
	}, nil
}
