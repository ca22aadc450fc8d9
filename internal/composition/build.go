package composition

import (
	"fmt"

	"github.com/deploymenttheory/go-oozie-composer/internal/logger"
	"github.com/deploymenttheory/go-oozie-composer/internal/oozie"
	"github.com/deploymenttheory/go-oozie-composer/internal/workflow"
)

// Build constructs the entity tree and the validated document. tokens
// supplies identifiers for unnamed nodes; nil uses random tokens.
func (d *Definition) Build(tokens workflow.TokenSource) (*oozie.WorkflowApp, error) {
	b := &treeBuilder{
		builder:  workflow.NewBuilder(tokens),
		handlers: actionHandlers,
	}

	var root workflow.Entity
	if d.Flow != nil {
		root = b.build(d.Flow, "flow")
	}

	creds := make([]oozie.Credential, 0, len(d.Credentials))
	for i, c := range d.Credentials {
		cred, err := oozie.NewCredential(c.Name, c.Type, oozie.Properties(c.Properties))
		if err != nil {
			b.issues = append(b.issues, fmt.Errorf("credentials[%d]: %w", i, err))
			continue
		}
		creds = append(creds, cred)
	}

	if len(b.issues) > 0 {
		return nil, &DefinitionError{Source: d.source, Issues: b.issues}
	}

	app, err := oozie.NewWorkflowApp(d.Name, root,
		oozie.WithParameters(oozie.Properties(d.Parameters)),
		oozie.WithConfiguration(oozie.Properties(d.Configuration)),
		oozie.WithCredentials(creds...),
		oozie.WithJobTracker(d.JobTracker),
		oozie.WithNameNode(d.NameNode),
		oozie.WithJobXMLFiles(d.JobXMLFiles...),
	)
	if err != nil {
		return nil, err
	}

	logger.LogInfo("Built workflow", map[string]interface{}{
		"workflow":    d.Name,
		"source":      d.source,
		"credentials": len(creds),
	})
	return app, nil
}

type treeBuilder struct {
	builder  *workflow.Builder
	handlers map[string]ActionHandler
	issues   []error
}

func (b *treeBuilder) fail(path string, err error) {
	b.issues = append(b.issues, fmt.Errorf("%s: %w", path, err))
}

// build returns nil when n or anything beneath it could not be built. The
// failure handler is built before the node that owns it.
func (b *treeBuilder) build(n *Node, path string) workflow.Entity {
	var opts []workflow.Option
	if n.Name != "" {
		opts = append(opts, workflow.WithName(n.Name))
	}
	if n.OnError != nil {
		handler := b.build(n.OnError, path+".on_error")
		if handler == nil {
			return nil
		}
		opts = append(opts, workflow.WithOnError(handler))
	}

	var (
		entity workflow.Entity
		err    error
	)
	switch kind := n.Kind(); kind {
	case KindShell, KindSubWorkflow, KindEmail:
		payload, errs := b.handlers[kind](n)
		if len(errs) > 0 {
			for _, e := range errs {
				b.fail(path+"."+kind, e)
			}
			return nil
		}
		if n.Credential != "" {
			opts = append(opts, workflow.WithCredential(n.Credential))
		}
		if n.RetryMax != nil {
			opts = append(opts, workflow.WithRetryMax(*n.RetryMax))
		}
		if n.RetryInterval != nil {
			opts = append(opts, workflow.WithRetryInterval(*n.RetryInterval))
		}
		entity, err = b.builder.Task(payload, opts...)

	case KindKill:
		message := ""
		if n.Kill != nil {
			message = *n.Kill
		}
		entity, err = b.builder.Kill(message, opts...)

	case KindSerial:
		children, ok := b.buildAll(n.Serial, path+".serial")
		if !ok {
			return nil
		}
		entity, err = b.builder.Sequence(children, opts...)

	case KindParallel:
		children, ok := b.buildAll(n.Parallel, path+".parallel")
		if !ok {
			return nil
		}
		var p *workflow.Parallel
		if p, err = b.builder.Parallel(children, opts...); err == nil {
			if empty := workflow.EmptyBranches(p); len(empty) > 0 {
				logger.LogWarn("Parallel branches emit no nodes; Oozie rejects a fork path that starts at its join", map[string]interface{}{
					"path":     path,
					"fork":     p.ForkID(),
					"branches": empty,
				})
			}
			entity = p
		}

	case KindDecision:
		entity, err = b.buildDecision(n.Decision, path, opts)

	default:
		b.fail(path, fmt.Errorf("node has no single kind"))
		return nil
	}

	if err != nil {
		b.fail(path, err)
		return nil
	}
	return entity
}

func (b *treeBuilder) buildAll(nodes []*Node, path string) ([]workflow.Entity, bool) {
	children := make([]workflow.Entity, 0, len(nodes))
	ok := true
	for i, child := range nodes {
		childPath := fmt.Sprintf("%s[%d]", path, i)
		if child == nil {
			b.fail(childPath, fmt.Errorf("node is empty"))
			ok = false
			continue
		}
		e := b.build(child, childPath)
		if e == nil {
			ok = false
			continue
		}
		children = append(children, e)
	}
	return children, ok
}

func (b *treeBuilder) buildDecision(ds *DecisionSpec, path string, opts []workflow.Option) (workflow.Entity, error) {
	if ds == nil {
		ds = &DecisionSpec{}
	}

	ok := true
	cases := make([]workflow.Case, 0, len(ds.Cases))
	for i, c := range ds.Cases {
		casePath := fmt.Sprintf("%s.decision.cases[%d].then", path, i)
		if c.Then == nil {
			b.fail(casePath, fmt.Errorf("node is empty"))
			ok = false
			continue
		}
		then := b.build(c.Then, casePath)
		if then == nil {
			ok = false
			continue
		}
		cases = append(cases, workflow.Case{Predicate: c.When, Then: then})
	}

	var def workflow.Entity
	if ds.Default != nil {
		def = b.build(ds.Default, path+".decision.default")
		if def == nil {
			ok = false
		}
	}
	if !ok {
		return nil, nil
	}

	d, err := b.builder.Decision(cases, def, opts...)
	if err != nil {
		return nil, err
	}
	return d, nil
}
