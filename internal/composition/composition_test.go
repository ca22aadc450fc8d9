package composition

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	commonerrors "github.com/deploymenttheory/go-oozie-composer/internal/common/errors"
	"github.com/deploymenttheory/go-oozie-composer/internal/common/xmlutil"
	"github.com/deploymenttheory/go-oozie-composer/internal/logger"
	"github.com/deploymenttheory/go-oozie-composer/internal/oozie"
	"github.com/deploymenttheory/go-oozie-composer/internal/workflow"
)

const nightlyETL = `
name: nightly-etl
variables:
  queue: etl-queue
parameters:
  queueName: "{{ .queue }}"
configuration:
  mapred.job.queue.name: ${queueName}
job_tracker: jt:8032
name_node: hdfs://nn:8020
job_xml_files: [/user/etl/job.xml]
credentials:
  - name: hcat
    type: hcat
    properties:
      hcat.metastore.uri: thrift://ms:9083
flow:
  serial:
    - name: extract
      credential: hcat
      retry_max: 3
      retry_interval: 0
      shell:
        exec: extract.sh
        arguments: [--day, "${day}"]
    - name: fan
      parallel:
        - name: a
          shell: {exec: a.sh}
        - name: b
          sub_workflow: {app_path: /apps/b}
    - name: route
      decision:
        cases:
          - when: ${x eq 1}
            then: {name: one, shell: {exec: one.sh}}
        default: {serial: []}
  on_error:
    serial:
      - name: notify
        email: {to: ops@example.com, subject: failed, body: "${wf:id()}"}
      - name: failed
        kill: ${wf:lastErrorNode()}
`

func TestParseDefinition(t *testing.T) {
	def, err := ParseDefinition([]byte(nightlyETL), "nightly.yaml")
	require.NoError(t, err)

	assert.Equal(t, "nightly-etl", def.Name)
	assert.Equal(t, "nightly.yaml", def.Source())
	assert.Equal(t, "etl-queue", def.Parameters["queueName"])
	assert.Equal(t, "${queueName}", def.Configuration["mapred.job.queue.name"])
	require.NotNil(t, def.Flow)
	assert.Equal(t, KindSerial, def.Flow.Kind())
	require.Len(t, def.Flow.Serial, 3)
	assert.Equal(t, KindParallel, def.Flow.Serial[1].Kind())
	assert.Equal(t, StringList{"ops@example.com"}, def.Flow.OnError.Serial[0].Email.To)
	require.NotNil(t, def.Flow.Serial[2].Decision.Default)
	assert.Equal(t, KindSerial, def.Flow.Serial[2].Decision.Default.Kind())
}

// programmaticETL builds the same document as nightlyETL through the API.
func programmaticETL(t *testing.T) *oozie.WorkflowApp {
	t.Helper()
	b := workflow.NewBuilder(workflow.NewSequenceTokenSource(0))
	must := func(e workflow.Entity, err error) workflow.Entity {
		t.Helper()
		require.NoError(t, err)
		return e
	}

	notify := must(b.Task(oozie.Email{To: []string{"ops@example.com"}, Subject: "failed", Body: "${wf:id()}"},
		workflow.WithName("notify")))
	failed := must(b.Kill("${wf:lastErrorNode()}", workflow.WithName("failed")))
	handler := must(b.Sequence([]workflow.Entity{notify, failed}))

	extract := must(b.Task(oozie.Shell{Exec: "extract.sh", Arguments: []string{"--day", "${day}"}},
		workflow.WithName("extract"), workflow.WithCredential("hcat"),
		workflow.WithRetryMax(3), workflow.WithRetryInterval(0)))
	a := must(b.Task(oozie.Shell{Exec: "a.sh"}, workflow.WithName("a")))
	bb := must(b.Task(oozie.SubWorkflow{AppPath: "/apps/b", PropagateConfiguration: true}, workflow.WithName("b")))
	fan := must(b.Parallel([]workflow.Entity{a, bb}, workflow.WithName("fan")))
	one := must(b.Task(oozie.Shell{Exec: "one.sh"}, workflow.WithName("one")))
	empty := must(b.Sequence(nil))
	route := must(b.Decision([]workflow.Case{{Predicate: "${x eq 1}", Then: one}}, empty, workflow.WithName("route")))
	root := must(b.Sequence([]workflow.Entity{extract, fan, route}, workflow.WithOnError(handler)))

	app, err := oozie.NewWorkflowApp("nightly-etl", root,
		oozie.WithParameters(oozie.Properties{"queueName": "etl-queue"}),
		oozie.WithConfiguration(oozie.Properties{"mapred.job.queue.name": "${queueName}"}),
		oozie.WithCredentials(oozie.Credential{Name: "hcat", Type: "hcat",
			Properties: oozie.Properties{"hcat.metastore.uri": "thrift://ms:9083"}}),
		oozie.WithJobTracker("jt:8032"),
		oozie.WithNameNode("hdfs://nn:8020"),
		oozie.WithJobXMLFiles("/user/etl/job.xml"),
	)
	require.NoError(t, err)
	return app
}

func TestBuild_MatchesProgrammaticDocument(t *testing.T) {
	def, err := ParseDefinition([]byte(nightlyETL), "nightly.yaml")
	require.NoError(t, err)

	app, err := def.Build(workflow.NewSequenceTokenSource(0))
	require.NoError(t, err)

	got, err := app.XML("  ")
	require.NoError(t, err)
	want, err := programmaticETL(t).XML("  ")
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	// The empty default resolves through to the end node.
	decision, err := xmlutil.ElementAttributes(string(got), "default")
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{{"to": "end"}}, decision)
}

func TestBuild_GeneratedIdentifiers(t *testing.T) {
	def, err := ParseDefinition([]byte(`
name: generated
flow:
  parallel:
    - shell: {exec: a.sh}
    - shell: {exec: b.sh}
`), "inline")
	require.NoError(t, err)

	app, err := def.Build(workflow.NewSequenceTokenSource(0))
	require.NoError(t, err)

	assert.Equal(t, "fork-00000002", app.Start())
	nodes := app.Nodes()
	require.Len(t, nodes, 4)
	assert.Equal(t, []string{"action-00000000", "action-00000001"}, nodes[0].Paths)
}

func TestBuild_ValidationErrors(t *testing.T) {
	t.Run("missing credential", func(t *testing.T) {
		def, err := ParseDefinition([]byte(`
name: creds
flow: {credential: hive, shell: {exec: x.sh}}
`), "inline")
		require.NoError(t, err)

		_, err = def.Build(nil)
		assert.ErrorIs(t, err, commonerrors.ErrMissingCredential)
	})

	t.Run("duplicate identifier", func(t *testing.T) {
		def, err := ParseDefinition([]byte(`
name: dups
flow:
  serial:
    - {name: a, shell: {exec: x.sh}}
    - {name: a, shell: {exec: y.sh}}
`), "inline")
		require.NoError(t, err)

		_, err = def.Build(nil)
		var compileErr *workflow.CompileError
		require.True(t, errors.As(err, &compileErr))
		assert.Equal(t, []string{"action-a"}, compileErr.Names)
	})

	t.Run("invalid node name", func(t *testing.T) {
		def, err := ParseDefinition([]byte(`
name: names
flow: {name: "bad name", shell: {exec: x.sh}}
`), "inline")
		require.NoError(t, err)

		_, err = def.Build(nil)
		assert.ErrorIs(t, err, commonerrors.ErrInvalidDefinition)
		assert.ErrorIs(t, err, commonerrors.ErrInvalidIdentifier)
	})
}

func TestParseDefinition_AggregatesIssues(t *testing.T) {
	_, err := ParseDefinition([]byte(`
name: broken
owner: nobody
flow:
  serial:
    - parallel: []
    - decision:
        cases: [{when: "", then: {shell: {exec: x.sh}}}]
    - shell: {exec: a.sh}
      kill: boom
    - kill: stop
      retry_max: 2
    - shell: {}
    - email: {subject: s}
    - shel: {exec: typo.sh}
`), "broken.yaml")
	require.Error(t, err)

	var defErr *DefinitionError
	require.True(t, errors.As(err, &defErr))
	assert.Equal(t, "broken.yaml", defErr.Source)

	assert.ErrorIs(t, err, commonerrors.ErrInvalidDefinition)
	assert.ErrorIs(t, err, commonerrors.ErrEmptyParallel)
	assert.ErrorIs(t, err, commonerrors.ErrMissingDefault)

	msg := err.Error()
	for _, want := range []string{
		`unknown key "owner"`,
		"cases[0].when is required",
		"node has several kinds: shell, kill",
		"credential and retry settings only apply to actions, not kill",
		"exec is required",
		"to needs at least 1 entries",
		`unknown key "shel"`,
	} {
		assert.Contains(t, msg, want)
	}
}

func TestParseDefinition_Templates(t *testing.T) {
	t.Run("missing variable", func(t *testing.T) {
		_, err := ParseDefinition([]byte(`
name: "{{ .missing }}"
`), "inline")
		assert.ErrorIs(t, err, commonerrors.ErrInvalidDefinition)
	})

	t.Run("variables are not templated", func(t *testing.T) {
		def, err := ParseDefinition([]byte(`
name: templated
variables:
  literal: "{{ not a template"
  dir: /opt/jobs
flow: {shell: {exec: "{{ .dir }}/run.sh"}}
`), "inline")
		require.NoError(t, err)
		assert.Equal(t, "{{ not a template", def.Variables["literal"])
		assert.Equal(t, "/opt/jobs/run.sh", def.Flow.Shell.Exec)
	})
}

func TestParseDefinition_NotAMapping(t *testing.T) {
	_, err := ParseDefinition([]byte(`- just a list`), "inline")
	assert.ErrorIs(t, err, commonerrors.ErrInvalidDefinition)

	_, err = ParseDefinition([]byte(`name: x
flow: [shell]`), "inline")
	assert.ErrorIs(t, err, commonerrors.ErrInvalidDefinition)
}

func TestLoadDefinition(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml with system variable", func(t *testing.T) {
		path := filepath.Join(dir, "flow.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
name: loaded
flow: {shell: {exec: "{{ .definition_dir }}/run.sh"}}
`), 0644))

		def, err := LoadDefinition(path)
		require.NoError(t, err)
		abs, err := filepath.Abs(dir)
		require.NoError(t, err)
		assert.Equal(t, abs+"/run.sh", def.Flow.Shell.Exec)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "flow.json")
		require.NoError(t, os.WriteFile(path, []byte(
			`{"name": "json-flow", "flow": {"serial": [{"name": "a", "shell": {"exec": "a.sh"}}]}}`), 0644))

		def, err := LoadDefinition(path)
		require.NoError(t, err)
		app, err := def.Build(nil)
		require.NoError(t, err)
		assert.Equal(t, "action-a", app.Start())
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := LoadDefinition(filepath.Join(dir, "flow.toml"))
		assert.ErrorIs(t, err, commonerrors.ErrUnsupportedFile)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadDefinition(filepath.Join(dir, "absent.yaml"))
		assert.ErrorIs(t, err, commonerrors.ErrFileNotFound)
	})
}

func TestBuild_WarnsOnEmptyParallelBranch(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	previous := logger.Logger
	logger.Logger = zap.New(core).Sugar()
	t.Cleanup(func() { logger.Logger = previous })

	def, err := ParseDefinition([]byte(`
name: hollow
flow:
  name: fan
  parallel:
    - {name: a, shell: {exec: a.sh}}
    - serial: []
`), "inline")
	require.NoError(t, err)

	app, err := def.Build(nil)
	require.NoError(t, err)

	paths, err := xmlutil.ElementAttributes(mustXML(t, app), "path")
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{{"start": "action-a"}, {"start": "join-fan"}}, paths)

	warnings := logs.FilterMessageSnippet("emit no nodes").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "fork-fan", warnings[0].ContextMap()["fork"])
	assert.Equal(t, "flow", warnings[0].ContextMap()["path"])
}

func mustXML(t *testing.T, app *oozie.WorkflowApp) string {
	t.Helper()
	data, err := app.XML("")
	require.NoError(t, err)
	return string(data)
}
