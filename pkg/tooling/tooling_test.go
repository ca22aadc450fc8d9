package tooling

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	compression "github.com/deploymenttheory/go-oozie-composer/internal/common/compressionutil"
	"github.com/deploymenttheory/go-oozie-composer/internal/common/cryptoutil"
	"github.com/deploymenttheory/go-oozie-composer/internal/common/errors"
	"github.com/deploymenttheory/go-oozie-composer/internal/common/xmlutil"
	"github.com/deploymenttheory/go-oozie-composer/internal/config"
	"github.com/deploymenttheory/go-oozie-composer/internal/export"
	"github.com/deploymenttheory/go-oozie-composer/internal/workflow"
)

const definition = `
name: tooling-flow
flow:
  serial:
    - shell: {exec: a.sh}
    - name: done
      email: {to: [ops@example.com], subject: done}
`

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	cfg := filepath.Join(dir, "composer.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
identifiers:
  deterministic: true
submission:
  user: etl
output:
  indent: ""
`), 0644))
	require.NoError(t, Initialize(InitOptions{ConfigFile: cfg, SuppressLog: true}))

	def := filepath.Join(dir, "flow.yaml")
	require.NoError(t, os.WriteFile(def, []byte(definition), 0644))
	return def
}

func TestCompileXML(t *testing.T) {
	def := setup(t)

	data, err := CompileXML(def)
	require.NoError(t, err)

	start, err := xmlutil.ElementAttributes(string(data), "start")
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{{"to": "action-00000000"}}, start)
	assert.NotContains(t, string(data), "\n  <")

	_, err = CompileXML(filepath.Join(filepath.Dir(def), "absent.yaml"))
	assert.ErrorIs(t, err, errors.ErrFileNotFound)
}

func TestTokenSource(t *testing.T) {
	setup(t)
	_, ok := TokenSource().(*workflow.SequenceTokenSource)
	assert.True(t, ok)
}

func TestExportGraph(t *testing.T) {
	def := setup(t)

	data, err := ExportGraph(def, export.FormatYAML)
	require.NoError(t, err)

	g, err := export.Unmarshal(data, export.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "tooling-flow", g.Name)
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "action-00000000", g.Nodes[0].ID)
	assert.Equal(t, "action-done", g.Nodes[0].OK)
	assert.Equal(t, "email", g.Nodes[1].ActionType)
}

func TestWriteBundle(t *testing.T) {
	def := setup(t)
	output := filepath.Join(t.TempDir(), "out", "app.tar.xz")

	require.NoError(t, WriteBundle(def, output, BundleOptions{
		Compression: compression.FormatXZ,
		Checksum:    cryptoutil.SHA256,
	}))

	ok, err := cryptoutil.VerifyChecksumFile(output, output+".sha256", cryptoutil.SHA256)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	files, err := compression.ReadBundle(bytes.NewReader(data), compression.FormatXZ)
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, WorkflowFile, files[0].Name)
	assert.Contains(t, string(files[0].Data), `<workflow-app xmlns="uri:oozie:workflow:0.5" name="tooling-flow">`)

	assert.Equal(t, ConfigDefaultFile, files[1].Name)
	submission := string(files[1].Data)
	assert.Contains(t, submission, "<name>user.name</name><value>etl</value>")
	assert.Contains(t, submission, "<value>${nameNode}/user/etl/tooling-flow</value>")
}

func TestBuildBundle_ExplicitSubmission(t *testing.T) {
	def := setup(t)
	app, err := CompileFile(def)
	require.NoError(t, err)

	data, err := BuildBundle(app, BundleOptions{
		Compression: compression.FormatNone,
		User:        "alice",
		AppPath:     "hdfs://nn/apps/flow",
	})
	require.NoError(t, err)

	files, err := compression.ReadBundle(bytes.NewReader(data), compression.FormatNone)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Contains(t, string(files[1].Data), "<value>alice</value>")
	assert.Contains(t, string(files[1].Data), "<value>hdfs://nn/apps/flow</value>")
}

func TestWriteBundle_ReturnsPromptly(t *testing.T) {
	def := setup(t)
	output := filepath.Join(t.TempDir(), "app.tar")

	done := make(chan error, 1)
	go func() {
		done <- WriteBundle(def, output, BundleOptions{
			Compression: compression.FormatNone,
			User:        "u",
			Checksum:    cryptoutil.SHA256,
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("WriteBundle did not return")
	}
	assert.FileExists(t, output)
	assert.FileExists(t, output+".sha256")
}

func TestVerifyBundle(t *testing.T) {
	def := setup(t)
	output := filepath.Join(t.TempDir(), "app.tar.gz")
	require.NoError(t, WriteBundle(def, output, BundleOptions{
		Compression: compression.FormatGZIP,
		Checksum:    cryptoutil.SHA512,
	}))

	info, err := VerifyBundle(output, output+".sha512")
	require.NoError(t, err)
	assert.Equal(t, "tooling-flow", info.Workflow)
	assert.Equal(t, "action-00000000", info.Start)
	assert.Equal(t, 2, info.Actions)
	assert.Equal(t, []string{WorkflowFile, ConfigDefaultFile}, info.Files)
	assert.Equal(t, "etl", info.Properties["user.name"])

	t.Run("without checksum", func(t *testing.T) {
		_, err := VerifyBundle(output, "")
		assert.NoError(t, err)
	})

	t.Run("tampered archive", func(t *testing.T) {
		tampered := filepath.Join(t.TempDir(), "app.tar.gz")
		data, err := os.ReadFile(output)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(tampered, append(data, 0), 0644))

		sum, err := os.ReadFile(output + ".sha512")
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(tampered+".sha512", sum, 0644))

		_, err = VerifyBundle(tampered, tampered+".sha512")
		assert.ErrorIs(t, err, errors.ErrChecksumMismatch)
	})

	t.Run("missing member", func(t *testing.T) {
		partial := filepath.Join(t.TempDir(), "partial.tar")
		data, err := compression.BuildBundle(compression.FormatNone, []compression.File{
			{Name: WorkflowFile, Data: []byte(`<workflow-app name="x"></workflow-app>`)},
		})
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(partial, data, 0644))

		_, err = VerifyBundle(partial, "")
		assert.ErrorIs(t, err, errors.ErrUnsupportedFile)
	})
}

func TestExportGraph_PlistFormat(t *testing.T) {
	def := setup(t)
	config.Instance.Output.PlistFormat = "binary"
	t.Cleanup(func() { config.Instance.Output.PlistFormat = "xml" })

	data, err := ExportGraph(def, export.FormatPlist)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("bplist00")))

	g, err := export.Unmarshal(data, export.FormatPlist)
	require.NoError(t, err)
	assert.Equal(t, "tooling-flow", g.Name)
}

func TestWriteWorkflow(t *testing.T) {
	def := setup(t)
	output := filepath.Join(t.TempDir(), "app", WorkflowFile)

	require.NoError(t, WriteWorkflow(def, output))

	written, err := os.ReadFile(output)
	require.NoError(t, err)
	compiled, err := CompileXML(def)
	require.NoError(t, err)
	assert.Equal(t, string(compiled), string(written))
}
