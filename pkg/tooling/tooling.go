// Package tooling is the public entry point for compiling workflow
// definition files into Oozie documents and application bundles.
package tooling

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/spf13/pflag"

	compression "github.com/deploymenttheory/go-oozie-composer/internal/common/compressionutil"
	"github.com/deploymenttheory/go-oozie-composer/internal/common/cryptoutil"
	"github.com/deploymenttheory/go-oozie-composer/internal/common/errors"
	"github.com/deploymenttheory/go-oozie-composer/internal/common/fsutil"
	"github.com/deploymenttheory/go-oozie-composer/internal/common/plistutil"
	"github.com/deploymenttheory/go-oozie-composer/internal/common/xmlutil"
	"github.com/deploymenttheory/go-oozie-composer/internal/composition"
	"github.com/deploymenttheory/go-oozie-composer/internal/config"
	"github.com/deploymenttheory/go-oozie-composer/internal/export"
	"github.com/deploymenttheory/go-oozie-composer/internal/logger"
	"github.com/deploymenttheory/go-oozie-composer/internal/oozie"
	"github.com/deploymenttheory/go-oozie-composer/internal/workflow"
)

// Version of the composer
const Version = "0.1.0"

// Bundle member names
const (
	WorkflowFile      = "workflow.xml"
	ConfigDefaultFile = "config-default.xml"
)

// InitOptions contains options for initializing the tooling API
type InitOptions struct {
	ConfigFile  string         // Path to configuration file
	Flags       *pflag.FlagSet // Command line flags overriding configuration, may be nil
	Debug       bool           // Enable debug logging
	LogFormat   string         // Log format: "human" or "json"
	LogFile     string         // Path to log file
	SuppressLog bool           // Suppress all logging
}

// Initialize loads configuration and sets up logging. Options that are set
// override the loaded configuration.
func Initialize(options InitOptions) error {
	if err := config.Initialize(options.ConfigFile, options.Flags); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	if options.Debug {
		config.Instance.Debug = true
	}
	if options.LogFormat != "" {
		config.Instance.LogFormat = options.LogFormat
	}
	if options.LogFile != "" {
		config.Instance.LogFile = options.LogFile
	}

	if options.SuppressLog {
		return nil
	}

	if err := logger.InitLogger(logger.LoggerConfig{
		Debug:     config.Instance.Debug,
		LogFormat: config.Instance.LogFormat,
		LogFile:   config.Instance.LogFile,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.LogDebug("Tooling API initialized", map[string]interface{}{
		"config_file":   config.ConfigFile,
		"deterministic": config.Instance.Identifiers.Deterministic,
	})
	return nil
}

// TokenSource returns the identifier source selected by configuration
func TokenSource() workflow.TokenSource {
	if config.Instance.Identifiers.Deterministic {
		return workflow.NewSequenceTokenSource(0)
	}
	return workflow.RandomTokenSource{}
}

// CompileFile loads a definition file and builds its workflow document
func CompileFile(definitionFile string) (*oozie.WorkflowApp, error) {
	def, err := composition.LoadDefinition(definitionFile)
	if err != nil {
		return nil, err
	}
	return def.Build(TokenSource())
}

// CompileXML compiles a definition file into workflow.xml content
func CompileXML(definitionFile string) ([]byte, error) {
	app, err := CompileFile(definitionFile)
	if err != nil {
		return nil, err
	}
	return app.XML(config.Instance.Output.Indent)
}

// WriteWorkflow compiles a definition file and writes workflow.xml to output
func WriteWorkflow(definitionFile, output string) error {
	app, err := CompileFile(definitionFile)
	if err != nil {
		return err
	}
	if err := app.WriteFile(output, config.Instance.Output.Indent); err != nil {
		return err
	}
	logger.LogInfo("Wrote workflow document", map[string]interface{}{
		"workflow": app.Name(),
		"output":   output,
	})
	return nil
}

// ExportGraph compiles a definition file and serializes its flat node list.
// Property lists use the configured output.plist_format.
func ExportGraph(definitionFile string, format export.Format) ([]byte, error) {
	plistFormat, err := plistutil.StringToFormat(config.Instance.Output.PlistFormat)
	if err != nil {
		return nil, err
	}

	app, err := CompileFile(definitionFile)
	if err != nil {
		return nil, err
	}
	g, err := export.NewGraph(app.Name(), app.Start(), app.Nodes())
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"workflow": app.Name(),
		"format":   string(format),
		"nodes":    len(g.Nodes),
	}
	if format == export.FormatPlist {
		fields["plist_format"] = plistutil.FormatToString(plistFormat)
	}
	logger.LogDebug("Exporting workflow graph", fields)

	return export.Marshal(g, format, export.WithPlistFormat(plistFormat))
}

// BundleOptions controls application bundle contents
type BundleOptions struct {
	Compression compression.Format
	User        string                   // Submission user; falls back to configuration then $USER
	AppPath     string                   // Application path; defaults under the user's HDFS home
	Properties  oozie.Properties         // Extra submission properties
	Checksum    cryptoutil.HashAlgorithm // Also write <output>.<algorithm> when set
}

// SubmissionUser resolves the submission user from an explicit value,
// configuration or the environment.
func SubmissionUser(user string) string {
	if user != "" {
		return user
	}
	if config.Instance.Submission.User != "" {
		return config.Instance.Submission.User
	}
	return os.Getenv("USER")
}

// BuildBundle packs the workflow document and its default submission
// configuration into an archive.
func BuildBundle(app *oozie.WorkflowApp, opts BundleOptions) ([]byte, error) {
	user := SubmissionUser(opts.User)
	appPath := opts.AppPath
	if appPath == "" {
		appPath = "${nameNode}" + path.Join("/user", user, app.Name())
	}

	sub, err := oozie.WorkflowSubmission(user, appPath, opts.Properties)
	if err != nil {
		return nil, err
	}

	indent := config.Instance.Output.Indent
	workflowXML, err := app.XML(indent)
	if err != nil {
		return nil, err
	}
	submissionXML, err := sub.XML(indent)
	if err != nil {
		return nil, err
	}

	return compression.BuildBundle(opts.Compression, []compression.File{
		{Name: WorkflowFile, Data: workflowXML},
		{Name: ConfigDefaultFile, Data: submissionXML},
	})
}

// WriteBundle compiles a definition file and writes its bundle to output
func WriteBundle(definitionFile, output string, opts BundleOptions) error {
	started := time.Now()

	app, err := CompileFile(definitionFile)
	if err != nil {
		return err
	}
	data, err := BuildBundle(app, opts)
	if err != nil {
		return err
	}

	if err := fsutil.WriteFile(output, data, 0644); err != nil {
		return err
	}

	fields := map[string]interface{}{
		"workflow":    app.Name(),
		"output":      output,
		"compression": string(opts.Compression),
		"bytes":       len(data),
	}
	if opts.Checksum != "" {
		checksumFile, err := cryptoutil.WriteChecksumFile(output, data, opts.Checksum)
		if err != nil {
			return err
		}
		fields["checksum_file"] = checksumFile
	}
	fields["duration"] = time.Since(started).String()

	logger.LogInfo("Wrote workflow bundle", fields)
	return nil
}

// BundleInfo summarizes a verified bundle
type BundleInfo struct {
	Workflow   string
	Start      string
	Actions    int
	Files      []string
	Properties map[string]string
}

type workflowHeader struct {
	XMLName xml.Name `xml:"workflow-app"`
	Name    string   `xml:"name,attr"`
	Start   struct {
		To string `xml:"to,attr"`
	} `xml:"start"`
}

type submissionDocument struct {
	XMLName    xml.Name `xml:"configuration"`
	Properties []struct {
		Name  string `xml:"name"`
		Value string `xml:"value"`
	} `xml:"property"`
}

// VerifyBundle checks an archive written by WriteBundle. When checksumFile is
// set the archive must match it; the algorithm is taken from the checksum
// file's extension. The compression is taken from the archive's extension.
func VerifyBundle(archive, checksumFile string) (*BundleInfo, error) {
	if checksumFile != "" {
		algorithm, err := cryptoutil.ParseAlgorithm(fsutil.GetExtension(checksumFile))
		if err != nil {
			return nil, err
		}
		ok, err := cryptoutil.VerifyChecksumFile(archive, checksumFile, algorithm)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", errors.ErrChecksumMismatch, archive)
		}
	}

	format, err := compression.ParseFormat(fsutil.GetExtension(archive))
	if err != nil {
		return nil, err
	}
	data, err := fsutil.ReadFile(archive)
	if err != nil {
		return nil, err
	}
	files, err := compression.ReadBundle(bytes.NewReader(data), format)
	if err != nil {
		return nil, err
	}

	members := make(map[string][]byte, len(files))
	info := &BundleInfo{Properties: map[string]string{}}
	for _, f := range files {
		members[f.Name] = f.Data
		info.Files = append(info.Files, f.Name)
	}
	for _, name := range []string{WorkflowFile, ConfigDefaultFile} {
		if _, ok := members[name]; !ok {
			return nil, fmt.Errorf("%w: %s has no %s", errors.ErrUnsupportedFile, archive, name)
		}
	}

	var header workflowHeader
	if err := xmlutil.UnmarshalXML(members[WorkflowFile], &header); err != nil {
		return nil, fmt.Errorf("%s: %w", WorkflowFile, err)
	}
	info.Workflow = header.Name
	info.Start = header.Start.To

	actions, err := xmlutil.ElementAttributes(string(members[WorkflowFile]), "action")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", WorkflowFile, err)
	}
	info.Actions = len(actions)

	var submission submissionDocument
	if err := xmlutil.UnmarshalXML(members[ConfigDefaultFile], &submission); err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigDefaultFile, err)
	}
	for _, p := range submission.Properties {
		info.Properties[p.Name] = p.Value
	}

	logger.LogInfo("Verified workflow bundle", map[string]interface{}{
		"archive":  archive,
		"checksum": checksumFile,
		"workflow": info.Workflow,
	})
	return info, nil
}

// Shutdown flushes buffered log output
func Shutdown() error {
	return logger.Sync()
}
