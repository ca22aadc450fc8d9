package composition

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"text/template"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	commonerrors "github.com/deploymenttheory/go-oozie-composer/internal/common/errors"
	"github.com/deploymenttheory/go-oozie-composer/internal/common/fsutil"
	"github.com/deploymenttheory/go-oozie-composer/internal/logger"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their definition-file keys
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var topLevelKeys = map[string]bool{
	"name": true, "description": true, "variables": true, "parameters": true,
	"configuration": true, "job_tracker": true, "name_node": true,
	"job_xml_files": true, "credentials": true, "flow": true,
}

// DefinitionError aggregates every problem found in a definition
type DefinitionError struct {
	Source string
	Issues []error
}

func (e *DefinitionError) Error() string {
	var b strings.Builder
	b.WriteString(commonerrors.ErrInvalidDefinition.Error())
	if e.Source != "" {
		b.WriteString(" ")
		b.WriteString(e.Source)
	}
	for _, issue := range e.Issues {
		b.WriteString("\n  - ")
		b.WriteString(issue.Error())
	}
	return b.String()
}

// Unwrap exposes the definition sentinel and every individual issue to
// errors.Is and errors.As.
func (e *DefinitionError) Unwrap() []error {
	return append([]error{commonerrors.ErrInvalidDefinition}, e.Issues...)
}

// LoadDefinition loads a workflow definition from a YAML or JSON file
func LoadDefinition(filePath string) (*Definition, error) {
	switch ext := fsutil.GetExtension(filePath); ext {
	case "yaml", "yml", "json", "":
	default:
		return nil, fmt.Errorf("%w: %s", commonerrors.ErrUnsupportedFile, filePath)
	}

	data, err := fsutil.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	system := map[string]interface{}{}
	if abs, err := filepath.Abs(filepath.Dir(filePath)); err == nil {
		system["definition_dir"] = abs
	}

	def, err := parseDefinition(data, filePath, system)
	if err != nil {
		return nil, err
	}
	logger.LogDebug("Loaded workflow definition", map[string]interface{}{
		"path":     filePath,
		"workflow": def.Name,
	})
	return def, nil
}

// ParseDefinition parses and validates definition data. source names the
// data in error messages.
func ParseDefinition(data []byte, source string) (*Definition, error) {
	return parseDefinition(data, source, nil)
}

func parseDefinition(data []byte, source string, system map[string]interface{}) (*Definition, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &DefinitionError{Source: source, Issues: []error{err}}
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, &DefinitionError{Source: source, Issues: []error{errors.New("definition must be a mapping")}}
	}
	root := doc.Content[0]

	var issues []error
	for i := 0; i+1 < len(root.Content); i += 2 {
		if key := root.Content[i]; !topLevelKeys[key.Value] {
			issues = append(issues, fmt.Errorf("line %d: unknown key %q", key.Line, key.Value))
		}
	}

	variables, err := extractVariables(root)
	if err != nil {
		return nil, &DefinitionError{Source: source, Issues: []error{err}}
	}
	for k, v := range system {
		if _, ok := variables[k]; !ok {
			variables[k] = v
		}
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "variables" {
			continue
		}
		if err := processTemplates(root.Content[i+1], variables); err != nil {
			return nil, &DefinitionError{Source: source, Issues: []error{err}}
		}
	}

	def := &Definition{}
	if err := root.Decode(def); err != nil {
		return nil, &DefinitionError{Source: source, Issues: append(issues, err)}
	}
	def.source = source

	issues = append(issues, ValidateDefinition(def)...)
	if len(issues) > 0 {
		return nil, &DefinitionError{Source: source, Issues: issues}
	}
	return def, nil
}

// extractVariables decodes the variables section, which is itself never
// templated.
func extractVariables(root *yaml.Node) (map[string]interface{}, error) {
	variables := map[string]interface{}{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "variables" {
			if err := root.Content[i+1].Decode(&variables); err != nil {
				return nil, fmt.Errorf("variables: %w", err)
			}
		}
	}
	return variables, nil
}

// processTemplates expands {{ }} templates in every string scalar under node.
// Mapping keys are left alone.
func processTemplates(node *yaml.Node, variables map[string]interface{}) error {
	if node.Kind == yaml.MappingNode {
		for i := 1; i < len(node.Content); i += 2 {
			if err := processTemplates(node.Content[i], variables); err != nil {
				return err
			}
		}
		return nil
	}

	for _, child := range node.Content {
		if err := processTemplates(child, variables); err != nil {
			return err
		}
	}
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!str" {
		processed, err := processTemplate(node.Value, variables)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		node.Value = processed
	}
	return nil
}

// processTemplate processes a single template string
func processTemplate(templateString string, variables map[string]interface{}) (string, error) {
	// Only process if the string contains template markers
	if !strings.Contains(templateString, "{{") {
		return templateString, nil
	}

	tmpl, err := template.New("inline").Option("missingkey=error").Parse(templateString)
	if err != nil {
		return "", err
	}

	var buffer bytes.Buffer
	if err := tmpl.Execute(&buffer, variables); err != nil {
		return "", err
	}
	return buffer.String(), nil
}

// ValidateDefinition validates the definition structure and every flow node
func ValidateDefinition(def *Definition) []error {
	errs := validateStruct(def)

	seen := map[string]bool{}
	for i, c := range def.Credentials {
		if seen[c.Name] {
			errs = append(errs, fmt.Errorf("credentials[%d]: credential %q declared twice", i, c.Name))
		}
		seen[c.Name] = true
	}

	if def.Flow != nil {
		errs = append(errs, validateNode(def.Flow, "flow")...)
	}
	return errs
}

func validateNode(n *Node, path string) []error {
	var errs []error
	issue := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%s (line %d): %s", path, n.line, fmt.Sprintf(format, args...)))
	}

	for _, key := range n.unknown {
		issue("unknown key %q", key)
	}

	switch len(n.kinds) {
	case 0:
		issue("node needs one of shell, sub_workflow, email, kill, serial, parallel or decision")
		return errs
	case 1:
	default:
		issue("node has several kinds: %s", strings.Join(n.kinds, ", "))
		return errs
	}

	kind := n.Kind()
	isAction := kind == KindShell || kind == KindSubWorkflow || kind == KindEmail
	if !isAction && (n.Credential != "" || n.RetryMax != nil || n.RetryInterval != nil) {
		issue("credential and retry settings only apply to actions, not %s", kind)
	}
	if kind == KindSerial && n.Name != "" {
		issue("serial nodes emit no node of their own and cannot be named")
	}

	switch kind {
	case KindShell, KindSubWorkflow, KindEmail:
		if _, payloadErrs := actionHandlers[kind](n); len(payloadErrs) > 0 {
			for _, err := range payloadErrs {
				errs = append(errs, fmt.Errorf("%s.%s (line %d): %w", path, kind, n.line, err))
			}
		}
	case KindSerial:
		for i, child := range n.Serial {
			errs = append(errs, validateChild(child, fmt.Sprintf("%s.serial[%d]", path, i))...)
		}
	case KindParallel:
		if len(n.Parallel) == 0 {
			errs = append(errs, fmt.Errorf("%s (line %d): %w", path, n.line, commonerrors.ErrEmptyParallel))
		}
		for i, child := range n.Parallel {
			errs = append(errs, validateChild(child, fmt.Sprintf("%s.parallel[%d]", path, i))...)
		}
	case KindDecision:
		d := n.Decision
		if d == nil {
			d = &DecisionSpec{}
		}
		for _, err := range validateStruct(d) {
			errs = append(errs, fmt.Errorf("%s.decision: %w", path, err))
		}
		for i, c := range d.Cases {
			errs = append(errs, validateChild(c.Then, fmt.Sprintf("%s.decision.cases[%d].then", path, i))...)
		}
		if d.Default == nil {
			errs = append(errs, fmt.Errorf("%s (line %d): %w", path, n.line, commonerrors.ErrMissingDefault))
		} else {
			errs = append(errs, validateNode(d.Default, path+".decision.default")...)
		}
	}

	if n.OnError != nil {
		errs = append(errs, validateNode(n.OnError, path+".on_error")...)
	}
	return errs
}

func validateChild(n *Node, path string) []error {
	if n == nil {
		return []error{fmt.Errorf("%s: node is empty", path)}
	}
	return validateNode(n, path)
}

// validateStruct runs struct tag validation and returns one error per
// failing field
func validateStruct(s interface{}) []error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []error{err}
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		errs = append(errs, fmt.Errorf("%s %s", field, describeTag(fe)))
	}
	return errs
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("needs at least %s entries", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "printascii":
		return "must contain printable ASCII only"
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}
