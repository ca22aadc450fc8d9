package xmlutil

import (
	"encoding/xml"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-oozie-composer/internal/common/errors"
	"github.com/deploymenttheory/go-oozie-composer/internal/common/fsutil"
)

type sample struct {
	XMLName xml.Name `xml:"sample"`
	Name    string   `xml:"name,attr"`
	Value   string   `xml:"value"`
}

func TestMarshalXML(t *testing.T) {
	data, err := MarshalXML(sample{Name: "a", Value: "v"}, "  ")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(data), xml.Header))
	assert.Contains(t, string(data), "<sample name=\"a\">\n  <value>v</value>\n</sample>")

	compact, err := MarshalXML(sample{Name: "a"}, "")
	require.NoError(t, err)
	assert.Contains(t, string(compact), `<sample name="a"><value></value></sample>`)
}

func TestWriteXMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xml")
	require.NoError(t, WriteXMLFile(path, sample{Name: "a", Value: "v"}, "  "))

	data, err := fsutil.ReadFile(path)
	require.NoError(t, err)

	var got sample
	require.NoError(t, UnmarshalXML(data, &got))
	assert.Equal(t, "v", got.Value)

	assert.ErrorIs(t, UnmarshalXML([]byte("<sample>"), &got), errors.ErrUnsupportedFile)
}

func TestElementAttributes(t *testing.T) {
	attrs, err := ElementAttributes(`<r><ok to="x"/><ok to="y"/></r>`, "ok")
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{{"to": "x"}, {"to": "y"}}, attrs)
}
