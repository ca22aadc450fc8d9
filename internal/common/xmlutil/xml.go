package xmlutil

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/deploymenttheory/go-oozie-composer/internal/common/errors"
	"github.com/deploymenttheory/go-oozie-composer/internal/common/fsutil"
)

// WriteXMLFile marshals v with the standard header and writes it to path.
func WriteXMLFile(path string, v any, indent string) error {
	data, err := MarshalXML(v, indent)
	if err != nil {
		return err
	}
	return fsutil.WriteFile(path, data, 0644)
}

// UnmarshalXML unmarshals XML data into a provided struct.
func UnmarshalXML(data []byte, v any) error {
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrUnsupportedFile, err.Error())
	}
	return nil
}

// MarshalXML marshals v into a document prefixed with the XML header. An
// empty indent produces compact output.
func MarshalXML(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	if indent != "" {
		enc.Indent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrFileWriteError, err.Error())
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrFileWriteError, err.Error())
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// ElementAttributes returns the attributes of every element named
// elementName, in document order.
func ElementAttributes(xmlStr, elementName string) ([]map[string]string, error) {
	decoder := xml.NewDecoder(strings.NewReader(xmlStr))
	var out []map[string]string
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s", errors.ErrUnsupportedFile, err.Error())
		}
		if startElem, ok := tok.(xml.StartElement); ok && startElem.Name.Local == elementName {
			attrs := make(map[string]string, len(startElem.Attr))
			for _, a := range startElem.Attr {
				attrs[a.Name.Local] = a.Value
			}
			out = append(out, attrs)
		}
	}
}
