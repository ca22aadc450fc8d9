// Package plistutil provides utilities for encoding and decoding property lists
package plistutil

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-oozie-composer/internal/common/errors"
	"howett.net/plist"
)

// Format represents the plist format
type Format int

const (
	// FormatXML is the XML plist format
	FormatXML Format = iota
	// FormatBinary is the binary plist format
	FormatBinary
	// FormatOpenStep is the OpenStep plist format
	FormatOpenStep
	// FormatGNUStep is the GNUStep plist format
	FormatGNUStep
)

func (f Format) plistFormat() int {
	switch f {
	case FormatBinary:
		return plist.BinaryFormat
	case FormatOpenStep:
		return plist.OpenStepFormat
	case FormatGNUStep:
		return plist.GNUStepFormat
	default:
		return plist.XMLFormat
	}
}

// Encode serializes v as a property list in the given format. Text formats
// are indented with tabs.
func Encode(v any, format Format) ([]byte, error) {
	var buf bytes.Buffer
	encoder := plist.NewEncoderForFormat(&buf, format.plistFormat())
	if format != FormatBinary {
		encoder.Indent("\t")
	}
	if err := encoder.Encode(v); err != nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrFileWriteError, err.Error())
	}
	return buf.Bytes(), nil
}

// Decode parses a property list of any supported format into v and reports
// the format it was written in.
func Decode(data []byte, v any) (Format, error) {
	format, err := plist.Unmarshal(data, v)
	if err != nil {
		return FormatXML, fmt.Errorf("%w: %s", errors.ErrUnsupportedFile, err.Error())
	}
	switch format {
	case plist.BinaryFormat:
		return FormatBinary, nil
	case plist.OpenStepFormat:
		return FormatOpenStep, nil
	case plist.GNUStepFormat:
		return FormatGNUStep, nil
	default:
		return FormatXML, nil
	}
}

// FormatToString converts a Format enum to a string
func FormatToString(format Format) string {
	switch format {
	case FormatXML:
		return "XML"
	case FormatBinary:
		return "Binary"
	case FormatOpenStep:
		return "OpenStep"
	case FormatGNUStep:
		return "GNUStep"
	default:
		return "Unknown"
	}
}

// StringToFormat converts a string to a Format enum
func StringToFormat(formatStr string) (Format, error) {
	switch strings.ToLower(formatStr) {
	case "", "xml":
		return FormatXML, nil
	case "binary":
		return FormatBinary, nil
	case "openstep":
		return FormatOpenStep, nil
	case "gnustep":
		return FormatGNUStep, nil
	default:
		return FormatXML, fmt.Errorf("%w: plist format %q", errors.ErrUnsupportedFormat, formatStr)
	}
}
