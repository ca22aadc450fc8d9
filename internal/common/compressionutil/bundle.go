// Package compression packs workflow application files into a single
// tar archive, optionally compressed.
package compression

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/deploymenttheory/go-oozie-composer/internal/common/errors"
)

// Format names a bundle compression scheme.
type Format string

const (
	FormatNone  Format = "none"
	FormatGZIP  Format = "gzip"
	FormatBZIP2 Format = "bzip2"
	FormatXZ    Format = "xz"
)

// ParseFormat accepts a format name or a common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "none", "tar":
		return FormatNone, nil
	case "gzip", "gz", "tgz":
		return FormatGZIP, nil
	case "bzip2", "bz2", "tbz2":
		return FormatBZIP2, nil
	case "xz", "txz":
		return FormatXZ, nil
	default:
		return "", fmt.Errorf("%w: %s", errors.ErrUnsupportedCompression, s)
	}
}

// Extension returns the conventional archive suffix for f.
func (f Format) Extension() string {
	switch f {
	case FormatGZIP:
		return ".tar.gz"
	case FormatBZIP2:
		return ".tar.bz2"
	case FormatXZ:
		return ".tar.xz"
	default:
		return ".tar"
	}
}

// File is one archive member.
type File struct {
	Name string
	Data []byte
	Mode int64
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func newWriter(w io.Writer, format Format) (io.WriteCloser, error) {
	switch format {
	case FormatNone, "":
		return nopWriteCloser{w}, nil
	case FormatGZIP:
		return newGZIPWriter(w)
	case FormatBZIP2:
		return newBZIP2Writer(w)
	case FormatXZ:
		return newXZWriter(w)
	default:
		return nil, fmt.Errorf("%w: %s", errors.ErrUnsupportedCompression, format)
	}
}

func newReader(r io.Reader, format Format) (io.ReadCloser, error) {
	switch format {
	case FormatNone, "":
		return io.NopCloser(r), nil
	case FormatGZIP:
		return newGZIPReader(r)
	case FormatBZIP2:
		return newBZIP2Reader(r)
	case FormatXZ:
		return newXZReader(r)
	default:
		return nil, fmt.Errorf("%w: %s", errors.ErrUnsupportedCompression, format)
	}
}

// WriteBundle writes files as a tar archive compressed with format. Members
// keep the given order and carry no timestamps, so equal input yields equal
// bytes.
func WriteBundle(w io.Writer, format Format, files []File) error {
	cw, err := newWriter(w, format)
	if err != nil {
		return err
	}

	tw := tar.NewWriter(cw)
	for _, f := range files {
		mode := f.Mode
		if mode == 0 {
			mode = 0644
		}
		hdr := &tar.Header{
			Name:     f.Name,
			Mode:     mode,
			Size:     int64(len(f.Data)),
			Typeflag: tar.TypeReg,
			Format:   tar.FormatPAX,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("%w: %s: %v", errors.ErrCompressionFailed, f.Name, err)
		}
		if _, err := tw.Write(f.Data); err != nil {
			return fmt.Errorf("%w: %s: %v", errors.ErrCompressionFailed, f.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrCompressionFailed, err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrCompressionFailed, err)
	}
	return nil
}

// BuildBundle is WriteBundle into memory.
func BuildBundle(format Format, files []File) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteBundle(&buf, format, files); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadBundle extracts the regular files of an archive written by WriteBundle.
func ReadBundle(r io.Reader, format Format) ([]File, error) {
	cr, err := newReader(r, format)
	if err != nil {
		return nil, err
	}
	defer cr.Close()

	var files []File
	tr := tar.NewReader(cr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return files, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrUnsupportedFile, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", errors.ErrFileReadError, hdr.Name, err)
		}
		files = append(files, File{Name: hdr.Name, Data: data, Mode: hdr.Mode})
	}
}
