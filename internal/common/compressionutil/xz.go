package compression

import (
	"io"

	"github.com/ulikunitz/xz"
)

func newXZWriter(w io.Writer) (io.WriteCloser, error) {
	return xz.NewWriter(w)
}

func newXZReader(r io.Reader) (io.ReadCloser, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(xr), nil
}
