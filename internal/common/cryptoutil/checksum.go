// Package cryptoutil computes and verifies checksums of generated artifacts
package cryptoutil

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/deploymenttheory/go-oozie-composer/internal/common/errors"
	"github.com/deploymenttheory/go-oozie-composer/internal/common/fsutil"
)

// HashAlgorithm represents supported hash algorithms
type HashAlgorithm string

const (
	SHA256 HashAlgorithm = "sha256"
	SHA512 HashAlgorithm = "sha512"
)

// ParseAlgorithm resolves an algorithm name
func ParseAlgorithm(s string) (HashAlgorithm, error) {
	switch HashAlgorithm(strings.ToLower(s)) {
	case SHA256:
		return SHA256, nil
	case SHA512:
		return SHA512, nil
	default:
		return "", fmt.Errorf("%w: unsupported hash algorithm '%s'", errors.ErrInvalidArgument, s)
	}
}

func (a HashAlgorithm) newHash() (hash.Hash, error) {
	switch a {
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported hash algorithm '%s'", errors.ErrInvalidArgument, a)
	}
}

// Checksum returns the hex digest of data
func Checksum(data []byte, algorithm HashAlgorithm) (string, error) {
	h, err := algorithm.newHash()
	if err != nil {
		return "", err
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ChecksumReader returns the hex digest of everything read from r
func ChecksumReader(r io.Reader, algorithm HashAlgorithm) (string, error) {
	h, err := algorithm.newHash()
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash operation failed: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteChecksumFile writes "<digest>  <base name of target>" to
// target.<algorithm>, the layout read by sha256sum -c. It returns the
// checksum file path.
func WriteChecksumFile(target string, data []byte, algorithm HashAlgorithm) (string, error) {
	sum, err := Checksum(data, algorithm)
	if err != nil {
		return "", err
	}
	path := target + "." + string(algorithm)
	line := fmt.Sprintf("%s  %s\n", sum, filepath.Base(target))
	if err := fsutil.WriteFile(path, []byte(line), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// VerifyChecksumFile checks filePath against the first field of a checksum
// file. A "*" binary marker on the digest is ignored.
func VerifyChecksumFile(filePath, checksumFilePath string, algorithm HashAlgorithm) (bool, error) {
	data, err := fsutil.ReadFile(checksumFilePath)
	if err != nil {
		return false, err
	}

	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return false, fmt.Errorf("%w: checksum file is empty: %s", errors.ErrInvalidArgument, checksumFilePath)
	}
	expected := strings.TrimPrefix(fields[0], "*")

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, fmt.Errorf("%w: %s", errors.ErrFileNotFound, filePath)
		}
		return false, fmt.Errorf("%w: %s: %v", errors.ErrFileReadError, filePath, err)
	}
	defer file.Close()

	actual, err := ChecksumReader(file, algorithm)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(actual, expected), nil
}
