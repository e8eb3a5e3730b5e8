// Package inspect provides the content inspection capabilities used while mapping
// files: format detection, content digests and timestamps.
package inspect

import (
	_ "crypto/sha256"
	_ "crypto/sha512"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/opencontainers/go-digest"
)

// DirectoryFormat is reported for directories.
const DirectoryFormat = "inode/directory"

// Format detects the MIME type of the file at path from its content.
func Format(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return DirectoryFormat, nil
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect format of %s: %w", path, err)
	}
	return mt.String(), nil
}

// ParseAlgorithm parses a case-insensitive digest algorithm name such as "sha256"
// or "SHA-512".
func ParseAlgorithm(s string) (digest.Algorithm, error) {
	a := digest.Algorithm(strings.ToLower(strings.ReplaceAll(s, "-", "")))
	if !a.Available() {
		return "", fmt.Errorf("unsupported checksum algorithm %q (valid: sha256, sha384, sha512)", s)
	}
	return a, nil
}

// Checksum returns the digest of the file at path, e.g. "sha256:ba78...".
func Checksum(path string, a digest.Algorithm) (digest.Digest, error) {
	if !a.Available() {
		return "", fmt.Errorf("unsupported checksum algorithm %q", a)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	d, err := a.FromReader(f)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", path, err)
	}
	return d, nil
}

// Size returns the byte length of a file as a decimal string.
func Size(info fs.FileInfo) string {
	return strconv.FormatInt(info.Size(), 10)
}

// Modified returns the modification time in RFC 3339 form, UTC.
func Modified(info fs.FileInfo) string {
	return info.ModTime().UTC().Format(time.RFC3339)
}

// Created returns the creation time in RFC 3339 form, UTC. Platforms that do not
// record a birth time fall back to the status change time, then the modification time.
func Created(info fs.FileInfo) string {
	return createdTime(info).UTC().Format(time.RFC3339)
}
