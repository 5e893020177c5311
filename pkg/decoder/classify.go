package decoder

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// entryKind is the closed classification of an input path. Dispatch is a
// pure function over the path plus a content sniff, so archives are
// recognized by what they are, not what they are named.
type entryKind int

const (
	kindDirectory entryKind = iota
	kindTabular
	kindTar
	kindZip
	kindUnknown
)

var zipSignature = []byte{'P', 'K', 0x03, 0x04}

// classify decides how a path is handled. Tabular files are recognized by
// extension; tar is probed before zip, matching the dispatch order the
// output format depends on. Anything else is kindUnknown, which the caller
// skips with a diagnostic rather than failing the run.
func classify(path string) (entryKind, error) {
	info, err := os.Stat(path)
	if err != nil {
		return kindUnknown, err
	}
	if info.IsDir() {
		return kindDirectory, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx":
		return kindTabular, nil
	}
	if isTarFile(path) {
		return kindTar, nil
	}
	if isZipFile(path) {
		return kindZip, nil
	}
	return kindUnknown, nil
}

// isTarFile probes whether the file opens as a tar archive.
func isTarFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	_, err = tar.NewReader(f).Next()
	return err == nil
}

// isZipFile checks for the local-file-header signature.
func isZipFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	sig := make([]byte, len(zipSignature))
	if _, err := io.ReadFull(f, sig); err != nil {
		return false
	}
	return bytes.Equal(sig, zipSignature)
}
