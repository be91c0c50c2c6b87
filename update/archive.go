package update

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// extractBinary returns a reader over the executable inside a release asset.
// Plain binaries are passed through; .tar.gz and .zip archives are searched
// for the binary by name.
func extractBinary(assetName string, body io.Reader, goos string) (io.Reader, error) {
	want := BinaryName
	if goos == "windows" {
		want += ".exe"
	}

	switch name := strings.ToLower(assetName); {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, err
		}
		tr := tar.NewReader(gz)
		for {
			hdr, err := tr.Next()
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%s not found in archive", want)
			}
			if err != nil {
				return nil, err
			}
			if hdr.Typeflag == tar.TypeReg && path.Base(hdr.Name) == want {
				return tr, nil
			}
		}
	case strings.HasSuffix(name, ".zip"):
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, err
		}
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, err
		}
		for _, f := range zr.File {
			if path.Base(f.Name) == want && !f.FileInfo().IsDir() {
				return f.Open()
			}
		}
		return nil, fmt.Errorf("%s not found in archive", want)
	default:
		return body, nil
	}
}
