package update

import (
	"fmt"
	"strings"

	"github.com/buger/jsonparser"
)

// Asset is one downloadable file of a release.
type Asset struct {
	Name string
	URL  string
	Size int64
}

// Release is the subset of a GitHub release the updater needs.
type Release struct {
	Tag     string
	Version string
	Assets  []Asset
}

func parseRelease(data []byte) (*Release, error) {
	tag, err := jsonparser.GetString(data, "tag_name")
	if err != nil {
		return nil, fmt.Errorf("release has no tag_name: %w", err)
	}
	rel := &Release{Tag: tag, Version: strings.TrimPrefix(tag, "v")}

	var parseErr error
	_, err = jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if err != nil || dataType != jsonparser.Object {
			return
		}
		name, nerr := jsonparser.GetString(value, "name")
		url, uerr := jsonparser.GetString(value, "browser_download_url")
		if nerr != nil || uerr != nil {
			parseErr = fmt.Errorf("malformed asset at offset %d", offset)
			return
		}
		size, _ := jsonparser.GetInt(value, "size")
		rel.Assets = append(rel.Assets, Asset{Name: name, URL: url, Size: size})
	}, "assets")
	if err != nil && err != jsonparser.KeyPathNotFoundError {
		return nil, fmt.Errorf("failed to read release assets: %w", err)
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return rel, nil
}

var osAliases = map[string][]string{
	"darwin":  {"darwin", "macos", "apple"},
	"windows": {"windows"},
	"linux":   {"linux"},
}

var archAliases = map[string][]string{
	"amd64": {"amd64", "x86_64", "x64"},
	"arm64": {"arm64", "aarch64"},
	"386":   {"386", "i686"},
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// SelectAsset picks the release asset built for goos/goarch. Checksum and
// signature files are never selected.
func SelectAsset(assets []Asset, goos, goarch string) (Asset, bool) {
	oses := osAliases[goos]
	if oses == nil {
		oses = []string{goos}
	}
	arches := archAliases[goarch]
	if arches == nil {
		arches = []string{goarch}
	}
	for _, a := range assets {
		name := strings.ToLower(a.Name)
		if strings.HasSuffix(name, ".sha256") || strings.HasSuffix(name, ".sig") || strings.Contains(name, "checksums") {
			continue
		}
		if containsAny(name, oses) && containsAny(name, arches) {
			return a, true
		}
	}
	return Asset{}, false
}
