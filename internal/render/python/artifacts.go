package python

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/sakif/chartlab/internal/render"
)

// artifactPattern matches the files the script epilogue writes. The captured
// group is the numeric creation index.
var artifactPattern = regexp.MustCompile(`^artifact_(\d+)\.(png|jpe?g|svg)$`)

var mimeByExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".svg":  "image/svg+xml",
}

// rawArtifact is one harvested image file before encoding.
type rawArtifact struct {
	index int
	ext   string
	data  []byte
}

// collectArtifacts lists dir, filters to the artifact naming pattern, and
// reads each matching file. Results are sorted by the embedded numeric index,
// never by filename; lexical order would put artifact_10 before artifact_2.
func collectArtifacts(dir string) ([]rawArtifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing workspace %s: %w", dir, err)
	}

	artifacts := make([]rawArtifact, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := artifactPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			// Unreachable given the \d+ group, but never trust a filename.
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading artifact %s: %w", entry.Name(), err)
		}
		artifacts = append(artifacts, rawArtifact{
			index: idx,
			ext:   filepath.Ext(entry.Name()),
			data:  data,
		})
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].index < artifacts[j].index
	})

	return artifacts, nil
}

// encodeArtifacts turns harvested image bytes into transport-friendly data
// URIs, each tagged with its MIME type. Order is preserved from collection.
func encodeArtifacts(raws []rawArtifact) []render.Artifact {
	encoded := make([]render.Artifact, 0, len(raws))
	for _, raw := range raws {
		mime := mimeByExt[raw.ext]
		encoded = append(encoded, render.Artifact{
			Index:   raw.index,
			MIME:    mime,
			DataURI: fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(raw.data)),
		})
	}
	return encoded
}
