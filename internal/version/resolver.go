// SPDX-License-Identifier: MPL-2.0

package version

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// NvmrcFile is the primary version-declaration file.
	NvmrcFile = ".nvmrc"
	// NodeVersionFile is the fallback version-declaration file.
	NodeVersionFile = ".node-version"
	// ManifestFile is the package manifest that may declare engines.node.
	ManifestFile = "package.json"

	// Runtime is the image repository of the Node.js runtime.
	Runtime = "node"
)

// Source identifies where a resolved version came from.
type Source string

const (
	SourceOverride    Source = "DOCKER_NODE_IMAGE"
	SourceNvmrc       Source = NvmrcFile
	SourceNodeVersion Source = NodeVersionFile
	SourceManifest    Source = ManifestFile
	SourceDefault     Source = "default"
)

// ResolvedImage is the outcome of image resolution for one invocation.
type ResolvedImage struct {
	// Ref is the full image reference handed to the container engine.
	Ref string
	// Major is the Node.js major version ("" when Ref is a total override).
	Major string
	// Source records which declaration won.
	Source Source
}

// Resolver resolves the container image for a project directory.
// Resolution is strictly priority-ordered and short-circuits on the first
// source that yields a major version; malformed or missing files are
// treated as "no signal" and never surface as errors.
type Resolver struct {
	// DefaultMajor is used when no project declaration is found.
	DefaultMajor string
	// Variant is the image tag suffix (node:<major>-<variant>).
	Variant string
	// Override, when non-empty, wins unconditionally over every file.
	Override string
}

// Resolve determines the image for the project rooted at dir.
func (r Resolver) Resolve(dir string) ResolvedImage {
	if r.Override != "" {
		return ResolvedImage{Ref: r.Override, Source: SourceOverride}
	}

	if major := majorFromVersionFile(filepath.Join(dir, NvmrcFile)); major != "" {
		return r.image(major, SourceNvmrc)
	}

	if major := majorFromVersionFile(filepath.Join(dir, NodeVersionFile)); major != "" {
		return r.image(major, SourceNodeVersion)
	}

	if major := majorFromManifest(filepath.Join(dir, ManifestFile)); major != "" {
		return r.image(major, SourceManifest)
	}

	return r.image(r.DefaultMajor, SourceDefault)
}

func (r Resolver) image(major string, source Source) ResolvedImage {
	return ResolvedImage{
		Ref:    fmt.Sprintf("%s:%s-%s", Runtime, major, r.Variant),
		Major:  major,
		Source: source,
	}
}

// majorFromVersionFile extracts the first run of digits from a version
// file like .nvmrc. Contents such as "v18.2.0\n" or "lts/hydrogen" yield
// "18" and "" respectively.
func majorFromVersionFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return leadingDigitRun(string(data))
}

// majorFromManifest reads engines.node from package.json, strips range
// operators, and takes the portion before the first dot.
func majorFromManifest(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	var manifest struct {
		Engines struct {
			Node string `json:"node"`
		} `json:"engines"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return ""
	}

	constraint := strings.TrimSpace(manifest.Engines.Node)
	if constraint == "" {
		return ""
	}

	stripped := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '=', '!', '~', '^', 'v', ' ':
			return -1
		}
		return r
	}, constraint)

	major, _, _ := strings.Cut(stripped, ".")
	if leadingDigitRun(major) != major || major == "" {
		return ""
	}
	return major
}

// leadingDigitRun returns the first contiguous run of ASCII digits in s.
func leadingDigitRun(s string) string {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return s[start:i]
		}
	}
	if start >= 0 {
		return s[start:]
	}
	return ""
}
