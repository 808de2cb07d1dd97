// Package ooxml provides shared plumbing for Office Open XML packages: the
// zip container, relationship parts, and package-relative path resolution.
// The format readers (docx, xlsx, pptx) build on it rather than each carrying
// their own container code.
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

// Package wraps an opened OOXML zip container.
type Package struct {
	parts map[string]*zip.File
}

// OpenPackage opens an OOXML package from raw bytes.
func OpenPackage(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}

	p := &Package{parts: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		p.parts[f.Name] = f
	}
	return p, nil
}

// HasPart reports whether the named part exists in the package.
func (p *Package) HasPart(name string) bool {
	_, ok := p.parts[name]
	return ok
}

// Part reads and returns the content of the named part.
func (p *Package) Part(name string) ([]byte, error) {
	f, ok := p.parts[name]
	if !ok {
		return nil, fmt.Errorf("part not found: %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening part %s: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// PartNames returns all part names in the package, sorted.
func (p *Package) PartNames() []string {
	names := make([]string, 0, len(p.parts))
	for name := range p.parts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PartsWithPrefix returns the sorted part names that start with prefix.
func (p *Package) PartsWithPrefix(prefix string) []string {
	var names []string
	for name := range p.parts {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// RelationshipsNS is the namespace URI of relationship-id attributes such as
// r:id and r:embed inside document parts.
const RelationshipsNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

// Relationship is one entry in a relationships part.
type Relationship struct {
	ID     string
	Type   string
	Target string
}

// RelationshipMap maps relationship ids to their targets.
type RelationshipMap map[string]Relationship

// Target returns the target path for id, or "" if the id is unknown.
func (m RelationshipMap) Target(id string) string {
	return m[id].Target
}

// ByType returns the first relationship whose type contains substr.
func (m RelationshipMap) ByType(substr string) (Relationship, bool) {
	for _, rel := range m {
		if strings.Contains(rel.Type, substr) {
			return rel, true
		}
	}
	return Relationship{}, false
}

type relationshipsXML struct {
	XMLName       xml.Name `xml:"Relationships"`
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// ParseRelationships parses a relationships part into a RelationshipMap.
func ParseRelationships(data []byte) (RelationshipMap, error) {
	var parsed relationshipsXML
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshaling relationships: %w", err)
	}

	m := make(RelationshipMap, len(parsed.Relationships))
	for _, rel := range parsed.Relationships {
		m[rel.ID] = Relationship{ID: rel.ID, Type: rel.Type, Target: rel.Target}
	}
	return m, nil
}

// Relationships loads and parses the relationships part for the given package
// part (e.g. "word/document.xml" -> "word/_rels/document.xml.rels"). A missing
// relationships part yields an empty map, not an error.
func (p *Package) Relationships(partPath string) (RelationshipMap, error) {
	relsPath := path.Join(path.Dir(partPath), "_rels", path.Base(partPath)+".rels")
	if !p.HasPart(relsPath) {
		return RelationshipMap{}, nil
	}
	data, err := p.Part(relsPath)
	if err != nil {
		return nil, err
	}
	return ParseRelationships(data)
}

// ResolvePartPath resolves a relationship target against the directory of the
// referencing part. "./" and "../" segments are normalized; a leading "/"
// means package-root.
func ResolvePartPath(baseDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return path.Clean(strings.TrimPrefix(target, "/"))
	}
	return path.Clean(path.Join(baseDir, target))
}
