package schema

import (
	"fmt"

	"github.com/beevik/etree"
)

// Document is a parsed schema. Publishing works from a Document rather than
// the exporter's raw output so that a retry re-serializes the same tree.
type Document struct {
	doc *etree.Document
}

// ParseDocument parses schema XML. Malformed XML is rejected here, before
// anything is sent to the server.
func ParseDocument(data []byte) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse schema document: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("parse schema document: no root element")
	}
	return &Document{doc: doc}, nil
}

// Bytes serializes the document. Each call returns a fresh slice.
func (d *Document) Bytes() ([]byte, error) {
	return d.doc.WriteToBytes()
}

// Name returns the schema name attribute.
func (d *Document) Name() string {
	return d.doc.Root().SelectAttrValue("name", "")
}

// CubeNames lists the cubes the schema declares, in document order.
func (d *Document) CubeNames() []string {
	var names []string
	for _, c := range d.doc.Root().SelectElements("Cube") {
		names = append(names, c.SelectAttrValue("name", ""))
	}
	return names
}
