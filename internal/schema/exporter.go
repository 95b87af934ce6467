package schema

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// Exporter renders a logical model as a schema document.
type Exporter interface {
	Export(model LogicalModel) ([]byte, error)
}

// XMLExporter writes Mondrian schema XML.
type XMLExporter struct {
	// SchemaName names the <Schema> element; the model name is used when empty.
	SchemaName string
}

type xmlSchema struct {
	XMLName xml.Name  `xml:"Schema"`
	Name    string    `xml:"name,attr"`
	Cubes   []xmlCube `xml:"Cube"`
}

type xmlCube struct {
	Name       string         `xml:"name,attr"`
	Table      xmlTable       `xml:"Table"`
	Dimensions []xmlDimension `xml:"Dimension"`
	Measures   []xmlMeasure   `xml:"Measure"`
}

type xmlTable struct {
	Name   string `xml:"name,attr"`
	Schema string `xml:"schema,attr,omitempty"`
}

type xmlDimension struct {
	Name       string       `xml:"name,attr"`
	Type       string       `xml:"type,attr,omitempty"`
	ForeignKey string       `xml:"foreignKey,attr,omitempty"`
	Hierarchy  xmlHierarchy `xml:"Hierarchy"`
}

type xmlHierarchy struct {
	HasAll     bool       `xml:"hasAll,attr"`
	PrimaryKey string     `xml:"primaryKey,attr,omitempty"`
	Table      *xmlTable  `xml:"Table,omitempty"`
	Levels     []xmlLevel `xml:"Level"`
}

type xmlLevel struct {
	Name          string `xml:"name,attr"`
	Column        string `xml:"column,attr"`
	Type          string `xml:"type,attr,omitempty"`
	LevelType     string `xml:"levelType,attr,omitempty"`
	UniqueMembers bool   `xml:"uniqueMembers,attr"`
}

type xmlMeasure struct {
	Name         string `xml:"name,attr"`
	Column       string `xml:"column,attr"`
	Aggregator   string `xml:"aggregator,attr"`
	FormatString string `xml:"formatString,attr,omitempty"`
}

func (e XMLExporter) Export(model LogicalModel) ([]byte, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}

	name := e.SchemaName
	if name == "" {
		name = model.Name
	}
	doc := xmlSchema{Name: name}
	for _, c := range model.Cubes {
		doc.Cubes = append(doc.Cubes, exportCube(c))
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func exportCube(c Cube) xmlCube {
	xc := xmlCube{
		Name:  c.Name,
		Table: xmlTable{Name: c.Table, Schema: c.Schema},
	}
	for _, d := range c.Dimensions {
		xd := xmlDimension{
			Name:       d.Name,
			ForeignKey: d.ForeignKey,
			Hierarchy:  xmlHierarchy{HasAll: true, PrimaryKey: d.PrimaryKey},
		}
		if d.Time {
			xd.Type = "TimeDimension"
		}
		if d.Table != "" {
			xd.Hierarchy.Table = &xmlTable{Name: d.Table, Schema: c.Schema}
		}
		for _, l := range d.Levels {
			xd.Hierarchy.Levels = append(xd.Hierarchy.Levels, xmlLevel{
				Name:          l.Name,
				Column:        l.Column,
				Type:          l.Type,
				LevelType:     l.LevelType,
				UniqueMembers: l.UniqueMembers,
			})
		}
		xc.Dimensions = append(xc.Dimensions, xd)
	}
	for _, m := range c.Measures {
		agg := strings.ToLower(m.Aggregator)
		if agg == "" {
			agg = "sum"
		}
		xc.Measures = append(xc.Measures, xmlMeasure{
			Name:         m.Name,
			Column:       m.Column,
			Aggregator:   agg,
			FormatString: m.FormatString,
		})
	}
	return xc
}
