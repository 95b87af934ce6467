package repo

import "strings"

type fileDTO struct {
	Name   string   `json:"name"`
	Title  string   `json:"title"`
	Path   string   `json:"path"`
	Folder flexBool `json:"folder"`
	Hidden flexBool `json:"hidden"`
}

type treeDTO struct {
	File     fileDTO   `json:"file"`
	Children []treeDTO `json:"children"`
}

func (t treeDTO) node() Node {
	n := Node{
		Path:   t.File.Path,
		Name:   t.File.Name,
		Folder: bool(t.File.Folder),
		Hidden: bool(t.File.Hidden),
	}
	if n.Name == "" {
		n.Name = t.File.Title
	}
	if len(t.Children) > 0 {
		n.Children = make([]Node, 0, len(t.Children))
		for _, c := range t.Children {
			n.Children = append(n.Children, c.node())
		}
	}
	return n
}

// flexBool accepts both JSON booleans and the "true"/"false" strings some
// server versions send.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	v := strings.Trim(strings.TrimSpace(string(data)), `"`)
	*b = flexBool(strings.EqualFold(v, "true"))
	return nil
}
