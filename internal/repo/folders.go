package repo

import "strings"

// Folder is one entry of a flattened folder listing.
type Folder struct {
	Path  string
	Name  string
	Depth int
}

// Folders flattens the folders under root in depth-first order. Hidden
// folders are skipped along with everything below them. The root itself is
// not listed.
func Folders(root Node) []Folder {
	var out []Folder
	var walk func(n Node, depth int)
	walk = func(n Node, depth int) {
		for _, c := range n.Children {
			if !c.Folder || c.Hidden {
				continue
			}
			out = append(out, Folder{Path: c.Path, Name: c.Name, Depth: depth})
			walk(c, depth+1)
		}
	}
	walk(root, 0)
	return out
}

// Indented renders the folder with two spaces per level, for listings.
func (f Folder) Indented() string {
	return strings.Repeat("  ", f.Depth) + f.Name
}
