package model

import (
	"fmt"
	"strings"
)

// ValidationError lists what is wrong with a workspace file.
type ValidationError struct {
	Path     string
	Problems []string
}

func (e *ValidationError) Error() string {
	where := e.Path
	if where == "" {
		where = "workspace"
	}
	return fmt.Sprintf("%s: %s", where, strings.Join(e.Problems, "; "))
}
