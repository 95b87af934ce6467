// Package publish uploads models, schemas, metadata and report artifacts to a
// BI server, resolving conflicts with the operator through injected callbacks.
package publish

import (
	"strconv"
	"strings"
)

// Outcome is the terminal result of a publish step. The integer values are
// the codes the server uses in reply bodies and must not change.
type Outcome int

const (
	UnknownProblem     Outcome = -1
	FileExists         Outcome = 1
	Failed             Outcome = 2
	Success            Outcome = 3
	InvalidPassword    Outcome = 4
	InvalidCredentials Outcome = 5
	DatasourceProblem  Outcome = 6
	CatalogExists      Outcome = 8
	DriverMissing      Outcome = 9
)

// Reply codes returned in the body of a rejected publishfile request.
const (
	replyAuthenticationFailed = 5
	replyContentExists        = 10
)

func (o Outcome) String() string {
	switch o {
	case UnknownProblem:
		return "unknown-problem"
	case FileExists:
		return "file-exists"
	case Failed:
		return "failed"
	case Success:
		return "success"
	case InvalidPassword:
		return "invalid-password"
	case InvalidCredentials:
		return "invalid-credentials"
	case DatasourceProblem:
		return "datasource-problem"
	case CatalogExists:
		return "catalog-exists"
	case DriverMissing:
		return "driver-missing"
	default:
		return "outcome(" + strconv.Itoa(int(o)) + ")"
	}
}

// Code returns the wire value.
func (o Outcome) Code() int {
	return int(o)
}

// ParseOutcome decodes a reply body holding a bare integer code.
func ParseOutcome(body string) (Outcome, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(body))
	if err != nil {
		return Failed, false
	}
	return Outcome(n), true
}
