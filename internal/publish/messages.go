package publish

import "fmt"

func titleFor(server ServerEndpoint) string {
	return fmt.Sprintf("Publish to %s", server.Name())
}

// FeedbackFor builds the operator message for outcome. subject names the file
// or catalog involved.
func FeedbackFor(server ServerEndpoint, outcome Outcome, subject string) Feedback {
	fb := Feedback{
		Title:    titleFor(server),
		Outcome:  outcome,
		Severity: SeverityError,
	}
	switch outcome {
	case Success:
		fb.Severity = SeverityInfo
		fb.Message = "Publish was successful."
	case FileExists:
		fb.Message = fmt.Sprintf("%s already exists on %s and was not replaced.", subject, server.Name())
	case CatalogExists:
		fb.Severity = SeverityInfo
		fb.Question = true
		fb.Message = fmt.Sprintf("The analysis catalog %s already exists on %s. Overwrite it?", subject, server.Name())
	case InvalidPassword:
		fb.Message = "The publish password is incorrect."
	case InvalidCredentials:
		fb.Message = fmt.Sprintf("%s rejected the user name or password.", server.Name())
	case DatasourceProblem:
		fb.Message = "The datasource could not be published. Check that it is defined correctly on the server."
	case DriverMissing:
		fb.Message = "The server does not have a JDBC driver for this datasource."
	case Failed:
		fb.Message = fmt.Sprintf("Publishing %s to %s failed.", subject, server.Name())
	default:
		fb.Message = fmt.Sprintf("Publishing %s to %s failed for an unknown reason (%s).", subject, server.Name(), outcome)
	}
	return fb
}

// overwriteQuestion offers a failed or conflicting catalog publish for one
// retry with overwrite.
func overwriteQuestion(server ServerEndpoint, outcome Outcome, catalog string) Feedback {
	fb := FeedbackFor(server, outcome, catalog)
	if !fb.Question {
		fb.Question = true
		fb.Message += " Retry and overwrite the existing catalog?"
	}
	return fb
}

func datasourceQuestion(server ServerEndpoint, message string) Feedback {
	return Feedback{Title: titleFor(server), Message: message, Outcome: Success, Severity: SeverityInfo, Question: true}
}

func datasourceNotice(server ServerEndpoint, outcome Outcome, severity Severity, message string) Feedback {
	return Feedback{Title: titleFor(server), Message: message, Outcome: outcome, Severity: severity}
}
