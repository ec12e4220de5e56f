package email

// Template is a string-based enum naming email templates.
type Template string

const (
	// TemplateProcessAlert corresponds to templates/process_alert.html
	TemplateProcessAlert Template = "process_alert"
)
