package pipeline

import "fmt"

// Severity of a Diagnostic
type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "ok"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Diagnostic is a validation finding. It is reported, never returned as an error.
type Diagnostic struct {
	Severity Severity
	Message  string
	// Step names the step the finding belongs to
	Step string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Severity, d.Step, d.Message)
}

// Errorf returns an error-level Diagnostic for step.
func Errorf(step, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Step: step, Message: fmt.Sprintf(format, args...)}
}

// HasErrors reports whether any diagnostic is error-level.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
