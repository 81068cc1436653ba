package types

// DiagnosticLevel is the severity of a diagnostic.
type DiagnosticLevel string

const (
	LevelInfo    DiagnosticLevel = "info"
	LevelWarning DiagnosticLevel = "warning"
	LevelError   DiagnosticLevel = "error"
)

// DiagnosticStage names the pipeline stage that produced a diagnostic.
type DiagnosticStage string

const (
	StageLoad     DiagnosticStage = "load"
	StageScan     DiagnosticStage = "scan"
	StageRegister DiagnosticStage = "register"
	StageRender   DiagnosticStage = "render"
	StageCodegen  DiagnosticStage = "codegen"
)

// Diagnostic is a structured, non-fatal report of a pipeline stage outcome.
type Diagnostic struct {
	Code      string          `json:"code"`
	Level     DiagnosticLevel `json:"level"`
	Stage     DiagnosticStage `json:"stage"`
	Message   string          `json:"message"`
	Hint      string          `json:"hint,omitempty"`
	Retryable bool            `json:"retryable,omitempty"`
	LibraryID string          `json:"libraryId,omitempty"`
}

// HasErrors reports whether any diagnostic has error level.
func HasErrors(diagnostics []Diagnostic) bool {
	for _, d := range diagnostics {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}

// CloneDiagnostics returns a copy of the slice, or nil for an empty one.
func CloneDiagnostics(diagnostics []Diagnostic) []Diagnostic {
	if len(diagnostics) == 0 {
		return nil
	}
	return append([]Diagnostic(nil), diagnostics...)
}
