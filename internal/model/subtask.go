package model

import "fmt"

// Subtask answer type constants.
const (
	SubtaskTypeMultipleChoice = "multiple_choice"
	SubtaskTypeOpenAnswer     = "open_answer"
)

// Provided-file state constants for a subtask's supporting material.
const (
	FileNone    = "no_file"
	FileEmailed = "emailed"
	FileOnDisk  = "on_disk"
)

// Subtask is a single question/decision attached to a task, optionally
// assigned to a user and answered once.
//
// Invariant: FileReference is non-empty whenever ProvidedFile is not
// no_file. For emailed files it is the Message-ID of the carrying mail;
// for on-disk files it is a path relative to the attachments directory.
type Subtask struct {
	ID             string   `json:"id" db:"id"`
	TaskID         string   `json:"task_id" db:"task_id"`
	Question       string   `json:"question" db:"question"`
	Type           string   `json:"type" db:"type"`
	Options        []string `json:"options" db:"-"`
	AssignedTo     string   `json:"assigned_to,omitempty" db:"assigned_to"`
	Answered       bool     `json:"answered" db:"answered"`
	SelectedOption string   `json:"selected_option,omitempty" db:"selected_option"`
	ProvidedFile   string   `json:"provided_file" db:"provided_file"`
	FileReference  string   `json:"file_reference,omitempty" db:"file_reference"`
}

// HasOption reports whether opt is one of the subtask's choices.
func (s Subtask) HasOption(opt string) bool {
	for _, o := range s.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// Validate checks the subtask's structural invariants before it is sent
// to the server on create or update.
func (s Subtask) Validate() error {
	switch s.Type {
	case SubtaskTypeMultipleChoice:
		if len(s.Options) == 0 {
			return fmt.Errorf("multiple_choice subtask needs at least one option")
		}
	case SubtaskTypeOpenAnswer:
		if len(s.Options) > 0 {
			return fmt.Errorf("open_answer subtask must not carry options")
		}
	default:
		return fmt.Errorf("unknown subtask type %q", s.Type)
	}

	switch s.ProvidedFile {
	case FileNone:
	case FileEmailed, FileOnDisk:
		if s.FileReference == "" {
			return fmt.Errorf("subtask with provided_file=%s needs a file_reference", s.ProvidedFile)
		}
	default:
		return fmt.Errorf("unknown provided_file state %q", s.ProvidedFile)
	}

	return nil
}
