package validation

import (
	"net/mail"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"studyhub/internal/domain"
	"studyhub/internal/util"
)

const (
	maxTitleLength  = 200
	maxPasswordSize = 256
	// MaxUploadSize is the largest material file forwarded to the backend.
	MaxUploadSize = 20 << 20
)

// ExportFormats are the quiz export formats the backend accepts.
var ExportFormats = []string{"pdf", "csv", "json"}

var uploadExtensions = map[string]bool{
	".pdf": true, ".txt": true, ".md": true, ".docx": true, ".pptx": true,
}

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateLogin checks credentials before they are sent to the backend.
func (v *Validator) ValidateLogin(email, password string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(email) == "" {
		errors = append(errors, domain.NewMissingFieldError("email"))
	} else if _, err := mail.ParseAddress(email); err != nil {
		errors = append(errors, domain.NewInvalidFormatError("email", email))
	}

	if password == "" {
		errors = append(errors, domain.NewMissingFieldError("password"))
	} else if len(password) > maxPasswordSize {
		errors = append(errors, domain.NewValidationError("password", "is too long"))
	}

	return errors
}

// ValidateStudyTask checks a new study-plan entry. dueDate may be empty.
func (v *Validator) ValidateStudyTask(title, dueDate string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(title) == "" {
		errors = append(errors, domain.NewMissingFieldError("title"))
	} else if len(title) > maxTitleLength {
		errors = append(errors, domain.NewValidationError("title", "must be at most 200 characters"))
	}

	if dueDate != "" {
		if _, err := time.Parse(domain.DateLayout, dueDate); err != nil {
			errors = append(errors, domain.NewInvalidFormatError("due_date", dueDate))
		}
	}

	return errors
}

// ValidateAnswer checks an answer request; membership of the question and option
// in the loaded quiz is checked by the quiz flow itself.
func (v *Validator) ValidateAnswer(questionID int64, option string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if questionID <= 0 {
		errors = append(errors, domain.NewMissingFieldError("question_id"))
	}
	if strings.TrimSpace(option) == "" {
		errors = append(errors, domain.NewMissingFieldError("selected_option"))
	}

	return errors
}

// ValidateExport checks an export request.
func (v *Validator) ValidateExport(quizID int64, format string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if quizID <= 0 {
		errors = append(errors, domain.NewMissingFieldError("quiz"))
	}
	if !isExportFormat(format) {
		errors = append(errors, domain.NewInvalidFormatError("format", format))
	}

	return errors
}

// ValidateUpload checks a material upload before it is forwarded.
func (v *Validator) ValidateUpload(title string, topicID int64, fileName string, size int64) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(title) == "" {
		errors = append(errors, domain.NewMissingFieldError("title"))
	}
	if topicID <= 0 {
		errors = append(errors, domain.NewMissingFieldError("topic"))
	}

	switch {
	case fileName == "":
		errors = append(errors, domain.NewMissingFieldError("file"))
	case !uploadExtensions[strings.ToLower(filepath.Ext(fileName))]:
		errors = append(errors, domain.NewInvalidFormatError("file", fileName))
	case size <= 0 || size > MaxUploadSize:
		errors = append(errors, domain.NewValidationError("file", "must be between 1 byte and 20 MB"))
	}

	return errors
}

// ValidateID parses a positive numeric identifier such as a path parameter.
func (v *Validator) ValidateID(field, raw string) (int64, domain.ValidationErrors) {
	if strings.TrimSpace(raw) == "" {
		return 0, domain.ValidationErrors{domain.NewMissingFieldError(field)}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ValidationErrors{domain.NewInvalidFormatError(field, raw)}
	}
	return id, nil
}

// ValidateSessionID checks the format of a session cookie value.
func (v *Validator) ValidateSessionID(sid string) bool {
	return util.IsValidULID(sid)
}

func isExportFormat(format string) bool {
	for _, f := range ExportFormats {
		if f == format {
			return true
		}
	}
	return false
}
