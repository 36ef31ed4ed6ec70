package ingest

import (
	"strings"

	platformstrings "gatepass/pkg/platform/strings"
)

// ValidationDetail carries field-level validation errors. It travels into the
// failure record verbatim so operators see exactly what was wrong.
type ValidationDetail map[string]string

// Normalized is a submission that passed validation, with every field in the
// form the rest of the pipeline expects.
//
// Email is the dedup identity: the submitter's account email, which is
// treated as authoritative even when it differs from the form-field email.
// FormEmail keeps the form's own value for the record.
type Normalized struct {
	Name            string
	Email           string
	FormEmail       string
	Phone           string
	TransactionID   string
	PaymentProofURL string
}

// Validate checks the submission shape and normalizes it. It returns either
// a normalized submission or a non-nil detail map, never both, and it never
// panics. Keeping validation a value-returning function (instead of an error
// control path) is what guarantees every failure reaches the dead-letter
// handler.
func Validate(sub Submission) (*Normalized, ValidationDetail) {
	detail := ValidationDetail{}

	submitter := strings.TrimSpace(sub.SubmitterEmail)
	if submitter == "" {
		detail["submitter_email"] = "submitter email is required"
	}
	if len(sub.Responses) == 0 {
		detail["responses"] = "response fields are required"
		return nil, detail
	}

	rawName := firstString(sub.Responses, nameFields)
	if rawName == "" {
		detail["full_name"] = "full name is required"
	}
	formEmail := firstString(sub.Responses, formEmailFields)
	if formEmail == "" {
		detail["college_email"] = "college email is required"
	}

	if len(detail) > 0 {
		return nil, detail
	}

	return &Normalized{
		Name:            platformstrings.TitleCaseName(rawName),
		Email:           submitter,
		FormEmail:       formEmail,
		Phone:           firstString(sub.Responses, phoneFields),
		TransactionID:   firstString(sub.Responses, transactionFields),
		PaymentProofURL: resolveScreenshot(sub.Responses),
	}, nil
}
