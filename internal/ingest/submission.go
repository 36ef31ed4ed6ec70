// Package ingest normalizes inbound form submissions into participants, and
// routes anything that cannot be normalized to the dead-letter store. The
// resilience contract: no inbound submission is ever silently dropped; it
// either becomes a participant or a failure record.
package ingest

import (
	"fmt"
	"strings"

	platformstrings "gatepass/pkg/platform/strings"
)

// Submission is the wire shape of an inbound form webhook: the submitter's
// account email plus the named response fields of the form.
type Submission struct {
	SubmitterEmail string         `json:"submitter_email"`
	Responses      map[string]any `json:"responses"`
}

// Accepted spellings per logical field, in priority order. The form has
// shipped multiple casings of the same field over time; first match wins.
var (
	nameFields        = []string{"fullName", "Full Name", "name"}
	formEmailFields   = []string{"collegeEmail", "College Email", "email"}
	phoneFields       = []string{"phoneNumber", "PhoneNumber", "phone"}
	transactionFields = []string{"transactionId", "TransactionId", "transaction_id"}
	screenshotFields  = []string{"paymentScreenshot", "PaymentScreenshot", "screenshot"}
)

// Extracted holds best-effort fields pulled from a submission for a failure
// record. Extraction is total: missing, nil, or oddly-typed fields yield
// empty strings, never errors; a malformed payload must still produce a
// usable dead-letter entry.
type Extracted struct {
	Name            string
	Email           string
	Phone           string
	TransactionID   string
	PaymentProofURL string
}

// Extract pulls whatever identity and payment fields it can find. The
// submitter's account email is preferred as the extracted email, matching
// the identity rule used on the success path.
func Extract(sub Submission) Extracted {
	email := strings.TrimSpace(sub.SubmitterEmail)
	if email == "" {
		email = firstString(sub.Responses, formEmailFields)
	}
	return Extracted{
		Name:            platformstrings.TitleCaseName(firstString(sub.Responses, nameFields)),
		Email:           email,
		Phone:           firstString(sub.Responses, phoneFields),
		TransactionID:   firstString(sub.Responses, transactionFields),
		PaymentProofURL: resolveScreenshot(sub.Responses),
	}
}

// firstString returns the first non-empty string value among the candidate
// keys, trimmed. Non-string values are ignored.
func firstString(responses map[string]any, keys []string) string {
	for _, key := range keys {
		if v, ok := responses[key]; ok {
			if s := asString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func asString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// resolveScreenshot handles the two shapes the form delivers for uploads: a
// direct URL string, or an array whose first element is a file identifier
// (either the id itself or an object carrying one). In the array case a
// canonical viewer URL is synthesized from the id.
func resolveScreenshot(responses map[string]any) string {
	for _, key := range screenshotFields {
		v, ok := responses[key]
		if !ok {
			continue
		}
		switch value := v.(type) {
		case string:
			if s := strings.TrimSpace(value); s != "" {
				return s
			}
		case []any:
			if len(value) == 0 {
				continue
			}
			if id := asString(value[0]); id != "" {
				return viewerURL(id)
			}
			if obj, ok := value[0].(map[string]any); ok {
				if id := asString(obj["id"]); id != "" {
					return viewerURL(id)
				}
			}
		}
	}
	return ""
}

func viewerURL(fileID string) string {
	return fmt.Sprintf("https://drive.google.com/open?id=%s", fileID)
}
