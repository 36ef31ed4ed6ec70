package ingest

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"gatepass/internal/audit"
	dlstore "gatepass/internal/deadletter/store"
	pstore "gatepass/internal/participant/store"
	"gatepass/internal/platform/logger"
	"gatepass/pkg/testutil"
)

func newTestHandler(webhookToken string) http.Handler {
	pipeline := NewPipeline(pstore.NewMemory(), dlstore.NewMemory(),
		WithAuditPublisher(audit.NewMemoryPublisher()))
	h := NewHandler(pipeline, logger.New(), webhookToken)
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestHandleSubmissionCreated(t *testing.T) {
	router := newTestHandler("")

	req := testutil.NewJSONRequest(t, http.MethodPost, "/webhook/submissions", Submission{
		SubmitterEmail: "jane@x.com",
		Responses: map[string]any{
			"fullName":     "jane doe",
			"collegeEmail": "jane.doe@college.edu",
		},
	})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "status", "created")
}

func TestHandleSubmissionMalformedStillSucceeds(t *testing.T) {
	router := newTestHandler("")

	req := testutil.NewRequestWithBody(t, http.MethodPost, "/webhook/submissions",
		"application/json", "{definitely not json")
	rr := testutil.DoRequest(router, req)

	// The payload was durably captured as a failure record, so the sender
	// sees success; retries would not fix malformed data.
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "status", "failure_recorded")
}

func TestHandleSubmissionRejectsBadBearer(t *testing.T) {
	router := newTestHandler("hook-secret")

	req := testutil.NewJSONRequest(t, http.MethodPost, "/webhook/submissions", Submission{})
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)

	req = testutil.NewJSONRequest(t, http.MethodPost, "/webhook/submissions", Submission{})
	req.Header.Set("Authorization", "Bearer wrong")
	rr = testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestHandleSubmissionAcceptsGoodBearer(t *testing.T) {
	router := newTestHandler("hook-secret")

	req := testutil.NewJSONRequest(t, http.MethodPost, "/webhook/submissions", Submission{
		SubmitterEmail: "jane@x.com",
		Responses: map[string]any{
			"fullName":     "jane doe",
			"collegeEmail": "jane.doe@college.edu",
		},
	})
	req.Header.Set("Authorization", "Bearer hook-secret")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "status", "created")
}
