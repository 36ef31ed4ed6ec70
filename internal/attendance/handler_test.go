package attendance

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	pmodels "gatepass/internal/participant/models"
	pstore "gatepass/internal/participant/store"
	"gatepass/internal/platform/logger"
	"gatepass/internal/ticket"
	"gatepass/pkg/testutil"
)

func newTestRouter(t *testing.T) (http.Handler, *pstore.Memory, *ticket.Codec) {
	t.Helper()
	participants := pstore.NewMemory()
	codec := ticket.NewCodec("gate-secret")
	h := NewHandler(New(participants, codec), logger.New())
	r := chi.NewRouter()
	h.Register(r)
	return r, participants, codec
}

func TestHandleVerifyMarksAttendance(t *testing.T) {
	router, participants, codec := newTestRouter(t)
	p := pmodels.New("Jane Doe", "jane@x.com", time.Now())
	require.NoError(t, participants.Create(context.Background(), p))

	req := testutil.NewJSONRequest(t, http.MethodPost, "/attendance/verify", ticket.Payload{
		Name:  "Jane Doe",
		Email: "jane@x.com",
		Sig:   codec.Sign("Jane Doe", "jane@x.com"),
	})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "result", string(KindMarked))
}

func TestHandleVerifyForgedSignatureIsStill200(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/attendance/verify", ticket.Payload{
		Name:  "Jane Doe",
		Email: "jane@x.com",
		Sig:   "deadbeef",
	})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "result", string(KindInvalidSignature))
}

func TestHandleVerifyMissingFields(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/attendance/verify",
		map[string]string{"name": "Jane Doe"})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestHandleToggleStatusNormalizesName(t *testing.T) {
	router, participants, _ := newTestRouter(t)
	p := pmodels.New("Jane Doe", "jane@x.com", time.Now())
	require.NoError(t, participants.Create(context.Background(), p))

	req := testutil.NewJSONRequest(t, http.MethodPost, "/attendance/toggle-status",
		map[string]string{"name": "  jane   doe ", "email": "jane@x.com"})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "status", string(pmodels.StatusVerified))
}
