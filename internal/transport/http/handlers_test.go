package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labtrace/internal/audit"
	"labtrace/internal/entity"
	"labtrace/internal/gateway"
	"labtrace/internal/gateway/lock"
	"labtrace/internal/lifecycle"
	"labtrace/internal/permission"
	"labtrace/internal/storage"
	"labtrace/pkg/domain"
	dErrors "labtrace/pkg/domain-errors"
	"labtrace/pkg/platform/httputil"
	"labtrace/pkg/requestcontext"
	"labtrace/pkg/testutil"
)

// staticVerifier resolves every token of the form "token-<role>" to a fresh
// actor with that role, keeping handler tests free of real JWTs.
type staticVerifier struct {
	actors map[string]domain.Actor
}

func newStaticVerifier() *staticVerifier {
	return &staticVerifier{actors: make(map[string]domain.Actor)}
}

func (v *staticVerifier) actorFor(role domain.Role) (string, domain.Actor) {
	token := "token-" + string(role)
	actor, ok := v.actors[token]
	if !ok {
		actor = testutil.NewActor(role)
		v.actors[token] = actor
	}
	return token, actor
}

func (v *staticVerifier) Verify(tokenString string) (domain.Actor, error) {
	actor, ok := v.actors[tokenString]
	if !ok {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	return actor, nil
}

func newTestGateway(t *testing.T) *gateway.Gateway {
	t.Helper()

	perms, err := permission.New(permission.DefaultTable())
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	store := storage.NewInMemoryStore()
	trail := audit.NewService(audit.NewInMemoryStore(), logger, 0)
	return gateway.New(perms, store, store, trail, lock.NewKeyedMutex(), logger, nil)
}

func newTestRouter(t *testing.T) (chi.Router, *staticVerifier) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	verifier := newStaticVerifier()
	return NewRouter(NewHandler(newTestGateway(t), logger), verifier, logger), verifier
}

func doAs(t *testing.T, router http.Handler, verifier *staticVerifier, role domain.Role, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	token, _ := verifier.actorFor(role)
	req := testutil.NewJSONRequest(t, method, path, body)
	req.Header.Set("Authorization", "Bearer "+token)
	return testutil.DoRequest(router, req)
}

func TestCreateSampleEndpoint(t *testing.T) {
	router, verifier := newTestRouter(t)

	resp := doAs(t, router, verifier, domain.RolePI, http.MethodPost, "/api/v1/samples", createRequest{
		Payload: map[string]string{"name": "Sodium Chloride Batch", "material": "inorganic", "location": "Lab A"},
	})

	require.Equal(t, http.StatusCreated, resp.Code)
	sample := testutil.DecodeJSON[struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}](t, resp)
	assert.Contains(t, sample.ID, "INO-")
	assert.Equal(t, "pending", sample.Status)
}

func TestCreateDeniedForViewer(t *testing.T) {
	router, verifier := newTestRouter(t)

	resp := doAs(t, router, verifier, domain.RoleViewer, http.MethodPost, "/api/v1/samples", createRequest{
		Payload: map[string]string{"name": "Sodium Chloride Batch"},
	})

	require.Equal(t, http.StatusForbidden, resp.Code)
	body := testutil.DecodeJSON[httputil.ErrorResponse](t, resp)
	assert.Equal(t, string(dErrors.CodePermissionDenied), body.Error)
}

func TestTransitionEndpoint(t *testing.T) {
	router, verifier := newTestRouter(t)

	created := doAs(t, router, verifier, domain.RolePI, http.MethodPost, "/api/v1/samples", createRequest{
		Payload: map[string]string{"name": "Sodium Chloride Batch"},
	})
	require.Equal(t, http.StatusCreated, created.Code)
	sample := testutil.DecodeJSON[struct {
		ID string `json:"id"`
	}](t, created)

	resp := doAs(t, router, verifier, domain.RolePI, http.MethodPost, "/api/v1/samples/"+sample.ID+"/transitions", transitionRequest{
		Transition: "start",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	moved := testutil.DecodeJSON[struct {
		Status string `json:"status"`
	}](t, resp)
	assert.Equal(t, "in_progress", moved.Status)
}

func TestTransitionConflict(t *testing.T) {
	router, verifier := newTestRouter(t)

	created := doAs(t, router, verifier, domain.RolePI, http.MethodPost, "/api/v1/samples", createRequest{
		Payload: map[string]string{"name": "Sodium Chloride Batch"},
	})
	sample := testutil.DecodeJSON[struct {
		ID string `json:"id"`
	}](t, created)

	resp := doAs(t, router, verifier, domain.RolePI, http.MethodPost, "/api/v1/samples/"+sample.ID+"/transitions", transitionRequest{
		Transition: "complete",
	})
	require.Equal(t, http.StatusConflict, resp.Code)
	body := testutil.DecodeJSON[httputil.ErrorResponse](t, resp)
	assert.Equal(t, string(dErrors.CodeIllegalTransition), body.Error)
}

func TestUnknownKindIs404(t *testing.T) {
	router, verifier := newTestRouter(t)

	resp := doAs(t, router, verifier, domain.RolePI, http.MethodPost, "/api/v1/reagents", createRequest{})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestUnauthenticatedRequestIs401(t *testing.T) {
	router, _ := newTestRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodGet, "/api/v1/permissions", nil)
	rr := testutil.DoRequest(router, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestPermissionsEndpoint(t *testing.T) {
	router, verifier := newTestRouter(t)

	resp := doAs(t, router, verifier, domain.RoleViewer, http.MethodGet, "/api/v1/permissions", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	grants := testutil.DecodeJSON[[]permission.Grant](t, resp)
	assert.Len(t, grants, len(domain.Roles())*len(domain.Capabilities()))
}

func TestAuditEndpointGated(t *testing.T) {
	router, verifier := newTestRouter(t)

	doAs(t, router, verifier, domain.RolePI, http.MethodPost, "/api/v1/samples", createRequest{
		Payload: map[string]string{"name": "Sodium Chloride Batch"},
	})

	denied := doAs(t, router, verifier, domain.RoleJuniorChemist, http.MethodGet, "/api/v1/audit", nil)
	assert.Equal(t, http.StatusForbidden, denied.Code)

	allowed := doAs(t, router, verifier, domain.RoleQA, http.MethodGet, "/api/v1/audit?category=security", nil)
	require.Equal(t, http.StatusOK, allowed.Code)
	recs := testutil.DecodeJSON[[]audit.Record](t, allowed)
	require.Len(t, recs, 1)
	assert.Equal(t, audit.OutcomeDeniedPermission, recs[0].Outcome)
}

// Exercises the audit handler directly, with the actor planted in the
// request context the way the auth middleware would.
func TestAuditQueryHandler_ActorInContext(t *testing.T) {
	gw := newTestGateway(t)
	h := NewHandler(gw, slog.New(slog.DiscardHandler))

	testutil.Given(t, "a denied mutation on the trail", func(t *testing.T) {
		viewer := testutil.NewActor(domain.RoleViewer)
		_, err := gw.Apply(requestcontext.WithActor(context.Background(), viewer), gateway.Intent{
			Kind:       domain.KindSample,
			Transition: lifecycle.Create,
			Payload:    entity.Payload{"name": "Sodium Chloride Batch"},
		})
		require.Error(t, err)

		testutil.When(t, "a qa actor queries the security category", func(t *testing.T) {
			req := testutil.WithActor(
				testutil.NewJSONRequest(t, http.MethodGet, "/audit?category=security", nil),
				testutil.NewActor(domain.RoleQA),
			)
			rr := testutil.DoRequest(http.HandlerFunc(h.handleAuditQuery), req)

			testutil.Then(t, "the denied attempt is returned", func(t *testing.T) {
				require.Equal(t, http.StatusOK, rr.Code)
				recs := testutil.DecodeJSON[[]audit.Record](t, rr)
				require.Len(t, recs, 1)
				assert.Equal(t, audit.OutcomeDeniedPermission, recs[0].Outcome)
				assert.Equal(t, viewer.ID, recs[0].ActorID)
			})
		})
	})
}

func TestNotebookAccessEndpoint(t *testing.T) {
	router, verifier := newTestRouter(t)

	created := doAs(t, router, verifier, domain.RolePI, http.MethodPost, "/api/v1/notebooks", createRequest{
		Payload: map[string]string{"name": "Process Development"},
	})
	require.Equal(t, http.StatusCreated, created.Code)
	nb := testutil.DecodeJSON[struct {
		ID string `json:"id"`
	}](t, created)

	member := domain.NewActorID()
	resp := doAs(t, router, verifier, domain.RolePI, http.MethodPost, "/api/v1/notebooks/"+nb.ID+"/access", accessRequest{
		UserID: member.String(),
		Action: "grant",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	updated := testutil.DecodeJSON[struct {
		Granted map[string]bool `json:"granted_user_ids"`
	}](t, resp)
	assert.True(t, updated.Granted[member.String()])
}

func TestRoleChangeEndpoint(t *testing.T) {
	router, verifier := newTestRouter(t)

	created := doAs(t, router, verifier, domain.RoleAdmin, http.MethodPost, "/api/v1/users", createRequest{
		Payload: map[string]string{"name": "Dana Osei", "email": "dosei@lab.example", "role": "analyst"},
	})
	require.Equal(t, http.StatusCreated, created.Code)
	user := testutil.DecodeJSON[struct {
		ID string `json:"id"`
	}](t, created)

	resp := doAs(t, router, verifier, domain.RoleAdmin, http.MethodPost, "/api/v1/users/"+user.ID+"/role", roleChangeRequest{Role: "qa"})
	require.Equal(t, http.StatusOK, resp.Code)

	updated := testutil.DecodeJSON[struct {
		Role string `json:"role"`
	}](t, resp)
	assert.Equal(t, "qa", updated.Role)
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil)
	rr := testutil.DoRequest(router, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
