package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	authorisation "mandate/contexts/identity-access/authorisation-service"
	authzhttp "mandate/contexts/identity-access/authorisation-service/transport/http"
	role "mandate/contexts/identity-access/role-service"
	rolehttp "mandate/contexts/identity-access/role-service/transport/http"
	"mandate/internal/platform/auth"
	"mandate/internal/shared/principal"
)

const testJWTSecret = "test-secret"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(
		authorisation.NewInMemoryModule(nil),
		role.NewInMemoryModule(nil),
		auth.NewTokenParser(testJWTSecret),
		nil,
		":0",
	)
}

func doJSON(t *testing.T, server *Server, method string, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	r := httptest.NewRequest(method, path, reader)
	for key, value := range headers {
		r.Header.Set(key, value)
	}
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, r)
	return w
}

func decodeInto(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func agencyToken(t *testing.T, programs ...string) string {
	t.Helper()
	grants := make([]map[string]string, 0, len(programs))
	for _, program := range programs {
		grants = append(grants, map[string]string{"program": program, "role": principal.RoleAdmin})
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":           "agent-7",
		"display_name":  "Pat Reviewer",
		"agency":        "ATO",
		"program_roles": grants,
		"exp":           time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func TestInvitationFlowOverHTTP(t *testing.T) {
	server := newTestServer(t)

	w := doJSON(t, server, http.MethodPost, "/api/v1/businesses",
		authzhttp.RegisterBusinessRequest{BusinessNumber: "51824753556"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register business: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var subject authzhttp.IdentityResponse
	decodeInto(t, w, &subject)

	w = doJSON(t, server, http.MethodPost, "/api/v1/relationships/invitations",
		authzhttp.CreateInvitationRelationshipRequest{
			RelationshipType:   "ASSOCIATE",
			SubjectIDValue:     subject.IDValue,
			DelegateGivenName:  "Jane",
			DelegateFamilyName: "Doe",
			StartTimestamp:     time.Now().UTC().Add(-time.Hour),
		}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create invitation: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var relationship authzhttp.RelationshipResponse
	decodeInto(t, w, &relationship)
	if relationship.Status != "PENDING" {
		t.Fatalf("expected PENDING, got %s", relationship.Status)
	}

	w = doJSON(t, server, http.MethodPost, "/api/v1/identities",
		authzhttp.CreateIdentityRequest{
			PartyType:    "INDIVIDUAL",
			IdentityType: "LINK_ID",
			LinkIDScheme: "AUTH_PROVIDER",
			RawIDValue:   "user-jane",
			Profile:      authzhttp.ProfileDTO{GivenName: "Jane", FamilyName: "Doe"},
		}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create identity: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var claimant authzhttp.IdentityResponse
	decodeInto(t, w, &claimant)

	// Claimant id value and business number are back-filled from headers.
	claimPath := fmt.Sprintf("/api/v1/relationships/%s/claim", relationship.RelationshipID)
	w = doJSON(t, server, http.MethodPost, claimPath, authzhttp.ClaimRelationshipRequest{}, map[string]string{
		"X-Identity-Id-Value": claimant.IDValue,
		"X-Business-Number":   "51824753556",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("claim: expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	acceptPath := fmt.Sprintf("/api/v1/relationships/%s/accept", relationship.RelationshipID)
	w = doJSON(t, server, http.MethodPost, acceptPath, nil, map[string]string{
		"X-Identity-Id-Value": claimant.IDValue,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var accepted authzhttp.RelationshipResponse
	decodeInto(t, w, &accepted)
	if accepted.Status != "ACCEPTED" {
		t.Fatalf("expected ACCEPTED, got %s", accepted.Status)
	}

	// Repeating the accept maps the precondition failure to 409.
	w = doJSON(t, server, http.MethodPost, acceptPath, nil, map[string]string{
		"X-Identity-Id-Value": claimant.IDValue,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("repeat accept: expected 409, got %d", w.Code)
	}

	accessPath := "/api/v1/access/" + subject.IDValue
	w = doJSON(t, server, http.MethodGet, accessPath, nil, map[string]string{
		"X-Identity-Id-Value": claimant.IDValue,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("access: expected 200, got %d", w.Code)
	}
	var access authzhttp.AccessResponse
	decodeInto(t, w, &access)
	if !access.HasAccess {
		t.Fatalf("expected access granted")
	}
}

func TestUnknownRelationshipMapsTo404(t *testing.T) {
	server := newTestServer(t)

	w := doJSON(t, server, http.MethodGet, "/api/v1/relationships/no-such-id", nil, map[string]string{
		"X-Party-Id": "party-1",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var body authzhttp.ErrorResponse
	decodeInto(t, w, &body)
	if body.Code != "not_found" {
		t.Fatalf("expected not_found code, got %q", body.Code)
	}
}

func TestInvalidBearerTokenMapsTo401(t *testing.T) {
	server := newTestServer(t)

	w := doJSON(t, server, http.MethodGet, "/api/v1/relationships", nil, map[string]string{
		"Authorization": "Bearer garbage",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRoleRoutesRequireAgencyToken(t *testing.T) {
	server := newTestServer(t)

	request := rolehttp.RoleRequest{
		RoleType: "BUSINESS",
		PartyID:  "party-1",
		Attributes: []rolehttp.RoleAttributeDTO{
			{Code: "TAX_LODGEMENT_ACCESS", Value: "true"},
		},
	}

	// Without a token the caller is not agency staff: 403.
	w := doJSON(t, server, http.MethodPost, "/api/v1/roles", request, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without token, got %d", w.Code)
	}

	w = doJSON(t, server, http.MethodPost, "/api/v1/roles", request, map[string]string{
		"Authorization": "Bearer " + agencyToken(t, "TAX"),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d (%s)", w.Code, w.Body.String())
	}
	var created rolehttp.RoleResponse
	decodeInto(t, w, &created)
	if created.Status != "ACTIVE" {
		t.Fatalf("expected ACTIVE role, got %s", created.Status)
	}

	w = doJSON(t, server, http.MethodGet, "/api/v1/parties/party-1/roles", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 listing roles, got %d", w.Code)
	}
	var roles rolehttp.PartyRolesResponse
	decodeInto(t, w, &roles)
	if len(roles.Roles) != 1 {
		t.Fatalf("expected 1 role, got %d", len(roles.Roles))
	}
}
