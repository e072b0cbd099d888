package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	authorisation "mandate/contexts/identity-access/authorisation-service"
	authzentities "mandate/contexts/identity-access/authorisation-service/domain/entities"
	authzerrors "mandate/contexts/identity-access/authorisation-service/domain/errors"
	authzports "mandate/contexts/identity-access/authorisation-service/ports"
	authzhttp "mandate/contexts/identity-access/authorisation-service/transport/http"
	role "mandate/contexts/identity-access/role-service"
	roleerrors "mandate/contexts/identity-access/role-service/domain/errors"
	rolehttp "mandate/contexts/identity-access/role-service/transport/http"
	"mandate/internal/platform/auth"
	"mandate/internal/shared/principal"
)

type Server struct {
	mux           *http.ServeMux
	logger        *slog.Logger
	addr          string
	authorisation authorisation.Module
	roles         role.Module
	tokens        *auth.TokenParser
}

func New(
	authorisationModule authorisation.Module,
	roleModule role.Module,
	tokens *auth.TokenParser,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:           http.NewServeMux(),
		logger:        logger,
		addr:          addr,
		authorisation: authorisationModule,
		roles:         roleModule,
		tokens:        tokens,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/v1/identities", s.handleCreateIdentity)
	s.mux.HandleFunc("GET /api/v1/identities/{id_value}", s.handleGetIdentity)

	s.mux.HandleFunc("POST /api/v1/relationships/invitations", s.handleCreateInvitationRelationship)
	s.mux.HandleFunc("POST /api/v1/relationships", s.handleCreateRelationship)
	s.mux.HandleFunc("GET /api/v1/relationships", s.handleSearchRelationships)
	s.mux.HandleFunc("GET /api/v1/relationships/{relationship_id}", s.handleGetRelationship)
	s.mux.HandleFunc("PUT /api/v1/relationships/{relationship_id}", s.handleModifyRelationship)
	s.mux.HandleFunc("POST /api/v1/relationships/{relationship_id}/claim", s.handleClaimRelationship)
	s.mux.HandleFunc("POST /api/v1/relationships/{relationship_id}/accept", s.handleAcceptRelationship)
	s.mux.HandleFunc("POST /api/v1/relationships/{relationship_id}/reject", s.handleRejectRelationship)
	s.mux.HandleFunc("POST /api/v1/relationships/{relationship_id}/notify", s.handleNotifyDelegate)

	s.mux.HandleFunc("GET /api/v1/access/{id_value}", s.handleCheckAccess)

	s.mux.HandleFunc("POST /api/v1/businesses", s.handleRegisterBusiness)
	s.mux.HandleFunc("GET /api/v1/businesses", s.handleSearchBusinesses)

	s.mux.HandleFunc("POST /api/v1/roles", s.handleAddOrModifyRole)
	s.mux.HandleFunc("PUT /api/v1/roles", s.handleModifyRole)
	s.mux.HandleFunc("GET /api/v1/parties/{party_id}/roles", s.handleGetPartyRoles)
}

func (s *Server) resolvePrincipal(w http.ResponseWriter, r *http.Request) (principal.Principal, bool) {
	caller, err := s.tokens.ResolvePrincipal(r)
	if err != nil {
		writeAuthzError(w, http.StatusUnauthorized, "invalid_agency_token", "agency bearer token is invalid")
		return principal.Principal{}, false
	}
	return caller, true
}

func (s *Server) handleCreateIdentity(w http.ResponseWriter, r *http.Request) {
	var req authzhttp.CreateIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthzError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.authorisation.Handler.CreateIdentityHandler(r.Context(), req)
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetIdentity(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.resolvePrincipal(w, r)
	if !ok {
		return
	}
	resp, err := s.authorisation.Handler.GetIdentityHandler(r.Context(), caller, r.PathValue("id_value"))
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateInvitationRelationship(w http.ResponseWriter, r *http.Request) {
	var req authzhttp.CreateInvitationRelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthzError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.authorisation.Handler.CreateInvitationRelationshipHandler(r.Context(), req)
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCreateRelationship(w http.ResponseWriter, r *http.Request) {
	var req authzhttp.CreateRelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthzError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.authorisation.Handler.CreateRelationshipHandler(r.Context(), req)
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleSearchRelationships(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.resolvePrincipal(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := authzports.RelationshipFilter{
		PartyID:         query.Get("party_id"),
		PartyType:       authzentities.PartyType(strings.ToUpper(query.Get("party_type"))),
		TypeCode:        query.Get("type_code"),
		TypeCategory:    authzentities.RelationshipTypeCategory(strings.ToUpper(query.Get("category"))),
		ProfileProvider: query.Get("provider"),
		Status:          authzentities.RelationshipStatus(strings.ToUpper(query.Get("status"))),
		Text:            query.Get("text"),
	}
	if raw := query.Get("as_of"); raw != "" {
		asOf, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeAuthzError(w, http.StatusBadRequest, "invalid_as_of", "as_of must be RFC 3339")
			return
		}
		filter.InDateRangeAsOf = &asOf
	}

	page := authzports.Page{}
	if raw := query.Get("page"); raw != "" {
		number, err := strconv.Atoi(raw)
		if err != nil {
			writeAuthzError(w, http.StatusBadRequest, "invalid_page", "page must be an integer")
			return
		}
		page.Number = number
	}
	if raw := query.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			writeAuthzError(w, http.StatusBadRequest, "invalid_page_size", "page_size must be an integer")
			return
		}
		page.Size = size
	}

	resp, err := s.authorisation.Handler.SearchRelationshipsHandler(r.Context(), caller, filter, page)
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRelationship(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.resolvePrincipal(w, r)
	if !ok {
		return
	}
	resp, err := s.authorisation.Handler.GetRelationshipHandler(r.Context(), caller, r.PathValue("relationship_id"))
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleModifyRelationship(w http.ResponseWriter, r *http.Request) {
	var req authzhttp.ModifyRelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthzError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.authorisation.Handler.ModifyRelationshipHandler(r.Context(), r.PathValue("relationship_id"), req)
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClaimRelationship(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.resolvePrincipal(w, r)
	if !ok {
		return
	}

	var req authzhttp.ClaimRelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthzError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.ClaimantIDValue) == "" {
		req.ClaimantIDValue = caller.IdentityIDValue
	}
	if strings.TrimSpace(req.BusinessNumber) == "" {
		req.BusinessNumber = caller.BusinessNumber
	}

	resp, err := s.authorisation.Handler.ClaimRelationshipHandler(r.Context(), r.PathValue("relationship_id"), req)
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAcceptRelationship(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.resolvePrincipal(w, r)
	if !ok {
		return
	}
	resp, err := s.authorisation.Handler.AcceptRelationshipHandler(r.Context(), caller, r.PathValue("relationship_id"))
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRejectRelationship(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.resolvePrincipal(w, r)
	if !ok {
		return
	}
	resp, err := s.authorisation.Handler.RejectRelationshipHandler(r.Context(), caller, r.PathValue("relationship_id"))
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNotifyDelegate(w http.ResponseWriter, r *http.Request) {
	var req authzhttp.NotifyDelegateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthzError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.authorisation.Handler.NotifyDelegateHandler(r.Context(), r.PathValue("relationship_id"), req); err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleCheckAccess(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.resolvePrincipal(w, r)
	if !ok {
		return
	}
	resp, err := s.authorisation.Handler.CheckAccessHandler(r.Context(), caller, r.PathValue("id_value"))
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterBusiness(w http.ResponseWriter, r *http.Request) {
	var req authzhttp.RegisterBusinessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthzError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.authorisation.Handler.RegisterBusinessHandler(r.Context(), req)
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleSearchBusinesses(w http.ResponseWriter, r *http.Request) {
	records, err := s.authorisation.Handler.SearchBusinessHandler(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleAddOrModifyRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.resolvePrincipal(w, r)
	if !ok {
		return
	}
	var req rolehttp.RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRoleError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.roles.Handler.AddOrModifyRoleHandler(r.Context(), caller, req)
	if err != nil {
		writeRoleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleModifyRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.resolvePrincipal(w, r)
	if !ok {
		return
	}
	var req rolehttp.RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRoleError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.roles.Handler.ModifyRoleHandler(r.Context(), caller, req)
	if err != nil {
		writeRoleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPartyRoles(w http.ResponseWriter, r *http.Request) {
	resp, err := s.roles.Handler.GetPartyRolesHandler(r.Context(), r.PathValue("party_id"))
	if err != nil {
		writeRoleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeAuthzDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authzerrors.ErrPartyNotFound),
		errors.Is(err, authzerrors.ErrIdentityNotFound),
		errors.Is(err, authzerrors.ErrRelationshipNotFound),
		errors.Is(err, authzerrors.ErrRelationshipTypeNotFound),
		errors.Is(err, authzerrors.ErrBusinessNotFound):
		writeAuthzError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, authzerrors.ErrRelationshipNotPending),
		errors.Is(err, authzerrors.ErrNotCurrentDelegate),
		errors.Is(err, authzerrors.ErrInvitationNotClaimable),
		errors.Is(err, authzerrors.ErrInvitationExpired),
		errors.Is(err, authzerrors.ErrClaimantNameMismatch),
		errors.Is(err, authzerrors.ErrBusinessNumberMismatch),
		errors.Is(err, authzerrors.ErrInvitationIdentityMissing):
		writeAuthzError(w, http.StatusConflict, "precondition_failed", err.Error())
	case errors.Is(err, authzerrors.ErrAccessDenied):
		writeAuthzError(w, http.StatusForbidden, "access_denied", err.Error())
	case errors.Is(err, authzerrors.ErrInvalidIdentityInput),
		errors.Is(err, authzerrors.ErrInvalidRelationshipInput),
		errors.Is(err, authzerrors.ErrInvalidSearchFilter):
		writeAuthzError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeAuthzError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRoleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, roleerrors.ErrRoleNotFound),
		errors.Is(err, roleerrors.ErrRoleTypeNotFound):
		writeRoleError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, roleerrors.ErrAccessDenied):
		writeRoleError(w, http.StatusForbidden, "access_denied", err.Error())
	case errors.Is(err, roleerrors.ErrInvalidRoleInput):
		writeRoleError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeRoleError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAuthzError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, authzhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeRoleError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, rolehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
