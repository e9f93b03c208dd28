// Package api provides the HTTP RPC surface of the platform. Every operation
// is exposed as POST /rpc/geodb_<operation> with a JSON body, PostgREST
// style, so existing geodb clients keep working against the same paths.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"geolake/internal/query"
	"geolake/internal/service"
)

// Handler exposes the platform services over HTTP.
type Handler struct {
	databases    *service.DatabaseService
	collections  *service.CollectionService
	access       *service.AccessService
	provisioning *service.ProvisioningService
	usage        *service.UsageService
	queries      *query.Engine
	logger       *slog.Logger
}

func NewHandler(
	databases *service.DatabaseService,
	collections *service.CollectionService,
	access *service.AccessService,
	provisioning *service.ProvisioningService,
	usage *service.UsageService,
	queries *query.Engine,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		databases:    databases,
		collections:  collections,
		access:       access,
		provisioning: provisioning,
		usage:        usage,
		queries:      queries,
		logger:       logger,
	}
}

// Routes mounts every RPC operation on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.health)

	r.Route("/rpc", func(r chi.Router) {
		// namespaces
		r.Post("/geodb_create_database", h.createDatabase)
		r.Post("/geodb_truncate_database", h.truncateDatabase)
		r.Post("/geodb_list_databases", h.listDatabases)
		r.Post("/geodb_database_exists", h.databaseExists)
		r.Post("/geodb_user_allowed", h.userAllowed)

		// collections
		r.Post("/geodb_create_collection", h.createCollection)
		r.Post("/geodb_create_collections", h.createCollections)
		r.Post("/geodb_drop_collections", h.dropCollections)
		r.Post("/geodb_add_properties", h.addProperties)
		r.Post("/geodb_drop_properties", h.dropProperties)
		r.Post("/geodb_get_properties", h.getProperties)
		r.Post("/geodb_get_collections", h.getCollections)
		r.Post("/geodb_collection_exists", h.collectionExists)
		r.Post("/geodb_rename_collection", h.renameCollection)
		r.Post("/geodb_copy_collection", h.copyCollection)
		r.Post("/geodb_insert_into_collection", h.insertIntoCollection)
		r.Post("/geodb_update_collection", h.updateCollection)
		r.Post("/geodb_delete_from_collection", h.deleteFromCollection)

		// access control
		r.Post("/geodb_grant_access_to_collection", h.grantAccess)
		r.Post("/geodb_revoke_access_from_collection", h.revokeAccess)
		r.Post("/geodb_publish_collection", h.publishCollection)
		r.Post("/geodb_unpublish_collection", h.unpublishCollection)
		r.Post("/geodb_check_access", h.checkAccess)
		r.Post("/geodb_list_grants", h.listGrants)

		// queries
		r.Post("/geodb_get_pg", h.getPG)
		r.Post("/geodb_get_by_bbox", h.getByBbox)
		r.Post("/geodb_get_nearest", h.getNearest)
		r.Post("/geodb_get_collection_srid", h.getCollectionSRID)
		r.Post("/geodb_head_collection", h.headCollection)

		// provisioning and usage
		r.Post("/geodb_register_user", h.registerUser)
		r.Post("/geodb_user_exists", h.userExists)
		r.Post("/geodb_drop_user", h.dropUser)
		r.Post("/geodb_grant_user_admin", h.grantUserAdmin)
		r.Post("/geodb_check_user", h.checkUser)
		r.Post("/geodb_check_user_grants", h.checkUserGrants)
		r.Post("/geodb_get_my_usage", h.getMyUsage)
		r.Post("/geodb_log_sizes", h.logSizes)
	})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- helpers ---

func decode(r *http.Request, dst any) error {
	defer r.Body.Close() //nolint:errcheck
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRaw writes a pre-encoded JSON payload (query results come back as
// []byte from the engine and are not re-marshalled).
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]any{
		"code":    status,
		"message": err.Error(),
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"code":    http.StatusBadRequest,
		"message": "invalid request body: " + err.Error(),
	})
}
