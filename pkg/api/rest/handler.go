package rest

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rzbill/stockroom/pkg/catalog"
	"github.com/rzbill/stockroom/pkg/fields"
	"github.com/rzbill/stockroom/pkg/log"
	"github.com/rzbill/stockroom/pkg/types"
	"github.com/rzbill/stockroom/pkg/version"
)

// Handler serves the catalog over HTTP.
type Handler struct {
	svc    *catalog.Service
	logger log.Logger
}

// NewHandler creates a handler for svc.
func NewHandler(svc *catalog.Service, logger log.Logger) *Handler {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Handler{svc: svc, logger: logger.WithComponent("api")}
}

// RouterOptions configure NewRouter.
type RouterOptions struct {
	APIKeys        []string
	RequestTimeout time.Duration
}

// NewRouter mounts every route on a chi router behind the standard
// middleware chain.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(Chain(
		RequestID(),
		Recovery(h.logger),
		Logger(h.logger),
		CORS(),
		Timeout(opts.RequestTimeout),
	))

	r.Get("/healthz", h.health)
	r.Get("/version", h.versionInfo)

	r.Route("/v1", func(r chi.Router) {
		r.Use(APIKey(opts.APIKeys, h.logger))

		r.Post("/catalog", h.applyCatalog)

		r.Route("/{kind}", func(r chi.Router) {
			r.Get("/types", h.listTypes)
			r.Post("/types", h.createType)
			r.Route("/types/{typeID}", func(r chi.Router) {
				r.Get("/", h.getType)
				r.Patch("/", h.updateType)
				r.Delete("/", h.deleteType)
				r.Get("/history", h.typeHistory)
				r.Get("/fields", h.getFields)
				r.Put("/fields", h.saveFields)
				r.Post("/prefill", h.prefill)

				r.Get("/templates", h.listTemplates)
				r.Post("/templates", h.createTemplate)
				r.Get("/templates/{templateID}", h.getTemplate)
				r.Put("/templates/{templateID}", h.updateTemplate)
				r.Delete("/templates/{templateID}", h.deleteTemplate)
			})

			r.Get("/instances", h.listInstances)
			r.Post("/instances", h.createInstance)
			r.Get("/instances/{id}", h.getInstance)
			r.Put("/instances/{id}", h.updateInstance)
			r.Delete("/instances/{id}", h.deleteInstance)
		})
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) versionInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Map())
}

type typeRequest struct {
	Name         string                  `json:"name"`
	Description  string                  `json:"description"`
	CustomFields []types.FieldDefinition `json:"customFields"`
}

type fieldsRequest struct {
	CustomFields []types.FieldDefinition `json:"customFields"`
}

type fieldsResponse struct {
	TypeID       string                  `json:"typeId"`
	CustomFields []types.FieldDefinition `json:"customFields"`
}

func (h *Handler) listTypes(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	list, err := h.svc.ListTypes(r.Context(), kind)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) createType(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	var req typeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.svc.CreateType(r.Context(), &types.EntityType{
		Kind:         kind,
		Name:         req.Name,
		Description:  req.Description,
		CustomFields: req.CustomFields,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) getType(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	t, err := h.svc.GetType(r.Context(), kind, chi.URLParam(r, "typeID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) updateType(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	var req typeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.svc.UpdateType(r.Context(), kind, chi.URLParam(r, "typeID"), req.Name, req.Description)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) deleteType(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteType(r.Context(), kind, chi.URLParam(r, "typeID")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) typeHistory(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	versions, err := h.svc.TypeHistory(r.Context(), kind, chi.URLParam(r, "typeID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

func (h *Handler) getFields(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	typeID := chi.URLParam(r, "typeID")
	defs, err := h.svc.FieldDefinitions(r.Context(), kind, typeID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fieldsResponse{TypeID: typeID, CustomFields: defs})
}

// saveFields replaces the whole definition set of a type.
func (h *Handler) saveFields(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	var req fieldsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.svc.SaveFieldDefinitions(r.Context(), kind, chi.URLParam(r, "typeID"), req.CustomFields)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fieldsResponse{TypeID: t.ID, CustomFields: t.OrderedFields()})
}

func (h *Handler) prefill(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	var req catalog.PrefillRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Prefill(r.Context(), kind, chi.URLParam(r, "typeID"), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type templateRequest struct {
	Name           string             `json:"name"`
	ScalarDefaults types.ScalarFields `json:"scalarDefaults"`
	FieldValues    []types.FieldValue `json:"fieldValues"`
}

// ownerType resolves {typeID} within {kind}, so a type is only reachable
// under its own kind.
func (h *Handler) ownerType(w http.ResponseWriter, r *http.Request) (*types.EntityType, bool) {
	kind, ok := parseKind(w, r)
	if !ok {
		return nil, false
	}
	owner, err := h.svc.GetType(r.Context(), kind, chi.URLParam(r, "typeID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return nil, false
	}
	return owner, true
}

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.ownerType(w, r)
	if !ok {
		return
	}
	list, err := h.svc.ListTemplates(r.Context(), owner.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) createTemplate(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	var req templateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tpl, err := h.svc.CreateTemplate(r.Context(), kind, &types.Template{
		Name:           req.Name,
		OwnerTypeID:    chi.URLParam(r, "typeID"),
		ScalarDefaults: req.ScalarDefaults,
		FieldValues:    req.FieldValues,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

func (h *Handler) getTemplate(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.ownerType(w, r)
	if !ok {
		return
	}
	tpl, err := h.svc.GetTemplate(r.Context(), owner.ID, chi.URLParam(r, "templateID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (h *Handler) updateTemplate(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	var req templateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tpl, err := h.svc.UpdateTemplate(r.Context(), kind, &types.Template{
		ID:             chi.URLParam(r, "templateID"),
		Name:           req.Name,
		OwnerTypeID:    chi.URLParam(r, "typeID"),
		ScalarDefaults: req.ScalarDefaults,
		FieldValues:    req.FieldValues,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (h *Handler) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.ownerType(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteTemplate(r.Context(), owner.ID, chi.URLParam(r, "templateID")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// instanceResponse optionally carries the rendered custom fields.
type instanceResponse struct {
	*types.Instance
	Fields []fields.RenderedField `json:"fields,omitempty"`
}

func (h *Handler) listInstances(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	list, err := h.svc.ListInstances(r.Context(), kind, r.URL.Query().Get("typeId"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) createInstance(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	var req catalog.InstanceSubmission
	if !decodeJSON(w, r, &req) {
		return
	}
	inst, err := h.svc.CreateInstance(r.Context(), kind, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inst)
}

func (h *Handler) getInstance(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	inst, err := h.svc.GetInstance(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	resp := instanceResponse{Instance: inst}
	if r.URL.Query().Get("render") == "true" {
		resp.Fields, err = h.svc.RenderInstance(r.Context(), inst)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) updateInstance(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	var req catalog.InstanceSubmission
	if !decodeJSON(w, r, &req) {
		return
	}
	inst, err := h.svc.UpdateInstance(r.Context(), kind, chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (h *Handler) deleteInstance(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteInstance(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// applyCatalog accepts a YAML catalog file as the request body.
func (h *Handler) applyCatalog(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	cf, err := types.ParseCatalogFileFromBytes(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_CATALOG", err.Error())
		return
	}
	res, err := h.svc.ApplyCatalog(r.Context(), cf)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
