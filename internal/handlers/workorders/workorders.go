// Package workorders serves the technician work-order screens and the
// review workflow transitions.
package workorders

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpserver "github.com/uncleisme/mobile-app/internal/http"
	"github.com/uncleisme/mobile-app/internal/httpctx"
	"github.com/uncleisme/mobile-app/internal/models"
	"github.com/uncleisme/mobile-app/internal/repo"
	"github.com/uncleisme/mobile-app/internal/review"
	"github.com/uncleisme/mobile-app/internal/workorder"
)

const (
	maxUploadBytes = 32 << 20
	maxPhotos      = 10
)

type Store interface {
	ListWorkOrders(ctx context.Context, f repo.WorkOrderFilter) ([]models.WorkOrder, error)
	GetWorkOrder(ctx context.Context, id uuid.UUID) (models.WorkOrder, error)
	ListWorkOrderPhotos(ctx context.Context, id uuid.UUID) ([]models.WorkOrderPhoto, error)
}

type Workflow interface {
	Start(ctx context.Context, actor models.Profile, id uuid.UUID) (models.WorkOrder, error)
	Submit(ctx context.Context, actor models.Profile, id uuid.UUID, photos []review.Photo) (models.WorkOrder, error)
	Approve(ctx context.Context, actor models.Profile, id uuid.UUID) (models.WorkOrder, error)
	SendBack(ctx context.Context, actor models.Profile, id uuid.UUID) (models.WorkOrder, error)
}

// Names resolves reference ids for display.
type Names interface {
	LocationNames(ctx context.Context, ids []string) map[string]string
	ProfileNames(ctx context.Context, ids []string) map[string]string
}

type Handler struct {
	store    Store
	workflow Workflow
	names    Names
	now      func() time.Time
}

func New(store Store, workflow Workflow, names Names) *Handler {
	return &Handler{store: store, workflow: workflow, names: names, now: time.Now}
}

// Scoped lists the orders visible to actor: everything for admins and
// managers, only assigned orders for technicians.
func Scoped(ctx context.Context, store Store, actor models.Profile) ([]models.WorkOrder, error) {
	f := repo.WorkOrderFilter{}
	if !actor.Type.Elevated() {
		id := actor.ID
		f.AssignedTo = &id
	}
	return store.ListWorkOrders(ctx, f)
}

// List handles GET /work-orders?status=all|overdue|active|in_progress|review|done.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpctx.Profile(r.Context())
	if !ok {
		httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	list, err := Scoped(r.Context(), h.store, actor)
	if err != nil {
		httpserver.Fail(w, r, err, "Failed to load work orders.")
		return
	}
	now := h.now()
	list = workorder.Filter(list, r.URL.Query().Get("status"), now)
	httpserver.JSON(w, http.StatusOK, map[string]any{
		"content": Views(r.Context(), h.names, list, now),
		"counts":  workorder.CountByStatus(list),
	})
}

// Next handles GET /work-orders/next.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpctx.Profile(r.Context())
	if !ok {
		httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	list, err := Scoped(r.Context(), h.store, actor)
	if err != nil {
		httpserver.Fail(w, r, err, "Failed to load work orders.")
		return
	}
	now := h.now()
	wo, found := workorder.CurrentJob(list, now)
	if !found {
		httpserver.JSON(w, http.StatusOK, map[string]any{"job": nil})
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"job": Views(r.Context(), h.names, []models.WorkOrder{wo}, now)[0]})
}

// Get handles GET /work-orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.target(w, r)
	if !ok {
		return
	}
	wo, err := h.store.GetWorkOrder(r.Context(), id)
	if err != nil {
		httpserver.Fail(w, r, err, "Failed to load work order.")
		return
	}
	if !actor.Type.Elevated() && (wo.AssignedTo == nil || *wo.AssignedTo != actor.ID) {
		httpserver.Error(w, http.StatusForbidden, "forbidden")
		return
	}
	photos, err := h.store.ListWorkOrderPhotos(r.Context(), id)
	if err != nil {
		httpserver.Fail(w, r, err, "Failed to load work order photos.")
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{
		"work_order": Views(r.Context(), h.names, []models.WorkOrder{wo}, h.now())[0],
		"photos":     photos,
	})
}

// Start handles POST /work-orders/{id}/start.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.workflow.Start)
}

// Approve handles POST /work-orders/{id}/approve.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.workflow.Approve)
}

// SendBack handles POST /work-orders/{id}/send-back.
func (h *Handler) SendBack(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.workflow.SendBack)
}

// Complete handles POST /work-orders/{id}/complete with multipart photos[].
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.target(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		httpserver.Error(w, http.StatusBadRequest, "invalid upload")
		return
	}
	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = append(headers, r.MultipartForm.File["photos"]...)
		headers = append(headers, r.MultipartForm.File["photos[]"]...)
	}
	if len(headers) > maxPhotos {
		httpserver.Error(w, http.StatusBadRequest, "too many photos")
		return
	}

	photos := make([]review.Photo, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			httpserver.Error(w, http.StatusBadRequest, "invalid upload")
			return
		}
		defer f.Close()
		photos = append(photos, review.Photo{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}

	wo, err := h.workflow.Submit(r.Context(), actor, id, photos)
	if err != nil {
		writeWorkflowError(w, r, err)
		return
	}
	httpserver.JSON(w, http.StatusOK, Views(r.Context(), h.names, []models.WorkOrder{wo}, h.now())[0])
}

type transitionFunc func(ctx context.Context, actor models.Profile, id uuid.UUID) (models.WorkOrder, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	actor, id, ok := h.target(w, r)
	if !ok {
		return
	}
	wo, err := fn(r.Context(), actor, id)
	if err != nil {
		writeWorkflowError(w, r, err)
		return
	}
	httpserver.JSON(w, http.StatusOK, Views(r.Context(), h.names, []models.WorkOrder{wo}, h.now())[0])
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (models.Profile, uuid.UUID, bool) {
	actor, ok := httpctx.Profile(r.Context())
	if !ok {
		httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
		return models.Profile{}, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid work order id")
		return models.Profile{}, uuid.Nil, false
	}
	return actor, id, true
}

func writeWorkflowError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, review.ErrPhotoRequired):
		httpserver.Error(w, http.StatusBadRequest, "Please attach at least one photo before submitting.")
	case errors.Is(err, review.ErrInvalidTransition):
		httpserver.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, review.ErrForbidden):
		httpserver.Error(w, http.StatusForbidden, "forbidden")
	default:
		httpserver.Fail(w, r, err, "Failed to update work order.")
	}
}
