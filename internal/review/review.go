// Package review implements the technician → admin completion workflow.
//
// Every transition is one status update. The audit notification and the
// push/realtime fan-out that follow it are best-effort: they run in the
// background, failures are logged, and the status change is never undone.
package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/uncleisme/mobile-app/internal/models"
	"github.com/uncleisme/mobile-app/internal/storage"
	"github.com/uncleisme/mobile-app/internal/workorder"
)

var (
	ErrPhotoRequired     = errors.New("at least one completion photo is required")
	ErrInvalidTransition = errors.New("work order is not in a state that allows this action")
	ErrForbidden         = errors.New("not allowed to act on this work order")
)

// Notification actions written by the workflow.
const (
	ActionStarted  = "started"
	ActionReview   = "review"
	ActionApproved = "approved"
	ActionRejected = "rejected"

	Module = "Work Order"
)

type Store interface {
	GetWorkOrder(ctx context.Context, id uuid.UUID) (models.WorkOrder, error)
	UpdateWorkOrderStatus(ctx context.Context, id uuid.UUID, status string) (models.WorkOrder, error)
	AddWorkOrderPhotos(ctx context.Context, id uuid.UUID, uploadedBy uuid.UUID, urls []string) error
	ListProfilesByRole(ctx context.Context, roles ...models.Role) ([]models.Profile, error)
}

type Auditor interface {
	InsertNotification(ctx context.Context, n models.NewNotification) (models.Notification, error)
}

type PhotoStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// Notifier delivers a stored notification to its recipients.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

// Notifiers fans a notification out to several notifiers in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, n models.Notification) {
	for _, x := range ns {
		if x != nil {
			x.Notify(ctx, n)
		}
	}
}

// Photo is one uploaded completion photo.
type Photo struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Workflow struct {
	store    Store
	audit    Auditor
	photos   PhotoStore
	notifier Notifier
	timeout  time.Duration

	wg sync.WaitGroup
}

// New wires a workflow. notifier may be nil.
func New(store Store, audit Auditor, photos PhotoStore, notifier Notifier) *Workflow {
	return &Workflow{store: store, audit: audit, photos: photos, notifier: notifier, timeout: 15 * time.Second}
}

// Wait blocks until every background audit task has finished.
func (w *Workflow) Wait() { w.wg.Wait() }

// Start moves an active order to in_progress.
func (w *Workflow) Start(ctx context.Context, actor models.Profile, id uuid.UUID) (models.WorkOrder, error) {
	wo, err := w.load(ctx, actor, id)
	if err != nil {
		return models.WorkOrder{}, err
	}
	if workorder.NormalizeStatus(wo.Status) != workorder.StatusActive {
		return models.WorkOrder{}, fmt.Errorf("start %s: %w", wo.DisplayCode(), ErrInvalidTransition)
	}
	updated, err := w.store.UpdateWorkOrderStatus(ctx, id, string(workorder.StatusInProgress))
	if err != nil {
		return models.WorkOrder{}, fmt.Errorf("start %s: %w", wo.DisplayCode(), err)
	}
	slog.InfoContext(ctx, "work order started", "id", id.String(), "code", wo.DisplayCode())

	actorID := actor.ID
	n := models.NewNotification{
		Module:   Module,
		Action:   ActionStarted,
		EntityID: id.String(),
		Message:  fmt.Sprintf("Work order %s started by %s", wo.DisplayCode(), actor.DisplayName()),
		UserID:   &actorID,
	}
	if wo.RequestedBy != nil {
		n.Recipients = []uuid.UUID{*wo.RequestedBy}
	}
	w.background(ctx, ActionStarted, func(ctx context.Context) { w.record(ctx, n) })
	return updated, nil
}

// Submit uploads the photos, records them and moves the order to review.
// A call without photos is rejected before anything is read or written.
func (w *Workflow) Submit(ctx context.Context, actor models.Profile, id uuid.UUID, photos []Photo) (models.WorkOrder, error) {
	if len(photos) == 0 {
		return models.WorkOrder{}, ErrPhotoRequired
	}
	wo, err := w.load(ctx, actor, id)
	if err != nil {
		return models.WorkOrder{}, err
	}
	if !workorder.Completable(workorder.NormalizeStatus(wo.Status)) {
		return models.WorkOrder{}, fmt.Errorf("submit %s: %w", wo.DisplayCode(), ErrInvalidTransition)
	}

	urls := make([]string, 0, len(photos))
	for _, p := range photos {
		url, err := w.photos.Put(ctx, storage.PhotoKey(id, p.Name), p.Body, p.Size, p.ContentType)
		if err != nil {
			return models.WorkOrder{}, fmt.Errorf("upload photo %q: %w", p.Name, err)
		}
		urls = append(urls, url)
	}
	if err := w.store.AddWorkOrderPhotos(ctx, id, actor.ID, urls); err != nil {
		return models.WorkOrder{}, fmt.Errorf("record photos: %w", err)
	}

	updated, err := w.store.UpdateWorkOrderStatus(ctx, id, string(workorder.StatusReview))
	if err != nil {
		return models.WorkOrder{}, fmt.Errorf("submit %s: %w", wo.DisplayCode(), err)
	}
	slog.InfoContext(ctx, "work order submitted for review", "id", id.String(), "code", wo.DisplayCode(), "photos", len(urls))

	actorID := actor.ID
	w.background(ctx, "review", func(ctx context.Context) {
		var recipients []uuid.UUID
		reviewers, err := w.store.ListProfilesByRole(ctx, models.RoleAdmin, models.RoleManager)
		if err != nil {
			slog.WarnContext(ctx, "reviewer lookup failed", "err", err)
		}
		for _, p := range reviewers {
			recipients = append(recipients, p.ID)
		}
		w.record(ctx, models.NewNotification{
			Module:     Module,
			Action:     ActionReview,
			EntityID:   id.String(),
			Message:    fmt.Sprintf("Work order %s submitted for review by %s", wo.DisplayCode(), actor.DisplayName()),
			UserID:     &actorID,
			Recipients: recipients,
		})
	})
	return updated, nil
}

// Approve moves a review item to done.
func (w *Workflow) Approve(ctx context.Context, actor models.Profile, id uuid.UUID) (models.WorkOrder, error) {
	return w.decide(ctx, actor, id, workorder.StatusDone, ActionApproved, "Work order %s approved")
}

// SendBack returns a review item to in_progress.
func (w *Workflow) SendBack(ctx context.Context, actor models.Profile, id uuid.UUID) (models.WorkOrder, error) {
	return w.decide(ctx, actor, id, workorder.StatusInProgress, ActionRejected, "Work order %s sent back for rework")
}

func (w *Workflow) decide(ctx context.Context, actor models.Profile, id uuid.UUID, next workorder.Status, action, format string) (models.WorkOrder, error) {
	if !actor.Type.Elevated() {
		return models.WorkOrder{}, ErrForbidden
	}
	wo, err := w.load(ctx, actor, id)
	if err != nil {
		return models.WorkOrder{}, err
	}
	if !workorder.Reviewable(workorder.NormalizeStatus(wo.Status)) {
		return models.WorkOrder{}, fmt.Errorf("%s %s: %w", action, wo.DisplayCode(), ErrInvalidTransition)
	}
	updated, err := w.store.UpdateWorkOrderStatus(ctx, id, string(next))
	if err != nil {
		return models.WorkOrder{}, fmt.Errorf("%s %s: %w", action, wo.DisplayCode(), err)
	}
	slog.InfoContext(ctx, "work order reviewed", "id", id.String(), "code", wo.DisplayCode(), "action", action)

	n := models.NewNotification{
		Module:   Module,
		Action:   action,
		EntityID: id.String(),
		Message:  fmt.Sprintf(format, wo.DisplayCode()),
	}
	if wo.AssignedTo != nil {
		assignee := *wo.AssignedTo
		n.UserID = &assignee
		n.Recipients = []uuid.UUID{assignee}
	}
	w.background(ctx, action, func(ctx context.Context) { w.record(ctx, n) })
	return updated, nil
}

// load fetches the order and checks the actor may touch it.
func (w *Workflow) load(ctx context.Context, actor models.Profile, id uuid.UUID) (models.WorkOrder, error) {
	wo, err := w.store.GetWorkOrder(ctx, id)
	if err != nil {
		return models.WorkOrder{}, err
	}
	if !actor.Type.Elevated() && (wo.AssignedTo == nil || *wo.AssignedTo != actor.ID) {
		return models.WorkOrder{}, ErrForbidden
	}
	return wo, nil
}

func (w *Workflow) record(ctx context.Context, n models.NewNotification) {
	stored, err := w.audit.InsertNotification(ctx, n)
	if err != nil {
		slog.ErrorContext(ctx, "audit notification failed", "action", n.Action, "entity_id", n.EntityID, "err", err)
		return
	}
	if w.notifier != nil {
		w.notifier.Notify(ctx, stored)
	}
}

// background runs fn on a context detached from the request's cancellation.
func (w *Workflow) background(ctx context.Context, name string, fn func(context.Context)) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(ctx, "background task panicked", "task", name, "panic", rec)
			}
		}()
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
		defer cancel()
		fn(bg)
	}()
}
