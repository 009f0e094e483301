package workorders

import (
	"context"
	"time"

	"github.com/uncleisme/mobile-app/internal/models"
	"github.com/uncleisme/mobile-app/internal/workorder"
)

// View is a work order as rendered to clients: the raw row plus the
// normalized status and priority, the overdue flag and resolved names.
type View struct {
	models.WorkOrder
	Code          string             `json:"code"`
	StatusKey     workorder.Status   `json:"status_key"`
	StatusLabel   string             `json:"status_label"`
	PriorityKey   workorder.Priority `json:"priority_key"`
	Overdue       bool               `json:"overdue"`
	LocationName  string             `json:"location_name,omitempty"`
	AssigneeName  string             `json:"assignee_name,omitempty"`
	RequesterName string             `json:"requester_name,omitempty"`
}

// Views builds views for list with one batched lookup per reference kind.
func Views(ctx context.Context, names Names, list []models.WorkOrder, now time.Time) []View {
	locIDs := make([]string, 0, len(list))
	profIDs := make([]string, 0, len(list)*2)
	for _, wo := range list {
		if wo.LocationID != nil {
			locIDs = append(locIDs, wo.LocationID.String())
		}
		if wo.AssignedTo != nil {
			profIDs = append(profIDs, wo.AssignedTo.String())
		}
		if wo.RequestedBy != nil {
			profIDs = append(profIDs, wo.RequestedBy.String())
		}
	}
	var locs, people map[string]string
	if names != nil {
		if len(locIDs) > 0 {
			locs = names.LocationNames(ctx, locIDs)
		}
		if len(profIDs) > 0 {
			people = names.ProfileNames(ctx, profIDs)
		}
	}

	out := make([]View, 0, len(list))
	for _, wo := range list {
		status := workorder.NormalizeStatus(wo.Status)
		v := View{
			WorkOrder:   wo,
			Code:        wo.DisplayCode(),
			StatusKey:   status,
			StatusLabel: status.Label(),
			PriorityKey: workorder.NormalizePriority(wo.Priority),
			Overdue:     workorder.IsOverdue(wo.DueDate, wo.Status, now),
		}
		if wo.LocationID != nil {
			v.LocationName = lookupOr(locs, wo.LocationID.String())
		}
		if wo.AssignedTo != nil {
			v.AssigneeName = lookupOr(people, wo.AssignedTo.String())
		}
		if wo.RequestedBy != nil {
			v.RequesterName = lookupOr(people, wo.RequestedBy.String())
		}
		out = append(out, v)
	}
	return out
}

func lookupOr(m map[string]string, id string) string {
	if n, ok := m[id]; ok && n != "" {
		return n
	}
	return id
}
