package workorder

import (
	"sort"
	"time"

	"github.com/uncleisme/mobile-app/internal/models"
)

// Unassigned is the group key for work orders with no assignee.
const Unassigned = "unassigned"

// Counts is the coarse three-bucket grouping used by dashboard metrics.
// In-progress work is folded into ActivePending.
type Counts struct {
	ActivePending int `json:"active_pending"`
	Review        int `json:"review"`
	Done          int `json:"done"`
}

func (c Counts) Total() int { return c.ActivePending + c.Review + c.Done }

func (c *Counts) add(s Status) {
	switch s {
	case StatusReview:
		c.Review++
	case StatusDone:
		c.Done++
	default:
		c.ActivePending++
	}
}

// CountByStatus classifies every order into exactly one coarse bucket.
func CountByStatus(list []models.WorkOrder) Counts {
	var c Counts
	for _, wo := range list {
		c.add(NormalizeStatus(wo.Status))
	}
	return c
}

type TechnicianLoad struct {
	TechnicianID string `json:"technician_id"`
	Name         string `json:"name"`
	Active       int    `json:"active"`
	Review       int    `json:"review"`
	Done         int    `json:"done"`
	Total        int    `json:"total"`
}

// AggregateByTechnician groups by assignee and sorts by total desc, then
// resolved name asc. names maps technician id to display name; ids missing
// from it display as themselves.
func AggregateByTechnician(list []models.WorkOrder, names map[string]string) []TechnicianLoad {
	groups := make(map[string]*Counts)
	order := make([]string, 0)
	for _, wo := range list {
		key := Unassigned
		if wo.AssignedTo != nil {
			key = wo.AssignedTo.String()
		}
		c, ok := groups[key]
		if !ok {
			c = &Counts{}
			groups[key] = c
			order = append(order, key)
		}
		c.add(NormalizeStatus(wo.Status))
	}

	out := make([]TechnicianLoad, 0, len(groups))
	for _, id := range order {
		c := groups[id]
		name := id
		if n, ok := names[id]; ok && n != "" {
			name = n
		}
		out = append(out, TechnicianLoad{
			TechnicianID: id,
			Name:         name,
			Active:       c.ActivePending,
			Review:       c.Review,
			Done:         c.Done,
			Total:        c.Total(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].TechnicianID < out[j].TechnicianID
	})
	return out
}

// Summary is the dashboard header block.
type Summary struct {
	Counts   Counts `json:"counts"`
	Overdue  int    `json:"overdue"`
	DueToday int    `json:"due_today"`
}

func Summarize(list []models.WorkOrder, now time.Time) Summary {
	s := Summary{Counts: CountByStatus(list)}
	for _, wo := range list {
		if IsOverdue(wo.DueDate, wo.Status, now) {
			s.Overdue++
		}
	}
	s.DueToday = len(Today(list, now))
	return s
}

// Filter narrows a list by a dashboard tab: all, overdue, or a canonical status.
func Filter(list []models.WorkOrder, tab string, now time.Time) []models.WorkOrder {
	if tab == "" || tab == "all" {
		return list
	}
	out := make([]models.WorkOrder, 0, len(list))
	for _, wo := range list {
		if tab == "overdue" {
			if IsOverdue(wo.DueDate, wo.Status, now) {
				out = append(out, wo)
			}
			continue
		}
		if NormalizeStatus(wo.Status) == NormalizeStatus(tab) {
			out = append(out, wo)
		}
	}
	return out
}
