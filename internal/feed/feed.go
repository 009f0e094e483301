// Package feed builds the activity feed shown on the dashboard and in the header.
package feed

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/uncleisme/mobile-app/internal/models"
	"github.com/uncleisme/mobile-app/internal/repo"
)

const (
	LimitDashboard = 3
	LimitHeader    = 10

	// ModulePattern matches "Work Order", "work orders" and similar.
	ModulePattern = "work order%"
)

// Tier is one query strategy in the fallback chain.
type Tier struct {
	Name   string
	Filter repo.NotificationFilter
	// Broadcast tiers are not scoped to the viewer.
	Broadcast bool
}

// DefaultTiers returns the fallback chain in the order it is attempted.
func DefaultTiers(userID uuid.UUID) []Tier {
	uid := userID
	return []Tier{
		{Name: "user", Filter: repo.NotificationFilter{ModulePattern: ModulePattern, UserID: &uid}},
		{Name: "recipient", Filter: repo.NotificationFilter{ModulePattern: ModulePattern, Recipient: &uid}},
		{Name: "module", Filter: repo.NotificationFilter{ModulePattern: ModulePattern}, Broadcast: true},
		{Name: "latest", Filter: repo.NotificationFilter{}, Broadcast: true},
	}
}

type Item struct {
	ID        uuid.UUID `json:"id"`
	Module    string    `json:"module"`
	Action    string    `json:"action"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Ago       string    `json:"ago"`
	Tier      string    `json:"tier"`
}

type Source interface {
	ListNotifications(ctx context.Context, f repo.NotificationFilter) ([]models.Notification, error)
}

type Resolver interface {
	WorkOrderCodes(ctx context.Context, ids []string) map[string]string
	RequesterNames(ctx context.Context, codes []string) map[string]string
}

type Builder struct {
	src       Source
	resolver  Resolver
	broadcast bool
	now       func() time.Time
}

// NewBuilder returns a feed builder. With broadcast false the chain stops
// after the viewer-scoped tiers.
func NewBuilder(src Source, resolver Resolver, broadcast bool) *Builder {
	return &Builder{src: src, resolver: resolver, broadcast: broadcast, now: time.Now}
}

// Load walks the tiers and returns the first non-empty result, rewritten for
// display. A tier that fails is logged and treated as empty.
func (b *Builder) Load(ctx context.Context, userID uuid.UUID, limit int) []Item {
	if limit <= 0 {
		limit = LimitDashboard
	}
	for _, tier := range DefaultTiers(userID) {
		if tier.Broadcast && !b.broadcast {
			break
		}
		f := tier.Filter
		f.Limit = limit
		rows, err := b.src.ListNotifications(ctx, f)
		if err != nil {
			slog.WarnContext(ctx, "feed tier failed", "tier", tier.Name, "err", err)
			continue
		}
		if len(rows) == 0 {
			continue
		}
		slog.DebugContext(ctx, "feed tier hit", "tier", tier.Name, "count", len(rows))
		return b.render(ctx, tier.Name, rows)
	}
	return []Item{}
}

func (b *Builder) render(ctx context.Context, tier string, rows []models.Notification) []Item {
	now := b.now()
	items := make([]Item, 0, len(rows))
	var ids []string
	for _, n := range rows {
		msg := n.Message
		if msg == "" {
			msg = n.Module
		}
		if msg == "" {
			msg = "Notification"
		}
		ids = append(ids, uuidPattern.FindAllString(msg, -1)...)
		items = append(items, Item{
			ID:        n.ID,
			Module:    n.Module,
			Action:    n.Action,
			Message:   msg,
			CreatedAt: n.CreatedAt,
			Ago:       TimeAgo(n.CreatedAt, now),
			Tier:      tier,
		})
	}
	if b.resolver == nil {
		return items
	}

	if len(ids) > 0 {
		codes := b.resolver.WorkOrderCodes(ctx, ids)
		for i := range items {
			items[i].Message = SubstituteCodes(items[i].Message, codes)
		}
	}

	var candidates []string
	for _, it := range items {
		candidates = append(candidates, codeCandidates(it.Message)...)
	}
	if len(candidates) == 0 {
		return items
	}
	names := b.resolver.RequesterNames(ctx, candidates)
	for i := range items {
		items[i].Message = withRequester(items[i].Message, names)
	}
	return items
}

var (
	uuidPattern = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`)
	codePattern = regexp.MustCompile(`(?i)\b(?:Work\s*Order\s+|WO[-\s]?)([A-Za-z0-9_-]*\d[A-Za-z0-9_-]*)`)
	byPattern   = regexp.MustCompile(`(?i)\bby\s+[^.,;\n]+\b`)
)

// SubstituteCodes replaces every UUID in msg for which codes has a different
// value. Unknown ids are left as they are.
func SubstituteCodes(msg string, codes map[string]string) string {
	return uuidPattern.ReplaceAllStringFunc(msg, func(id string) string {
		if c, ok := codes[id]; ok && c != "" {
			return c
		}
		if c, ok := codes[strings.ToLower(id)]; ok && c != "" {
			return c
		}
		return id
	})
}

// codeCandidates returns the captured code and, when it lacks one, its
// WO- prefixed form ("12" and "WO-12") since display codes are stored either way.
func codeCandidates(msg string) []string {
	m := codePattern.FindStringSubmatch(msg)
	if m == nil {
		return nil
	}
	code := m[1]
	if strings.HasPrefix(strings.ToUpper(code), "WO-") {
		return []string{code}
	}
	return []string{code, "WO-" + code}
}

func withRequester(msg string, names map[string]string) string {
	if byPattern.MatchString(msg) {
		return msg
	}
	for _, c := range codeCandidates(msg) {
		if n := names[c]; n != "" {
			return msg + " by " + n
		}
	}
	return msg
}

// TimeAgo renders a coarse relative age: 42s, 5m, 3h, 2d.
func TimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	sec := int(d / time.Second)
	switch {
	case sec < 60:
		return strconv.Itoa(sec) + "s ago"
	case sec < 3600:
		return strconv.Itoa(sec/60) + "m ago"
	case sec < 86400:
		return strconv.Itoa(sec/3600) + "h ago"
	default:
		return strconv.Itoa(sec/86400) + "d ago"
	}
}
