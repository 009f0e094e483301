// Package lookup resolves reference ids to display strings. Every method
// degrades to an identity mapping instead of returning an error.
package lookup

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/uncleisme/mobile-app/internal/models"
)

// Source is the subset of the repository the resolver reads from.
type Source interface {
	ListLocationsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Location, error)
	ListProfilesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Profile, error)
	GetWorkOrdersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.WorkOrder, error)
	GetWorkOrdersByCodes(ctx context.Context, codes []string) ([]models.WorkOrder, error)
}

// Cache is an optional string cache in front of Source. Errors are ignored.
type Cache interface {
	GetMany(ctx context.Context, keys []string) (map[string]string, error)
	SetMany(ctx context.Context, kv map[string]string, ttl time.Duration) error
}

const (
	kindLocation = "location"
	kindProfile  = "profile"
	kindCode     = "wo_code"
)

type Resolver struct {
	src   Source
	cache Cache
	ttl   time.Duration
}

// New returns a resolver. cache may be nil.
func New(src Source, cache Cache, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Resolver{src: src, cache: cache, ttl: ttl}
}

// LocationNames maps location ids to names.
func (r *Resolver) LocationNames(ctx context.Context, ids []string) map[string]string {
	return r.resolve(ctx, kindLocation, ids, func(ctx context.Context, uids []uuid.UUID) (map[string]string, error) {
		rows, err := r.src.ListLocationsByIDs(ctx, uids)
		if err != nil {
			return nil, err
		}
		out := make(map[string]string, len(rows))
		for _, l := range rows {
			if l.Name != "" {
				out[l.ID.String()] = l.Name
			}
		}
		return out, nil
	})
}

// ProfileNames maps profile ids to display names.
func (r *Resolver) ProfileNames(ctx context.Context, ids []string) map[string]string {
	return r.resolve(ctx, kindProfile, ids, func(ctx context.Context, uids []uuid.UUID) (map[string]string, error) {
		rows, err := r.src.ListProfilesByIDs(ctx, uids)
		if err != nil {
			return nil, err
		}
		out := make(map[string]string, len(rows))
		for _, p := range rows {
			out[p.ID.String()] = p.DisplayName()
		}
		return out, nil
	})
}

// WorkOrderCodes maps work-order ids to their display codes.
func (r *Resolver) WorkOrderCodes(ctx context.Context, ids []string) map[string]string {
	return r.resolve(ctx, kindCode, ids, func(ctx context.Context, uids []uuid.UUID) (map[string]string, error) {
		rows, err := r.src.GetWorkOrdersByIDs(ctx, uids)
		if err != nil {
			return nil, err
		}
		out := make(map[string]string, len(rows))
		for _, wo := range rows {
			out[wo.ID.String()] = wo.DisplayCode()
		}
		return out, nil
	})
}

// RequesterNames maps display codes to the requester's display name. Codes
// that cannot be resolved are absent from the result.
func (r *Resolver) RequesterNames(ctx context.Context, codes []string) map[string]string {
	out := map[string]string{}
	if len(codes) == 0 {
		return out
	}
	orders, err := r.src.GetWorkOrdersByCodes(ctx, codes)
	if err != nil {
		slog.WarnContext(ctx, "requester lookup failed", "err", err)
		return out
	}
	var pids []string
	byCode := map[string]string{}
	for _, wo := range orders {
		if wo.RequestedBy == nil || wo.WorkOrderID == "" {
			continue
		}
		pid := wo.RequestedBy.String()
		byCode[wo.WorkOrderID] = pid
		pids = append(pids, pid)
	}
	names := r.ProfileNames(ctx, pids)
	for code, pid := range byCode {
		if n := names[pid]; n != "" && n != pid {
			out[code] = n
		}
	}
	return out
}

type fetchFunc func(ctx context.Context, ids []uuid.UUID) (map[string]string, error)

func (r *Resolver) resolve(ctx context.Context, kind string, ids []string, fetch fetchFunc) map[string]string {
	out := make(map[string]string, len(ids))
	pending := map[string]uuid.UUID{}
	for _, id := range ids {
		if _, seen := out[id]; seen {
			continue
		}
		out[id] = id
		if uid, err := uuid.Parse(id); err == nil {
			pending[id] = uid
		}
	}
	if len(pending) == 0 {
		return out
	}

	if r.cache != nil {
		keys := make([]string, 0, len(pending))
		for id := range pending {
			keys = append(keys, cacheKey(kind, id))
		}
		hits, err := r.cache.GetMany(ctx, keys)
		if err != nil {
			slog.DebugContext(ctx, "lookup cache read failed", "kind", kind, "err", err)
		}
		for id := range pending {
			if v, ok := hits[cacheKey(kind, id)]; ok && v != "" {
				out[id] = v
				delete(pending, id)
			}
		}
		if len(pending) == 0 {
			return out
		}
	}

	uids := make([]uuid.UUID, 0, len(pending))
	for _, uid := range pending {
		uids = append(uids, uid)
	}
	found, err := fetch(ctx, uids)
	if err != nil {
		slog.WarnContext(ctx, "lookup failed, using ids", "kind", kind, "count", len(uids), "err", err)
		return out
	}
	fresh := make(map[string]string, len(found))
	for id := range pending {
		if v, ok := found[id]; ok && v != "" {
			out[id] = v
			fresh[cacheKey(kind, id)] = v
		}
	}
	if r.cache != nil && len(fresh) > 0 {
		if err := r.cache.SetMany(ctx, fresh, r.ttl); err != nil {
			slog.DebugContext(ctx, "lookup cache write failed", "kind", kind, "err", err)
		}
	}
	return out
}

func cacheKey(kind, id string) string { return "lookup:" + kind + ":" + id }
