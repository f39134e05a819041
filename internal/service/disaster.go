// Package service holds the disaster record service and the auxiliary feed
// services. Each service takes its collaborators explicitly and reports
// changes through an injected domain.Broadcaster.
package service

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/disaster-response-service/internal/domain"
)

// LocationResolver turns a description into a named, geocoded location.
type LocationResolver interface {
	Resolve(ctx context.Context, description string) (domain.GeocodeResult, error)
}

// Disasters implements create, list, update and delete over a DisasterStore.
type Disasters struct {
	store       domain.DisasterStore
	resolver    LocationResolver
	broadcaster domain.Broadcaster
	logger      *slog.Logger
}

// NewDisasters creates the disaster record service.
func NewDisasters(store domain.DisasterStore, resolver LocationResolver, broadcaster domain.Broadcaster, logger *slog.Logger) *Disasters {
	return &Disasters{
		store:       store,
		resolver:    resolver,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Create validates the input, resolves the description's location and
// persists the disaster with a single "create" audit entry. A resolution
// failure is returned as the resolver's *domain.ResolutionError.
func (s *Disasters) Create(ctx context.Context, in domain.CreateDisasterInput) (domain.Disaster, error) {
	if err := in.Validate(); err != nil {
		return domain.Disaster{}, err
	}

	geo, err := s.resolver.Resolve(ctx, in.Description)
	if err != nil {
		return domain.Disaster{}, err
	}

	created, err := s.store.Insert(ctx, domain.Disaster{
		Title:        in.Title,
		Description:  in.Description,
		Tags:         in.Tags,
		OwnerID:      in.OwnerID,
		LocationName: geo.LocationName,
		Location:     domain.NewGeoPoint(geo.Lat, geo.Lng),
		AuditTrail:   []domain.AuditEntry{domain.NewAuditEntry(domain.ActionCreate, in.OwnerID)},
	})
	if err != nil {
		return domain.Disaster{}, err
	}

	s.logger.Info("disaster created",
		"disaster_id", created.ID,
		"user", in.OwnerID,
		"location_name", created.LocationName,
	)
	s.broadcaster.BroadcastGlobal(ctx, domain.EventDisasterUpdated, domain.DisasterEvent{
		Type:      domain.ActionCreate,
		Disaster:  &created,
		Timestamp: domain.Now(),
		User:      in.OwnerID,
	})
	return created, nil
}

// List returns disasters newest first, optionally only those tagged tag.
func (s *Disasters) List(ctx context.Context, tag string) ([]domain.Disaster, error) {
	disasters, err := s.store.List(ctx, tag)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("disasters fetched", "count", len(disasters), "tag", tag)
	return disasters, nil
}

// Update applies the non-nil fields of in and appends one "update" audit
// entry. The trail is re-read immediately before the write; concurrent
// updates of the same record can still lose an entry.
func (s *Disasters) Update(ctx context.Context, id, userID string, in domain.UpdateDisasterInput) (domain.Disaster, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Disaster{}, err
	}

	next := in.Apply(current)
	next.AuditTrail = domain.AppendAudit(current.AuditTrail, domain.NewAuditEntry(domain.ActionUpdate, userID))

	updated, err := s.store.Update(ctx, next)
	if err != nil {
		return domain.Disaster{}, err
	}

	s.logger.Info("disaster updated", "disaster_id", id, "user", userID, "audit_entries", len(updated.AuditTrail))
	s.broadcaster.BroadcastGlobal(ctx, domain.EventDisasterUpdated, domain.DisasterEvent{
		Type:      domain.ActionUpdate,
		Disaster:  &updated,
		Timestamp: domain.Now(),
		User:      userID,
	})
	return updated, nil
}

// Delete removes the disaster. The "delete" audit entry is recorded in the
// log only, since the record itself is gone.
func (s *Disasters) Delete(ctx context.Context, id, userID string) error {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	entry := domain.NewAuditEntry(domain.ActionDelete, userID)

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("disaster deleted",
		"disaster_id", id,
		"user", userID,
		"audit_action", entry.Action,
		"audit_timestamp", entry.Timestamp,
		"audit_entries", len(current.AuditTrail)+1,
	)
	s.broadcaster.BroadcastGlobal(ctx, domain.EventDisasterUpdated, domain.DisasterEvent{
		Type:       domain.ActionDelete,
		DisasterID: id,
		Timestamp:  domain.Now(),
		User:       userID,
	})
	return nil
}
