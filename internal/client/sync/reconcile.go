package sync

import (
	"encoding/json"
	"fmt"

	"github.com/ovasilenko/jotkeeper/internal/client/models"
	"github.com/ovasilenko/jotkeeper/internal/client/remote"
)

// Snapshot is a full per-user view of the reconciled collections, either the
// local cache's or the remote store's.
type Snapshot struct {
	Notes        []models.Note
	QuickActions []models.QuickAction
	Settings     models.Settings
	// HasSettings distinguishes "no settings document" from the zero value.
	HasSettings bool
}

// Plan is the output of comparing a local snapshot against a remote one: the
// remote writes to commit in one batch, and the local tombstones to prune
// once that batch lands. Building a plan performs no I/O.
type Plan struct {
	NoteUpserts        []models.Note
	NoteDeletes        []string
	QuickActionUpserts []models.QuickAction
	QuickActionDeletes []string
	SettingsUpsert     *models.Settings

	PruneNotes        []string
	PruneQuickActions []string
}

// HasRemoteOps reports whether the plan queues any remote write.
func (p Plan) HasRemoteOps() bool {
	return len(p.NoteUpserts) > 0 || len(p.NoteDeletes) > 0 ||
		len(p.QuickActionUpserts) > 0 || len(p.QuickActionDeletes) > 0 ||
		p.SettingsUpsert != nil
}

// Empty reports whether the plan requires no work at all, remote or local.
func (p Plan) Empty() bool {
	return !p.HasRemoteOps() && len(p.PruneNotes) == 0 && len(p.PruneQuickActions) == 0
}

// BuildPlan resolves the divergence between local and remote deterministically:
//
//   - a local tombstone queues a remote delete when a remote counterpart
//     exists, and is pruned either way once the batch commits;
//   - a live local record with no remote counterpart was created offline and
//     queues an upsert;
//   - a live local record whose clock is strictly greater than its remote
//     counterpart's queues an upsert (local edit wins);
//   - otherwise remote is same-or-newer and nothing is queued — the live
//     projection brings the remote version back down.
//
// Records are never merged field-by-field; whole records win or lose by clock.
func BuildPlan(local, remoteSnap Snapshot) Plan {
	var plan Plan

	remoteNotes := make(map[string]models.Note, len(remoteSnap.Notes))
	for _, n := range remoteSnap.Notes {
		remoteNotes[n.ID] = n
	}
	for _, n := range local.Notes {
		r, exists := remoteNotes[n.ID]
		switch {
		case n.Deleted():
			if exists {
				plan.NoteDeletes = append(plan.NoteDeletes, n.ID)
			}
			plan.PruneNotes = append(plan.PruneNotes, n.ID)
		case !exists:
			plan.NoteUpserts = append(plan.NoteUpserts, n)
		case n.Timestamp > r.Timestamp:
			plan.NoteUpserts = append(plan.NoteUpserts, n)
		}
	}

	remoteActions := make(map[string]models.QuickAction, len(remoteSnap.QuickActions))
	for _, q := range remoteSnap.QuickActions {
		remoteActions[q.ID] = q
	}
	for _, q := range local.QuickActions {
		r, exists := remoteActions[q.ID]
		switch {
		case q.Deleted():
			if exists {
				plan.QuickActionDeletes = append(plan.QuickActionDeletes, q.ID)
			}
			plan.PruneQuickActions = append(plan.PruneQuickActions, q.ID)
		case !exists:
			plan.QuickActionUpserts = append(plan.QuickActionUpserts, q)
		case q.Timestamp > r.Timestamp:
			plan.QuickActionUpserts = append(plan.QuickActionUpserts, q)
		}
	}

	if local.Settings.LastUpdated > 0 {
		if !remoteSnap.HasSettings || local.Settings.LastUpdated > remoteSnap.Settings.LastUpdated {
			s := local.Settings
			plan.SettingsUpsert = &s
		}
	}

	return plan
}

// AddTo queues every remote operation of the plan onto the batch.
func (p Plan) AddTo(b remote.Batch) error {
	for _, n := range p.NoteUpserts {
		data, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("failed to encode note %s: %w", n.ID, err)
		}
		b.QueueUpsert(remote.CollectionNotes, n.ID, data)
	}
	for _, id := range p.NoteDeletes {
		b.QueueDelete(remote.CollectionNotes, id)
	}
	for _, q := range p.QuickActionUpserts {
		data, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("failed to encode quick action %s: %w", q.ID, err)
		}
		b.QueueUpsert(remote.CollectionQuickActions, q.ID, data)
	}
	for _, id := range p.QuickActionDeletes {
		b.QueueDelete(remote.CollectionQuickActions, id)
	}
	if p.SettingsUpsert != nil {
		data, err := json.Marshal(*p.SettingsUpsert)
		if err != nil {
			return fmt.Errorf("failed to encode settings: %w", err)
		}
		b.QueueUpsert(remote.CollectionSettings, remote.SettingsDocID, data)
	}
	return nil
}
