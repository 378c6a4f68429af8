package updatelog

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// localIDPrefix marks synthetic session ids assigned to records whose
// originating envelope carried no session id.
const localIDPrefix = "local-"

const localIDSuffixLen = 12

// Reconciler folds the stream of inbound progress envelopes into one
// Record per update attempt.
//
// Matching runs in two passes. The session id is authoritative: an
// envelope naming a known session updates that record in place. When
// the envelope carries no session id, or an unknown one, the attempt's
// natural key (device codename, firmware version, download start time)
// is tried next, which is how retransmitted envelopes from firmware
// that lost its session id land on the right record. Only when both
// passes miss is a new record created and prepended.
//
// Records are held newest first. TotalCount increments on creation
// only, never on an in-place update, so retransmissions cannot inflate
// the attempt count.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Reconciler struct {
	mu      sync.Mutex
	records []*Record
	total   int
}

// NewReconciler creates an empty reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Seed loads previously persisted records, newest first, and sets the
// total attempt count. Called once at startup before any envelope is
// applied.
func (rc *Reconciler) Seed(records []Record, total int) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.records = make([]*Record, len(records))
	for i := range records {
		r := records[i]
		rc.records[i] = &r
	}
	rc.total = total
}

// Apply correlates one envelope against the known records.
//
// Parameters:
//   - env: Validated envelope from ParseEnvelope
//
// Returns:
//   - Record: The record after the envelope is folded in
//   - bool: True if a new record was created, false for an in-place
//     update. Replayed envelopes always return false on the second
//     and later deliveries.
func (rc *Reconciler) Apply(env Envelope) (Record, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rec := rc.matchSession(env); rec != nil {
		env.mergeInto(rec)
		return *rec, false
	}

	if rec := rc.matchComposite(env); rec != nil {
		// A local record learns its real session id from the first
		// envelope that names one.
		if sid := strOrEmpty(env.SessionID); sid != "" && rec.IsLocal() {
			rec.SessionID = sid
		}
		env.mergeInto(rec)
		return *rec, false
	}

	rec := &Record{
		SessionID:   strOrEmpty(env.SessionID),
		FlashStatus: StatusInProgress,
		CreatedAt:   time.Now().UTC(),
	}
	if rec.SessionID == "" {
		rec.SessionID = newLocalID()
	}
	env.mergeInto(rec)

	rc.records = append([]*Record{rec}, rc.records...)
	rc.total++

	return *rec, true
}

// matchSession finds the record owning the envelope's session id.
func (rc *Reconciler) matchSession(env Envelope) *Record {
	sid := strOrEmpty(env.SessionID)
	if sid == "" {
		return nil
	}
	for _, rec := range rc.records {
		if rec.SessionID == sid {
			return rec
		}
	}
	return nil
}

// matchComposite finds a record by the attempt's natural key. All three
// components must be present in the envelope and match exactly.
func (rc *Reconciler) matchComposite(env Envelope) *Record {
	cn := strOrEmpty(env.DeviceCodename)
	ver := strOrEmpty(env.FirmwareVersion)
	started := strOrEmpty(env.DownloadStartedAt)
	if cn == "" || ver == "" || started == "" {
		return nil
	}
	for _, rec := range rc.records {
		if rec.DeviceCodename == cn && rec.FirmwareVersion == ver && rec.DownloadStartedAt == started {
			return rec
		}
	}
	return nil
}

// Snapshot returns a copy of all records, newest first.
func (rc *Reconciler) Snapshot() []Record {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	out := make([]Record, len(rc.records))
	for i, rec := range rc.records {
		out[i] = *rec
	}
	return out
}

// TotalCount returns the number of distinct update attempts seen.
func (rc *Reconciler) TotalCount() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.total
}

// newLocalID mints a synthetic session id for a record created before
// any envelope named its session.
func newLocalID() string {
	return localIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:localIDSuffixLen]
}
