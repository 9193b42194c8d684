package extension

import (
	"time"

	"github.com/ezex-io/podchannel/cache"
)

// PeerSeen tracks the last time a given peer address touched the engine,
// backed by a cache.Cache (e.g. cache.NewBasic) so it gets TTL expiry and a sweep goroutine for
// free instead of every interested middleware rolling its own. Not on
// the per-chunk path: middleware is expected to call Touch/Seen once per
// channel connect or close, not per read.
type PeerSeen struct {
	store      cache.Cache[string, time.Time]
	expiration time.Duration
}

// NewPeerSeen returns a PeerSeen whose entries expire after expiration.
func NewPeerSeen(store cache.Cache[string, time.Time], expiration time.Duration) *PeerSeen {
	return &PeerSeen{store: store, expiration: expiration}
}

// Touch records now as peer's last-activity time.
func (p *PeerSeen) Touch(peer string) {
	if !p.store.Update(peer, time.Now(), p.expiration) {
		p.store.Add(peer, time.Now(), p.expiration)
	}
}

// Seen reports the last time peer was touched, as long as its entry is
// still in the store. Expiry is not checked here: with cache.NewBasic an
// expired entry is still reported until the periodic sweep removes it.
func (p *PeerSeen) Seen(peer string) (time.Time, bool) {
	return p.store.Get(peer)
}
