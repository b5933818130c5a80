/*
Package presence is nuke-ms's optional multi-process federation
extension. A single dispatcher process broadcasts only to peers
connected to itself; when a server is started with a Redis address
configured, presence lets several independent dispatcher processes
share one Redis instance so a unicast send whose recipient isn't
connected locally can still be best-effort forwarded to the server
process that is holding it.
*/
package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-rendezvous"
	"github.com/redis/go-redis/v9"

	pkgredis "nuke-ms/pkg/redis"
	"nuke-ms/userid"
)

const (
	locationKeyPrefix = "nukems:user_location:"
	// ttl bounds how long an announcement survives without a
	// heartbeat; a server process that crashes without deregistering
	// stops being a routing candidate once this elapses.
	ttl = 5 * time.Minute
)

// Registry records which server process owns each connected
// UniqueUserID. The zero Registry is unusable; build one with
// NewRegistry once pkgredis.Client has been initialized.
type Registry struct {
	ctx context.Context
}

// NewRegistry builds a Registry backed by the package-global Redis
// client.
func NewRegistry() *Registry {
	return &Registry{ctx: pkgredis.Context()}
}

// Announce records that uid is currently connected to serverID,
// refreshing its TTL.
func (r *Registry) Announce(serverID string, uid userid.UniqueUserID) error {
	key := locationKeyPrefix + uid.String()
	if err := pkgredis.Client.Set(r.ctx, key, serverID, ttl).Err(); err != nil {
		return fmt.Errorf("presence: announce %s: %w", uid.String(), err)
	}
	return nil
}

// Forget removes uid's location entry. Call when the peer disconnects.
func (r *Registry) Forget(uid userid.UniqueUserID) error {
	key := locationKeyPrefix + uid.String()
	if err := pkgredis.Client.Del(r.ctx, key).Err(); err != nil {
		return fmt.Errorf("presence: forget %s: %w", uid.String(), err)
	}
	return nil
}

// Locate returns the server id currently holding uid, and whether any
// entry was found. A not-found uid is simply offline, or was owned by
// a process whose announcement has since expired.
func (r *Registry) Locate(uid userid.UniqueUserID) (serverID string, ok bool, err error) {
	key := locationKeyPrefix + uid.String()
	serverID, err = pkgredis.Client.Get(r.ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("presence: locate %s: %w", uid.String(), err)
	}
	return serverID, true, nil
}

// PickOwner deterministically selects which of serverIDs should own uid
// when no announcement exists yet for it, via rendezvous (highest
// random weight) hashing: adding or removing a server id only
// reshuffles the users that hashed to that id, not every user.
func PickOwner(serverIDs []string, uid userid.UniqueUserID) string {
	return rendezvous.New(serverIDs, xxhash.Sum64String).Lookup(uid.String())
}

// Publish best-effort republishes an already-serialized packet to the
// channel serverID's process listens on, for a unicast recipient this
// process could not deliver to locally. Delivery is not guaranteed:
// there is no acknowledgement and no queueing, only a single PUBLISH.
func (r *Registry) Publish(serverID string, packet []byte) error {
	channel := "nukems:gateway:" + serverID
	if err := pkgredis.Client.Publish(r.ctx, channel, packet).Err(); err != nil {
		return fmt.Errorf("presence: publish to %s: %w", serverID, err)
	}
	return nil
}

// Subscribe listens on this server id's channel and invokes handler
// once per republished packet, until ctx is canceled.
func (r *Registry) Subscribe(ctx context.Context, serverID string, handler func(packet []byte)) {
	channel := "nukems:gateway:" + serverID
	sub := pkgredis.Client.Subscribe(ctx, channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			handler([]byte(msg.Payload))
		}
	}
}
