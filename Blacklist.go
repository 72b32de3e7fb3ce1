/*
File Name:  Blacklist.go
Copyright:  2021 Peernet s.r.o.

Blacklisted IPs are never imported into the routing table and incoming connections from them are refused. The blacklist applies to all ports.
Record value: 8 bytes added time (Unix seconds, little endian) + reason text.
*/

package nebula

import (
	"encoding/binary"
	"net"
	"sync"
	"time"

	"github.com/PeernetOfficial/nebula/protocol"
	"github.com/PeernetOfficial/nebula/sanitize"
	"github.com/PeernetOfficial/nebula/store"
	"github.com/pkg/errors"
)

// Blacklist is the list of blacklisted IPs
type Blacklist struct {
	Database store.Store // The database storing the blacklist.
	sync.RWMutex
}

// BlacklistEntry is a single blacklisted IP
type BlacklistEntry struct {
	IP     net.IP    // Blacklisted IP
	Reason string    // Reason provided by the operator
	Added  time.Time // When the IP was blacklisted
}

// initBlacklist opens the blacklist database. An empty directory uses an in-memory database.
func initBlacklist(directory string) (blacklist *Blacklist, err error) {
	blacklist = &Blacklist{}

	if directory == "" {
		blacklist.Database = store.NewMemoryStore()
		return blacklist, nil
	}

	if blacklist.Database, err = store.NewPogrebStore(sanitize.PathDirectory(directory)); err != nil {
		return nil, errors.Wrap(err, "blacklist")
	}
	return blacklist, nil
}

// blacklistKey returns the database key for the IP. IPv4 addresses use the 4-byte form.
func blacklistKey(ip net.IP) []byte {
	if ipv4 := ip.To4(); ipv4 != nil {
		return ipv4
	}
	return ip.To16()
}

// Add blacklists the IP
func (blacklist *Blacklist) Add(ip net.IP, reason string) (err error) {
	key := blacklistKey(ip)
	if key == nil {
		return protocol.ErrInvalidAddressFamily
	}

	reason = sanitize.Reason(reason)
	value := make([]byte, 8+len(reason))
	binary.LittleEndian.PutUint64(value[0:8], uint64(time.Now().UTC().Unix()))
	copy(value[8:], reason)

	blacklist.Lock()
	defer blacklist.Unlock()
	return blacklist.Database.Set(key, value)
}

// Remove removes the IP from the blacklist
func (blacklist *Blacklist) Remove(ip net.IP) {
	key := blacklistKey(ip)
	if key == nil {
		return
	}

	blacklist.Lock()
	defer blacklist.Unlock()
	blacklist.Database.Delete(key)
}

// IsBlacklisted checks if the IP is blacklisted and returns the reason
func (blacklist *Blacklist) IsBlacklisted(ip net.IP) (reason string, found bool) {
	if blacklist == nil {
		return "", false
	}

	key := blacklistKey(ip)
	if key == nil {
		return "", false
	}

	blacklist.RLock()
	defer blacklist.RUnlock()

	value, found := blacklist.Database.Get(key)
	if !found {
		return "", false
	}
	if entry, err := decodeBlacklistEntry(key, value); err == nil {
		reason = entry.Reason
	}
	return reason, true
}

// List returns all blacklisted IPs. Invalid records are skipped.
func (blacklist *Blacklist) List() (entries []BlacklistEntry) {
	blacklist.RLock()
	defer blacklist.RUnlock()

	blacklist.Database.Iterate(func(key, value []byte) bool {
		if entry, err := decodeBlacklistEntry(key, value); err == nil {
			entries = append(entries, entry)
		}
		return true
	})

	return entries
}

// Count returns the count of blacklisted IPs
func (blacklist *Blacklist) Count() uint64 {
	blacklist.RLock()
	defer blacklist.RUnlock()
	return blacklist.Database.Count()
}

// Close closes the database
func (blacklist *Blacklist) Close() error {
	blacklist.Lock()
	defer blacklist.Unlock()
	return blacklist.Database.Close()
}

func decodeBlacklistEntry(key, value []byte) (entry BlacklistEntry, err error) {
	if len(key) != net.IPv4len && len(key) != net.IPv6len {
		return entry, errors.New("blacklist: invalid key")
	} else if len(value) < 8 {
		return entry, errors.New("blacklist: invalid record")
	}

	entry.IP = make(net.IP, len(key))
	copy(entry.IP, key)
	entry.Added = time.Unix(int64(binary.LittleEndian.Uint64(value[0:8])), 0).UTC()
	entry.Reason = string(value[8:])

	return entry, nil
}

// BlacklistPeer blacklists the IP and removes all peers using it from the routing table.
func (backend *Backend) BlacklistPeer(ip net.IP, reason string) (removed int, err error) {
	if err = backend.Blacklist.Add(ip, reason); err != nil {
		return 0, err
	}

	for _, peer := range backend.AllPeers() {
		if peer.IP.Equal(ip) && backend.RemovePeer(&peer) {
			removed++
		}
	}

	backend.LogStatus("BlacklistPeer", "blacklisted %s, removed %d peers", ip.String(), removed)

	return removed, nil
}
