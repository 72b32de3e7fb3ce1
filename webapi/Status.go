/*
File Name:  Status.go
Copyright:  2021 Peernet s.r.o.
*/

package webapi

import (
	"net/http"

	"github.com/PeernetOfficial/nebula"
)

func apiTest(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type apiResponseStatus struct {
	Status         int    `json:"status"`         // Status code: 0 = Ok.
	Version        string `json:"version"`        // Version of the node software.
	IsConnected    bool   `json:"isconnected"`    // Whether at least one peer is in the routing table.
	CountPeers     int    `json:"countpeers"`     // Count of peers in the routing table.
	CountBuckets   int    `json:"countbuckets"`   // Count of non-empty buckets.
	CountBlacklist uint64 `json:"countblacklist"` // Count of blacklisted IPs.
	Discovery      bool   `json:"discovery"`      // Whether the automatic discovery sweep is enabled.
}

/*
apiStatus returns the current status of the node
Request:    GET /status
Result:     200 with JSON structure apiResponseStatus
*/
func (api *WebapiInstance) apiStatus(w http.ResponseWriter, r *http.Request) {
	status := apiResponseStatus{
		Status:         0,
		Version:        nebula.Version,
		CountPeers:     api.Backend.PeerCount(),
		CountBlacklist: api.Backend.Blacklist.Count(),
		Discovery:      !api.Backend.Config.DiscoveryDisable,
	}
	status.IsConnected = status.CountPeers > 0

	for _, count := range api.Backend.PeersPerBucket() {
		if count > 0 {
			status.CountBuckets++
		}
	}

	EncodeJSON(api.Backend, w, r, status)
}

type apiResponsePeerSelf struct {
	NodeID  string `json:"nodeid"`  // Node ID in hex. It is derived from the announced IP and port.
	IP      string `json:"ip"`      // Announced IP
	Port    uint16 `json:"port"`    // Announced port
	Address string `json:"address"` // IP:Port
}

/*
apiPeerSelf provides information about the self peer details
Request:    GET /peer/self
Result:     200 with JSON structure apiResponsePeerSelf
*/
func (api *WebapiInstance) apiPeerSelf(w http.ResponseWriter, r *http.Request) {
	self := api.Backend.Self

	EncodeJSON(api.Backend, w, r, apiResponsePeerSelf{
		NodeID:  self.ID.String(),
		IP:      self.IP.String(),
		Port:    self.Port,
		Address: self.Address(),
	})
}
