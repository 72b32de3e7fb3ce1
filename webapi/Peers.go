/*
File Name:  Peers.go
Copyright:  2021 Peernet s.r.o.
*/

package webapi

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/PeernetOfficial/nebula"
	"lukechampine.com/blake3"
)

type apiPeer struct {
	NodeID   string    `json:"nodeid"`   // Node ID in hex
	IP       string    `json:"ip"`       // IP address
	Port     uint16    `json:"port"`     // Port
	Bucket   int       `json:"bucket"`   // Bucket index in the routing table
	LastSeen time.Time `json:"lastseen"` // Last time the peer was imported or confirmed alive
}

type apiResponsePeers struct {
	Count int       `json:"count"` // Count of peers returned
	Peers []apiPeer `json:"peers"` // List of peers
}

func peerInfoToAPI(info *nebula.PeerInfo) apiPeer {
	return apiPeer{
		NodeID:   info.ID.String(),
		IP:       info.IP.String(),
		Port:     info.Port,
		Bucket:   info.Bucket,
		LastSeen: info.LastSeen,
	}
}

/*
apiPeers returns the routing table. The optional family parameter limits the list to "ipv4" or "ipv6" peers.
The ETag header is the blake3 hash of the response. If If-None-Match matches, 304 is returned without body.

Request:    GET /peers?family=[ipv4|ipv6]
Result:     200 with JSON structure apiResponsePeers
            304 Not modified
            400 Invalid family
*/
func (api *WebapiInstance) apiPeers(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()

	var filterIPv6, useFilter bool
	switch r.Form.Get("family") {
	case "":
	case "ipv4":
		useFilter = true
	case "ipv6":
		useFilter, filterIPv6 = true, true
	default:
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	response := apiResponsePeers{Peers: []apiPeer{}}
	for _, info := range api.Backend.PeerList() {
		if useFilter && info.IsIPv6() != filterIPv6 {
			continue
		}
		response.Peers = append(response.Peers, peerInfoToAPI(&info))
	}
	response.Count = len(response.Peers)

	var buffer bytes.Buffer
	if err := json.NewEncoder(&buffer).Encode(response); err != nil {
		api.Backend.LogError("apiPeers", "encoding peer list: %v", err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	hash := blake3.Sum256(buffer.Bytes())
	etag := "\"" + hex.EncodeToString(hash[:16]) + "\""
	w.Header().Set("ETag", etag)

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(buffer.Bytes())
}

type apiRequestPeersImport struct {
	Address    string `json:"address"`    // IP:Port
	VerifyLive bool   `json:"verifylive"` // Whether the peer must respond to a ping first
}

type apiResponsePeersImport struct {
	Action string `json:"action"` // Result of the import: rejected, refreshed, added, replaced
	NodeID string `json:"nodeid"` // Node ID of the peer
}

/*
apiPeersImport imports a peer into the routing table.

Request:    POST /peers/import with JSON structure apiRequestPeersImport
Result:     200 with JSON structure apiResponsePeersImport
            400 Invalid input
*/
func (api *WebapiInstance) apiPeersImport(w http.ResponseWriter, r *http.Request) {
	var input apiRequestPeersImport
	if err := DecodeJSON(w, r, &input); err != nil {
		return
	}

	peer, err := nebula.ParseAddress(input.Address)
	if err != nil {
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	action := api.Backend.ImportPeer(peer, input.VerifyLive)

	EncodeJSON(api.Backend, w, r, apiResponsePeersImport{Action: action.String(), NodeID: peer.ID.String()})
}

type apiResponseDiscover struct {
	Sweep     string `json:"sweep"`     // Sweep ID
	Contacted int    `json:"contacted"` // Count of peers asked for their peer list
	Received  int    `json:"received"`  // Count of peer records received
	Imported  int    `json:"imported"`  // Count of new peers imported
}

/*
apiDiscover runs a single discovery sweep and waits for it to finish.

Request:    POST /discover
Result:     200 with JSON structure apiResponseDiscover
*/
func (api *WebapiInstance) apiDiscover(w http.ResponseWriter, r *http.Request) {
	result := api.Backend.DiscoverPeers()

	EncodeJSON(api.Backend, w, r, apiResponseDiscover{
		Sweep:     result.Sweep.String(),
		Contacted: result.Contacted,
		Received:  result.Received,
		Imported:  result.Imported,
	})
}
