/*
File Name:  Blacklist.go
Copyright:  2021 Peernet s.r.o.
*/

package webapi

import (
	"net"
	"net/http"
	"time"
)

type apiBlacklistEntry struct {
	IP     string    `json:"ip"`     // Blacklisted IP
	Reason string    `json:"reason"` // Reason
	Added  time.Time `json:"added"`  // When the IP was blacklisted
}

type apiResponseBlacklist struct {
	Count   int                 `json:"count"`   // Count of entries
	Entries []apiBlacklistEntry `json:"entries"` // List of blacklisted IPs
}

/*
apiBlacklistList returns all blacklisted IPs.

Request:    GET /blacklist/list
Result:     200 with JSON structure apiResponseBlacklist
*/
func (api *WebapiInstance) apiBlacklistList(w http.ResponseWriter, r *http.Request) {
	response := apiResponseBlacklist{Entries: []apiBlacklistEntry{}}

	for _, entry := range api.Backend.Blacklist.List() {
		response.Entries = append(response.Entries, apiBlacklistEntry{IP: entry.IP.String(), Reason: entry.Reason, Added: entry.Added})
	}
	response.Count = len(response.Entries)

	EncodeJSON(api.Backend, w, r, response)
}

type apiRequestBlacklist struct {
	IP     string `json:"ip"`     // IP to add or remove
	Reason string `json:"reason"` // Reason, only used when adding
}

type apiResponseBlacklistAdd struct {
	Removed int `json:"removed"` // Count of peers removed from the routing table
}

/*
apiBlacklistAdd blacklists an IP. All peers with this IP are removed from the routing table.

Request:    POST /blacklist/add with JSON structure apiRequestBlacklist
Result:     200 with JSON structure apiResponseBlacklistAdd
            400 Invalid IP
            500 Database error
*/
func (api *WebapiInstance) apiBlacklistAdd(w http.ResponseWriter, r *http.Request) {
	var input apiRequestBlacklist
	if err := DecodeJSON(w, r, &input); err != nil {
		return
	}

	ip := net.ParseIP(input.IP)
	if ip == nil {
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	removed, err := api.Backend.BlacklistPeer(ip, input.Reason)
	if err != nil {
		api.Backend.LogError("apiBlacklistAdd", "blacklisting %s: %v", ip.String(), err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	EncodeJSON(api.Backend, w, r, apiResponseBlacklistAdd{Removed: removed})
}

/*
apiBlacklistRemove removes an IP from the blacklist. Peers removed when the IP was added are not restored.

Request:    POST /blacklist/remove with JSON structure apiRequestBlacklist
Result:     204 Empty
            400 Invalid IP
*/
func (api *WebapiInstance) apiBlacklistRemove(w http.ResponseWriter, r *http.Request) {
	var input apiRequestBlacklist
	if err := DecodeJSON(w, r, &input); err != nil {
		return
	}

	ip := net.ParseIP(input.IP)
	if ip == nil {
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	api.Backend.Blacklist.Remove(ip)

	w.WriteHeader(http.StatusNoContent)
}
