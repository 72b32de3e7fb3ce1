/*
File Name:  Events.go
Copyright:  2021 Peernet s.r.o.
*/

package webapi

import (
	"net/http"

	"github.com/PeernetOfficial/nebula"
)

type apiPeerEvent struct {
	Action  string   `json:"action"`            // added, refreshed, replaced
	Peer    apiPeer  `json:"peer"`              // The imported peer
	Evicted *apiPeer `json:"evicted,omitempty"` // The evicted peer, only for replaced
}

/*
apiPeersStream streams routing table changes via a websocket. Events are dropped if the client does not keep up.

Request:    GET /peers/ws
Result:     Upgrade to websocket. Each message is the JSON structure apiPeerEvent.
*/
func (api *WebapiInstance) apiPeersStream(w http.ResponseWriter, r *http.Request) {
	// The monitor is registered before the upgrade so no event after the handshake is missed.
	events := make(chan nebula.PeerEvent, 64)
	api.Backend.RegisterPeerMonitor(events)
	defer api.Backend.UnregisterPeerMonitor(events)

	// upgrade to web-socket
	conn, err := WSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// gorilla will automatically respond with "400 Bad Request", no other response is therefore necessary
		return
	}
	defer conn.Close()

	// The reader detects the client closing the connection.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return

		case event := <-events:
			message := apiPeerEvent{
				Action: event.Action.String(),
				Peer:   peerInfoToAPI(&nebula.PeerInfo{PeerAddress: event.Peer, Bucket: event.Bucket}),
			}
			if event.Evicted != nil {
				evicted := peerInfoToAPI(&nebula.PeerInfo{PeerAddress: *event.Evicted, Bucket: event.Bucket})
				message.Evicted = &evicted
			}

			if err := conn.WriteJSON(message); err != nil {
				return
			}
		}
	}
}
