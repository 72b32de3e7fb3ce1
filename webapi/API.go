/*
File Name:  API.go
Copyright:  2021 Peernet s.r.o.
*/

package webapi

import (
	"crypto/tls"
	"encoding/json"
	"net/http"
	"time"

	"github.com/PeernetOfficial/nebula"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// WebapiInstance is a running web API for a node
type WebapiInstance struct {
	Backend *nebula.Backend

	// Router can be used to register additional API functions
	Router          *mux.Router
	AllowKeyInParam []string // List of paths that accept the API key as &k= parameter

	servers []*http.Server
}

// WSUpgrader is used for websocket functionality. It allows all requests.
var WSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// allow all connections by default
		return true
	},
}

// New creates the API without starting any listener. The API key may be uuid.Nil to disable it.
func New(Backend *nebula.Backend, APIKey uuid.UUID) (api *WebapiInstance) {
	api = &WebapiInstance{
		Backend:         Backend,
		Router:          mux.NewRouter(),
		AllowKeyInParam: []string{"/peers/ws"},
	}

	if APIKey != uuid.Nil {
		api.Router.Use(api.authenticateMiddleware(APIKey))
	}

	api.Router.HandleFunc("/test", apiTest).Methods("GET")
	api.Router.HandleFunc("/status", api.apiStatus).Methods("GET")
	api.Router.HandleFunc("/peer/self", api.apiPeerSelf).Methods("GET")
	api.Router.HandleFunc("/peers", api.apiPeers).Methods("GET")
	api.Router.HandleFunc("/peers/ws", api.apiPeersStream).Methods("GET")
	api.Router.HandleFunc("/peers/import", api.apiPeersImport).Methods("POST")
	api.Router.HandleFunc("/discover", api.apiDiscover).Methods("POST")
	api.Router.HandleFunc("/blacklist/list", api.apiBlacklistList).Methods("GET")
	api.Router.HandleFunc("/blacklist/add", api.apiBlacklistAdd).Methods("POST")
	api.Router.HandleFunc("/blacklist/remove", api.apiBlacklistRemove).Methods("POST")

	return api
}

// Start starts the API. ListenAddresses is a list of IP:Ports.
// The certificate file and key are only used if SSL is enabled. The read and write timeout may be 0 for no timeout.
// The API key may be uuid.Nil to disable it although this is not recommended for security reasons.
func Start(Backend *nebula.Backend, ListenAddresses []string, UseSSL bool, CertificateFile, CertificateKey string, TimeoutRead, TimeoutWrite time.Duration, APIKey uuid.UUID) (api *WebapiInstance) {
	if len(ListenAddresses) == 0 {
		return nil
	}

	api = New(Backend, APIKey)

	for _, listen := range ListenAddresses {
		server := newServer(listen, api.Router, TimeoutRead, TimeoutWrite)
		api.servers = append(api.servers, server)

		go startWebAPI(Backend, server, UseSSL, CertificateFile, CertificateKey)
	}

	return api
}

// Shutdown stops all listeners
func (api *WebapiInstance) Shutdown() {
	for _, server := range api.servers {
		server.Close()
	}
}

func newServer(WebListen string, Handler http.Handler, ReadTimeout, WriteTimeout time.Duration) *http.Server {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12} // for security reasons disable TLS 1.0/1.1

	return &http.Server{
		Addr:         WebListen,
		Handler:      Handler,
		ReadTimeout:  ReadTimeout,  // ReadTimeout is the maximum duration for reading the entire request, including the body.
		WriteTimeout: WriteTimeout, // WriteTimeout is the maximum duration before timing out writes of the response. This includes processing time and is therefore the max time any HTTP function may take.
		TLSConfig:    tlsConfig,
	}
}

// startWebAPI starts the web-server and logs the status. It blocks until the server is closed or there is an error.
func startWebAPI(Backend *nebula.Backend, server *http.Server, UseSSL bool, CertificateFile, CertificateKey string) {
	Backend.LogStatus("startWebAPI", "Start API at '%s'", server.Addr)

	var err error
	if UseSSL {
		// HTTPS
		err = server.ListenAndServeTLS(CertificateFile, CertificateKey)
	} else {
		// HTTP
		err = server.ListenAndServe()
	}

	if err != nil && err != http.ErrServerClosed {
		Backend.LogError("startWebAPI", "Error listening on '%s': %v", server.Addr, err)
	}
}

// EncodeJSON encodes the data as JSON
func EncodeJSON(Backend *nebula.Backend, w http.ResponseWriter, r *http.Request, data interface{}) (err error) {
	w.Header().Set("Content-Type", "application/json")

	err = json.NewEncoder(w).Encode(data)
	if err != nil {
		Backend.LogError("EncodeJSON", "Error writing data for route '%s': %v", r.URL.Path, err)
	}

	return err
}

// DecodeJSON decodes input JSON data server side sent either via GET or POST. It does not limit the maximum amount to read.
// In case of error it will automatically send an error to the client.
func DecodeJSON(w http.ResponseWriter, r *http.Request, data interface{}) (err error) {
	if r.Body == nil {
		http.Error(w, "", http.StatusBadRequest)
		return errors.New("no data")
	}

	err = json.NewDecoder(r.Body).Decode(data)
	if err != nil {
		http.Error(w, "", http.StatusBadRequest)
		return err
	}

	return nil
}

// authenticateMiddleware returns a middleware function to be used with mux.Router.Use(). It handles all authentication functionality.
func (api *WebapiInstance) authenticateMiddleware(APIKey uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			keyID, err := uuid.Parse(r.Header.Get("x-api-key"))
			if err != nil { // special case for some paths
				for _, exceptPath := range api.AllowKeyInParam {
					if exceptPath == r.URL.Path {
						r.ParseForm()
						keyID, err = uuid.Parse(r.Form.Get("k"))
						break
					}
				}
			}
			if err != nil { // Invalid key format
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			if keyID != APIKey {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
