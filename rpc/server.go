package rpc

import (
	"net/http"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// Server serves the preconf namespace over HTTP.
type Server struct {
	srv *gethrpc.Server
}

// NewServer registers the API for b on a fresh go-ethereum rpc server.
func NewServer(b Backend) (*Server, error) {
	srv := gethrpc.NewServer()
	if err := srv.RegisterName(Namespace, NewPreconfAPI(b)); err != nil {
		return nil, err
	}
	return &Server{srv: srv}, nil
}

// Handler returns the HTTP handler for JSON-RPC requests.
func (s *Server) Handler() http.Handler { return s.srv }

// DialInProc returns a client connected to the server without a transport.
func (s *Server) DialInProc() *Client {
	return NewClient(gethrpc.DialInProc(s.srv))
}

// Stop stops the server, cancelling pending requests.
func (s *Server) Stop() { s.srv.Stop() }
