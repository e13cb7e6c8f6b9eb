/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package bootstrap

// Transport is the front-end the action server runs.
// It's implemented only by HTTPTransport and GRPCTransport.
type Transport interface {
	Name() string
	transport()
}

// HTTPTransport contains everything the HTTP front-end needs.
type HTTPTransport struct {
	ActionPackage string
	Port          int
	CORSOrigins   []string
	TLS           TLSMaterial
	AutoReload    bool
	EndpointsPath string
}

// Name returns "http".
func (HTTPTransport) Name() string { return "http" }

func (HTTPTransport) transport() {}

// GRPCTransport contains everything the gRPC front-end needs.
// CORS and auto-reload are not supported by the gRPC front-end.
type GRPCTransport struct {
	ActionPackage string
	Port          int
	TLS           TLSMaterial
	EndpointsPath string
}

// Name returns "grpc".
func (GRPCTransport) Name() string { return "grpc" }

func (GRPCTransport) transport() {}
