/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package tlsutil loads TLS server certificates, including password-protected private keys.
package tlsutil

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrInvalidTLSMaterial is returned when the certificate and the key cannot be used for serving TLS.
var ErrInvalidTLSMaterial = errors.New("invalid TLS material")

// Material describes the server certificate and the private key files.
type Material struct {
	CertFile    string
	KeyFile     string
	KeyPassword string
}

// Enabled reports whether any TLS option is set.
func (m Material) Enabled() bool {
	return m.CertFile != "" || m.KeyFile != "" || m.KeyPassword != ""
}

// Validate checks that options are consistent. Files are not read.
func (m Material) Validate() error {
	if !m.Enabled() {
		return nil
	}
	if m.CertFile == "" {
		return fmt.Errorf("%w: certificate file is required", ErrInvalidTLSMaterial)
	}
	if m.KeyFile == "" {
		return fmt.Errorf("%w: key file is required", ErrInvalidTLSMaterial)
	}
	return nil
}

// LoadCertificate reads the certificate and the key, decrypting the key with the password if it is encrypted.
func (m Material) LoadCertificate() (tls.Certificate, error) {
	if err := m.Validate(); err != nil {
		return tls.Certificate{}, err
	}
	if !m.Enabled() {
		return tls.Certificate{}, fmt.Errorf("%w: no certificate is configured", ErrInvalidTLSMaterial)
	}
	certPEM, err := os.ReadFile(m.CertFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: read certificate: %v", ErrInvalidTLSMaterial, err)
	}
	keyPEM, err := os.ReadFile(m.KeyFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: read key: %v", ErrInvalidTLSMaterial, err)
	}
	if keyPEM, err = decryptKey(keyPEM, m.KeyPassword); err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: %v", ErrInvalidTLSMaterial, err)
	}
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: %v", ErrInvalidTLSMaterial, err)
	}
	return cert, nil
}

// ServerConfig returns TLS configuration for serving or nil if TLS is not enabled.
func (m Material) ServerConfig() (*tls.Config, error) {
	if !m.Enabled() {
		return nil, nil
	}
	cert, err := m.LoadCertificate()
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func decryptKey(keyPEM []byte, password string) ([]byte, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, errors.New("no PEM data is found in key file")
	}
	if block.Type == "ENCRYPTED PRIVATE KEY" {
		return nil, errors.New("PKCS#8 encrypted private keys are not supported, use legacy PEM encryption")
	}
	//nolint:staticcheck // legacy PEM encryption is the only password-protected format supported
	if !x509.IsEncryptedPEMBlock(block) {
		return keyPEM, nil
	}
	if password == "" {
		return nil, errors.New("key is encrypted, but password is not provided")
	}
	//nolint:staticcheck
	der, err := x509.DecryptPEMBlock(block, []byte(password))
	if err != nil {
		return nil, fmt.Errorf("decrypt key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: block.Type, Bytes: der}), nil
}
