/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package tlsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-actionserver/testutil"
)

func TestMaterial_Validate(t *testing.T) {
	tests := []struct {
		name     string
		material Material
		wantErr  bool
	}{
		{name: "disabled", material: Material{}},
		{name: "cert and key", material: Material{CertFile: "cert.pem", KeyFile: "key.pem"}},
		{name: "cert, key and password", material: Material{CertFile: "cert.pem", KeyFile: "key.pem", KeyPassword: "pw"}},
		{name: "only cert", material: Material{CertFile: "cert.pem"}, wantErr: true},
		{name: "only key", material: Material{KeyFile: "key.pem"}, wantErr: true},
		{name: "only password", material: Material{KeyPassword: "pw"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.material.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTLSMaterial)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestMaterial_ServerConfig(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		cfg, err := Material{}.ServerConfig()
		require.NoError(t, err)
		require.Nil(t, cfg)
	})

	t.Run("plain key", func(t *testing.T) {
		certFile, keyFile := testutil.WriteSelfSignedCert(t, t.TempDir(), "")
		cfg, err := Material{CertFile: certFile, KeyFile: keyFile}.ServerConfig()
		require.NoError(t, err)
		require.Len(t, cfg.Certificates, 1)
	})

	t.Run("encrypted key", func(t *testing.T) {
		certFile, keyFile := testutil.WriteSelfSignedCert(t, t.TempDir(), "s3cret")
		cfg, err := Material{CertFile: certFile, KeyFile: keyFile, KeyPassword: "s3cret"}.ServerConfig()
		require.NoError(t, err)
		require.Len(t, cfg.Certificates, 1)

		_, err = Material{CertFile: certFile, KeyFile: keyFile, KeyPassword: "wrong"}.ServerConfig()
		require.ErrorIs(t, err, ErrInvalidTLSMaterial)

		_, err = Material{CertFile: certFile, KeyFile: keyFile}.ServerConfig()
		require.ErrorIs(t, err, ErrInvalidTLSMaterial)
	})

	t.Run("missing files", func(t *testing.T) {
		dir := t.TempDir()
		_, err := Material{CertFile: filepath.Join(dir, "cert.pem"), KeyFile: filepath.Join(dir, "key.pem")}.ServerConfig()
		require.ErrorIs(t, err, ErrInvalidTLSMaterial)
	})

	t.Run("mismatched pair", func(t *testing.T) {
		certFile, _ := testutil.WriteSelfSignedCert(t, t.TempDir(), "")
		_, otherKeyFile := testutil.WriteSelfSignedCert(t, t.TempDir(), "")
		_, err := Material{CertFile: certFile, KeyFile: otherKeyFile}.ServerConfig()
		require.ErrorIs(t, err, ErrInvalidTLSMaterial)
	})

	t.Run("not a PEM key", func(t *testing.T) {
		certFile, keyFile := testutil.WriteSelfSignedCert(t, t.TempDir(), "")
		require.NoError(t, os.WriteFile(keyFile, []byte("garbage"), 0o600))
		_, err := Material{CertFile: certFile, KeyFile: keyFile}.ServerConfig()
		require.ErrorIs(t, err, ErrInvalidTLSMaterial)
	})
}
