package webserver

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCertPair writes a self-signed pair for host and returns its serial.
func writeCertPair(t *testing.T, certFile, keyFile, host string) string {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: host},
		DNSNames:     []string{host},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return serial.String()
}

func servedSerial(r *TLSReloader) string {
	cert, err := r.GetCertificate(nil)
	if err != nil || cert == nil || len(cert.Certificate) == 0 {
		return ""
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return ""
	}
	return leaf.SerialNumber.String()
}

func touch(t *testing.T, at time.Time, files ...string) {
	t.Helper()
	for _, f := range files {
		require.NoError(t, os.Chtimes(f, at, at))
	}
}

func newTestReloader(t *testing.T, interval time.Duration) (*TLSReloader, string, string, string) {
	t.Helper()
	dir := t.TempDir()
	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")
	serial := writeCertPair(t, certFile, keyFile, "panel.test")

	logger, _ := test.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r, err := NewTLSReloader(ctx, certFile, keyFile, interval, logger)
	require.NoError(t, err)
	return r, certFile, keyFile, serial
}

func TestTLSReloader_LoadsAndReloads(t *testing.T) {
	r, certFile, keyFile, first := newTestReloader(t, time.Hour)
	assert.Equal(t, first, servedSerial(r))

	changed, err := r.changed()
	require.NoError(t, err)
	assert.False(t, changed)

	second := writeCertPair(t, certFile, keyFile, "panel.test")
	touch(t, time.Now().Add(time.Minute), certFile, keyFile)

	changed, err = r.changed()
	require.NoError(t, err)
	assert.True(t, changed)

	// Nothing is swapped until reload runs.
	assert.Equal(t, first, servedSerial(r))

	require.NoError(t, r.reload())
	assert.Equal(t, second, servedSerial(r))

	changed, err = r.changed()
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestTLSReloader_KeyOnlyChange(t *testing.T) {
	r, _, keyFile, _ := newTestReloader(t, time.Hour)

	touch(t, time.Now().Add(time.Minute), keyFile)
	changed, err := r.changed()
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestTLSReloader_BadPairKeepsCurrent(t *testing.T) {
	r, certFile, _, first := newTestReloader(t, time.Hour)

	require.NoError(t, os.WriteFile(certFile, []byte("not a certificate"), 0o600))
	assert.Error(t, r.reload())
	assert.Equal(t, first, servedSerial(r))

	require.NoError(t, os.Remove(certFile))
	_, err := r.changed()
	assert.Error(t, err)
}

func TestTLSReloader_WatchPicksUpRenewal(t *testing.T) {
	r, certFile, keyFile, first := newTestReloader(t, 10*time.Millisecond)

	second := writeCertPair(t, certFile, keyFile, "panel.test")
	touch(t, time.Now().Add(time.Minute), certFile, keyFile)

	require.Eventually(t, func() bool {
		got := servedSerial(r)
		return got != "" && got != first
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, second, servedSerial(r))
}

func TestNewTLSReloader_MissingFiles(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()

	_, err := NewTLSReloader(context.Background(), filepath.Join(dir, "cert.pem"), filepath.Join(dir, "key.pem"), time.Hour, logger)
	assert.Error(t, err)
}

func TestTLSReloader_Config(t *testing.T) {
	r, _, _, _ := newTestReloader(t, time.Hour)

	cfg := r.GetConfig()
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	require.NotNil(t, cfg.GetCertificate)
	cert, err := cfg.GetCertificate(&tls.ClientHelloInfo{ServerName: "panel.test"})
	require.NoError(t, err)
	assert.NotNil(t, cert)
}
