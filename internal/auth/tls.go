// internal/auth/tls.go
package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

// CertValidity is how long a generated self-signed certificate remains
// valid before a btreeserver process must regenerate it.
const CertValidity = 365 * 24 * time.Hour

// TLSManager owns the self-signed certificate pair a btreeserver process
// presents to connecting clients when started with --tls.
type TLSManager struct {
	certFile string
	keyFile  string
	config   *tls.Config
}

// NewTLSManager loads the certificate pair rooted at dataDir, generating a
// fresh self-signed pair on first use. Failures are returned rather than
// logged and swallowed: a server started with --tls should fail to start
// rather than silently fall back to a listener with no TLS config.
func NewTLSManager(dataDir string) (*TLSManager, error) {
	tm := &TLSManager{
		certFile: filepath.Join(dataDir, "server.crt"),
		keyFile:  filepath.Join(dataDir, "server.key"),
	}

	if !tm.certificateExists() {
		if err := tm.generateSelfSignedCert(); err != nil {
			return nil, fmt.Errorf("generate self-signed certificate: %w", err)
		}
	}
	if err := tm.loadTLSConfig(); err != nil {
		return nil, fmt.Errorf("load tls certificate pair: %w", err)
	}
	return tm, nil
}

// GetTLSConfig returns the loaded TLS configuration.
func (tm *TLSManager) GetTLSConfig() *tls.Config {
	return tm.config
}

func (tm *TLSManager) certificateExists() bool {
	_, certErr := os.Stat(tm.certFile)
	_, keyErr := os.Stat(tm.keyFile)
	return certErr == nil && keyErr == nil
}

func (tm *TLSManager) generateSelfSignedCert() error {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("generate private key: %w", err)
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{"btreecore"},
			CommonName:   "btreeserver",
		},
		NotBefore:   time.Now(),
		NotAfter:    time.Now().Add(CertValidity),
		KeyUsage:    x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses: []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		DNSNames:    []string{"localhost"},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	if err := writePEMFile(tm.certFile, "CERTIFICATE", certDER, 0644); err != nil {
		return err
	}

	privBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return fmt.Errorf("marshal private key: %w", err)
	}
	return writePEMFile(tm.keyFile, "PRIVATE KEY", privBytes, 0600)
}

// writePEMFile centralizes the create-truncate-encode-close sequence the
// cert and key files both need, with the caller supplying the PEM block
// type and file permissions (the key file is written 0600, the cert 0644).
func writePEMFile(path, blockType string, der []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (tm *TLSManager) loadTLSConfig() error {
	cert, err := tls.LoadX509KeyPair(tm.certFile, tm.keyFile)
	if err != nil {
		return err
	}
	tm.config = &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		},
	}
	return nil
}
