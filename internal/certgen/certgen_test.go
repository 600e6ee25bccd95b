package certgen

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeCA stores a fresh CA under dir and returns the file paths.
func writeCA(t *testing.T, dir string) (*Authority, string, string) {
	t.Helper()
	ca, err := NewAuthority("Test CA")
	if err != nil {
		t.Fatalf("NewAuthority: %v", err)
	}
	certPEM, keyPEM, err := ca.EncodePEM()
	if err != nil {
		t.Fatalf("EncodePEM: %v", err)
	}
	certPath := filepath.Join(dir, "ca.crt")
	keyPath := filepath.Join(dir, "ca.key")
	if err := os.WriteFile(certPath, certPEM, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		t.Fatal(err)
	}
	return ca, certPath, keyPath
}

func TestLoadAuthority_Success(t *testing.T) {
	want, certPath, keyPath := writeCA(t, t.TempDir())

	got, err := LoadAuthority(certPath, keyPath)
	if err != nil {
		t.Fatalf("LoadAuthority error: %v", err)
	}
	if got.Certificate().Subject.CommonName != "Test CA" {
		t.Errorf("CommonName = %q; want %q", got.Certificate().Subject.CommonName, "Test CA")
	}
	if !got.Certificate().Equal(want.Certificate()) {
		t.Error("loaded certificate differs from the stored one")
	}
}

func TestLoadAuthority_MissingCert(t *testing.T) {
	_, err := LoadAuthority("/no/such/file.pem", "ignored")
	if err == nil || !strings.Contains(err.Error(), "read ca cert") {
		t.Errorf("got %v; want error about reading ca cert", err)
	}
}

func TestLoadAuthority_MissingKey(t *testing.T) {
	_, certPath, _ := writeCA(t, t.TempDir())

	_, err := LoadAuthority(certPath, "/no/such/key.pem")
	if err == nil || !strings.Contains(err.Error(), "read ca key") {
		t.Errorf("got %v; want error about reading ca key", err)
	}
}

func TestParseAuthority_BadPEM(t *testing.T) {
	ca, err := NewAuthority("Test CA")
	if err != nil {
		t.Fatal(err)
	}
	certPEM, keyPEM, err := ca.EncodePEM()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseAuthority([]byte("not a cert"), keyPEM); err == nil || !strings.Contains(err.Error(), "invalid CA cert PEM") {
		t.Errorf("got %v; want invalid CA cert PEM error", err)
	}
	if _, err := ParseAuthority(certPEM, []byte("not a key")); err == nil || !strings.Contains(err.Error(), "invalid CA key PEM") {
		t.Errorf("got %v; want invalid CA key PEM error", err)
	}
}

func TestParseAuthority_RejectsLeaf(t *testing.T) {
	ca, err := NewAuthority("Test CA")
	if err != nil {
		t.Fatal(err)
	}
	leafPEM, leafKey, err := ca.IssueClientCertificate("alice")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseAuthority(leafPEM, leafKey); err == nil {
		t.Error("expected a non-CA certificate to be rejected")
	}
}

func TestIssueClientCertificate(t *testing.T) {
	ca, err := NewAuthority("Test CA")
	if err != nil {
		t.Fatal(err)
	}

	certPEM, keyPEM, err := ca.IssueClientCertificate("alice")
	if err != nil {
		t.Fatalf("IssueClientCertificate error: %v", err)
	}
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		t.Fatalf("cert PEM invalid")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse user cert: %v", err)
	}
	if cert.Subject.CommonName != "alice" {
		t.Errorf("CommonName = %q; want %q", cert.Subject.CommonName, "alice")
	}
	if _, err := cert.Verify(x509.VerifyOptions{
		Roots:     ca.CertPool(),
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}); err != nil {
		t.Errorf("verify against CA: %v", err)
	}

	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil || keyBlock.Type != "EC PRIVATE KEY" {
		t.Fatalf("key PEM invalid")
	}
	key, err := x509.ParseECPrivateKey(keyBlock.Bytes)
	if err != nil {
		t.Fatalf("parse private key failed: %v", err)
	}
	if !key.PublicKey.Equal(cert.PublicKey.(*ecdsa.PublicKey)) {
		t.Error("private key does not match certificate")
	}

	if _, _, err := ca.IssueClientCertificate(""); err == nil {
		t.Error("expected error for empty common name")
	}
}

func TestIssueServerCertificate_SANs(t *testing.T) {
	ca, err := NewAuthority("Test CA")
	if err != nil {
		t.Fatal(err)
	}

	certPEM, _, err := ca.IssueServerCertificate("localhost", "127.0.0.1")
	if err != nil {
		t.Fatalf("IssueServerCertificate error: %v", err)
	}
	block, _ := pem.Decode(certPEM)
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatal(err)
	}
	if len(cert.DNSNames) != 1 || cert.DNSNames[0] != "localhost" {
		t.Errorf("DNSNames = %v; want [localhost]", cert.DNSNames)
	}
	if len(cert.IPAddresses) != 1 || !cert.IPAddresses[0].Equal([]byte{127, 0, 0, 1}) {
		t.Errorf("IPAddresses = %v; want [127.0.0.1]", cert.IPAddresses)
	}
}
