package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewPool(t *testing.T) {
	pool := NewPool()
	if pool.ClientConfig().RootCAs == nil {
		t.Fatal("NewPool returned a config without roots")
	}
}

func TestPool_AddCertPEM(t *testing.T) {
	certPEM, _ := selfSignedPEM(t)

	pool := NewEmptyPool()
	if err := pool.AddCertPEM(certPEM); err != nil {
		t.Fatalf("AddCertPEM: %v", err)
	}

	// A certificate added as a root must verify itself.
	block, _ := pem.Decode(certPEM)
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse test certificate: %v", err)
	}
	_, err = cert.Verify(x509.VerifyOptions{
		Roots:   pool.ClientConfig().RootCAs,
		DNSName: "localhost",
	})
	if err != nil {
		t.Errorf("certificate does not verify against its own pool: %v", err)
	}
}

func TestPool_AddCertPEM_MultipleCerts(t *testing.T) {
	first, _ := selfSignedPEM(t)
	second, _ := selfSignedPEM(t)

	pool := NewEmptyPool()
	if err := pool.AddCertPEM(append(first, second...)); err != nil {
		t.Fatalf("AddCertPEM with two certificates: %v", err)
	}
}

func TestPool_AddCertPEM_SkipsNonCertBlocks(t *testing.T) {
	certPEM, keyPEM := selfSignedPEM(t)

	// Key first, certificate second. The key block must not count.
	pool := NewEmptyPool()
	if err := pool.AddCertPEM(append(keyPEM, certPEM...)); err != nil {
		t.Fatalf("AddCertPEM with mixed blocks: %v", err)
	}
}

func TestPool_AddCertPEM_NoCerts(t *testing.T) {
	_, keyPEM := selfSignedPEM(t)

	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"junk", []byte("not pem at all")},
		{"key only", keyPEM},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewEmptyPool().AddCertPEM(tc.data)
			if !errors.Is(err, ErrNoCertsFound) {
				t.Errorf("AddCertPEM(%s) = %v, want ErrNoCertsFound", tc.name, err)
			}
		})
	}
}

func TestPool_AddCertPEM_BadCertificate(t *testing.T) {
	bad := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("garbage der")})
	if err := NewEmptyPool().AddCertPEM(bad); err == nil {
		t.Fatal("AddCertPEM accepted a malformed certificate")
	}
}

func TestPool_AddCertFile(t *testing.T) {
	certPEM, _ := selfSignedPEM(t)
	path := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(path, certPEM, 0644); err != nil {
		t.Fatal(err)
	}

	if err := NewEmptyPool().AddCertFile(path); err != nil {
		t.Fatalf("AddCertFile: %v", err)
	}
}

func TestPool_AddCertFile_Missing(t *testing.T) {
	err := NewEmptyPool().AddCertFile(filepath.Join(t.TempDir(), "absent.pem"))
	if err == nil {
		t.Fatal("AddCertFile accepted a missing file")
	}
}

func TestPool_ClientConfig(t *testing.T) {
	conf := NewEmptyPool().ClientConfig()
	if conf.RootCAs == nil {
		t.Error("ClientConfig has no root pool")
	}
	if conf.MinVersion != tls.VersionTLS12 {
		t.Errorf("ClientConfig MinVersion = %#x, want TLS 1.2", conf.MinVersion)
	}
}
