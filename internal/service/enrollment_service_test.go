package service

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/spec-kit/makerspace-admin/internal/auth"
	"github.com/spec-kit/makerspace-admin/internal/config"
	"github.com/spec-kit/makerspace-admin/internal/events"
)

func newEnrollmentFixture(t *testing.T) (*EnrollmentService, *fakeKioskRepo) {
	t.Helper()
	cfg := testConfig()
	cfg.App.Stage = config.ParseStage("dev")
	cfg.App.SchoolID = "riverside"
	cfg.Device.Endpoint = "mqtt.example.com:8883"
	cfg.Device.CertTTLYears = 1

	kiosks := newFakeKioskRepo()
	svc, err := NewEnrollmentService(cfg, kiosks, events.NewInMemoryDispatcher())
	if err != nil {
		t.Fatalf("init enrollment: %v", err)
	}
	return svc, kiosks
}

func TestEnrollIssuesVerifiableCredentials(t *testing.T) {
	svc, kiosks := newEnrollmentFixture(t)

	creds, err := svc.Enroll(context.Background(), "front-door")
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if creds.Endpoint != "mqtt.example.com:8883" {
		t.Fatalf("endpoint = %q", creds.Endpoint)
	}

	certBlock, _ := pem.Decode([]byte(creds.CertificatePEM))
	if certBlock == nil {
		t.Fatal("certificate PEM does not decode")
	}
	cert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	if cert.Subject.CommonName != "kiosk-front-door" {
		t.Fatalf("CN = %q", cert.Subject.CommonName)
	}

	caBlock, _ := pem.Decode([]byte(creds.CABundlePEM))
	if caBlock == nil {
		t.Fatal("CA PEM does not decode")
	}
	caCert, err := x509.ParseCertificate(caBlock.Bytes)
	if err != nil {
		t.Fatalf("parse CA: %v", err)
	}
	roots := x509.NewCertPool()
	roots.AddCert(caCert)
	if _, err := cert.Verify(x509.VerifyOptions{
		Roots:     roots,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}); err != nil {
		t.Fatalf("certificate does not chain to CA: %v", err)
	}

	keyBlock, _ := pem.Decode([]byte(creds.PrivateKeyPEM))
	if keyBlock == nil {
		t.Fatal("private key PEM does not decode")
	}
	if _, err := x509.ParseECPrivateKey(keyBlock.Bytes); err != nil {
		t.Fatalf("parse private key: %v", err)
	}

	// The stored hash verifies against the fingerprint the kiosk derives
	// locally from its certificate.
	kiosk, err := kiosks.GetByDeviceID(context.Background(), "front-door")
	if err != nil {
		t.Fatalf("kiosk record: %v", err)
	}
	secret := CertFingerprint(certBlock.Bytes)
	if err := auth.ComparePassword(kiosk.SecretHash, secret); err != nil {
		t.Fatalf("secret hash mismatch: %v", err)
	}
	if !kiosk.Active {
		t.Fatal("kiosk not active after enroll")
	}
}

func TestReEnrollRotatesCredentials(t *testing.T) {
	svc, kiosks := newEnrollmentFixture(t)
	ctx := context.Background()

	first, err := svc.Enroll(ctx, "front-door")
	if err != nil {
		t.Fatalf("first enroll: %v", err)
	}
	second, err := svc.Enroll(ctx, "front-door")
	if err != nil {
		t.Fatalf("second enroll: %v", err)
	}
	if first.CertificatePEM == second.CertificatePEM {
		t.Fatal("re-enroll did not rotate the certificate")
	}

	kiosk, _ := kiosks.GetByDeviceID(ctx, "front-door")
	firstBlock, _ := pem.Decode([]byte(first.CertificatePEM))
	if err := auth.ComparePassword(kiosk.SecretHash, CertFingerprint(firstBlock.Bytes)); err == nil {
		t.Fatal("old credential still verifies after rotation")
	}
	secondBlock, _ := pem.Decode([]byte(second.CertificatePEM))
	if err := auth.ComparePassword(kiosk.SecretHash, CertFingerprint(secondBlock.Bytes)); err != nil {
		t.Fatalf("new credential does not verify: %v", err)
	}
}

func TestListStripsSecretMaterial(t *testing.T) {
	svc, _ := newEnrollmentFixture(t)
	ctx := context.Background()

	if _, err := svc.Enroll(ctx, "front-door"); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list size = %d, want 1", len(list))
	}
	if list[0].SecretHash != "" {
		t.Fatal("secret hash leaked in listing")
	}
}

func TestDeactivateStopsAuthenticating(t *testing.T) {
	svc, kiosks := newEnrollmentFixture(t)
	ctx := context.Background()

	if _, err := svc.Enroll(ctx, "front-door"); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if err := svc.Deactivate(ctx, "front-door"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	kiosk, _ := kiosks.GetByDeviceID(ctx, "front-door")
	if kiosk.Active {
		t.Fatal("kiosk still active")
	}

	err := svc.Deactivate(ctx, "no-such-device")
	if code := errCode(t, err); code != "NOT_FOUND" {
		t.Fatalf("code = %s, want NOT_FOUND", code)
	}
}
