package service

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/makerspace-admin/internal/auth"
	"github.com/spec-kit/makerspace-admin/internal/config"
	"github.com/spec-kit/makerspace-admin/internal/domain"
	"github.com/spec-kit/makerspace-admin/internal/events"
	"github.com/spec-kit/makerspace-admin/internal/repository"
	apperrors "github.com/spec-kit/makerspace-admin/pkg/util/errorutil"
)

// EnrollmentService issues kiosk device credentials: a certificate and
// private key signed by a per-deployment CA, emitted exactly once. Only the
// certificate fingerprint and a hash of the derived device secret persist,
// so the bundle is unrecoverable after the response is gone. Re-enrolling a
// device rotates its credentials and invalidates the previous pair.
type EnrollmentService struct {
	kiosks     repository.KioskRepository
	dispatcher events.Dispatcher
	endpoint   string
	policyName string
	certTTL    time.Duration
	bcryptCost int

	caCert *x509.Certificate
	caKey  *ecdsa.PrivateKey
	caPEM  []byte
}

// NewEnrollmentService builds the service, generating the deployment CA.
func NewEnrollmentService(cfg config.Config, kiosks repository.KioskRepository, dispatcher events.Dispatcher) (*EnrollmentService, error) {
	ttlYears := cfg.Device.CertTTLYears
	if ttlYears <= 0 {
		ttlYears = 5
	}

	s := &EnrollmentService{
		kiosks:     kiosks,
		dispatcher: dispatcher,
		endpoint:   cfg.Device.Endpoint,
		policyName: cfg.App.ResourcePrefix() + "-kiosk-policy",
		certTTL:    time.Duration(ttlYears) * 365 * 24 * time.Hour,
		bcryptCost: cfg.Auth.BcryptCost,
	}
	if err := s.initCA(cfg.App.ResourcePrefix()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *EnrollmentService) initCA(prefix string) error {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return err
	}

	template := &x509.Certificate{
		SerialNumber:          newSerial(),
		Subject:               pkix.Name{CommonName: prefix + "-device-ca"},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(2 * s.certTTL),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return err
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return err
	}

	s.caCert = cert
	s.caKey = key
	s.caPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	return nil
}

// Enroll issues credentials for a kiosk. The same uniform device policy
// (connect, publish, subscribe) attaches to every device.
func (s *EnrollmentService) Enroll(ctx context.Context, deviceID string) (*domain.DeviceCredentials, error) {
	if deviceID == "" {
		return nil, apperrors.NewValidationError("device_id required", nil)
	}

	rotated := true
	if _, err := s.kiosks.GetByDeviceID(ctx, deviceID); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		rotated = false
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	template := &x509.Certificate{
		SerialNumber: newSerial(),
		Subject:      pkix.Name{CommonName: "kiosk-" + deviceID},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(s.certTTL),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, s.caCert, &key.PublicKey, s.caKey)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	fingerprint := CertFingerprint(der)
	secretHash, err := auth.HashPassword(fingerprint, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	kiosk := &domain.Kiosk{
		DeviceID:        deviceID,
		CertFingerprint: fingerprint,
		SecretHash:      secretHash,
		PolicyName:      s.policyName,
	}
	if err := s.kiosks.Upsert(ctx, kiosk); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type: events.EventDeviceEnrolled,
		Payload: events.DeviceEnrolledPayload{
			DeviceID:   deviceID,
			PolicyName: s.policyName,
			Rotated:    rotated,
		},
	})

	return &domain.DeviceCredentials{
		DeviceID:       deviceID,
		CertificatePEM: string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})),
		PrivateKeyPEM:  string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})),
		CABundlePEM:    string(s.caPEM),
		Endpoint:       s.endpoint,
	}, nil
}

// List returns enrolled kiosks without secret material.
func (s *EnrollmentService) List(ctx context.Context) ([]domain.Kiosk, error) {
	kiosks, err := s.kiosks.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range kiosks {
		kiosks[i].SecretHash = ""
	}
	return kiosks, nil
}

// Deactivate retires a kiosk. Its device key stops authenticating but the
// enrollment record remains for audit.
func (s *EnrollmentService) Deactivate(ctx context.Context, deviceID string) error {
	if err := s.kiosks.Deactivate(ctx, deviceID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("device", map[string]any{"device_id": deviceID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// CertFingerprint derives the device secret from the certificate DER: the
// kiosk recomputes it locally from its certificate, so the secret never
// travels separately from the credential bundle.
func CertFingerprint(der []byte) string {
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])
}

func newSerial() *big.Int {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		// crypto/rand failure is unrecoverable for certificate issuance.
		panic(fmt.Sprintf("serial generation: %v", err))
	}
	return serial
}

func (s *EnrollmentService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
