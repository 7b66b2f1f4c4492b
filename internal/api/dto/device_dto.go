package dto

import (
	"time"

	"github.com/spec-kit/makerspace-admin/internal/domain"
)

// EnrollDeviceRequest asks for kiosk credentials. Re-enrolling an existing
// device rotates its credentials.
type EnrollDeviceRequest struct {
	DeviceID string `json:"device_id"`
}

// DeviceCredentialsResponse carries the one-time credential bundle. It is
// returned exactly once; the server keeps no copy.
type DeviceCredentialsResponse struct {
	DeviceID       string `json:"device_id"`
	CertificatePEM string `json:"certificate_pem"`
	PrivateKeyPEM  string `json:"private_key_pem"`
	CABundlePEM    string `json:"ca_bundle_pem"`
	Endpoint       string `json:"endpoint"`
}

// NewDeviceCredentialsResponse maps the issued bundle.
func NewDeviceCredentialsResponse(creds *domain.DeviceCredentials) DeviceCredentialsResponse {
	return DeviceCredentialsResponse{
		DeviceID:       creds.DeviceID,
		CertificatePEM: creds.CertificatePEM,
		PrivateKeyPEM:  creds.PrivateKeyPEM,
		CABundlePEM:    creds.CABundlePEM,
		Endpoint:       creds.Endpoint,
	}
}

// KioskResponse is the enrolled-device listing entry, without secret material.
type KioskResponse struct {
	DeviceID        string    `json:"device_id"`
	CertFingerprint string    `json:"cert_fingerprint"`
	PolicyName      string    `json:"policy_name"`
	EnrolledAt      time.Time `json:"enrolled_at"`
	Active          bool      `json:"active"`
}

// NewKioskResponses maps a slice of kiosks, preserving order.
func NewKioskResponses(kiosks []domain.Kiosk) []KioskResponse {
	result := make([]KioskResponse, 0, len(kiosks))
	for _, kiosk := range kiosks {
		result = append(result, KioskResponse{
			DeviceID:        kiosk.DeviceID,
			CertFingerprint: kiosk.CertFingerprint,
			PolicyName:      kiosk.PolicyName,
			EnrolledAt:      kiosk.EnrolledAt,
			Active:          kiosk.Active,
		})
	}
	return result
}
