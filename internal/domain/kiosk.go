package domain

import "time"

// Kiosk is a fixed-location sign-in device. Credential material (certificate,
// private key, CA bundle) is emitted exactly once at enrollment; only the
// certificate fingerprint and a hash of the derived device secret persist.
type Kiosk struct {
	DeviceID        string
	CertFingerprint string
	SecretHash      string
	PolicyName      string
	EnrolledAt      time.Time
	Active          bool
}

// DeviceCredentials is the one-shot bundle returned on enrollment. It is not
// retrievable afterwards.
type DeviceCredentials struct {
	DeviceID       string
	CertificatePEM string
	PrivateKeyPEM  string
	CABundlePEM    string
	Endpoint       string
}
