package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/makerspace-admin/internal/domain"
	"github.com/spec-kit/makerspace-admin/internal/repository"
	apperrors "github.com/spec-kit/makerspace-admin/pkg/util/errorutil"
)

const deviceKeyHeader = "X-Device-Key"
const kioskKey = "auth_kiosk"

// DeviceMiddleware gates kiosk routes on device credentials instead of staff
// tokens. The device key is "<device_id>:<secret>", where the secret is
// derived from the enrollment certificate and verified against its stored
// hash. Superseded credentials fail closed.
type DeviceMiddleware struct {
	kiosks repository.KioskRepository
}

// NewDeviceMiddleware constructs middleware.
func NewDeviceMiddleware(kiosks repository.KioskRepository) *DeviceMiddleware {
	return &DeviceMiddleware{kiosks: kiosks}
}

// Handle authenticates the calling kiosk.
func (m *DeviceMiddleware) Handle(c *fiber.Ctx) error {
	raw := c.Get(deviceKeyHeader)
	if raw == "" {
		return apperrors.NewUnauthorized("missing device key")
	}
	deviceID, secret, found := strings.Cut(raw, ":")
	if !found || deviceID == "" || secret == "" {
		return apperrors.NewUnauthorized("malformed device key")
	}

	kiosk, err := m.kiosks.GetByDeviceID(c.UserContext(), deviceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("unknown device")
		}
		return apperrors.MapError(err)
	}
	if !kiosk.Active {
		return apperrors.NewUnauthorized("device credentials revoked")
	}
	if err := ComparePassword(kiosk.SecretHash, secret); err != nil {
		return apperrors.NewUnauthorized("invalid device key")
	}

	c.Locals(kioskKey, kiosk)
	return c.Next()
}

// KioskFromContext retrieves the authenticated kiosk.
func KioskFromContext(c *fiber.Ctx) (*domain.Kiosk, bool) {
	val := c.Locals(kioskKey)
	if val == nil {
		return nil, false
	}
	kiosk, ok := val.(*domain.Kiosk)
	return kiosk, ok
}
