package cache

import (
	apperrors "github.com/scanvault/scanvault/internal/errors"
)

// DeviceClass groups devices by how much memory the vault may spend on
// caches.
type DeviceClass string

const (
	DeviceClassLow      DeviceClass = "low"
	DeviceClassStandard DeviceClass = "standard"
	DeviceClassHigh     DeviceClass = "high"
)

type budget struct {
	bytes int64
	items int
}

var classBudgets = map[DeviceClass]budget{
	DeviceClassLow:      {bytes: 8 << 20, items: 32},
	DeviceClassStandard: {bytes: 32 << 20, items: 128},
	DeviceClassHigh:     {bytes: 64 << 20, items: 256},
}

// Capability supplies cache budgets for the current device class. Budgets
// always flow through here; nothing else decides cache sizes.
type Capability struct {
	class  DeviceClass
	budget budget
}

// NewCapability resolves the budgets for class. overrideBytes and
// overrideItems replace the class preset when positive, so a deployment can
// tune budgets without defining a new class.
func NewCapability(class DeviceClass, overrideBytes int64, overrideItems int) (*Capability, error) {
	preset, ok := classBudgets[class]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unknown device class %q", class)
	}
	if overrideBytes > 0 {
		preset.bytes = overrideBytes
	}
	if overrideItems > 0 {
		preset.items = overrideItems
	}
	return &Capability{class: class, budget: preset}, nil
}

// Class returns the resolved device class.
func (c *Capability) Class() DeviceClass {
	return c.class
}

// ThumbnailCacheBytes returns the byte budget for the thumbnail cache.
func (c *Capability) ThumbnailCacheBytes() int64 {
	return c.budget.bytes
}

// ThumbnailCacheItems returns the item budget for the thumbnail cache.
func (c *Capability) ThumbnailCacheItems() int {
	return c.budget.items
}

// NewThumbnailCache creates the thumbnail cache sized by this capability.
func (c *Capability) NewThumbnailCache() *ThumbnailCache {
	return NewThumbnailCache(c.budget.bytes, c.budget.items)
}
