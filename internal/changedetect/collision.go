package changedetect

import (
	"context"

	"github.com/specialistvlad/gasgen/internal/ctxlog"
	"github.com/specialistvlad/gasgen/internal/diag"
)

// CollisionDetector notices two records producing the same input hash in one
// run. The first writer keeps the hash; later ones are reported.
type CollisionDetector struct {
	owners map[uint64]string
}

// NewCollisionDetector returns an empty detector.
func NewCollisionDetector() *CollisionDetector {
	return &CollisionDetector{owners: map[uint64]string{}}
}

// Check records hash for key. It returns a warning when another key already
// owns the hash.
func (c *CollisionDetector) Check(ctx context.Context, hash uint64, key string) *diag.Error {
	owner, taken := c.owners[hash]
	if !taken {
		c.owners[hash] = key
		return nil
	}
	if owner == key {
		return nil
	}
	ctxlog.FromContext(ctx).Warn("Input hash collision", "hash", hash, "record", key, "first", owner)
	return diag.Warn(diag.CodeHashCollision, key, "",
		"input hash %d is also produced by %s", hash, owner)
}

// Reset forgets every recorded hash.
func (c *CollisionDetector) Reset() {
	c.owners = map[uint64]string{}
}
