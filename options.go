package ntree

import (
	"golang.org/x/xerrors"
)

var defaultInitialHeight = 0

type config struct {
	height int
}

type Option func(*config) error

// UseInitialHeight sets the number of subdivision levels above the tile grid
// that the tree starts with. A height of 0 makes the tree a single tile.
func UseInitialHeight(height int) Option {
	return func(c *config) error {
		if height < 0 {
			return xerrors.Errorf("initial height must be non-negative, is %d: %w", height, ErrInvalidConfiguration)
		}
		c.height = height
		return nil
	}
}

func defaultConfig() *config {
	return &config{
		height: defaultInitialHeight,
	}
}
