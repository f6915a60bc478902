package config

import "errors"

var (
	errInvalidFrameCount = errors.New("config: FramesInFlight must be >= 2")
	errInvalidTileSize   = errors.New("config: HZBTileSize must be a positive power of two")
)
