package models

import "errors"

// ErrMissingMarketData is returned when spot or volatility is unavailable for a tick
var ErrMissingMarketData = errors.New("market data unavailable")

// ErrInvalidStrategyParameters is returned when a position cannot be valued
var ErrInvalidStrategyParameters = errors.New("invalid strategy parameters")

// ErrStaleBinding is returned when an alert's bound strategy no longer resolves.
// Callers treat it like ErrMissingMarketData.
var ErrStaleBinding = errors.New("bound strategy not found")

// ErrNotFound is returned by Book mutations that reference an unknown ID
var ErrNotFound = errors.New("not found")
