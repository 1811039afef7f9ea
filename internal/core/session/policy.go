package session

import (
	"math"
	"time"

	"github.com/onhs/olms/internal/core/domain"
)

const (
	DefaultTokenLifetime     = 24 * time.Hour
	DefaultMaxSessionTimeout = 30 * 24 * time.Hour
	DefaultSlidingWindow     = 5 * time.Minute
	DefaultMinRefreshWindow  = time.Minute
)

// Policy derives session lifetimes and sliding-refresh windows from the
// runtime settings snapshot. The zero value uses the package defaults.
type Policy struct {
	// DefaultLifetime applies when the settings do not resolve a timeout.
	DefaultLifetime time.Duration
	// MaxLifetime caps any configured session timeout.
	MaxLifetime time.Duration
	// SlidingWindow is the preferred refresh window.
	SlidingWindow time.Duration
	// MinRefreshWindow is the smallest window, and the minimum slack kept
	// before true expiry.
	MinRefreshWindow time.Duration
}

func (p Policy) maxLifetime() time.Duration {
	if p.MaxLifetime <= 0 {
		return DefaultMaxSessionTimeout
	}
	return p.MaxLifetime
}

func (p Policy) defaultLifetime() time.Duration {
	d := p.DefaultLifetime
	if d <= 0 {
		d = DefaultTokenLifetime
	}
	if limit := p.maxLifetime(); d > limit {
		d = limit
	}
	return d.Round(time.Second)
}

func (p Policy) slidingWindow() time.Duration {
	if p.SlidingWindow <= 0 {
		return DefaultSlidingWindow
	}
	return p.SlidingWindow
}

func (p Policy) minRefreshWindow() time.Duration {
	if p.MinRefreshWindow <= 0 {
		return DefaultMinRefreshWindow
	}
	return p.MinRefreshWindow
}

// ResolveLifetime returns the session lifetime configured by
// settings.SessionTimeoutMinutes, clamped to MaxLifetime and rounded to the
// nearest second. Missing, non-finite or non-positive values, and values that
// round down to zero seconds, yield the default lifetime.
func (p Policy) ResolveLifetime(settings *domain.SystemSettings) time.Duration {
	if settings == nil || settings.SessionTimeoutMinutes == nil {
		return p.defaultLifetime()
	}

	minutes := *settings.SessionTimeoutMinutes
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes <= 0 {
		return p.defaultLifetime()
	}
	if maxMinutes := p.maxLifetime().Minutes(); minutes > maxMinutes {
		minutes = maxMinutes
	}

	seconds := math.Round(minutes * 60)
	if seconds <= 0 {
		return p.defaultLifetime()
	}
	return time.Duration(seconds) * time.Second
}

// RefreshThreshold returns how close to expiry a token must be before it is
// renewed: at least half of the lifetime, never less than the sliding or
// minimum window, and never later than MinRefreshWindow before expiry.
func (p Policy) RefreshThreshold(lifetime time.Duration) time.Duration {
	window := p.slidingWindow()
	floor := p.minRefreshWindow()

	if lifetime <= 0 {
		return max(window, floor)
	}

	ratio := (lifetime / 2).Truncate(time.Second)
	upperBound := max(lifetime-floor, floor)
	desired := max(ratio, window, floor)
	return min(desired, upperBound)
}
