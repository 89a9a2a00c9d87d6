// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNoToken        = errors.New("no stored credential")
	ErrMalformedToken = errors.New("credential could not be decoded")
	ErrTokenExpired   = errors.New("credential has expired")
)

// =============================================================================
// CLAIMS
// =============================================================================

// Claims is the part of the credential payload the client reads.
type Claims struct {
	// Subject is the username the token was issued to.
	Subject string

	// ExpiresAt is the exp claim. Zero when HasExpiry is false.
	ExpiresAt time.Time
	HasExpiry bool
}

// ParseClaims decodes the credential payload. The signature is not verified.
func ParseClaims(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	exp, err := mc.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: exp: %v", ErrMalformedToken, err)
	}
	sub, err := mc.GetSubject()
	if err != nil {
		return nil, fmt.Errorf("%w: sub: %v", ErrMalformedToken, err)
	}

	c := &Claims{Subject: sub}
	if exp != nil {
		c.ExpiresAt = exp.Time
		c.HasExpiry = true
	}
	return c, nil
}

// Expired reports whether the credential is past its exp at now, compared
// in milliseconds. A credential without exp never expires.
func (c *Claims) Expired(now time.Time) bool {
	if !c.HasExpiry {
		return false
	}
	return c.ExpiresAt.UnixMilli() < now.UnixMilli()
}

// Remaining returns the time left before expiry, or zero when expired or
// when there is no expiry.
func (c *Claims) Remaining(now time.Time) time.Duration {
	if !c.HasExpiry {
		return 0
	}
	d := c.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Validate decodes token and checks it against now. It returns
// ErrMalformedToken or ErrTokenExpired (wrapped) when the session must end.
func Validate(token string, now time.Time) (*Claims, error) {
	c, err := ParseClaims(token)
	if err != nil {
		return nil, err
	}
	if c.Expired(now) {
		return c, fmt.Errorf("%w at %s", ErrTokenExpired, c.ExpiresAt.Format(time.RFC3339))
	}
	return c, nil
}
