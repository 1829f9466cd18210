// Package service implements authentication, token management, tenant
// provisioning and the side-effect publishers used by the handlers.
package service

import "errors"

// Token errors. VerifyAccess and VerifyRefresh never return anything else for
// a bad token, so callers map them without inspecting JWT internals.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)

// Authentication errors.
var (
	ErrConflict           = errors.New("username or email already exists")
	ErrTenantNotFound     = errors.New("choir not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrCorruptAccount     = errors.New("account has no password hash")
	ErrRefreshRejected    = errors.New("refresh token rejected")
)

// ErrChoirCodeTaken is returned when a new choir reuses an existing code.
var ErrChoirCodeTaken = errors.New("choir code already exists")
