package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	l := New(newMemState())

	_, err := l.Administrator()
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.True(t, errors.Is(l.Initialize(""), ErrInvalidInput))
	require.NoError(t, l.Initialize(admin))
	require.NoError(t, l.Initialize(admin), "re-initializing as the administrator is a no-op")
	assert.True(t, errors.Is(l.Initialize(stranger), ErrUnauthorized))

	got, err := l.Administrator()
	require.NoError(t, err)
	assert.Equal(t, admin, got)
}

func TestAuthorize(t *testing.T) {
	f := newFixture(t)

	ok, err := f.ledger.IsAuthorized(stranger, RoleManufacturer)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.ledger.Authorize(admin, stranger, RoleManufacturer))
	ok, err = f.ledger.IsAuthorized(stranger, RoleManufacturer)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.ledger.IsAuthorized(stranger, RoleServiceProvider)
	require.NoError(t, err)
	assert.False(t, ok, "roles are granted independently")

	grant, err := f.ledger.RoleGrant(stranger, RoleManufacturer)
	require.NoError(t, err)
	assert.Equal(t, admin, grant.GrantedBy)
	assert.Equal(t, []EventType{EventRoleAuthorized}, f.events.types())
}

func TestAuthorizeIsIdempotent(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ledger.Authorize(admin, manufacturer, RoleManufacturer))
	ok, err := f.ledger.IsAuthorized(manufacturer, RoleManufacturer)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, f.events.events)
}

func TestAuthorizeRejections(t *testing.T) {
	f := newFixture(t)

	err := f.ledger.Authorize(manufacturer, stranger, RoleManufacturer)
	assert.True(t, errors.Is(err, ErrUnauthorized))

	err = f.ledger.Authorize(admin, "", RoleManufacturer)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	err = f.ledger.Authorize(admin, stranger, Role("AUDITOR"))
	assert.True(t, errors.Is(err, ErrInvalidInput))

	uninitialized := New(newMemState())
	err = uninitialized.Authorize(admin, stranger, RoleManufacturer)
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestIsAuthorizedNullPrincipal(t *testing.T) {
	f := newFixture(t)
	ok, err := f.ledger.IsAuthorized("", RoleManufacturer)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("SERVICE_PROVIDER")
	require.NoError(t, err)
	assert.Equal(t, RoleServiceProvider, role)

	_, err = ParseRole("manufacturer")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
