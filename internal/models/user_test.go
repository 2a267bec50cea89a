package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRoleDecode(t *testing.T) {
	var role UserRole
	require.NoError(t, json.Unmarshal([]byte(`"Nurse"`), &role))
	assert.Equal(t, RoleNurse, role)

	assert.Error(t, json.Unmarshal([]byte(`"Doctor"`), &role))
	assert.Error(t, json.Unmarshal([]byte(`"nurse"`), &role))
}

func TestUserRoleScan(t *testing.T) {
	var role UserRole
	require.NoError(t, role.Scan([]byte("Admin")))
	assert.Equal(t, RoleAdmin, role)
	assert.Error(t, role.Scan("SUPERADMIN"))

	_, err := UserRole("Janitor").Value()
	assert.Error(t, err)
}

func TestClaimsRejectUnknownRole(t *testing.T) {
	var claims JWTClaims
	assert.Error(t, json.Unmarshal([]byte(`{"user_id":"u1","role":"Teacher"}`), &claims))
	require.NoError(t, json.Unmarshal([]byte(`{"user_id":"u1","role":"Student"}`), &claims))
	assert.Equal(t, RoleStudent, claims.Role)
}

func TestStringHelpers(t *testing.T) {
	assert.Nil(t, StringPtr(""))
	assert.Equal(t, "x", StringValue(StringPtr("x")))
	assert.Equal(t, "", StringValue(nil))
}
