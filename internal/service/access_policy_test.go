package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/healthconnect-api/internal/models"
	appErrors "github.com/noah-isme/healthconnect-api/pkg/errors"
)

func principal(id string, role models.UserRole) Principal {
	return Principal{ID: id, Role: role, User: &models.User{ID: id, Role: role}}
}

func TestAuthorizeMatrix(t *testing.T) {
	nurse := "n1"
	pending := &models.Appointment{ID: 1, StudentID: "s1", Status: models.StatusPending}
	assigned := &models.Appointment{ID: 2, StudentID: "s1", NurseID: &nurse, Status: models.StatusAssigned}

	cases := []struct {
		name   string
		p      Principal
		action Action
		appt   *models.Appointment
		code   string
	}{
		{"student reads own", principal("s1", models.RoleStudent), ActionRead, pending, ""},
		{"student reads other", principal("s2", models.RoleStudent), ActionRead, pending, appErrors.ErrForbidden.Code},
		{"student updates other", principal("s2", models.RoleStudent), ActionUpdate, pending, appErrors.ErrForbidden.Code},
		{"student deletes own pending", principal("s1", models.RoleStudent), ActionDelete, pending, ""},
		{"student deletes own assigned", principal("s1", models.RoleStudent), ActionDelete, assigned, appErrors.ErrInvalidState.Code},
		{"student deletes other", principal("s2", models.RoleStudent), ActionDelete, pending, appErrors.ErrForbidden.Code},
		{"student creates", principal("s1", models.RoleStudent), ActionCreate, nil, ""},
		{"student assigns", principal("s1", models.RoleStudent), ActionAssign, nil, appErrors.ErrForbidden.Code},
		{"nurse reads assigned", principal("n1", models.RoleNurse), ActionRead, assigned, ""},
		{"nurse reads unassigned", principal("n1", models.RoleNurse), ActionRead, pending, appErrors.ErrForbidden.Code},
		{"other nurse updates", principal("n2", models.RoleNurse), ActionUpdate, assigned, appErrors.ErrForbidden.Code},
		{"nurse deletes own", principal("n1", models.RoleNurse), ActionDelete, assigned, ""},
		{"nurse creates", principal("n1", models.RoleNurse), ActionCreate, nil, appErrors.ErrForbidden.Code},
		{"nurse assigns", principal("n1", models.RoleNurse), ActionAssign, nil, appErrors.ErrForbidden.Code},
		{"admin deletes assigned", principal("a1", models.RoleAdmin), ActionDelete, assigned, ""},
		{"admin assigns", principal("a1", models.RoleAdmin), ActionAssign, nil, ""},
		{"admin creates", principal("a1", models.RoleAdmin), ActionCreate, nil, appErrors.ErrForbidden.Code},
		{"unknown role", principal("x1", models.UserRole("Janitor")), ActionRead, pending, appErrors.ErrForbidden.Code},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.p, tc.action, tc.appt)
			if tc.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
		})
	}
}

func TestListScope(t *testing.T) {
	filter, err := ListScope(principal("s1", models.RoleStudent))
	require.NoError(t, err)
	require.NotNil(t, filter.StudentID)
	assert.Equal(t, "s1", *filter.StudentID)
	assert.Nil(t, filter.NurseID)

	filter, err = ListScope(principal("n1", models.RoleNurse))
	require.NoError(t, err)
	require.NotNil(t, filter.NurseID)
	assert.Nil(t, filter.StudentID)

	filter, err = ListScope(principal("a1", models.RoleAdmin))
	require.NoError(t, err)
	assert.Nil(t, filter.StudentID)
	assert.Nil(t, filter.NurseID)

	_, err = ListScope(principal("x1", models.UserRole("")))
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden.Code))
}
