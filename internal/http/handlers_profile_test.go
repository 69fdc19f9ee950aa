package httpx

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewv/nlc-visits/internal/adapters/devauth"
	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
)

func TestProfileUpdate_StaffForcedUpdateCleared(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.login("ada@dewv.edu", devauth.SecretStaff)
	p, err := h.profiles.GetByIdentifier(context.Background(), domainauth.RoleStaff, "ada@dewv.edu")
	require.NoError(t, err)
	require.True(t, p.ForceProfileUpdate)

	res := h.get("/staffmenu")
	assert.Equal(t, fmt.Sprintf("/staff/%d/edit", p.ID), res.Location)

	res = h.post(fmt.Sprintf("/staff/%d", p.ID), url.Values{
		"firstName": {"Ada"}, "lastName": {"Lovelace"}, "isSLPInstructor": {"true"},
	})
	require.Equal(t, http.StatusSeeOther, res.Status)
	assert.Equal(t, domainauth.StaffLandingPath, res.Location)

	updated, err := h.profiles.GetByID(context.Background(), domainauth.RoleStaff, p.ID)
	require.NoError(t, err)
	assert.False(t, updated.ForceProfileUpdate)
	assert.Equal(t, "Lovelace", updated.LastName)
	require.NotNil(t, updated.Staff)
	assert.True(t, updated.Staff.IsSLPInstructor)

	res = h.get("/staffmenu")
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.Body, "Ada Lovelace")
}

func TestProfileUpdate_InvalidInputRerendersForm(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.login("stu@dewv.edu", devauth.SecretStudent)
	p, err := h.profiles.GetByIdentifier(context.Background(), domainauth.RoleStudent, "stu@dewv.edu")
	require.NoError(t, err)
	action := fmt.Sprintf("/student/%d", p.ID)

	tests := []struct {
		name string
		form url.Values
		msg  string
	}{
		{"blank name", url.Values{"firstName": {" "}}, "first name must be 1-255 characters"},
		{"answer without question", url.Values{"securityAnswer": {"blue"}}, "must be supplied together"},
		{"answer too long", url.Values{"securityQuestion": {"1"}, "securityAnswer": {strings.Repeat("a", 60)}}, "56 characters or fewer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.post(action, tt.form)
			assert.Equal(t, http.StatusBadRequest, res.Status)
			assert.Contains(t, res.Body, tt.msg)
			assert.Contains(t, res.Body, fmt.Sprintf(`action="%s"`, action))
		})
	}

	still, err := h.profiles.GetByID(context.Background(), domainauth.RoleStudent, p.ID)
	require.NoError(t, err)
	assert.True(t, still.ForceProfileUpdate)
}

func TestProfileUpdate_OtherUsersProfileForbidden(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.login("stu@dewv.edu", devauth.SecretStudent)
	p := h.completeProfile(domainauth.RoleStudent, "stu@dewv.edu")

	res := h.post(fmt.Sprintf("/student/%d", p.ID+1), url.Values{"firstName": {"Mallory"}})
	assert.Equal(t, http.StatusForbidden, res.Status)
	res = h.get(fmt.Sprintf("/staff/%d/edit", p.ID))
	assert.Equal(t, http.StatusForbidden, res.Status)
}
