package httpx

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dewv/nlc-visits/internal/adapters/devauth"
	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/domain/model"
	"github.com/dewv/nlc-visits/internal/mocks"
	"github.com/dewv/nlc-visits/internal/ports"
)

// A second tab can open a visit between the policy check and the insert.
func TestCheckIn_LosesRaceToConcurrentCheckIn(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockVisitRepository(ctrl)
	repo.EXPECT().Latest(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, ports.ErrOpenVisitExists)

	h := newHarness(t, harnessOptions{Visits: repo})
	h.login("stu@dewv.edu", devauth.SecretStudent)
	h.completeProfile(domainauth.RoleStudent, "stu@dewv.edu")
	h.setLocation("Library")

	res := h.post("/visit", url.Values{"purpose": {"Study"}})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Contains(t, res.Body, "You are already checked in.")
	assert.NotEmpty(t, h.cookie(SessionCookieName), "a rejected check-in keeps the session")
}

func TestCheckIn_SendsFormAndLocation(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockVisitRepository(ctrl)
	repo.EXPECT().Latest(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	var got model.CreateVisitRequest
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req model.CreateVisitRequest) (*model.Visit, error) {
			got = req
			return &model.Visit{ID: 1, StudentID: req.StudentID, CheckInTime: req.CheckInTime}, nil
		})

	h := newHarness(t, harnessOptions{Visits: repo})
	h.login("stu@dewv.edu", devauth.SecretStudent)
	p := h.completeProfile(domainauth.RoleStudent, "stu@dewv.edu")
	h.setLocation("Tutoring Center")

	res := h.post("/visit", url.Values{
		"purpose":      {"Essay help"},
		"usedTutor":    {"Yes"},
		"tutorCourses": {"ENGL 101"},
		"comment":      {"first draft"},
	})
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, p.ID, got.StudentID)
	assert.Equal(t, "Tutoring Center", got.Location)
	assert.Equal(t, "Essay help", got.Purpose)
	assert.Equal(t, "ENGL 101", got.Notes.TutorCourses)
	assert.WithinDuration(t, time.Now(), got.CheckInTime, time.Minute)
}

func TestCheckOut_SuppliedDurationIsEstimated(t *testing.T) {
	visits := &memoryVisits{}
	h := newHarness(t, harnessOptions{Visits: visits})
	h.login("stu@dewv.edu", devauth.SecretStudent)
	p := h.completeProfile(domainauth.RoleStudent, "stu@dewv.edu")
	h.setLocation("Library")
	h.post("/visit", url.Values{"purpose": {"Study"}})
	h.login("stu@dewv.edu", devauth.SecretStudent)

	res := h.post("/visit/1", url.Values{"purposeAchieved": {"yes"}, "durationHours": {"1.5"}})
	require.Equal(t, http.StatusOK, res.Status)

	v, err := visits.Latest(t.Context(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, v.DurationHours)
	assert.InDelta(t, 1.5, *v.DurationHours, 0.001)
	assert.True(t, v.DurationIsEstimated)
	require.NotNil(t, v.PurposeAchieved)
	assert.Equal(t, model.PurposeAchievedYes, *v.PurposeAchieved)
}

func TestCheckOut_RejectsBadDuration(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.login("stu@dewv.edu", devauth.SecretStudent)
	h.completeProfile(domainauth.RoleStudent, "stu@dewv.edu")
	h.setLocation("Library")
	h.post("/visit", url.Values{"purpose": {"Study"}})
	h.login("stu@dewv.edu", devauth.SecretStudent)

	for _, raw := range []string{"-2", "NaN", "Inf", "-Inf", "+Inf", "1e308", "25", "two"} {
		res := h.post("/visit/1", url.Values{"purposeAchieved": {"Yes"}, "durationHours": {raw}})
		assert.Equal(t, http.StatusBadRequest, res.Status, "durationHours=%q", raw)
	}

	v, err := h.visits.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, v.IsOpen(), "rejected durations leave the visit open")

	res := h.post("/visit/1", url.Values{"purposeAchieved": {"Yes"}, "durationHours": {"24"}})
	assert.NotEqual(t, http.StatusBadRequest, res.Status)
	v, err = h.visits.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, v.DurationHours)
	assert.InDelta(t, 24.0, *v.DurationHours, 1e-9)
}
