// Package devseed loads sample profiles and visits into a development database.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dewv/nlc-visits/internal/data"
	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/domain/model"
	"github.com/dewv/nlc-visits/internal/ports"
	"github.com/dewv/nlc-visits/internal/service"
)

// DefaultAnswer is the security answer given to every seeded profile, so the
// security-question login can be tried against any of them.
const DefaultAnswer = "blue"

// seedQuestionID is "What is your favorite color?" in the initial schema.
const seedQuestionID int64 = 1

// Services bundles the dependencies needed for development seeding.
type Services struct {
	profiles   ports.ProfileRepository
	visits     ports.VisitRepository
	profileSvc *service.ProfileService
	visitSvc   *service.VisitService
	clock      *seedClock
}

// NewServices constructs all required services for seeding using the provided DB.
func NewServices(db *sql.DB) Services {
	return newServices(data.NewProfileRepo(db), data.NewSecurityRepo(db), data.NewVisitRepo(db))
}

func newServices(profiles ports.ProfileRepository, security ports.SecurityRepository, visits ports.VisitRepository) Services {
	clock := &seedClock{}
	return Services{
		profiles:   profiles,
		visits:     visits,
		profileSvc: service.NewProfileService(service.ProfileServiceOptions{
			Profiles: profiles,
			Security: security,
		}),
		visitSvc: service.NewVisitService(service.VisitServiceOptions{
			Visits: visits,
			Config: service.VisitServiceConfig{Now: clock.Now},
		}),
		clock: clock,
	}
}

// seedClock lets seeded visits be opened and closed in the past.
type seedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *seedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *seedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type person struct {
	Role       domainauth.Role
	Identifier string
	FirstName  string
	LastName   string
}

func defaultPeople() []person {
	return []person{
		{Role: domainauth.RoleStudent, Identifier: "amy.adams@dewv.edu", FirstName: "Amy", LastName: "Adams"},
		{Role: domainauth.RoleStudent, Identifier: "ben.brown@dewv.edu", FirstName: "Ben", LastName: "Brown"},
		{Role: domainauth.RoleStudent, Identifier: "cara.cole@dewv.edu", FirstName: "Cara", LastName: "Cole"},
		{Role: domainauth.RoleStaff, Identifier: "dana.doe@dewv.edu", FirstName: "Dana", LastName: "Doe"},
	}
}

type visitSeed struct {
	DaysAgo  int
	Location string
	Purpose  string
	Hours    float64
	Achieved string
	Notes    model.VisitNotes
}

func defaultVisits() []visitSeed {
	return []visitSeed{
		{DaysAgo: 6, Location: "Writing Center", Purpose: "Essay review", Hours: 1.25, Achieved: "Yes",
			Notes: model.VisitNotes{UsedTutor: "Yes", TutorCourses: "ENGL 101"}},
		{DaysAgo: 3, Location: "Math Lab", Purpose: "Homework", Hours: 2, Achieved: "Not sure"},
		{DaysAgo: 1, Location: "Main Lab", Purpose: "Study", Hours: 0.5, Achieved: "No",
			Notes: model.VisitNotes{Comment: "Left early for practice"}},
	}
}

// Run executes the full development seeding workflow. It can be re-run:
// existing profiles are reused and students with visits are skipped.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now().UTC()
	failures := 0
	for _, p := range defaultPeople() {
		profile, err := seedProfile(ctx, svcs, p)
		if err != nil {
			logger.ErrorContext(ctx, "failed to seed profile", "identifier", p.Identifier, "error", err)
			failures++
			continue
		}
		logger.InfoContext(ctx, "seeded profile", "role", p.Role, "identifier", p.Identifier, "id", profile.ID)

		if p.Role != domainauth.RoleStudent {
			continue
		}
		n, err := seedVisits(ctx, svcs, profile.ID, now)
		if err != nil {
			logger.ErrorContext(ctx, "failed to seed visits", "identifier", p.Identifier, "error", err)
			failures++
			continue
		}
		logger.InfoContext(ctx, "seeded visits", "identifier", p.Identifier, "count", n)
	}
	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

func seedProfile(ctx context.Context, svcs Services, p person) (*model.Profile, error) {
	salt, err := service.NewSalt()
	if err != nil {
		return nil, err
	}
	profile, err := svcs.profiles.FindOrCreate(ctx, model.FindOrCreateProfileRequest{
		Role:       p.Role,
		Identifier: p.Identifier,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Salt:       salt,
	})
	if err != nil {
		return nil, err
	}
	if !profile.ForceProfileUpdate {
		return profile, nil
	}

	questionID := seedQuestionID
	answer := DefaultAnswer
	req := model.UpdateProfileRequest{
		FirstName:          &p.FirstName,
		LastName:           &p.LastName,
		SecurityQuestionID: &questionID,
		SecurityAnswer:     &answer,
	}
	if p.Role == domainauth.RoleStaff {
		req.Staff = &model.StaffDetails{IsSLPInstructor: true}
	}
	return svcs.profileSvc.Update(ctx, p.Role, profile.ID, req)
}

func seedVisits(ctx context.Context, svcs Services, studentID int64, now time.Time) (int, error) {
	latest, err := svcs.visits.Latest(ctx, studentID)
	if err != nil {
		return 0, err
	}
	if latest != nil {
		return 0, nil
	}

	created := 0
	for _, v := range defaultVisits() {
		in := now.AddDate(0, 0, -v.DaysAgo).Truncate(time.Hour)
		svcs.clock.Set(in)
		opened, err := svcs.visitSvc.CheckIn(ctx, studentID, service.CheckInInput{
			Location: v.Location,
			Purpose:  v.Purpose,
			Notes:    v.Notes,
		})
		if err != nil {
			return created, err
		}

		svcs.clock.Set(in.Add(time.Duration(v.Hours * float64(time.Hour))))
		if _, err := svcs.visitSvc.CheckOut(ctx, studentID, opened.ID, service.CheckOutInput{
			PurposeAchieved: v.Achieved,
			Notes:           v.Notes,
		}); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
