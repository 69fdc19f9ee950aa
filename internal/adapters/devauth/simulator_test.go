package devauth

import (
	"context"
	"testing"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
)

func TestSimulator_Secrets(t *testing.T) {
	sim := NewSimulator(nil)
	ctx := context.Background()

	out := sim.Authenticate(ctx, domainauth.Credential{Identifier: "jdoe@dewv.edu", Secret: "student"})
	if !out.OK() {
		t.Fatalf("expected success, got %s", out.Kind)
	}
	want := domainauth.Identity{Role: domainauth.RoleStudent, FirstName: "First", LastName: "Last", Identifier: "jdoe@dewv.edu"}
	if out.Identity != want {
		t.Fatalf("unexpected identity: %+v", out.Identity)
	}

	if got := sim.Authenticate(ctx, domainauth.Credential{Secret: "staff"}); got.Identity.Role != domainauth.RoleStaff {
		t.Fatalf("staff secret should yield staff role, got %+v", got)
	}

	cases := map[string]domainauth.OutcomeKind{
		"neither":  domainauth.OutcomeInsufficientRights,
		"noldap":   domainauth.OutcomeDirectoryUnavailable,
		"password": domainauth.OutcomeInvalidCredentials,
		"":         domainauth.OutcomeInvalidCredentials,
		"Student":  domainauth.OutcomeInvalidCredentials,
	}
	for secret, kind := range cases {
		if got := sim.Authenticate(ctx, domainauth.Credential{Identifier: "x", Secret: secret}); got.Kind != kind {
			t.Fatalf("secret %q: got %s, want %s", secret, got.Kind, kind)
		}
	}
}
