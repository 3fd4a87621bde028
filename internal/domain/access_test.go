package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neomorfeo/fabflow/internal/domain"
)

var (
	customer = domain.Actor{Profile: domain.Profile{ID: 1, Role: domain.RoleCustomer, CompanyName: "Acme"}}
	peer     = domain.Actor{Profile: domain.Profile{ID: 2, Role: domain.RoleCustomer, CompanyName: "Acme"}}
	stranger = domain.Actor{Profile: domain.Profile{ID: 3, Role: domain.RoleCustomer, CompanyName: "Globex"}}
	curator  = domain.Actor{Profile: domain.Profile{ID: 4, Role: domain.RoleCurator, CompanyName: "Center"}}
	executor = domain.Actor{Profile: domain.Profile{ID: 5, Role: domain.RoleExecutor, CompanyName: "MT"}, Platform: "MT"}
	otherFab = domain.Actor{Profile: domain.Profile{ID: 6, Role: domain.RoleExecutor, CompanyName: "KI"}, Platform: "KI"}
	noFab    = domain.Actor{Profile: domain.Profile{ID: 7, Role: domain.RoleExecutor, CompanyName: "Unknown"}}
)

func testOrder(status domain.Status) domain.Order {
	o := domain.NewOrder(customer.ID, "MT", "mask")
	o.ID = 100
	o.Status = status
	return o
}

func TestAccessRules_TotalWithSingleRole(t *testing.T) {
	assert.Len(t, domain.AccessRules, len(domain.Statuses))
	for _, s := range domain.Statuses {
		role, ok := domain.RequiredRole(s)
		assert.True(t, ok, "status %q has no access rule", s)
		assert.True(t, role.Valid(), "status %q maps to invalid role %q", s, role)
	}
}

func TestCanActOnStatus_MatchesAccessRule(t *testing.T) {
	actors := []domain.Actor{customer, curator, executor}
	for _, s := range domain.Statuses {
		order := testOrder(s)
		want := domain.AccessRules[s]
		for _, a := range actors {
			assert.Equal(t, a.Role == want, domain.CanActOnStatus(a, order),
				"status %q role %q", s, a.Role)
		}
	}
}

func TestCanActOnStatus_UnknownStatus(t *testing.T) {
	order := testOrder("BOGUS")
	for _, a := range []domain.Actor{customer, curator, executor} {
		assert.False(t, domain.CanActOnStatus(a, order))
	}
}

func TestCanView(t *testing.T) {
	order := testOrder(domain.StatusCuratorReview)
	creator := customer.Profile

	cases := []struct {
		name  string
		actor domain.Actor
		want  bool
	}{
		{"creator", customer, true},
		{"same company peer", peer, true},
		{"other company", stranger, false},
		{"curator", curator, true},
		{"executor of platform", executor, true},
		{"executor of other platform", otherFab, false},
		{"executor without platform", noFab, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, domain.CanView(tc.actor, order, creator))
		})
	}
}

func TestCanView_EmptyCompanyIsNotAPeer(t *testing.T) {
	order := testOrder(domain.StatusCuratorReview)
	anon := domain.Actor{Profile: domain.Profile{ID: 42, Role: domain.RoleCustomer}}
	assert.False(t, domain.CanView(anon, order, domain.Profile{ID: customer.ID}))
}

func TestCanView_SameCompanyAnyRole(t *testing.T) {
	order := testOrder(domain.StatusCuratorReview)
	inHouse := domain.Actor{
		Profile:  domain.Profile{ID: 8, Role: domain.RoleExecutor, CompanyName: "Acme"},
		Platform: "KI",
	}

	assert.True(t, domain.CanView(inHouse, order, customer.Profile))
	assert.False(t, domain.CanEdit(inHouse, order))
}

func TestCanEdit(t *testing.T) {
	order := testOrder(domain.StatusCuratorReview)

	cases := []struct {
		name  string
		actor domain.Actor
		want  bool
	}{
		{"creator", customer, true},
		{"same company peer", peer, false},
		{"other company", stranger, false},
		{"curator", curator, true},
		{"executor of platform", executor, true},
		{"executor of other platform", otherFab, false},
		{"executor without platform", noFab, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, domain.CanEdit(tc.actor, order))
		})
	}
}

func TestCanEdit_NarrowerThanCanView(t *testing.T) {
	order := testOrder(domain.StatusPaymentPending)
	for _, a := range []domain.Actor{customer, peer, stranger, curator, executor, otherFab, noFab} {
		if domain.CanEdit(a, order) {
			assert.True(t, domain.CanView(a, order, customer.Profile), "actor %d can edit but not view", a.ID)
		}
	}
}

func TestRole_Parse(t *testing.T) {
	for _, r := range domain.Roles {
		got, err := domain.ParseRole(string(r))
		assert.NoError(t, err)
		assert.Equal(t, r, got)
	}
	_, err := domain.ParseRole("admin")
	assert.Error(t, err)
}
