package app_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/fabflow/internal/domain"
)

func TestCreate_Success(t *testing.T) {
	f := newFixture()

	order, err := f.orders.Create(context.Background(), userCustomer, " MT ", "mask-a")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCuratorReview, order.Status)
	assert.Equal(t, creatorProfileID, order.CreatorID)
	assert.Equal(t, "MT", order.PlatformCode)
	assert.Equal(t, "mask-a", order.MaskName)
	assert.NotZero(t, order.ID)
	assert.True(t, strings.HasPrefix(order.Number, "F"), "number %q", order.Number)

	stored := f.repo.stored(t, order.ID)
	assert.Equal(t, order.Number, stored.Number)
}

func TestCreate_CustomersOnly(t *testing.T) {
	f := newFixture()

	for _, user := range []int64{userCurator, userExecutor} {
		_, err := f.orders.Create(context.Background(), user, "MT", "mask")
		assert.True(t, isAccessDenied(err, domain.DenialRoleRequired), "user %d: got %v", user, err)
	}
}

func TestCreate_UnknownPlatform(t *testing.T) {
	f := newFixture()

	_, err := f.orders.Create(context.Background(), userCustomer, "ZZ", "mask")
	assert.ErrorIs(t, err, domain.ErrPlatformNotFound)
}

func TestCreate_UnknownUser(t *testing.T) {
	f := newFixture()

	_, err := f.orders.Create(context.Background(), userUnknown, "MT", "mask")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestGet_Visibility(t *testing.T) {
	f := newFixture()
	order := f.seed(domain.StatusCuratorReview)

	cases := []struct {
		name    string
		user    int64
		visible bool
	}{
		{"creator", userCustomer, true},
		{"same company", userPeer, true},
		{"curator", userCurator, true},
		{"platform executor", userExecutor, true},
		{"other company", userStranger, false},
		{"other platform", userOtherFab, false},
		{"executor without platform", userNoPlatform, false},
		{"executor from creator company", userInHouse, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.orders.Get(context.Background(), tc.user, order.ID)
			if tc.visible {
				require.NoError(t, err)
				assert.Equal(t, order.ID, got.ID)
				return
			}
			assert.True(t, isAccessDenied(err, domain.DenialCannotView), "got %v", err)
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.orders.Get(context.Background(), userCurator, 404)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestList_ScopedByRole(t *testing.T) {
	f := newFixture()
	mine := f.seed(domain.StatusCuratorReview)
	atKI := f.seed(domain.StatusPaymentPending, func(o *domain.Order) { o.PlatformCode = "KI" })
	foreign := f.seed(domain.StatusProduction, func(o *domain.Order) { o.CreatorID = 15 })

	ids := func(user int64, filter domain.ListFilter) []int64 {
		t.Helper()
		orders, err := f.orders.List(context.Background(), user, filter)
		require.NoError(t, err)
		out := make([]int64, 0, len(orders))
		for _, o := range orders {
			out = append(out, o.ID)
		}
		return out
	}

	assert.Equal(t, []int64{mine.ID, atKI.ID, foreign.ID}, ids(userCurator, domain.ListFilter{}))
	assert.Equal(t, []int64{mine.ID, atKI.ID}, ids(userPeer, domain.ListFilter{}))
	assert.Equal(t, []int64{foreign.ID}, ids(userStranger, domain.ListFilter{}))
	assert.Equal(t, []int64{mine.ID, foreign.ID}, ids(userExecutor, domain.ListFilter{}))
	assert.Equal(t, []int64{atKI.ID}, ids(userOtherFab, domain.ListFilter{}))
	assert.Empty(t, ids(userNoPlatform, domain.ListFilter{}))
	assert.Equal(t, []int64{mine.ID, atKI.ID}, ids(userInHouse, domain.ListFilter{}))

	// A caller cannot widen its own scope through the filter.
	assert.Equal(t, []int64{foreign.ID}, ids(userStranger, domain.ListFilter{CreatorCompany: "Acme"}))

	status := domain.StatusPaymentPending
	assert.Equal(t, []int64{atKI.ID}, ids(userCurator, domain.ListFilter{Status: &status}))
}

func TestList_PlatformExecutorSeesOwnCompanyOrders(t *testing.T) {
	f := newFixture()
	atMT := f.seed(domain.StatusPlates)
	atKI := f.seed(domain.StatusPlates, func(o *domain.Order) { o.PlatformCode = "KI" })
	kiAtMT := f.seed(domain.StatusCuratorReview, func(o *domain.Order) { o.CreatorID = 14 })

	orders, err := f.orders.List(context.Background(), userOtherFab, domain.ListFilter{})
	require.NoError(t, err)

	got := make([]int64, 0, len(orders))
	for _, o := range orders {
		got = append(got, o.ID)
	}
	assert.Equal(t, []int64{atKI.ID, kiAtMT.ID}, got)
	assert.NotContains(t, got, atMT.ID)
}

func TestSetAttachment(t *testing.T) {
	f := newFixture()
	order := f.seed(domain.StatusGDSCustomer)

	got, err := f.orders.SetAttachment(context.Background(), userCustomer, order.ID, domain.AttachmentGDS, true)
	require.NoError(t, err)
	assert.True(t, got.Attachments.GDS)
	assert.Equal(t, order.Version+1, got.Version)
	assert.Equal(t, domain.StatusGDSCustomer, got.Status)

	_, err = f.orders.SetAttachment(context.Background(), userPeer, order.ID, domain.AttachmentGDS, false)
	assert.True(t, isAccessDenied(err, domain.DenialNotYourOrder), "got %v", err)
	assert.True(t, f.repo.stored(t, order.ID).Attachments.GDS)
}

func TestSetAttachment_UnblocksTransition(t *testing.T) {
	f := newFixture()
	order := f.seed(domain.StatusGDSCustomer)

	res := apply(t, f, userCustomer, order.ID, domain.ActionUploadGDS)
	require.Equal(t, domain.StatusGDSCustomer, res.Order.Status)

	_, err := f.orders.SetAttachment(context.Background(), userCustomer, order.ID, domain.AttachmentGDS, true)
	require.NoError(t, err)

	res = apply(t, f, userCustomer, order.ID, domain.ActionUploadGDS)
	assert.Equal(t, domain.StatusGDSCurator, res.Order.Status)
}

func TestMarkContractReady_MissingOrderBeforeRole(t *testing.T) {
	f := newFixture()

	_, err := f.orders.MarkContractReady(context.Background(), userCustomer, 404)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestMarkContractReady(t *testing.T) {
	f := newFixture()
	order := f.seed(domain.StatusAccepted)

	_, err := f.orders.MarkContractReady(context.Background(), userCustomer, order.ID)
	assert.True(t, isAccessDenied(err, domain.DenialRoleRequired), "got %v", err)

	got, err := f.orders.MarkContractReady(context.Background(), userCurator, order.ID)
	require.NoError(t, err)
	assert.True(t, got.ContractReady)

	res := apply(t, f, userCustomer, order.ID, domain.ActionRequestContract)
	assert.Equal(t, domain.StatusContractCustomer, res.Order.Status)
}

func TestMessages_GatedByVisibility(t *testing.T) {
	f := newFixture()
	order := f.seed(domain.StatusPlates)
	other := f.seed(domain.StatusPlates)

	_ = f.messages.AppendMessage(context.Background(), domain.Message{ID: "a", OrderID: order.ID, Text: "hello"})
	_ = f.messages.AppendMessage(context.Background(), domain.Message{ID: "b", OrderID: other.ID, Text: "elsewhere"})

	msgs, err := f.orders.Messages(context.Background(), userPeer, order.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text)

	_, err = f.orders.Messages(context.Background(), userStranger, order.ID)
	assert.True(t, isAccessDenied(err, domain.DenialCannotView), "got %v", err)
}
