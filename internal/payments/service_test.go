package payments

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convo-ai/convo_ai/internal/infra"
	"github.com/convo-ai/convo_ai/internal/ledger"
	"github.com/convo-ai/convo_ai/internal/notification"
	"github.com/convo-ai/convo_ai/internal/users"
)

type testNotifier struct {
	kinds []string
}

func (n *testNotifier) Send(_ context.Context, msg notification.Message) error {
	n.kinds = append(n.kinds, msg.Kind)
	return nil
}

type failingGateway struct{}

func (failingGateway) Name() string { return "failing" }

func (failingGateway) CreateCheckout(context.Context, CheckoutRequest) (Checkout, error) {
	return Checkout{}, errors.New("processor unreachable")
}

func (failingGateway) ParseEvent([]byte, string) (Event, error) {
	return Event{}, ErrInvalidSignature
}

type fixture struct {
	svc      *Service
	users    *users.Service
	ledger   *ledger.GormLedger
	notifier *testNotifier
}

func newFixture(t *testing.T, gateway Gateway) fixture {
	t.Helper()
	ctx := context.Background()
	db := infra.OpenTestDB(t)

	userRepo := users.NewGormRepository(db)
	require.NoError(t, userRepo.AutoMigrate(ctx))
	led := ledger.NewGormLedger(db)
	require.NoError(t, led.AutoMigrate(ctx))
	repo := NewGormRepository(db)
	require.NoError(t, repo.AutoMigrate(ctx))

	userSvc := users.NewService(userRepo, nil)
	notifier := &testNotifier{}
	svc, err := NewService(Options{
		Repository: repo,
		Gateway:    gateway,
		Users:      userSvc,
		Ledger:     led,
		Notifier:   notifier,
	})
	require.NoError(t, err)
	return fixture{svc: svc, users: userSvc, ledger: led, notifier: notifier}
}

func staticEventPayload(kind EventType, paymentID string) []byte {
	return []byte(fmt.Sprintf(`{"id":"evt_1","type":%q,"payment_id":%q}`, kind, paymentID))
}

func TestInitiateReturnsCheckoutURL(t *testing.T) {
	f := newFixture(t, NewStaticGateway("http://localhost:8080/"))
	ctx := context.Background()

	p, err := f.svc.Initiate(ctx, InitiateInput{Amount: decimal.RequireFromString("10.005")})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/checkout/"+p.ID, p.CheckoutURL)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, "usd", p.Currency)
	assert.True(t, p.Amount.Equal(decimal.RequireFromString("10.01")), "amount %s", p.Amount)

	stored, err := f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.CheckoutURL, stored.CheckoutURL)
	assert.Empty(t, stored.UserID)
	assert.Equal(t, []string{notification.KindPaymentInitiated}, f.notifier.kinds)
}

func TestInitiateValidation(t *testing.T) {
	f := newFixture(t, NewStaticGateway("http://localhost:8080"))
	ctx := context.Background()

	for _, amount := range []string{"0", "-5", "0.001"} {
		_, err := f.svc.Initiate(ctx, InitiateInput{Amount: decimal.RequireFromString(amount)})
		assert.ErrorIs(t, err, ErrInvalidAmount, amount)
	}

	_, err := f.svc.Initiate(ctx, InitiateInput{Amount: decimal.NewFromInt(5), UserID: "00000000-0000-0000-0000-000000000000"})
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestInitiateGatewayFailure(t *testing.T) {
	f := newFixture(t, failingGateway{})

	p, err := f.svc.Initiate(context.Background(), InitiateInput{Amount: decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, ErrGatewayFailure)
	assert.Empty(t, p.CheckoutURL)
	assert.Empty(t, f.notifier.kinds)
}

func TestWebhookCompletedCreditsOnce(t *testing.T) {
	f := newFixture(t, NewStaticGateway("http://localhost:8080"))
	ctx := context.Background()

	user, err := f.users.Register(ctx, users.RegisterInput{Name: "Alice", PhoneNumber: "555-0100"})
	require.NoError(t, err)
	p, err := f.svc.Initiate(ctx, InitiateInput{Amount: decimal.RequireFromString("7.25"), UserID: user.ID})
	require.NoError(t, err)

	payload := staticEventPayload(EventCheckoutCompleted, p.ID)
	require.NoError(t, f.svc.HandleWebhook(ctx, payload, ""))
	require.NoError(t, f.svc.HandleWebhook(ctx, payload, ""))

	fetched, err := f.users.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, fetched.Balance.Equal(decimal.RequireFromString("7.25")), "balance %s", fetched.Balance)

	entries, err := f.ledger.Entries(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "payment:"+p.ID, entries[0].Reference)

	stored, err := f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, stored.Status)
	require.NotNil(t, stored.CompletedAt)

	assert.Equal(t, []string{notification.KindPaymentInitiated, notification.KindPaymentSucceeded}, f.notifier.kinds)
}

func TestWebhookExpired(t *testing.T) {
	f := newFixture(t, NewStaticGateway("http://localhost:8080"))
	ctx := context.Background()

	p, err := f.svc.Initiate(ctx, InitiateInput{Amount: decimal.NewFromInt(3)})
	require.NoError(t, err)
	require.NoError(t, f.svc.HandleWebhook(ctx, staticEventPayload(EventCheckoutExpired, p.ID), ""))

	stored, err := f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, stored.Status)

	// a late completion still settles the checkout
	require.NoError(t, f.svc.HandleWebhook(ctx, staticEventPayload(EventCheckoutCompleted, p.ID), ""))
	stored, err = f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, stored.Status)

	// expiry never undoes a success
	_, err = f.svc.Expire(ctx, p.ID)
	require.NoError(t, err)
	stored, err = f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, stored.Status)
}

func TestWebhookIgnoredAndUnknown(t *testing.T) {
	f := newFixture(t, NewStaticGateway("http://localhost:8080"))
	ctx := context.Background()

	assert.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{"type":"customer.created"}`), ""))
	assert.NoError(t, f.svc.HandleWebhook(ctx, staticEventPayload(EventCheckoutCompleted, "11111111-1111-1111-1111-111111111111"), ""))
	assert.ErrorIs(t, f.svc.HandleWebhook(ctx, []byte(`not json`), ""), ErrInvalidSignature)
}

func TestGetUnknown(t *testing.T) {
	f := newFixture(t, NewStaticGateway("http://localhost:8080"))

	_, err := f.svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Get(context.Background(), "11111111-1111-1111-1111-111111111111")
	assert.ErrorIs(t, err, ErrNotFound)
}
