package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"victoria-kids-api/internal/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test_secret"

// signPayload builds a Stripe-Signature header the way Stripe does:
// v1 = HMAC-SHA256(secret, "<timestamp>.<payload>").
func signPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload() []byte {
	return []byte(fmt.Sprintf(
		`{"id":"evt_test_1","object":"event","api_version":%q,"type":"checkout.session.completed","data":{"object":{"id":"cs_test_1"}}}`,
		stripe.APIVersion))
}

func TestVerifyWebhook(t *testing.T) {
	g := NewStripeGateway("sk_test_x", testWebhookSecret, "usd")
	payload := eventPayload()

	event, err := g.VerifyWebhook(payload, signPayload(payload, testWebhookSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_test_1", event.ID)
	assert.EqualValues(t, "checkout.session.completed", event.Type)
}

func TestVerifyWebhookWrongSecret(t *testing.T) {
	g := NewStripeGateway("sk_test_x", testWebhookSecret, "usd")
	payload := eventPayload()

	_, err := g.VerifyWebhook(payload, signPayload(payload, "whsec_other", time.Now()))
	assert.True(t, errors.Is(err, models.ErrInvalidSignature))
}

func TestVerifyWebhookTamperedPayload(t *testing.T) {
	g := NewStripeGateway("sk_test_x", testWebhookSecret, "usd")
	payload := eventPayload()
	header := signPayload(payload, testWebhookSecret, time.Now())

	tampered := append([]byte(nil), payload...)
	tampered[len(tampered)-2] = ' '

	_, err := g.VerifyWebhook(tampered, header)
	assert.True(t, errors.Is(err, models.ErrInvalidSignature))
}

func TestVerifyWebhookStaleTimestamp(t *testing.T) {
	g := NewStripeGateway("sk_test_x", testWebhookSecret, "usd")
	payload := eventPayload()

	_, err := g.VerifyWebhook(payload, signPayload(payload, testWebhookSecret, time.Now().Add(-time.Hour)))
	assert.True(t, errors.Is(err, models.ErrInvalidSignature))
}

func TestVerifyWebhookMalformedHeader(t *testing.T) {
	g := NewStripeGateway("sk_test_x", testWebhookSecret, "usd")

	_, err := g.VerifyWebhook(eventPayload(), "not-a-signature")
	assert.True(t, errors.Is(err, models.ErrInvalidSignature))
}
