package gateway_test

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanaol/canteen/internal/enum"
	"github.com/sanaol/canteen/internal/gateway"
)

func TestInitiateAndVerify(t *testing.T) {
	g := gateway.NewRedirect("https://pay.test/", "s3cret")
	id := uuid.New()

	in, err := g.Initiate(context.Background(), gateway.Payment{
		Target:   enum.PaymentTargetCatering,
		TargetID: id,
		Amount:   decimal.RequireFromString("1000"),
		Method:   "gcash",
	})
	require.NoError(t, err)
	assert.Equal(t, "GCASH", in.Method)
	require.True(t, strings.HasPrefix(in.RedirectURL, "https://pay.test/pay?"))

	u, err := url.Parse(in.RedirectURL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, in.Reference, q.Get("reference"))
	assert.Equal(t, "1000.00", q.Get("amount"))

	conf := gateway.Confirmation{
		Reference: in.Reference,
		Target:    enum.PaymentTargetCatering,
		TargetID:  id,
		Amount:    decimal.RequireFromString("1000.00"),
		Method:    "GCASH",
		Signature: q.Get("sig"),
	}
	require.NoError(t, g.Verify(conf))

	tampered := conf
	tampered.Amount = decimal.RequireFromString("1.00")
	assert.ErrorIs(t, g.Verify(tampered), gateway.ErrBadSignature)

	other := gateway.NewRedirect("https://pay.test", "different")
	assert.ErrorIs(t, other.Verify(conf), gateway.ErrBadSignature)

	garbage := conf
	garbage.Signature = "zz"
	assert.ErrorIs(t, g.Verify(garbage), gateway.ErrBadSignature)
}

func TestInitiate_Rejects(t *testing.T) {
	g := gateway.NewRedirect("https://pay.test", "k")

	_, err := g.Initiate(context.Background(), gateway.Payment{Amount: decimal.NewFromInt(1), Method: "BITCOIN"})
	assert.ErrorIs(t, err, gateway.ErrUnsupportedMethod)

	_, err = g.Initiate(context.Background(), gateway.Payment{Amount: decimal.Zero, Method: "MAYA"})
	assert.ErrorIs(t, err, gateway.ErrInvalidAmount)
}

func TestValidMethod(t *testing.T) {
	assert.True(t, gateway.ValidMethod(" counter "))
	assert.True(t, gateway.ValidMethod("Maya"))
	assert.False(t, gateway.ValidMethod("cash"))
}
