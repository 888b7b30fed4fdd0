// Package gateway builds hosted-payment redirects and verifies the signed
// confirmations the payment provider posts back.
package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanaol/canteen/internal/enum"
)

// Errors returned by the gateway.
var (
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	ErrBadSignature      = errors.New("invalid payment signature")
	ErrInvalidAmount     = errors.New("payment amount must be positive")
)

var methods = map[string]bool{
	enum.PaymentMethodGCash:   true,
	enum.PaymentMethodMaya:    true,
	enum.PaymentMethodCounter: true,
}

// ValidMethod reports whether m is an accepted payment method.
func ValidMethod(m string) bool {
	return methods[strings.ToUpper(strings.TrimSpace(m))]
}

// Payment identifies what is being paid for.
type Payment struct {
	Target   string // enum.PaymentTarget*
	TargetID uuid.UUID
	Amount   decimal.Decimal
	Method   string
}

// Initiation is a payment that has been handed to the provider.
type Initiation struct {
	Reference   string          `json:"reference"`
	RedirectURL string          `json:"redirect_url"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
}

// Confirmation is what the provider posts back once the payer has paid.
type Confirmation struct {
	Reference string          `json:"reference"`
	Target    string          `json:"target"`
	TargetID  uuid.UUID       `json:"target_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Signature string          `json:"signature"`
}

// Gateway starts payments and verifies their confirmations.
type Gateway interface {
	Initiate(ctx context.Context, p Payment) (Initiation, error)
	Verify(c Confirmation) error
}

// Redirect is a Gateway for providers that take the payer to a hosted page
// and sign their callbacks with a shared secret.
type Redirect struct {
	baseURL string
	secret  []byte
}

// NewRedirect creates a Redirect gateway.
func NewRedirect(baseURL, secret string) *Redirect {
	return &Redirect{baseURL: strings.TrimRight(baseURL, "/"), secret: []byte(secret)}
}

// Initiate allocates a reference and returns the signed hosted-page URL.
func (g *Redirect) Initiate(_ context.Context, p Payment) (Initiation, error) {
	method := strings.ToUpper(strings.TrimSpace(p.Method))
	if !methods[method] {
		return Initiation{}, fmt.Errorf("%w: %q", ErrUnsupportedMethod, p.Method)
	}
	if !p.Amount.IsPositive() {
		return Initiation{}, ErrInvalidAmount
	}

	ref := uuid.NewString()
	amount := p.Amount.StringFixed(2)
	sig := g.Sign(ref, p.Target, p.TargetID, amount, method)

	q := url.Values{}
	q.Set("reference", ref)
	q.Set("target", p.Target)
	q.Set("target_id", p.TargetID.String())
	q.Set("amount", amount)
	q.Set("method", method)
	q.Set("sig", sig)

	return Initiation{
		Reference:   ref,
		RedirectURL: g.baseURL + "/pay?" + q.Encode(),
		Amount:      p.Amount.Round(2),
		Method:      method,
	}, nil
}

// Verify checks the confirmation signature.
func (g *Redirect) Verify(c Confirmation) error {
	want := g.Sign(c.Reference, c.Target, c.TargetID, c.Amount.StringFixed(2), strings.ToUpper(c.Method))
	got, err := hex.DecodeString(c.Signature)
	if err != nil {
		return ErrBadSignature
	}
	wantRaw, _ := hex.DecodeString(want)
	if !hmac.Equal(got, wantRaw) {
		return ErrBadSignature
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of the pipe-joined payment fields.
func (g *Redirect) Sign(reference, target string, targetID uuid.UUID, amount, method string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(strings.Join([]string{reference, target, targetID.String(), amount, method}, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}
