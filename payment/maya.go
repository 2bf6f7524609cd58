package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"grocery-backend/models"
)

// MayaGateway implements Gateway against the Maya checkout API.
type MayaGateway struct {
	baseURL    string
	publicKey  string
	successURL string
	failureURL string
	cancelURL  string
	httpClient *http.Client
}

// NewMayaGateway creates a new MayaGateway.
func NewMayaGateway(baseURL, publicKey, successURL, failureURL, cancelURL string) *MayaGateway {
	return &MayaGateway{
		baseURL:    baseURL,
		publicKey:  publicKey,
		successURL: successURL,
		failureURL: failureURL,
		cancelURL:  cancelURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ---- Maya API request/response structs ----

type mayaAmount struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

type mayaItem struct {
	Name        string     `json:"name"`
	Quantity    int        `json:"quantity"`
	Amount      mayaAmount `json:"amount"`
	TotalAmount mayaAmount `json:"totalAmount"`
}

type mayaRedirectURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Cancel  string `json:"cancel"`
}

type mayaCheckoutRequest struct {
	TotalAmount            mayaAmount       `json:"totalAmount"`
	Items                  []mayaItem       `json:"items"`
	RedirectURL            mayaRedirectURLs `json:"redirectUrl"`
	RequestReferenceNumber string           `json:"requestReferenceNumber"`
}

type mayaCheckoutResponse struct {
	CheckoutID  string `json:"checkoutId"`
	RedirectURL string `json:"redirectUrl"`
}

// CreateCheckout creates a Maya checkout session for a pending order. Item
// names are not sent to the gateway beyond what the order froze; the frozen
// unit prices are authoritative.
func (g *MayaGateway) CreateCheckout(ctx context.Context, order *models.Order) (*CheckoutSession, error) {
	items := make([]mayaItem, 0, len(order.Items))
	for _, item := range order.Items {
		name := item.ProductID.String()
		if item.Product != nil {
			name = item.Product.Name
		}
		items = append(items, mayaItem{
			Name:     name,
			Quantity: item.Quantity,
			Amount:   mayaAmount{Value: item.UnitPrice, Currency: "PHP"},
			TotalAmount: mayaAmount{
				Value:    item.UnitPrice * float64(item.Quantity),
				Currency: "PHP",
			},
		})
	}

	reqBody := mayaCheckoutRequest{
		TotalAmount: mayaAmount{Value: order.TotalPrice, Currency: "PHP"},
		Items:       items,
		RedirectURL: mayaRedirectURLs{
			Success: fmt.Sprintf("%s?orderId=%s", g.successURL, order.ID),
			Failure: fmt.Sprintf("%s?orderId=%s", g.failureURL, order.ID),
			Cancel:  fmt.Sprintf("%s?orderId=%s", g.cancelURL, order.ID),
		},
		RequestReferenceNumber: order.ID.String(),
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("maya request marshal failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/checkout/v1/checkouts", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("maya request build failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+basicAuth(g.publicKey))

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("maya request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("maya response read failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("maya returned status %d: %s", resp.StatusCode, string(body))
	}

	var result mayaCheckoutResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("maya response parse failed: %w", err)
	}
	if result.CheckoutID == "" || result.RedirectURL == "" {
		return nil, fmt.Errorf("maya response missing checkout id or redirect url")
	}

	return &CheckoutSession{
		CheckoutID:  result.CheckoutID,
		RedirectURL: result.RedirectURL,
	}, nil
}

// Maya uses the public key as the Basic auth username with an empty
// password.
func basicAuth(publicKey string) string {
	return base64.StdEncoding.EncodeToString([]byte(publicKey + ":"))
}
