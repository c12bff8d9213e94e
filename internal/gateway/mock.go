package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	pubnub "github.com/pubnub/go/v7"

	"eventpass/internal/status"
	"eventpass/utils"
)

// MockConfig configures the stub gateway. PubNub keys are optional; when
// set, settlements are also published on the notification channel the
// way a real bank backend would.
type MockConfig struct {
	MerchantID    string
	Currency      string
	WebhookSecret string

	PNPublishKey   string
	PNSubscribeKey string
	PNChannel      string
}

// MockProvider is an in-memory payment gateway. It issues HMAC-stamped
// QR payload strings, tracks charges in memory and settles them on
// demand through Simulate. Payment correctness is explicitly out of
// scope; the mock only exercises the same wire shape a real provider
// would.
type MockProvider struct {
	merchantID string
	currency   string
	hmacKey    []byte

	webhookHash string

	pn        *pubnub.PubNub
	pnChannel string

	mu      sync.Mutex
	pending map[string]*TransactionStatus
	txCh    chan *Transaction
}

func NewMockProvider(cfg *MockConfig) (*MockProvider, error) {
	p := &MockProvider{
		merchantID: cfg.MerchantID,
		currency:   cfg.Currency,
		hmacKey:    []byte(cfg.WebhookSecret),
		pending:    make(map[string]*TransactionStatus),
	}
	if p.currency == "" {
		p.currency = "USD"
	}

	if cfg.WebhookSecret != "" {
		hash, err := utils.GenerateHash([]byte(cfg.WebhookSecret))
		if err != nil {
			return nil, fmt.Errorf("gateway: hash webhook secret: %w", err)
		}
		p.webhookHash = hash
	}

	if cfg.PNPublishKey != "" && cfg.PNSubscribeKey != "" {
		pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.MerchantID))
		pnConfig.PublishKey = cfg.PNPublishKey
		pnConfig.SubscribeKey = cfg.PNSubscribeKey
		p.pn = pubnub.NewPubNub(pnConfig)
		p.pnChannel = cfg.PNChannel
	}

	return p, nil
}

func (p *MockProvider) GetProvider() Provider {
	return ProviderMock
}

func (p *MockProvider) GenerateQR(ctx context.Context, req *PaymentRequest) (string, error) {
	if req.UUID == "" {
		return "", status.ErrPaymentNotFound
	}

	p.mu.Lock()
	p.pending[req.UUID] = &TransactionStatus{
		UUID:      req.UUID,
		RefID:     req.ReferenceNumber,
		Status:    "pending",
		Amount:    req.Amount,
		Currency:  req.Currency,
		Timestamp: time.Now().Unix(),
	}
	p.mu.Unlock()

	body := fmt.Sprintf("%s|%s|%s|%s", p.merchantID, req.UUID, req.Amount.StringFixed(2), req.Currency)
	sig := utils.Hmac256([]byte(body), p.hmacKey)
	return fmt.Sprintf("MOCKPAY|%s|%s", body, sig), nil
}

func (p *MockProvider) CheckTransaction(ctx context.Context, uuid string) (*TransactionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tx, ok := p.pending[uuid]
	if !ok {
		return nil, status.ErrPaymentNotFound
	}
	out := *tx
	return &out, nil
}

func (p *MockProvider) SetTransactionChannel(ch chan *Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.txCh = ch
}

// VerifyWebhookToken checks a presented webhook token against the
// configured secret's bcrypt hash.
func (p *MockProvider) VerifyWebhookToken(token string) bool {
	if p.webhookHash == "" {
		return false
	}
	return utils.CompareHash([]byte(p.webhookHash), []byte(token))
}

// Simulate settles a pending charge with the given result status
// (success or failed) and emits the settlement notification.
func (p *MockProvider) Simulate(ctx context.Context, uuid, result string) (*Transaction, error) {
	p.mu.Lock()
	tx, ok := p.pending[uuid]
	if !ok {
		p.mu.Unlock()
		return nil, status.ErrPaymentNotFound
	}
	tx.Status = result
	tx.Timestamp = time.Now().Unix()
	notification := &Transaction{
		UUID:   tx.UUID,
		RefID:  tx.RefID,
		Status: result,
		Amount: tx.Amount,
	}
	ch := p.txCh
	p.mu.Unlock()

	if ch != nil {
		select {
		case ch <- notification:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if p.pn != nil {
		p.pn.Publish().
			Channel(p.pnChannel).
			Message(map[string]any{
				"payment_id": notification.UUID,
				"status":     notification.Status,
			}).
			Execute()
	}

	return notification, nil
}

func (p *MockProvider) Close(ctx context.Context) error {
	if p.pn != nil {
		p.pn.UnsubscribeAll()
	}
	return nil
}
