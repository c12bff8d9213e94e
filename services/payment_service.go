package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"eventpass/internal/gateway"
	"eventpass/internal/status"
	"eventpass/models"
	"eventpass/monitoring"
)

// PaymentService tracks payment sessions for priced joins. Sessions
// live in Redis hashes with a TTL; without Redis they fall back to an
// in-process map. Gateway calls run through a circuit breaker so a
// misbehaving provider fails fast instead of piling up requests.
type PaymentService struct {
	redis    *redis.Client
	provider gateway.PaymentProvider
	breaker  breaker
	ttl      time.Duration

	mu    sync.Mutex
	local map[string]*models.PaymentSession
}

type breaker interface {
	Execute(ctx context.Context, req func() (any, error)) (any, error)
}

func NewPaymentService(redisClient *redis.Client, provider gateway.PaymentProvider, cb breaker, ttl time.Duration) *PaymentService {
	return &PaymentService{
		redis:    redisClient,
		provider: provider,
		breaker:  cb,
		ttl:      ttl,
		local:    make(map[string]*models.PaymentSession),
	}
}

func paymentKey(paymentID string) string {
	return fmt.Sprintf("payment:%s", paymentID)
}

// CreateSession opens a pending charge for user joining event and
// returns the session including the gateway's QR payload.
func (s *PaymentService) CreateSession(ctx context.Context, userID string, event *models.Event) (*models.PaymentSession, error) {
	paymentID := fmt.Sprintf("payment_%s_%d", userID, time.Now().UnixNano())

	result, err := s.breaker.Execute(ctx, func() (any, error) {
		return s.provider.GenerateQR(ctx, &gateway.PaymentRequest{
			Amount:          event.PriceValue,
			Currency:        "USD",
			UUID:            paymentID,
			ReferenceNumber: event.ID,
			Description:     event.Title,
		})
	})
	if err != nil {
		monitoring.TrackPaymentSession("gateway_error")
		return nil, fmt.Errorf("create payment: %w", err)
	}

	now := time.Now()
	session := &models.PaymentSession{
		ID:        paymentID,
		UserID:    userID,
		EventID:   event.ID,
		Amount:    event.PriceValue,
		Status:    models.PaymentPending,
		QRCode:    result.(string),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.saveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	monitoring.TrackPaymentSession("created")
	return session, nil
}

func (s *PaymentService) saveSession(ctx context.Context, session *models.PaymentSession) error {
	if s.redis == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		stored := *session
		s.local[session.ID] = &stored
		return nil
	}

	key := paymentKey(session.ID)
	err := s.redis.HSet(ctx, key, map[string]any{
		"payment_id": session.ID,
		"user_id":    session.UserID,
		"event_id":   session.EventID,
		"amount":     session.Amount.StringFixed(2),
		"status":     string(session.Status),
		"created_at": session.CreatedAt.Unix(),
		"expires_at": session.ExpiresAt.Unix(),
	}).Err()
	if err != nil {
		return err
	}
	return s.redis.Expire(ctx, key, s.ttl).Err()
}

// GetSession loads a payment session. Expired sessions vanish from
// Redis and surface as not found.
func (s *PaymentService) GetSession(ctx context.Context, paymentID string) (*models.PaymentSession, error) {
	if s.redis == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		session, ok := s.local[paymentID]
		if !ok {
			return nil, status.ErrPaymentNotFound
		}
		if session.Expired(time.Now()) {
			return nil, status.ErrPaymentExpired
		}
		out := *session
		return &out, nil
	}

	values, err := s.redis.HGetAll(ctx, paymentKey(paymentID)).Result()
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, status.ErrPaymentNotFound
	}

	amount, _ := decimal.NewFromString(values["amount"])
	session := &models.PaymentSession{
		ID:      values["payment_id"],
		UserID:  values["user_id"],
		EventID: values["event_id"],
		Amount:  amount,
		Status:  models.PaymentStatus(values["status"]),
	}

	var createdUnix, expiresUnix int64
	fmt.Sscanf(values["created_at"], "%d", &createdUnix)
	fmt.Sscanf(values["expires_at"], "%d", &expiresUnix)
	session.CreatedAt = time.Unix(createdUnix, 0)
	session.ExpiresAt = time.Unix(expiresUnix, 0)
	return session, nil
}

// SetStatus updates a session after a gateway settlement.
func (s *PaymentService) SetStatus(ctx context.Context, paymentID string, st models.PaymentStatus) error {
	if s.redis == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		session, ok := s.local[paymentID]
		if !ok {
			return status.ErrPaymentNotFound
		}
		session.Status = st
		return nil
	}
	return s.redis.HSet(ctx, paymentKey(paymentID), "status", string(st)).Err()
}

// IsCompleted reports whether paymentID is a settled charge opened by
// userID for eventID. The join flow calls this before issuing a ticket
// for a priced event.
func (s *PaymentService) IsCompleted(ctx context.Context, paymentID, userID, eventID string) bool {
	session, err := s.GetSession(ctx, paymentID)
	if err != nil {
		return false
	}
	return session.Status == models.PaymentCompleted &&
		session.UserID == userID &&
		session.EventID == eventID
}

// Run consumes settlement notifications from the gateway until ctx is
// cancelled.
func (s *PaymentService) Run(ctx context.Context) {
	ch := make(chan *gateway.Transaction, 16)
	s.provider.SetTransactionChannel(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case tx := <-ch:
			s.handleTransaction(ctx, tx)
		}
	}
}

func (s *PaymentService) handleTransaction(ctx context.Context, tx *gateway.Transaction) {
	st := models.PaymentFailed
	if tx.Status == "success" {
		st = models.PaymentCompleted
	}

	if err := s.SetStatus(ctx, tx.UUID, st); err != nil {
		slog.Error("payment: settle failed", "paymentId", tx.UUID, "error", err)
		monitoring.TrackPaymentSession("settle_error")
		return
	}

	monitoring.TrackPaymentSession(string(st))
	slog.Info("payment settled", "paymentId", tx.UUID, "status", st)
}
