package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"eventpass/internal/status"
	"eventpass/models"
	"eventpass/utils"
)

// QRPayload is the logical content of a ticket's QR image: enough to
// re-derive the ticket id, plus an HMAC so payloads cannot be forged
// from a guessed id.
type QRPayload struct {
	ID       string `json:"id"`
	EventID  string `json:"event_id,omitempty"`
	IssuedAt int64  `json:"issued_at,omitempty"`
	Sig      string `json:"sig,omitempty"`
}

// QRCodec encodes and decodes ticket QR payloads. The physical QR image
// generation/scanning happens in the client; the codec only defines the
// string the image carries.
type QRCodec struct {
	key []byte
}

func NewQRCodec(secret string) *QRCodec {
	return &QRCodec{key: []byte(secret)}
}

func (c *QRCodec) signingBase(p *QRPayload) []byte {
	return []byte(fmt.Sprintf("%s|%s|%d", p.ID, p.EventID, p.IssuedAt))
}

// Encode produces the signed JSON payload for an issued ticket. The
// ticket must already carry its canonical store-assigned id.
func (c *QRCodec) Encode(ticket *models.Ticket) (string, error) {
	if ticket.ID == "" {
		return "", fmt.Errorf("encode qr: ticket has no id")
	}

	payload := QRPayload{
		ID:       ticket.ID,
		EventID:  ticket.EventID,
		IssuedAt: time.Now().Unix(),
	}
	payload.Sig = utils.Hmac256(c.signingBase(&payload), c.key)

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return string(data), nil
}

// Decode extracts a ticket reference from a scanned payload. Accepted
// shapes, in order:
//   - signed envelope (signature verified, tampering rejected)
//   - plain {"id": ...} envelope from older app builds
//   - a raw non-JSON string, treated as the reference itself
func (c *QRCodec) Decode(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", status.ErrInvalidPayload
	}

	if !strings.HasPrefix(raw, "{") {
		// Raw reference from the oldest builds.
		return raw, nil
	}

	var payload QRPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return "", status.ErrInvalidPayload
	}
	if payload.ID == "" {
		return "", status.ErrInvalidPayload
	}

	if payload.Sig != "" {
		if !utils.VerifyHmac256(c.signingBase(&payload), c.key, payload.Sig) {
			return "", status.ErrInvalidPayload
		}
	}

	return payload.ID, nil
}
