package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventpass/internal/status"
	"eventpass/models"
)

func TestQRCodec_EncodeDecodeRoundTrip(t *testing.T) {
	codec := NewQRCodec("test-secret")

	ticket := &models.Ticket{
		ID:      "tkt-000001",
		EventID: "evt-000001",
	}

	payload, err := codec.Encode(ticket)
	require.NoError(t, err)
	assert.NotEmpty(t, payload)

	// The payload is a signed JSON envelope
	var envelope QRPayload
	require.NoError(t, json.Unmarshal([]byte(payload), &envelope))
	assert.Equal(t, "tkt-000001", envelope.ID)
	assert.Equal(t, "evt-000001", envelope.EventID)
	assert.NotEmpty(t, envelope.Sig)
	assert.NotZero(t, envelope.IssuedAt)

	ref, err := codec.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "tkt-000001", ref)
}

func TestQRCodec_EncodeRequiresID(t *testing.T) {
	codec := NewQRCodec("test-secret")

	_, err := codec.Encode(&models.Ticket{EventID: "evt-000001"})

	assert.Error(t, err)
}

func TestQRCodec_DecodeRejectsTamperedPayload(t *testing.T) {
	codec := NewQRCodec("test-secret")

	payload, err := codec.Encode(&models.Ticket{ID: "tkt-000001", EventID: "evt-000001"})
	require.NoError(t, err)

	var envelope QRPayload
	require.NoError(t, json.Unmarshal([]byte(payload), &envelope))

	// Swap the ticket id but keep the original signature
	envelope.ID = "tkt-000999"
	tampered, err := json.Marshal(envelope)
	require.NoError(t, err)

	_, err = codec.Decode(string(tampered))
	assert.ErrorIs(t, err, status.ErrInvalidPayload)
}

func TestQRCodec_DecodeRejectsWrongKey(t *testing.T) {
	payload, err := NewQRCodec("key-a").Encode(&models.Ticket{ID: "tkt-000001", EventID: "evt-000001"})
	require.NoError(t, err)

	_, err = NewQRCodec("key-b").Decode(payload)
	assert.ErrorIs(t, err, status.ErrInvalidPayload)
}

func TestQRCodec_DecodeLegacyShapes(t *testing.T) {
	codec := NewQRCodec("test-secret")

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{
			name: "unsigned id envelope from older app builds",
			raw:  `{"id":"local-1700000000"}`,
			want: "local-1700000000",
		},
		{
			name: "raw reference string",
			raw:  "tkt-000042",
			want: "tkt-000042",
		},
		{
			name:    "empty payload",
			raw:     "",
			wantErr: status.ErrInvalidPayload,
		},
		{
			name:    "whitespace only",
			raw:     "   ",
			wantErr: status.ErrInvalidPayload,
		},
		{
			name:    "malformed json",
			raw:     `{"id": "broken`,
			wantErr: status.ErrInvalidPayload,
		},
		{
			name:    "json without id",
			raw:     `{"event_id":"evt-000001"}`,
			wantErr: status.ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := codec.Decode(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ref)
		})
	}
}
