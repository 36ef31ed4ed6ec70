package ticket

import (
	"encoding/json"
	"fmt"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// Payload is the self-contained token carried inside a QR code. It is never
// persisted; the scanning client sends it back for verification.
type Payload struct {
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Sig      string    `json:"sig"`
	IssuedAt time.Time `json:"issued_at"`
}

// Payload builds a signed token payload for a participant identity.
func (c *Codec) Payload(name, email string, issuedAt time.Time) Payload {
	return Payload{
		Name:     name,
		Email:    email,
		Sig:      c.Sign(name, email),
		IssuedAt: issuedAt,
	}
}

// ParsePayload decodes a token payload from its JSON wire form.
func ParsePayload(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("parse token payload: %w", err)
	}
	return p, nil
}

// RenderQR encodes the payload as a QR PNG. The encoded content is
// regenerable byte-for-byte from the same inputs and secret; only the image
// encoding may vary between library versions.
func RenderQR(p Payload) ([]byte, error) {
	content, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal token payload: %w", err)
	}
	png, err := qrcode.Encode(string(content), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
