package media

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

const qrSize = 300

type Generator interface {
	Generate(content string) ([]byte, error)
}

// QRGenerator renders content as a square PNG QR code.
type QRGenerator struct {
	Size int
}

func NewQRGenerator() *QRGenerator {
	return &QRGenerator{Size: qrSize}
}

func (g *QRGenerator) Generate(content string) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, g.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}
