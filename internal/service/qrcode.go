package service

import (
	"errors"
	"fmt"

	"github.com/skip2/go-qrcode"

	"github.com/howlrs/pos-qr-go/internal/models"
)

// QRGenerator renders the session URL printed on a seat
type QRGenerator interface {
	PNG(content string, size int) ([]byte, error)
	Terminal(content string) (string, error)
}

// DefaultQRGenerator renders with go-qrcode at medium error correction
type DefaultQRGenerator struct{}

// PNG encodes content as a size x size PNG image
func (DefaultQRGenerator) PNG(content string, size int) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, size)
}

// Terminal renders content with half-height block characters
func (DefaultQRGenerator) Terminal(content string) (string, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", err
	}
	return q.ToSmallString(false), nil
}

// SeatQRContent returns what a seat's QR code encodes
func SeatQRContent(qr *models.QRCodeResponse) (string, error) {
	switch {
	case qr == nil:
		return "", errors.New("no qr code")
	case qr.SessionURL != "":
		return qr.SessionURL, nil
	case qr.QRCodeURL != "":
		return qr.QRCodeURL, nil
	}
	return "", errors.New("qr code has no url")
}

// SeatQRCode renders a seat's QR code as PNG bytes
func SeatQRCode(gen QRGenerator, qr *models.QRCodeResponse, size int) ([]byte, error) {
	content, err := SeatQRContent(qr)
	if err != nil {
		return nil, err
	}
	png, err := gen.PNG(content, size)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}
	return png, nil
}
