package render

import (
	"image"

	"github.com/skip2/go-qrcode"
)

const defaultQRCodeSizePx = 256

// GenerateQRCodeImage returns a QR code image for the given payload.
// If payload is empty, it returns (nil, nil).
func GenerateQRCodeImage(payload string, sizePx int) (image.Image, error) {
	if payload == "" {
		return nil, nil
	}
	if sizePx <= 0 {
		sizePx = defaultQRCodeSizePx
	}

	qrCode, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	qrCode.DisableBorder = true
	return qrCode.Image(sizePx), nil
}

// qrCache keeps the last generated code; the payload rarely changes between
// frames.
type qrCache struct {
	payload string
	img     image.Image
}

func (c *qrCache) get(payload string, sizePx int) (image.Image, error) {
	if payload == c.payload && c.img != nil {
		return c.img, nil
	}
	img, err := GenerateQRCodeImage(payload, sizePx)
	if err != nil {
		return nil, err
	}
	c.payload = payload
	c.img = img
	return img, nil
}
