package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/draw"
)

// minEncodeSide is the floor for the budget retry loop: below this, further
// shrinking destroys the image without meaningful savings.
const minEncodeSide = 64

// budgetSlack tolerates encodings moderately over budget before shrinking.
const budgetSlack = 1.37

// encodeWithBudget encodes a rendered image, preferring JPEG and falling back
// to PNG when JPEG encoding fails or comes out larger. If the smaller encoding
// still exceeds budgetSlack times the byte budget, the image is scaled down by
// a factor proportional to the square root of the overshoot and re-encoded,
// down to a minEncodeSide floor.
func encodeWithBudget(img image.Image, budget int) ([]byte, string, error) {
	if budget <= 0 {
		budget = DefaultOptions().ByteBudget
	}

	for {
		data, mime, err := encodeSmaller(img)
		if err != nil {
			return nil, "", err
		}
		if len(data) <= int(float64(budget)*budgetSlack) {
			return data, mime, nil
		}

		b := img.Bounds()
		if b.Dx() <= minEncodeSide || b.Dy() <= minEncodeSide {
			// Floor reached; accept the overshoot.
			return data, mime, nil
		}

		factor := math.Sqrt(float64(len(data)) / float64(budget))
		if factor < 2 {
			factor = 2
		}
		w := int(float64(b.Dx()) / factor)
		h := int(float64(b.Dy()) / factor)
		if w < minEncodeSide {
			w = minEncodeSide
		}
		if h < minEncodeSide {
			h = minEncodeSide
		}
		img = scaleImage(img, w, h)
	}
}

func encodeSmaller(img image.Image) ([]byte, string, error) {
	var jpegBuf bytes.Buffer
	jpegErr := jpeg.Encode(&jpegBuf, img, &jpeg.Options{Quality: 80})

	var pngBuf bytes.Buffer
	pngErr := png.Encode(&pngBuf, img)

	switch {
	case jpegErr != nil && pngErr != nil:
		return nil, "", fmt.Errorf("encoding image: %w", pngErr)
	case jpegErr != nil:
		return pngBuf.Bytes(), "image/png", nil
	case pngErr != nil || jpegBuf.Len() <= pngBuf.Len():
		return jpegBuf.Bytes(), "image/jpeg", nil
	default:
		return pngBuf.Bytes(), "image/png", nil
	}
}

func scaleImage(img image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}
