package ocr

import (
	"strings"

	"github.com/disintegration/imaging"
)

// preprocessImage writes a grayscale, contrast-boosted, sharpened
// variant next to the original and returns its path. Callers fall
// back to the original image on error; preprocessing is never fatal.
func preprocessImage(imagePath string) (string, error) {
	img, err := imaging.Open(imagePath)
	if err != nil {
		return "", err
	}

	outputPath := strings.TrimSuffix(imagePath, ".png") + "_processed.png"

	img = imaging.Grayscale(img)
	img = imaging.AdjustContrast(img, 20)
	img = imaging.Sharpen(img, 1.0)

	if err := imaging.Save(img, outputPath); err != nil {
		return "", err
	}
	return outputPath, nil
}
