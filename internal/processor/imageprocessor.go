// imageprocessor.go - Image preprocessing for better local OCR accuracy

package processor

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// DefaultMaxDimension caps the longest image side before OCR
const DefaultMaxDimension = 2500

// PreprocessForOCR decodes an image, downsizes it to maxDimension, applies an
// enhancement pass chosen from its measured quality and re-encodes it as PNG.
// Tesseract reads PNG losslessly, so the output is always PNG.
func PreprocessForOCR(data []byte, maxDimension int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	img = resizeToFit(img, maxDimension)

	qualityScore := analyzeImageQuality(img)
	switch {
	case qualityScore < 50:
		// Poor quality image - use aggressive enhancement
		img = applyAggressiveEnhancement(img)
	case qualityScore < 75:
		img = applyStandardEnhancement(img)
	default:
		img = applyLightEnhancement(img)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode processed image: %w", err)
	}
	return buf.Bytes(), nil
}

func resizeToFit(img image.Image, maxDimension int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxDimension && height <= maxDimension {
		return img
	}
	if width > height {
		return imaging.Resize(img, maxDimension, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, maxDimension, imaging.Lanczos)
}

// analyzeImageQuality analyzes image and returns quality score (0-100)
func analyzeImageQuality(img image.Image) float64 {
	bounds := img.Bounds()

	var totalBrightness float64
	var minBrightness float64 = 255
	var maxBrightness float64 = 0
	pixelCount := 0

	// Sample pixels (every 10th pixel for performance)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 10 {
		for x := bounds.Min.X; x < bounds.Max.X; x += 10 {
			r, g, b, _ := img.At(x, y).RGBA()
			brightness := (float64(r>>8) + float64(g>>8) + float64(b>>8)) / 3.0

			totalBrightness += brightness
			if brightness < minBrightness {
				minBrightness = brightness
			}
			if brightness > maxBrightness {
				maxBrightness = brightness
			}
			pixelCount++
		}
	}
	if pixelCount == 0 {
		return 0
	}

	avgBrightness := totalBrightness / float64(pixelCount)
	contrast := maxBrightness - minBrightness

	// Ideal: avgBrightness = 128, contrast = 200+
	brightnessScore := 100.0 - math.Abs(avgBrightness-128.0)/1.28
	contrastScore := math.Min(contrast/2.0, 100.0)

	// Weight: 40% brightness, 60% contrast
	return (brightnessScore * 0.4) + (contrastScore * 0.6)
}

// applyLightEnhancement for good quality images
func applyLightEnhancement(img image.Image) image.Image {
	result := imaging.Grayscale(img)
	result = imaging.Sharpen(result, 1.5)
	result = imaging.AdjustContrast(result, 20)
	return result
}

// applyStandardEnhancement for medium quality images
func applyStandardEnhancement(img image.Image) image.Image {
	result := imaging.Grayscale(img)
	result = imaging.Sharpen(result, 2.5)
	result = imaging.AdjustContrast(result, 40)
	result = imaging.AdjustGamma(result, 1.1)
	return result
}

// applyAggressiveEnhancement for poor quality images
func applyAggressiveEnhancement(img image.Image) image.Image {
	result := imaging.Grayscale(img)
	result = imaging.AdjustBrightness(result, 20)
	result = imaging.AdjustContrast(result, 55)
	result = imaging.AdjustGamma(result, 1.3)

	// blur + sharpen removes speckle noise before thresholding in tesseract
	result = imaging.Blur(result, 0.5)
	result = imaging.Sharpen(result, 2.5)
	return result
}
