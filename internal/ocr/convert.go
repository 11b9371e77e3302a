package ocr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// extractionPrompt is the shared prompt used by all vision-model backends
const extractionPrompt = `You are analyzing a receipt or invoice uploaded for an expense claim. Carefully read all text in the image and extract the following information:

1. **Description**: A short description of the purchase suitable for an expense report line, e.g. "Restaurant bill", "Taxi fare", "Hotel stay".

2. **Date**: The transaction date, purchase date, or invoice date. Convert it to ISO 8601 format (YYYY-MM-DD). Common formats on receipts: MM/DD/YYYY, DD/MM/YYYY, or written dates.

3. **Amount**: The final total, grand total, or amount due, usually at the bottom and labeled "TOTAL", "Amount Due", "Grand Total" or similar. Extract only the numeric value (e.g. 1500.00).

4. **Currency**: The ISO currency code of the amount (e.g. INR, USD, EUR, GBP). Infer it from currency symbols if no code is printed.

5. **Vendor**: The merchant, store, or business name, usually the largest text at the top of the receipt.

Return ONLY valid JSON in this exact format:
{
  "description": "Short purchase description",
  "date": "YYYY-MM-DD",
  "amount": 0.00,
  "currency": "INR",
  "vendor": "Business Name"
}

Important:
- The date must be in YYYY-MM-DD format
- The amount must be a number (not a string)
- If you cannot find a field, use null for that field
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// pdfToImage renders the first page of a PDF as a PNG image
func pdfToImage(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	// Receipts are almost always single page
	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// imageToPNG converts any supported image format to PNG
func imageToPNG(imageData []byte, mimeType string) ([]byte, error) {
	var img image.Image
	var err error

	// HEIC/HEIF (common on iPhones) is not supported by the standard
	// image package
	if isHEICData(imageData) || isHEICMimeType(mimeType) {
		img, err = heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// isHEICData checks the ftyp box brands that mark HEIC/HEIF containers
func isHEICData(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// normalizeToPNG converts PDFs and non-PNG images to PNG so every backend
// sees one input format
func normalizeToPNG(fileData []byte, mimeType string) ([]byte, error) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))

	if mt == "application/pdf" {
		pngData, err := pdfToImage(fileData)
		if err != nil {
			return nil, fmt.Errorf("converting PDF to image: %w", err)
		}
		return pngData, nil
	}

	if mt != "image/png" || isHEICData(fileData) {
		pngData, err := imageToPNG(fileData, mt)
		if err != nil {
			return nil, fmt.Errorf("converting image to PNG: %w", err)
		}
		return pngData, nil
	}

	return fileData, nil
}
