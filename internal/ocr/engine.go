// Package ocr provides the optical-recognition fallback used when primary
// deserialization produces near-empty text. Recognition is an injected
// capability: callers depend on Engine and receive the disabled
// implementation when OCR is switched off.
package ocr

import "context"

// Engine recognizes text in raw image bytes. Implementations must degrade
// to empty text on bad input rather than failing the surrounding batch.
type Engine interface {
	Recognize(ctx context.Context, data []byte, filename string) (string, error)
}

// Disabled is the no-op engine selected when OCR is turned off. It returns
// empty text so downstream code follows the ordinary empty-document path.
type Disabled struct{}

func (Disabled) Recognize(context.Context, []byte, string) (string, error) {
	return "", nil
}
