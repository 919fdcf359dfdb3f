package ocr

import "errors"

var ErrNoVision = errors.New("ocr: vision model is not configured")
