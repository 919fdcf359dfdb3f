package pdf

import "context"

type TextExtractor interface {
	ExtractText(ctx context.Context, pdf []byte) (string, error)
}
