package fetcher

import (
	"bytes"
	"encoding/json"

	"stonks/internal/quote"
)

// DecodeQuotes decodes a `{"stocks": [...]}` document.
//
// An empty payload or a document without a stocks array is KindInvalidResponse.
// Syntax errors and type mismatches are KindDecodingFailed.
func DecodeQuotes(payload []byte) ([]quote.Quote, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, NewInvalidResponseError("empty payload")
	}

	var resp quote.Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, NewDecodingFailedError(err)
	}

	if resp.Stocks == nil {
		return nil, NewInvalidResponseError("payload has no stocks")
	}
	return resp.Stocks, nil
}
