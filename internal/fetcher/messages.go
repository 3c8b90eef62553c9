package fetcher

import "fmt"

// Description is the user-facing message for the error.
func (e *FetchError) Description() string {
	switch e.Kind {
	case KindLoadFailed:
		return "Unable to load stock data. Please try again."
	case KindInvalidResponse:
		return "Received invalid data from server. Please check your connection."
	case KindNetworkUnavailable:
		return "Network connection unavailable. Please check your internet connection."
	case KindDecodingFailed:
		if e.Cause != nil {
			return fmt.Sprintf("Data format error: %v", e.Cause)
		}
		return "Data format error."
	case KindFileNotFound:
		return fmt.Sprintf("Required data file '%s' not found.", e.Resource)
	default:
		if e.Cause != nil {
			return fmt.Sprintf("An unexpected error occurred: %v", e.Cause)
		}
		return "An unexpected error occurred."
	}
}

// FailureReason explains what went wrong.
func (e *FetchError) FailureReason() string {
	switch e.Kind {
	case KindLoadFailed:
		return "Data loading operation failed"
	case KindInvalidResponse:
		return "Server returned malformed data"
	case KindNetworkUnavailable:
		return "No internet connection available"
	case KindDecodingFailed:
		return "JSON decoding failed"
	case KindFileNotFound:
		return "Bundle resource missing"
	default:
		return "Unknown failure"
	}
}

// RecoverySuggestion tells the user what to try next.
func (e *FetchError) RecoverySuggestion() string {
	switch e.Kind {
	case KindLoadFailed, KindInvalidResponse:
		return "Try refreshing the data or check your internet connection."
	case KindNetworkUnavailable:
		return "Connect to the internet and try again."
	case KindDecodingFailed:
		return "This appears to be a data format issue. Please contact support if the problem persists."
	case KindFileNotFound:
		return "Please reinstall the app if this issue continues."
	default:
		return "Try again later."
	}
}
