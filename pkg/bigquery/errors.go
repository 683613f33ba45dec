package bigquery

import (
	"errors"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// IsNotFound reports a 404 from the BigQuery REST API.
func IsNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

// IsRetryable reports whether an insert error is worth repeating. Aggregate
// errors are retryable only when every member is.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var rowErrs bigquery.PutMultiError
	if errors.As(err, &rowErrs) {
		return len(rowErrs) > 0 && allRetryable(len(rowErrs), func(i int) error { return rowErrs[i].Errors })
	}
	var multi bigquery.MultiError
	if errors.As(err, &multi) {
		return len(multi) > 0 && allRetryable(len(multi), func(i int) error { return multi[i] })
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests, http.StatusRequestTimeout, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Aborted, codes.DeadlineExceeded, codes.Internal, codes.ResourceExhausted, codes.Unavailable:
			return true
		}
	}
	return false
}

func allRetryable(n int, at func(int) error) bool {
	for i := 0; i < n; i++ {
		if !IsRetryable(at(i)) {
			return false
		}
	}
	return true
}

// FailedRows lists the row indexes a partial insert rejected. ok is false
// when err is not a per-row failure.
func FailedRows(err error) (rows []int, ok bool) {
	var rowErrs bigquery.PutMultiError
	if !errors.As(err, &rowErrs) {
		return nil, false
	}
	for _, rowErr := range rowErrs {
		rows = append(rows, rowErr.RowIndex)
	}
	return rows, true
}
