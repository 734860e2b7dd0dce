package api

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyResponse(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		quota  bool
	}{
		{
			name:   "HTTP 429 without body",
			status: 429,
			body:   "",
			quota:  true,
		},
		{
			name:   "resource exhausted status",
			status: 400,
			body:   `{"error":{"code":400,"message":"Too many requests","status":"RESOURCE_EXHAUSTED"}}`,
			quota:  true,
		},
		{
			name:   "ads quota error detail",
			status: 400,
			body: `{"error":{"code":400,"message":"Request contains an invalid argument.","status":"INVALID_ARGUMENT",
				"details":[{"@type":"type.googleapis.com/google.ads.googleads.v19.errors.GoogleAdsFailure",
				"errors":[{"errorCode":{"quotaError":"RESOURCE_TEMPORARILY_EXHAUSTED"},"message":"Too many requests."}]}]}}`,
			quota: true,
		},
		{
			name:   "unauthenticated",
			status: 401,
			body:   `{"error":{"code":401,"message":"Request had invalid authentication credentials.","status":"UNAUTHENTICATED"}}`,
			quota:  false,
		},
		{
			name:   "permission denied",
			status: 403,
			body:   `{"error":{"code":403,"message":"The caller does not have permission","status":"PERMISSION_DENIED"}}`,
			quota:  false,
		},
		{
			name:   "not found html",
			status: 404,
			body:   `<html>not found</html>`,
			quota:  false,
		},
		{
			name:   "server error",
			status: 500,
			body:   `{"error":{"code":500,"message":"Internal error","status":"INTERNAL"}}`,
			quota:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyResponse(tt.status, []byte(tt.body))
			if IsQuotaError(err) != tt.quota {
				t.Errorf("Expected quota=%v, got %T: %v", tt.quota, err, err)
			}
			if !tt.quota {
				var pe *PermanentError
				if !errors.As(err, &pe) {
					t.Errorf("Expected *PermanentError, got %T", err)
				} else if pe.StatusCode != tt.status {
					t.Errorf("Expected status %d, got %d", tt.status, pe.StatusCode)
				}
			}
		})
	}
}

func TestClassifyResponse_UsesAPIMessage(t *testing.T) {
	err := ClassifyResponse(401, []byte(`{"error":{"code":401,"message":"bad token","status":"UNAUTHENTICATED"}}`))

	var pe *PermanentError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected *PermanentError, got %T", err)
	}
	if pe.Message != "bad token" || pe.Status != "UNAUTHENTICATED" {
		t.Errorf("Unexpected error fields: %+v", pe)
	}
}

func TestIsQuotaError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("phrase boat anchor: %w", &QuotaError{StatusCode: 429})
	if !IsQuotaError(wrapped) {
		t.Error("Expected wrapped quota error to be detected")
	}
	if IsQuotaError(errors.New("429 in text only")) {
		t.Error("Expected plain error text not to count as quota error")
	}
}
