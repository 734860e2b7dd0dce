package logger

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
)

// SecurityLogger provides methods to safely log credentials and endpoints
type SecurityLogger struct {
	*Logger
}

// NewSecurityLogger creates a new security-aware logger
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{
		Logger: GetLogger(),
	}
}

var (
	secretValueRegex = regexp.MustCompile(`(?i)(token|secret|key|password)([=:]\s*)[^\s&,]+`)
	bearerRegex      = regexp.MustCompile(`(?i)bearer\s+[a-z0-9._\-]+`)
)

// MaskSecret replaces a credential with a short, stable fingerprint so two
// runs can be compared without exposing the value.
func (sl *SecurityLogger) MaskSecret(value string) string {
	if value == "" {
		return "unset"
	}
	return "secret#" + sl.generateHash(value)[:8]
}

// MaskAPIEndpoint keeps the host of an endpoint and hides path and query
func (sl *SecurityLogger) MaskAPIEndpoint(apiURL string) string {
	if apiURL == "" {
		return ""
	}

	parsedURL, err := url.Parse(apiURL)
	if err != nil || parsedURL.Host == "" {
		return "api-endpoint#" + sl.generateHash(apiURL)[:8]
	}

	return fmt.Sprintf("%s/api#%s", parsedURL.Host, sl.generateHash(apiURL)[:8])
}

// MaskPhrases reduces a phrase list to its size and a short sample
func (sl *SecurityLogger) MaskPhrases(phrases []string) interface{} {
	if len(phrases) == 0 {
		return "no_phrases"
	}

	if len(phrases) <= 3 {
		return fmt.Sprintf("phrases_count=%d", len(phrases))
	}

	return fmt.Sprintf("phrases_count=%d,sample=[%s,%s,...]",
		len(phrases), phrases[0], phrases[1])
}

// MaskSensitiveData masks credential-looking values in a field map
func (sl *SecurityLogger) MaskSensitiveData(data map[string]interface{}) map[string]interface{} {
	masked := make(map[string]interface{}, len(data))

	for key, value := range data {
		lowerKey := strings.ToLower(key)

		switch {
		case isSecretKey(lowerKey):
			masked[key] = sl.MaskSecret(fmt.Sprintf("%v", value))
		case strings.Contains(lowerKey, "endpoint") || strings.HasSuffix(lowerKey, "url"):
			if str, ok := value.(string); ok {
				masked[key] = sl.MaskAPIEndpoint(str)
			} else {
				masked[key] = value
			}
		case strings.Contains(lowerKey, "phrases"):
			if phrases, ok := value.([]string); ok {
				masked[key] = sl.MaskPhrases(phrases)
			} else {
				masked[key] = value
			}
		default:
			masked[key] = value
		}
	}

	return masked
}

func isSecretKey(key string) bool {
	// *_set flags report presence only
	if strings.HasSuffix(key, "_set") {
		return false
	}
	for _, marker := range []string{"token", "secret", "password", "api_key", "client_id"} {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}

func (sl *SecurityLogger) generateHash(data string) string {
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash[:8])
}

// MaskLogMessage masks credentials that leak into free-form messages
func (sl *SecurityLogger) MaskLogMessage(message string) string {
	masked := bearerRegex.ReplaceAllString(message, "Bearer ***")
	return secretValueRegex.ReplaceAllString(masked, "${1}${2}***")
}

// SafeInfo logs info with automatic sensitive data masking
func (sl *SecurityLogger) SafeInfo(msg string, fields map[string]interface{}) {
	if fields != nil {
		sl.Logger.WithFields(sl.MaskSensitiveData(fields)).Info(sl.MaskLogMessage(msg))
	} else {
		sl.Logger.Info(sl.MaskLogMessage(msg))
	}
}

// SafeError logs error with automatic sensitive data masking
func (sl *SecurityLogger) SafeError(msg string, err error, fields map[string]interface{}) {
	maskedFields := map[string]interface{}{
		"error": sl.MaskLogMessage(err.Error()),
	}

	for k, v := range sl.MaskSensitiveData(fields) {
		maskedFields[k] = v
	}

	sl.Logger.WithFields(maskedFields).Error(sl.MaskLogMessage(msg))
}

var (
	securityLoggerInstance *SecurityLogger
	securityLoggerMu       sync.Mutex
)

// GetSecurityLogger returns a singleton security logger
func GetSecurityLogger() *SecurityLogger {
	securityLoggerMu.Lock()
	defer securityLoggerMu.Unlock()
	if securityLoggerInstance == nil {
		securityLoggerInstance = NewSecurityLogger()
	}
	return securityLoggerInstance
}
