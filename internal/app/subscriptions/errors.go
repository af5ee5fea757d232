package subscriptions

import (
	"errors"
	"net/http"
)

// User-facing messages. The landing page shows them verbatim.
const (
	MsgSubscribed        = "구독이 완료되었습니다. 곧 첫 번째 뉴스레터를 받아보실 수 있습니다!"
	MsgInvalidEmail      = "유효한 이메일 주소를 입력해주세요."
	MsgAlreadySubscribed = "이미 구독하신 이메일입니다."
	MsgSubscribeFailed   = "구독 처리 중 오류가 발생했습니다. 다시 시도해주세요."
	MsgServerError       = "서버 오류가 발생했습니다."
	MsgEndpointNotFound  = "요청한 엔드포인트를 찾을 수 없습니다."
	MsgUnauthorized      = "인증이 필요합니다."
)

const (
	CodeInvalidEmail      = "INVALID_EMAIL"
	CodeAlreadySubscribed = "ALREADY_SUBSCRIBED"
	CodeStoreFailure      = "STORE_FAILURE"
)

// Error is an application-layer error that can be mapped to an HTTP response.
// Err holds the underlying cause for logging; it is never shown to callers.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func invalidEmail() *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeInvalidEmail, Message: MsgInvalidEmail}
}

func alreadySubscribed() *Error {
	return &Error{Status: http.StatusConflict, Code: CodeAlreadySubscribed, Message: MsgAlreadySubscribed}
}

func storeFailure(msg string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeStoreFailure, Message: msg, Err: err}
}

// IsConflict reports whether err is the already-subscribed outcome.
func IsConflict(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == CodeAlreadySubscribed
}

// IsInvalid reports whether err is the invalid-email outcome.
func IsInvalid(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == CodeInvalidEmail
}
