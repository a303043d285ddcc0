package utils

import (
	"net/http"
	"strings"
)

// CredentialHeader carries a caller-supplied API key for requests that are
// not bound to a chat session.
const CredentialHeader = "X-Api-Key"

// CredentialFrom 读取请求携带的 API Key，环境变量配置的 key 仍然优先。
func CredentialFrom(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(CredentialHeader))
}
