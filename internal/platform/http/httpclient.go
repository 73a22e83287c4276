package http

import (
	"net"
	"net/http"
	"time"
)

const (
	defaultMaxRetries = 2
	retryBaseDelay    = 200 * time.Millisecond
)

// NewHTTPClient は外部API呼び出し用に設定されたHTTPクライアントを作成します。
//
// 設定:
//   - Dialer.Timeout: TCP接続タイムアウト（デフォルトより短い）
//   - MaxIdleConnsPerHost: 上流は1ホストなのでホスト単位の上限を引き上げる
//   - Client.Timeout: リクエスト全体のタイムアウト（呼び出し元から渡される）
//   - GET/HEAD は 429・502・503・504 と接続エラーのときに指数バックオフで再試行する
//
// 注意:
//   - http.DefaultClientにはタイムアウトがないため、常にカスタムクライアントを使用すること
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &retryTransport{next: t, maxRetries: defaultMaxRetries, baseDelay: retryBaseDelay},
	}
}

// retryTransport はボディを持たない冪等なリクエストだけを再試行します。
type retryTransport struct {
	next       http.RoundTripper
	maxRetries int
	baseDelay  time.Duration
}

func (rt *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return rt.next.RoundTrip(req)
	}

	delay := rt.baseDelay
	for attempt := 0; ; attempt++ {
		res, err := rt.next.RoundTrip(req)
		if attempt >= rt.maxRetries || !retryable(res, err) {
			return res, err
		}
		if res != nil {
			_ = res.Body.Close()
		}

		timer := time.NewTimer(delay)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

func retryable(res *http.Response, err error) bool {
	if err != nil {
		return true
	}
	switch res.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
