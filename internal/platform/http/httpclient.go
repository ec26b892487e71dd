package http

import (
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"
)

// NewHTTPClient はチャットAPI呼び出し用に設定されたHTTPクライアントを作成します。
//
// 設定:
//   - Proxy: 環境変数（HTTP_PROXYなど）が設定されている場合に使用
//   - Dialer.Timeout: TCP接続タイムアウト
//   - MaxIdleConns: 最大アイドル接続数
//   - Client.Timeout: リクエスト全体のタイムアウト（呼び出し元から渡される）
//   - Jar: 認証クッキー（jwt）を保持するCookieJar。nilの場合はクッキーを送信しない
//
// 注意:
//   - http.DefaultClientにはタイムアウトがないため、常にカスタムクライアントを使用すること
func NewHTTPClient(timeout time.Duration, jar http.CookieJar) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: t, Jar: jar}
}

// NewCookieJar はpublic suffixリストに従うCookieJarを作成します。
// サーバーがSet-Cookieで返したセッションを以降のリクエストに付与するために使用します。
func NewCookieJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return jar, nil
}
