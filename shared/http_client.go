package shared

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// maxResponseBytes caps provider payloads read into memory.
const maxResponseBytes = 16 << 20

// HTTPClientFactory hands out pooled HTTP clients keyed by timeout
type HTTPClientFactory struct {
	defaultTimeout time.Duration
	mutex          sync.RWMutex
	clients        map[string]*http.Client
}

// NewHTTPClientFactory creates a new HTTP client factory
func NewHTTPClientFactory(defaultTimeout time.Duration) *HTTPClientFactory {
	return &HTTPClientFactory{
		defaultTimeout: defaultTimeout,
		clients:        make(map[string]*http.Client),
	}
}

// Client returns a shared client for the timeout, creating it on first use
func (f *HTTPClientFactory) Client(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = f.defaultTimeout
	}

	clientKey := fmt.Sprintf("timeout_%d", timeout.Milliseconds())

	f.mutex.RLock()
	if client, exists := f.clients[clientKey]; exists {
		f.mutex.RUnlock()
		return client
	}
	f.mutex.RUnlock()

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: timeout,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	f.mutex.Lock()
	if existing, exists := f.clients[clientKey]; exists {
		f.mutex.Unlock()
		return existing
	}
	f.clients[clientKey] = client
	f.mutex.Unlock()

	logrus.WithFields(logrus.Fields{
		"component":  "HTTPClientFactory",
		"timeout":    timeout,
		"client_key": clientKey,
	}).Debug("Created new HTTP client")

	return client
}

// CloseIdleConnections releases pooled connections of every cached client
func (f *HTTPClientFactory) CloseIdleConnections() {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	for key, client := range f.clients {
		client.CloseIdleConnections()
		delete(f.clients, key)
	}
}

// SetBrowserLikeHeaders configures HTTP request headers to mimic browser behavior
func SetBrowserLikeHeaders(request *http.Request, acceptHeader string) {
	request.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	request.Header.Set("Accept", acceptHeader)
	request.Header.Set("Accept-Language", "en-US,en;q=0.9")
	request.Header.Set("Cache-Control", "no-cache")
	request.Header.Set("Connection", "keep-alive")
}

// FetchJSON performs a single GET and decodes the JSON body into dest.
// Failures come back as *ServiceError in the network, http or payload category.
func FetchJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, dest interface{}) error {
	const operation = "FetchJSON"

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return NewServiceError(ErrorCategoryConfiguration, "BAD_REQUEST", err.Error(), "http", operation, false, err)
	}
	SetBrowserLikeHeaders(request, "application/json, text/plain, */*")
	for key, value := range headers {
		request.Header.Set(key, value)
	}

	response, err := client.Do(request)
	if err != nil {
		return NewServiceError(ErrorCategoryNetwork, "REQUEST_FAILED", err.Error(), "http", operation, true, err).
			WithDetails(url)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(response.Body, maxResponseBytes))
		return NewServiceError(ErrorCategoryHTTP, fmt.Sprintf("HTTP_%d", response.StatusCode),
			fmt.Sprintf("unexpected status %s", response.Status), "http", operation,
			response.StatusCode >= 500 || response.StatusCode == http.StatusTooManyRequests, nil).
			WithDetails(url)
	}

	if err := json.NewDecoder(io.LimitReader(response.Body, maxResponseBytes)).Decode(dest); err != nil {
		return NewServiceError(ErrorCategoryPayload, "DECODE_FAILED", err.Error(), "http", operation, false, err).
			WithDetails(url)
	}

	return nil
}
