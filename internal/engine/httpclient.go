// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"net/http"
	"time"
)

// NewHTTPClient builds an HTTP client with pooling defaults suitable for
// sharing across many concurrent Fetchers. The returned client is safe
// for concurrent use, per the standard library's guarantee.
func NewHTTPClient() *http.Client {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: tr}
}

func setUserAgent(req *http.Request) {
	req.Header.Set("User-Agent", "rangefetch/1")
}
