// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// Probe issues a single HEAD request against rawURL and reports the
// remote resource's metadata. Network failures surface as a Network-kind
// error; an unresumable or zero-length resource is never an error, it is
// simply reflected in the returned FileMeta.
func Probe(ctx context.Context, client *http.Client, rawURL string) (FileMeta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return FileMeta{}, NewNetworkError("build probe request", err)
	}
	setUserAgent(req)

	resp, err := client.Do(req)
	if err != nil {
		return FileMeta{}, NewNetworkError("probe "+rawURL, err)
	}
	defer resp.Body.Close()

	contentLength := parseContentLength(resp.Header.Get("Content-Length"))
	contentType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	supportsRanges := strings.TrimSpace(resp.Header.Get("Accept-Ranges")) != "" && contentLength > 0

	fileName := fileNameFromContentDisposition(resp.Header.Get("Content-Disposition"))
	if fileName == "" {
		fileName = fileNameFromURL(rawURL)
	}

	return FileMeta{
		URL:            rawURL,
		ContentLength:  contentLength,
		SupportsRanges: supportsRanges,
		ContentType:    contentType,
		FileName:       fileName,
	}, nil
}

func parseContentLength(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// fileNameFromContentDisposition extracts the value after the last '='
// in a "filename=..." token, stripped of surrounding double quotes. It
// returns "" if no such token is present.
func fileNameFromContentDisposition(cd string) string {
	if cd == "" {
		return ""
	}
	if !strings.Contains(strings.ToLower(cd), "filename") {
		return ""
	}
	idx := strings.LastIndex(cd, "=")
	if idx == -1 || idx == len(cd)-1 {
		return ""
	}
	name := strings.TrimSpace(cd[idx+1:])
	name = strings.ReplaceAll(name, `"`, "")
	return name
}

// fileNameFromURL derives a file name from the URL's path basename,
// truncated at the first '?'. A URL ending in "/" yields "Unknown_File".
func fileNameFromURL(rawURL string) string {
	idx := strings.LastIndex(rawURL, "/")
	if idx == -1 || idx == len(rawURL)-1 {
		return "Unknown_File"
	}
	name := rawURL[idx+1:]
	if q := strings.Index(name, "?"); q != -1 {
		name = name[:q]
	}
	if name == "" {
		return "Unknown_File"
	}
	return name
}
