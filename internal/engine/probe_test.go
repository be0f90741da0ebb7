// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProbeReadsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "141748419")
		w.Header().Set("Content-Type", " application/x-gzip ")
		w.Header().Set("Accept-Ranges", "bytes")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	meta, err := Probe(context.Background(), srv.Client(), srv.URL+"/go1.18.3.linux-amd64.tar.gz")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if meta.ContentLength != 141748419 {
		t.Fatalf("ContentLength = %d", meta.ContentLength)
	}
	if meta.ContentType != "application/x-gzip" {
		t.Fatalf("ContentType = %q", meta.ContentType)
	}
	if !meta.SupportsRanges {
		t.Fatalf("SupportsRanges = false, want true")
	}
	if meta.FileName != "go1.18.3.linux-amd64.tar.gz" {
		t.Fatalf("FileName = %q", meta.FileName)
	}
}

func TestProbeNoAcceptRangesDisablesResume(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "2000")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	meta, err := Probe(context.Background(), srv.Client(), srv.URL+"/file.bin")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if meta.SupportsRanges {
		t.Fatalf("SupportsRanges = true, want false without Accept-Ranges")
	}
}

func TestProbeMissingContentLengthIsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-Ranges", "bytes")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	meta, err := Probe(context.Background(), srv.Client(), srv.URL+"/file.bin")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if meta.ContentLength != 0 {
		t.Fatalf("ContentLength = %d, want 0", meta.ContentLength)
	}
	if meta.SupportsRanges {
		t.Fatalf("SupportsRanges = true, want false when content_length == 0")
	}
}

func TestProbeContentDispositionFileName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="model.bin"`)
		w.Header().Set("Content-Length", "10")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	meta, err := Probe(context.Background(), srv.Client(), srv.URL+"/download")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if meta.FileName != "model.bin" {
		t.Fatalf("FileName = %q, want model.bin", meta.FileName)
	}
}

func TestFileNameFromURL(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://github.com/lokaimoma/Bugza/archive/refs/heads/main.zip", "main.zip"},
		{"https://github.com/lokaimoma/Bugza/archive/refs/heads/main.zip?lifetime=100&expire=4000", "main.zip"},
		{"https://github.com/lokaimoma/Bugza/archive/refs/heads/", "Unknown_File"},
	}
	for _, c := range cases {
		if got := fileNameFromURL(c.url); got != c.want {
			t.Errorf("fileNameFromURL(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}

func TestProbeNetworkFailureIsNetworkKind(t *testing.T) {
	_, err := Probe(context.Background(), http.DefaultClient, "http://127.0.0.1:1/unreachable")
	if err == nil {
		t.Fatal("expected error")
	}
	if KindOf(err) != KindNetwork {
		t.Fatalf("KindOf(err) = %v, want Network", KindOf(err))
	}
}
