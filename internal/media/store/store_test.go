package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestObjectPathLayout(t *testing.T) {
	task := UploadTask{RecordID: "rec1", Category: "fotos_exterior", Filename: "e1.jpg"}
	if got := task.ObjectPath(); got != "airtable/rec1/fotos_exterior/e1.jpg" {
		t.Fatalf("unexpected object path %q", got)
	}
}

func TestRetryPolicyLinearDelay(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
	for attempt := 1; attempt <= 3; attempt++ {
		want := time.Duration(attempt) * time.Second
		if got := policy.DelayFor(attempt); got != want {
			t.Fatalf("DelayFor(%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestR2UploadCallsEdgeFunction(t *testing.T) {
	var captured r2UploadRequest
	edge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/r2-upload" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer svc-key" {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"url": "https://acc.r2.cloudflarestorage.com/bucket/airtable/rec1/fotos_exterior/e1.jpg"}`))
	}))
	defer edge.Close()

	store := NewR2Store(R2Config{
		EdgeFunctionsURL: edge.URL,
		ServiceKey:       "svc-key",
		AccountID:        "acc",
		Bucket:           "bucket",
	})

	ref, err := store.Upload(context.Background(), UploadTask{
		RecordID:    "rec1",
		Category:    "fotos_exterior",
		SourceURL:   "https://cdn.example.com/e1.jpg",
		Filename:    "e1.jpg",
		ContentType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if captured.Path != "airtable/rec1/fotos_exterior/e1.jpg" {
		t.Fatalf("unexpected path %q", captured.Path)
	}
	if captured.FileURL != "https://cdn.example.com/e1.jpg" {
		t.Fatalf("unexpected file url %q", captured.FileURL)
	}
	if ref.URL == "" || ref.Key != captured.Path {
		t.Fatalf("unexpected ref %+v", ref)
	}
}

func TestR2UploadFallsBackToConstructedURL(t *testing.T) {
	edge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer edge.Close()

	store := NewR2Store(R2Config{EdgeFunctionsURL: edge.URL, ServiceKey: "k", AccountID: "acc", Bucket: "bucket"})
	ref, err := store.Upload(context.Background(), UploadTask{RecordID: "rec1", Category: "feature_image", Filename: "f.jpg"})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	want := "https://acc.r2.cloudflarestorage.com/bucket/airtable/rec1/feature_image/f.jpg"
	if ref.URL != want {
		t.Fatalf("expected constructed url %q, got %q", want, ref.URL)
	}
}

func TestR2UploadSurfacesEdgeErrors(t *testing.T) {
	edge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("edge function crashed"))
	}))
	defer edge.Close()

	store := NewR2Store(R2Config{EdgeFunctionsURL: edge.URL, ServiceKey: "k", AccountID: "acc", Bucket: "bucket"})
	if _, err := store.Upload(context.Background(), UploadTask{RecordID: "rec1", Category: "feature_image", Filename: "f.jpg"}); err == nil {
		t.Fatalf("expected error from failing edge function")
	}
}

func TestSupabaseUploadFetchesSourceAndUpserts(t *testing.T) {
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer source.Close()

	var uploadPath string
	var upsert string
	supabase := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uploadPath = r.URL.Path
		upsert = r.Header.Get("x-upsert")
		if ct := r.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("expected source content type to propagate, got %q", ct)
		}
		w.Write([]byte(`{"Key": "ok"}`))
	}))
	defer supabase.Close()

	store := NewSupabaseStore(SupabaseConfig{URL: supabase.URL, ServiceKey: "svc-key", Bucket: "fotos_airtable"})
	ref, err := store.Upload(context.Background(), UploadTask{
		RecordID:  "rec1",
		Category:  "fotos_interior",
		SourceURL: source.URL + "/i1.png",
		Filename:  "i1.png",
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if uploadPath != "/storage/v1/object/fotos_airtable/airtable/rec1/fotos_interior/i1.png" {
		t.Fatalf("unexpected upload path %q", uploadPath)
	}
	if upsert != "true" {
		t.Fatalf("expected x-upsert header")
	}
	wantURL := supabase.URL + "/storage/v1/object/public/fotos_airtable/airtable/rec1/fotos_interior/i1.png"
	if ref.URL != wantURL {
		t.Fatalf("expected public url %q, got %q", wantURL, ref.URL)
	}
}

func TestSupabaseListSkipsPlaceholders(t *testing.T) {
	supabase := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/storage/v1/object/list/fotos_airtable" {
			t.Errorf("unexpected list path %s", r.URL.Path)
		}
		var req supabaseListRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode list request: %v", err)
		}
		if req.Prefix != "airtable/rec1/fotos_exterior" || req.Limit != 100 {
			t.Errorf("unexpected list request %+v", req)
		}
		w.Write([]byte(`[{"name": ".emptyFolderPlaceholder"}, {"name": "e1.jpg"}]`))
	}))
	defer supabase.Close()

	store := NewSupabaseStore(SupabaseConfig{URL: supabase.URL, ServiceKey: "svc-key", Bucket: "fotos_airtable"})
	refs, err := store.List(context.Background(), "rec1", "fotos_exterior")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(refs) != 1 || refs[0].Filename != "e1.jpg" {
		t.Fatalf("expected placeholder to be skipped, got %+v", refs)
	}
}
