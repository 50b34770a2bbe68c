package records

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetRecordParsesAttachments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/base1/Inventario/rec1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key1" {
			t.Errorf("missing auth header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "rec1",
			"fields": {
				"Foto": [
					{"id": "att1", "url": "https://cdn.example.com/f.jpg", "filename": "f.jpg", "type": "image/jpeg", "size": 2048}
				],
				"Nombre": "Honda Civic"
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key1", BaseID: "base1", BaseURL: server.URL})
	record, err := client.GetRecord(context.Background(), "Inventario", "rec1")
	if err != nil {
		t.Fatalf("get record failed: %v", err)
	}

	attachments := ParseAttachments(record.Fields["Foto"])
	if len(attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(attachments))
	}
	att := attachments[0]
	if att.URL != "https://cdn.example.com/f.jpg" || att.Filename != "f.jpg" || att.ContentType != "image/jpeg" || att.Size != 2048 {
		t.Fatalf("unexpected attachment: %+v", att)
	}

	// Non-attachment cells parse to nothing.
	if got := ParseAttachments(record.Fields["Nombre"]); len(got) != 0 {
		t.Fatalf("expected no attachments from a text cell, got %+v", got)
	}
	if got := ParseAttachments(record.Fields["Missing"]); len(got) != 0 {
		t.Fatalf("expected no attachments from a missing cell, got %+v", got)
	}
}

func TestUpdateRecordPatchesFields(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key1", BaseID: "base1", BaseURL: server.URL})
	err := client.UpdateRecord(context.Background(), "Inventario", "rec1", map[string]any{
		"feature_image": "https://r2.example.com/f.jpg",
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	fields, ok := captured["fields"].(map[string]any)
	if !ok {
		t.Fatalf("expected fields object, got %+v", captured)
	}
	if fields["feature_image"] != "https://r2.example.com/f.jpg" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}

func TestCreateRecordWrapsInRecordsArray(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key1", BaseID: "base1", BaseURL: server.URL})
	err := client.CreateRecord(context.Background(), "Cotizaciones", map[string]any{
		"Oferta Sugerida": 185000.0,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	recordsArr, ok := captured["records"].([]any)
	if !ok || len(recordsArr) != 1 {
		t.Fatalf("expected one wrapped record, got %+v", captured)
	}
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error": {"type": "INVALID_REQUEST"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key1", BaseID: "base1", BaseURL: server.URL})
	if _, err := client.GetRecord(context.Background(), "Inventario", "rec1"); err == nil {
		t.Fatalf("expected error on 422")
	}
}

func TestInventoryStoreFetchAttachments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"id": "rec1",
			"fields": {
				"Foto": [{"url": "https://cdn.example.com/f.jpg", "filename": "f.jpg", "type": "image/jpeg", "size": 10}]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key1", BaseID: "base1", BaseURL: server.URL})
	inventory := NewInventoryStore(client, "Inventario")

	result, err := inventory.FetchAttachments(context.Background(), "rec1", []string{"Foto", "fotos_exterior_archivos"})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(result["Foto"]) != 1 {
		t.Fatalf("expected 1 Foto attachment, got %+v", result)
	}
	if len(result["fotos_exterior_archivos"]) != 0 {
		t.Fatalf("absent field must yield empty slice, got %+v", result)
	}
}
