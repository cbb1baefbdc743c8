package advisory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testResolver() Resolver {
	return func(name string) (uint, bool) {
		if name == "Early Blight" {
			return 1, true
		}
		return 0, false
	}
}

func TestSuggest_Success(t *testing.T) {
	var gotBody predictRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		name := "Early Blight"
		_ = json.NewEncoder(w).Encode(predictResponse{PredictedDiseaseName: &name})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, testResolver())
	got := c.Suggest(context.Background(), 1, []uint{1, 2})
	if got == nil || *got != 1 {
		t.Fatalf("Suggest = %v, want 1", got)
	}
	if gotBody.PlantID != 1 || len(gotBody.SymptomIDs) != 2 {
		t.Fatalf("request payload = %+v", gotBody)
	}
}

func TestSuggest_NullPrediction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"predicted_disease_name": null}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, testResolver())
	if got := c.Suggest(context.Background(), 1, []uint{1}); got != nil {
		t.Fatalf("Suggest with null prediction = %v, want nil", got)
	}
}

func TestSuggest_UnknownDiseaseName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"predicted_disease_name": "Martian Rot"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, testResolver())
	if got := c.Suggest(context.Background(), 1, []uint{1}); got != nil {
		t.Fatalf("Suggest with unknown name = %v, want nil", got)
	}
}

func TestSuggest_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, testResolver())
	if got := c.Suggest(context.Background(), 1, []uint{1}); got != nil {
		t.Fatalf("Suggest on HTTP 500 = %v, want nil", got)
	}
}

func TestSuggest_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"predicted_`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, testResolver())
	if got := c.Suggest(context.Background(), 1, []uint{1}); got != nil {
		t.Fatalf("Suggest on malformed body = %v, want nil", got)
	}
}

func TestSuggest_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"predicted_disease_name": "Early Blight"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 20*time.Millisecond, testResolver())
	if got := c.Suggest(context.Background(), 1, []uint{1}); got != nil {
		t.Fatalf("Suggest past deadline = %v, want nil", got)
	}
}

func TestSuggest_Unreachable(t *testing.T) {
	// Point at a closed server.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, testResolver())
	if got := c.Suggest(context.Background(), 1, []uint{1}); got != nil {
		t.Fatalf("Suggest against closed server = %v, want nil", got)
	}
}
