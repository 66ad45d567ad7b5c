package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rmax-ai/mrpconf/pkg/model"
)

type noWait struct{}

func (noWait) Delay(int) time.Duration { return 0 }

func TestClient_GetTechnicalConfig(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    error
		wantItems  int
		wantValue0 model.Value
	}{
		{
			name:       "OK",
			status:     http.StatusOK,
			body:       `[{"name":"datasourceUrl","type":"string","value":"jdbc:x","description":"Datasource URL"},{"name":"datasourceDebug","type":"boolean","value":true,"description":"Debug"}]`,
			wantItems:  2,
			wantValue0: model.StringValue("jdbc:x"),
		},
		{
			name:      "Empty",
			status:    http.StatusOK,
			body:      `[]`,
			wantItems: 0,
		},
		{
			name:    "NullPayload",
			status:  http.StatusOK,
			body:    `null`,
			wantErr: ErrDeserialization,
		},
		{
			name:    "Malformed",
			status:  http.StatusOK,
			body:    `{"name":`,
			wantErr: ErrDeserialization,
		},
		{
			name:    "NotFound",
			status:  http.StatusNotFound,
			body:    `not here`,
			wantErr: ErrBadResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/config/technical" {
					t.Errorf("Expected path /config/technical, got %s", r.URL.Path)
				}
				if r.Method != http.MethodGet {
					t.Errorf("Expected GET, got %s", r.Method)
				}
				if r.Header.Get("X-Trace-ID") == "" {
					t.Errorf("Expected X-Trace-ID header")
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewClient(server.URL)
			items, err := c.GetTechnicalConfig(context.Background())

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("GetTechnicalConfig() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetTechnicalConfig() unexpected error: %v", err)
			}
			if len(items) != tt.wantItems {
				t.Fatalf("got %d items, want %d", len(items), tt.wantItems)
			}
			if tt.wantItems > 0 && items[0].Value != tt.wantValue0 {
				t.Errorf("items[0].Value = %v, want %v", items[0].Value, tt.wantValue0)
			}
		})
	}
}

func TestClient_ReadRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode([]model.Scenario{{ScenarioID: "A", Description: "a"}})
	}))
	defer server.Close()

	c := NewClient(server.URL, WithRetries(2, noWait{}))
	scenarios, err := c.GetScenarios(context.Background())
	if err != nil {
		t.Fatalf("GetScenarios() unexpected error: %v", err)
	}
	if len(scenarios) != 1 || scenarios[0].ScenarioID != "A" {
		t.Errorf("unexpected scenarios: %+v", scenarios)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestClient_ReadRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, WithRetries(1, noWait{}))
	_, err := c.GetScenarios(context.Background())

	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected StatusError 500, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 calls, got %d", got)
	}
}

func TestClient_NoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(server.URL, WithRetries(3, noWait{}))
	if _, err := c.GetOperationalConfig(context.Background(), "missing"); !errors.Is(err, ErrBadResponse) {
		t.Fatalf("expected ErrBadResponse, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 call, got %d", got)
	}
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := NewClient(url, WithTimeout(time.Second))
	_, err := c.GetTechnicalConfig(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestClient_OperationalPathEscaped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.EscapedPath(); got != "/config/operational/Plan%20B" {
			t.Errorf("unexpected path %s", got)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	if _, err := c.GetOperationalConfig(context.Background(), "Plan B"); err != nil {
		t.Fatalf("GetOperationalConfig() unexpected error: %v", err)
	}
}

func TestClient_Saves(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"NoContent", http.StatusNoContent, false},
		{"OK", http.StatusOK, false},
		{"Accepted", http.StatusAccepted, false},
		{"ServerError", http.StatusInternalServerError, true},
		{"BadRequest", http.StatusBadRequest, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			var got []model.ConfigItem
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				if r.Method != http.MethodPut {
					t.Errorf("Expected PUT, got %s", r.Method)
				}
				if r.Header.Get("Content-Type") != "application/json" {
					t.Errorf("Expected JSON content type")
				}
				_ = json.NewDecoder(r.Body).Decode(&got)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			c := NewClient(server.URL, WithRetries(3, noWait{}))
			items := []model.ConfigItem{
				{Name: "datasourceDebug", Type: model.TypeBoolean, Value: model.BoolValue(true)},
				{Name: "datasourcePassword", Type: model.TypePassword, Value: model.Absent},
			}
			err := c.SaveTechnicalConfig(context.Background(), items)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SaveTechnicalConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls.Load() != 1 {
				t.Errorf("writes must not be retried, got %d calls", calls.Load())
			}
			if len(got) != 2 || got[0].Value != model.BoolValue(true) || !got[1].Value.IsAbsent() {
				t.Errorf("unexpected payload: %+v", got)
			}
		})
	}
}

func TestClient_SaveOperationalConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/config/operational/Test_Mandant_3000" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	err := c.SaveOperationalConfig(context.Background(), "Test_Mandant_3000", []model.ConfigItem{
		{Name: "batchSize", Type: model.TypeString, Value: model.StringValue("500")},
	})
	if err != nil {
		t.Fatalf("SaveOperationalConfig() unexpected error: %v", err)
	}
}

func TestClient_CreateScenario(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"Created", http.StatusCreated, false},
		{"OKIsNotCreated", http.StatusOK, true},
		{"Conflict", http.StatusConflict, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/config/scenarios" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				var s model.Scenario
				if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
					t.Errorf("decode body: %v", err)
				}
				if s.ScenarioID != "New_1" || s.Description != "new" {
					t.Errorf("unexpected scenario %+v", s)
				}
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			c := NewClient(server.URL)
			err := c.CreateScenario(context.Background(), model.Scenario{ScenarioID: "New_1", Description: "new"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateScenario() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrBadResponse) {
				t.Errorf("expected ErrBadResponse, got %v", err)
			}
		})
	}
}

func TestClient_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/health" {
			t.Errorf("Expected path /v1/health, got %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL + "/")
	status, err := c.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping() unexpected error: %v", err)
	}
	if status.Status != "ok" {
		t.Errorf("Ping() status = %s, want ok", status.Status)
	}
}

func TestNewClient_DefaultEndpoint(t *testing.T) {
	if got := NewClient("").Endpoint(); got != DefaultEndpoint {
		t.Errorf("Endpoint() = %s, want %s", got, DefaultEndpoint)
	}
}
