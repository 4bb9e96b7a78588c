package resolver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yourorg/notification-gateway/internal/logger"
)

func TestHTTPResolver_Found(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/customers/by-account/100001" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"customerId":1001,"accountId":100001,"firstName":"Adaeze","lastName":"Okafor","email":"a@b.com","phoneNumber":"+2341"}`))
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL, 0, logger.New("test"))
	profile, ok := r.Resolve(100001)
	if !ok {
		t.Fatal("expected profile to be found")
	}
	if profile.CustomerID != 1001 || profile.Phone != "+2341" {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestHTTPResolver_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL, 0, logger.New("test"))
	_, ok := r.Resolve(999999)
	if ok {
		t.Fatal("expected not found")
	}
}

func TestHTTPResolver_ServerErrorSurfacesAsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL, 0, logger.New("test"))
	_, ok := r.Resolve(1)
	if ok {
		t.Fatal("expected server error to surface as not found")
	}
}
