package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/scorepadhq/scorepad/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.InitSchema(); err != nil {
		t.Fatalf("InitSchema() failed: %v", err)
	}

	return st
}

func TestKeeper_TokenRoundtrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	k, err := NewKeeper(st)
	if err != nil {
		t.Fatalf("NewKeeper() failed: %v", err)
	}
	if k.LoggedIn() {
		t.Error("LoggedIn() = true on fresh store")
	}

	if err := k.SetToken(ctx, "tok-1"); err != nil {
		t.Fatalf("SetToken() failed: %v", err)
	}
	if k.Token() != "tok-1" {
		t.Errorf("Token() = %q, want 'tok-1'", k.Token())
	}

	// A new keeper on the same store sees the persisted token.
	k2, err := NewKeeper(st)
	if err != nil {
		t.Fatalf("Second NewKeeper() failed: %v", err)
	}
	if k2.Token() != "tok-1" {
		t.Errorf("reloaded Token() = %q, want 'tok-1'", k2.Token())
	}

	if err := k.Clear(ctx); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if k.LoggedIn() {
		t.Error("LoggedIn() = true after Clear()")
	}
}

func TestKeeper_Claims(t *testing.T) {
	st := testStore(t)
	k, err := NewKeeper(st)
	if err != nil {
		t.Fatalf("NewKeeper() failed: %v", err)
	}

	exp := time.Now().Add(8 * time.Hour).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		SeatID: "seat-3",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "judge-14",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString() failed: %v", err)
	}

	if err := k.SetToken(context.Background(), signed); err != nil {
		t.Fatalf("SetToken() failed: %v", err)
	}

	claims, err := k.Claims()
	if err != nil {
		t.Fatalf("Claims() failed: %v", err)
	}
	if claims.Judge != "judge-14" {
		t.Errorf("Judge = %q, want 'judge-14'", claims.Judge)
	}
	if claims.SeatID != "seat-3" {
		t.Errorf("SeatID = %q, want 'seat-3'", claims.SeatID)
	}
	if !claims.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt, exp)
	}
}

func TestKeeper_ClaimsNotLoggedIn(t *testing.T) {
	k, err := NewKeeper(testStore(t))
	if err != nil {
		t.Fatalf("NewKeeper() failed: %v", err)
	}
	if _, err := k.Claims(); err == nil {
		t.Error("Claims() succeeded with no token")
	}
}

func TestLogin_StoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("path = %q, want /auth/login", r.URL.Path)
		}
		w.Write([]byte(`{"data":{"token":"tok-login"}}`))
	}))
	defer srv.Close()

	k, err := NewKeeper(testStore(t))
	if err != nil {
		t.Fatalf("NewKeeper() failed: %v", err)
	}

	if err := k.Login(context.Background(), nil, srv.URL, "judge", "secret"); err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if k.Token() != "tok-login" {
		t.Errorf("Token() = %q, want 'tok-login'", k.Token())
	}
}

func TestLogin_RejectionCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"bad credentials"}`))
	}))
	defer srv.Close()

	k, err := NewKeeper(testStore(t))
	if err != nil {
		t.Fatalf("NewKeeper() failed: %v", err)
	}

	err = k.Login(context.Background(), nil, srv.URL, "judge", "wrong")
	if err == nil {
		t.Fatal("Login() succeeded with bad credentials")
	}
	if got := err.Error(); got != "login rejected: bad credentials" {
		t.Errorf("error = %q, want 'login rejected: bad credentials'", got)
	}
	if k.LoggedIn() {
		t.Error("LoggedIn() = true after rejected login")
	}
}
