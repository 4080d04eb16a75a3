package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/group-planner/internal/apperr"
)

func TestKey(t *testing.T) {
	if got := Key("abc"); got != "participant_abc" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestManagerMemory(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())

	if _, ok, err := m.Current(ctx, "e1"); err != nil || ok {
		t.Fatalf("expected no session, got ok=%v err=%v", ok, err)
	}
	if err := m.SetCurrent(ctx, "e1", "Ana"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if name, ok, _ := m.Current(ctx, "e1"); !ok || name != "Ana" {
		t.Fatalf("expected Ana, got %q ok=%v", name, ok)
	}
	if _, ok, _ := m.Current(ctx, "e2"); ok {
		t.Fatal("session leaked across events")
	}
	if err := m.Clear(ctx, "e1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := m.Current(ctx, "e1"); ok {
		t.Fatal("expected session cleared")
	}
}

func TestManagerRejectsEmpty(t *testing.T) {
	m := NewManager(NewMemoryStore())
	if err := m.SetCurrent(context.Background(), "e1", " "); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestClearIf(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())
	_ = m.SetCurrent(ctx, "e1", "Ana")

	if err := m.ClearIf(ctx, "e1", "Bo"); err != nil {
		t.Fatalf("clear if: %v", err)
	}
	if _, ok, _ := m.Current(ctx, "e1"); !ok {
		t.Fatal("session for another name was cleared")
	}
	if err := m.ClearIf(ctx, "e1", "Ana"); err != nil {
		t.Fatalf("clear if: %v", err)
	}
	if _, ok, _ := m.Current(ctx, "e1"); ok {
		t.Fatal("expected session cleared")
	}
}

func issue(t *testing.T, codec *CookieCodec, eventID, name string) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if err := NewManager(codec.Store(rec, req)).SetCurrent(context.Background(), eventID, name); err != nil {
		t.Fatalf("set: %v", err)
	}
	return rec.Result().Cookies()
}

func current(codec *CookieCodec, cookies []*http.Cookie, eventID string) (string, bool) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	name, ok, _ := NewManager(codec.Store(httptest.NewRecorder(), req)).Current(context.Background(), eventID)
	return name, ok
}

func TestCookieRoundTrip(t *testing.T) {
	codec := NewCookieCodec("secret", time.Hour, false)
	cookies := issue(t, codec, "e1", "Ana")
	if len(cookies) != 1 || cookies[0].Name != "participant_e1" || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies %+v", cookies)
	}
	if name, ok := current(codec, cookies, "e1"); !ok || name != "Ana" {
		t.Fatalf("expected Ana, got %q ok=%v", name, ok)
	}
}

func TestCookieRejectsOtherSecret(t *testing.T) {
	cookies := issue(t, NewCookieCodec("secret", time.Hour, false), "e1", "Ana")
	if _, ok := current(NewCookieCodec("other", time.Hour, false), cookies, "e1"); ok {
		t.Fatal("accepted cookie signed with a different secret")
	}
}

func TestCookieRejectsExpired(t *testing.T) {
	codec := NewCookieCodec("secret", time.Minute, false)
	cookies := issue(t, codec, "e1", "Ana")
	codec.now = func() time.Time { return time.Now().Add(time.Hour) }
	if _, ok := current(codec, cookies, "e1"); ok {
		t.Fatal("accepted expired cookie")
	}
}

func TestCookieBoundToEvent(t *testing.T) {
	codec := NewCookieCodec("secret", time.Hour, false)
	cookies := issue(t, codec, "e1", "Ana")
	cookies[0].Name = Key("e2")
	if _, ok := current(codec, cookies, "e2"); ok {
		t.Fatal("cookie for one event accepted for another")
	}
}

func TestCookieClearWithinRequest(t *testing.T) {
	ctx := context.Background()
	codec := NewCookieCodec("secret", time.Hour, false)
	cookies := issue(t, codec, "e1", "Ana")

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	m := NewManager(codec.Store(rec, req))
	if err := m.Clear(ctx, "e1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := m.Current(ctx, "e1"); ok {
		t.Fatal("cleared session still visible in the same request")
	}
	out := rec.Result().Cookies()
	if len(out) != 1 || out[0].MaxAge >= 0 {
		t.Fatalf("expected expiring cookie, got %+v", out)
	}
}
