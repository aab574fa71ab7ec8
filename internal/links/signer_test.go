package links

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestCanonical_SortsKeys(t *testing.T) {
	got := Canonical(map[string]string{"e": "3", "admin": "1", "company": "2"})
	if got != "admin=1&company=2&e=3" {
		t.Fatalf("unexpected canonical form %q", got)
	}
}

func TestSign_DependsOnSecretAndParams(t *testing.T) {
	a := NewSigner([]byte("k1"), nil)
	b := NewSigner([]byte("k2"), nil)
	p := map[string]string{"admin": "1", "company": "2", "e": "3"}

	if a.Sign(p) != a.Sign(map[string]string{"e": "3", "company": "2", "admin": "1"}) {
		t.Fatalf("expected signature independent of map construction order")
	}
	if a.Sign(p) == b.Sign(p) {
		t.Fatalf("expected different secrets to produce different signatures")
	}
	if len(a.Sign(p)) != 64 {
		t.Fatalf("expected hex sha256 signature")
	}
}

func TestVerify_RoundTripAndExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := NewSigner([]byte("secret"), fixedClock(now))

	expiry := now.Add(time.Hour).Unix()
	sig := s.Sign(map[string]string{"admin": "7", "company": "42", "e": strconv.FormatInt(expiry, 10)})

	if err := s.Verify(7, 42, expiry, sig); err != nil {
		t.Fatalf("expected valid before expiry, got %v", err)
	}

	atExpiry := NewSigner([]byte("secret"), fixedClock(time.Unix(expiry, 0)))
	if err := atExpiry.Verify(7, 42, expiry, sig); err != nil {
		t.Fatalf("expected valid at exact expiry, got %v", err)
	}

	after := NewSigner([]byte("secret"), fixedClock(time.Unix(expiry+1, 0)))
	if err := after.Verify(7, 42, expiry, sig); !errors.Is(err, ErrLinkExpired) {
		t.Fatalf("expected ErrLinkExpired, got %v", err)
	}
}

func TestVerify_RejectsMutation(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := NewSigner([]byte("secret"), fixedClock(now))
	expiry := now.Add(time.Hour).Unix()
	sig := s.Sign(linkParams(7, 42, expiry))

	cases := []struct {
		name                string
		admin, company, exp int64
		sig                 string
	}{
		{"admin", 8, 42, expiry, sig},
		{"company", 7, 43, expiry, sig},
		{"expiry", 7, 42, expiry + 3600, sig},
		{"signature", 7, 42, expiry, strings.Repeat("0", 64)},
		{"empty signature", 7, 42, expiry, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := s.Verify(tc.admin, tc.company, tc.exp, tc.sig); !errors.Is(err, ErrInvalidSignature) {
				t.Fatalf("expected ErrInvalidSignature, got %v", err)
			}
		})
	}
}

func TestVerify_ExpiredAndTamperedReportsSignature(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := NewSigner([]byte("secret"), fixedClock(now))
	if err := s.Verify(1, 2, now.Add(-time.Hour).Unix(), "bogus"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected signature failure first, got %v", err)
	}
}

func TestGenerateLink(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := NewSigner([]byte("secret"), fixedClock(now))

	link, err := s.GenerateLink("https://book.example.com/ann/", 7, 42, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	wantExpiry := now.Add(7 * 24 * time.Hour).Unix()
	if link.Expiry != wantExpiry {
		t.Fatalf("expected expiry %d, got %d", wantExpiry, link.Expiry)
	}
	if !strings.HasPrefix(link.URL, "https://book.example.com/ann/?s=") {
		t.Fatalf("unexpected link prefix: %s", link.URL)
	}

	u, err := url.Parse(link.URL)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("admin") != "7" || q.Get("company") != "42" || q.Get("e") != strconv.FormatInt(wantExpiry, 10) {
		t.Fatalf("unexpected query: %v", q)
	}
	if err := s.Verify(7, 42, wantExpiry, q.Get("s")); err != nil {
		t.Fatalf("generated link should verify: %v", err)
	}

	if _, err := s.GenerateLink("https://x", 1, 2, 0); !errors.Is(err, ErrInvalidTTL) {
		t.Fatalf("expected ErrInvalidTTL, got %v", err)
	}
}
