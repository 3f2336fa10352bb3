package identity

import (
	"context"
	"errors"
	"testing"
)

func TestIssueNeverDuplicates(t *testing.T) {
	seen := make(map[string]bool)
	issuer := NewIssuer(func(ctx context.Context, token string) (bool, error) {
		return seen[token], nil
	})

	for i := 0; i < 1000; i++ {
		token, err := issuer.Issue(context.Background())
		if err != nil {
			t.Fatalf("Issue returned error on iteration %d: %v", i, err)
		}
		if !TokenPattern.MatchString(token) {
			t.Fatalf("token %q does not match pattern", token)
		}
		if seen[token] {
			t.Fatalf("duplicate token issued: %s", token)
		}
		seen[token] = true
	}
}

func TestGenerateDrawsUniformly(t *testing.T) {
	issuer := NewIssuer(nil)
	counts := make(map[byte]int)
	const tokens = 45000
	for i := 0; i < tokens; i++ {
		token, err := issuer.generate()
		if err != nil {
			t.Fatalf("generate returned error: %v", err)
		}
		for _, c := range []byte(token[len(TokenPrefix):]) {
			counts[c]++
		}
	}

	// A modulo-biased draw over a 256-value byte inflates the first four
	// alphabet characters by ~14%; a fair draw stays well inside 5% of the
	// mean at this sample size.
	mean := float64(tokens*8) / float64(len(tokenAlphabet))
	for c, n := range counts {
		if diff := float64(n) - mean; diff > mean*0.05 || diff < -mean*0.05 {
			t.Fatalf("character %c drawn %d times, expected about %.0f", c, n, mean)
		}
	}
}

func TestIssueExhaustsAttemptBudget(t *testing.T) {
	issuer := NewIssuer(func(ctx context.Context, token string) (bool, error) {
		return true, nil
	}, WithMaxAttempts(3))

	_, err := issuer.Issue(context.Background())
	if !errors.Is(err, ErrTokenSpaceExhausted) {
		t.Fatalf("expected ErrTokenSpaceExhausted got %v", err)
	}
}

func TestIssuePropagatesExistenceCheckFailure(t *testing.T) {
	boom := errors.New("store down")
	issuer := NewIssuer(func(ctx context.Context, token string) (bool, error) {
		return false, boom
	})

	_, err := issuer.Issue(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error got %v", err)
	}
}

func TestPortalURL(t *testing.T) {
	got := PortalURL("https://shop.example.com/", "/portal/", "CL-ABCD1234")
	want := "https://shop.example.com/portal/CL-ABCD1234"
	if got != want {
		t.Fatalf("expected %s got %s", want, got)
	}
}
