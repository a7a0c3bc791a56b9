package generators

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestHash(t *testing.T) {
	h := Hash("John Smith")
	if len(h) != 64 {
		t.Fatalf("Expected 64 hex chars, got %d", len(h))
	}
	if h != Hash("John Smith") {
		t.Error("Hash is not deterministic")
	}
	if h == Hash("John Smyth") {
		t.Error("Different originals produced the same hash")
	}
}

func TestParseKind(t *testing.T) {
	if ParseKind("PERSON") != KindPerson {
		t.Errorf("Expected KindPerson, got %v", ParseKind("PERSON"))
	}
	if ParseKind("API_KEY") != KindUnknown {
		t.Errorf("Expected KindUnknown, got %v", ParseKind("API_KEY"))
	}
	for kind, label := range kindLabels {
		if ParseKind(kind.String()) != kind {
			t.Errorf("Round trip failed for %s", label)
		}
	}
	if KindUnknown.String() != "UNKNOWN" {
		t.Errorf("Expected UNKNOWN, got %s", KindUnknown.String())
	}
}

// Known vectors: the same original must always produce these values
func TestGenerate_KnownValues(t *testing.T) {
	tests := []struct {
		label    string
		original string
		want     string
	}{
		{"PERSON", "John Smith", "Lisa Johansson"},
		{"EMAIL", "john@acme.com", "jennifer.obrien@mail.example.com"},
		{"PHONE_NUMBER", "(555) 123-4567", "(400) 611-2107"},
		{"SSN", "123-45-6789", "126-94-8246"},
		{"CREDIT_CARD", "4111-1111-1111-1111", "4382-0781-7066-2891"},
		{"MONETARY_AMOUNT", "$1,250,000.00", "$1,067,796.18"},
		{"MONETARY_AMOUNT", "EUR 0", "$1,234.56"},
		{"LOCATION", "1 Main St", "678 Cedar Lane, Seattle, WA 98101"},
		{"DATE", "2023-01-01", "2024-05-25"},
		{"MATTER_NUMBER", "Matter #2024-0847", "M-7732-921"},
		{"CLIENT_MATTER_PAIR", "Acme / 2024-0847", "Apex Dynamics / M-4005-685"},
		{"DEAL_CODENAME", "Project Blue", "Project Compass"},
		{"ACCOUNT_NUMBER", "Account 12345678", "1055774959"},
		{"IP_ADDRESS", "10.0.0.1", "192.0.2.241"},
		{"MEDICAL_RECORD", "MRN 1234567", "MRN-2262612"},
		{"PASSPORT_NUMBER", "X1234567", "L67479617"},
		{"DRIVERS_LICENSE", "D123", "Y689976315"},
		{"OPPOSING_COUNSEL", "opposing counsel Jane Roe", "Rebecca Malone, Thompson LLP"},
		{"PRIVILEGE_MARKER", "attorney-client privilege", "ATTORNEY-CLIENT PRIVILEGE"},
		{"API_KEY", "sk-abc", "[REDACTED_API_KEY]"},
	}

	for _, tt := range tests {
		t.Run(tt.label+"/"+tt.original, func(t *testing.T) {
			got := Generate(tt.label, tt.original, Hash(tt.original))
			if got != tt.want {
				t.Errorf("Generate(%s, %q) = %q, want %q", tt.label, tt.original, got, tt.want)
			}
		})
	}
}

func TestGenerate_Formats(t *testing.T) {
	formats := map[string]*regexp.Regexp{
		"EMAIL":           regexp.MustCompile(`^[a-z]+\.[a-z]+@(example\.com|example\.org|test\.example\.net|mail\.example\.com)$`),
		"PHONE_NUMBER":    regexp.MustCompile(`^\([2-9]\d{2}\) [1-9]\d{2}-[1-9]\d{3}$`),
		"SSN":             regexp.MustCompile(`^[1-9]\d{2}-[1-9]\d-[1-9]\d{3}$`),
		"CREDIT_CARD":     regexp.MustCompile(`^4\d{3}-\d{4}-\d{4}-\d{4}$`),
		"DATE":            regexp.MustCompile(`^202[0-4]-(0[1-9]|1[0-2])-(0[1-9]|1\d|2[0-8])$`),
		"MATTER_NUMBER":   regexp.MustCompile(`^M-\d{4}-\d{3}$`),
		"ACCOUNT_NUMBER":  regexp.MustCompile(`^\d{10}$`),
		"IP_ADDRESS":      regexp.MustCompile(`^192\.0\.2\.([1-9]|[1-9]\d|1\d\d|2[0-4]\d|25[0-4])$`),
		"MEDICAL_RECORD":  regexp.MustCompile(`^MRN-\d{7}$`),
		"PASSPORT_NUMBER": regexp.MustCompile(`^[A-Z]\d{8}$`),
		"DRIVERS_LICENSE": regexp.MustCompile(`^[A-Z]\d{9}$`),
		"DEAL_CODENAME":   regexp.MustCompile(`^Project [A-Z][a-z]+$`),
	}

	for label, pattern := range formats {
		for i := 0; i < 50; i++ {
			original := strings.Repeat("x", i) + label
			got := Generate(label, original, Hash(original))
			if !pattern.MatchString(got) {
				t.Errorf("%s: %q does not match %s", label, got, pattern)
			}
		}
	}
}

func TestMonetaryAmountGenerator(t *testing.T) {
	tests := []struct {
		name     string
		original string
		prefix   string
	}{
		{"dollar", "$5,000", "$"},
		{"euro symbol", "€250.00", "€"},
		{"currency code", "USD 1,000,000", "USD"},
		{"suffix currency defaults to dollar", "100 dollars", "$"},
	}

	amount := regexp.MustCompile(`^\d{1,3}(,\d{3})*\.\d{2}$`)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonetaryAmountGenerator(tt.original, Hash(tt.original))
			if !strings.HasPrefix(got, tt.prefix) {
				t.Fatalf("Expected prefix %q, got %q", tt.prefix, got)
			}
			if !amount.MatchString(strings.TrimPrefix(got, tt.prefix)) {
				t.Errorf("Expected grouped amount with two decimals, got %q", got)
			}
		})
	}

	for _, original := range []string{"", "free", "$0.00", "1.2.3"} {
		if got := MonetaryAmountGenerator(original, Hash(original)); got != defaultMonetaryAmount {
			t.Errorf("MonetaryAmountGenerator(%q) = %q, want %q", original, got, defaultMonetaryAmount)
		}
	}
}

func TestSeed_ClampsBounds(t *testing.T) {
	if seed("ff", 0, 8) != 255 {
		t.Errorf("Expected 255, got %d", seed("ff", 0, 8))
	}
	if seed("ff", 4, 8) != 0 {
		t.Error("Expected 0 for a slice past the end")
	}
	if seed("zz", 0, 2) != 0 {
		t.Error("Expected 0 for invalid hex")
	}
}

type stubRealistic struct {
	value string
	err   error
	delay time.Duration
	calls []Kind
}

func (s *stubRealistic) Value(ctx context.Context, kind Kind, seed uint64) (string, error) {
	s.calls = append(s.calls, kind)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.value, s.err
}

func TestGenerator_NilRealisticIsDeterministic(t *testing.T) {
	g := NewGenerator(nil, 0)
	h := Hash("John Smith")

	if got := g.Generate(context.Background(), "PERSON", "John Smith", h); got != "Lisa Johansson" {
		t.Errorf("Expected deterministic value, got %q", got)
	}
	if g.Timeout != DefaultRealisticTimeout {
		t.Errorf("Expected default timeout, got %v", g.Timeout)
	}
}

func TestGenerator_UsesRealistic(t *testing.T) {
	stub := &stubRealistic{value: "Alex Example"}
	g := NewGenerator(stub, time.Second)

	got := g.Generate(context.Background(), "PERSON", "John Smith", Hash("John Smith"))
	if got != "Alex Example" {
		t.Errorf("Expected realistic value, got %q", got)
	}
}

func TestGenerator_CompoundKinds(t *testing.T) {
	stub := &stubRealistic{value: "Alex Example"}
	g := NewGenerator(stub, time.Second)
	original := "opposing counsel Jane Roe"

	got := g.Generate(context.Background(), "OPPOSING_COUNSEL", original, Hash(original))
	if got != "Alex Example, Thompson LLP" {
		t.Errorf("Expected realistic person with deterministic firm, got %q", got)
	}
	if len(stub.calls) != 1 || stub.calls[0] != KindPerson {
		t.Errorf("Expected one call for KindPerson, got %v", stub.calls)
	}
}

func TestGenerator_FallsBack(t *testing.T) {
	tests := []struct {
		name string
		stub *stubRealistic
	}{
		{"error", &stubRealistic{err: errors.New("boom")}},
		{"unsupported kind", &stubRealistic{err: ErrNoRealisticValue}},
		{"empty value", &stubRealistic{}},
		{"timeout", &stubRealistic{value: "too late", delay: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(tt.stub, 10*time.Millisecond)
			got := g.Generate(context.Background(), "SSN", "123-45-6789", Hash("123-45-6789"))
			if got != "126-94-8246" {
				t.Errorf("Expected deterministic fallback, got %q", got)
			}
		})
	}
}

func TestFakerRealistic(t *testing.T) {
	f := FakerRealistic{}
	ctx := context.Background()
	s := RealisticSeed(Hash("John Smith"))

	a, err := f.Value(ctx, KindPerson, s)
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	b, _ := f.Value(ctx, KindPerson, s)
	if a == "" || a != b {
		t.Errorf("Expected stable non-empty value, got %q and %q", a, b)
	}

	ssn, _ := f.Value(ctx, KindSSN, s)
	if !regexp.MustCompile(`^\d{3}-\d{2}-\d{4}$`).MatchString(ssn) {
		t.Errorf("Unexpected SSN format %q", ssn)
	}

	date, _ := f.Value(ctx, KindDate, s)
	if !regexp.MustCompile(`^202[0-4]-\d{2}-\d{2}$`).MatchString(date) {
		t.Errorf("Unexpected date %q", date)
	}

	email, _ := f.Value(ctx, KindEmail, s)
	if !strings.HasSuffix(email, "@example.com") {
		t.Errorf("Expected reserved domain, got %q", email)
	}

	if _, err := f.Value(ctx, KindMatterNumber, s); !errors.Is(err, ErrNoRealisticValue) {
		t.Errorf("Expected ErrNoRealisticValue, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := f.Value(cancelled, KindPerson, s); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
