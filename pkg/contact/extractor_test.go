package contact

import (
	"strings"
	"testing"
)

func TestExtractEmails(t *testing.T) {
	e := NewExtractor()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "plain address",
			text: "reach us at a.b@domain.co for details",
			want: []string{"a.b@domain.co"},
		},
		{
			name: "surrounded by punctuation",
			text: "email: (a.b@domain.co).",
			want: []string{"a.b@domain.co"},
		},
		{
			name: "spaced around at sign",
			text: "write to sales @ example.com today",
			want: []string{"sales@example.com"},
		},
		{
			name: "uppercase is lowered",
			text: "Contact SALES@EXAMPLE.COM",
			want: []string{"sales@example.com"},
		},
		{
			name: "duplicates collapse",
			text: "a.b@domain.co or a.b@domain.co or A.B@domain.co",
			want: []string{"a.b@domain.co"},
		},
		{
			name: "short domain rejected",
			text: "not-an-email a@b",
			want: nil,
		},
		{
			name: "nothing found",
			text: "no contact details here",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ExtractEmails(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractEmails(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ExtractEmails(%q)[%d] = %q, want %q", tt.text, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExtractPhones(t *testing.T) {
	e := NewExtractor()

	tests := []struct {
		name      string
		text      string
		wantMatch bool
	}{
		{"parenthesized NANP", "call us at (555) 123-4567", true},
		{"dashed NANP", "our line is 555-123-4567", true},
		{"international", "dial +1 555 123 4567", true},
		{"labeled", "phone: 555.123.4567", true},
		{"too short", "room 123-4567 is free", false},
		{"no digits", "call us whenever you like", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ExtractPhones(tt.text)
			if tt.wantMatch && len(got) == 0 {
				t.Errorf("ExtractPhones(%q) found nothing, want at least one match", tt.text)
			}
			if !tt.wantMatch && len(got) > 0 {
				t.Errorf("ExtractPhones(%q) = %v, want none", tt.text, got)
			}
		})
	}
}

func TestExtractPhoneKeepsOriginalFormatting(t *testing.T) {
	e := NewExtractor()
	got := e.ExtractPhones("call (555) 123-4567 now")
	if len(got) == 0 {
		t.Fatal("expected a phone match")
	}
	if !strings.Contains(got[0], "(555)") {
		t.Errorf("stored phone %q lost its original formatting", got[0])
	}
}

func TestFormatResponse(t *testing.T) {
	e := NewExtractor()

	t.Run("email-only ask returns only email", func(t *testing.T) {
		info := Info{Emails: []string{"a@b.com"}, Phones: []string{"555-123-4567"}, HasContact: true}
		resp := e.FormatResponse(info, "what's your email")
		if !strings.Contains(resp, "a@b.com") {
			t.Errorf("response %q missing email", resp)
		}
		if strings.Contains(resp, "Phone") {
			t.Errorf("response %q should not contain a phone section", resp)
		}
	})

	t.Run("generic ask lists every category", func(t *testing.T) {
		info := Info{Emails: []string{"a@b.com"}, Phones: []string{"555-123-4567"}, HasContact: true}
		resp := e.FormatResponse(info, "how do I contact you")
		if !strings.Contains(resp, "a@b.com") || !strings.Contains(resp, "555-123-4567") {
			t.Errorf("response %q missing a category", resp)
		}
	})

	t.Run("empty result mirrors asked category", func(t *testing.T) {
		resp := e.FormatResponse(Info{}, "what's your phone number")
		if !strings.Contains(resp, "phone numbers") {
			t.Errorf("response %q should mention phone numbers", resp)
		}
	})
}

func TestIsContactQuery(t *testing.T) {
	e := NewExtractor()

	tests := []struct {
		question string
		want     bool
	}{
		{"how can I contact you", true},
		{"what is your email address", true},
		{"where is your office", true},
		{"what year were you founded", false},
	}

	for _, tt := range tests {
		if got := e.IsContactQuery(tt.question); got != tt.want {
			t.Errorf("IsContactQuery(%q) = %v, want %v", tt.question, got, tt.want)
		}
	}
}

func TestMergeInfoDeduplicates(t *testing.T) {
	a := Info{Emails: []string{"a@b.com"}, Phones: []string{"555-123-4567"}}
	b := Info{Emails: []string{"a@b.com", "c@d.com"}, Phones: []string{"555-123-4567"}}
	merged := MergeInfo(a, b)
	if len(merged.Emails) != 2 || len(merged.Phones) != 1 {
		t.Errorf("MergeInfo = %+v, want 2 emails and 1 phone", merged)
	}
	if !merged.HasContact {
		t.Error("MergeInfo should flag HasContact")
	}
}
