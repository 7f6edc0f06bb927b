package contact

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Info is the result of scanning a piece of text for contact details.
type Info struct {
	HasContact bool     `json:"has_contact"`
	Emails     []string `json:"emails"`
	Phones     []string `json:"phones"`
	Addresses  []string `json:"addresses"`
}

// Extractor pulls emails and phone numbers out of noisy, scrape-derived text.
// Several overlapping patterns run over the same input on purpose: scraped
// HTML often loses whitespace and punctuation, so we trade precision for
// recall and absorb the duplicate hits with a set-based merge.
type Extractor struct {
	emailPatterns []*regexp.Regexp
	phonePatterns []*regexp.Regexp
	contactWords  []string
}

func NewExtractor() *Extractor {
	return &Extractor{
		emailPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`),
			regexp.MustCompile(`(?i)\b[a-zA-Z0-9._%-]+\s*@\s*[a-zA-Z0-9.-]+\s*\.\s*[a-zA-Z]{2,}\b`),
			regexp.MustCompile(`(?i)(?:email|mail|e-mail)\s*:?\s*([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`),
		},
		phonePatterns: []*regexp.Regexp{
			regexp.MustCompile(`\+?1?[-.\s]?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}`),
			regexp.MustCompile(`\+?[0-9]{1,4}[-.\s]?\(?[0-9]{3,4}\)?[-.\s]?[0-9]{3,4}[-.\s]?[0-9]{4,5}`),
			regexp.MustCompile(`\b[0-9]{3}[-.\s][0-9]{3}[-.\s][0-9]{4}\b`),
			regexp.MustCompile(`\([0-9]{3}\)\s*[0-9]{3}[-.\s]?[0-9]{4}`),
			regexp.MustCompile(`(?i)(?:phone|tel|mobile|call)\s*:?\s*([+]?[0-9\s\-().]{7,20})`),
		},
		contactWords: []string{
			"contact", "reach", "email", "phone", "call", "write", "get in touch",
			"customer service", "support", "help desk", "sales", "inquiry",
			"office", "headquarters", "location", "address", "visit", "how to contact",
			"contact us", "contact information", "contact details", "get hold of",
			"email address", "phone number", "contact via email", "send email",
		},
	}
}

var whitespaceRe = regexp.MustCompile(`\s+`)
var nonDigitRe = regexp.MustCompile(`[^\d+]`)

// ExtractEmails returns lowercased, deduplicated email addresses found in text.
// A match is accepted only when it has exactly one "@", a non-empty local
// part, and a domain longer than 2 characters containing a dot.
func (e *Extractor) ExtractEmails(text string) []string {
	set := make(map[string]struct{})
	for _, pattern := range e.emailPatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			match := m[0]
			if len(m) > 1 && m[1] != "" {
				match = m[1]
			}
			email := whitespaceRe.ReplaceAllString(strings.ToLower(match), "")
			email = strings.Trim(email, `.,;:!?()[]{}"'`)
			parts := strings.Split(email, "@")
			if len(parts) != 2 || parts[0] == "" {
				continue
			}
			if len(parts[1]) <= 2 || !strings.Contains(parts[1], ".") {
				continue
			}
			set[email] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// ExtractPhones returns deduplicated phone candidates found in text.
// A candidate is kept when stripping everything but digits and "+" leaves at
// least 10 characters; the original matched substring is what gets stored.
func (e *Extractor) ExtractPhones(text string) []string {
	set := make(map[string]struct{})
	for _, pattern := range e.phonePatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			match := m[0]
			if len(m) > 1 && m[1] != "" {
				match = m[1]
			}
			digits := nonDigitRe.ReplaceAllString(match, "")
			if len(digits) >= 10 {
				set[strings.TrimSpace(match)] = struct{}{}
			}
		}
	}
	return sortedKeys(set)
}

// Extract scans text for every supported contact category.
func (e *Extractor) Extract(text string) Info {
	if strings.TrimSpace(text) == "" {
		return Info{Emails: []string{}, Phones: []string{}, Addresses: []string{}}
	}
	info := Info{
		Emails:    e.ExtractEmails(text),
		Phones:    e.ExtractPhones(text),
		Addresses: []string{},
	}
	info.HasContact = len(info.Emails) > 0 || len(info.Phones) > 0 || len(info.Addresses) > 0
	return info
}

// IsContactQuery reports whether the question is asking for contact details.
func (e *Extractor) IsContactQuery(question string) bool {
	lower := strings.ToLower(question)
	for _, w := range e.contactWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// AskingForEmail reports whether the question targets email specifically.
func AskingForEmail(question string) bool {
	lower := strings.ToLower(question)
	for _, w := range []string{"email", "e-mail", "mail"} {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// AskingForPhone reports whether the question targets a phone number.
func AskingForPhone(question string) bool {
	lower := strings.ToLower(question)
	for _, w := range []string{"phone", "call", "ring", "telephone", "mobile"} {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// FormatResponse renders extracted contact info as a reply to the question.
// A question that asks specifically for email (or phone) gets only that
// category; otherwise every non-empty category is listed. When nothing was
// found the "not found" message mirrors the asked-for category.
func (e *Extractor) FormatResponse(info Info, question string) string {
	var parts []string
	wantEmail := AskingForEmail(question)
	wantPhone := AskingForPhone(question)

	switch {
	case wantEmail && len(info.Emails) > 0:
		parts = append(parts, fmt.Sprintf("**Email**: %s", strings.Join(info.Emails, ", ")))
	case wantPhone && len(info.Phones) > 0:
		parts = append(parts, fmt.Sprintf("**Phone**: %s", strings.Join(info.Phones, ", ")))
	default:
		if len(info.Emails) > 0 {
			parts = append(parts, fmt.Sprintf("**Email**: %s", strings.Join(info.Emails, ", ")))
		}
		if len(info.Phones) > 0 {
			parts = append(parts, fmt.Sprintf("**Phone**: %s", strings.Join(info.Phones, ", ")))
		}
		if len(info.Addresses) > 0 {
			parts = append(parts, fmt.Sprintf("**Address**: %s", strings.Join(info.Addresses, ", ")))
		}
	}

	if len(parts) > 0 {
		return "Here's the contact information I found:\n\n" + strings.Join(parts, "\n\n")
	}
	if wantEmail {
		return "I couldn't find any email addresses in the available content. Try asking for general contact information or check for a contact page."
	}
	if wantPhone {
		return "I couldn't find any phone numbers in the available content. Try asking for general contact information or check for a contact page."
	}
	return "I couldn't find specific contact information in the available content. You might want to look for a contact page."
}

// MergeInfo unions multiple extraction results, preserving first-seen order.
func MergeInfo(infos ...Info) Info {
	merged := Info{Emails: []string{}, Phones: []string{}, Addresses: []string{}}
	seenEmail := make(map[string]struct{})
	seenPhone := make(map[string]struct{})
	for _, info := range infos {
		for _, e := range info.Emails {
			if _, ok := seenEmail[e]; !ok {
				seenEmail[e] = struct{}{}
				merged.Emails = append(merged.Emails, e)
			}
		}
		for _, p := range info.Phones {
			if _, ok := seenPhone[p]; !ok {
				seenPhone[p] = struct{}{}
				merged.Phones = append(merged.Phones, p)
			}
		}
	}
	merged.HasContact = len(merged.Emails) > 0 || len(merged.Phones) > 0
	return merged
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
