package visit

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
)

// Visit codes are handed to visitors and typed back in at the front desk, so
// the format is fixed: PREFIX-CAT-RAND, e.g. CIT-MEE-A1B2C.
const (
	codePrefix      = "CIT"
	codeSuffixLen   = 5
	codeTokenLen    = 3
	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeMaxAttempts = 5

	// Used when the category is empty or reduces to nothing printable.
	defaultCategoryToken = "VIS"
)

// Known purposes and departments get a stable token so staff recognize
// codes at a glance. Anything else falls through to categoryToken.
var categoryTokens = map[string]string{
	"meeting":                    "MEE",
	"campus tour":                "TOU",
	"enrollment":                 "ENR",
	"event":                      "EVT",
	"interview":                  "INT",
	"document request":           "DOC",
	"walk-in":                    "WLK",
	"college of computer studies": "CCS",
	"college of engineering":      "COE",
	"registrar":                   "REG",
	"accounting":                  "ACC",
	"library":                     "LIB",
	"admissions":                  "ADM",
}

// GenerateCode builds a unique visit code seeded by the category, retrying
// a bounded number of times when exists reports a collision. The caller
// still owns the insert; a store-level unique constraint backs this check
// (see Repository.Insert).
func GenerateCode(ctx context.Context, category string, exists func(ctx context.Context, code string) (bool, error)) (string, error) {
	token := categoryToken(category)
	for attempt := 0; attempt < codeMaxAttempts; attempt++ {
		suffix, err := randomSuffix()
		if err != nil {
			return "", err
		}
		code := fmt.Sprintf("%s-%s-%s", codePrefix, token, suffix)

		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeExhausted
}

func categoryToken(category string) string {
	key := strings.ToLower(strings.TrimSpace(category))
	if tok, ok := categoryTokens[key]; ok {
		return tok
	}

	var b strings.Builder
	for _, r := range strings.ToUpper(key) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == codeTokenLen {
				break
			}
		}
	}
	tok := b.String()
	if tok == "" {
		return defaultCategoryToken
	}
	for len(tok) < codeTokenLen {
		tok += "X"
	}
	return tok
}

func randomSuffix() (string, error) {
	buf := make([]byte, codeSuffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
