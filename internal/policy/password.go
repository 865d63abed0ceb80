// Package policy evaluates user-supplied values against the account rules:
// password strength, login format and postal codes. All functions are pure.
package policy

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// Strength is the human-facing classification of a password.
type Strength string

const (
	StrengthWeak       Strength = "Weak"
	StrengthFair       Strength = "Fair"
	StrengthStrong     Strength = "Strong"
	StrengthVeryStrong Strength = "Very Strong"
)

// Colors used by screens to render the strength meter.
var strengthColors = map[Strength]string{
	StrengthWeak:       "#F87171",
	StrengthFair:       "#FBBF24",
	StrengthStrong:     "#34D399",
	StrengthVeryStrong: "#10B981",
}

const (
	MinLength        = 8
	MinSpecialChars  = 2
	strongLength     = 12
	veryStrongLength = 16
	scoreCriteria    = 8
)

// SpecialChars is the fixed set counted towards the special-character rule.
const SpecialChars = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?~`"

var (
	upperRe = regexp.MustCompile(`[A-Z]`)
	lowerRe = regexp.MustCompile(`[a-z]`)
	digitRe = regexp.MustCompile(`[0-9]`)

	// RE2 has no backreferences.
	tripleRepeatRe = regexp2.MustCompile(`(.)\1\1`, regexp2.None)
)

// PasswordAssessment is the outcome of Evaluate. The boolean fields report
// each criterion so screens can render a checklist.
type PasswordAssessment struct {
	Valid    bool
	Strength Strength
	Color    string
	Errors   []string

	HasMinLength        bool
	HasUppercase        bool
	HasLowercase        bool
	HasDigit            bool
	HasSpecialChars     bool
	NoConsecutiveRepeat bool
	SpecialCount        int
}

// Evaluate checks password against every rule and classifies its strength.
// Strength is only above Weak when the password is valid.
func Evaluate(password string) PasswordAssessment {
	a := PasswordAssessment{Strength: StrengthWeak, Color: strengthColors[StrengthWeak]}

	if password == "" {
		a.Errors = append(a.Errors, "Password cannot be empty")
		return a
	}

	length := utf8.RuneCountInString(password)

	a.HasMinLength = length >= MinLength
	if !a.HasMinLength {
		a.Errors = append(a.Errors, fmt.Sprintf("Minimum %d characters", MinLength))
	}

	a.HasUppercase = upperRe.MatchString(password)
	if !a.HasUppercase {
		a.Errors = append(a.Errors, "At least one uppercase letter")
	}

	a.HasLowercase = lowerRe.MatchString(password)
	if !a.HasLowercase {
		a.Errors = append(a.Errors, "At least one lowercase letter")
	}

	a.HasDigit = digitRe.MatchString(password)
	if !a.HasDigit {
		a.Errors = append(a.Errors, "At least one digit")
	}

	a.SpecialCount = countSpecial(password)
	a.HasSpecialChars = a.SpecialCount >= MinSpecialChars
	if !a.HasSpecialChars {
		a.Errors = append(a.Errors, fmt.Sprintf("At least %d special characters (%d/%d)", MinSpecialChars, a.SpecialCount, MinSpecialChars))
	}

	repeated, err := tripleRepeatRe.MatchString(password)
	// a matcher timeout counts as a violation
	a.NoConsecutiveRepeat = err == nil && !repeated
	if !a.NoConsecutiveRepeat {
		a.Errors = append(a.Errors, "No character repeated 3 times in a row")
	}

	a.Valid = a.HasMinLength && a.HasUppercase && a.HasLowercase &&
		a.HasDigit && a.HasSpecialChars && a.NoConsecutiveRepeat

	switch {
	case !a.Valid:
		a.Strength = StrengthWeak
	case length >= veryStrongLength:
		a.Strength = StrengthVeryStrong
	case length >= strongLength:
		a.Strength = StrengthStrong
	default:
		a.Strength = StrengthFair
	}
	a.Color = strengthColors[a.Strength]

	return a
}

func countSpecial(password string) int {
	n := 0
	for _, r := range password {
		if strings.ContainsRune(SpecialChars, r) {
			n++
		}
	}
	return n
}

// StrengthPercentage scores password from 0 to 100 for a progress bar: one
// point for each of the six criteria plus one each for reaching 12 and 16
// characters, normalized over 8 and rounded down.
func StrengthPercentage(password string) int {
	if password == "" {
		return 0
	}

	a := Evaluate(password)
	length := utf8.RuneCountInString(password)

	score := 0
	for _, ok := range []bool{
		a.HasMinLength,
		a.HasUppercase,
		a.HasLowercase,
		a.HasDigit,
		a.HasSpecialChars,
		a.NoConsecutiveRepeat,
		length >= strongLength,
		length >= veryStrongLength,
	} {
		if ok {
			score++
		}
	}

	return score * 100 / scoreCriteria
}
