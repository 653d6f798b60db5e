// Package validation holds the input rules shared by the vault's use
// cases: passcodes, tag colors, and names. Rules are jellydator/validation
// values so they compose with ValidateStruct.
package validation

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	validation "github.com/jellydator/validation"

	apperrors "github.com/scanvault/scanvault/internal/errors"
)

var (
	// hexColorRegex matches #RGB and #RRGGBB color codes
	hexColorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

// WrapValidationError converts a validation failure into the domain's
// ErrInvalidInput so callers can branch on the sentinel.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// PasscodeStrength validates an unlock passcode. The passcode is typed on a
// phone keyboard to open the vault, so the policy is length-based rather
// than composition-based.
type PasscodeStrength struct {
	MinLength int
}

// Validate checks if the passcode meets the configured requirements
func (p PasscodeStrength) Validate(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_passcode_strength", "passcode must be a string")
	}

	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_passcode_blank", "passcode must not be blank")
	}

	if utf8.RuneCountInString(s) < p.MinLength {
		return validation.NewError(
			"validation_passcode_min_length",
			"passcode must be at least "+strconv.Itoa(p.MinLength)+" characters",
		)
	}

	return nil
}

// HexColor validates a tag color code like #FF5733 or #F53
var HexColor = validation.NewStringRuleWithError(
	func(s string) bool {
		return hexColorRegex.MatchString(s)
	},
	validation.NewError("validation_hex_color", "must be a hex color code like #RRGGBB"),
)

// NoWhitespace rejects strings with leading or trailing whitespace.
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank rejects strings that are empty once trimmed.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
