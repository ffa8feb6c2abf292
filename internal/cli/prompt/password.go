package prompt

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

// ErrPasswordMismatch is returned when a password confirmation does not
// match the first entry.
var ErrPasswordMismatch = errors.New("passwords do not match")

// Password prompts for a masked password with no validation.
func Password(label string) (string, error) {
	return run(promptui.Prompt{Label: label, Mask: '*'})
}

// PasswordWithValidation prompts for a masked password of at least
// minLength characters.
func PasswordWithValidation(label string, minLength int) (string, error) {
	return run(promptui.Prompt{
		Label: label,
		Mask:  '*',
		Validate: func(input string) error {
			if len(input) < minLength {
				return fmt.Errorf("password must be at least %d characters", minLength)
			}
			return nil
		},
	})
}

// PasswordWithConfirmation prompts for a password twice and rejects the
// pair with ErrPasswordMismatch when the entries differ.
func PasswordWithConfirmation(label, confirmLabel string, minLength int) (string, error) {
	password, err := PasswordWithValidation(label, minLength)
	if err != nil {
		return "", err
	}

	confirm, err := Password(confirmLabel)
	if err != nil {
		return "", err
	}

	if password != confirm {
		return "", ErrPasswordMismatch
	}
	return password, nil
}

// NewPassword prompts for a new password with the standard labels and an
// eight character minimum.
func NewPassword() (string, error) {
	return PasswordWithConfirmation("Password", "Confirm password", 8)
}
