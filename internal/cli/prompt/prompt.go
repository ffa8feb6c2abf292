// Package prompt wraps promptui with the interactive prompts nestfsctl uses.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user aborts a prompt with Ctrl+C.
var ErrAborted = errors.New("aborted")

// IsAborted reports whether err means the user backed out of a prompt.
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) || errors.Is(err, ErrAborted)
}

// run executes a prompt, folding promptui's interrupt and abort errors into
// ErrAborted.
func run(p promptui.Prompt) (string, error) {
	result, err := p.Run()
	if err != nil && IsAborted(err) {
		return result, ErrAborted
	}
	return result, err
}

// Input prompts for text, offering a default the user can keep with Enter.
func Input(label string, defaultValue string) (string, error) {
	return run(promptui.Prompt{Label: label, Default: defaultValue})
}

// InputRequired prompts for text that must not be empty.
func InputRequired(label string) (string, error) {
	return run(promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if input == "" {
				return promptui.ErrAbort
			}
			return nil
		},
	})
}

// InputOptional prompts for text the user may skip with Enter.
func InputOptional(label string) (string, error) {
	return run(promptui.Prompt{Label: label + " (optional)"})
}

// Confirm asks a yes/no question. Answering "n" or nothing declines,
// Ctrl+C returns ErrAborted.
func Confirm(label string, defaultYes bool) (bool, error) {
	hint := "y/N"
	if defaultYes {
		hint = "Y/n"
	}

	result, err := (promptui.Prompt{
		Label:     fmt.Sprintf("%s [%s]", label, hint),
		IsConfirm: true,
	}).Run()

	// promptui reports any non-"y" answer, including an empty one, as
	// ErrAbort rather than a result.
	switch {
	case errors.Is(err, promptui.ErrInterrupt):
		return false, ErrAborted
	case errors.Is(err, promptui.ErrAbort):
		return false, nil
	case err != nil && result == "":
		return defaultYes, nil
	case err != nil:
		return false, err
	}

	result = strings.ToLower(result)
	return result == "y" || result == "yes", nil
}

// ConfirmWithForce skips the prompt entirely when force is set.
func ConfirmWithForce(label string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	return Confirm(label, false)
}
