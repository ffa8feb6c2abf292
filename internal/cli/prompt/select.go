package prompt

import "github.com/manifoldco/promptui"

// SelectOption is one entry in a Select menu. Value is what the caller
// gets back; Label and Description are what the user sees.
type SelectOption struct {
	Label       string
	Value       string
	Description string
}

// Select shows an interactive menu and returns the Value of the chosen
// option.
func Select(label string, options []SelectOption) (string, error) {
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label | white }}",
		Selected: "* {{ .Label | green }}",
	}
	if len(options) > 0 && options[0].Description != "" {
		templates.Details = "{{ .Description }}"
	}

	i, _, err := (promptui.Select{
		Label:     label,
		Items:     options,
		Templates: templates,
		Size:      10,
	}).Run()
	if err != nil {
		if IsAborted(err) {
			return "", ErrAborted
		}
		return "", err
	}

	return options[i].Value, nil
}
