package cmdutil

import (
	"fmt"
	"io"
	"os"

	"github.com/marmos91/nestfs/internal/cli/output"
	"github.com/marmos91/nestfs/internal/cli/prompt"
)

// printStructured emits data as JSON or YAML and reports whether the format
// was one of the two. Table output is left to the caller.
func printStructured(w io.Writer, format output.Format, data any) (bool, error) {
	switch format {
	case output.FormatJSON:
		return true, output.PrintJSON(w, data)
	case output.FormatYAML:
		return true, output.PrintYAML(w, data)
	default:
		return false, nil
	}
}

// PrintOutput prints data in the configured format. For table format it
// displays emptyMsg when the result set is empty, otherwise renders the
// tableRenderer.
func PrintOutput(w io.Writer, data any, isEmpty bool, emptyMsg string, tableRenderer output.TableRenderer) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}
	if handled, err := printStructured(w, format, data); handled {
		return err
	}
	if isEmpty {
		_, _ = fmt.Fprintln(w, emptyMsg)
		return nil
	}
	return output.PrintTable(w, tableRenderer)
}

// PrintResource prints a single resource: a key-value table for table
// format, the marshaled resource for JSON/YAML.
func PrintResource(w io.Writer, data any, pairs [][2]string) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}
	if handled, err := printStructured(w, format, data); handled {
		return err
	}
	return output.SimpleTable(w, pairs)
}

// PrintResourceWithSuccess prints a success message for table format, and
// the full resource for JSON/YAML. Used by create and update commands.
func PrintResourceWithSuccess(w io.Writer, data any, successMsg string) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}
	if handled, err := printStructured(w, format, data); handled {
		return err
	}
	PrintSuccess(successMsg)
	return nil
}

// PrintSuccess prints a success message if the output format is table.
func PrintSuccess(msg string) {
	format, err := GetOutputFormatParsed()
	if err != nil || format != output.FormatTable {
		return
	}
	output.NewPrinter(os.Stdout, !IsColorDisabled()).Success(msg)
}

// RunDeleteWithConfirmation prompts for confirmation (unless force is true)
// and runs deleteFn.
func RunDeleteWithConfirmation(resourceType, name string, force bool, deleteFn func() error) error {
	confirmed, err := prompt.ConfirmWithForce(fmt.Sprintf("Delete %s '%s'?", resourceType, name), force)
	if err != nil {
		return HandleAbort(err)
	}
	if !confirmed {
		fmt.Println("Aborted.")
		return nil
	}

	if err := deleteFn(); err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("%s '%s' deleted successfully", resourceType, name))
	return nil
}

// HandleAbort turns a Ctrl+C abort into a clean exit.
// Returns nil for abort, otherwise the original error.
func HandleAbort(err error) error {
	if prompt.IsAborted(err) {
		fmt.Println("\nAborted.")
		return nil
	}
	return err
}
