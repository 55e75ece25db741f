package cli

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/robinvdvleuten/mininab/category"
	"github.com/robinvdvleuten/mininab/command"
	"github.com/robinvdvleuten/mininab/ledger"
	"github.com/robinvdvleuten/mininab/month"
	"github.com/robinvdvleuten/mininab/storage"
)

var errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})

// ErrorRenderer renders errors with terminal styling and a hint on how to
// resolve them.
type ErrorRenderer struct {
	styled bool
}

// NewErrorRenderer creates a renderer. Unstyled renderers emit plain text.
func NewErrorRenderer(styled bool) *ErrorRenderer {
	return &ErrorRenderer{styled: styled}
}

// Render formats a single error with its hint.
func (r *ErrorRenderer) Render(err error) string {
	var verrs *ledger.ValidationErrors
	if errors.As(err, &verrs) {
		return r.RenderAll(verrs.Errors)
	}

	var buf strings.Builder
	buf.WriteString(r.style(errorStyle, sentence(err.Error())))
	if hint := hintFor(err); hint != "" {
		buf.WriteString("\n   ")
		buf.WriteString(r.style(errContextStyle, hint))
	}
	return buf.String()
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf strings.Builder
	for i, err := range errs {
		buf.WriteString(r.Render(err))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

func (r *ErrorRenderer) style(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

func hintFor(err error) string {
	var (
		monthErr    *month.FormatError
		pathErr     *category.InvalidPathError
		kindErr     *ledger.InvalidAccountKindError
		nameErr     *ledger.InvalidAccountNameError
		accountErr  *ledger.UnknownAccountError
		categoryErr *ledger.UnknownCategoryError
		rolloverErr *ledger.RolloverAppliedError
		corruptErr  *ledger.CorruptStateError
		saveErr     *storage.SaveError
		opErr       *command.UnknownOpError
	)

	switch {
	case errors.As(err, &monthErr):
		return "Months look like 2024-03, 2024/3, Mar 2024 or March 2024."
	case errors.As(err, &pathErr):
		return "Category paths look like Food or Food:Groceries."
	case errors.As(err, &kindErr):
		return "Type must be 'bank' or 'credit'."
	case errors.As(err, &nameErr):
		return "Give the account a name: mininab acc Checking bank"
	case errors.As(err, &accountErr):
		return "Add it first: mininab acc " + accountErr.Account + " bank"
	case errors.As(err, &categoryErr):
		return "Add it first: mininab cat " + categoryErr.Category
	case errors.As(err, &rolloverErr):
		return "Rolling the same months again carries balances twice. Re-run with --force to do it anyway."
	case errors.As(err, &corruptErr):
		return "The state file was not modified. Fix it by hand or point --ledger elsewhere."
	case errors.As(err, &saveErr):
		return "The change was not persisted."
	case errors.As(err, &opErr):
		return "Known ops: add_account, add_category, set_ready_to_assign, assign, spend, transfer, roll_forward."
	}
	return ""
}

// sentence upper-cases the first letter and ends the message with a period.
func sentence(msg string) string {
	if msg == "" {
		return msg
	}
	r, size := utf8.DecodeRuneInString(msg)
	msg = string(unicode.ToUpper(r)) + msg[size:]
	if !strings.HasSuffix(msg, ".") {
		msg += "."
	}
	return msg
}
