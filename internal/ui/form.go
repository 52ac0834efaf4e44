package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/crate/internal/forms"
)

// field is a labelled text input. key matches the field names used by [forms.Errors].
type field struct {
	key   string
	label string
	input textinput.Model
}

// fieldSet is a vertical stack of inputs with a single focused field.
type fieldSet struct {
	fields []field
	focus  int
}

func newField(key, label string) field {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 128
	ti.Width = 40
	return field{key: key, label: label, input: ti}
}

func newFieldSet(fields ...field) fieldSet {
	fs := fieldSet{fields: fields}
	if len(fs.fields) > 0 {
		fs.fields[0].input.Focus()
	}
	return fs
}

func newLoginForm() fieldSet {
	password := newField("password", "Password")
	password.input.EchoMode = textinput.EchoPassword
	return newFieldSet(newField("email", "Email"), password)
}

func newRegisterForm() fieldSet {
	password := newField("password", "Password")
	password.input.EchoMode = textinput.EchoPassword
	return newFieldSet(newField("email", "Email"), newField("user_name", "Username"), password)
}

func newSearchForm() fieldSet {
	return newFieldSet(newField("title", "Title"), newField("artist", "Artist"), newField("album", "Album"), newField("year", "Year"))
}

// move shifts focus by delta, wrapping at either end.
func (f *fieldSet) move(delta int) {
	if len(f.fields) == 0 {
		return
	}
	f.fields[f.focus].input.Blur()
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	f.fields[f.focus].input.Focus()
}

func (f *fieldSet) value(key string) string {
	for _, fl := range f.fields {
		if fl.key == key {
			return fl.input.Value()
		}
	}
	return ""
}

func (f *fieldSet) set(key, v string) {
	for i := range f.fields {
		if f.fields[i].key == key {
			f.fields[i].input.SetValue(v)
		}
	}
}

func (f *fieldSet) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

func (f fieldSet) view(errs forms.Errors) string {
	var b strings.Builder
	for i, fl := range f.fields {
		label := styles.label.Render(fl.label)
		if i == f.focus {
			label = styles.focus.Render(fl.label)
		}
		b.WriteString(label + " " + fl.input.View() + "\n")
		if msg, ok := errs[fl.key]; ok {
			b.WriteString(styles.label.Render("") + " " + styles.err.Render(msg) + "\n")
		}
	}
	return b.String()
}
