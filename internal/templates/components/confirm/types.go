// internal/templates/components/confirm/types.go
package confirm

// Detail is one labelled row in the dialog summary.
type Detail struct {
	Label string
	Value string
}

// Field is a hidden form value submitted with a post action.
type Field struct {
	Name  string
	Value string
}

// Action is the request that resolves the dialog. Method is "post" or
// "delete"; post actions submit Fields as a form.
type Action struct {
	Method string
	URL    string
	Label  string
	Danger bool
	Fields []Field
}

// View describes a confirm-then-execute dialog: a summary of the pending
// action and the request that resolves it. Both booking creation and
// cancellation render through this one component.
type View struct {
	Title   string
	Prompt  string
	Details []Detail
	Action  Action
	// Error re-renders the dialog after a failed resolve attempt.
	Error string
}

func (a Action) ButtonClass() string {
	if a.Danger {
		return "button danger"
	}
	return "button primary"
}
