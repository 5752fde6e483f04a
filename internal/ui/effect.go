package ui

// Effect is what an interaction does to the page once its request finishes.
type Effect struct {
	Notification *Notification
	ResetForm    bool
	HideModal    bool
	Reload       bool
}

// Notify returns an effect that only shows a toast.
func Notify(message string, kind Kind) Effect {
	return Effect{Notification: &Notification{Message: message, Kind: kind}}
}

// AndReload reloads the whole page after the effect.
func (e Effect) AndReload() Effect {
	e.Reload = true
	return e
}

// AndResetForm clears the submitted form.
func (e Effect) AndResetForm() Effect {
	e.ResetForm = true
	return e
}

// AndHideModal hides the open modal.
func (e Effect) AndHideModal() Effect {
	e.HideModal = true
	return e
}

// IsZero reports whether the effect leaves the page untouched.
func (e Effect) IsZero() bool {
	return e.Notification == nil && !e.ResetForm && !e.HideModal && !e.Reload
}
