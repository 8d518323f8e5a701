// Package editor implements the note editing session: the autosave and identity
// reconciliation logic behind a "create or edit one note" form.
//
// A Controller owns at most one open session at a time. Edits are buffered in a draft,
// coalesced by a debounce timer and persisted through a core.Gateway. The first
// successful create binds the session to the server-assigned identity; every later flush
// becomes an update against it. A create is never issued while another create from the
// same session is still in flight.
//
// All session state is owned by a single loop goroutine. Intents (Open, Edit, Save, ...)
// are posted to the loop and return once applied; timer fires and gateway completions are
// posted back to it as well, so no component needs its own locking.
//
// Usage:
//
//	ctrl, err := editor.New(store, editor.WithLogger(logger))
//	_ = ctrl.Open(nil)                                  // new note
//	_ = ctrl.Edit(core.Content{Title: "Groceries"})     // autosaved after 300ms
//	_ = ctrl.Recolor(core.ColorGreen)
//	_ = ctrl.Save()                                     // flush now and close
//
//	for o := range ctrl.Outcomes() {
//		fmt.Println(o) // created, update-failed, ...
//	}
package editor
