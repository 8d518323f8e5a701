// Package notes is the composition root of the note editor core.
//
// It wires the editor (pkg/editor), which turns a stream of user intents into
// debounced, identity-safe persistence calls, to a store adapter chosen by name.
//
// Features:
//
//   - **Autosave**: Edits are coalesced and persisted after a quiet window.
//   - **Create Once**: A new note is created exactly once; later changes update it.
//   - **Non-blocking**: Results arrive on an outcome channel, never as return values.
//   - **Pluggable Stores**: Markdown files (optionally versioned with git), SQLite, Redis, or memory.
//
// Usage:
//
//	ed, store, err := notes.New(ctx, "./notes",
//		notes.WithAutoInit(true),
//		notes.WithLogger(logger),
//	)
//	defer notes.Close(store)
//	defer ed.Shutdown(ctx)
//
//	_ = ed.Open(nil)
//	_ = ed.Edit(notes.Content{Title: "Groceries", Body: "milk"})
//	for o := range ed.Outcomes() {
//		log.Println(o)
//	}
package notes
